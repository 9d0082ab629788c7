package lifecycle

import "civiccare-be/models"

// transitionRoles is the authoritative transition table: for each current
// status, the statuses it may move to and the roles allowed to move it.
// Closed and rejected are terminal and have no rows. Rejection additionally
// requires that no staff is assigned (checked in ApplyTransition, since the
// table is pure status x role data).
var transitionRoles = map[models.IssueStatus]map[models.IssueStatus][]models.Role{
	models.StatusPending: {
		models.StatusInProgress: {models.RoleAdmin},
		models.StatusRejected:   {models.RoleAdmin},
	},
	models.StatusInProgress: {
		models.StatusWorking:  {models.RoleStaff},
		models.StatusRejected: {models.RoleAdmin},
	},
	models.StatusWorking: {
		models.StatusResolved: {models.RoleStaff},
		models.StatusRejected: {models.RoleAdmin},
	},
	models.StatusResolved: {
		models.StatusClosed: {models.RoleAdmin},
	},
}

// transitionOrder keeps AllowedTransitions deterministic for display and
// tests.
var transitionOrder = []models.IssueStatus{
	models.StatusInProgress,
	models.StatusWorking,
	models.StatusResolved,
	models.StatusClosed,
	models.StatusRejected,
}

// AllowedTransitions returns the statuses the issue may move to from the
// given status. Terminal statuses return an empty slice.
func AllowedTransitions(from models.IssueStatus) []models.IssueStatus {
	row := transitionRoles[from]
	out := make([]models.IssueStatus, 0, len(row))
	for _, to := range transitionOrder {
		if _, ok := row[to]; ok {
			out = append(out, to)
		}
	}
	return out
}

// AllowedRoles returns the roles permitted to perform the given transition,
// or nil if the transition itself is not legal.
func AllowedRoles(from, to models.IssueStatus) []models.Role {
	row, ok := transitionRoles[from]
	if !ok {
		return nil
	}
	return row[to]
}

// IsTerminal reports whether a status has no outgoing transitions.
func IsTerminal(s models.IssueStatus) bool {
	return len(transitionRoles[s]) == 0
}

func roleAllowed(role models.Role, allowed []models.Role) bool {
	role = role.Normalized()
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}
