package lifecycle_test

import (
	"testing"

	"civiccare-be/lifecycle"
	"civiccare-be/models"

	"github.com/stretchr/testify/assert"
)

// TestAllowedTransitions_Table enumerates the full transition table.
func TestAllowedTransitions_Table(t *testing.T) {
	cases := []struct {
		from models.IssueStatus
		want []models.IssueStatus
	}{
		{models.StatusPending, []models.IssueStatus{models.StatusInProgress, models.StatusRejected}},
		{models.StatusInProgress, []models.IssueStatus{models.StatusWorking, models.StatusRejected}},
		{models.StatusWorking, []models.IssueStatus{models.StatusResolved, models.StatusRejected}},
		{models.StatusResolved, []models.IssueStatus{models.StatusClosed}},
		{models.StatusClosed, []models.IssueStatus{}},
		{models.StatusRejected, []models.IssueStatus{}},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, lifecycle.AllowedTransitions(tc.from), "from %q", tc.from)
	}
}

// TestAllowedRoles_Table enumerates every legal (from, to) pair and its roles.
func TestAllowedRoles_Table(t *testing.T) {
	cases := []struct {
		from, to models.IssueStatus
		want     []models.Role
	}{
		{models.StatusPending, models.StatusInProgress, []models.Role{models.RoleAdmin}},
		{models.StatusPending, models.StatusRejected, []models.Role{models.RoleAdmin}},
		{models.StatusInProgress, models.StatusWorking, []models.Role{models.RoleStaff}},
		{models.StatusInProgress, models.StatusRejected, []models.Role{models.RoleAdmin}},
		{models.StatusWorking, models.StatusResolved, []models.Role{models.RoleStaff}},
		{models.StatusWorking, models.StatusRejected, []models.Role{models.RoleAdmin}},
		{models.StatusResolved, models.StatusClosed, []models.Role{models.RoleAdmin}},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, lifecycle.AllowedRoles(tc.from, tc.to), "%q -> %q", tc.from, tc.to)
	}
}

// TestAllowedRoles_IllegalPairsReturnNil verifies that every (status, status)
// pair absent from the table yields nil, including skips and reversals.
func TestAllowedRoles_IllegalPairsReturnNil(t *testing.T) {
	legal := map[[2]models.IssueStatus]bool{}
	for _, from := range models.Statuses {
		for _, to := range lifecycle.AllowedTransitions(from) {
			legal[[2]models.IssueStatus{from, to}] = true
		}
	}

	for _, from := range models.Statuses {
		for _, to := range models.Statuses {
			if legal[[2]models.IssueStatus{from, to}] {
				continue
			}
			assert.Nil(t, lifecycle.AllowedRoles(from, to), "%q -> %q should be illegal", from, to)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, lifecycle.IsTerminal(models.StatusClosed))
	assert.True(t, lifecycle.IsTerminal(models.StatusRejected))

	for _, s := range []models.IssueStatus{
		models.StatusPending, models.StatusInProgress, models.StatusWorking, models.StatusResolved,
	} {
		assert.False(t, lifecycle.IsTerminal(s), "%q should not be terminal", s)
	}
}
