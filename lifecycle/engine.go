package lifecycle

import (
	"fmt"
	"time"

	"civiccare-be/models"
)

// PaymentConfirmation is the opaque confirmation the payment collaborator
// delivers after a boost checkout completes.
type PaymentConfirmation struct {
	SessionID  string
	PayerEmail string
}

// ApplyTransition validates and applies a status change, returning the
// updated issue with the new status and an appended timeline entry. The
// input issue is not mutated; on error the caller's copy is unchanged, so
// status and timeline always move together.
//
// Preconditions, in order: the transition must be legal from the current
// status, the actor's role must be permitted, rejection requires no assigned
// staff, entering in-progress requires an assignee, and entering working or
// resolved requires the actor to be the assignee.
func ApplyTransition(issue models.Issue, target models.IssueStatus, actor models.Actor, message string) (models.Issue, error) {
	allowed := AllowedRoles(issue.Status, target)
	if allowed == nil {
		return issue, newError(KindInvalidTransition,
			fmt.Sprintf("cannot move issue from %q to %q", issue.Status, target))
	}

	if !roleAllowed(actor.Role, allowed) {
		return issue, newError(KindUnauthorized,
			fmt.Sprintf("role %q may not move issue from %q to %q", actor.Role, issue.Status, target))
	}

	if target == models.StatusRejected && issue.HasAssignee() {
		return issue, newError(KindInvalidTransition,
			"cannot reject an issue with staff assigned")
	}

	if target == models.StatusInProgress && !issue.HasAssignee() {
		return issue, newError(KindNotAssigned,
			"issue must have staff assigned before entering progress")
	}

	if (target == models.StatusWorking || target == models.StatusResolved) &&
		actor.Email != issue.StaffEmail {
		return issue, newError(KindNotAssignee,
			fmt.Sprintf("only the assigned staff member may move issue to %q", target))
	}

	now := time.Now()
	issue.Status = target
	issue.StatusMessage = message
	issue.UpdatedAt = now
	issue.Timeline = appendEntry(issue.Timeline, models.TimelineEntry{
		Status:    target,
		Message:   message,
		UpdatedBy: actor.Ref(),
		CreatedAt: now,
	})
	return issue, nil
}

// AssignStaff sets the assignee and moves the issue pending -> in-progress
// as one logical operation; an issue is never "assigned but still pending".
// Only an admin may assign, only while the issue is pending and unassigned.
func AssignStaff(issue models.Issue, staff models.StaffRef, actor models.Actor) (models.Issue, error) {
	if actor.Role.Normalized() != models.RoleAdmin {
		return issue, newError(KindUnauthorized, "only an admin may assign staff")
	}

	if issue.HasAssignee() {
		return issue, newError(KindAlreadyAssigned,
			fmt.Sprintf("issue already assigned to %s", issue.StaffEmail))
	}

	if issue.Status != models.StatusPending {
		return issue, newError(KindInvalidTransition,
			fmt.Sprintf("cannot assign staff to an issue in status %q", issue.Status))
	}

	staffID := staff.ID
	issue.StaffID = &staffID
	issue.StaffName = staff.Name
	issue.StaffEmail = staff.Email

	return ApplyTransition(issue, models.StatusInProgress, actor,
		fmt.Sprintf("Assigned to %s", staff.Name))
}

// SettleWithoutBoost reports whether a boost confirmation should settle its
// payment session without touching the issue: the issue already carries high
// priority, so the paid-for state holds. This covers a replayed confirmation
// whose earlier attempt boosted the issue but failed before recording the
// payment, and a concurrent confirmation that lost the priority write.
func SettleWithoutBoost(issue models.Issue) bool {
	return issue.Priority == models.PriorityHigh
}

// ApplyBoost escalates priority normal -> high after a confirmed payment.
// Priority is orthogonal to status: the appended timeline entry keeps the
// current status and is attributed to the system actor. Boosting an
// already-high or terminal issue is rejected.
func ApplyBoost(issue models.Issue, confirmation PaymentConfirmation) (models.Issue, error) {
	if issue.Priority == models.PriorityHigh {
		return issue, newError(KindBoostNotAllowed, "issue priority is already high")
	}

	switch issue.Status {
	case models.StatusResolved, models.StatusClosed, models.StatusRejected:
		return issue, newError(KindBoostNotAllowed,
			fmt.Sprintf("cannot boost an issue in status %q", issue.Status))
	}

	now := time.Now()
	issue.Priority = models.PriorityHigh
	issue.UpdatedAt = now
	issue.Timeline = appendEntry(issue.Timeline, models.TimelineEntry{
		Status:  issue.Status,
		Message: "Priority boosted",
		UpdatedBy: models.ActorRef{
			Role:  models.RoleSystem,
			Email: confirmation.PayerEmail,
		},
		CreatedAt: now,
	})
	return issue, nil
}

// ApplyUpvote increments the upvote count once per distinct actor. The
// creator may not upvote their own issue.
func ApplyUpvote(issue models.Issue, actor models.Actor) (models.Issue, error) {
	if actor.Email == issue.SenderEmail {
		return issue, newError(KindSelfUpvote, "cannot upvote your own issue")
	}

	if issue.HasUpvoted(actor.Email) {
		return issue, newError(KindAlreadyUpvoted, "you already upvoted this issue")
	}

	issue.Upvoters = append(append([]string{}, issue.Upvoters...), actor.Email)
	issue.UpvoteCount++
	return issue, nil
}

// NewIssue builds a freshly reported issue in the unique initial status,
// with the matching first timeline entry.
func NewIssue(title string, category models.IssueCategory, reporter models.Actor) models.Issue {
	now := time.Now()
	return models.Issue{
		Title:       title,
		Category:    category,
		SenderEmail: reporter.Email,
		Status:      models.StatusPending,
		Priority:    models.PriorityNormal,
		Timeline: []models.TimelineEntry{{
			Status:    models.StatusPending,
			Message:   "Issue reported",
			UpdatedBy: reporter.Ref(),
			CreatedAt: now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// appendEntry copies before appending so callers holding the input issue
// never observe a shared timeline backing array.
func appendEntry(timeline []models.TimelineEntry, entry models.TimelineEntry) []models.TimelineEntry {
	out := make([]models.TimelineEntry, len(timeline), len(timeline)+1)
	copy(out, timeline)
	return append(out, entry)
}
