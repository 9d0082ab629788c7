package lifecycle_test

import (
	"testing"

	"civiccare-be/lifecycle"
	"civiccare-be/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	citizen = models.Actor{Role: models.RoleCitizen, Email: "citizen@example.com"}
	admin   = models.Actor{Role: models.RoleAdmin, Email: "admin@example.com"}
	staffS  = models.Actor{Role: models.RoleStaff, Email: "staff@example.com"}
	staffT  = models.Actor{Role: models.RoleStaff, Email: "other-staff@example.com"}

	staffRef = models.StaffRef{ID: primitive.NewObjectID(), Name: "Sam Staff", Email: staffS.Email}
)

// checkInvariant asserts that the issue's status field matches its most
// recent timeline entry, which must hold after every lifecycle operation.
func checkInvariant(t *testing.T, issue models.Issue) {
	t.Helper()
	require.NotEmpty(t, issue.Timeline)
	assert.Equal(t, issue.Status, issue.LastTimelineStatus())
}

func newPendingIssue() models.Issue {
	issue := lifecycle.NewIssue("Streetlight out on Elm St", models.BrokenStreetlights, citizen)
	issue.ID = primitive.NewObjectID()
	issue.SenderName = "Casey Citizen"
	return issue
}

func TestNewIssue_StartsPendingWithMatchingTimeline(t *testing.T) {
	issue := newPendingIssue()

	assert.Equal(t, models.StatusPending, issue.Status)
	assert.Equal(t, models.PriorityNormal, issue.Priority)
	require.Len(t, issue.Timeline, 1)
	assert.Equal(t, citizen.Ref(), issue.Timeline[0].UpdatedBy)
	checkInvariant(t, issue)
}

func TestApplyTransition_UnknownTransitionFails(t *testing.T) {
	issue := newPendingIssue()

	// pending -> resolved skips the pipeline entirely.
	_, err := lifecycle.ApplyTransition(issue, models.StatusResolved, admin, "")

	require.Error(t, err)
	assert.Equal(t, lifecycle.KindInvalidTransition, lifecycle.KindOf(err))
}

// TestApplyTransition_TerminalStatusAlwaysFails verifies that no actor can
// move an issue out of closed or rejected, regardless of target.
func TestApplyTransition_TerminalStatusAlwaysFails(t *testing.T) {
	for _, terminal := range []models.IssueStatus{models.StatusClosed, models.StatusRejected} {
		for _, target := range models.Statuses {
			for _, actor := range []models.Actor{citizen, admin, staffS} {
				issue := newPendingIssue()
				issue.Status = terminal
				issue.Timeline = append(issue.Timeline, models.TimelineEntry{Status: terminal})

				_, err := lifecycle.ApplyTransition(issue, target, actor, "")

				require.Error(t, err, "%q -> %q as %q", terminal, target, actor.Role)
				assert.Equal(t, lifecycle.KindInvalidTransition, lifecycle.KindOf(err))
			}
		}
	}
}

func TestApplyTransition_RoleGate(t *testing.T) {
	issue := newPendingIssue()

	// A citizen may not reject, even though pending -> rejected is legal.
	_, err := lifecycle.ApplyTransition(issue, models.StatusRejected, citizen, "")
	require.Error(t, err)
	assert.Equal(t, lifecycle.KindUnauthorized, lifecycle.KindOf(err))

	// A premium user is still a citizen for permission purposes.
	premium := models.Actor{Role: models.RolePremium, Email: "premium@example.com"}
	_, err = lifecycle.ApplyTransition(issue, models.StatusRejected, premium, "")
	require.Error(t, err)
	assert.Equal(t, lifecycle.KindUnauthorized, lifecycle.KindOf(err))
}

func TestApplyTransition_InProgressRequiresAssignee(t *testing.T) {
	issue := newPendingIssue()

	_, err := lifecycle.ApplyTransition(issue, models.StatusInProgress, admin, "")

	require.Error(t, err)
	assert.Equal(t, lifecycle.KindNotAssigned, lifecycle.KindOf(err))
}

// TestApplyTransition_NonAssigneeStaffFails verifies that a staff member who
// is not the assignee cannot advance the issue, while the assignee can.
func TestApplyTransition_NonAssigneeStaffFails(t *testing.T) {
	issue := newPendingIssue()
	issue, err := lifecycle.AssignStaff(issue, staffRef, admin)
	require.NoError(t, err)
	issue, err = lifecycle.ApplyTransition(issue, models.StatusWorking, staffS, "On site")
	require.NoError(t, err)

	// Wrong staff member.
	_, err = lifecycle.ApplyTransition(issue, models.StatusResolved, staffT, "Done")
	require.Error(t, err)
	assert.Equal(t, lifecycle.KindNotAssignee, lifecycle.KindOf(err))

	// The assignee succeeds.
	updated, err := lifecycle.ApplyTransition(issue, models.StatusResolved, staffS, "Done")
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, updated.Status)
	checkInvariant(t, updated)
}

func TestApplyTransition_DoesNotMutateInput(t *testing.T) {
	issue := newPendingIssue()

	updated, err := lifecycle.ApplyTransition(issue, models.StatusRejected, admin, "Duplicate report")

	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, issue.Status)
	assert.Len(t, issue.Timeline, 1)
	assert.Equal(t, models.StatusRejected, updated.Status)
	assert.Len(t, updated.Timeline, 2)
	checkInvariant(t, updated)
}

func TestAssignStaff_HappyPathThenAlreadyAssigned(t *testing.T) {
	issue := newPendingIssue()

	updated, err := lifecycle.AssignStaff(issue, staffRef, admin)

	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, updated.Status)
	assert.Equal(t, staffRef.Email, updated.StaffEmail)
	assert.Equal(t, staffRef.Name, updated.StaffName)
	require.NotNil(t, updated.StaffID)
	assert.Equal(t, staffRef.ID, *updated.StaffID)
	require.Len(t, updated.Timeline, 2)
	assert.Equal(t, "Assigned to Sam Staff", updated.Timeline[1].Message)
	checkInvariant(t, updated)

	// Repeating the same call fails with AlreadyAssigned.
	_, err = lifecycle.AssignStaff(updated, staffRef, admin)
	require.Error(t, err)
	assert.Equal(t, lifecycle.KindAlreadyAssigned, lifecycle.KindOf(err))
}

func TestAssignStaff_RequiresAdmin(t *testing.T) {
	issue := newPendingIssue()

	for _, actor := range []models.Actor{citizen, staffS} {
		_, err := lifecycle.AssignStaff(issue, staffRef, actor)
		require.Error(t, err, "role %q", actor.Role)
		assert.Equal(t, lifecycle.KindUnauthorized, lifecycle.KindOf(err))
	}
}

func TestApplyTransition_RejectWithStaffAssignedFails(t *testing.T) {
	issue := newPendingIssue()
	issue, err := lifecycle.AssignStaff(issue, staffRef, admin)
	require.NoError(t, err)

	_, err = lifecycle.ApplyTransition(issue, models.StatusRejected, admin, "")

	require.Error(t, err)
	assert.Equal(t, lifecycle.KindInvalidTransition, lifecycle.KindOf(err))
}

func TestApplyBoost(t *testing.T) {
	confirmation := lifecycle.PaymentConfirmation{
		SessionID:  "cs_test_123",
		PayerEmail: citizen.Email,
	}

	// Boosting a normal-priority pending issue succeeds and appends exactly
	// one timeline entry with the status unchanged.
	issue := newPendingIssue()
	updated, err := lifecycle.ApplyBoost(issue, confirmation)
	require.NoError(t, err)
	assert.Equal(t, models.PriorityHigh, updated.Priority)
	assert.Equal(t, models.StatusPending, updated.Status)
	require.Len(t, updated.Timeline, 2)
	boosted := updated.Timeline[1]
	assert.Equal(t, models.StatusPending, boosted.Status)
	assert.Equal(t, "Priority boosted", boosted.Message)
	assert.Equal(t, models.RoleSystem, boosted.UpdatedBy.Role)
	assert.Equal(t, citizen.Email, boosted.UpdatedBy.Email)
	checkInvariant(t, updated)

	// Boosting again is rejected; priority stays high.
	_, err = lifecycle.ApplyBoost(updated, confirmation)
	require.Error(t, err)
	assert.Equal(t, lifecycle.KindBoostNotAllowed, lifecycle.KindOf(err))

	// Terminal or resolved issues cannot be boosted.
	for _, s := range []models.IssueStatus{models.StatusResolved, models.StatusClosed, models.StatusRejected} {
		terminal := newPendingIssue()
		terminal.Status = s
		terminal.Timeline = append(terminal.Timeline, models.TimelineEntry{Status: s})

		_, err := lifecycle.ApplyBoost(terminal, confirmation)
		require.Error(t, err, "status %q", s)
		assert.Equal(t, lifecycle.KindBoostNotAllowed, lifecycle.KindOf(err))
	}
}

// A confirmation that finds the issue already boosted settles its payment
// session instead of applying a second boost. This is what keeps a replayed
// confirmation succeeding after the boost write landed but the payment
// record did not.
func TestSettleWithoutBoost(t *testing.T) {
	issue := newPendingIssue()
	assert.False(t, lifecycle.SettleWithoutBoost(issue))

	confirmation := lifecycle.PaymentConfirmation{
		SessionID:  "cs_test_456",
		PayerEmail: citizen.Email,
	}
	boosted, err := lifecycle.ApplyBoost(issue, confirmation)
	require.NoError(t, err)
	assert.True(t, lifecycle.SettleWithoutBoost(boosted))

	// The boosted state persists through later transitions, so a very late
	// replay still settles rather than erroring.
	assigned := boosted
	assigned.StaffName = "Inspector"
	assigned.StaffEmail = "inspector@example.com"
	moved, err := lifecycle.ApplyTransition(assigned, models.StatusInProgress, admin, "")
	require.NoError(t, err)
	assert.True(t, lifecycle.SettleWithoutBoost(moved))
}

func TestApplyUpvote(t *testing.T) {
	issue := newPendingIssue()
	voter := models.Actor{Role: models.RoleCitizen, Email: "neighbor@example.com"}

	// First upvote counts.
	updated, err := lifecycle.ApplyUpvote(issue, voter)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated.UpvoteCount)
	assert.True(t, updated.HasUpvoted(voter.Email))

	// Second upvote by the same actor fails and the count holds.
	_, err = lifecycle.ApplyUpvote(updated, voter)
	require.Error(t, err)
	assert.Equal(t, lifecycle.KindAlreadyUpvoted, lifecycle.KindOf(err))
	assert.Equal(t, int64(1), updated.UpvoteCount)

	// The creator cannot upvote their own issue.
	_, err = lifecycle.ApplyUpvote(updated, citizen)
	require.Error(t, err)
	assert.Equal(t, lifecycle.KindSelfUpvote, lifecycle.KindOf(err))
}

// The count always equals the number of distinct voters, so the stored
// document is authoritative for the count reported back to clients.
func TestApplyUpvote_CountMatchesVoterSet(t *testing.T) {
	issue := newPendingIssue()

	for i, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		updated, err := lifecycle.ApplyUpvote(issue, models.Actor{Role: models.RoleCitizen, Email: email})
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), updated.UpvoteCount)
		assert.Len(t, updated.Upvoters, i+1)
		issue = updated
	}
}

// TestFullPipelineScenario walks an issue through the entire happy path:
// reported -> assigned -> working -> resolved -> closed, expecting five
// timeline entries in that exact order.
func TestFullPipelineScenario(t *testing.T) {
	issue := newPendingIssue()

	issue, err := lifecycle.AssignStaff(issue, staffRef, admin)
	require.NoError(t, err)
	checkInvariant(t, issue)

	issue, err = lifecycle.ApplyTransition(issue, models.StatusWorking, staffS, "Crew dispatched")
	require.NoError(t, err)
	checkInvariant(t, issue)

	issue, err = lifecycle.ApplyTransition(issue, models.StatusResolved, staffS, "Light replaced")
	require.NoError(t, err)
	checkInvariant(t, issue)

	issue, err = lifecycle.ApplyTransition(issue, models.StatusClosed, admin, "Verified by admin")
	require.NoError(t, err)
	checkInvariant(t, issue)

	assert.Equal(t, models.StatusClosed, issue.Status)
	require.Len(t, issue.Timeline, 5)

	wantOrder := []models.IssueStatus{
		models.StatusPending,
		models.StatusInProgress,
		models.StatusWorking,
		models.StatusResolved,
		models.StatusClosed,
	}
	for i, want := range wantOrder {
		assert.Equal(t, want, issue.Timeline[i].Status, "timeline entry %d", i)
	}

	// Timeline timestamps are monotonically non-decreasing.
	for i := 1; i < len(issue.Timeline); i++ {
		assert.False(t, issue.Timeline[i].CreatedAt.Before(issue.Timeline[i-1].CreatedAt),
			"timeline entry %d is older than entry %d", i, i-1)
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := map[lifecycle.ErrorKind]int{
		lifecycle.KindInvalidTransition:      400,
		lifecycle.KindNotAssigned:            400,
		lifecycle.KindUnauthorized:           403,
		lifecycle.KindNotAssignee:            403,
		lifecycle.KindSelfUpvote:             403,
		lifecycle.KindAlreadyAssigned:        409,
		lifecycle.KindAlreadyUpvoted:         409,
		lifecycle.KindBoostNotAllowed:        409,
		lifecycle.KindConcurrentModification: 409,
	}

	for kind, want := range cases {
		assert.Equal(t, want, lifecycle.HTTPStatus(kind), "kind %q", kind)
	}
}
