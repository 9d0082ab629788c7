package models_test

import (
	"testing"

	"civiccare-be/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseIssueStatus verifies the closed status vocabulary: every known
// string round-trips, anything else is rejected at the boundary.
func TestParseIssueStatus(t *testing.T) {
	for _, s := range models.Statuses {
		parsed, err := models.ParseIssueStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	for _, bad := range []string{"", "Pending", "in progress", "IN-PROGRESS", "done", "assigned", "boosted"} {
		_, err := models.ParseIssueStatus(bad)
		assert.Error(t, err, "%q should be rejected", bad)
	}
}

func TestParseCategory(t *testing.T) {
	for _, c := range models.Categories {
		parsed, err := models.ParseCategory(string(c))
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}

	for _, bad := range []string{"", "potholes", "Road", "Electricity"} {
		_, err := models.ParseCategory(bad)
		assert.Error(t, err, "%q should be rejected", bad)
	}
}

func TestParseIssuePriority(t *testing.T) {
	for _, good := range []string{"normal", "high"} {
		parsed, err := models.ParseIssuePriority(good)
		require.NoError(t, err)
		assert.Equal(t, models.IssuePriority(good), parsed)
	}

	for _, bad := range []string{"", "low", "HIGH", "urgent"} {
		_, err := models.ParseIssuePriority(bad)
		assert.Error(t, err, "%q should be rejected", bad)
	}
}

func TestRoleNormalized(t *testing.T) {
	assert.Equal(t, models.RoleCitizen, models.RolePremium.Normalized())
	assert.Equal(t, models.RoleCitizen, models.RoleCitizen.Normalized())
	assert.Equal(t, models.RoleStaff, models.RoleStaff.Normalized())
	assert.Equal(t, models.RoleAdmin, models.RoleAdmin.Normalized())
}

func TestParseRole_RejectsSystem(t *testing.T) {
	// The system actor exists only for timeline attribution and must never
	// be accepted from the outside.
	_, ok := models.ParseRole("system")
	assert.False(t, ok)

	role, ok := models.ParseRole("premiumUser")
	assert.True(t, ok)
	assert.Equal(t, models.RolePremium, role)
}

func TestIssueHelpers(t *testing.T) {
	issue := models.Issue{
		SenderEmail: "citizen@example.com",
		Upvoters:    []string{"a@example.com", "b@example.com"},
		Timeline: []models.TimelineEntry{
			{Status: models.StatusPending},
			{Status: models.StatusInProgress},
		},
	}

	assert.False(t, issue.HasAssignee())
	issue.StaffEmail = "staff@example.com"
	assert.True(t, issue.HasAssignee())

	assert.True(t, issue.HasUpvoted("a@example.com"))
	assert.False(t, issue.HasUpvoted("c@example.com"))

	assert.Equal(t, models.StatusInProgress, issue.LastTimelineStatus())

	empty := models.Issue{}
	assert.Equal(t, models.IssueStatus(""), empty.LastTimelineStatus())
}
