package middlewares_test

import (
	"testing"

	"civiccare-be/middlewares"
	"civiccare-be/models"

	"github.com/stretchr/testify/assert"
)

// The free tier is a lifetime cap on reported issues, not a rolling window:
// a citizen at the limit stays blocked until an issue is deleted, no matter
// how much time passes.
func TestFreeTierLimited(t *testing.T) {
	const limit = 3

	assert.False(t, middlewares.FreeTierLimited(models.RoleCitizen, 0, limit))
	assert.False(t, middlewares.FreeTierLimited(models.RoleCitizen, 2, limit))
	assert.True(t, middlewares.FreeTierLimited(models.RoleCitizen, 3, limit))
	assert.True(t, middlewares.FreeTierLimited(models.RoleCitizen, 10, limit))
}

func TestFreeTierLimitedExemptRoles(t *testing.T) {
	for _, role := range []models.Role{models.RolePremium, models.RoleStaff, models.RoleAdmin} {
		assert.False(t, middlewares.FreeTierLimited(role, 100, 3), "role %s should not be capped", role)
	}
}
