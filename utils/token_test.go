package authUtils_test

import (
	"testing"

	authUtils "civiccare-be/utils"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGenerateAndSetToken_RoundTrip verifies the minted token parses back
// with the user_id and role claims intact.
func TestGenerateAndSetToken_RoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	tokenString, err := authUtils.GenerateAndSetToken("64a1b2c3d4e5f60718293a4b", "staff")
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "64a1b2c3d4e5f60718293a4b", claims["user_id"])
	assert.Equal(t, "staff", claims["role"])
	assert.NotNil(t, claims["exp"])
}

func TestGenerateAndSetToken_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := authUtils.GenerateAndSetToken("someid", "citizen")
	assert.Error(t, err)
}
