package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	Configure("test-secret", time.Hour)

	token, err := GenerateToken(42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	Configure("test-secret", time.Hour)

	_, err := ValidateToken("not-a-jwt")
	assert.Error(t, err)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	Configure("secret-one", time.Hour)
	token, err := GenerateToken(42)
	require.NoError(t, err)

	Configure("secret-two", time.Hour)
	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	Configure("test-secret", -time.Minute)
	// Configure ignores non-positive expiries, so force one directly.
	tokenExpiry = -time.Minute
	token, err := GenerateToken(42)
	require.NoError(t, err)
	tokenExpiry = 72 * time.Hour

	_, err = ValidateToken(token)
	assert.Error(t, err)
}
