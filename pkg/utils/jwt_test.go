package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-that-is-long-enough-123"

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken(testSecret, "ops", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, AdminRole, claims.Role)
	assert.Equal(t, "ops", claims.Subject)
}

func TestValidateToken_Rejects(t *testing.T) {
	expired, err := GenerateToken(testSecret, "ops", -time.Minute)
	require.NoError(t, err)
	_, err = ValidateToken(testSecret, expired)
	assert.Error(t, err)

	valid, err := GenerateToken(testSecret, "ops", time.Hour)
	require.NoError(t, err)
	_, err = ValidateToken("another-secret", valid)
	assert.Error(t, err)

	_, err = ValidateToken(testSecret, "not-a-token")
	assert.Error(t, err)
}
