package utils_test

import (
	"testing"

	"github.com/Kyz7/rbac-console/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHash(t *testing.T) {
	hash, err := utils.HashPassword("Secret!1")
	require.NoError(t, err)

	assert.NotEqual(t, "Secret!1", hash)
	assert.True(t, utils.CheckPasswordHash("Secret!1", hash))
	assert.False(t, utils.CheckPasswordHash("secret!1", hash))
}

func TestJWT(t *testing.T) {
	t.Run("Success - Round trip", func(t *testing.T) {
		token, err := utils.GenerateJWT(12)
		require.NoError(t, err)

		id, err := utils.ParseJWT(token)
		require.NoError(t, err)
		assert.Equal(t, uint(12), id)
	})

	t.Run("Error - Garbage token", func(t *testing.T) {
		_, err := utils.ParseJWT("not-a-token")
		assert.Error(t, err)
	})
}

func TestValidateJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "short")
	assert.Error(t, utils.ValidateJWTSecret())

	t.Setenv("JWT_SECRET", "test_secret_key_minimum_32_characters_long_for_testing_only")
	assert.Error(t, utils.ValidateJWTSecret())

	t.Setenv("JWT_SECRET", "a-production-secret-that-is-long-enough")
	assert.NoError(t, utils.ValidateJWTSecret())
}
