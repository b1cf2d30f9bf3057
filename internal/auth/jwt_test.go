package auth

import (
	"testing"

	"atelier-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken("secret", 7, "mona", models.RoleManager)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "mona", claims.Username)
	assert.Equal(t, models.RoleManager, claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("secret", 1, "admin", models.RoleAdmin)
	require.NoError(t, err)

	_, err = ValidateToken("other-secret", token)
	assert.Error(t, err)
}

func TestValidateTokenGarbage(t *testing.T) {
	_, err := ValidateToken("secret", "not.a.token")
	assert.Error(t, err)
}

func TestTokensCarryUniqueJTI(t *testing.T) {
	a, err := GenerateToken("secret", 1, "admin", models.RoleAdmin)
	require.NoError(t, err)
	b, err := GenerateToken("secret", 1, "admin", models.RoleAdmin)
	require.NoError(t, err)

	ca, err := ValidateToken("secret", a)
	require.NoError(t, err)
	cb, err := ValidateToken("secret", b)
	require.NoError(t, err)
	assert.NotEqual(t, ca.ID, cb.ID)
}
