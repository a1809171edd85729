package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casapps/casnotes/src/internal/database/models"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)

	assert.True(t, CheckPasswordHash("hunter22", hash))
	assert.False(t, CheckPasswordHash("hunter23", hash))
}

func TestTokenRoundTrip(t *testing.T) {
	service := NewAuthService("test-secret", "casnotes", time.Hour)
	user := &models.User{
		ID:       uuid.New(),
		Username: "alice",
		Role:     models.RoleCreator,
		Status:   models.UserActive,
	}
	sessionID := uuid.New()

	pair, err := service.GenerateTokenPair(user, sessionID)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.True(t, pair.ExpiresAt.After(time.Now()))

	claims, err := service.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, models.RoleCreator, claims.Role)
	assert.Equal(t, sessionID, claims.SessionID)
	assert.Equal(t, "casnotes", claims.Issuer)
}

func TestValidateTokenRejectsWrongKey(t *testing.T) {
	service := NewAuthService("test-secret", "casnotes", time.Hour)
	imposter := NewAuthService("other-secret", "casnotes", time.Hour)
	user := &models.User{ID: uuid.New(), Username: "alice", Role: models.RoleConsumer, Status: models.UserActive}

	pair, err := imposter.GenerateTokenPair(user, uuid.New())
	require.NoError(t, err)

	_, err = service.ValidateToken(pair.AccessToken)
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	service := NewAuthService("test-secret", "casnotes", time.Nanosecond)
	user := &models.User{ID: uuid.New(), Username: "alice", Role: models.RoleConsumer, Status: models.UserActive}

	pair, err := service.GenerateTokenPair(user, uuid.New())
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = service.ValidateToken(pair.AccessToken)
	assert.Error(t, err)
}
