package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profitboard/backend/internal/infrastructure/config"
)

func newTestService(expiration time.Duration) *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-bytes!!",
		AccessTokenExpiration: expiration,
		Issuer:                "profitboard",
	})
}

func TestGenerateAndValidateToken(t *testing.T) {
	service := newTestService(time.Hour)
	userID := uuid.New()

	token, err := service.GenerateToken(userID, "operator")
	require.NoError(t, err)
	require.NotEmpty(t, token.AccessToken)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.WithinDuration(t, time.Now().Add(time.Hour), token.ExpiresAt, 5*time.Second)

	claims, err := service.ValidateToken(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "operator", claims.Username)
	assert.Equal(t, "profitboard", claims.Issuer)
	assert.Equal(t, userID.String(), claims.Subject)

	parsed, err := claims.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, userID, parsed)
}

func TestValidateToken_Expired(t *testing.T) {
	service := newTestService(-time.Minute)

	token, err := service.GenerateToken(uuid.New(), "operator")
	require.NoError(t, err)

	_, err = service.ValidateToken(token.AccessToken)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	service := newTestService(time.Hour)
	other := NewJWTService(config.JWTConfig{
		Secret:                "a-different-secret-key-32-bytes!!!!",
		AccessTokenExpiration: time.Hour,
		Issuer:                "profitboard",
	})

	token, err := service.GenerateToken(uuid.New(), "operator")
	require.NoError(t, err)

	_, err = other.ValidateToken(token.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Garbage(t *testing.T) {
	service := newTestService(time.Hour)

	_, err := service.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = service.ValidateToken("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGetAccessTokenExpiration(t *testing.T) {
	service := newTestService(45 * time.Minute)
	assert.Equal(t, 45*time.Minute, service.GetAccessTokenExpiration())
}
