package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/domain/identity"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService(expiration time.Duration) *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:     "test-secret-for-fulfillment-engine-tests",
		Expiration: expiration,
		Issuer:     "fulfillment-engine",
	})
}

func testAdmin() identity.Actor {
	return identity.Actor{ID: uuid.New(), DisplayName: "Ah Ho", Role: identity.RoleAdmin}
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	service := newTestJWTService(time.Hour)
	actor := testAdmin()

	token, expiresAt, err := service.GenerateToken(actor)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)

	assert.Equal(t, actor.ID.String(), claims.ActorID)
	assert.Equal(t, "Ah Ho", claims.DisplayName)
	assert.Equal(t, "ADMIN", claims.Role)
	assert.Equal(t, "fulfillment-engine", claims.Issuer)
}

func TestJWTService_ValidateToken_Errors(t *testing.T) {
	service := newTestJWTService(time.Hour)

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := service.ValidateToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects token signed with a different secret", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{
			Secret:     "a-completely-different-secret-value",
			Expiration: time.Hour,
			Issuer:     "fulfillment-engine",
		})
		token, _, err := other.GenerateToken(testAdmin())
		require.NoError(t, err)

		_, err = service.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects expired token", func(t *testing.T) {
		shortLived := newTestJWTService(-time.Minute)
		token, _, err := shortLived.GenerateToken(testAdmin())
		require.NoError(t, err)

		_, err = service.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})
}

func TestClaims_Actor(t *testing.T) {
	service := newTestJWTService(time.Hour)

	t.Run("round-trips the actor", func(t *testing.T) {
		original := testAdmin()
		token, _, err := service.GenerateToken(original)
		require.NoError(t, err)

		claims, err := service.ValidateToken(token)
		require.NoError(t, err)

		actor, err := claims.Actor()
		require.NoError(t, err)
		assert.Equal(t, original, actor)
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		claims := &Claims{ActorID: uuid.New().String(), DisplayName: "X", Role: "SUPERUSER"}
		_, err := claims.Actor()
		assert.ErrorIs(t, err, ErrUnknownRole)
	})

	t.Run("rejects malformed actor id", func(t *testing.T) {
		claims := &Claims{ActorID: "nope", DisplayName: "X", Role: "STAFF"}
		_, err := claims.Actor()
		assert.ErrorIs(t, err, ErrInvalidClaims)
	})
}
