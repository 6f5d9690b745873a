package auth

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/civic-triage/internal/domain"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", time.Minute)
	token, expiresAt, err := tm.GenerateToken(domain.Actor{ID: "u1", Role: domain.RoleAdmin, DisplayName: "Kim"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), expiresAt, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	actor := claims.Actor()
	assert.Equal(t, "u1", actor.ID)
	assert.True(t, actor.IsAdmin())
	assert.Equal(t, "Kim", actor.DisplayName)
}

func TestTokenManager_RejectsWrongSecret(t *testing.T) {
	token, _, err := NewTokenManager("one", time.Minute).GenerateToken(domain.Actor{ID: "u1", Role: domain.RoleCitizen})
	require.NoError(t, err)

	_, err = NewTokenManager("two", time.Minute).ParseToken(token)
	assert.Error(t, err)
}

func TestTokenManager_RejectsExpired(t *testing.T) {
	claims := &Claims{
		Role: domain.RoleCitizen,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewTokenManager("secret", time.Minute).ParseToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenManager_RequiresSubjectAndKnownRole(t *testing.T) {
	tm := NewTokenManager("secret", time.Minute)

	noSubject, _, err := tm.GenerateToken(domain.Actor{Role: domain.RoleCitizen})
	require.NoError(t, err)
	_, err = tm.ParseToken(noSubject)
	assert.ErrorContains(t, err, "subject")

	badRole, _, err := tm.GenerateToken(domain.Actor{ID: "u1", Role: domain.Role("superuser")})
	require.NoError(t, err)
	_, err = tm.ParseToken(badRole)
	assert.ErrorContains(t, err, "role")
}

func TestTokenManager_RejectsOtherAlgorithms(t *testing.T) {
	claims := &Claims{Role: domain.RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewTokenManager("secret", time.Minute).ParseToken(token)
	assert.Error(t, err)
}
