package http

import (
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAuthenticatorRejectsEmptySecret(t *testing.T) {
	auth, err := NewAuthenticator("")
	assert.Nil(t, auth)
	assert.True(t, errors.Is(err, ErrEmptySecret))
}

func TestNewRouterRejectsEmptySecret(t *testing.T) {
	router, err := NewRouter(Services{}, RouterOptions{}, zerolog.Nop())
	assert.Nil(t, router)
	assert.True(t, errors.Is(err, ErrEmptySecret))
}

func TestAuthenticatorWithoutSecretRejectsForgedToken(t *testing.T) {
	tokens := []string{signToken(t, "attacker", testSecret)}
	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "attacker"})
	if signed, err := forged.SignedString([]byte{}); err == nil {
		tokens = append(tokens, signed)
	}

	var zero Authenticator
	for _, tok := range tokens {
		_, err := zero.UserID(tok)
		assert.True(t, errors.Is(err, ErrEmptySecret))
	}
}

func TestAuthenticatorUserID(t *testing.T) {
	auth, err := NewAuthenticator(testSecret)
	require.NoError(t, err)

	userID, err := auth.UserID(signToken(t, "u1", testSecret))
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)

	_, err = auth.UserID(signToken(t, "u1", "other-secret"))
	assert.Error(t, err)

	_, err = auth.UserID(signToken(t, "", testSecret))
	assert.True(t, errors.Is(err, errNoSubject))
}
