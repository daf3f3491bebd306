package auth

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestVerify(t *testing.T) {
	tv := NewTokenVerifier(testSecret)
	tokenStr := signToken(t, testSecret, Claims{
		Email: "alice@example.com",
		Name:  "Alice",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "uid-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	identity, err := tv.Verify(tokenStr)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", identity.UID)
	assert.Equal(t, "alice@example.com", identity.Email)
	assert.Equal(t, "Alice", identity.DisplayName)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	tv := NewTokenVerifier(testSecret)
	tokenStr := signToken(t, "other-secret", Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "uid-1"},
	})

	_, err := tv.Verify(tokenStr)
	assert.Error(t, err)
}

func TestVerifyRejectsMissingSubject(t *testing.T) {
	tv := NewTokenVerifier(testSecret)
	tokenStr := signToken(t, testSecret, Claims{Email: "anon@example.com"})

	_, err := tv.Verify(tokenStr)
	assert.Error(t, err)
}

func TestVerifyRejectsExpired(t *testing.T) {
	tv := NewTokenVerifier(testSecret)
	tokenStr := signToken(t, testSecret, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "uid-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	_, err := tv.Verify(tokenStr)
	assert.Error(t, err)
}
