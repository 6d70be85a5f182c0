package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ms-marketplace/internal/auth"
)

func TestIssueAndVerify(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", time.Hour)

	token, err := tokens.Issue("alice@example.com")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	email, err := tokens.Verify(token)
	assert.NoError(t, err)
	assert.Equal(t, "alice@example.com", email)
}

func TestVerifyExpiredToken(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", -time.Minute)

	token, err := tokens.Issue("alice@example.com")
	assert.NoError(t, err)

	_, err = tokens.Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestVerifyWrongSecret(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", time.Hour)
	other := auth.NewTokenService("other-secret", time.Hour)

	token, err := other.Issue("alice@example.com")
	assert.NoError(t, err)

	_, err = tokens.Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestVerifyGarbage(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", time.Hour)

	_, err := tokens.Verify("not.a.token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = tokens.Verify("")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
