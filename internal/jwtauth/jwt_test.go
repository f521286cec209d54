package jwtauth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/uuid"

	dErrors "libris/pkg/domain-errors"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewService("test-signing-key", "libris", time.Hour)
	memberID := uuid.New()

	token, err := svc.GenerateAccessToken(memberID, "ada", true)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ada", claims.Username)
	assert.True(t, claims.Admin)
	assert.Equal(t, "libris", claims.Issuer)

	parsed, err := claims.ParsedMemberID()
	require.NoError(t, err)
	assert.Equal(t, memberID, parsed)
}

func TestExpiredToken(t *testing.T) {
	svc := NewService("test-signing-key", "libris", -time.Minute)

	token, err := svc.GenerateAccessToken(uuid.New(), "ada", false)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Contains(t, err.Error(), "expired")
}

func TestWrongSigningKey(t *testing.T) {
	issuer := NewService("key-one", "libris", time.Hour)
	verifier := NewService("key-two", "libris", time.Hour)

	token, err := issuer.GenerateAccessToken(uuid.New(), "ada", false)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestGarbageToken(t *testing.T) {
	svc := NewService("test-signing-key", "libris", time.Hour)

	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		_, err := svc.ValidateToken(tok)
		assert.Error(t, err)
	}
}

func TestMalformedMemberID(t *testing.T) {
	claims := &Claims{MemberID: "not-a-uuid"}
	_, err := claims.ParsedMemberID()
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
