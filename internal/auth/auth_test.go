package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hashed, err := HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery", hashed)

	assert.True(t, VerifyPassword("correct horse battery", hashed))
	assert.False(t, VerifyPassword("wrong password!", hashed))
}

func TestPasswordTooShort(t *testing.T) {
	_, err := HashPassword("short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestTokenRoundtrip(t *testing.T) {
	issuer := NewTokenIssuer("0123456789abcdef0123456789abcdef")

	token, err := issuer.Issue(42)
	require.NoError(t, err)

	userId, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userId)
}

func TestTokenWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("0123456789abcdef0123456789abcdef")
	other := NewTokenIssuer("ffffffffffffffffffffffffffffffff")

	token, err := issuer.Issue(7)
	require.NoError(t, err)

	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenExpired(t *testing.T) {
	issuer := NewTokenIssuer("0123456789abcdef0123456789abcdef")
	issuer.lifetime = -time.Minute

	token, err := issuer.Issue(7)
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenGarbage(t *testing.T) {
	issuer := NewTokenIssuer("0123456789abcdef0123456789abcdef")
	_, err := issuer.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
