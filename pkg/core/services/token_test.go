package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("secret-1", time.Hour)

	token, err := m.Issue("user-1", "a@x.com")
	require.NoError(t, err)

	identity, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, &domain.Identity{UserID: "user-1", Email: "a@x.com"}, identity)
}

func TestTokenRejected(t *testing.T) {
	m := NewTokenManager("secret-1", time.Hour)
	token, err := m.Issue("user-1", "a@x.com")
	require.NoError(t, err)

	other := NewTokenManager("secret-2", time.Hour)
	_, err = other.Verify(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Equal(t, "invalid token", domain.MessageOf(err))

	_, err = m.Verify("garbage")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestTokenExpired(t *testing.T) {
	m := NewTokenManager("secret-1", time.Minute)
	issuedAt := time.Now().Add(-time.Hour)
	m.now = func() time.Time { return issuedAt }

	token, err := m.Issue("user-1", "a@x.com")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Verify(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Equal(t, "token has expired", domain.MessageOf(err))
}

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(4)

	hash, err := h.Hash("pw1")
	require.NoError(t, err)
	assert.True(t, h.Verify("pw1", hash))
	assert.False(t, h.Verify("pw2", hash))

	assert.Equal(t, DefaultBcryptCost, NewPasswordHasher(99).cost)
}
