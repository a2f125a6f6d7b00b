package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wadjakorntonsri/shortlink/pkg/adapters/repository/sqldb"
	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
)

func newTestAuth(t *testing.T) (*AuthService, *UserService, *sqldb.Repository) {
	repo := newTestRepo(t)
	users := NewUserService(repo, NewPasswordHasher(4))
	tokens := NewTokenManager("test-secret", time.Hour)
	return NewAuthService(users, tokens), users, repo
}

func TestRegister(t *testing.T) {
	auth, _, repo := newTestAuth(t)
	ctx := context.Background()

	res, err := auth.Register(ctx, "a@x.com", "pw1")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", res.User.Email)
	assert.NotEmpty(t, res.User.ID)

	identity, err := auth.Authenticate(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, identity.UserID)
	assert.Equal(t, "a@x.com", identity.Email)

	stored, err := repo.GetUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, "pw1", stored.PasswordHash)

	_, err = auth.Register(ctx, "a@x.com", "pw2")
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestRegisterPasswordTooLong(t *testing.T) {
	auth, _, _ := newTestAuth(t)

	_, err := auth.Register(context.Background(), "a@x.com", strings.Repeat("p", 73))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRegisterBlocksDeletedEmail(t *testing.T) {
	auth, users, repo := newTestAuth(t)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, repo.CreateUser(ctx, &domain.User{
		ID: "gone", Email: "gone@x.com", PasswordHash: "x",
		CreatedAt: now, UpdatedAt: now, DeletedAt: &now,
	}))

	_, err := auth.Register(ctx, "gone@x.com", "pw1")
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	// deleted users cannot sign in either
	_, err = auth.Login(ctx, "gone@x.com", "x")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = users.FindOrCreateExternal(ctx, "gone@x.com")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = auth.Profile(ctx, "gone")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLogin(t *testing.T) {
	auth, _, _ := newTestAuth(t)
	ctx := context.Background()

	registered, err := auth.Register(ctx, "a@x.com", "pw1")
	require.NoError(t, err)

	res, err := auth.Login(ctx, "a@x.com", "pw1")
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, res.User.ID)
	assert.NotEmpty(t, res.Token)

	_, wrongPassword := auth.Login(ctx, "a@x.com", "nope")
	_, unknownEmail := auth.Login(ctx, "b@x.com", "pw1")

	require.Error(t, wrongPassword)
	require.Error(t, unknownEmail)
	assert.ErrorIs(t, wrongPassword, domain.ErrUnauthorized)
	assert.Equal(t, domain.MessageOf(wrongPassword), domain.MessageOf(unknownEmail))
	assert.Equal(t, "invalid credentials", domain.MessageOf(unknownEmail))
}

func TestValidateUser(t *testing.T) {
	auth, _, _ := newTestAuth(t)
	ctx := context.Background()

	_, err := auth.Register(ctx, "a@x.com", "pw1")
	require.NoError(t, err)

	user, err := auth.ValidateUser(ctx, "a@x.com", "pw1")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "a@x.com", user.Email)

	user, err = auth.ValidateUser(ctx, "a@x.com", "bad")
	require.NoError(t, err)
	assert.Nil(t, user)

	user, err = auth.ValidateUser(ctx, "nobody@x.com", "pw1")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestProfile(t *testing.T) {
	auth, _, _ := newTestAuth(t)
	ctx := context.Background()

	res, err := auth.Register(ctx, "a@x.com", "pw1")
	require.NoError(t, err)

	user, err := auth.Profile(ctx, res.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", user.Email)

	_, err = auth.Profile(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFindOrCreateExternal(t *testing.T) {
	_, users, _ := newTestAuth(t)
	ctx := context.Background()

	created, err := users.FindOrCreateExternal(ctx, "g@x.com")
	require.NoError(t, err)

	found, err := users.FindOrCreateExternal(ctx, "g@x.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	assert.False(t, users.VerifyPassword(found, ""))
}
