package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

// bcrypt ignores input past this length
const maxPasswordBytes = 72

type UserService struct {
	repo   ports.UserRepository
	hasher *PasswordHasher
	now    func() time.Time
}

func NewUserService(repo ports.UserRepository, hasher *PasswordHasher) *UserService {
	return &UserService{
		repo:   repo,
		hasher: hasher,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create registers a new account. Emails of soft-deleted users stay taken.
func (s *UserService) Create(ctx context.Context, email, password string) (*domain.User, error) {
	if len(password) > maxPasswordBytes {
		return nil, domain.NewError(domain.KindInvalidInput, "password must be at most 72 bytes")
	}

	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, domain.ErrEmailTaken
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

// FindOrCreateExternal returns the active user for an email verified by an
// external identity provider, creating one with an unusable password.
func (s *UserService) FindOrCreateExternal(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate password: %w", err)
	}

	user, err = s.Create(ctx, email, base64.RawURLEncoding.EncodeToString(secret))
	if errors.Is(err, domain.ErrEmailTaken) {
		// the email belongs to a deleted account
		return nil, domain.NewError(domain.KindUnauthorized, "account is disabled")
	}
	return user, err
}

// FindByEmail returns the active user with email, including its password hash.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.repo.GetUserByEmail(ctx, email)
}

func (s *UserService) FindByID(ctx context.Context, id string) (*domain.PublicUser, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Sanitize(), nil
}

func (s *UserService) VerifyPassword(user *domain.User, password string) bool {
	return s.hasher.Verify(password, user.PasswordHash)
}
