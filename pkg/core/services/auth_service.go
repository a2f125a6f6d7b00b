package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

type AuthService struct {
	users  ports.UserService
	tokens *TokenManager
}

func NewAuthService(users ports.UserService, tokens *TokenManager) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	user, err := s.users.Create(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.result(user.Sanitize())
}

// Login answers ErrInvalidCredentials for both an unknown email and a wrong
// password so callers cannot tell the two apart.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	user, err := s.ValidateUser(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrInvalidCredentials
	}
	return s.result(user)
}

// ValidateUser returns the sanitized user when the credentials match and
// nil otherwise. Only storage failures are returned as errors.
func (s *AuthService) ValidateUser(ctx context.Context, email, password string) (*domain.PublicUser, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !s.users.VerifyPassword(user, password) {
		return nil, nil
	}
	return user.Sanitize(), nil
}

func (s *AuthService) IssueToken(user *domain.PublicUser) (string, error) {
	return s.tokens.Issue(user.ID, user.Email)
}

func (s *AuthService) Authenticate(token string) (*domain.Identity, error) {
	return s.tokens.Verify(token)
}

func (s *AuthService) Profile(ctx context.Context, userID string) (*domain.PublicUser, error) {
	return s.users.FindByID(ctx, userID)
}

func (s *AuthService) result(user *domain.PublicUser) (*domain.AuthResult, error) {
	token, err := s.IssueToken(user)
	if err != nil {
		return nil, err
	}
	return &domain.AuthResult{User: user, Token: token}, nil
}
