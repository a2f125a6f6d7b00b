package ports

import (
	"context"
	"time"

	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
)

// URLRepository defines storage operations for short URLs and clicks.
// Lookups only see active (non-deleted) rows unless stated otherwise.
type URLRepository interface {
	CreateURL(ctx context.Context, url *domain.ShortURL) error
	GetURLByShortCode(ctx context.Context, code string) (*domain.ShortURL, error)
	GetURLByID(ctx context.Context, id string) (*domain.ShortURL, error)
	ShortCodeExists(ctx context.Context, code string) (bool, error)
	ListURLsByUser(ctx context.Context, userID string) ([]domain.ShortURL, error)
	UpdateURL(ctx context.Context, url *domain.ShortURL) error
	SoftDeleteURL(ctx context.Context, id string, at time.Time) error

	// Clicks
	RecordClick(ctx context.Context, click *domain.Click) error // increments click_count atomically
	GetClickStats(ctx context.Context, urlID string, days int) (*domain.ClickStats, error)

	// Migration, includes deleted rows
	DumpURLs(ctx context.Context) ([]domain.ShortURL, error)
	ImportURL(ctx context.Context, url *domain.ShortURL) error
}

// UserRepository defines storage operations for users
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	EmailExists(ctx context.Context, email string) (bool, error) // includes deleted users
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
}

// URLService defines the short URL business operations
type URLService interface {
	CreateShortURL(ctx context.Context, originalURL string, ownerID *string) (*domain.URLView, error)
	ResolveAndRecordClick(ctx context.Context, shortCode string, ipAddress, userAgent *string) (string, error)
	ListForOwner(ctx context.Context, ownerID string) ([]domain.URLView, error)
	Update(ctx context.Context, id, newOriginalURL, requesterID string) (*domain.URLView, error)
	SoftDelete(ctx context.Context, id, requesterID string) (string, error)
	Stats(ctx context.Context, id, requesterID string) (*domain.ClickStats, error)
}

// UserService owns user records
type UserService interface {
	Create(ctx context.Context, email, password string) (*domain.User, error)
	FindOrCreateExternal(ctx context.Context, email string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.PublicUser, error)
	VerifyPassword(user *domain.User, password string) bool
}

// AuthService registers and authenticates users
type AuthService interface {
	Register(ctx context.Context, email, password string) (*domain.AuthResult, error)
	Login(ctx context.Context, email, password string) (*domain.AuthResult, error)
	ValidateUser(ctx context.Context, email, password string) (*domain.PublicUser, error)
	IssueToken(user *domain.PublicUser) (string, error)
	Authenticate(token string) (*domain.Identity, error)
	Profile(ctx context.Context, userID string) (*domain.PublicUser, error)
}
