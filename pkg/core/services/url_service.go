package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

const (
	// a create can still lose a code to a concurrent insert after Allocate
	maxCreateRaces = 3
	statsDays      = 30
)

type URLService struct {
	repo    ports.URLRepository
	codes   *CodeGenerator
	baseURL string
	now     func() time.Time
}

func NewURLService(repo ports.URLRepository, codes *CodeGenerator, baseURL string) *URLService {
	return &URLService{
		repo:    repo,
		codes:   codes,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *URLService) CreateShortURL(ctx context.Context, originalURL string, ownerID *string) (*domain.URLView, error) {
	normalized, err := NormalizeURL(originalURL)
	if err != nil {
		return nil, err
	}

	if ownerID != nil && *ownerID == "" {
		ownerID = nil
	}

	for i := 0; i < maxCreateRaces; i++ {
		code, err := s.codes.Allocate(ctx, s.repo.ShortCodeExists)
		if err != nil {
			return nil, err
		}

		now := s.now()
		url := &domain.ShortURL{
			ID:          uuid.NewString(),
			OriginalURL: normalized,
			ShortCode:   code,
			UserID:      ownerID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		err = s.repo.CreateURL(ctx, url)
		if errors.Is(err, domain.ErrShortCodeTaken) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("create short url: %w", err)
		}
		return s.view(url), nil
	}

	return nil, domain.ErrCodeGenerationExhausted
}

// ResolveAndRecordClick returns the original URL for an active code and
// stores one click for it. Unknown or deleted codes record nothing.
func (s *URLService) ResolveAndRecordClick(ctx context.Context, shortCode string, ipAddress, userAgent *string) (string, error) {
	url, err := s.repo.GetURLByShortCode(ctx, shortCode)
	if err != nil {
		return "", err
	}

	click := &domain.Click{
		ID:        uuid.NewString(),
		URLID:     url.ID,
		IPAddress: nonEmpty(ipAddress),
		UserAgent: nonEmpty(userAgent),
		CreatedAt: s.now(),
	}
	if err := s.repo.RecordClick(ctx, click); err != nil {
		return "", err
	}

	return url.OriginalURL, nil
}

func (s *URLService) ListForOwner(ctx context.Context, ownerID string) ([]domain.URLView, error) {
	views := []domain.URLView{}
	if ownerID == "" {
		return views, nil
	}

	urls, err := s.repo.ListURLsByUser(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list short urls: %w", err)
	}

	for i := range urls {
		views = append(views, *s.view(&urls[i]))
	}
	return views, nil
}

func (s *URLService) Update(ctx context.Context, id, newOriginalURL, requesterID string) (*domain.URLView, error) {
	url, err := s.ownedURL(ctx, id, requesterID, "you do not have permission to edit this url")
	if err != nil {
		return nil, err
	}

	normalized, err := NormalizeURL(newOriginalURL)
	if err != nil {
		return nil, err
	}

	url.OriginalURL = normalized
	url.UpdatedAt = s.now()
	if err := s.repo.UpdateURL(ctx, url); err != nil {
		return nil, err
	}

	return s.view(url), nil
}

func (s *URLService) SoftDelete(ctx context.Context, id, requesterID string) (string, error) {
	if _, err := s.ownedURL(ctx, id, requesterID, "you do not have permission to delete this url"); err != nil {
		return "", err
	}

	if err := s.repo.SoftDeleteURL(ctx, id, s.now()); err != nil {
		return "", err
	}
	return "url deleted successfully", nil
}

func (s *URLService) Stats(ctx context.Context, id, requesterID string) (*domain.ClickStats, error) {
	url, err := s.ownedURL(ctx, id, requesterID, "you do not have permission to view this url")
	if err != nil {
		return nil, err
	}

	stats, err := s.repo.GetClickStats(ctx, url.ID, statsDays)
	if err != nil {
		return nil, fmt.Errorf("click stats: %w", err)
	}
	stats.ShortCode = url.ShortCode
	return stats, nil
}

// ownedURL loads an active URL and checks that requesterID created it.
// Anonymous URLs are owned by nobody.
func (s *URLService) ownedURL(ctx context.Context, id, requesterID, denied string) (*domain.ShortURL, error) {
	url, err := s.repo.GetURLByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !url.OwnedBy(requesterID) {
		return nil, domain.NewError(domain.KindForbidden, denied)
	}
	return url, nil
}

func (s *URLService) ShortURL(code string) string {
	return fmt.Sprintf("%s/%s", s.baseURL, code)
}

func (s *URLService) view(url *domain.ShortURL) *domain.URLView {
	return &domain.URLView{
		ID:          url.ID,
		OriginalURL: url.OriginalURL,
		ShortURL:    s.ShortURL(url.ShortCode),
		ShortCode:   url.ShortCode,
		ClickCount:  url.ClickCount,
		CreatedAt:   url.CreatedAt,
		UpdatedAt:   url.UpdatedAt,
	}
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
