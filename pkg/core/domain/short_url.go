package domain

import "time"

// ShortURL maps a short code to an original URL.
// A nil DeletedAt means the row is active; once set the row is retired.
type ShortURL struct {
	ID          string     `json:"id"`
	OriginalURL string     `json:"originalUrl"`
	ShortCode   string     `json:"shortCode"`
	UserID      *string    `json:"userId,omitempty"` // nil for anonymous URLs
	ClickCount  int64      `json:"clickCount"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty"`
}

func (u *ShortURL) IsDeleted() bool {
	return u.DeletedAt != nil
}

// OwnedBy reports whether userID created the URL. Anonymous URLs have no owner.
func (u *ShortURL) OwnedBy(userID string) bool {
	return u.UserID != nil && userID != "" && *u.UserID == userID
}

// URLView is the shape returned to API callers
type URLView struct {
	ID          string    `json:"id"`
	OriginalURL string    `json:"originalUrl"`
	ShortURL    string    `json:"shortUrl"`
	ShortCode   string    `json:"shortCode"`
	ClickCount  int64     `json:"clickCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
