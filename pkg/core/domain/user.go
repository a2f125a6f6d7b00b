package domain

import "time"

// User is an account that can own short URLs.
// PasswordHash never leaves the service layer; see Sanitize.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

// PublicUser is a User without credentials
type PublicUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) Sanitize() *PublicUser {
	return &PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// AuthResult is returned by register and login
type AuthResult struct {
	User  *PublicUser `json:"user"`
	Token string      `json:"token"`
}

// Identity is the authenticated caller extracted from a token
type Identity struct {
	UserID string
	Email  string
}
