package domain

import "time"

// Click represents a single resolved redirect of a short URL
type Click struct {
	ID        string    `json:"id"`
	URLID     string    `json:"urlId"`
	IPAddress *string   `json:"ipAddress,omitempty"`
	UserAgent *string   `json:"userAgent,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ClickStats represents aggregated statistics for a short URL
type ClickStats struct {
	URLID       string       `json:"urlId"`
	ShortCode   string       `json:"shortCode"`
	TotalClicks int64        `json:"totalClicks"`
	DailyClicks []DailyClick `json:"dailyClicks"` // newest first
}

type DailyClick struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int64  `json:"count"`
}
