package domain

import "time"

// Session is a server-side record of an issued access token.
type Session struct {
	ID        string
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
