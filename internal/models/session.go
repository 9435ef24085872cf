package models

import "time"

// Session is a bearer credential mapping an opaque token to a user until ExpiresAt.
type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
