package models

import "time"

// User represents a user account in the system. Chat-only users have no
// email or password; web users have no chat id until they link one.
type User struct {
	ID           string    `json:"uuid"`
	Name         string    `json:"name"`
	Email        *string   `json:"email"`
	Avatar       *string   `json:"avatar"`
	PasswordHash string    `json:"-"` // Never expose this to the client
	ChatID       *int64    `json:"-"`
	CreatedAt    time.Time `json:"-"`
}

// ProfilePatch carries the optional fields of a profile update.
type ProfilePatch struct {
	Name   *string `json:"name"`
	Avatar *string `json:"avatar"`
}

// Empty reports whether the patch has nothing to apply. Empty strings count
// as absent.
func (p ProfilePatch) Empty() bool {
	return (p.Name == nil || *p.Name == "") && (p.Avatar == nil || *p.Avatar == "")
}
