package model

import "time"

// SessionToken is a stored bearer token bound to one user.
// A nil ExpiresAt means the token never expires.
type SessionToken struct {
	ID        int64
	UserID    int64
	Token     string
	IssuedAt  time.Time
	ExpiresAt *time.Time
	Revoked   bool
}

// ValidAt reports whether the token is usable at the given instant.
func (t *SessionToken) ValidAt(now time.Time) bool {
	if t.Revoked {
		return false
	}
	return t.ExpiresAt == nil || t.ExpiresAt.After(now)
}
