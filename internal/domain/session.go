package domain

import "time"

// Session is a stored refresh session. TokenHash is the SHA-256 hex digest
// of the opaque refresh token; the raw value is returned to the client once
// and never persisted. Superseded sessions stay revoked rather than deleted.
type Session struct {
	ID        string
	TokenHash string
	UserID    string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}

// Active reports whether the session can still be redeemed at now.
func (s Session) Active(now time.Time) bool {
	return !s.Revoked && s.ExpiresAt.After(now)
}
