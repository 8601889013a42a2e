package domain

import "time"

// Invite is a group invitation token record. The raw token is never stored;
// TokenHash is its SHA-256 hex digest and the only lookup key.
type Invite struct {
	ID          string
	TokenHash   string
	GroupID     string
	CreatedBy   string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	Revoked     bool
	MaxUses     *int // nil = unlimited uses
	UsedCount   int
	RoleGranted GroupRole
}

// Expired reports whether the invite's expiry has passed at now.
func (i Invite) Expired(now time.Time) bool {
	return !i.ExpiresAt.After(now)
}

// Exhausted reports whether the invite has reached its usage limit.
func (i Invite) Exhausted() bool {
	return i.MaxUses != nil && i.UsedCount >= *i.MaxUses
}

// Usable is the validity predicate: not revoked, not expired, not exhausted.
// Validity is always computed, never stored.
func (i Invite) Usable(now time.Time) bool {
	return !i.Revoked && !i.Expired(now) && !i.Exhausted()
}

// InviteUse records a single redemption of an invite by a user. The
// (InviteID, UserID) pair is unique: a user may consume a given invite at
// most once regardless of remaining uses.
type InviteUse struct {
	ID       string
	InviteID string
	UserID   string
	UsedAt   time.Time
}
