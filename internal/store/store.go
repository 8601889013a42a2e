package store

import (
	"context"
	"errors"
	"time"

	"github.com/lexloop/lexloop/internal/domain"
)

var (
	ErrNotFound = errors.New("store: not found")

	// ErrAlreadyExists reports a uniqueness-constraint violation. It is a
	// classified outcome, not an exception: callers that mint random unique
	// keys (token hashes, join codes) inspect it to decide whether to retry
	// with a fresh candidate. Any other persistence failure is never
	// retryable.
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. Sub-repositories keep concerns tidy and let a Tx expose the
// same surface as the root store.
type Store interface {
	Users() Users
	Groups() Groups
	Memberships() Memberships
	Invites() Invites
	Sessions() Sessions

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise committed. Multi-row mutations
	// (invite acceptance, session issuance with eviction) go through here so
	// a failure at any step leaves no orphaned rows.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds
// Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// CreateUser inserts a new user. A duplicate email reports
	// ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error

	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used during login and identity resolution.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
}

type Groups interface {
	// CreateGroup inserts a new group. A duplicate join code reports
	// ErrAlreadyExists.
	CreateGroup(ctx context.Context, g domain.Group) error

	GetGroupByID(ctx context.Context, id string) (domain.Group, error)

	GetGroupByJoinCode(ctx context.Context, joinCode string) (domain.Group, error)

	// UpdateJoinCode replaces the group's join code. A duplicate code
	// reports ErrAlreadyExists.
	UpdateJoinCode(ctx context.Context, groupID, joinCode string) error
}

type Memberships interface {
	// CreateMembership inserts a membership. A duplicate (user, group) pair
	// reports ErrAlreadyExists.
	CreateMembership(ctx context.Context, m domain.Membership) error

	GetMembership(ctx context.Context, userID, groupID string) (domain.Membership, error)

	// ListGroupMemberships returns all members of a group ordered by join
	// time (oldest first).
	ListGroupMemberships(ctx context.Context, groupID string) ([]domain.Membership, error)

	// ListUserMemberships returns all of a user's memberships.
	ListUserMemberships(ctx context.Context, userID string) ([]domain.Membership, error)

	DeleteMembership(ctx context.Context, id string) error
}

type Invites interface {
	// CreateInvite inserts an invite. A duplicate token hash reports
	// ErrAlreadyExists.
	CreateInvite(ctx context.Context, inv domain.Invite) error

	GetInviteByTokenHash(ctx context.Context, hash string) (domain.Invite, error)

	// GetGroupInvite fetches an invite scoped to a group, so handlers cannot
	// mutate an invite through the wrong group's management endpoints.
	GetGroupInvite(ctx context.Context, inviteID, groupID string) (domain.Invite, error)

	// ListGroupInvites returns a group's invites, most recent first.
	ListGroupInvites(ctx context.Context, groupID string) ([]domain.Invite, error)

	// RevokeInvite sets revoked=1. Revoking an already-revoked invite is not
	// an error.
	RevokeInvite(ctx context.Context, inviteID string) error

	// ConsumeInviteUse atomically increments used_count, but only while the
	// invite is still usable (not revoked, not expired, under max_uses).
	// Reports ErrNotFound when the guard fails, so two concurrent
	// acceptances of a single-use invite can never both pass the exhaustion
	// check. Call inside the acceptance transaction.
	ConsumeInviteUse(ctx context.Context, inviteID string, now time.Time) error

	// CreateInviteUse records a redemption. A duplicate (invite, user) pair
	// reports ErrAlreadyExists.
	CreateInviteUse(ctx context.Context, use domain.InviteUse) error

	// HasInviteUse reports whether the user has already redeemed the invite.
	HasInviteUse(ctx context.Context, inviteID, userID string) (bool, error)

	// DeleteExpiredInvites is retention housekeeping; the lifecycle core
	// itself never deletes invites.
	DeleteExpiredInvites(ctx context.Context, now time.Time) error
}

type Sessions interface {
	// CreateSession inserts a refresh session row.
	CreateSession(ctx context.Context, s domain.Session) error

	GetSessionByTokenHash(ctx context.Context, hash string) (domain.Session, error)

	// RevokeSession flips revoked=1 by token hash. Missing or already
	// revoked rows are not an error.
	RevokeSession(ctx context.Context, hash string) error

	// CountActiveSessions counts non-revoked, non-expired sessions for a
	// user.
	CountActiveSessions(ctx context.Context, userID string, now time.Time) (int, error)

	// RevokeAllButNewest revokes the user's oldest active sessions so that
	// at most keep remain active. IDs are ULIDs, so lexical order is
	// creation order. Call inside the issuance transaction.
	RevokeAllButNewest(ctx context.Context, userID string, keep int, now time.Time) error

	// DeleteExpiredSessions is retention housekeeping; superseded sessions
	// otherwise stay revoked, never deleted.
	DeleteExpiredSessions(ctx context.Context, now time.Time) error
}
