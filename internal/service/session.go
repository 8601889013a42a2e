package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/lexloop/lexloop/internal/domain"
	"github.com/lexloop/lexloop/internal/store"
	"github.com/lexloop/lexloop/pkg/cryptox"
	"github.com/lexloop/lexloop/pkg/idx"
	"github.com/lexloop/lexloop/pkg/slogx"
)

const (
	// SessionTTL is how long a refresh session stays redeemable.
	SessionTTL = 14 * 24 * time.Hour

	// MaxActiveSessions caps concurrent refresh sessions per user. Issuing
	// beyond the cap revokes the oldest active sessions first.
	MaxActiveSessions = 5

	sessionTokenSize = cryptox.TokenSize512
)

// SessionService manages opaque refresh sessions: issuance with a per-user
// cap, validation, rotation, and revocation.
type SessionService struct {
	Store store.Store

	// IssueAttempts overrides the collision retry budget; zero means
	// DefaultIssueAttempts.
	IssueAttempts int
}

// Issue mints a refresh token for the user and persists its session row.
// Issuance and cap enforcement happen in one transaction, so the user can
// never end up with more than MaxActiveSessions active rows.
func (s *SessionService) Issue(ctx context.Context, userID string) (string, error) {
	log := slogx.FromContext(ctx)
	now := time.Now().UTC()

	token, err := issueUnique(ctx, s.IssueAttempts,
		func() (string, error) {
			return cryptox.GenerateToken(sessionTokenSize)
		},
		func(ctx context.Context, candidate string) error {
			return s.Store.WithTx(ctx, func(tx store.Tx) error {
				// Make room before inserting: keep cap-1 so the new session
				// lands exactly at the cap.
				if err := tx.Sessions().RevokeAllButNewest(ctx, userID, MaxActiveSessions-1, now); err != nil {
					return err
				}
				return tx.Sessions().CreateSession(ctx, domain.Session{
					ID:        idx.New().String(),
					TokenHash: cryptox.HashToken(candidate),
					UserID:    userID,
					ExpiresAt: now.Add(SessionTTL),
					Revoked:   false,
					CreatedAt: now,
				})
			})
		},
	)
	if err != nil {
		return "", err
	}

	log.Debug("refresh session issued", slog.String("user_id", userID))
	return token, nil
}

// Validate resolves a raw refresh token to its user. Unknown, revoked, and
// expired tokens all collapse into ErrInvalidRefresh so callers can't
// distinguish which guard failed.
func (s *SessionService) Validate(ctx context.Context, rawToken string) (domain.User, error) {
	if rawToken == "" {
		return domain.User{}, ErrInvalidRefresh
	}

	session, err := s.Store.Sessions().GetSessionByTokenHash(ctx, cryptox.HashToken(rawToken))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrInvalidRefresh
		}
		return domain.User{}, err
	}

	if !session.Active(time.Now().UTC()) {
		return domain.User{}, ErrInvalidRefresh
	}

	user, err := s.Store.Users().GetUserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrInvalidRefresh
		}
		return domain.User{}, err
	}
	return user, nil
}

// Rotate retires a refresh token and issues its replacement. The old session
// is revoked even when it was already revoked or expired; an unknown token
// is the only rotation failure.
func (s *SessionService) Rotate(ctx context.Context, rawToken string) (string, error) {
	if rawToken == "" {
		return "", ErrInvalidRefresh
	}

	hash := cryptox.HashToken(rawToken)
	session, err := s.Store.Sessions().GetSessionByTokenHash(ctx, hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrInvalidRefresh
		}
		return "", err
	}

	if err := s.Store.Sessions().RevokeSession(ctx, hash); err != nil {
		return "", err
	}

	return s.Issue(ctx, session.UserID)
}

// Revoke invalidates a refresh token. Best effort: unknown tokens are not an
// error, so logout never fails on a stale client.
func (s *SessionService) Revoke(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	return s.Store.Sessions().RevokeSession(ctx, cryptox.HashToken(rawToken))
}
