package sqlite

import (
	"context"
	"time"

	"github.com/lexloop/lexloop/internal/domain"
)

type sessionsRepo struct {
	q queryer
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO refresh_sessions (id, token_hash, user_id, expires_at, revoked, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, s.TokenHash, s.UserID, s.ExpiresAt, s.Revoked, s.CreatedAt,
	)
	return mapConstraint(err)
}

func (r *sessionsRepo) GetSessionByTokenHash(ctx context.Context, hash string) (domain.Session, error) {
	var s domain.Session
	err := r.q.QueryRowContext(ctx, `
		SELECT id, token_hash, user_id, expires_at, revoked, created_at
		FROM refresh_sessions WHERE token_hash = ?`, hash,
	).Scan(&s.ID, &s.TokenHash, &s.UserID, &s.ExpiresAt, &s.Revoked, &s.CreatedAt)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}
	return s, nil
}

func (r *sessionsRepo) RevokeSession(ctx context.Context, hash string) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE refresh_sessions SET revoked = 1 WHERE token_hash = ?`, hash)
	return err
}

func (r *sessionsRepo) CountActiveSessions(ctx context.Context, userID string, now time.Time) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM refresh_sessions
		WHERE user_id = ? AND revoked = 0 AND expires_at > ?`,
		userID, now,
	).Scan(&n)
	return n, err
}

// RevokeAllButNewest keeps the newest keep active sessions (ULID ids sort by
// creation time) and revokes the rest in a single statement, so the
// check-then-evict window cannot lose updates between concurrent issuers.
func (r *sessionsRepo) RevokeAllButNewest(ctx context.Context, userID string, keep int, now time.Time) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE refresh_sessions SET revoked = 1
		WHERE user_id = ? AND revoked = 0 AND expires_at > ?
		  AND id NOT IN (
			SELECT id FROM refresh_sessions
			WHERE user_id = ? AND revoked = 0 AND expires_at > ?
			ORDER BY id DESC LIMIT ?
		  )`,
		userID, now, userID, now, keep,
	)
	return err
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context, now time.Time) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM refresh_sessions WHERE expires_at <= ?`, now)
	return err
}
