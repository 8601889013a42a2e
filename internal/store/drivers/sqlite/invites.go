package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/lexloop/lexloop/internal/domain"
	"github.com/lexloop/lexloop/internal/store"
)

type invitesRepo struct {
	q queryer
}

const inviteColumns = `id, token_hash, group_id, created_by, created_at,
	expires_at, revoked, max_uses, used_count, role_granted`

func (r *invitesRepo) CreateInvite(ctx context.Context, inv domain.Invite) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO group_invites
			(id, token_hash, group_id, created_by, created_at, expires_at,
			 revoked, max_uses, used_count, role_granted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.TokenHash, inv.GroupID, inv.CreatedBy, inv.CreatedAt,
		inv.ExpiresAt, inv.Revoked, mapOptionalInt(inv.MaxUses), inv.UsedCount,
		string(inv.RoleGranted),
	)
	return mapConstraint(err)
}

func (r *invitesRepo) GetInviteByTokenHash(ctx context.Context, hash string) (domain.Invite, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+inviteColumns+` FROM group_invites WHERE token_hash = ?`, hash)
	return scanInvite(row)
}

func (r *invitesRepo) GetGroupInvite(ctx context.Context, inviteID, groupID string) (domain.Invite, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+inviteColumns+` FROM group_invites WHERE id = ? AND group_id = ?`,
		inviteID, groupID)
	return scanInvite(row)
}

func (r *invitesRepo) ListGroupInvites(ctx context.Context, groupID string) ([]domain.Invite, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+inviteColumns+` FROM group_invites
		WHERE group_id = ? ORDER BY created_at DESC, id DESC`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Invite
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *invitesRepo) RevokeInvite(ctx context.Context, inviteID string) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE group_invites SET revoked = 1 WHERE id = ?`, inviteID)
	return err
}

// ConsumeInviteUse is the atomic check-then-increment: the WHERE clause
// re-evaluates the usability predicate under sqlite's write lock, so only as
// many increments as max_uses allows can ever succeed.
func (r *invitesRepo) ConsumeInviteUse(ctx context.Context, inviteID string, now time.Time) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE group_invites SET used_count = used_count + 1
		WHERE id = ?
		  AND revoked = 0
		  AND expires_at > ?
		  AND (max_uses IS NULL OR used_count < max_uses)`,
		inviteID, now,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *invitesRepo) CreateInviteUse(ctx context.Context, use domain.InviteUse) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO invite_uses (id, invite_id, user_id, used_at)
		VALUES (?, ?, ?, ?)`,
		use.ID, use.InviteID, use.UserID, use.UsedAt,
	)
	return mapConstraint(err)
}

func (r *invitesRepo) HasInviteUse(ctx context.Context, inviteID, userID string) (bool, error) {
	var n int
	err := r.q.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM invite_uses WHERE invite_id = ? AND user_id = ?`,
		inviteID, userID,
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *invitesRepo) DeleteExpiredInvites(ctx context.Context, now time.Time) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM group_invites WHERE expires_at <= ?`, now)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvite(row rowScanner) (domain.Invite, error) {
	var inv domain.Invite
	var maxUses sql.NullInt64
	var role string
	err := row.Scan(
		&inv.ID, &inv.TokenHash, &inv.GroupID, &inv.CreatedBy, &inv.CreatedAt,
		&inv.ExpiresAt, &inv.Revoked, &maxUses, &inv.UsedCount, &role,
	)
	if err != nil {
		return domain.Invite{}, mapNotFound(err)
	}
	inv.MaxUses = mapNullInt(maxUses)
	inv.RoleGranted = domain.GroupRole(role)
	return inv, nil
}
