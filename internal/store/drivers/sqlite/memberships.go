package sqlite

import (
	"context"

	"github.com/lexloop/lexloop/internal/domain"
	"github.com/lexloop/lexloop/internal/store"
)

type membershipsRepo struct {
	q queryer
}

func (r *membershipsRepo) CreateMembership(ctx context.Context, m domain.Membership) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO memberships (id, user_id, group_id, role, joined_at)
		VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.UserID, m.GroupID, string(m.Role), m.JoinedAt,
	)
	return mapConstraint(err)
}

func (r *membershipsRepo) GetMembership(ctx context.Context, userID, groupID string) (domain.Membership, error) {
	var m domain.Membership
	var role string
	err := r.q.QueryRowContext(ctx, `
		SELECT id, user_id, group_id, role, joined_at
		FROM memberships WHERE user_id = ? AND group_id = ?`,
		userID, groupID,
	).Scan(&m.ID, &m.UserID, &m.GroupID, &role, &m.JoinedAt)
	if err != nil {
		return domain.Membership{}, mapNotFound(err)
	}
	m.Role = domain.GroupRole(role)
	return m, nil
}

func (r *membershipsRepo) ListGroupMemberships(ctx context.Context, groupID string) ([]domain.Membership, error) {
	return r.list(ctx, `
		SELECT id, user_id, group_id, role, joined_at
		FROM memberships WHERE group_id = ? ORDER BY joined_at ASC, id ASC`, groupID)
}

func (r *membershipsRepo) ListUserMemberships(ctx context.Context, userID string) ([]domain.Membership, error) {
	return r.list(ctx, `
		SELECT id, user_id, group_id, role, joined_at
		FROM memberships WHERE user_id = ? ORDER BY joined_at ASC, id ASC`, userID)
}

func (r *membershipsRepo) DeleteMembership(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM memberships WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *membershipsRepo) list(ctx context.Context, query string, arg any) ([]domain.Membership, error) {
	rows, err := r.q.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Membership
	for rows.Next() {
		var m domain.Membership
		var role string
		if err := rows.Scan(&m.ID, &m.UserID, &m.GroupID, &role, &m.JoinedAt); err != nil {
			return nil, err
		}
		m.Role = domain.GroupRole(role)
		out = append(out, m)
	}
	return out, rows.Err()
}
