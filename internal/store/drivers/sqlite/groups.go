package sqlite

import (
	"context"

	"github.com/lexloop/lexloop/internal/domain"
	"github.com/lexloop/lexloop/internal/store"
)

type groupsRepo struct {
	q queryer
}

func (r *groupsRepo) CreateGroup(ctx context.Context, g domain.Group) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO groups (id, name, join_code, owner_user_id, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		g.ID, g.Name, g.JoinCode, g.OwnerUserID, g.CreatedAt,
	)
	return mapConstraint(err)
}

func (r *groupsRepo) GetGroupByID(ctx context.Context, id string) (domain.Group, error) {
	return r.scanGroup(ctx, `
		SELECT id, name, join_code, owner_user_id, created_at
		FROM groups WHERE id = ?`, id)
}

func (r *groupsRepo) GetGroupByJoinCode(ctx context.Context, joinCode string) (domain.Group, error) {
	return r.scanGroup(ctx, `
		SELECT id, name, join_code, owner_user_id, created_at
		FROM groups WHERE join_code = ?`, joinCode)
}

func (r *groupsRepo) UpdateJoinCode(ctx context.Context, groupID, joinCode string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE groups SET join_code = ? WHERE id = ?`, joinCode, groupID)
	if err != nil {
		return mapConstraint(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *groupsRepo) scanGroup(ctx context.Context, query string, arg any) (domain.Group, error) {
	var g domain.Group
	err := r.q.QueryRowContext(ctx, query, arg).Scan(
		&g.ID, &g.Name, &g.JoinCode, &g.OwnerUserID, &g.CreatedAt,
	)
	if err != nil {
		return domain.Group{}, mapNotFound(err)
	}
	return g, nil
}
