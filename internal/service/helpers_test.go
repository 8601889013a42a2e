package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lexloop/lexloop/internal/domain"
	"github.com/lexloop/lexloop/internal/store"
	"github.com/lexloop/lexloop/internal/store/drivers/sqlite"
	"github.com/lexloop/lexloop/pkg/cryptox"
	"github.com/lexloop/lexloop/pkg/idx"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

// newFileTestStore opens a file-backed database with the same DSN the
// application uses, so its connection pool contends for the write lock the
// way production does.
func newFileTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewStore(sqlite.FileDSN(filepath.Join(t.TempDir(), "lexloop.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func seedUser(t *testing.T, st store.Store, email string) domain.User {
	t.Helper()

	now := time.Now().UTC()
	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		Role:         domain.UserRoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), u))
	return u
}

// seedGroup creates a group owned by owner, with a TEACHER membership for
// them, matching what group creation produces.
func seedGroup(t *testing.T, st store.Store, owner domain.User, name string) domain.Group {
	t.Helper()

	joinCode, err := cryptox.GenerateCode(joinCodeAlphabet, joinCodeLength)
	require.NoError(t, err)

	now := time.Now().UTC()
	g := domain.Group{
		ID:          idx.New().String(),
		Name:        name,
		JoinCode:    joinCode,
		OwnerUserID: owner.ID,
		CreatedAt:   now,
	}
	require.NoError(t, st.Groups().CreateGroup(context.Background(), g))
	seedMembership(t, st, owner, g, domain.GroupRoleTeacher)
	return g
}

func seedMembership(t *testing.T, st store.Store, u domain.User, g domain.Group, role domain.GroupRole) domain.Membership {
	t.Helper()

	m := domain.Membership{
		ID:       idx.New().String(),
		UserID:   u.ID,
		GroupID:  g.ID,
		Role:     role,
		JoinedAt: time.Now().UTC(),
	}
	require.NoError(t, st.Memberships().CreateMembership(context.Background(), m))
	return m
}

func intPtr(v int) *int { return &v }

// storeExec runs raw SQL against the test database, for fixtures the store
// API deliberately doesn't allow (like backdating an expiry).
func storeExec(t *testing.T, st store.Store, query string, args ...any) (int64, error) {
	t.Helper()

	sqlStore, ok := st.(*sqlite.Store)
	require.True(t, ok, "test store must be the sqlite driver")

	res, err := sqlStore.DB().ExecContext(context.Background(), query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
