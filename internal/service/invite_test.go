package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lexloop/lexloop/internal/domain"
	"github.com/lexloop/lexloop/internal/store"
)

func TestCreateInviteDefaults(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &InviteService{Store: st}

	teacher := seedUser(t, st, "teacher@example.com")
	group := seedGroup(t, st, teacher, "Year 9 English")

	created, err := svc.CreateInvite(ctx, group.ID, teacher.ID, CreateInviteParams{})
	require.NoError(t, err)

	require.NotEmpty(t, created.Token)
	require.NotEmpty(t, created.InviteID)
	require.Equal(t, domain.GroupRoleStudent, created.RoleGranted)
	require.Nil(t, created.MaxUses)

	wantExpiry := time.Now().UTC().Add(DefaultInviteExpiry)
	require.WithinDuration(t, wantExpiry, created.ExpiresAt, time.Minute)
}

func TestCreateInviteValidation(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &InviteService{Store: st}

	teacher := seedUser(t, st, "teacher@example.com")
	group := seedGroup(t, st, teacher, "Year 9 English")

	t.Run("rejects zero maxUses", func(t *testing.T) {
		_, err := svc.CreateInvite(ctx, group.ID, teacher.ID, CreateInviteParams{MaxUses: intPtr(0)})
		require.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("rejects non-positive expiry", func(t *testing.T) {
		_, err := svc.CreateInvite(ctx, group.ID, teacher.ID, CreateInviteParams{ExpiresInMinutes: intPtr(0)})
		require.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		_, err := svc.CreateInvite(ctx, group.ID, teacher.ID, CreateInviteParams{RoleGranted: "PRINCIPAL"})
		require.ErrorIs(t, err, ErrInvalidRequest)
	})
}

func TestCreateInviteAuthz(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &InviteService{Store: st}

	teacher := seedUser(t, st, "teacher@example.com")
	student := seedUser(t, st, "student@example.com")
	outsider := seedUser(t, st, "outsider@example.com")
	group := seedGroup(t, st, teacher, "Year 9 English")
	seedMembership(t, st, student, group, domain.GroupRoleStudent)

	t.Run("students cannot create invites", func(t *testing.T) {
		_, err := svc.CreateInvite(ctx, group.ID, student.ID, CreateInviteParams{})
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("non-members cannot create invites", func(t *testing.T) {
		_, err := svc.CreateInvite(ctx, group.ID, outsider.ID, CreateInviteParams{})
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("unknown group reports not found", func(t *testing.T) {
		_, err := svc.CreateInvite(ctx, "01J00000000000000000000000", teacher.ID, CreateInviteParams{})
		require.ErrorIs(t, err, ErrGroupNotFound)
	})
}

func TestAcceptInvite(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &InviteService{Store: st}

	teacher := seedUser(t, st, "teacher@example.com")
	group := seedGroup(t, st, teacher, "Year 9 English")

	created, err := svc.CreateInvite(ctx, group.ID, teacher.ID, CreateInviteParams{})
	require.NoError(t, err)

	student := seedUser(t, st, "student@example.com")
	joined, role, err := svc.AcceptInvite(ctx, created.Token, student.ID)
	require.NoError(t, err)
	require.Equal(t, group.ID, joined.ID)
	require.Equal(t, domain.GroupRoleStudent, role)

	m, err := st.Memberships().GetMembership(ctx, student.ID, group.ID)
	require.NoError(t, err)
	require.Equal(t, domain.GroupRoleStudent, m.Role)

	t.Run("second acceptance by same user is rejected", func(t *testing.T) {
		_, _, err := svc.AcceptInvite(ctx, created.Token, student.ID)
		require.ErrorIs(t, err, ErrAlreadyMember)
	})
}

func TestAcceptInviteGrantsTeacherRole(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &InviteService{Store: st}

	owner := seedUser(t, st, "owner@example.com")
	group := seedGroup(t, st, owner, "Staff room")

	created, err := svc.CreateInvite(ctx, group.ID, owner.ID, CreateInviteParams{
		RoleGranted: domain.GroupRoleTeacher,
	})
	require.NoError(t, err)

	colleague := seedUser(t, st, "colleague@example.com")
	_, role, err := svc.AcceptInvite(ctx, created.Token, colleague.ID)
	require.NoError(t, err)
	require.Equal(t, domain.GroupRoleTeacher, role)
}

func TestAcceptInviteRejections(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &InviteService{Store: st}

	teacher := seedUser(t, st, "teacher@example.com")
	group := seedGroup(t, st, teacher, "Year 9 English")
	student := seedUser(t, st, "student@example.com")

	t.Run("blank token is a bad request", func(t *testing.T) {
		_, _, err := svc.AcceptInvite(ctx, "   ", student.ID)
		require.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("unknown token is not usable", func(t *testing.T) {
		_, _, err := svc.AcceptInvite(ctx, "definitely-not-a-real-token", student.ID)
		require.ErrorIs(t, err, ErrInviteNotUsable)
	})

	t.Run("expired invite is not usable", func(t *testing.T) {
		created, err := svc.CreateInvite(ctx, group.ID, teacher.ID, CreateInviteParams{
			ExpiresInMinutes: intPtr(1),
		})
		require.NoError(t, err)

		// Backdate the expiry instead of sleeping.
		_, execErr := storeExec(t, st, `UPDATE group_invites SET expires_at = ? WHERE id = ?`,
			time.Now().UTC().Add(-time.Hour), created.InviteID)
		require.NoError(t, execErr)

		_, _, err = svc.AcceptInvite(ctx, created.Token, student.ID)
		require.ErrorIs(t, err, ErrInviteNotUsable)
	})

	t.Run("revoked invite is not usable", func(t *testing.T) {
		created, err := svc.CreateInvite(ctx, group.ID, teacher.ID, CreateInviteParams{})
		require.NoError(t, err)
		require.NoError(t, svc.RevokeInvite(ctx, group.ID, created.InviteID, teacher.ID))

		_, _, err = svc.AcceptInvite(ctx, created.Token, student.ID)
		require.ErrorIs(t, err, ErrInviteNotUsable)
	})

	t.Run("exhausted invite is not usable", func(t *testing.T) {
		created, err := svc.CreateInvite(ctx, group.ID, teacher.ID, CreateInviteParams{
			MaxUses: intPtr(1),
		})
		require.NoError(t, err)

		first := seedUser(t, st, "first@example.com")
		_, _, err = svc.AcceptInvite(ctx, created.Token, first.ID)
		require.NoError(t, err)

		second := seedUser(t, st, "second@example.com")
		_, _, err = svc.AcceptInvite(ctx, created.Token, second.ID)
		require.ErrorIs(t, err, ErrInviteNotUsable)
	})
}

func TestAcceptInviteConcurrentSingleUse(t *testing.T) {
	t.Run("in-memory store", func(t *testing.T) {
		assertSingleUseAcceptRace(t, newTestStore(t))
	})

	// The in-memory store runs on a single connection, so it never contends
	// for the write lock. The file-backed store races real pooled
	// connections: losers must queue behind the winner and come back as
	// not-usable, never as a raw busy error.
	t.Run("file-backed store", func(t *testing.T) {
		assertSingleUseAcceptRace(t, newFileTestStore(t))
	})
}

func assertSingleUseAcceptRace(t *testing.T, st store.Store) {
	t.Helper()
	ctx := context.Background()
	svc := &InviteService{Store: st}

	teacher := seedUser(t, st, "teacher@example.com")
	group := seedGroup(t, st, teacher, "Year 9 English")

	created, err := svc.CreateInvite(ctx, group.ID, teacher.ID, CreateInviteParams{
		MaxUses: intPtr(1),
	})
	require.NoError(t, err)

	const racers = 8
	users := make([]domain.User, racers)
	for i := range users {
		users[i] = seedUser(t, st, "racer"+string(rune('a'+i))+"@example.com")
	}

	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := range racers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, errs[i] = svc.AcceptInvite(ctx, created.Token, users[i].ID)
		}()
	}
	wg.Wait()

	var successes int
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			require.ErrorIs(t, err, ErrInviteNotUsable)
		}
	}
	require.Equal(t, 1, successes, "exactly one acceptance must win a single-use invite")

	members, err := st.Memberships().ListGroupMemberships(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, members, 2) // teacher plus the single winner
}

func TestListInvites(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &InviteService{Store: st}

	teacher := seedUser(t, st, "teacher@example.com")
	group := seedGroup(t, st, teacher, "Year 9 English")

	first, err := svc.CreateInvite(ctx, group.ID, teacher.ID, CreateInviteParams{})
	require.NoError(t, err)
	second, err := svc.CreateInvite(ctx, group.ID, teacher.ID, CreateInviteParams{MaxUses: intPtr(3)})
	require.NoError(t, err)

	list, err := svc.ListInvites(ctx, group.ID, teacher.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)

	// Most recent first.
	require.Equal(t, second.InviteID, list[0].ID)
	require.Equal(t, first.InviteID, list[1].ID)
	require.NotNil(t, list[0].MaxUses)
	require.Equal(t, 3, *list[0].MaxUses)

	t.Run("students cannot list invites", func(t *testing.T) {
		student := seedUser(t, st, "student@example.com")
		seedMembership(t, st, student, group, domain.GroupRoleStudent)

		_, err := svc.ListInvites(ctx, group.ID, student.ID)
		require.ErrorIs(t, err, ErrForbidden)
	})
}

func TestRevokeInvite(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &InviteService{Store: st}

	teacher := seedUser(t, st, "teacher@example.com")
	group := seedGroup(t, st, teacher, "Year 9 English")
	other := seedGroup(t, st, teacher, "Year 10 English")

	created, err := svc.CreateInvite(ctx, group.ID, teacher.ID, CreateInviteParams{})
	require.NoError(t, err)

	require.NoError(t, svc.RevokeInvite(ctx, group.ID, created.InviteID, teacher.ID))

	t.Run("revoking twice is idempotent", func(t *testing.T) {
		require.NoError(t, svc.RevokeInvite(ctx, group.ID, created.InviteID, teacher.ID))
	})

	t.Run("wrong group cannot revoke", func(t *testing.T) {
		err := svc.RevokeInvite(ctx, other.ID, created.InviteID, teacher.ID)
		require.ErrorIs(t, err, ErrInviteNotFound)
	})
}

func TestRecreateInvite(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &InviteService{Store: st}

	teacher := seedUser(t, st, "teacher@example.com")
	group := seedGroup(t, st, teacher, "Year 9 English")

	created, err := svc.CreateInvite(ctx, group.ID, teacher.ID, CreateInviteParams{
		MaxUses:     intPtr(2),
		RoleGranted: domain.GroupRoleTeacher,
	})
	require.NoError(t, err)

	recreated, err := svc.RecreateInvite(ctx, group.ID, created.InviteID, teacher.ID)
	require.NoError(t, err)

	require.NotEqual(t, created.InviteID, recreated.InviteID)
	require.NotEqual(t, created.Token, recreated.Token)
	require.Equal(t, domain.GroupRoleTeacher, recreated.RoleGranted)
	require.NotNil(t, recreated.MaxUses)
	require.Equal(t, 2, *recreated.MaxUses)
	require.Equal(t, created.ExpiresAt.Unix(), recreated.ExpiresAt.Unix())

	t.Run("old token is dead", func(t *testing.T) {
		student := seedUser(t, st, "student@example.com")
		_, _, err := svc.AcceptInvite(ctx, created.Token, student.ID)
		require.ErrorIs(t, err, ErrInviteNotUsable)
	})

	t.Run("new token works", func(t *testing.T) {
		student := seedUser(t, st, "student2@example.com")
		_, role, err := svc.AcceptInvite(ctx, recreated.Token, student.ID)
		require.NoError(t, err)
		require.Equal(t, domain.GroupRoleTeacher, role)
	})

	t.Run("expired invite gets a fresh window", func(t *testing.T) {
		stale, err := svc.CreateInvite(ctx, group.ID, teacher.ID, CreateInviteParams{})
		require.NoError(t, err)

		_, execErr := storeExec(t, st, `UPDATE group_invites SET expires_at = ? WHERE id = ?`,
			time.Now().UTC().Add(-time.Hour), stale.InviteID)
		require.NoError(t, execErr)

		fresh, err := svc.RecreateInvite(ctx, group.ID, stale.InviteID, teacher.ID)
		require.NoError(t, err)
		require.WithinDuration(t, time.Now().UTC().Add(DefaultInviteExpiry), fresh.ExpiresAt, time.Minute)
	})
}
