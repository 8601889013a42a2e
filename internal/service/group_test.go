package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lexloop/lexloop/internal/domain"
)

func TestCreateGroup(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &GroupService{Store: st}

	owner := seedUser(t, st, "owner@example.com")

	view, err := svc.CreateGroup(ctx, "  Year 9 English  ", owner.ID)
	require.NoError(t, err)

	require.Equal(t, "Year 9 English", view.Name)
	require.Equal(t, owner.ID, view.OwnerID)
	require.Equal(t, domain.GroupRoleTeacher, view.MyRole)
	require.Len(t, view.JoinCode, 8)
	for _, c := range view.JoinCode {
		require.Contains(t, joinCodeAlphabet, string(c))
	}

	m, err := st.Memberships().GetMembership(ctx, owner.ID, view.ID)
	require.NoError(t, err)
	require.Equal(t, domain.GroupRoleTeacher, m.Role)

	t.Run("blank name is rejected", func(t *testing.T) {
		_, err := svc.CreateGroup(ctx, "   ", owner.ID)
		require.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("overlong name is rejected", func(t *testing.T) {
		_, err := svc.CreateGroup(ctx, strings.Repeat("x", maxGroupNameLength+1), owner.ID)
		require.ErrorIs(t, err, ErrInvalidRequest)
	})
}

func TestJoinByCode(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &GroupService{Store: st}

	owner := seedUser(t, st, "owner@example.com")
	created, err := svc.CreateGroup(ctx, "Year 9 English", owner.ID)
	require.NoError(t, err)

	student := seedUser(t, st, "student@example.com")

	t.Run("joins as student, case-insensitively", func(t *testing.T) {
		view, err := svc.JoinByCode(ctx, " "+strings.ToLower(created.JoinCode)+" ", student.ID)
		require.NoError(t, err)
		require.Equal(t, created.ID, view.ID)
		require.Equal(t, domain.GroupRoleStudent, view.MyRole)
		require.Empty(t, view.JoinCode, "students never see the join code")
	})

	t.Run("joining twice reports already member", func(t *testing.T) {
		_, err := svc.JoinByCode(ctx, created.JoinCode, student.ID)
		require.ErrorIs(t, err, ErrAlreadyMember)
	})

	t.Run("unknown code reports group not found", func(t *testing.T) {
		_, err := svc.JoinByCode(ctx, "XXXXXXXX", student.ID)
		require.ErrorIs(t, err, ErrGroupNotFound)
	})

	t.Run("blank code is a bad request", func(t *testing.T) {
		_, err := svc.JoinByCode(ctx, "  ", student.ID)
		require.ErrorIs(t, err, ErrInvalidRequest)
	})
}

func TestMyGroupsAndDetails(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &GroupService{Store: st}

	owner := seedUser(t, st, "owner@example.com")
	student := seedUser(t, st, "student@example.com")

	first, err := svc.CreateGroup(ctx, "Year 9 English", owner.ID)
	require.NoError(t, err)
	second, err := svc.CreateGroup(ctx, "Year 10 English", owner.ID)
	require.NoError(t, err)

	_, err = svc.JoinByCode(ctx, first.JoinCode, student.ID)
	require.NoError(t, err)

	t.Run("lists the user's groups with their role", func(t *testing.T) {
		mine, err := svc.MyGroups(ctx, owner.ID)
		require.NoError(t, err)
		require.Len(t, mine, 2)

		theirs, err := svc.MyGroups(ctx, student.ID)
		require.NoError(t, err)
		require.Len(t, theirs, 1)
		require.Equal(t, first.ID, theirs[0].ID)
		require.Equal(t, domain.GroupRoleStudent, theirs[0].MyRole)
	})

	t.Run("teacher details include the join code", func(t *testing.T) {
		view, err := svc.GroupDetails(ctx, first.ID, owner.ID)
		require.NoError(t, err)
		require.Equal(t, first.JoinCode, view.JoinCode)
	})

	t.Run("student details hide the join code", func(t *testing.T) {
		view, err := svc.GroupDetails(ctx, first.ID, student.ID)
		require.NoError(t, err)
		require.Empty(t, view.JoinCode)
	})

	t.Run("non-member is forbidden", func(t *testing.T) {
		_, err := svc.GroupDetails(ctx, second.ID, student.ID)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("unknown group reports not found", func(t *testing.T) {
		_, err := svc.GroupDetails(ctx, "01J00000000000000000000000", owner.ID)
		require.ErrorIs(t, err, ErrGroupNotFound)
	})
}

func TestResetJoinCode(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &GroupService{Store: st}

	owner := seedUser(t, st, "owner@example.com")
	student := seedUser(t, st, "student@example.com")

	created, err := svc.CreateGroup(ctx, "Year 9 English", owner.ID)
	require.NoError(t, err)
	_, err = svc.JoinByCode(ctx, created.JoinCode, student.ID)
	require.NoError(t, err)

	fresh, err := svc.ResetJoinCode(ctx, created.ID, owner.ID)
	require.NoError(t, err)
	require.NotEqual(t, created.JoinCode, fresh)
	require.Len(t, fresh, 8)

	t.Run("old code stops working", func(t *testing.T) {
		late := seedUser(t, st, "late@example.com")
		_, err := svc.JoinByCode(ctx, created.JoinCode, late.ID)
		require.ErrorIs(t, err, ErrGroupNotFound)

		_, err = svc.JoinByCode(ctx, fresh, late.ID)
		require.NoError(t, err)
	})

	t.Run("students cannot reset", func(t *testing.T) {
		_, err := svc.ResetJoinCode(ctx, created.ID, student.ID)
		require.ErrorIs(t, err, ErrForbidden)
	})
}

func TestListMembers(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &GroupService{Store: st}

	owner := seedUser(t, st, "owner@example.com")
	student := seedUser(t, st, "student@example.com")

	created, err := svc.CreateGroup(ctx, "Year 9 English", owner.ID)
	require.NoError(t, err)
	_, err = svc.JoinByCode(ctx, created.JoinCode, student.ID)
	require.NoError(t, err)

	members, err := svc.ListMembers(ctx, created.ID, owner.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)

	// Oldest first: the owner joined at creation.
	require.Equal(t, owner.ID, members[0].UserID)
	require.Equal(t, domain.GroupRoleTeacher, members[0].Role)
	require.Equal(t, student.ID, members[1].UserID)
	require.Equal(t, "student@example.com", members[1].Email)

	t.Run("students cannot list members", func(t *testing.T) {
		_, err := svc.ListMembers(ctx, created.ID, student.ID)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("non-member cannot list", func(t *testing.T) {
		outsider := seedUser(t, st, "outsider@example.com")
		_, err := svc.ListMembers(ctx, created.ID, outsider.ID)
		require.ErrorIs(t, err, ErrForbidden)
	})
}
