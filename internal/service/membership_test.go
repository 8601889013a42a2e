package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lexloop/lexloop/internal/domain"
	"github.com/lexloop/lexloop/internal/store"
)

func TestRemoveMemberPolicy(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &MembershipService{Store: st}

	owner := seedUser(t, st, "owner@example.com")
	teacher := seedUser(t, st, "teacher@example.com")
	student := seedUser(t, st, "student@example.com")
	other := seedUser(t, st, "other@example.com")

	group := seedGroup(t, st, owner, "Year 9 English")
	seedMembership(t, st, teacher, group, domain.GroupRoleTeacher)
	seedMembership(t, st, student, group, domain.GroupRoleStudent)
	seedMembership(t, st, other, group, domain.GroupRoleStudent)

	t.Run("owner cannot be removed", func(t *testing.T) {
		err := svc.RemoveMember(ctx, group.ID, owner.ID, teacher.ID)
		require.ErrorIs(t, err, ErrCannotRemoveOwner)
	})

	t.Run("owner cannot remove themselves", func(t *testing.T) {
		err := svc.RemoveMember(ctx, group.ID, owner.ID, owner.ID)
		require.ErrorIs(t, err, ErrCannotRemoveOwner)
	})

	t.Run("student cannot remove another member", func(t *testing.T) {
		err := svc.RemoveMember(ctx, group.ID, other.ID, student.ID)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("non-member cannot remove anyone", func(t *testing.T) {
		outsider := seedUser(t, st, "outsider@example.com")
		err := svc.RemoveMember(ctx, group.ID, student.ID, outsider.ID)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("teacher cannot remove a fellow teacher", func(t *testing.T) {
		second := seedUser(t, st, "second-teacher@example.com")
		seedMembership(t, st, second, group, domain.GroupRoleTeacher)

		err := svc.RemoveMember(ctx, group.ID, second.ID, teacher.ID)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("owner can remove a teacher", func(t *testing.T) {
		err := svc.RemoveMember(ctx, group.ID, teacher.ID, owner.ID)
		require.NoError(t, err)

		_, err = st.Memberships().GetMembership(ctx, teacher.ID, group.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("teacher can remove a student", func(t *testing.T) {
		victim := seedUser(t, st, "victim@example.com")
		seedMembership(t, st, victim, group, domain.GroupRoleStudent)
		helper := seedUser(t, st, "helper-teacher@example.com")
		seedMembership(t, st, helper, group, domain.GroupRoleTeacher)

		require.NoError(t, svc.RemoveMember(ctx, group.ID, victim.ID, helper.ID))
	})

	t.Run("student can remove themselves", func(t *testing.T) {
		require.NoError(t, svc.RemoveMember(ctx, group.ID, student.ID, student.ID))
	})

	t.Run("missing membership reports not found", func(t *testing.T) {
		gone := seedUser(t, st, "gone@example.com")
		err := svc.RemoveMember(ctx, group.ID, gone.ID, owner.ID)
		require.ErrorIs(t, err, ErrMembershipNotFound)
	})

	t.Run("missing group reports not found", func(t *testing.T) {
		err := svc.RemoveMember(ctx, "01J00000000000000000000000", student.ID, owner.ID)
		require.ErrorIs(t, err, ErrGroupNotFound)
	})
}

func TestLeaveGroup(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &MembershipService{Store: st}

	owner := seedUser(t, st, "owner@example.com")
	student := seedUser(t, st, "student@example.com")
	group := seedGroup(t, st, owner, "Year 9 English")
	seedMembership(t, st, student, group, domain.GroupRoleStudent)

	require.NoError(t, svc.LeaveGroup(ctx, group.ID, student.ID))

	t.Run("owner cannot leave", func(t *testing.T) {
		err := svc.LeaveGroup(ctx, group.ID, owner.ID)
		require.ErrorIs(t, err, ErrCannotRemoveOwner)
	})
}
