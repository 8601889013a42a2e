package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lexloop/lexloop/internal/domain"
	"github.com/lexloop/lexloop/internal/store"
	"github.com/lexloop/lexloop/pkg/slogx"
)

// MembershipService handles removing members from groups, including the
// self-service leave path.
type MembershipService struct {
	Store store.Store
}

// RemoveMember removes targetUserID from the group, enforcing the removal
// policy in order:
//
//  1. the group owner can never be removed, not even by themselves;
//  2. anyone may remove themselves (leaving);
//  3. otherwise the actor must hold a TEACHER membership;
//  4. removing a fellow teacher additionally requires the actor to be the
//     group owner.
func (s *MembershipService) RemoveMember(ctx context.Context, groupID, targetUserID, actorUserID string) error {
	log := slogx.FromContext(ctx)

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		group, err := tx.Groups().GetGroupByID(ctx, groupID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrGroupNotFound
			}
			return err
		}

		target, err := tx.Memberships().GetMembership(ctx, targetUserID, groupID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrMembershipNotFound
			}
			return err
		}

		if targetUserID == group.OwnerUserID {
			return ErrCannotRemoveOwner
		}

		if actorUserID != targetUserID {
			actor, err := tx.Memberships().GetMembership(ctx, actorUserID, groupID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return ErrForbidden
				}
				return err
			}
			if actor.Role != domain.GroupRoleTeacher {
				return fmt.Errorf("%w: teacher role required", ErrForbidden)
			}
			if target.Role == domain.GroupRoleTeacher && actorUserID != group.OwnerUserID {
				return fmt.Errorf("%w: only the owner can remove a teacher", ErrForbidden)
			}
		}

		if err := tx.Memberships().DeleteMembership(ctx, target.ID); err != nil {
			return err
		}

		log.Info("member removed",
			slog.String("group_id", groupID),
			slog.String("target_user_id", targetUserID),
			slog.String("actor_user_id", actorUserID),
		)
		return nil
	})
}

// LeaveGroup is self-removal; the owner cannot leave their own group.
func (s *MembershipService) LeaveGroup(ctx context.Context, groupID, userID string) error {
	return s.RemoveMember(ctx, groupID, userID, userID)
}
