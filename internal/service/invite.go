package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lexloop/lexloop/internal/domain"
	"github.com/lexloop/lexloop/internal/store"
	"github.com/lexloop/lexloop/pkg/cryptox"
	"github.com/lexloop/lexloop/pkg/idx"
	"github.com/lexloop/lexloop/pkg/slogx"
)

const (
	// DefaultInviteExpiry is the invite lifetime when the creator doesn't
	// pick one (7 days).
	DefaultInviteExpiry = 7 * 24 * time.Hour

	inviteTokenSize = cryptox.TokenSize256
)

// InviteService owns the lifecycle of group invitation tokens: creation,
// acceptance, listing, revocation, and recreation.
type InviteService struct {
	Store store.Store

	// IssueAttempts overrides the collision retry budget; zero means
	// DefaultIssueAttempts. Only tests narrow this.
	IssueAttempts int
}

// CreateInviteParams are the optional knobs for a new invite.
type CreateInviteParams struct {
	RoleGranted      domain.GroupRole // zero value defaults to STUDENT
	MaxUses          *int             // nil = unlimited
	ExpiresInMinutes *int             // nil = DefaultInviteExpiry
}

// CreatedInvite is returned from invite creation. Token is the raw secret;
// this is the only time it is ever visible.
type CreatedInvite struct {
	InviteID    string
	Token       string
	ExpiresAt   time.Time
	MaxUses     *int
	RoleGranted domain.GroupRole
}

// CreateInvite mints a new invitation token for a group. The actor must hold
// a TEACHER membership in the group.
func (s *InviteService) CreateInvite(
	ctx context.Context,
	groupID, actorUserID string,
	p CreateInviteParams,
) (CreatedInvite, error) {
	log := slogx.FromContext(ctx)

	actor, err := requireTeacher(ctx, s.Store, groupID, actorUserID)
	if err != nil {
		return CreatedInvite{}, err
	}

	roleGranted := p.RoleGranted
	if roleGranted == "" {
		roleGranted = domain.GroupRoleStudent
	}
	if !roleGranted.Valid() {
		return CreatedInvite{}, fmt.Errorf("%w: unknown role %q", ErrInvalidRequest, p.RoleGranted)
	}

	if p.MaxUses != nil && *p.MaxUses < 1 {
		return CreatedInvite{}, fmt.Errorf("%w: maxUses must be >= 1 or omitted", ErrInvalidRequest)
	}

	expiry := DefaultInviteExpiry
	if p.ExpiresInMinutes != nil {
		if *p.ExpiresInMinutes < 1 {
			return CreatedInvite{}, fmt.Errorf("%w: expiresInMinutes must be >= 1", ErrInvalidRequest)
		}
		expiry = time.Duration(*p.ExpiresInMinutes) * time.Minute
	}
	expiresAt := time.Now().UTC().Add(expiry)

	created, err := s.mint(ctx, groupID, actor.UserID, expiresAt, p.MaxUses, roleGranted)
	if err != nil {
		return CreatedInvite{}, err
	}

	log.Debug("invite created",
		slog.String("invite_id", created.InviteID),
		slog.String("group_id", groupID),
		slog.String("role_granted", string(roleGranted)),
		slog.Time("expires_at", expiresAt),
	)

	return created, nil
}

// AcceptInvite redeems a raw invite token for the user, creating a
// membership with the invite's granted role. The whole sequence runs in one
// transaction, and the usage increment is an atomic conditional update so
// two concurrent acceptances of a single-use invite can never both succeed.
func (s *InviteService) AcceptInvite(
	ctx context.Context,
	rawToken, userID string,
) (domain.Group, domain.GroupRole, error) {
	log := slogx.FromContext(ctx)

	if strings.TrimSpace(rawToken) == "" {
		return domain.Group{}, "", fmt.Errorf("%w: invite token required", ErrInvalidRequest)
	}

	hash := cryptox.HashToken(rawToken)
	now := time.Now().UTC()

	var group domain.Group
	var granted domain.GroupRole

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		invite, err := tx.Invites().GetInviteByTokenHash(ctx, hash)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInviteNotUsable
			}
			return err
		}

		if !invite.Usable(now) {
			return ErrInviteNotUsable
		}

		if _, err := tx.Memberships().GetMembership(ctx, userID, invite.GroupID); err == nil {
			return ErrAlreadyMember
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		used, err := tx.Invites().HasInviteUse(ctx, invite.ID, userID)
		if err != nil {
			return err
		}
		if used {
			return ErrInviteNotUsable
		}

		// The conditional increment re-checks the usability predicate under
		// the write lock, closing the check-then-act window between the read
		// above and this mutation.
		if err := tx.Invites().ConsumeInviteUse(ctx, invite.ID, now); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInviteNotUsable
			}
			return err
		}

		membership := domain.Membership{
			ID:       idx.New().String(),
			UserID:   userID,
			GroupID:  invite.GroupID,
			Role:     invite.RoleGranted,
			JoinedAt: now,
		}
		if err := tx.Memberships().CreateMembership(ctx, membership); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrAlreadyMember
			}
			return err
		}

		use := domain.InviteUse{
			ID:       idx.New().String(),
			InviteID: invite.ID,
			UserID:   userID,
			UsedAt:   now,
		}
		if err := tx.Invites().CreateInviteUse(ctx, use); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrInviteNotUsable
			}
			return err
		}

		group, err = tx.Groups().GetGroupByID(ctx, invite.GroupID)
		if err != nil {
			return err
		}
		granted = invite.RoleGranted
		return nil
	})
	if err != nil {
		return domain.Group{}, "", err
	}

	log.Info("invite accepted",
		slog.String("group_id", group.ID),
		slog.String("user_id", userID),
		slog.String("role_granted", string(granted)),
	)

	return group, granted, nil
}

// InviteSummary is the management view of an invite. The raw token is gone
// forever; only derived fields are exposed.
type InviteSummary struct {
	ID          string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	Revoked     bool
	MaxUses     *int
	UsedCount   int
	RoleGranted domain.GroupRole
}

// ListInvites returns a group's invites, most recent first. Teacher-only.
func (s *InviteService) ListInvites(ctx context.Context, groupID, actorUserID string) ([]InviteSummary, error) {
	if _, err := requireTeacher(ctx, s.Store, groupID, actorUserID); err != nil {
		return nil, err
	}

	invites, err := s.Store.Invites().ListGroupInvites(ctx, groupID)
	if err != nil {
		return nil, err
	}

	out := make([]InviteSummary, 0, len(invites))
	for _, inv := range invites {
		out = append(out, InviteSummary{
			ID:          inv.ID,
			CreatedAt:   inv.CreatedAt,
			ExpiresAt:   inv.ExpiresAt,
			Revoked:     inv.Revoked,
			MaxUses:     inv.MaxUses,
			UsedCount:   inv.UsedCount,
			RoleGranted: inv.RoleGranted,
		})
	}
	return out, nil
}

// RevokeInvite invalidates an invite. Idempotent: revoking twice is fine.
// Teacher-only.
func (s *InviteService) RevokeInvite(ctx context.Context, groupID, inviteID, actorUserID string) error {
	log := slogx.FromContext(ctx)

	if _, err := requireTeacher(ctx, s.Store, groupID, actorUserID); err != nil {
		return err
	}

	if _, err := s.Store.Invites().GetGroupInvite(ctx, inviteID, groupID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInviteNotFound
		}
		return err
	}

	if err := s.Store.Invites().RevokeInvite(ctx, inviteID); err != nil {
		return err
	}

	log.Info("invite revoked",
		slog.String("invite_id", inviteID),
		slog.String("group_id", groupID),
	)
	return nil
}

// RecreateInvite revokes an invite and mints a replacement carrying forward
// maxUses and roleGranted. A still-future expiry is preserved; a past one is
// replaced with a fresh default window. The new invite starts at zero uses:
// recreate opens a fresh usage window, not a continuation.
func (s *InviteService) RecreateInvite(
	ctx context.Context,
	groupID, inviteID, actorUserID string,
) (CreatedInvite, error) {
	log := slogx.FromContext(ctx)

	actor, err := requireTeacher(ctx, s.Store, groupID, actorUserID)
	if err != nil {
		return CreatedInvite{}, err
	}

	old, err := s.Store.Invites().GetGroupInvite(ctx, inviteID, groupID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return CreatedInvite{}, ErrInviteNotFound
		}
		return CreatedInvite{}, err
	}

	if err := s.Store.Invites().RevokeInvite(ctx, old.ID); err != nil {
		return CreatedInvite{}, err
	}

	now := time.Now().UTC()
	expiresAt := old.ExpiresAt
	if !expiresAt.After(now) {
		expiresAt = now.Add(DefaultInviteExpiry)
	}

	created, err := s.mint(ctx, groupID, actor.UserID, expiresAt, old.MaxUses, old.RoleGranted)
	if err != nil {
		return CreatedInvite{}, err
	}

	log.Info("invite recreated",
		slog.String("old_invite_id", old.ID),
		slog.String("new_invite_id", created.InviteID),
		slog.String("group_id", groupID),
	)
	return created, nil
}

// mint generates a raw token and persists its record through the
// collision-safe issuance loop. The returned struct carries the raw token.
func (s *InviteService) mint(
	ctx context.Context,
	groupID, createdBy string,
	expiresAt time.Time,
	maxUses *int,
	roleGranted domain.GroupRole,
) (CreatedInvite, error) {
	var inviteID string

	token, err := issueUnique(ctx, s.IssueAttempts,
		func() (string, error) {
			return cryptox.GenerateToken(inviteTokenSize)
		},
		func(ctx context.Context, candidate string) error {
			inv := domain.Invite{
				ID:          idx.New().String(),
				TokenHash:   cryptox.HashToken(candidate),
				GroupID:     groupID,
				CreatedBy:   createdBy,
				CreatedAt:   time.Now().UTC(),
				ExpiresAt:   expiresAt,
				MaxUses:     maxUses,
				RoleGranted: roleGranted,
			}
			if err := s.Store.Invites().CreateInvite(ctx, inv); err != nil {
				return err
			}
			inviteID = inv.ID
			return nil
		},
	)
	if err != nil {
		return CreatedInvite{}, err
	}

	return CreatedInvite{
		InviteID:    inviteID,
		Token:       token,
		ExpiresAt:   expiresAt,
		MaxUses:     maxUses,
		RoleGranted: roleGranted,
	}, nil
}
