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
	// joinCodeAlphabet omits I, O, 0 and 1 so codes survive being read
	// aloud or written on a whiteboard.
	joinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	joinCodeLength   = 8

	maxGroupNameLength = 120
)

// GroupService manages group creation, join-code membership, and the member
// and group views.
type GroupService struct {
	Store store.Store

	// IssueAttempts overrides the collision retry budget; zero means
	// DefaultIssueAttempts.
	IssueAttempts int
}

// GroupView is a group as seen by one of its members. JoinCode is populated
// only for teachers.
type GroupView struct {
	ID        string
	Name      string
	JoinCode  string
	OwnerID   string
	MyRole    domain.GroupRole
	CreatedAt time.Time
}

// Member pairs a membership with the user's account details for listings.
type Member struct {
	UserID   string
	Email    string
	Role     domain.GroupRole
	JoinedAt time.Time
}

// CreateGroup creates a group owned by ownerUserID, minting a unique join
// code and the owner's TEACHER membership in the same transaction.
func (s *GroupService) CreateGroup(ctx context.Context, name, ownerUserID string) (GroupView, error) {
	log := slogx.FromContext(ctx)

	name = strings.TrimSpace(name)
	if name == "" {
		return GroupView{}, fmt.Errorf("%w: group name required", ErrInvalidRequest)
	}
	if len(name) > maxGroupNameLength {
		return GroupView{}, fmt.Errorf("%w: group name too long", ErrInvalidRequest)
	}

	now := time.Now().UTC()
	var group domain.Group

	_, err := issueUnique(ctx, s.IssueAttempts,
		func() (string, error) {
			return cryptox.GenerateCode(joinCodeAlphabet, joinCodeLength)
		},
		func(ctx context.Context, code string) error {
			return s.Store.WithTx(ctx, func(tx store.Tx) error {
				g := domain.Group{
					ID:          idx.New().String(),
					Name:        name,
					JoinCode:    code,
					OwnerUserID: ownerUserID,
					CreatedAt:   now,
				}
				if err := tx.Groups().CreateGroup(ctx, g); err != nil {
					return err
				}
				m := domain.Membership{
					ID:       idx.New().String(),
					UserID:   ownerUserID,
					GroupID:  g.ID,
					Role:     domain.GroupRoleTeacher,
					JoinedAt: now,
				}
				if err := tx.Memberships().CreateMembership(ctx, m); err != nil {
					return err
				}
				group = g
				return nil
			})
		},
	)
	if err != nil {
		return GroupView{}, err
	}

	log.Info("group created",
		slog.String("group_id", group.ID),
		slog.String("owner_user_id", ownerUserID),
	)

	return GroupView{
		ID:        group.ID,
		Name:      group.Name,
		JoinCode:  group.JoinCode,
		OwnerID:   group.OwnerUserID,
		MyRole:    domain.GroupRoleTeacher,
		CreatedAt: group.CreatedAt,
	}, nil
}

// JoinByCode adds the user to the group behind a join code as a STUDENT.
// Codes are matched case-insensitively.
func (s *GroupService) JoinByCode(ctx context.Context, code, userID string) (GroupView, error) {
	log := slogx.FromContext(ctx)

	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return GroupView{}, fmt.Errorf("%w: join code required", ErrInvalidRequest)
	}

	group, err := s.Store.Groups().GetGroupByJoinCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return GroupView{}, ErrGroupNotFound
		}
		return GroupView{}, err
	}

	m := domain.Membership{
		ID:       idx.New().String(),
		UserID:   userID,
		GroupID:  group.ID,
		Role:     domain.GroupRoleStudent,
		JoinedAt: time.Now().UTC(),
	}
	if err := s.Store.Memberships().CreateMembership(ctx, m); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return GroupView{}, ErrAlreadyMember
		}
		return GroupView{}, err
	}

	log.Info("member joined by code",
		slog.String("group_id", group.ID),
		slog.String("user_id", userID),
	)

	return GroupView{
		ID:        group.ID,
		Name:      group.Name,
		OwnerID:   group.OwnerUserID,
		MyRole:    domain.GroupRoleStudent,
		CreatedAt: group.CreatedAt,
	}, nil
}

// MyGroups lists every group the user belongs to, with their role in each.
func (s *GroupService) MyGroups(ctx context.Context, userID string) ([]GroupView, error) {
	memberships, err := s.Store.Memberships().ListUserMemberships(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]GroupView, 0, len(memberships))
	for _, m := range memberships {
		group, err := s.Store.Groups().GetGroupByID(ctx, m.GroupID)
		if err != nil {
			return nil, err
		}
		out = append(out, s.view(group, m.Role))
	}
	return out, nil
}

// GroupDetails returns one group as seen by the requesting member.
func (s *GroupService) GroupDetails(ctx context.Context, groupID, userID string) (GroupView, error) {
	m, err := memberOrExplain(ctx, s.Store, groupID, userID)
	if err != nil {
		return GroupView{}, err
	}

	group, err := s.Store.Groups().GetGroupByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return GroupView{}, ErrGroupNotFound
		}
		return GroupView{}, err
	}
	return s.view(group, m.Role), nil
}

// ResetJoinCode replaces the group's join code with a fresh one, immediately
// invalidating the old code. Teacher-only.
func (s *GroupService) ResetJoinCode(ctx context.Context, groupID, actorUserID string) (string, error) {
	log := slogx.FromContext(ctx)

	if _, err := requireTeacher(ctx, s.Store, groupID, actorUserID); err != nil {
		return "", err
	}

	code, err := issueUnique(ctx, s.IssueAttempts,
		func() (string, error) {
			return cryptox.GenerateCode(joinCodeAlphabet, joinCodeLength)
		},
		func(ctx context.Context, candidate string) error {
			return s.Store.Groups().UpdateJoinCode(ctx, groupID, candidate)
		},
	)
	if err != nil {
		return "", err
	}

	log.Info("join code reset", slog.String("group_id", groupID))
	return code, nil
}

// ListMembers lists a group's members, oldest first. Teacher-only: the
// member roster carries email addresses.
func (s *GroupService) ListMembers(ctx context.Context, groupID, userID string) ([]Member, error) {
	if _, err := requireTeacher(ctx, s.Store, groupID, userID); err != nil {
		return nil, err
	}

	memberships, err := s.Store.Memberships().ListGroupMemberships(ctx, groupID)
	if err != nil {
		return nil, err
	}

	out := make([]Member, 0, len(memberships))
	for _, m := range memberships {
		user, err := s.Store.Users().GetUserByID(ctx, m.UserID)
		if err != nil {
			return nil, err
		}
		out = append(out, Member{
			UserID:   m.UserID,
			Email:    user.Email,
			Role:     m.Role,
			JoinedAt: m.JoinedAt,
		})
	}
	return out, nil
}

// view shapes a group for one member, hiding the join code from students.
func (s *GroupService) view(group domain.Group, role domain.GroupRole) GroupView {
	v := GroupView{
		ID:        group.ID,
		Name:      group.Name,
		OwnerID:   group.OwnerUserID,
		MyRole:    role,
		CreatedAt: group.CreatedAt,
	}
	if role == domain.GroupRoleTeacher {
		v.JoinCode = group.JoinCode
	}
	return v
}
