package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/lexloop/lexloop/internal/domain"
	"github.com/lexloop/lexloop/internal/store"
)

// memberOrExplain resolves the actor's membership in a group. When the
// membership is absent, the caller learns whether the group itself is missing
// (NotFound) or the actor simply isn't a member (Forbidden).
func memberOrExplain(ctx context.Context, st store.Store, groupID, userID string) (domain.Membership, error) {
	m, err := st.Memberships().GetMembership(ctx, userID, groupID)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.Membership{}, err
	}

	if _, gerr := st.Groups().GetGroupByID(ctx, groupID); gerr != nil {
		if errors.Is(gerr, store.ErrNotFound) {
			return domain.Membership{}, ErrGroupNotFound
		}
		return domain.Membership{}, gerr
	}
	return domain.Membership{}, fmt.Errorf("%w: not a member of this group", ErrForbidden)
}

// requireTeacher resolves the actor's membership and enforces the TEACHER
// role, for the invite and group management operations.
func requireTeacher(ctx context.Context, st store.Store, groupID, userID string) (domain.Membership, error) {
	m, err := memberOrExplain(ctx, st, groupID, userID)
	if err != nil {
		return domain.Membership{}, err
	}
	if m.Role != domain.GroupRoleTeacher {
		return domain.Membership{}, fmt.Errorf("%w: teacher role required", ErrForbidden)
	}
	return m, nil
}
