package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lexloop/lexloop/pkg/cryptox"
)

func TestHousekeepingSweepsExpiredRows(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	teacher := seedUser(t, st, "teacher@example.com")
	group := seedGroup(t, st, teacher, "Year 9 English")

	invites := &InviteService{Store: st}
	sessions := &SessionService{Store: st}

	// One invite and one session that will be backdated past expiry, and
	// one of each that stays live.
	stale, err := invites.CreateInvite(ctx, group.ID, teacher.ID, CreateInviteParams{})
	require.NoError(t, err)
	live, err := invites.CreateInvite(ctx, group.ID, teacher.ID, CreateInviteParams{})
	require.NoError(t, err)

	staleRefresh, err := sessions.Issue(ctx, teacher.ID)
	require.NoError(t, err)
	liveRefresh, err := sessions.Issue(ctx, teacher.ID)
	require.NoError(t, err)

	past := time.Now().UTC().Add(-time.Hour)
	_, err = storeExec(t, st, `UPDATE group_invites SET expires_at = ? WHERE id = ?`, past, stale.InviteID)
	require.NoError(t, err)
	n, err := storeExec(t, st,
		`UPDATE refresh_sessions SET expires_at = ? WHERE token_hash = ?`,
		past, cryptox.HashToken(staleRefresh))
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	hk := NewHousekeepingService(st, slog.New(slog.DiscardHandler), time.Hour)
	hk.Start()
	hk.Stop() // Start runs one sweep immediately; Stop waits for it.

	_, err = st.Invites().GetGroupInvite(ctx, stale.InviteID, group.ID)
	require.Error(t, err, "expired invite should be deleted")
	_, err = st.Invites().GetGroupInvite(ctx, live.InviteID, group.ID)
	require.NoError(t, err)

	_, err = sessions.Validate(ctx, staleRefresh)
	require.ErrorIs(t, err, ErrInvalidRefresh)
	_, err = sessions.Validate(ctx, liveRefresh)
	require.NoError(t, err)
}
