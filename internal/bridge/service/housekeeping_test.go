package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHousekeeping_RemovesStaleTickets(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	creds, _ := newCredentials(t, st)

	cred, err := creds.Upsert(ctx, "u1", "Bob", "")
	require.NoError(t, err)

	past := time.Now().Add(-time.Hour)
	expired := &TicketService{Store: st, TTL: time.Minute, Now: func() time.Time { return past }}
	_, err = expired.Issue(ctx, cred.Mapping.ID)
	require.NoError(t, err)

	live := &TicketService{Store: st}
	ticket, err := live.Issue(ctx, cred.Mapping.ID)
	require.NoError(t, err)

	hk := NewHousekeepingService(st, slog.New(slog.NewTextHandler(io.Discard, nil)), time.Minute)
	require.EqualValues(t, 1, hk.Cleanup(ctx))

	require.NoError(t, live.Redeem(ctx, cred.Mapping.ID, ticket), "live tickets survive")
	require.EqualValues(t, 1, hk.Cleanup(ctx), "used tickets are removed")
}

func TestHousekeeping_StartStop(t *testing.T) {
	st := newTestStore(t)
	hk := NewHousekeepingService(st, slog.New(slog.NewTextHandler(io.Discard, nil)), 0)
	require.Equal(t, 10*time.Minute, hk.Interval)

	hk.Start()
	hk.Stop()
}
