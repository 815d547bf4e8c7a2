package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aussiebroadwan/ircbridge/internal/bridge/domain"
	"github.com/aussiebroadwan/ircbridge/internal/bridge/store"
	"github.com/aussiebroadwan/ircbridge/internal/bridge/store/drivers/sqlite"
	"github.com/aussiebroadwan/ircbridge/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newMapping(externalID, username, hash string, now time.Time) domain.Mapping {
	return domain.Mapping{
		ID:              idx.New().String(),
		ExternalUserID:  externalID,
		BouncerUsername: username,
		CredentialHash:  hash,
		DisplayName:     "Bob",
		RealName:        "Bob B.",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestUpsertMapping(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now().UTC().Truncate(time.Millisecond)

	first, err := s.Mappings().UpsertMapping(ctx, newMapping("u1", "bob_aaaaaa", "hash-1", now))
	require.NoError(t, err)
	require.Equal(t, "bob_aaaaaa", first.BouncerUsername)
	require.Equal(t, now, first.CreatedAt)
	require.Nil(t, first.LastUsedAt)

	later := now.Add(time.Minute)
	next := newMapping("u1", "bob_bbbbbb", "hash-2", later)
	next.DisplayName = "Bobby"

	second, err := s.Mappings().UpsertMapping(ctx, next)
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID, "existing row is updated, not replaced")
	require.Equal(t, "bob_aaaaaa", second.BouncerUsername, "username is immutable")
	require.Equal(t, "hash-2", second.CredentialHash)
	require.Equal(t, "Bobby", second.DisplayName)
	require.Equal(t, now, second.CreatedAt)
	require.Equal(t, later, second.UpdatedAt)
}

func TestUpsertMapping_UsernameTaken(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now()

	_, err := s.Mappings().UpsertMapping(ctx, newMapping("u1", "bob_aaaaaa", "h", now))
	require.NoError(t, err)

	_, err = s.Mappings().UpsertMapping(ctx, newMapping("u2", "bob_aaaaaa", "h", now))
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestGetMapping(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Mappings().GetMappingByUsername(ctx, "nobody")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Mappings().GetMappingByExternalID(ctx, "nobody")
	require.ErrorIs(t, err, store.ErrNotFound)

	m, err := s.Mappings().UpsertMapping(ctx, newMapping("u1", "bob_aaaaaa", "h", time.Now()))
	require.NoError(t, err)

	byName, err := s.Mappings().GetMappingByUsername(ctx, "bob_aaaaaa")
	require.NoError(t, err)
	require.Equal(t, m.ID, byName.ID)

	byExt, err := s.Mappings().GetMappingByExternalID(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, m.ID, byExt.ID)

	at := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, s.Mappings().TouchLastUsed(ctx, m.ID, at))

	touched, err := s.Mappings().GetMappingByExternalID(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, touched.LastUsedAt)
	require.Equal(t, at, *touched.LastUsedAt)
	require.Equal(t, m.CredentialHash, touched.CredentialHash)
}

func TestMemberships(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	m, err := s.Mappings().UpsertMapping(ctx, newMapping("u1", "bob_aaaaaa", "h", time.Now()))
	require.NoError(t, err)

	for _, ch := range []string{"#general", "#dev", "#general"} {
		require.NoError(t, s.Memberships().AddMembership(ctx, domain.Membership{
			MappingID: m.ID, Network: "community", Channel: ch, CreatedAt: time.Now(),
		}))
	}

	list, err := s.Memberships().ListMemberships(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "#dev", list[0].Channel)
	require.Equal(t, "#general", list[1].Channel)

	err = s.Memberships().AddMembership(ctx, domain.Membership{
		MappingID: "missing", Network: "community", Channel: "#x", CreatedAt: time.Now(),
	})
	require.Error(t, err, "foreign keys are enforced")
}

func TestLoginTickets(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now().UTC()

	m, err := s.Mappings().UpsertMapping(ctx, newMapping("u1", "bob_aaaaaa", "h", now))
	require.NoError(t, err)

	create := func(hash string, expires time.Time) {
		require.NoError(t, s.LoginTickets().CreateLoginTicket(ctx, domain.LoginTicket{
			ID: idx.New().String(), MappingID: m.ID, TicketHash: hash,
			ExpiresAt: expires, CreatedAt: now,
		}))
	}
	create("live", now.Add(2*time.Minute))
	create("stale", now.Add(-time.Second))

	lt := s.LoginTickets()
	require.ErrorIs(t, lt.ConsumeLoginTicket(ctx, "other-mapping", "live", now), store.ErrNotFound)
	require.NoError(t, lt.ConsumeLoginTicket(ctx, m.ID, "live", now))
	require.ErrorIs(t, lt.ConsumeLoginTicket(ctx, m.ID, "live", now), store.ErrNotFound, "single use")
	require.ErrorIs(t, lt.ConsumeLoginTicket(ctx, m.ID, "stale", now), store.ErrNotFound, "expired")

	n, err := lt.DeleteStaleLoginTickets(ctx, now)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
}

func TestRevokeLoginTickets(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now().UTC()

	m, err := s.Mappings().UpsertMapping(ctx, newMapping("u1", "bob_aaaaaa", "h", now))
	require.NoError(t, err)
	other, err := s.Mappings().UpsertMapping(ctx, newMapping("u2", "amy_bbbbbb", "h", now))
	require.NoError(t, err)

	lt := s.LoginTickets()
	for _, tk := range []struct{ mapping, hash string }{{m.ID, "a"}, {m.ID, "b"}, {m.ID, "used"}, {other.ID, "c"}} {
		require.NoError(t, lt.CreateLoginTicket(ctx, domain.LoginTicket{
			ID: idx.New().String(), MappingID: tk.mapping, TicketHash: tk.hash,
			ExpiresAt: now.Add(time.Minute), CreatedAt: now,
		}))
	}
	require.NoError(t, lt.ConsumeLoginTicket(ctx, m.ID, "used", now))

	n, err := lt.RevokeLoginTickets(ctx, m.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, n, "only unused tickets of the mapping")

	require.ErrorIs(t, lt.ConsumeLoginTicket(ctx, m.ID, "a", now), store.ErrNotFound)
	require.NoError(t, lt.ConsumeLoginTicket(ctx, other.ID, "c", now))
}

func TestDeleteMappingCascades(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now()

	m, err := s.Mappings().UpsertMapping(ctx, newMapping("u1", "bob_aaaaaa", "h", now))
	require.NoError(t, err)
	require.NoError(t, s.Memberships().AddMembership(ctx, domain.Membership{
		MappingID: m.ID, Network: "community", Channel: "#general", CreatedAt: now,
	}))
	require.NoError(t, s.LoginTickets().CreateLoginTicket(ctx, domain.LoginTicket{
		ID: idx.New().String(), MappingID: m.ID, TicketHash: "t", ExpiresAt: now.Add(time.Hour), CreatedAt: now,
	}))

	require.NoError(t, s.Mappings().DeleteMappingByExternalID(ctx, "u1"))
	require.ErrorIs(t, s.Mappings().DeleteMappingByExternalID(ctx, "u1"), store.ErrNotFound)

	list, err := s.Memberships().ListMemberships(ctx, m.ID)
	require.NoError(t, err)
	require.Empty(t, list)
	require.ErrorIs(t, s.LoginTickets().ConsumeLoginTicket(ctx, m.ID, "t", now), store.ErrNotFound)
}

func TestWithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.Mappings().UpsertMapping(ctx, newMapping("u1", "bob_aaaaaa", "h", time.Now())); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Mappings().GetMappingByExternalID(ctx, "u1")
	require.ErrorIs(t, err, store.ErrNotFound)
}
