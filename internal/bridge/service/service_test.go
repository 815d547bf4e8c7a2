package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/aussiebroadwan/ircbridge/internal/bridge/domain"
	"github.com/aussiebroadwan/ircbridge/internal/bridge/store"
	"github.com/aussiebroadwan/ircbridge/internal/bridge/store/drivers/sqlite"
	"github.com/aussiebroadwan/ircbridge/pkg/cryptox"
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

// newFileStore is used where several goroutines share the database.
func newFileStore(t *testing.T) *sqlite.Store {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "bridge.db") + "?_pragma=busy_timeout(5000)"
	s, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// countingHasher counts calls to the wrapped hasher.
type countingHasher struct {
	inner    cryptox.Hasher
	hashes   atomic.Int64
	verifies atomic.Int64
}

func (h *countingHasher) Hash(secret string) (string, error) {
	h.hashes.Add(1)
	return h.inner.Hash(secret)
}

func (h *countingHasher) Verify(secret, encoded string) error {
	h.verifies.Add(1)
	return h.inner.Verify(secret, encoded)
}

func newCredentials(t *testing.T, st store.Store) (*CredentialService, *countingHasher) {
	t.Helper()

	h := &countingHasher{inner: cryptox.NewArgon2id("test-pepper")}
	svc, err := NewCredentialService(st, h, CredentialOptions{})
	require.NoError(t, err)
	h.hashes.Store(0) // ignore the dummy hash
	return svc, h
}

// collidingStore reports a username collision for the first n upserts.
type collidingStore struct {
	store.Store
	n atomic.Int64
}

func (s *collidingStore) Mappings() store.Mappings {
	return &collidingMappings{Mappings: s.Store.Mappings(), parent: s}
}

type collidingMappings struct {
	store.Mappings
	parent *collidingStore
}

func (m *collidingMappings) UpsertMapping(ctx context.Context, mp domain.Mapping) (domain.Mapping, error) {
	if m.parent.n.Add(-1) >= 0 {
		return domain.Mapping{}, store.ErrAlreadyExists
	}
	return m.Mappings.UpsertMapping(ctx, mp)
}

func (s *collidingStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		return fn(&collidingTx{storeTx: tx, parent: s})
	})
}

// storeTx aliases store.Tx so the embedded field is not named Tx, which
// would shadow the promoted Store.Tx method.
type storeTx = store.Tx

type collidingTx struct {
	storeTx
	parent *collidingStore
}

func (t *collidingTx) Mappings() store.Mappings {
	return &collidingMappings{Mappings: t.storeTx.Mappings(), parent: t.parent}
}

// failingTicketsStore fails every ticket write inside a transaction.
type failingTicketsStore struct {
	store.Store
}

func (s *failingTicketsStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		return fn(&failingTicketsTx{storeTx: tx})
	})
}

type failingTicketsTx struct {
	storeTx
}

func (t *failingTicketsTx) LoginTickets() store.LoginTickets {
	return &failingTickets{LoginTickets: t.storeTx.LoginTickets()}
}

type failingTickets struct {
	store.LoginTickets
}

func (f *failingTickets) CreateLoginTicket(context.Context, domain.LoginTicket) error {
	return errors.New("disk full")
}
