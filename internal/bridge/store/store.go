package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/ircbridge/internal/bridge/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable, and so a Tx can hand out the same repos bound to the transaction.
type Store interface {
	Mappings() Mappings
	Memberships() Memberships
	LoginTickets() LoginTickets

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction. Inside fn only the
	// repos on tx may be used; going back to the outer Store would deadlock
	// single-connection drivers.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Mappings interface {
	// UpsertMapping inserts m, or when a mapping for m.ExternalUserID already
	// exists, replaces its credential hash and names in the same statement.
	// The stored username is never changed by an update. Returns the stored
	// row. A username held by another user yields ErrAlreadyExists.
	UpsertMapping(ctx context.Context, m domain.Mapping) (domain.Mapping, error)

	// GetMappingByUsername is used by the auth callback.
	GetMappingByUsername(ctx context.Context, username string) (domain.Mapping, error)

	GetMappingByExternalID(ctx context.Context, externalUserID string) (domain.Mapping, error)

	// TouchLastUsed records an accepted login.
	TouchLastUsed(ctx context.Context, id string, at time.Time) error

	// DeleteMappingByExternalID cascades to memberships and tickets.
	// Returns ErrNotFound when nothing was deleted.
	DeleteMappingByExternalID(ctx context.Context, externalUserID string) error
}

type Memberships interface {
	// AddMembership inserts the row if absent; an existing row is left as is.
	AddMembership(ctx context.Context, m domain.Membership) error

	// ListMemberships returns a mapping's memberships ordered by network, channel.
	ListMemberships(ctx context.Context, mappingID string) ([]domain.Membership, error)
}

type LoginTickets interface {
	CreateLoginTicket(ctx context.Context, t domain.LoginTicket) error

	// ConsumeLoginTicket marks an unused, unexpired ticket as used in a single
	// statement. Returns ErrNotFound when no such ticket exists for the mapping.
	ConsumeLoginTicket(ctx context.Context, mappingID, ticketHash string, now time.Time) error

	// RevokeLoginTickets deletes a mapping's unused tickets and returns how
	// many were removed.
	RevokeLoginTickets(ctx context.Context, mappingID string) (int64, error)

	// DeleteStaleLoginTickets removes used and expired tickets.
	DeleteStaleLoginTickets(ctx context.Context, now time.Time) (int64, error)
}
