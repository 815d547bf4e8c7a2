package postgres

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/ircbridge/internal/bridge/store"
)

type txStore struct {
	tx *sql.Tx
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) Close() error                   { return nil }
func (t *txStore) Ping(ctx context.Context) error { return nil }

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	// Nested tx not supported
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	// Nested tx not supported
	return sql.ErrTxDone
}

func (t *txStore) Mappings() store.Mappings         { return &mappingsRepo{db: t.tx} }
func (t *txStore) Memberships() store.Memberships   { return &membershipsRepo{db: t.tx} }
func (t *txStore) LoginTickets() store.LoginTickets { return &loginTicketsRepo{db: t.tx} }

func (t *txStore) ApplyMigrations() error { return nil } // migrations run before any tx
