package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/ircbridge/internal/bridge/domain"
	"github.com/aussiebroadwan/ircbridge/internal/bridge/store"
)

type loginTicketsRepo struct {
	db dbtx
}

func (r *loginTicketsRepo) CreateLoginTicket(ctx context.Context, t domain.LoginTicket) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO login_tickets (id, mapping_id, ticket_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.MappingID, t.TicketHash, t.ExpiresAt.UTC(), t.CreatedAt.UTC())
	return mapPgError(err)
}

func (r *loginTicketsRepo) ConsumeLoginTicket(
	ctx context.Context,
	mappingID, ticketHash string,
	now time.Time,
) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE login_tickets
		SET used_at = $1
		WHERE mapping_id = $2
		  AND ticket_hash = $3
		  AND used_at IS NULL
		  AND expires_at > $1`,
		now.UTC(), mappingID, ticketHash)
	if err != nil {
		return mapPgError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *loginTicketsRepo) RevokeLoginTickets(ctx context.Context, mappingID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM login_tickets WHERE mapping_id = $1 AND used_at IS NULL`, mappingID)
	if err != nil {
		return 0, mapPgError(err)
	}
	return res.RowsAffected()
}

func (r *loginTicketsRepo) DeleteStaleLoginTickets(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM login_tickets WHERE used_at IS NOT NULL OR expires_at <= $1`, now.UTC())
	if err != nil {
		return 0, mapPgError(err)
	}
	return res.RowsAffected()
}
