package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/ircbridge/internal/bridge/domain"
	"github.com/aussiebroadwan/ircbridge/internal/bridge/store"
	"github.com/aussiebroadwan/ircbridge/internal/bridge/store/drivers/sqlite/gen"
)

type loginTicketsRepo struct {
	q *gen.Queries
}

func (r *loginTicketsRepo) CreateLoginTicket(ctx context.Context, t domain.LoginTicket) error {
	err := r.q.CreateLoginTicket(ctx, gen.CreateLoginTicketParams{
		ID:         t.ID,
		MappingID:  t.MappingID,
		TicketHash: t.TicketHash,
		ExpiresAt:  toMillis(t.ExpiresAt),
		CreatedAt:  toMillis(t.CreatedAt),
	})
	return mapConstraint(err)
}

func (r *loginTicketsRepo) ConsumeLoginTicket(
	ctx context.Context,
	mappingID, ticketHash string,
	now time.Time,
) error {
	n, err := r.q.ConsumeLoginTicket(ctx, gen.ConsumeLoginTicketParams{
		Now:        toMillis(now),
		MappingID:  mappingID,
		TicketHash: ticketHash,
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *loginTicketsRepo) RevokeLoginTickets(ctx context.Context, mappingID string) (int64, error) {
	return r.q.RevokeLoginTickets(ctx, mappingID)
}

func (r *loginTicketsRepo) DeleteStaleLoginTickets(ctx context.Context, now time.Time) (int64, error) {
	return r.q.DeleteStaleLoginTickets(ctx, toMillis(now))
}
