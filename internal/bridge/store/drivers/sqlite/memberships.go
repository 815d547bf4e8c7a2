package sqlite

import (
	"context"

	"github.com/aussiebroadwan/ircbridge/internal/bridge/domain"
	"github.com/aussiebroadwan/ircbridge/internal/bridge/store/drivers/sqlite/gen"
)

type membershipsRepo struct {
	q *gen.Queries
}

func (r *membershipsRepo) AddMembership(ctx context.Context, m domain.Membership) error {
	return r.q.AddMembership(ctx, gen.AddMembershipParams{
		MappingID: m.MappingID,
		Network:   m.Network,
		Channel:   m.Channel,
		CreatedAt: toMillis(m.CreatedAt),
	})
}

func (r *membershipsRepo) ListMemberships(ctx context.Context, mappingID string) ([]domain.Membership, error) {
	rows, err := r.q.ListMemberships(ctx, mappingID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Membership, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapMembership(row))
	}
	return out, nil
}
