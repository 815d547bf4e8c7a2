package postgres

import (
	"context"

	"github.com/aussiebroadwan/ircbridge/internal/bridge/domain"
)

type membershipsRepo struct {
	db dbtx
}

func (r *membershipsRepo) AddMembership(ctx context.Context, m domain.Membership) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO channel_memberships (mapping_id, network, channel, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (mapping_id, network, channel) DO NOTHING`,
		m.MappingID, m.Network, m.Channel, m.CreatedAt.UTC())
	return mapPgError(err)
}

func (r *membershipsRepo) ListMemberships(ctx context.Context, mappingID string) ([]domain.Membership, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT mapping_id, network, channel, created_at
		FROM channel_memberships
		WHERE mapping_id = $1
		ORDER BY network, channel`, mappingID)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var out []domain.Membership
	for rows.Next() {
		var m domain.Membership
		if err := rows.Scan(&m.MappingID, &m.Network, &m.Channel, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.CreatedAt = m.CreatedAt.UTC()
		out = append(out, m)
	}
	return out, rows.Err()
}
