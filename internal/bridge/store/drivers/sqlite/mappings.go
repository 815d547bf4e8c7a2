package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/ircbridge/internal/bridge/domain"
	"github.com/aussiebroadwan/ircbridge/internal/bridge/store"
	"github.com/aussiebroadwan/ircbridge/internal/bridge/store/drivers/sqlite/gen"
)

type mappingsRepo struct {
	q *gen.Queries
}

func (r *mappingsRepo) UpsertMapping(ctx context.Context, m domain.Mapping) (domain.Mapping, error) {
	row, err := r.q.UpsertMapping(ctx, gen.UpsertMappingParams{
		ID:              m.ID,
		ExternalUserID:  m.ExternalUserID,
		BouncerUsername: m.BouncerUsername,
		CredentialHash:  m.CredentialHash,
		DisplayName:     m.DisplayName,
		RealName:        m.RealName,
		CreatedAt:       toMillis(m.CreatedAt),
		UpdatedAt:       toMillis(m.UpdatedAt),
	})
	if err != nil {
		return domain.Mapping{}, mapConstraint(err)
	}
	return mapMapping(row), nil
}

func (r *mappingsRepo) GetMappingByUsername(ctx context.Context, username string) (domain.Mapping, error) {
	row, err := r.q.GetMappingByUsername(ctx, username)
	if err != nil {
		return domain.Mapping{}, mapNotFound(err)
	}
	return mapMapping(row), nil
}

func (r *mappingsRepo) GetMappingByExternalID(ctx context.Context, externalUserID string) (domain.Mapping, error) {
	row, err := r.q.GetMappingByExternalID(ctx, externalUserID)
	if err != nil {
		return domain.Mapping{}, mapNotFound(err)
	}
	return mapMapping(row), nil
}

func (r *mappingsRepo) TouchLastUsed(ctx context.Context, id string, at time.Time) error {
	return r.q.TouchMappingLastUsed(ctx, gen.TouchMappingLastUsedParams{
		LastUsedAt: sql.NullInt64{Int64: toMillis(at), Valid: true},
		ID:         id,
	})
}

func (r *mappingsRepo) DeleteMappingByExternalID(ctx context.Context, externalUserID string) error {
	n, err := r.q.DeleteMappingByExternalID(ctx, externalUserID)
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
