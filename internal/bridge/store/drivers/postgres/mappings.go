package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/ircbridge/internal/bridge/domain"
	"github.com/aussiebroadwan/ircbridge/internal/bridge/store"
)

type mappingsRepo struct {
	db dbtx
}

const upsertMapping = `
INSERT INTO identity_mappings (
    id, external_user_id, bouncer_username, credential_hash,
    display_name, real_name, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (external_user_id) DO UPDATE SET
    credential_hash = EXCLUDED.credential_hash,
    display_name    = EXCLUDED.display_name,
    real_name       = EXCLUDED.real_name,
    updated_at      = EXCLUDED.updated_at
RETURNING ` + mappingColumns

func (r *mappingsRepo) UpsertMapping(ctx context.Context, m domain.Mapping) (domain.Mapping, error) {
	row := r.db.QueryRowContext(ctx, upsertMapping,
		m.ID,
		m.ExternalUserID,
		m.BouncerUsername,
		m.CredentialHash,
		m.DisplayName,
		m.RealName,
		m.CreatedAt.UTC(),
		m.UpdatedAt.UTC(),
	)
	out, err := scanMapping(row)
	if err != nil {
		return domain.Mapping{}, mapPgError(err)
	}
	return out, nil
}

func (r *mappingsRepo) GetMappingByUsername(ctx context.Context, username string) (domain.Mapping, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+mappingColumns+` FROM identity_mappings WHERE bouncer_username = $1`, username)
	m, err := scanMapping(row)
	if err != nil {
		return domain.Mapping{}, mapPgError(err)
	}
	return m, nil
}

func (r *mappingsRepo) GetMappingByExternalID(ctx context.Context, externalUserID string) (domain.Mapping, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+mappingColumns+` FROM identity_mappings WHERE external_user_id = $1`, externalUserID)
	m, err := scanMapping(row)
	if err != nil {
		return domain.Mapping{}, mapPgError(err)
	}
	return m, nil
}

func (r *mappingsRepo) TouchLastUsed(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE identity_mappings SET last_used_at = $1 WHERE id = $2`, at.UTC(), id)
	return mapPgError(err)
}

func (r *mappingsRepo) DeleteMappingByExternalID(ctx context.Context, externalUserID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM identity_mappings WHERE external_user_id = $1`, externalUserID)
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
