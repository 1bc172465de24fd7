package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cantax/pkg/core/tax"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ManifestSummary is one row of a manifest listing.
type ManifestSummary struct {
	EntityID     string    `json:"entity_id"`
	TaxYear      int       `json:"tax_year"`
	ManifestID   string    `json:"manifest_id"`
	ManifestHash string    `json:"manifest_hash"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// ManifestRepository persists year-end manifests, one per entity-year.
type ManifestRepository interface {
	SaveManifest(ctx context.Context, m tax.YearEndManifest) error
	LoadManifest(ctx context.Context, entityID string, taxYear int) (tax.YearEndManifest, error)
	ListManifests(ctx context.Context, entityID string) ([]ManifestSummary, error)
}

// decodeManifest unmarshals a stored manifest and rejects it when the stored
// hash no longer matches its content.
func decodeManifest(raw []byte) (tax.YearEndManifest, error) {
	var m tax.YearEndManifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return tax.YearEndManifest{}, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}
	ok, err := tax.VerifyManifest(m)
	if err != nil {
		return tax.YearEndManifest{}, err
	}
	if !ok {
		return tax.YearEndManifest{}, fmt.Errorf("manifest %s: stored hash does not match content", m.ID)
	}
	return m, nil
}

// =============================================================================
// POSTGRES
// =============================================================================

// PGManifestRepo stores manifests as JSONB.
type PGManifestRepo struct {
	pool *pgxpool.Pool
}

func NewPGManifestRepo(p *pgxpool.Pool) *PGManifestRepo {
	if p == nil {
		p = GetPool()
	}
	return &PGManifestRepo{pool: p}
}

func (r *PGManifestRepo) SaveManifest(ctx context.Context, m tax.YearEndManifest) error {
	if r.pool == nil {
		return fmt.Errorf("database pool not initialized")
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	query := `
		INSERT INTO year_end_manifests (entity_id, tax_year, manifest_id, manifest_hash, manifest_json, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (entity_id, tax_year)
		DO UPDATE SET
			manifest_id = EXCLUDED.manifest_id,
			manifest_hash = EXCLUDED.manifest_hash,
			manifest_json = EXCLUDED.manifest_json,
			generated_at = EXCLUDED.generated_at;
	`
	if _, err := r.pool.Exec(ctx, query, m.EntityID, m.TaxYear, m.ID, m.ManifestHash, raw, m.GeneratedAt); err != nil {
		return fmt.Errorf("failed to save manifest: %w", err)
	}
	return nil
}

func (r *PGManifestRepo) LoadManifest(ctx context.Context, entityID string, taxYear int) (tax.YearEndManifest, error) {
	if r.pool == nil {
		return tax.YearEndManifest{}, fmt.Errorf("database pool not initialized")
	}
	var raw []byte
	query := `SELECT manifest_json FROM year_end_manifests WHERE entity_id = $1 AND tax_year = $2`
	err := r.pool.QueryRow(ctx, query, entityID, taxYear).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return tax.YearEndManifest{}, fmt.Errorf("manifest %s/%d: %w", entityID, taxYear, ErrNotFound)
		}
		return tax.YearEndManifest{}, fmt.Errorf("failed to load manifest: %w", err)
	}
	return decodeManifest(raw)
}

func (r *PGManifestRepo) ListManifests(ctx context.Context, entityID string) ([]ManifestSummary, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}
	query := `
		SELECT entity_id, tax_year, manifest_id, manifest_hash, generated_at
		FROM year_end_manifests
		WHERE entity_id = $1
		ORDER BY tax_year DESC
	`
	rows, err := r.pool.Query(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list manifests: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ManifestSummary, error) {
		var s ManifestSummary
		err := row.Scan(&s.EntityID, &s.TaxYear, &s.ManifestID, &s.ManifestHash, &s.GeneratedAt)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan manifests: %w", err)
	}
	return out, nil
}
