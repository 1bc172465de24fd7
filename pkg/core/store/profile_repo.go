package store

import (
	"context"
	"errors"
	"fmt"

	"cantax/pkg/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProfileRepository persists entity profiles and the filing rows the close
// gate and evidence manifest are derived from.
type ProfileRepository interface {
	SaveProfile(ctx context.Context, p models.EntityProfile) error
	LoadProfile(ctx context.Context, id string) (models.EntityProfile, error)
	SaveFiling(ctx context.Context, f models.FilingRecord) error
	LoadTaxYearState(ctx context.Context, entityID string, taxYear int) (models.TaxYearState, error)
}

// ProfileRepo reads and writes entity profiles and filing rows in postgres.
type ProfileRepo struct {
	pool *pgxpool.Pool
}

// NewProfileRepo creates a repository on p, or on the shared pool when p is nil.
func NewProfileRepo(p *pgxpool.Pool) *ProfileRepo {
	if p == nil {
		p = GetPool()
	}
	return &ProfileRepo{pool: p}
}

func (r *ProfileRepo) ready() error {
	if r.pool == nil {
		return fmt.Errorf("database pool not initialized")
	}
	return nil
}

// SaveProfile upserts a profile by ID.
func (r *ProfileRepo) SaveProfile(ctx context.Context, p models.EntityProfile) error {
	if err := r.ready(); err != nil {
		return err
	}
	query := `
		INSERT INTO tax_profiles (id, legal_name, province, business_number, fiscal_year_end, is_ccpc, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (id)
		DO UPDATE SET
			legal_name = EXCLUDED.legal_name,
			province = EXCLUDED.province,
			business_number = EXCLUDED.business_number,
			fiscal_year_end = EXCLUDED.fiscal_year_end,
			is_ccpc = EXCLUDED.is_ccpc,
			updated_at = NOW();
	`
	if _, err := r.pool.Exec(ctx, query, p.ID, p.LegalName, p.Province, p.BusinessNumber, p.FiscalYearEnd, p.IsCCPC); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// LoadProfile returns ErrNotFound for an unknown ID.
func (r *ProfileRepo) LoadProfile(ctx context.Context, id string) (models.EntityProfile, error) {
	if err := r.ready(); err != nil {
		return models.EntityProfile{}, err
	}
	query := `
		SELECT id, legal_name, province, business_number, fiscal_year_end, is_ccpc, updated_at
		FROM tax_profiles WHERE id = $1
	`
	var p models.EntityProfile
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.LegalName, &p.Province, &p.BusinessNumber, &p.FiscalYearEnd, &p.IsCCPC, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.EntityProfile{}, fmt.Errorf("profile %s: %w", id, ErrNotFound)
		}
		return models.EntityProfile{}, fmt.Errorf("failed to load profile: %w", err)
	}
	return p, nil
}

// SaveFiling upserts one filing row keyed by entity, year, kind and period.
func (r *ProfileRepo) SaveFiling(ctx context.Context, f models.FilingRecord) error {
	if err := r.ready(); err != nil {
		return err
	}
	query := `
		INSERT INTO tax_filings (entity_id, tax_year, kind, period_label, status, document_ref, content_hash, filed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (entity_id, tax_year, kind, period_label)
		DO UPDATE SET
			status = EXCLUDED.status,
			document_ref = EXCLUDED.document_ref,
			content_hash = EXCLUDED.content_hash,
			filed_at = EXCLUDED.filed_at;
	`
	_, err := r.pool.Exec(ctx, query,
		f.EntityID, f.TaxYear, f.Kind, f.PeriodLabel, f.Status, f.DocumentRef, f.ContentHash, f.FiledAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save filing: %w", err)
	}
	return nil
}

// LoadTaxYearState gathers the profile and every filing row of one year.
func (r *ProfileRepo) LoadTaxYearState(ctx context.Context, entityID string, taxYear int) (models.TaxYearState, error) {
	profile, err := r.LoadProfile(ctx, entityID)
	if err != nil {
		return models.TaxYearState{}, err
	}

	query := `
		SELECT entity_id, tax_year, kind, period_label, status, document_ref, content_hash, filed_at
		FROM tax_filings
		WHERE entity_id = $1 AND tax_year = $2
		ORDER BY kind, period_label
	`
	rows, err := r.pool.Query(ctx, query, entityID, taxYear)
	if err != nil {
		return models.TaxYearState{}, fmt.Errorf("failed to load filings: %w", err)
	}
	filings, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.FilingRecord, error) {
		var f models.FilingRecord
		err := row.Scan(&f.EntityID, &f.TaxYear, &f.Kind, &f.PeriodLabel, &f.Status, &f.DocumentRef, &f.ContentHash, &f.FiledAt)
		return f, err
	})
	if err != nil {
		return models.TaxYearState{}, fmt.Errorf("failed to scan filings: %w", err)
	}

	return models.TaxYearState{Profile: profile, TaxYear: taxYear, Filings: filings}, nil
}
