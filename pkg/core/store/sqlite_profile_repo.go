package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cantax/pkg/models"
)

// SQLiteProfileRepo is the single-file counterpart of ProfileRepo. Times are
// stored as RFC3339 text.
type SQLiteProfileRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteProfileRepo(db *sql.DB) *SQLiteProfileRepo {
	return &SQLiteProfileRepo{db: db, now: time.Now}
}

func (r *SQLiteProfileRepo) SaveProfile(ctx context.Context, p models.EntityProfile) error {
	query := `
		INSERT INTO tax_profiles (id, legal_name, province, business_number, fiscal_year_end, is_ccpc, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id)
		DO UPDATE SET
			legal_name = excluded.legal_name,
			province = excluded.province,
			business_number = excluded.business_number,
			fiscal_year_end = excluded.fiscal_year_end,
			is_ccpc = excluded.is_ccpc,
			updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.LegalName, p.Province, p.BusinessNumber, p.FiscalYearEnd, p.IsCCPC,
		r.now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

func (r *SQLiteProfileRepo) LoadProfile(ctx context.Context, id string) (models.EntityProfile, error) {
	query := `
		SELECT id, legal_name, province, business_number, fiscal_year_end, is_ccpc, updated_at
		FROM tax_profiles WHERE id = ?
	`
	var p models.EntityProfile
	var updated string
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.LegalName, &p.Province, &p.BusinessNumber, &p.FiscalYearEnd, &p.IsCCPC, &updated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.EntityProfile{}, fmt.Errorf("profile %s: %w", id, ErrNotFound)
		}
		return models.EntityProfile{}, fmt.Errorf("failed to load profile: %w", err)
	}
	if p.UpdatedAt, err = time.Parse(time.RFC3339, updated); err != nil {
		return models.EntityProfile{}, fmt.Errorf("bad updated_at %q: %w", updated, err)
	}
	return p, nil
}

func (r *SQLiteProfileRepo) SaveFiling(ctx context.Context, f models.FilingRecord) error {
	query := `
		INSERT INTO tax_filings (entity_id, tax_year, kind, period_label, status, document_ref, content_hash, filed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (entity_id, tax_year, kind, period_label)
		DO UPDATE SET
			status = excluded.status,
			document_ref = excluded.document_ref,
			content_hash = excluded.content_hash,
			filed_at = excluded.filed_at
	`
	var filed sql.NullString
	if f.FiledAt != nil {
		filed = sql.NullString{String: f.FiledAt.UTC().Format(time.RFC3339), Valid: true}
	}
	_, err := r.db.ExecContext(ctx, query,
		f.EntityID, f.TaxYear, f.Kind, f.PeriodLabel, f.Status, f.DocumentRef, f.ContentHash, filed,
	)
	if err != nil {
		return fmt.Errorf("failed to save filing: %w", err)
	}
	return nil
}

func (r *SQLiteProfileRepo) LoadTaxYearState(ctx context.Context, entityID string, taxYear int) (models.TaxYearState, error) {
	profile, err := r.LoadProfile(ctx, entityID)
	if err != nil {
		return models.TaxYearState{}, err
	}

	query := `
		SELECT entity_id, tax_year, kind, period_label, status, document_ref, content_hash, filed_at
		FROM tax_filings
		WHERE entity_id = ? AND tax_year = ?
		ORDER BY kind, period_label
	`
	rows, err := r.db.QueryContext(ctx, query, entityID, taxYear)
	if err != nil {
		return models.TaxYearState{}, fmt.Errorf("failed to load filings: %w", err)
	}
	defer rows.Close()

	filings := []models.FilingRecord{}
	for rows.Next() {
		var f models.FilingRecord
		var filed sql.NullString
		if err := rows.Scan(&f.EntityID, &f.TaxYear, &f.Kind, &f.PeriodLabel, &f.Status, &f.DocumentRef, &f.ContentHash, &filed); err != nil {
			return models.TaxYearState{}, fmt.Errorf("failed to scan filing: %w", err)
		}
		if filed.Valid {
			t, err := time.Parse(time.RFC3339, filed.String)
			if err != nil {
				return models.TaxYearState{}, fmt.Errorf("bad filed_at %q: %w", filed.String, err)
			}
			f.FiledAt = &t
		}
		filings = append(filings, f)
	}
	if err := rows.Err(); err != nil {
		return models.TaxYearState{}, err
	}

	return models.TaxYearState{Profile: profile, TaxYear: taxYear, Filings: filings}, nil
}
