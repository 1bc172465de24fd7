package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cantax/pkg/core/tax"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS tax_profiles (
    id TEXT PRIMARY KEY,
    legal_name TEXT NOT NULL,
    province TEXT NOT NULL,
    business_number TEXT,
    fiscal_year_end TEXT NOT NULL,
    is_ccpc INTEGER,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tax_filings (
    entity_id TEXT NOT NULL,
    tax_year INTEGER NOT NULL,
    kind TEXT NOT NULL,
    period_label TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    document_ref TEXT NOT NULL DEFAULT '',
    content_hash TEXT NOT NULL DEFAULT '',
    filed_at TEXT,
    PRIMARY KEY (entity_id, tax_year, kind, period_label)
);

CREATE TABLE IF NOT EXISTS year_end_manifests (
    entity_id TEXT NOT NULL,
    tax_year INTEGER NOT NULL,
    manifest_id TEXT NOT NULL,
    manifest_hash TEXT NOT NULL,
    manifest_json TEXT NOT NULL,
    generated_at TEXT NOT NULL,
    PRIMARY KEY (entity_id, tax_year)
);
`

// OpenSQLite opens (creating if needed) a SQLite database and applies the
// schema. Use ":memory:" for a throwaway database.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// Every pooled connection to ":memory:" would see its own database.
	db.SetMaxOpenConns(1)
	if err := CreateSQLiteSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// CreateSQLiteSchema creates the profile, filing and manifest tables if missing.
func CreateSQLiteSchema(db *sql.DB) error {
	if _, err := db.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SQLiteManifestRepo is the single-file manifest store used when no
// postgres database is configured.
type SQLiteManifestRepo struct {
	db *sql.DB
}

func NewSQLiteManifestRepo(db *sql.DB) *SQLiteManifestRepo {
	return &SQLiteManifestRepo{db: db}
}

func (r *SQLiteManifestRepo) SaveManifest(ctx context.Context, m tax.YearEndManifest) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	query := `
		INSERT INTO year_end_manifests (entity_id, tax_year, manifest_id, manifest_hash, manifest_json, generated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (entity_id, tax_year)
		DO UPDATE SET
			manifest_id = excluded.manifest_id,
			manifest_hash = excluded.manifest_hash,
			manifest_json = excluded.manifest_json,
			generated_at = excluded.generated_at
	`
	_, err = r.db.ExecContext(ctx, query,
		m.EntityID, m.TaxYear, m.ID, m.ManifestHash, string(raw), m.GeneratedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save manifest: %w", err)
	}
	return nil
}

func (r *SQLiteManifestRepo) LoadManifest(ctx context.Context, entityID string, taxYear int) (tax.YearEndManifest, error) {
	var raw string
	query := `SELECT manifest_json FROM year_end_manifests WHERE entity_id = ? AND tax_year = ?`
	err := r.db.QueryRowContext(ctx, query, entityID, taxYear).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return tax.YearEndManifest{}, fmt.Errorf("manifest %s/%d: %w", entityID, taxYear, ErrNotFound)
		}
		return tax.YearEndManifest{}, fmt.Errorf("failed to load manifest: %w", err)
	}
	return decodeManifest([]byte(raw))
}

func (r *SQLiteManifestRepo) ListManifests(ctx context.Context, entityID string) ([]ManifestSummary, error) {
	query := `
		SELECT entity_id, tax_year, manifest_id, manifest_hash, generated_at
		FROM year_end_manifests
		WHERE entity_id = ?
		ORDER BY tax_year DESC
	`
	rows, err := r.db.QueryContext(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list manifests: %w", err)
	}
	defer rows.Close()

	out := []ManifestSummary{}
	for rows.Next() {
		var s ManifestSummary
		var generated string
		if err := rows.Scan(&s.EntityID, &s.TaxYear, &s.ManifestID, &s.ManifestHash, &generated); err != nil {
			return nil, fmt.Errorf("failed to scan manifest: %w", err)
		}
		if s.GeneratedAt, err = time.Parse(time.RFC3339, generated); err != nil {
			return nil, fmt.Errorf("bad generated_at %q: %w", generated, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
