package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

var (
	pool *pgxpool.Pool
	once sync.Once
)

// InitDB initializes the shared postgres pool. An empty dbURL falls back to
// the DATABASE_URL environment variable. Only the first call has an effect.
func InitDB(ctx context.Context, dbURL string) error {
	var err error
	once.Do(func() {
		if dbURL == "" {
			dbURL = os.Getenv("DATABASE_URL")
		}
		if dbURL == "" {
			err = fmt.Errorf("DATABASE_URL environment variable not set")
			return
		}

		config, parseErr := pgxpool.ParseConfig(dbURL)
		if parseErr != nil {
			err = fmt.Errorf("failed to parse database config: %w", parseErr)
			return
		}

		pool, err = pgxpool.NewWithConfig(ctx, config)
		if err != nil {
			err = fmt.Errorf("failed to create pool: %w", err)
			return
		}
		if pingErr := pool.Ping(ctx); pingErr != nil {
			err = fmt.Errorf("failed to reach database: %w", pingErr)
		}
	})
	return err
}

// GetPool returns the database connection pool
func GetPool() *pgxpool.Pool {
	return pool
}

// Close closes the database connection pool
func Close() {
	if pool != nil {
		pool.Close()
	}
}

// PostgresSchema creates the tables used by ProfileRepo and PGManifestRepo.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS tax_profiles (
    id TEXT PRIMARY KEY,
    legal_name TEXT NOT NULL,
    province TEXT NOT NULL,
    business_number TEXT,
    fiscal_year_end TEXT NOT NULL,
    is_ccpc BOOLEAN,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS tax_filings (
    entity_id TEXT NOT NULL REFERENCES tax_profiles(id) ON DELETE CASCADE,
    tax_year INTEGER NOT NULL,
    kind TEXT NOT NULL,
    period_label TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    document_ref TEXT NOT NULL DEFAULT '',
    content_hash TEXT NOT NULL DEFAULT '',
    filed_at TIMESTAMPTZ,
    PRIMARY KEY (entity_id, tax_year, kind, period_label)
);

CREATE TABLE IF NOT EXISTS year_end_manifests (
    entity_id TEXT NOT NULL,
    tax_year INTEGER NOT NULL,
    manifest_id TEXT NOT NULL,
    manifest_hash TEXT NOT NULL,
    manifest_json JSONB NOT NULL,
    generated_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (entity_id, tax_year)
);
`

// CreatePostgresSchema applies PostgresSchema. Safe to call repeatedly.
func CreatePostgresSchema(ctx context.Context, p *pgxpool.Pool) error {
	if _, err := p.Exec(ctx, PostgresSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
