package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"cantax/pkg/core/config"
)

// Repositories are the stores of one configured backend.
type Repositories struct {
	Manifests ManifestRepository
	Profiles  ProfileRepository
}

// Open connects the configured backend, applies its schema and returns the
// repositories with a function that releases them.
func Open(ctx context.Context, cfg config.StorageConfig) (Repositories, func(), error) {
	switch cfg.Type {
	case config.StoragePostgres:
		if err := InitDB(ctx, cfg.DatabaseURL); err != nil {
			return Repositories{}, nil, err
		}
		if err := CreatePostgresSchema(ctx, GetPool()); err != nil {
			Close()
			return Repositories{}, nil, err
		}
		slog.Info("postgres schema ready")
		return Repositories{
			Manifests: NewPGManifestRepo(nil),
			Profiles:  NewProfileRepo(nil),
		}, Close, nil

	case config.StorageSQLite:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return Repositories{}, nil, fmt.Errorf("failed to create %s: %w", dir, err)
			}
		}
		db, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return Repositories{}, nil, err
		}
		slog.Info("sqlite schema ready", "path", cfg.SQLitePath)
		return Repositories{
			Manifests: NewSQLiteManifestRepo(db),
			Profiles:  NewSQLiteProfileRepo(db),
		}, func() { db.Close() }, nil
	}
	return Repositories{}, nil, fmt.Errorf("unknown storage type %q", cfg.Type)
}

// OpenManifestStore is Open for callers that only need manifests.
func OpenManifestStore(ctx context.Context, cfg config.StorageConfig) (ManifestRepository, func(), error) {
	repos, closeFn, err := Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return repos.Manifests, closeFn, nil
}
