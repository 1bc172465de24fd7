package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cantax/pkg/core/config"
	"cantax/pkg/core/tax"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ManifestRepository = (*SQLiteManifestRepo)(nil)
var _ ManifestRepository = (*PGManifestRepo)(nil)
var _ ProfileRepository = (*SQLiteProfileRepo)(nil)
var _ ProfileRepository = (*ProfileRepo)(nil)

func testManifest(t *testing.T, year int, tbHash string) tax.YearEndManifest {
	t.Helper()
	m, err := tax.BuildEvidenceManifest(tax.EvidenceInput{
		EntityID:   "ent-1",
		EntityName: "Maple Widgets Inc.",
		Province:   tax.ON,
		TaxYear:    year,
		Financial: tax.FinancialArtifacts{
			TrialBalance: &tax.ArtifactRef{Name: "tb", DocumentRef: "doc-tb", ContentHash: tbHash},
		},
		GeneratedAt: time.Date(year+1, 3, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return m
}

func TestSQLiteManifestRoundTrip(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()
	repo := NewSQLiteManifestRepo(db)
	ctx := context.Background()

	m := testManifest(t, 2024, "aaa")
	require.NoError(t, repo.SaveManifest(ctx, m))

	got, err := repo.LoadManifest(ctx, "ent-1", 2024)
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)
	assert.Equal(t, m.ManifestHash, got.ManifestHash)
	assert.True(t, got.GeneratedAt.Equal(m.GeneratedAt))

	// Saving again for the same year replaces the row.
	m2 := testManifest(t, 2024, "bbb")
	require.NoError(t, repo.SaveManifest(ctx, m2))
	got, err = repo.LoadManifest(ctx, "ent-1", 2024)
	require.NoError(t, err)
	assert.Equal(t, m2.ManifestHash, got.ManifestHash)
	assert.NotEqual(t, m.ManifestHash, got.ManifestHash)

	require.NoError(t, repo.SaveManifest(ctx, testManifest(t, 2023, "ccc")))
	list, err := repo.ListManifests(ctx, "ent-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 2024, list[0].TaxYear)
	assert.Equal(t, 2023, list[1].TaxYear)
}

func TestSQLiteManifestNotFound(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()

	_, err = NewSQLiteManifestRepo(db).LoadManifest(context.Background(), "nobody", 2024)
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := NewSQLiteManifestRepo(db).ListManifests(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSQLiteManifestRejectsTamperedRow(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()
	repo := NewSQLiteManifestRepo(db)
	ctx := context.Background()

	m := testManifest(t, 2024, "aaa")
	m.EntityName = "Someone Else Ltd."
	require.NoError(t, repo.SaveManifest(ctx, m))

	_, err = repo.LoadManifest(ctx, "ent-1", 2024)
	assert.ErrorContains(t, err, "does not match")
}

func TestRepositoriesWithoutPool(t *testing.T) {
	ctx := context.Background()
	_, err := (&PGManifestRepo{}).LoadManifest(ctx, "ent-1", 2024)
	assert.Error(t, err)
	_, err = (&ProfileRepo{}).LoadProfile(ctx, "ent-1")
	assert.Error(t, err)
}

func TestOpenManifestStoreSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cantax.db")
	repo, closeFn, err := OpenManifestStore(context.Background(), config.StorageConfig{
		Type:       config.StorageSQLite,
		SQLitePath: path,
	})
	require.NoError(t, err)
	defer closeFn()

	require.NoError(t, repo.SaveManifest(context.Background(), testManifest(t, 2024, "aaa")))
	_, err = os.Stat(path)
	assert.NoError(t, err)

	_, _, err = OpenManifestStore(context.Background(), config.StorageConfig{Type: "mongo"})
	assert.ErrorContains(t, err, "unknown storage type")
}
