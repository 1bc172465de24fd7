package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"cantax/pkg/core/config"
	"cantax/pkg/core/tax"
	"cantax/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteProfiles(t *testing.T) *SQLiteProfileRepo {
	t.Helper()
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := NewSQLiteProfileRepo(db)
	repo.now = func() time.Time { return time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC) }
	return repo
}

func TestSQLiteProfileRoundTrip(t *testing.T) {
	repo := newSQLiteProfiles(t)
	ctx := context.Background()

	bn := "123456782"
	ccpc := false
	p := models.EntityProfile{ID: "ent-1", LegalName: "Érable Inc.", Province: "QC", FiscalYearEnd: "12-31", BusinessNumber: &bn, IsCCPC: &ccpc}
	require.NoError(t, repo.SaveProfile(ctx, p))

	got, err := repo.LoadProfile(ctx, "ent-1")
	require.NoError(t, err)
	assert.Equal(t, "Érable Inc.", got.LegalName)
	require.NotNil(t, got.BusinessNumber)
	assert.Equal(t, bn, *got.BusinessNumber)
	require.NotNil(t, got.IsCCPC)
	assert.False(t, *got.IsCCPC)
	assert.Equal(t, 2025, got.UpdatedAt.Year())

	// Optional columns come back nil when not set.
	require.NoError(t, repo.SaveProfile(ctx, models.EntityProfile{ID: "ent-2", LegalName: "Maple", Province: "ON", FiscalYearEnd: "06-30"}))
	got, err = repo.LoadProfile(ctx, "ent-2")
	require.NoError(t, err)
	assert.Nil(t, got.BusinessNumber)
	assert.Nil(t, got.IsCCPC)

	_, err = repo.LoadProfile(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteTaxYearState(t *testing.T) {
	repo := newSQLiteProfiles(t)
	ctx := context.Background()
	require.NoError(t, repo.SaveProfile(ctx, models.EntityProfile{ID: "ent-1", LegalName: "Érable Inc.", Province: "QC", FiscalYearEnd: "12-31"}))

	filed := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rows := []models.FilingRecord{
		{EntityID: "ent-1", TaxYear: 2024, Kind: models.FilingT2, Status: "filed", DocumentRef: "vault/t2", ContentHash: "abc", FiledAt: &filed},
		{EntityID: "ent-1", TaxYear: 2024, Kind: models.FilingQST, PeriodLabel: "2024-Q4", Status: "draft"},
		{EntityID: "ent-1", TaxYear: 2023, Kind: models.FilingCO17, Status: "filed", DocumentRef: "vault/co17-2023", ContentHash: "old"},
	}
	for _, f := range rows {
		require.NoError(t, repo.SaveFiling(ctx, f))
	}
	// Upsert on the same key replaces the status.
	rows[1].Status = "filed"
	require.NoError(t, repo.SaveFiling(ctx, rows[1]))

	state, err := repo.LoadTaxYearState(ctx, "ent-1", 2024)
	require.NoError(t, err)
	require.Len(t, state.Filings, 2, "other years are excluded")
	assert.Equal(t, models.FilingQST, state.Filings[0].Kind)
	assert.Equal(t, "filed", state.Filings[0].Status)
	assert.Nil(t, state.Filings[0].FiledAt)
	require.NotNil(t, state.Filings[1].FiledAt)
	assert.True(t, state.Filings[1].FiledAt.Equal(filed))

	res := tax.EvaluateTaxYearCloseGate(state.ToCloseGateInput())
	assert.False(t, res.CanClose)
	assert.Len(t, res.Blockers, 1, "only the CO-17 is missing")

	_, err = repo.LoadTaxYearState(ctx, "nobody", 2024)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpenSQLiteRepositories(t *testing.T) {
	repos, closeFn, err := Open(context.Background(), config.StorageConfig{
		Type:       config.StorageSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "cantax.db"),
	})
	require.NoError(t, err)
	defer closeFn()

	require.NotNil(t, repos.Manifests)
	require.NotNil(t, repos.Profiles)
	require.NoError(t, repos.Profiles.SaveProfile(context.Background(), models.EntityProfile{ID: "ent-1", LegalName: "Maple", Province: "ON", FiscalYearEnd: "12-31"}))
	_, err = repos.Profiles.LoadProfile(context.Background(), "ent-1")
	assert.NoError(t, err)
}
