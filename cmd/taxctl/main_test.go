package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"cantax/pkg/core/config"
	"cantax/pkg/core/store"
	"cantax/pkg/core/tax"
	"cantax/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATABASE_TYPE", "")
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.yaml")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCorporateCommand(t *testing.T) {
	out, err := run(t, "corporate", "-p", "ON", "--income", "200000")
	require.NoError(t, err)
	var est tax.CorporateTaxEstimate
	require.NoError(t, json.Unmarshal([]byte(out), &est))
	assert.InDelta(t, 24_400, est.TotalTax, 0.01)

	_, err = run(t, "corporate", "-p", "Ontario", "--income", "1")
	assert.ErrorIs(t, err, tax.ErrUnknownProvince)
}

func TestBNCommand(t *testing.T) {
	out, err := run(t, "bn", "123 456 782")
	require.NoError(t, err)
	var res tax.ValidationResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Valid)
	assert.Equal(t, "123456782", res.Normalized)

	out, err = run(t, "bn", "123456782", "123456789")
	require.NoError(t, err)
	var bulk tax.BulkValidationResult
	require.NoError(t, json.Unmarshal([]byte(out), &bulk))
	assert.Equal(t, 1, bulk.Stats.Valid)
	assert.Equal(t, 1, bulk.Stats.Invalid)
}

func TestDeadlinesCommandReadsHjson(t *testing.T) {
	path := writeFile(t, "entity.hjson", `{
  # calendar-year Ontario CCPC
  fiscal_year_end: "12-31"
  tax_year: 2024
  province: ON
  is_ccpc: true
}`)
	out, err := run(t, "--as-of", "2025-01-15", "deadlines", "-f", path)
	require.NoError(t, err)
	var items []tax.DeadlineStatus
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.NotEmpty(t, items)
	assert.Contains(t, out, "T2 corporate income tax return")
}

func TestCloseGateCommandFailsWhenBlocked(t *testing.T) {
	path := writeFile(t, "gate.json", `{"province": "QC", "tax_year": 2024, "indirect_periods": []}`)
	out, err := run(t, "close-gate", "-f", path)
	assert.ErrorContains(t, err, "blocked (2 blockers)")
	assert.Contains(t, out, `"can_close": false`)
}

func TestReportCommandHTML(t *testing.T) {
	in := writeFile(t, "report.json", `{
		"entity_name": "Maple Widgets Inc.",
		"deadlines": {"fiscal_year_end": "12-31", "tax_year": 2024, "province": "ON", "is_ccpc": true},
		"close_gate": {"province": "ON", "tax_year": 2024, "indirect_periods": []}
	}`)
	outPath := filepath.Join(t.TempDir(), "report.html")
	_, err := run(t, "--as-of", "2025-03-15", "report", "-f", in, "--html", "-o", outPath)
	require.NoError(t, err)

	page, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(page), "<h2>Tax-year close</h2>")
	assert.Contains(t, string(page), "<table>")
}

func TestPenaltyCommand(t *testing.T) {
	out, err := run(t, "penalty", "info", "--slips", "10", "--days-late", "5")
	require.NoError(t, err)
	var res tax.PenaltyResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 1_250.0, res.Penalty)

	_, err = run(t, "penalty", "payroll")
	assert.Error(t, err)
}

func TestVersionsCommand(t *testing.T) {
	out, err := run(t, "--as-of", "2025-02-01", "versions")
	require.NoError(t, err)
	assert.Contains(t, out, `"module": "corporate_rates"`)
}

func TestStoredCloseGateAndManifests(t *testing.T) {
	t.Setenv("DATABASE_TYPE", "")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "cantax.db"))
	ctx := context.Background()

	cfg, err := config.Load("")
	require.NoError(t, err)
	repos, closeFn, err := store.Open(ctx, cfg.Storage)
	require.NoError(t, err)
	require.NoError(t, repos.Profiles.SaveProfile(ctx, models.EntityProfile{ID: "ent-1", LegalName: "Maple", Province: "ON", FiscalYearEnd: "12-31"}))
	require.NoError(t, repos.Profiles.SaveFiling(ctx, models.FilingRecord{
		EntityID: "ent-1", TaxYear: 2024, Kind: models.FilingT2, Status: "filed", DocumentRef: "vault/t2", ContentHash: "abc",
	}))
	closeFn()

	out, err := run(t, "close-gate", "--entity", "ent-1", "--year", "2024")
	require.NoError(t, err)
	assert.Contains(t, out, `"can_close": true`)

	_, err = run(t, "close-gate", "--entity", "ent-1", "--year", "2023")
	assert.ErrorContains(t, err, "blocked (1 blockers)")

	_, err = run(t, "close-gate", "--entity", "ent-1")
	assert.ErrorContains(t, err, "--year")

	evidence := writeFile(t, "evidence.json", `{"entity_id": "ent-1", "province": "ON", "tax_year": 2024}`)
	_, err = run(t, "--as-of", "2025-03-15", "evidence", "-f", evidence, "--save")
	require.NoError(t, err)

	out, err = run(t, "manifests", "ent-1")
	require.NoError(t, err)
	var list []store.ManifestSummary
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 1)
	assert.Equal(t, 2024, list[0].TaxYear)
}
