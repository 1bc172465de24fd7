package report

import (
	"strings"
	"testing"
	"time"

	"cantax/pkg/core/tax"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInput(t *testing.T) YearEndInput {
	t.Helper()
	now := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	deadlines, err := tax.CalculateDeadlines(tax.DeadlineOptions{
		FiscalYearEnd: "12-31",
		TaxYear:       2024,
		Province:      tax.ON,
		IsCCPC:        true,
	})
	require.NoError(t, err)

	gate := tax.EvaluateTaxYearCloseGate(tax.CloseGateInput{Province: tax.ON, TaxYear: 2024})
	manifest, err := tax.BuildEvidenceManifest(tax.EvidenceInput{
		EntityID:    "ent-1",
		EntityName:  "Maple Widgets Inc.",
		Province:    tax.ON,
		TaxYear:     2024,
		GeneratedAt: now,
	})
	require.NoError(t, err)
	fresh := tax.CheckDataFreshness(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), 365)

	return YearEndInput{
		EntityName:  "Maple Widgets Inc.",
		Province:    tax.ON,
		TaxYear:     2024,
		Deadlines:   tax.EvaluateDeadlines(deadlines, nil, now),
		CloseGate:   gate,
		Manifest:    &manifest,
		Freshness:   &fresh,
		GeneratedAt: now,
	}
}

func TestBuildYearEndReport(t *testing.T) {
	in := sampleInput(t)
	out := BuildYearEndReport(in)

	assert.Contains(t, out, "**Status:** blocked")
	for _, b := range in.CloseGate.Blockers {
		assert.Contains(t, out, "- "+b)
	}
	assert.Contains(t, out, "| Deadline | Due | Days remaining | Urgency | Status |")
	assert.Contains(t, out, in.Manifest.ManifestHash)
	assert.Contains(t, out, "- Completeness: 0 of 5 (0%)")
	assert.Contains(t, out, "Stale beyond 365 days")
	assert.True(t, strings.HasSuffix(out, "\n"))

	assert.Equal(t, []string{
		"# Year-end compliance report: Maple Widgets Inc. (ON), tax year 2024",
		"## Tax-year close",
		"### Blockers",
		"### Warnings",
		"## Deadlines",
		"## Evidence pack",
		"### Missing artifacts",
		"## Reference data",
		"### Stale beyond 365 days",
	}, Outline(out))
}

func TestBuildYearEndReportOptionalSections(t *testing.T) {
	out := BuildYearEndReport(YearEndInput{
		EntityName: "Shell Co",
		Province:   tax.AB,
		TaxYear:    2024,
		CloseGate:  tax.CloseGateResult{CanClose: true},
	})
	assert.Contains(t, out, "**Status:** ready to close")
	assert.Contains(t, out, "No deadlines.")
	assert.NotContains(t, out, "Evidence pack")
	assert.NotContains(t, out, "Reference data")
	assert.NotContains(t, out, "Generated")
}

func TestDeadlineRowsAreSortedByUrgency(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	items := tax.EvaluateDeadlines([]tax.Deadline{
		{Label: "Later", DueDate: time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)},
		{Label: "Overdue", DueDate: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)},
	}, nil, now)
	out := BuildYearEndReport(YearEndInput{Deadlines: items})
	assert.Less(t, strings.Index(out, "| Overdue |"), strings.Index(out, "| Later |"))
}

func TestRenderHTML(t *testing.T) {
	page, err := RenderHTML("Report <2024>", BuildYearEndReport(sampleInput(t)))
	require.NoError(t, err)
	assert.Contains(t, page, "<title>Report &lt;2024&gt;</title>")
	assert.Contains(t, page, "<table>")
	assert.Contains(t, page, "<h2>Deadlines</h2>")
	assert.Contains(t, page, "<strong>Status:</strong>")
}

func TestCleanMarkdown(t *testing.T) {
	assert.Equal(t, "# Title", CleanMarkdown("```markdown\n# Title\n```"))
	assert.Equal(t, "# Title", CleanMarkdown("```\n# Title\n```"))
	assert.Equal(t, "plain", CleanMarkdown("  plain \n"))
}
