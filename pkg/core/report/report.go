// Package report turns engine results into a year-end compliance report.
package report

import (
	"fmt"
	"strings"
	"time"

	"cantax/pkg/core/tax"
)

// YearEndInput carries the already-computed results the report summarizes.
// Manifest and Freshness are optional sections.
type YearEndInput struct {
	EntityName  string               `json:"entity_name"`
	Province    tax.Province         `json:"province"`
	TaxYear     int                  `json:"tax_year"`
	Deadlines   []tax.DeadlineStatus `json:"deadlines"`
	CloseGate   tax.CloseGateResult  `json:"close_gate"`
	Manifest    *tax.YearEndManifest `json:"manifest,omitempty"`
	Freshness   *tax.FreshnessReport `json:"freshness,omitempty"`
	GeneratedAt time.Time            `json:"generated_at"`
}

// BuildYearEndReport renders the report as Markdown. Deadlines are listed
// most urgent first.
func BuildYearEndReport(in YearEndInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Year-end compliance report: %s (%s), tax year %d\n\n",
		cell(in.EntityName), in.Province, in.TaxYear)
	if !in.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "Generated %s\n\n", in.GeneratedAt.UTC().Format(time.DateOnly))
	}

	writeCloseGate(&b, in.CloseGate)
	writeDeadlines(&b, tax.SortDeadlines(in.Deadlines))
	if in.Manifest != nil {
		writeManifest(&b, *in.Manifest)
	}
	if in.Freshness != nil {
		writeFreshness(&b, *in.Freshness)
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeCloseGate(b *strings.Builder, g tax.CloseGateResult) {
	b.WriteString("## Tax-year close\n\n")
	if g.CanClose {
		b.WriteString("**Status:** ready to close\n\n")
	} else {
		b.WriteString("**Status:** blocked\n\n")
	}
	writeList(b, "Blockers", g.Blockers)
	writeList(b, "Warnings", g.Warnings)
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "### %s\n\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

func writeDeadlines(b *strings.Builder, items []tax.DeadlineStatus) {
	b.WriteString("## Deadlines\n\n")
	if len(items) == 0 {
		b.WriteString("No deadlines.\n\n")
		return
	}
	b.WriteString("| Deadline | Due | Days remaining | Urgency | Status |\n")
	b.WriteString("|---|---|---:|---|---|\n")
	for _, d := range items {
		status := d.Status
		if status == "" {
			status = "open"
		}
		fmt.Fprintf(b, "| %s | %s | %d | %s | %s |\n",
			cell(d.Label), d.DueDate.Format(time.DateOnly), d.DaysRemaining, d.Urgency, cell(status))
	}
	b.WriteString("\n")
}

func writeManifest(b *strings.Builder, m tax.YearEndManifest) {
	b.WriteString("## Evidence pack\n\n")
	fmt.Fprintf(b, "- Manifest: `%s`\n", m.ID)
	fmt.Fprintf(b, "- SHA-256: `%s`\n", m.ManifestHash)
	fmt.Fprintf(b, "- Completeness: %d of %d (%.0f%%)\n\n",
		m.Completeness.Present, m.Completeness.Required, m.Completeness.Score*100)
	writeList(b, "Missing artifacts", m.Completeness.Missing)
}

func writeFreshness(b *strings.Builder, f tax.FreshnessReport) {
	b.WriteString("## Reference data\n\n")
	if f.Fresh {
		fmt.Fprintf(b, "All rate tables verified within %d days.\n\n", f.MaxAgeDays)
		return
	}
	stale := make([]string, len(f.Stale))
	for i, s := range f.Stale {
		stale[i] = fmt.Sprintf("%s (last verified %s, %d days ago)", s.Module, s.LastVerified, s.AgeDays)
	}
	writeList(b, fmt.Sprintf("Stale beyond %d days", f.MaxAgeDays), stale)
}

// cell keeps free text from breaking table rows.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
