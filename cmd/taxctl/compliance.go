package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cantax/pkg/core/ingest"
	"cantax/pkg/core/report"
	"cantax/pkg/core/store"
	"cantax/pkg/core/tax"

	"github.com/spf13/cobra"
)

// deadlineFile is the input of the deadlines and report commands.
type deadlineFile struct {
	tax.DeadlineOptions
	Statuses map[string]string `json:"statuses,omitempty"`
}

func (a *app) evaluate(in deadlineFile) ([]tax.DeadlineStatus, error) {
	now, err := a.now()
	if err != nil {
		return nil, err
	}
	deadlines, err := tax.CalculateDeadlines(in.DeadlineOptions)
	if err != nil {
		return nil, err
	}
	return tax.SortDeadlines(tax.EvaluateDeadlines(deadlines, in.Statuses, now)), nil
}

func deadlinesCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "deadlines",
		Short: "List filing and payment deadlines, most urgent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var in deadlineFile
			if err := readInput(cmd, file, &in); err != nil {
				return err
			}
			out, err := a.evaluate(in)
			if err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Deadline options (hjson/JSON, - for stdin)")
	cmd.MarkFlagRequired("file")
	return cmd
}

func closeGateCmd(a *app) *cobra.Command {
	var (
		file   string
		entity string
		year   int
	)
	cmd := &cobra.Command{
		Use:   "close-gate",
		Short: "Check whether a tax year can be closed",
		Long:  "Reads the close-gate input from --file, or gathers it from the stored filings of --entity for --year.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var in tax.CloseGateInput
			if file != "" {
				if err := readInput(cmd, file, &in); err != nil {
					return err
				}
			} else {
				if year <= 0 {
					return fmt.Errorf("--year is required with --entity")
				}
				ctx := commandContext(cmd)
				repos, closeFn, err := store.Open(ctx, a.cfg.Storage)
				if err != nil {
					return err
				}
				defer closeFn()
				state, err := repos.Profiles.LoadTaxYearState(ctx, entity, year)
				if err != nil {
					return err
				}
				in = state.ToCloseGateInput()
			}
			res := tax.EvaluateTaxYearCloseGate(in)
			if err := printJSON(cmd, res); err != nil {
				return err
			}
			if !res.CanClose {
				return fmt.Errorf("tax year %d is blocked (%d blockers)", in.TaxYear, len(res.Blockers))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Close-gate input (hjson/JSON, - for stdin)")
	cmd.Flags().StringVar(&entity, "entity", "", "Entity ID whose stored filings are checked")
	cmd.Flags().IntVar(&year, "year", 0, "Tax year, with --entity")
	cmd.MarkFlagsOneRequired("file", "entity")
	cmd.MarkFlagsMutuallyExclusive("file", "entity")
	return cmd
}

func manifestsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "manifests <entity>",
		Short: "List the stored evidence manifests of an entity, newest year first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			repo, closeFn, err := store.OpenManifestStore(ctx, a.cfg.Storage)
			if err != nil {
				return err
			}
			defer closeFn()
			list, err := repo.ListManifests(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, list)
		},
	}
}

func evidenceCmd(a *app) *cobra.Command {
	var (
		file string
		save bool
	)
	cmd := &cobra.Command{
		Use:   "evidence",
		Short: "Build (and optionally store) the year-end evidence manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			var in tax.EvidenceInput
			if err := readInput(cmd, file, &in); err != nil {
				return err
			}
			if in.GeneratedAt.IsZero() {
				now, err := a.now()
				if err != nil {
					return err
				}
				in.GeneratedAt = now
			}
			m, err := tax.BuildEvidenceManifest(in)
			if err != nil {
				return err
			}
			if save {
				ctx := commandContext(cmd)
				repo, closeFn, err := store.OpenManifestStore(ctx, a.cfg.Storage)
				if err != nil {
					return err
				}
				defer closeFn()
				if err := repo.SaveManifest(ctx, m); err != nil {
					return err
				}
				slog.Info("manifest saved", "entity", m.EntityID, "tax_year", m.TaxYear, "id", m.ID)
			}
			return printJSON(cmd, m)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Evidence input (hjson/JSON, - for stdin)")
	cmd.Flags().BoolVar(&save, "save", false, "Store the manifest in the configured backend")
	cmd.MarkFlagRequired("file")
	return cmd
}

// reportFile is the input of the report command.
type reportFile struct {
	EntityName string             `json:"entity_name"`
	Deadlines  deadlineFile       `json:"deadlines"`
	CloseGate  tax.CloseGateInput `json:"close_gate"`
	Evidence   *tax.EvidenceInput `json:"evidence,omitempty"`
}

func reportCmd(a *app) *cobra.Command {
	var (
		file string
		out  string
		html bool
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write the year-end compliance report (Markdown or HTML)",
		RunE: func(cmd *cobra.Command, args []string) error {
			var in reportFile
			if err := readInput(cmd, file, &in); err != nil {
				return err
			}
			now, err := a.now()
			if err != nil {
				return err
			}
			deadlines, err := a.evaluate(in.Deadlines)
			if err != nil {
				return err
			}
			fresh := tax.CheckDataFreshness(now, a.cfg.Engine.DataMaxAgeDays)
			rin := report.YearEndInput{
				EntityName:  in.EntityName,
				Province:    in.Deadlines.Province,
				TaxYear:     in.Deadlines.TaxYear,
				Deadlines:   deadlines,
				CloseGate:   tax.EvaluateTaxYearCloseGate(in.CloseGate),
				Freshness:   &fresh,
				GeneratedAt: now,
			}
			if in.Evidence != nil {
				if in.Evidence.GeneratedAt.IsZero() {
					in.Evidence.GeneratedAt = now
				}
				m, err := tax.BuildEvidenceManifest(*in.Evidence)
				if err != nil {
					return err
				}
				rin.Manifest = &m
			}

			doc := report.BuildYearEndReport(rin)
			if html {
				title := fmt.Sprintf("%s %d year-end report", in.EntityName, in.Deadlines.TaxYear)
				if doc, err = report.RenderHTML(title, doc); err != nil {
					return err
				}
			}
			if out == "" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), doc)
				return err
			}
			return os.WriteFile(out, []byte(doc), 0o644)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Report input (hjson/JSON, - for stdin)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	cmd.Flags().BoolVar(&html, "html", false, "Render HTML instead of Markdown")
	cmd.MarkFlagRequired("file")
	return cmd
}

func ratesCmd(a *app) *cobra.Command {
	rates := &cobra.Command{
		Use:   "rates",
		Short: "Prescribed interest rate tools",
	}

	var (
		url  string
		file string
	)
	imp := &cobra.Command{
		Use:   "import",
		Short: "Parse a CRA prescribed-rate page into a quarterly schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				s   *ingest.PrescribedRateSchedule
				err error
			)
			switch {
			case url != "":
				ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
				defer cancel()
				s, err = ingest.NewRateFetcher().FetchPrescribedRates(ctx, url)
			case file != "":
				s, err = ingest.LoadPrescribedRates(file)
			default:
				return fmt.Errorf("one of --url or --file is required")
			}
			if err != nil {
				return err
			}
			return printJSON(cmd, s)
		},
	}
	imp.Flags().StringVar(&url, "url", "", "Page to download")
	imp.Flags().StringVar(&file, "file", "", "Saved HTML page")
	imp.MarkFlagsMutuallyExclusive("url", "file")

	rates.AddCommand(imp)
	return rates
}

func versionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "versions",
		Short: "Show rate-table versions and freshness",
		RunE: func(cmd *cobra.Command, args []string) error {
			now, err := a.now()
			if err != nil {
				return err
			}
			return printJSON(cmd, struct {
				Versions  []tax.DataVersion   `json:"versions"`
				Freshness tax.FreshnessReport `json:"freshness"`
			}{tax.DataVersions(), tax.CheckDataFreshness(now, a.cfg.Engine.DataMaxAgeDays)})
		},
	}
}
