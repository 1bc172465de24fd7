// Command taxctl runs the tax engine from the command line. Structured
// inputs are read from hjson or JSON files.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"cantax/pkg/core/config"
	"cantax/pkg/core/utils"

	"github.com/spf13/cobra"
)

const Version = "0.1.0"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app is shared by every subcommand; cfg is loaded before any RunE.
type app struct {
	configPath string
	asOf       string
	cfg        config.Config
}

func (a *app) now() (time.Time, error) {
	if a.asOf == "" {
		return time.Now(), nil
	}
	t, err := time.Parse(time.DateOnly, a.asOf)
	if err != nil {
		return time.Time{}, fmt.Errorf("--as-of must be YYYY-MM-DD: %w", err)
	}
	return t, nil
}

func rootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "taxctl",
		Short:         "Canadian tax and compliance-deadline engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}
	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "config/engine.yaml", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&a.asOf, "as-of", "", "Evaluate as of this date (YYYY-MM-DD), default today")

	cmd.AddCommand(
		corporateCmd(a),
		personalCmd(a),
		installmentsCmd(a),
		penaltyCmd(a),
		bnCmd(a),
		deadlinesCmd(a),
		closeGateCmd(a),
		evidenceCmd(a),
		manifestsCmd(a),
		reportCmd(a),
		ratesCmd(a),
		versionsCmd(a),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "taxctl version %s\n", Version)
			},
		},
	)
	return cmd
}

// commandContext is the command's context, or Background when run without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// readInput decodes an hjson or JSON file into v. "-" reads stdin.
func readInput(cmd *cobra.Command, path string, v any) error {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	if _, err := utils.DecodeLenient(data, v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
