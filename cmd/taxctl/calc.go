package main

import (
	"fmt"

	"cantax/pkg/core/tax"

	"github.com/spf13/cobra"
)

func corporateCmd(a *app) *cobra.Command {
	var (
		province string
		income   float64
		capital  float64
		aaii     float64
		nonCCPC  bool
	)
	cmd := &cobra.Command{
		Use:   "corporate",
		Short: "Estimate corporate income tax",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := tax.ParseProvince(province)
			if err != nil {
				return err
			}
			var opts tax.CorporateTaxOptions
			if cmd.Flags().Changed("taxable-capital") {
				opts.TaxableCapital = &capital
			}
			if cmd.Flags().Changed("aaii") {
				opts.AAII = &aaii
			}
			if nonCCPC {
				ccpc := false
				opts.IsCCPC = &ccpc
			}
			est, err := tax.EstimateCorporateTax(p, income, opts)
			if err != nil {
				return err
			}
			return printJSON(cmd, est)
		},
	}
	cmd.Flags().StringVarP(&province, "province", "p", "", "Province code (ON, QC, ...)")
	cmd.Flags().Float64Var(&income, "income", 0, "Taxable income")
	cmd.Flags().Float64Var(&capital, "taxable-capital", 0, "Associated-group taxable capital")
	cmd.Flags().Float64Var(&aaii, "aaii", 0, "Adjusted aggregate investment income")
	cmd.Flags().BoolVar(&nonCCPC, "non-ccpc", false, "Entity is not a CCPC")
	cmd.MarkFlagRequired("province")
	return cmd
}

func personalCmd(a *app) *cobra.Command {
	var (
		province string
		income   float64
	)
	cmd := &cobra.Command{
		Use:   "personal",
		Short: "Estimate personal income tax",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := tax.ParseProvince(province)
			if err != nil {
				return err
			}
			est, err := tax.EstimatePersonalTax(p, income)
			if err != nil {
				return err
			}
			return printJSON(cmd, est)
		},
	}
	cmd.Flags().StringVarP(&province, "province", "p", "", "Province code (ON, QC, ...)")
	cmd.Flags().Float64Var(&income, "income", 0, "Taxable income")
	cmd.MarkFlagRequired("province")
	return cmd
}

func installmentsCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "installments",
		Short: "Plan corporate tax installments",
		RunE: func(cmd *cobra.Command, args []string) error {
			var in tax.InstallmentInput
			if err := readInput(cmd, file, &in); err != nil {
				return err
			}
			res, err := tax.PlanInstallments(in)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Installment input (hjson/JSON, - for stdin)")
	cmd.MarkFlagRequired("file")
	return cmd
}

func penaltyCmd(a *app) *cobra.Command {
	var (
		owing      float64
		monthsLate int
		repeat     bool
		slips      int
		daysLate   int
	)
	cmd := &cobra.Command{
		Use:       "penalty {t2|gst|info}",
		Short:     "Compute a late-filing penalty",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"t2", "gst", "info"},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "t2":
				return printJSON(cmd, tax.CalculateT2LateFilingPenalty(owing, monthsLate, repeat))
			case "gst":
				return printJSON(cmd, tax.CalculateGSTLateFilingPenalty(owing, monthsLate, repeat))
			case "info":
				return printJSON(cmd, tax.CalculateInformationReturnPenalty(slips, daysLate))
			}
			return fmt.Errorf("unknown penalty %q (want t2, gst or info)", args[0])
		},
	}
	cmd.Flags().Float64Var(&owing, "tax-owing", 0, "Unpaid tax at the filing deadline")
	cmd.Flags().IntVar(&monthsLate, "months-late", 0, "Complete months late")
	cmd.Flags().BoolVar(&repeat, "repeat", false, "Repeat-offender rules apply")
	cmd.Flags().IntVar(&slips, "slips", 0, "Number of slips (info)")
	cmd.Flags().IntVar(&daysLate, "days-late", 0, "Days late (info)")
	return cmd
}

func bnCmd(a *app) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "bn VALUE...",
		Short: "Validate business numbers, program accounts or NEQs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				switch kind {
				case "bn":
					return printJSON(cmd, tax.ValidateBNBatch(args))
				case "program":
					return printJSON(cmd, tax.ValidateProgramAccountBatch(args))
				}
				return fmt.Errorf("bulk validation supports --kind bn or program")
			}
			switch kind {
			case "bn":
				return printJSON(cmd, tax.ValidateBN(args[0]))
			case "program":
				return printJSON(cmd, tax.ValidateProgramAccount(args[0]))
			case "neq":
				return printJSON(cmd, tax.ValidateNEQ(args[0]))
			}
			return fmt.Errorf("unknown --kind %q (want bn, program or neq)", kind)
		},
	}
	cmd.Flags().StringVarP(&kind, "kind", "k", "bn", "Identifier kind: bn, program or neq")
	return cmd
}
