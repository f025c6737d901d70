package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/loanbot/internal/cli"
	"github.com/Veraticus/loanbot/internal/eligibility"
	"github.com/Veraticus/loanbot/internal/model"
)

func evaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate eligibility from known figures",
		Long: `Run the eligibility rules directly without a conversation.

Omitted values are treated as missing, which produces an insufficient data
decision listing what is still needed.`,
		Example: `  loanbot evaluate --income 85000 --debt 12000 --loan 500000 \
    --employment full_time --credit good`,
		RunE: runEvaluate,
	}

	cmd.Flags().Float64("income", 0, "Gross monthly income")
	cmd.Flags().Float64("debt", 0, "Total monthly debt payments")
	cmd.Flags().Float64("loan", 0, "Requested loan amount")
	cmd.Flags().String("employment", "", "Employment status (full_time, part_time, self_employed, unemployed, retired, student)")
	cmd.Flags().String("credit", "", "Credit score range (excellent, good, fair, poor, very_poor)")
	cmd.Flags().Bool("json", false, "Print the decision as JSON")

	return cmd
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	cfg, err := currentConfig()
	if err != nil {
		return err
	}

	rec, err := recordFromFlags(cmd)
	if err != nil {
		return err
	}

	decision := eligibility.NewEngine(cfg.Policy).Evaluate(rec)

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(decision)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderDecision(decision))
	return err
}

// recordFromFlags builds a record from the flags that were actually set.
func recordFromFlags(cmd *cobra.Command) (model.FinancialRecord, error) {
	var rec model.FinancialRecord
	flags := cmd.Flags()

	amount := func(name string) (*float64, error) {
		if !flags.Changed(name) {
			return nil, nil
		}
		v, _ := flags.GetFloat64(name)
		if v < 0 {
			return nil, fmt.Errorf("--%s must not be negative", name)
		}
		return model.Float(v), nil
	}

	var err error
	if rec.GrossMonthlyIncome, err = amount("income"); err != nil {
		return rec, err
	}
	if rec.TotalMonthlyDebt, err = amount("debt"); err != nil {
		return rec, err
	}
	if rec.LoanAmount, err = amount("loan"); err != nil {
		return rec, err
	}

	if raw, _ := flags.GetString("employment"); raw != "" {
		status, parseErr := model.ParseEmploymentStatus(raw)
		if parseErr != nil {
			return rec, parseErr
		}
		rec.EmploymentStatus = model.Employment(status)
	}
	if raw, _ := flags.GetString("credit"); raw != "" {
		credit, parseErr := model.ParseCreditScoreRange(raw)
		if parseErr != nil {
			return rec, parseErr
		}
		rec.CreditScoreRange = model.Credit(credit)
	}

	return rec, nil
}
