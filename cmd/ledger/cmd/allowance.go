package cmd

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"commute-ledger/internal/models"
)

// Flags for the allowance commands
var (
	allowanceFrom   string
	allowanceAmount int64
)

// allowanceCmd groups the commuting allowance commands
var allowanceCmd = &cobra.Command{
	Use:   "allowance",
	Short: "Manage the commuting allowance history",
	Long: `The allowance history records the monthly commuting allowance and when
each amount took effect. A month's balance uses the amount effective on the
first of that month.`,
}

// allowanceSetCmd records an allowance change
var allowanceSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Record an allowance amount and its effective date",
	Long: `Set records a new allowance amount effective from the given date,
replacing any entry already recorded for the same date.

Examples:
  ledger allowance set --from 2024-01-01 --amount 70000
  ledger allowance set --from 2024-06-01 --amount 75000`,
	PreRunE: validateAllowanceSetFlags,
	RunE:    runAllowanceSet,
}

// allowanceListCmd lists the allowance history
var allowanceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the allowance history",
	RunE:  runAllowanceList,
}

func init() {
	rootCmd.AddCommand(allowanceCmd)
	allowanceCmd.AddCommand(allowanceSetCmd, allowanceListCmd)

	allowanceSetCmd.Flags().StringVar(&allowanceFrom, "from", "", "effective date YYYY-MM-DD (required)")
	allowanceSetCmd.Flags().Int64Var(&allowanceAmount, "amount", 0, "monthly allowance in yen (required)")
	allowanceSetCmd.MarkFlagRequired("from")
	allowanceSetCmd.MarkFlagRequired("amount")
}

func validateAllowanceSetFlags(cmd *cobra.Command, args []string) error {
	if _, err := time.Parse(models.DateLayout, allowanceFrom); err != nil {
		return fmt.Errorf("invalid effective date. Use YYYY-MM-DD: %w", err)
	}
	if allowanceAmount < 0 {
		return fmt.Errorf("allowance amount cannot be negative: %d", allowanceAmount)
	}
	return nil
}

func runAllowanceSet(cmd *cobra.Command, args []string) error {
	if err := doAllowanceSet(); err != nil {
		os.Exit(NewCLIErrorHandler().HandleError(err))
	}
	return nil
}

func doAllowanceSet() error {
	effective, _ := time.Parse(models.DateLayout, allowanceFrom)
	entry := &models.AllowanceEntry{EffectiveDate: effective, Amount: allowanceAmount}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	history, err := st.LoadAllowanceHistory()
	if err != nil {
		return err
	}

	replaced := false
	for i, existing := range history {
		if existing.EffectiveDate.Equal(entry.EffectiveDate) {
			history[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		history = append(history, entry)
	}

	sort.Slice(history, func(i, j int) bool {
		return history[i].EffectiveDate.Before(history[j].EffectiveDate)
	})

	if err := st.SaveAllowanceHistory(history); err != nil {
		return err
	}

	fmt.Printf("Allowance ¥%d effective from %s\n", entry.Amount, allowanceFrom)
	return nil
}

func runAllowanceList(cmd *cobra.Command, args []string) error {
	if err := doAllowanceList(); err != nil {
		os.Exit(NewCLIErrorHandler().HandleError(err))
	}
	return nil
}

func doAllowanceList() error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	history, err := st.LoadAllowanceHistory()
	if err != nil {
		return err
	}

	fmt.Printf("  %-12s %10s\n", "Effective", "Amount")
	for _, entry := range history {
		fmt.Printf("  %-12s %10d\n", entry.EffectiveDate.Format(models.DateLayout), entry.Amount)
	}

	return nil
}
