package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"commute-ledger/cmd/ledger/config"
	"commute-ledger/internal/balance"
	"commute-ledger/internal/report"
)

// Flags for the balance command
var (
	balanceYear         int
	balanceMonth        int
	balanceYTD          bool
	balanceOutputFormat string
)

// balanceCmd represents the balance command
var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the monthly commuting balance",
	Long: `Balance aggregates one month: the commuting allowance in effect
against the month's toll payments and fuel costs. Manually entered monthly
amounts take precedence over amounts derived from refueling entries.

Examples:
  ledger balance
  ledger balance --year 2025 --month 4
  ledger balance --year 2025 --ytd --output-format json`,
	PreRunE: validateBalanceFlags,
	RunE:    runBalance,
}

func init() {
	rootCmd.AddCommand(balanceCmd)

	now := time.Now()
	balanceCmd.Flags().IntVar(&balanceYear, "year", now.Year(), "year to aggregate")
	balanceCmd.Flags().IntVar(&balanceMonth, "month", int(now.Month()), "month to aggregate (1-12)")
	balanceCmd.Flags().BoolVar(&balanceYTD, "ytd", false, "roll up January through the given month")
	balanceCmd.Flags().StringVarP(&balanceOutputFormat, "output-format", "f", "console", "output format: console, json")
}

func validateBalanceFlags(cmd *cobra.Command, args []string) error {
	if balanceMonth < 1 || balanceMonth > 12 {
		return fmt.Errorf("month must be between 1 and 12, got %d", balanceMonth)
	}
	if balanceYear < 2000 || balanceYear > 2100 {
		return fmt.Errorf("year out of range: %d", balanceYear)
	}
	if !report.OutputFormat(balanceOutputFormat).IsValid() {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json", balanceOutputFormat)
	}
	return nil
}

func runBalance(cmd *cobra.Command, args []string) error {
	if err := doBalance(); err != nil {
		os.Exit(NewCLIErrorHandler().HandleError(err))
	}
	return nil
}

func doBalance() error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	inputs, err := config.LoadBalanceInputs(st)
	if err != nil {
		return err
	}

	reportConfig, err := config.CreateReportConfig(balanceOutputFormat, viper.GetBool("verbose"))
	if err != nil {
		return err
	}
	generator, err := report.NewGenerator(reportConfig)
	if err != nil {
		return err
	}

	aggregator := balance.NewAggregator()
	if balanceYTD {
		summary := aggregator.YearToDate(inputs, balanceYear, time.Month(balanceMonth))
		return generator.WriteYearSummary(os.Stdout, summary)
	}

	mb := aggregator.MonthBalance(inputs, balanceYear, time.Month(balanceMonth))
	return generator.WriteMonthBalance(os.Stdout, mb)
}
