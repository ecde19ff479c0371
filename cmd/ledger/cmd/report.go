package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"commute-ledger/cmd/ledger/config"
	"commute-ledger/internal/balance"
	"commute-ledger/internal/report"
)

// Flags for the report command
var (
	reportYear    int
	reportThrough int
	reportOut     string
	reportTrend   int
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export the yearly balance as an XLSX workbook",
	Long: `Report writes a yearly balance workbook: a summary sheet with year
totals, a months sheet with one row per month, and a fuel-efficiency trend
sheet.

Examples:
  ledger report --year 2025 --out balance-2025.xlsx
  ledger report --year 2025 --through 6 --out h1.xlsx`,
	PreRunE: validateReportFlags,
	RunE:    runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	now := time.Now()
	reportCmd.Flags().IntVar(&reportYear, "year", now.Year(), "year to export")
	reportCmd.Flags().IntVar(&reportThrough, "through", 12, "last month to include (1-12)")
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "", "output path (required)")
	reportCmd.Flags().IntVar(&reportTrend, "trend", 10, "number of refueling entries on the trend sheet")
	reportCmd.MarkFlagRequired("out")
}

func validateReportFlags(cmd *cobra.Command, args []string) error {
	if reportThrough < 1 || reportThrough > 12 {
		return fmt.Errorf("through must be between 1 and 12, got %d", reportThrough)
	}

	dir := filepath.Dir(reportOut)
	if dir != "." {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return fmt.Errorf("output directory does not exist: %s", dir)
		}
	}

	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	if err := doReport(); err != nil {
		os.Exit(NewCLIErrorHandler().HandleError(err))
	}
	return nil
}

func doReport() error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	inputs, err := config.LoadBalanceInputs(st)
	if err != nil {
		return err
	}

	aggregator := balance.NewAggregator()
	summary := aggregator.YearToDate(inputs, reportYear, time.Month(reportThrough))
	trend := balance.EfficiencyTrend(inputs.RefuelingEntries, reportTrend)

	if err := report.ExportWorkbook(reportOut, summary, trend); err != nil {
		return err
	}

	fmt.Printf("Wrote %s\n", reportOut)
	return nil
}
