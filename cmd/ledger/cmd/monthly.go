package cmd

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"commute-ledger/internal/models"
)

// Flags for the monthly commands
var (
	monthlyKey        string
	monthlyDistance   int
	monthlyLiters     string
	monthlyAmount     int64
	monthlyEfficiency string
)

// monthlyCmd groups the manual monthly record commands
var monthlyCmd = &cobra.Command{
	Use:   "monthly",
	Short: "Manage manual monthly records",
	Long: `Monthly records hold per-month driving totals entered by hand, for
months without per-visit refueling entries. A manual record takes precedence
over amounts derived from refueling entries when the balance is computed.`,
}

// monthlySetCmd upserts one manual monthly record
var monthlySetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the manual record for a month",
	Long: `Set stores the manual driving totals for one month, replacing any
existing record for that month.

Examples:
  ledger monthly set --month 2025-04 --distance 800 --liters 45 --amount 7400
  ledger monthly set --month 2025-04 --distance 800 --liters 45 --amount 7400 --efficiency 17.8`,
	PreRunE: validateMonthlySetFlags,
	RunE:    runMonthlySet,
}

// monthlyListCmd lists stored monthly records
var monthlyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List monthly records",
	RunE:  runMonthlyList,
}

func init() {
	rootCmd.AddCommand(monthlyCmd)
	monthlyCmd.AddCommand(monthlySetCmd, monthlyListCmd)

	monthlySetCmd.Flags().StringVar(&monthlyKey, "month", "", "month as YYYY-MM (required)")
	monthlySetCmd.Flags().IntVar(&monthlyDistance, "distance", 0, "distance driven in km")
	monthlySetCmd.Flags().StringVar(&monthlyLiters, "liters", "0", "fuel consumed in liters")
	monthlySetCmd.Flags().Int64Var(&monthlyAmount, "amount", 0, "fuel cost in yen")
	monthlySetCmd.Flags().StringVar(&monthlyEfficiency, "efficiency", "", "fuel efficiency in km/L (optional)")
	monthlySetCmd.MarkFlagRequired("month")
}

func validateMonthlySetFlags(cmd *cobra.Command, args []string) error {
	if _, _, err := models.ParseYearMonth(monthlyKey); err != nil {
		return fmt.Errorf("invalid month. Use YYYY-MM: %w", err)
	}
	if _, err := decimal.NewFromString(monthlyLiters); err != nil {
		return fmt.Errorf("invalid liters value '%s': %w", monthlyLiters, err)
	}
	if monthlyEfficiency != "" {
		if _, err := decimal.NewFromString(monthlyEfficiency); err != nil {
			return fmt.Errorf("invalid efficiency value '%s': %w", monthlyEfficiency, err)
		}
	}
	return nil
}

func runMonthlySet(cmd *cobra.Command, args []string) error {
	if err := doMonthlySet(); err != nil {
		os.Exit(NewCLIErrorHandler().HandleError(err))
	}
	return nil
}

func doMonthlySet() error {
	liters, _ := decimal.NewFromString(monthlyLiters)

	record := &models.MonthlyRecord{
		YearMonth:  monthlyKey,
		Source:     models.SourceManual,
		DistanceKm: monthlyDistance,
		FuelLiters: liters,
		FuelAmount: monthlyAmount,
	}
	if monthlyEfficiency != "" {
		efficiency, _ := decimal.NewFromString(monthlyEfficiency)
		record.FuelEfficiency = &efficiency
	}
	if err := record.Validate(); err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := st.LoadMonthlyRecords()
	if err != nil {
		return err
	}

	replaced := false
	for i, existing := range records {
		if existing.YearMonth == record.YearMonth {
			records[i] = record
			replaced = true
			break
		}
	}
	if !replaced {
		records = append(records, record)
	}

	if err := st.SaveMonthlyRecords(records); err != nil {
		return err
	}

	fmt.Printf("Set manual record for %s: %d km, %s L, ¥%d\n",
		record.YearMonth, record.DistanceKm, record.FuelLiters, record.FuelAmount)
	return nil
}

func runMonthlyList(cmd *cobra.Command, args []string) error {
	if err := doMonthlyList(); err != nil {
		os.Exit(NewCLIErrorHandler().HandleError(err))
	}
	return nil
}

func doMonthlyList() error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := st.LoadMonthlyRecords()
	if err != nil {
		return err
	}

	fmt.Printf("  %-8s %-10s %10s %10s %10s %12s\n",
		"Month", "Source", "Distance", "Liters", "Amount", "Efficiency")
	for _, record := range records {
		efficiency := "-"
		if record.FuelEfficiency != nil {
			efficiency = record.FuelEfficiency.String()
		}
		fmt.Printf("  %-8s %-10s %10d %10s %10d %12s\n",
			record.YearMonth, record.Source, record.DistanceKm,
			record.FuelLiters, record.FuelAmount, efficiency)
	}

	return nil
}
