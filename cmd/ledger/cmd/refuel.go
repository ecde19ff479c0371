package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"commute-ledger/cmd/ledger/config"
	"commute-ledger/internal/fuel"
	"commute-ledger/internal/models"
	"commute-ledger/internal/report"
	"commute-ledger/pkg/errors"
)

// Flags for the refuel commands
var (
	refuelDate         string
	refuelOdometer     int
	refuelLiters       string
	refuelAmount       int64
	refuelStation      string
	refuelOutputFormat string
)

// refuelCmd groups the refueling entry commands
var refuelCmd = &cobra.Command{
	Use:   "refuel",
	Short: "Manage refueling entries",
	Long: `Refuel records gas station visits. Distance and fuel efficiency are
derived from the odometer reading of the latest earlier entry.

Examples:
  ledger refuel add --date 2025-04-20 --odometer 11200 --liters 35 --amount 5600
  ledger refuel list
  ledger refuel recalc`,
}

// refuelAddCmd appends one refueling entry
var refuelAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a refueling entry",
	Long: `Add records one gas station visit. The new entry's distance and
efficiency are derived from the latest existing entry; earlier entries are
never rewritten. After backdating an entry, run 'ledger refuel recalc' to
recompute every entry in date order.`,
	PreRunE: validateRefuelAddFlags,
	RunE:    runRefuelAdd,
}

// refuelRecalcCmd recomputes all derived fields
var refuelRecalcCmd = &cobra.Command{
	Use:   "recalc",
	Short: "Recompute distance and efficiency for all entries",
	RunE:  runRefuelRecalc,
}

// refuelListCmd lists stored entries
var refuelListCmd = &cobra.Command{
	Use:   "list",
	Short: "List refueling entries, newest first",
	RunE:  runRefuelList,
}

// refuelRemoveCmd deletes one entry and repairs the derivation chain
var refuelRemoveCmd = &cobra.Command{
	Use:   "remove ID",
	Short: "Remove a refueling entry",
	Long: `Remove deletes the entry with the given ID and recomputes distance and
efficiency for the remaining entries, so the successor of the removed entry
derives from its new predecessor.`,
	Args: cobra.ExactArgs(1),
	RunE: runRefuelRemove,
}

func init() {
	rootCmd.AddCommand(refuelCmd)
	refuelCmd.AddCommand(refuelAddCmd, refuelRecalcCmd, refuelListCmd, refuelRemoveCmd)

	refuelAddCmd.Flags().StringVar(&refuelDate, "date", "", "refueling date YYYY-MM-DD (default today)")
	refuelAddCmd.Flags().IntVar(&refuelOdometer, "odometer", 0, "odometer reading in km (required)")
	refuelAddCmd.Flags().StringVar(&refuelLiters, "liters", "", "liters pumped (required)")
	refuelAddCmd.Flags().Int64Var(&refuelAmount, "amount", 0, "total amount in yen (required)")
	refuelAddCmd.Flags().StringVar(&refuelStation, "station", "", "gas station name")
	refuelAddCmd.MarkFlagRequired("odometer")
	refuelAddCmd.MarkFlagRequired("liters")
	refuelAddCmd.MarkFlagRequired("amount")

	refuelListCmd.Flags().StringVarP(&refuelOutputFormat, "output-format", "f", "console", "output format: console, json")
}

func validateRefuelAddFlags(cmd *cobra.Command, args []string) error {
	if refuelDate == "" {
		refuelDate = time.Now().UTC().Format(models.DateLayout)
	}
	if _, err := time.Parse(models.DateLayout, refuelDate); err != nil {
		return fmt.Errorf("invalid date format. Use YYYY-MM-DD: %w", err)
	}

	if _, err := decimal.NewFromString(refuelLiters); err != nil {
		return fmt.Errorf("invalid liters value '%s': %w", refuelLiters, err)
	}

	return nil
}

func runRefuelAdd(cmd *cobra.Command, args []string) error {
	if err := doRefuelAdd(); err != nil {
		os.Exit(NewCLIErrorHandler().HandleError(err))
	}
	return nil
}

func doRefuelAdd() error {
	date, _ := time.Parse(models.DateLayout, refuelDate)
	liters, _ := decimal.NewFromString(refuelLiters)

	entry := models.NewRefuelingEntry(date, refuelOdometer, liters, refuelAmount, refuelStation)
	entry.ID = uuid.NewString()
	entry.UnitPrice = fuel.UnitPrice(refuelAmount, liters)
	if err := entry.Validate(); err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	entries, err := st.LoadRefuelingEntries()
	if err != nil {
		return err
	}

	fuel.NewCalculator().DeriveForInsert(entries, entry)
	entries = append(entries, entry)

	if err := st.SaveRefuelingEntries(entries); err != nil {
		return err
	}

	fmt.Printf("Added %s", entry)
	if entry.Efficiency != nil {
		fmt.Printf(" (%s km/L)", entry.Efficiency)
	}
	fmt.Println()

	return nil
}

func runRefuelRecalc(cmd *cobra.Command, args []string) error {
	if err := doRefuelRecalc(); err != nil {
		os.Exit(NewCLIErrorHandler().HandleError(err))
	}
	return nil
}

func doRefuelRecalc() error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	entries, err := st.LoadRefuelingEntries()
	if err != nil {
		return err
	}

	recalculated := fuel.NewCalculator().Recalculate(entries)
	if err := st.SaveRefuelingEntries(recalculated); err != nil {
		return err
	}

	fmt.Printf("Recalculated %d entries\n", len(recalculated))
	return nil
}

func runRefuelRemove(cmd *cobra.Command, args []string) error {
	if err := doRefuelRemove(args[0]); err != nil {
		os.Exit(NewCLIErrorHandler().HandleError(err))
	}
	return nil
}

func doRefuelRemove(id string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	entries, err := st.LoadRefuelingEntries()
	if err != nil {
		return err
	}

	remaining := make([]*models.RefuelingEntry, 0, len(entries))
	found := false
	for _, entry := range entries {
		if entry.ID == id {
			found = true
			continue
		}
		remaining = append(remaining, entry)
	}
	if !found {
		return errors.ValidationError(errors.CodeInvalidData, "id", id,
			fmt.Errorf("no refueling entry with this ID"))
	}

	recalculated := fuel.NewCalculator().Recalculate(remaining)
	if err := st.SaveRefuelingEntries(recalculated); err != nil {
		return err
	}

	fmt.Printf("Removed entry %s, %d entries remain\n", id, len(recalculated))
	return nil
}

func runRefuelList(cmd *cobra.Command, args []string) error {
	if err := doRefuelList(); err != nil {
		os.Exit(NewCLIErrorHandler().HandleError(err))
	}
	return nil
}

func doRefuelList() error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	entries, err := st.LoadRefuelingEntries()
	if err != nil {
		return err
	}

	reportConfig, err := config.CreateReportConfig(refuelOutputFormat, viper.GetBool("verbose"))
	if err != nil {
		return err
	}
	generator, err := report.NewGenerator(reportConfig)
	if err != nil {
		return err
	}

	return generator.WriteRefuelingList(os.Stdout, entries)
}
