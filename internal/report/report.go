// Package report renders import results and balance aggregates for the CLI:
// human-readable console text, JSON for scripting, and an XLSX workbook for
// the yearly balance overview.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"commute-ledger/internal/balance"
	"commute-ledger/internal/etcparser"
	"commute-ledger/internal/merger"
	"commute-ledger/internal/models"
)

// OutputFormat selects how results are rendered
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	return f == FormatConsole || f == FormatJSON
}

// Config holds report rendering options
type Config struct {
	Format OutputFormat
	// Verbose includes per-row skip diagnostics in import reports
	Verbose bool
}

// DefaultConfig returns the default report configuration
func DefaultConfig() *Config {
	return &Config{Format: FormatConsole}
}

// Validate validates the report configuration
func (c *Config) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	return nil
}

// ImportReport collects everything one import run produced
type ImportReport struct {
	File    string                   `json:"file"`
	DryRun  bool                     `json:"dry_run,omitempty"`
	Stats   *etcparser.ParseStats    `json:"stats"`
	Summary *etcparser.ImportSummary `json:"summary"`
	Merge   *merger.MergeResult      `json:"merge"`
}

// Generator renders reports in the configured format
type Generator struct {
	config *Config
}

// NewGenerator creates a report generator
func NewGenerator(config *Config) (*Generator, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Generator{config: config}, nil
}

// WriteImportReport renders the outcome of one import run
func (g *Generator) WriteImportReport(w io.Writer, r *ImportReport) error {
	if g.config.Format == FormatJSON {
		return writeJSON(w, r)
	}

	fmt.Fprintf(w, "Import: %s\n", r.File)
	if r.DryRun {
		fmt.Fprintln(w, "(dry run, nothing was saved)")
	}
	fmt.Fprintf(w, "  Format:    %s-delimited, %s dates, %s\n",
		delimiterName(r.Stats.Delimiter), r.Stats.DateEncoding, r.Stats.CharEncoding)
	fmt.Fprintf(w, "  Parsed:    %d records (%d rows skipped)\n",
		r.Stats.RecordsParsed, r.Stats.SkipCount())
	if r.Summary.TotalRecords > 0 {
		fmt.Fprintf(w, "  Period:    %s to %s (%d days on the road)\n",
			r.Summary.FirstDate.Format(models.DateLayout),
			r.Summary.LastDate.Format(models.DateLayout),
			r.Summary.UniqueDays)
		fmt.Fprintf(w, "  Payments:  ¥%d (toll before discount ¥%d)\n",
			r.Summary.TotalPayment, r.Summary.TotalToll)
	}
	fmt.Fprintf(w, "  Merged:    %d added, %d updated, %d skipped\n",
		r.Merge.Added, r.Merge.Updated, r.Merge.Skipped)

	if g.config.Verbose {
		for _, skip := range r.Stats.Skipped {
			fmt.Fprintf(w, "  skipped: %s\n", skip.Error())
		}
	}

	return nil
}

// WriteMonthBalance renders one month's balance
func (g *Generator) WriteMonthBalance(w io.Writer, mb *balance.MonthBalance) error {
	if g.config.Format == FormatJSON {
		return writeJSON(w, mb)
	}

	fmt.Fprintf(w, "Balance for %s\n", mb.YearMonth)
	fmt.Fprintf(w, "  Allowance:  ¥%d\n", mb.Allowance)
	fmt.Fprintf(w, "  Tolls:      ¥%d over %d commute days\n", mb.TollTotal, mb.CommuteDays)
	fmt.Fprintf(w, "  Fuel:       ¥%d for %s L (%s)\n", mb.FuelAmount, mb.FuelLiters, mb.FuelSource)
	if mb.DistanceKm > 0 {
		fmt.Fprintf(w, "  Distance:   %d km\n", mb.DistanceKm)
	}
	if mb.FuelEfficiency != nil {
		fmt.Fprintf(w, "  Efficiency: %s km/L\n", mb.FuelEfficiency)
	}
	fmt.Fprintf(w, "  Balance:    ¥%d\n", mb.Balance)

	return nil
}

// WriteYearSummary renders the year-to-date roll-up with one line per month
func (g *Generator) WriteYearSummary(w io.Writer, ys *balance.YearSummary) error {
	if g.config.Format == FormatJSON {
		return writeJSON(w, ys)
	}

	fmt.Fprintf(w, "Year %d through %s\n", ys.Year, ys.ThroughMonth)
	fmt.Fprintf(w, "  %-8s %10s %10s %10s %10s\n", "Month", "Allowance", "Tolls", "Fuel", "Balance")
	for _, mb := range ys.Months {
		fmt.Fprintf(w, "  %-8s %10d %10d %10d %10d\n",
			mb.YearMonth, mb.Allowance, mb.TollTotal, mb.FuelAmount, mb.Balance)
	}
	fmt.Fprintf(w, "  %-8s %10d %10d %10d %10d\n",
		"total", ys.Allowance, ys.TollTotal, ys.FuelAmount, ys.Balance)

	return nil
}

// WriteRefuelingList renders refueling entries newest first
func (g *Generator) WriteRefuelingList(w io.Writer, entries []*models.RefuelingEntry) error {
	if g.config.Format == FormatJSON {
		return writeJSON(w, entries)
	}

	fmt.Fprintf(w, "  %-12s %9s %8s %8s %8s %10s  %s\n",
		"Date", "Odometer", "Liters", "Amount", "Dist", "Efficiency", "Station")
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		distance := "-"
		if e.Distance != nil {
			distance = fmt.Sprintf("%d", *e.Distance)
		}
		efficiency := "-"
		if e.Efficiency != nil {
			efficiency = e.Efficiency.String()
		}
		fmt.Fprintf(w, "  %-12s %9d %8s %8d %8s %10s  %s\n",
			e.Date.Format(models.DateLayout), e.Odometer, e.Liters, e.Amount,
			distance, efficiency, e.Station)
	}

	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func delimiterName(delimiter string) string {
	if delimiter == "\t" {
		return "tab"
	}
	return "comma"
}
