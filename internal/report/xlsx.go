package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"commute-ledger/internal/balance"
	"commute-ledger/internal/models"
	"commute-ledger/pkg/errors"
)

const (
	summarySheet = "summary"
	monthsSheet  = "months"
	trendSheet   = "fuel_trend"
)

// BuildWorkbook renders a yearly balance overview as an XLSX workbook:
// a summary sheet with year totals, a months sheet with one row per month,
// and a fuel-trend sheet when trend entries are supplied.
func BuildWorkbook(ys *balance.YearSummary, trend []*models.RefuelingEntry) (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", summarySheet)
	if _, err := f.NewSheet(monthsSheet); err != nil {
		return nil, errors.InternalError(errors.CodeUnexpectedError, "workbook setup", err)
	}

	setCell(f, summarySheet, "A1", fmt.Sprintf("Commuting balance %d (through %s)", ys.Year, ys.ThroughMonth))
	setCell(f, summarySheet, "A3", "Allowance")
	setCell(f, summarySheet, "B3", ys.Allowance)
	setCell(f, summarySheet, "A4", "Tolls")
	setCell(f, summarySheet, "B4", ys.TollTotal)
	setCell(f, summarySheet, "A5", "Fuel")
	setCell(f, summarySheet, "B5", ys.FuelAmount)
	setCell(f, summarySheet, "A6", "Balance")
	setCell(f, summarySheet, "B6", ys.Balance)

	headers := []string{"Month", "Allowance", "Tolls", "Commute days", "Fuel amount",
		"Fuel liters", "Distance km", "Efficiency km/L", "Fuel source", "Balance"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		setCell(f, monthsSheet, cell, header)
	}

	for i, mb := range ys.Months {
		row := i + 2
		setCell(f, monthsSheet, fmt.Sprintf("A%d", row), mb.YearMonth)
		setCell(f, monthsSheet, fmt.Sprintf("B%d", row), mb.Allowance)
		setCell(f, monthsSheet, fmt.Sprintf("C%d", row), mb.TollTotal)
		setCell(f, monthsSheet, fmt.Sprintf("D%d", row), mb.CommuteDays)
		setCell(f, monthsSheet, fmt.Sprintf("E%d", row), mb.FuelAmount)
		setCell(f, monthsSheet, fmt.Sprintf("F%d", row), mb.FuelLiters.InexactFloat64())
		setCell(f, monthsSheet, fmt.Sprintf("G%d", row), mb.DistanceKm)
		if mb.FuelEfficiency != nil {
			setCell(f, monthsSheet, fmt.Sprintf("H%d", row), mb.FuelEfficiency.InexactFloat64())
		}
		setCell(f, monthsSheet, fmt.Sprintf("I%d", row), string(mb.FuelSource))
		setCell(f, monthsSheet, fmt.Sprintf("J%d", row), mb.Balance)
	}

	if len(trend) > 0 {
		if _, err := f.NewSheet(trendSheet); err != nil {
			return nil, errors.InternalError(errors.CodeUnexpectedError, "workbook setup", err)
		}
		setCell(f, trendSheet, "A1", "Date")
		setCell(f, trendSheet, "B1", "Odometer")
		setCell(f, trendSheet, "C1", "Efficiency km/L")
		for i, entry := range trend {
			row := i + 2
			setCell(f, trendSheet, fmt.Sprintf("A%d", row), entry.Date.Format(models.DateLayout))
			setCell(f, trendSheet, fmt.Sprintf("B%d", row), entry.Odometer)
			setCell(f, trendSheet, fmt.Sprintf("C%d", row), entry.Efficiency.InexactFloat64())
		}
	}

	return f, nil
}

// ExportWorkbook writes the yearly balance workbook to path
func ExportWorkbook(path string, ys *balance.YearSummary, trend []*models.RefuelingEntry) error {
	f, err := BuildWorkbook(ys, trend)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return errors.FileError(errors.CodeFilePermission, path, err).
			WithSuggestion("check that the output directory exists and is writable")
	}

	return nil
}

func setCell(f *excelize.File, sheet, cell string, value interface{}) {
	// The cell references are all generated; the only realistic failure is
	// a closed file, which SaveAs reports anyway.
	_ = f.SetCellValue(sheet, cell, value)
}
