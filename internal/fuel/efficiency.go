// Package fuel derives distance, fuel efficiency and unit price for
// refueling entries from odometer readings.
//
// Efficiency is computed full-to-full: the distance since the previous
// refueling divided by the liters pumped now. An entry with no usable
// predecessor (the first one, or one whose predecessor has an equal or
// higher odometer reading) keeps its derived fields absent rather than
// zero, so downstream averages are not polluted.
package fuel

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"commute-ledger/internal/models"
	"commute-ledger/pkg/logger"
)

// Calculator derives per-entry and per-month fuel figures
type Calculator struct {
	logger logger.Logger
}

// NewCalculator creates a new Calculator
func NewCalculator() *Calculator {
	return &Calculator{
		logger: logger.GetGlobalLogger().WithComponent("fuel_calculator"),
	}
}

// Recalculate recomputes distance and efficiency for every entry from
// scratch. Entries are returned as copies ordered by date (ties broken by
// odometer); the input slice is not modified. This is the repair path for
// out-of-order inserts, which DeriveForInsert does not handle.
func (c *Calculator) Recalculate(entries []*models.RefuelingEntry) []*models.RefuelingEntry {
	ordered := make([]*models.RefuelingEntry, len(entries))
	for i, entry := range entries {
		clone := *entry
		clone.Distance = nil
		clone.Efficiency = nil
		ordered[i] = &clone
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].Date.Equal(ordered[j].Date) {
			return ordered[i].Date.Before(ordered[j].Date)
		}
		return ordered[i].Odometer < ordered[j].Odometer
	})

	for i := 1; i < len(ordered); i++ {
		derive(ordered[i], ordered[i-1])
	}

	c.logger.WithField("entries", len(ordered)).Debug("Recalculated fuel efficiency")
	return ordered
}

// DeriveForInsert fills the derived fields of a new entry from the latest
// existing entry by date. Existing entries are never touched: backdating an
// entry does not retroactively fix its neighbors' figures. Run Recalculate
// afterwards when that matters.
func (c *Calculator) DeriveForInsert(existing []*models.RefuelingEntry, entry *models.RefuelingEntry) {
	entry.Distance = nil
	entry.Efficiency = nil

	predecessor := latestByDate(existing)
	if predecessor == nil {
		return
	}

	derive(entry, predecessor)
}

// derive sets distance and efficiency on entry when the predecessor's
// odometer reading is strictly lower
func derive(entry, predecessor *models.RefuelingEntry) {
	if predecessor.Odometer >= entry.Odometer {
		return
	}

	distance := entry.Odometer - predecessor.Odometer
	entry.Distance = &distance

	if entry.Liters.IsPositive() {
		efficiency := decimal.NewFromInt(int64(distance)).Div(entry.Liters).Round(2)
		entry.Efficiency = &efficiency
	}
}

// latestByDate returns the entry with the greatest date, or nil for an
// empty slice
func latestByDate(entries []*models.RefuelingEntry) *models.RefuelingEntry {
	var latest *models.RefuelingEntry
	for _, entry := range entries {
		if latest == nil || entry.Date.After(latest.Date) {
			latest = entry
		}
	}
	return latest
}

// UnitPrice derives the per-liter price from the total amount, rounded to
// one decimal place. Returns nil when liters is not positive.
func UnitPrice(amount int64, liters decimal.Decimal) *decimal.Decimal {
	if !liters.IsPositive() {
		return nil
	}

	price := decimal.NewFromInt(amount).Div(liters).Round(1)
	return &price
}

// MonthlyAverage returns the mean derived efficiency over the entries that
// fall in the given month, rounded to two decimal places. Entries without a
// derived efficiency are excluded; the result is nil when none qualify.
func MonthlyAverage(entries []*models.RefuelingEntry, year int, month time.Month) *decimal.Decimal {
	sum := decimal.Zero
	count := 0

	for _, entry := range entries {
		if entry.Efficiency == nil {
			continue
		}
		if entry.Date.Year() != year || entry.Date.Month() != month {
			continue
		}
		sum = sum.Add(*entry.Efficiency)
		count++
	}

	if count == 0 {
		return nil
	}

	average := sum.Div(decimal.NewFromInt(int64(count))).Round(2)
	return &average
}
