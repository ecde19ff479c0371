// Package balance aggregates the monthly commuting balance: the commuting
// allowance in effect for a month against what the month actually cost in
// tolls and fuel.
package balance

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"commute-ledger/internal/fuel"
	"commute-ledger/internal/models"
	"commute-ledger/pkg/logger"
)

// Inputs carries the datasets a balance computation reads. Callers load
// them from the store once and aggregate as many months as needed.
type Inputs struct {
	TollRecords      []*models.TollRecord
	RefuelingEntries []*models.RefuelingEntry
	MonthlyRecords   []*models.MonthlyRecord
	AllowanceHistory []*models.AllowanceEntry
}

// MonthBalance is the aggregated result for one month
type MonthBalance struct {
	YearMonth      string               `json:"year_month"`
	Allowance      int64                `json:"allowance"`
	TollTotal      int64                `json:"toll_total"`
	CommuteDays    int                  `json:"commute_days"`
	FuelAmount     int64                `json:"fuel_amount"`
	FuelLiters     decimal.Decimal      `json:"fuel_liters"`
	DistanceKm     int                  `json:"distance_km"`
	FuelEfficiency *decimal.Decimal     `json:"fuel_efficiency,omitempty"`
	FuelSource     models.MonthlySource `json:"fuel_source"`
	Balance        int64                `json:"balance"`
}

// YearSummary is the year-to-date roll-up of monthly balances
type YearSummary struct {
	Year         int             `json:"year"`
	ThroughMonth time.Month      `json:"through_month"`
	Allowance    int64           `json:"allowance"`
	TollTotal    int64           `json:"toll_total"`
	FuelAmount   int64           `json:"fuel_amount"`
	Balance      int64           `json:"balance"`
	Months       []*MonthBalance `json:"months"`
}

// Aggregator computes monthly and yearly balances
type Aggregator struct {
	logger logger.Logger
}

// NewAggregator creates a new Aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{
		logger: logger.GetGlobalLogger().WithComponent("balance"),
	}
}

// AllowanceForMonth returns the allowance amount in effect for the given
// month: the entry with the latest effective date on or before the first of
// the month. Zero when no entry qualifies.
func AllowanceForMonth(history []*models.AllowanceEntry, year int, month time.Month) int64 {
	firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)

	var amount int64
	var effective time.Time
	for _, entry := range history {
		if entry.EffectiveDate.After(firstOfMonth) {
			continue
		}
		if effective.IsZero() || entry.EffectiveDate.After(effective) {
			effective = entry.EffectiveDate
			amount = entry.Amount
		}
	}

	return amount
}

// MonthBalance aggregates one month. Toll totals sum the actual payments of
// records whose entry time falls in the month; fuel figures come from a
// manual monthly record when one exists, otherwise from the month's
// refueling entries.
func (a *Aggregator) MonthBalance(in *Inputs, year int, month time.Month) *MonthBalance {
	result := &MonthBalance{
		YearMonth:  models.YearMonthKey(year, int(month)),
		Allowance:  AllowanceForMonth(in.AllowanceHistory, year, month),
		FuelLiters: decimal.Zero,
		FuelSource: models.SourceRefueling,
	}

	days := make(map[string]struct{})
	for _, record := range in.TollRecords {
		if record.EntryTime.Year() != year || record.EntryTime.Month() != month {
			continue
		}
		result.TollTotal += record.ActualPayment
		days[record.EntryTime.Format(models.DateLayout)] = struct{}{}
	}
	result.CommuteDays = len(days)

	if manual := findManualRecord(in.MonthlyRecords, result.YearMonth); manual != nil {
		result.FuelAmount = manual.FuelAmount
		result.FuelLiters = manual.FuelLiters
		result.DistanceKm = manual.DistanceKm
		result.FuelEfficiency = manual.FuelEfficiency
		result.FuelSource = models.SourceManual
	} else {
		for _, entry := range in.RefuelingEntries {
			if entry.Date.Year() != year || entry.Date.Month() != month {
				continue
			}
			result.FuelAmount += entry.Amount
			result.FuelLiters = result.FuelLiters.Add(entry.Liters)
			if entry.Distance != nil {
				result.DistanceKm += *entry.Distance
			}
		}
		result.FuelEfficiency = fuel.MonthlyAverage(in.RefuelingEntries, year, month)
	}

	result.Balance = result.Allowance - result.TollTotal - result.FuelAmount

	a.logger.WithFields(logger.Fields{
		"year_month": result.YearMonth,
		"allowance":  result.Allowance,
		"toll_total": result.TollTotal,
		"fuel":       result.FuelAmount,
		"balance":    result.Balance,
	}).Debug("Month aggregated")

	return result
}

// YearToDate rolls up monthly balances from January through the given month
func (a *Aggregator) YearToDate(in *Inputs, year int, through time.Month) *YearSummary {
	summary := &YearSummary{
		Year:         year,
		ThroughMonth: through,
	}

	for month := time.January; month <= through; month++ {
		mb := a.MonthBalance(in, year, month)
		summary.Months = append(summary.Months, mb)
		summary.Allowance += mb.Allowance
		summary.TollTotal += mb.TollTotal
		summary.FuelAmount += mb.FuelAmount
		summary.Balance += mb.Balance
	}

	return summary
}

// History returns the balances of the n months ending at the given month,
// oldest first
func (a *Aggregator) History(in *Inputs, year int, month time.Month, n int) []*MonthBalance {
	if n <= 0 {
		return nil
	}

	history := make([]*MonthBalance, 0, n)
	cursor := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(n - 1), 0)
	for i := 0; i < n; i++ {
		history = append(history, a.MonthBalance(in, cursor.Year(), cursor.Month()))
		cursor = cursor.AddDate(0, 1, 0)
	}

	return history
}

// EfficiencyTrend returns the last n refueling entries that have a derived
// efficiency, oldest first
func EfficiencyTrend(entries []*models.RefuelingEntry, n int) []*models.RefuelingEntry {
	var derived []*models.RefuelingEntry
	for _, entry := range entries {
		if entry.Efficiency != nil {
			derived = append(derived, entry)
		}
	}

	sort.SliceStable(derived, func(i, j int) bool {
		return derived[i].Date.Before(derived[j].Date)
	})

	if n > 0 && len(derived) > n {
		derived = derived[len(derived)-n:]
	}

	return derived
}

// findManualRecord returns the manual monthly record for the key, if any.
// Manually entered amounts take precedence over refueling-entry sums.
func findManualRecord(records []*models.MonthlyRecord, yearMonth string) *models.MonthlyRecord {
	for _, record := range records {
		if record.YearMonth == yearMonth && record.Source == models.SourceManual {
			return record
		}
	}
	return nil
}
