package etcparser

import (
	"time"

	"commute-ledger/internal/models"
)

// ImportSummary aggregates a parsed batch for display before merging
type ImportSummary struct {
	TotalRecords int       `json:"total_records"`
	TotalToll    int64     `json:"total_toll"`
	TotalPayment int64     `json:"total_payment"`
	UniqueDays   int       `json:"unique_days"`
	FirstDate    time.Time `json:"first_date,omitempty"`
	LastDate     time.Time `json:"last_date,omitempty"`
}

// Summarize computes batch totals over parsed toll records. Unique days
// and the date range are based on entry dates.
func Summarize(records []*models.TollRecord) *ImportSummary {
	summary := &ImportSummary{
		TotalRecords: len(records),
	}

	if len(records) == 0 {
		return summary
	}

	days := make(map[string]struct{})
	for _, record := range records {
		summary.TotalToll += record.TollFee
		summary.TotalPayment += record.ActualPayment

		day := record.EntryTime.Format(models.DateLayout)
		days[day] = struct{}{}

		date := record.EntryTime.Truncate(24 * time.Hour)
		if summary.FirstDate.IsZero() || date.Before(summary.FirstDate) {
			summary.FirstDate = date
		}
		if summary.LastDate.IsZero() || date.After(summary.LastDate) {
			summary.LastDate = date
		}
	}
	summary.UniqueDays = len(days)

	return summary
}
