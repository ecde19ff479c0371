// Package store persists the ledger's four datasets: toll usage records,
// refueling entries, monthly records and the allowance history.
//
// Every Save replaces its dataset wholesale. The application works in
// single-user load-modify-save cycles, so the store never needs row-level
// updates; a failed save keeps the previous dataset intact and the whole
// operation is retried.
package store

import "commute-ledger/internal/models"

// Store is the persistence boundary for all ledger datasets
type Store interface {
	LoadTollRecords() ([]*models.TollRecord, error)
	SaveTollRecords(records []*models.TollRecord) error

	LoadRefuelingEntries() ([]*models.RefuelingEntry, error)
	SaveRefuelingEntries(entries []*models.RefuelingEntry) error

	LoadMonthlyRecords() ([]*models.MonthlyRecord, error)
	SaveMonthlyRecords(records []*models.MonthlyRecord) error

	LoadAllowanceHistory() ([]*models.AllowanceEntry, error)
	SaveAllowanceHistory(entries []*models.AllowanceEntry) error

	Close() error
}
