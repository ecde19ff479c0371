package store

import "commute-ledger/internal/models"

// Memory is an in-memory Store used by tests and dry runs. Loads return
// copies of the backing slices so callers cannot mutate stored state.
type Memory struct {
	tollRecords      []*models.TollRecord
	refuelingEntries []*models.RefuelingEntry
	monthlyRecords   []*models.MonthlyRecord
	allowanceHistory []*models.AllowanceEntry
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{}
}

// LoadTollRecords returns the stored toll records
func (m *Memory) LoadTollRecords() ([]*models.TollRecord, error) {
	return copySlice(m.tollRecords), nil
}

// SaveTollRecords replaces the stored toll records
func (m *Memory) SaveTollRecords(records []*models.TollRecord) error {
	m.tollRecords = copySlice(records)
	return nil
}

// LoadRefuelingEntries returns the stored refueling entries
func (m *Memory) LoadRefuelingEntries() ([]*models.RefuelingEntry, error) {
	return copySlice(m.refuelingEntries), nil
}

// SaveRefuelingEntries replaces the stored refueling entries
func (m *Memory) SaveRefuelingEntries(entries []*models.RefuelingEntry) error {
	m.refuelingEntries = copySlice(entries)
	return nil
}

// LoadMonthlyRecords returns the stored monthly records
func (m *Memory) LoadMonthlyRecords() ([]*models.MonthlyRecord, error) {
	return copySlice(m.monthlyRecords), nil
}

// SaveMonthlyRecords replaces the stored monthly records
func (m *Memory) SaveMonthlyRecords(records []*models.MonthlyRecord) error {
	m.monthlyRecords = copySlice(records)
	return nil
}

// LoadAllowanceHistory returns the stored allowance history
func (m *Memory) LoadAllowanceHistory() ([]*models.AllowanceEntry, error) {
	return copySlice(m.allowanceHistory), nil
}

// SaveAllowanceHistory replaces the stored allowance history
func (m *Memory) SaveAllowanceHistory(entries []*models.AllowanceEntry) error {
	m.allowanceHistory = copySlice(entries)
	return nil
}

// Close is a no-op for the in-memory store
func (m *Memory) Close() error {
	return nil
}

func copySlice[T any](src []T) []T {
	dst := make([]T, len(src))
	copy(dst, src)
	return dst
}
