// Package models defines the canonical record types shared by the import,
// reconciliation and aggregation components: toll usage records parsed from
// ETC usage inquiry exports, refueling entries with derived efficiency
// fields, manual monthly records and the allowance history.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TimeLayout is the canonical timestamp form for toll record entry/exit
// times. Both CSV date encodings normalize to this layout.
const TimeLayout = "2006-01-02T15:04:05"

// DateLayout is the canonical date form for refueling and allowance dates.
const DateLayout = "2006-01-02"

// RecordStatus represents the billing status of a toll usage record
type RecordStatus string

const (
	// StatusTentative marks a trip whose charge the toll operator has not
	// settled yet
	StatusTentative RecordStatus = "tentative"
	// StatusFinalized marks a trip with a settled charge
	StatusFinalized RecordStatus = "finalized"
)

// String returns the string representation of RecordStatus
func (s RecordStatus) String() string {
	return string(s)
}

// IsValid checks if the record status is valid
func (s RecordStatus) IsValid() bool {
	return s == StatusTentative || s == StatusFinalized
}

// IsFinalized returns true once the charge has been settled
func (s RecordStatus) IsFinalized() bool {
	return s == StatusFinalized
}

// DiscountType classifies the toll discount applied to a trip, extracted
// from the free-text notes column of the export
type DiscountType string

const (
	// DiscountMorningEvening is the commuter morning/evening discount
	DiscountMorningEvening DiscountType = "朝夕"
	// DiscountLateNight is the late-night discount
	DiscountLateNight DiscountType = "深夜"
	// DiscountHoliday is the holiday discount
	DiscountHoliday DiscountType = "休日"
	// DiscountNone means no recognized discount marker was present
	DiscountNone DiscountType = ""
)

// TollKey is the natural key of a toll usage record. Fees are excluded
// because they change when a tentative charge is settled.
type TollKey struct {
	EntryTime string
	EntryIC   string
	ExitIC    string
}

// TollRecord represents one gate-to-gate toll-road trip
type TollRecord struct {
	ID            string       `json:"id"`
	EntryTime     time.Time    `json:"entry_datetime"`
	ExitTime      time.Time    `json:"exit_datetime"`
	EntryIC       string       `json:"entry_ic"`
	ExitIC        string       `json:"exit_ic"`
	TollFee       int64        `json:"toll_fee"`
	ActualPayment int64        `json:"actual_payment"`
	Discount      DiscountType `json:"discount_type"`
	Status        RecordStatus `json:"status"`
}

// NewTollRecord creates a new TollRecord instance
func NewTollRecord(entryTime, exitTime time.Time, entryIC, exitIC string, tollFee, actualPayment int64) *TollRecord {
	return &TollRecord{
		EntryTime:     entryTime,
		ExitTime:      exitTime,
		EntryIC:       strings.TrimSpace(entryIC),
		ExitIC:        strings.TrimSpace(exitIC),
		TollFee:       tollFee,
		ActualPayment: actualPayment,
		Status:        StatusTentative,
	}
}

// Key returns the natural key identifying this trip independent of the
// generated ID
func (r *TollRecord) Key() TollKey {
	return TollKey{
		EntryTime: r.EntryTime.Format(TimeLayout),
		EntryIC:   r.EntryIC,
		ExitIC:    r.ExitIC,
	}
}

// Validate performs basic validation on the TollRecord
func (r *TollRecord) Validate() error {
	if r.EntryTime.IsZero() {
		return fmt.Errorf("entry time cannot be zero")
	}

	if strings.TrimSpace(r.EntryIC) == "" {
		return fmt.Errorf("entry interchange cannot be empty")
	}

	if strings.TrimSpace(r.ExitIC) == "" {
		return fmt.Errorf("exit interchange cannot be empty")
	}

	if r.TollFee < 0 {
		return fmt.Errorf("toll fee cannot be negative: %d", r.TollFee)
	}

	if r.ActualPayment < 0 {
		return fmt.Errorf("actual payment cannot be negative: %d", r.ActualPayment)
	}

	if r.Status != "" && !r.Status.IsValid() {
		return fmt.Errorf("invalid record status: %s", r.Status)
	}

	return nil
}

// String returns a string representation of the TollRecord
func (r *TollRecord) String() string {
	return fmt.Sprintf("TollRecord{Entry: %s %s, Exit: %s, Fee: %d, Paid: %d, Status: %s}",
		r.EntryTime.Format(TimeLayout), r.EntryIC, r.ExitIC, r.TollFee, r.ActualPayment, r.Status)
}

// MarshalJSON implements custom JSON marshaling for TollRecord
func (r *TollRecord) MarshalJSON() ([]byte, error) {
	type Alias TollRecord
	return json.Marshal(&struct {
		EntryTime string `json:"entry_datetime"`
		ExitTime  string `json:"exit_datetime"`
		*Alias
	}{
		EntryTime: r.EntryTime.Format(TimeLayout),
		ExitTime:  r.ExitTime.Format(TimeLayout),
		Alias:     (*Alias)(r),
	})
}

// UnmarshalJSON implements custom JSON unmarshaling for TollRecord
func (r *TollRecord) UnmarshalJSON(data []byte) error {
	type Alias TollRecord
	aux := &struct {
		EntryTime string `json:"entry_datetime"`
		ExitTime  string `json:"exit_datetime"`
		*Alias
	}{
		Alias: (*Alias)(r),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	r.EntryTime, err = time.Parse(TimeLayout, aux.EntryTime)
	if err != nil {
		return fmt.Errorf("invalid entry time format: %w", err)
	}

	r.ExitTime, err = time.Parse(TimeLayout, aux.ExitTime)
	if err != nil {
		return fmt.Errorf("invalid exit time format: %w", err)
	}

	return nil
}

// Equals compares two TollRecord instances for equality, ignoring the
// generated ID
func (r *TollRecord) Equals(other *TollRecord) bool {
	if other == nil {
		return false
	}

	return r.Key() == other.Key() &&
		r.TollFee == other.TollFee &&
		r.ActualPayment == other.ActualPayment &&
		r.Discount == other.Discount &&
		r.Status == other.Status
}

// RefuelingEntry represents one visit to a gas station.
//
// Distance and Efficiency are derived from the chronologically preceding
// entry and are nil, not zero, when no valid predecessor exists.
type RefuelingEntry struct {
	ID         string           `json:"id"`
	Date       time.Time        `json:"date"`
	Odometer   int              `json:"odometer"`
	Liters     decimal.Decimal  `json:"liters"`
	Amount     int64            `json:"amount"`
	Station    string           `json:"station,omitempty"`
	UnitPrice  *decimal.Decimal `json:"unit_price,omitempty"`
	Distance   *int             `json:"distance,omitempty"`
	Efficiency *decimal.Decimal `json:"fuel_efficiency,omitempty"`
}

// NewRefuelingEntry creates a new RefuelingEntry instance
func NewRefuelingEntry(date time.Time, odometer int, liters decimal.Decimal, amount int64, station string) *RefuelingEntry {
	return &RefuelingEntry{
		Date:     date,
		Odometer: odometer,
		Liters:   liters,
		Amount:   amount,
		Station:  strings.TrimSpace(station),
	}
}

// Validate performs basic validation on the RefuelingEntry
func (e *RefuelingEntry) Validate() error {
	if e.Date.IsZero() {
		return fmt.Errorf("refueling date cannot be zero")
	}

	if e.Odometer <= 0 {
		return fmt.Errorf("odometer must be positive, got %d", e.Odometer)
	}

	if !e.Liters.IsPositive() {
		return fmt.Errorf("liters must be positive, got %s", e.Liters.String())
	}

	if e.Amount <= 0 {
		return fmt.Errorf("amount must be positive, got %d", e.Amount)
	}

	return nil
}

// String returns a string representation of the RefuelingEntry
func (e *RefuelingEntry) String() string {
	return fmt.Sprintf("RefuelingEntry{Date: %s, Odometer: %d, Liters: %s, Amount: %d}",
		e.Date.Format(DateLayout), e.Odometer, e.Liters.String(), e.Amount)
}

// MarshalJSON implements custom JSON marshaling for RefuelingEntry
func (e *RefuelingEntry) MarshalJSON() ([]byte, error) {
	type Alias RefuelingEntry
	return json.Marshal(&struct {
		Date   string `json:"date"`
		Liters string `json:"liters"`
		*Alias
	}{
		Date:   e.Date.Format(DateLayout),
		Liters: e.Liters.String(),
		Alias:  (*Alias)(e),
	})
}

// UnmarshalJSON implements custom JSON unmarshaling for RefuelingEntry
func (e *RefuelingEntry) UnmarshalJSON(data []byte) error {
	type Alias RefuelingEntry
	aux := &struct {
		Date   string `json:"date"`
		Liters string `json:"liters"`
		*Alias
	}{
		Alias: (*Alias)(e),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	e.Date, err = time.Parse(DateLayout, aux.Date)
	if err != nil {
		return fmt.Errorf("invalid refueling date format: %w", err)
	}

	e.Liters, err = decimal.NewFromString(aux.Liters)
	if err != nil {
		return fmt.Errorf("invalid liters format: %w", err)
	}

	return nil
}

// MonthlySource indicates where a monthly record's amounts came from
type MonthlySource string

const (
	// SourceManual marks amounts entered by hand; these take precedence
	// over amounts derived from individual refueling entries
	SourceManual MonthlySource = "manual"
	// SourceRefueling marks amounts aggregated from refueling entries
	SourceRefueling MonthlySource = "refueling"
)

// IsValid checks if the monthly source is valid
func (s MonthlySource) IsValid() bool {
	return s == SourceManual || s == SourceRefueling
}

// MonthlyRecord holds per-month driving totals keyed by year-month
type MonthlyRecord struct {
	YearMonth      string           `json:"year_month"`
	Source         MonthlySource    `json:"source"`
	DistanceKm     int              `json:"distance_km"`
	FuelLiters     decimal.Decimal  `json:"fuel_liters"`
	FuelAmount     int64            `json:"fuel_amount"`
	FuelEfficiency *decimal.Decimal `json:"fuel_efficiency,omitempty"`
}

// Validate performs basic validation on the MonthlyRecord
func (m *MonthlyRecord) Validate() error {
	if _, _, err := ParseYearMonth(m.YearMonth); err != nil {
		return err
	}

	if !m.Source.IsValid() {
		return fmt.Errorf("invalid monthly source: %s", m.Source)
	}

	if m.DistanceKm < 0 {
		return fmt.Errorf("distance cannot be negative: %d", m.DistanceKm)
	}

	if m.FuelAmount < 0 {
		return fmt.Errorf("fuel amount cannot be negative: %d", m.FuelAmount)
	}

	return nil
}

// MarshalJSON implements custom JSON marshaling for MonthlyRecord
func (m *MonthlyRecord) MarshalJSON() ([]byte, error) {
	type Alias MonthlyRecord
	return json.Marshal(&struct {
		FuelLiters string `json:"fuel_liters"`
		*Alias
	}{
		FuelLiters: m.FuelLiters.String(),
		Alias:      (*Alias)(m),
	})
}

// UnmarshalJSON implements custom JSON unmarshaling for MonthlyRecord
func (m *MonthlyRecord) UnmarshalJSON(data []byte) error {
	type Alias MonthlyRecord
	aux := &struct {
		FuelLiters string `json:"fuel_liters"`
		*Alias
	}{
		Alias: (*Alias)(m),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	m.FuelLiters, err = decimal.NewFromString(aux.FuelLiters)
	if err != nil {
		return fmt.Errorf("invalid fuel liters format: %w", err)
	}

	return nil
}

// AllowanceEntry is one step in the commuting allowance history. The
// amount applies from its effective date until superseded.
type AllowanceEntry struct {
	EffectiveDate time.Time `json:"effective_date"`
	Amount        int64     `json:"amount"`
}

// MarshalJSON implements custom JSON marshaling for AllowanceEntry
func (a *AllowanceEntry) MarshalJSON() ([]byte, error) {
	type Alias AllowanceEntry
	return json.Marshal(&struct {
		EffectiveDate string `json:"effective_date"`
		*Alias
	}{
		EffectiveDate: a.EffectiveDate.Format(DateLayout),
		Alias:         (*Alias)(a),
	})
}

// UnmarshalJSON implements custom JSON unmarshaling for AllowanceEntry
func (a *AllowanceEntry) UnmarshalJSON(data []byte) error {
	type Alias AllowanceEntry
	aux := &struct {
		EffectiveDate string `json:"effective_date"`
		*Alias
	}{
		Alias: (*Alias)(a),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	a.EffectiveDate, err = time.Parse(DateLayout, aux.EffectiveDate)
	if err != nil {
		return fmt.Errorf("invalid effective date format: %w", err)
	}

	return nil
}

// YearMonthKey formats a year and month as the canonical "YYYY-MM" key
func YearMonthKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// ParseYearMonth splits a "YYYY-MM" key into year and month
func ParseYearMonth(key string) (int, int, error) {
	var year, month int
	if _, err := fmt.Sscanf(key, "%4d-%2d", &year, &month); err != nil {
		return 0, 0, fmt.Errorf("invalid year-month key '%s': %w", key, err)
	}

	if month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("invalid month in year-month key '%s'", key)
	}

	return year, month, nil
}
