package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestRecordStatus_IsValid(t *testing.T) {
	tests := []struct {
		status RecordStatus
		valid  bool
	}{
		{StatusTentative, true},
		{StatusFinalized, true},
		{"INVALID", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsValid(); got != tt.valid {
				t.Errorf("RecordStatus.IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestRecordStatus_IsFinalized(t *testing.T) {
	if StatusTentative.IsFinalized() {
		t.Errorf("tentative should not be finalized")
	}
	if !StatusFinalized.IsFinalized() {
		t.Errorf("finalized should be finalized")
	}
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(TimeLayout, value)
	if err != nil {
		t.Fatalf("bad test timestamp %s: %v", value, err)
	}
	return ts
}

func TestNewTollRecord(t *testing.T) {
	entry := mustTime(t, "2025-04-15T07:30:00")
	exit := mustTime(t, "2025-04-15T08:05:00")

	r := NewTollRecord(entry, exit, " 東京 ", " 横浜 ", 1320, 990)

	if r.EntryIC != "東京" {
		t.Errorf("EntryIC = %q, want trimmed %q", r.EntryIC, "東京")
	}
	if r.ExitIC != "横浜" {
		t.Errorf("ExitIC = %q, want trimmed %q", r.ExitIC, "横浜")
	}
	if r.Status != StatusTentative {
		t.Errorf("Status = %s, want %s", r.Status, StatusTentative)
	}
}

func TestTollRecord_Key(t *testing.T) {
	entry := mustTime(t, "2025-04-15T07:30:00")
	a := NewTollRecord(entry, entry.Add(30*time.Minute), "東京", "横浜", 1320, 990)
	b := NewTollRecord(entry, entry.Add(45*time.Minute), "東京", "横浜", 1500, 1500)
	c := NewTollRecord(entry, entry.Add(30*time.Minute), "東京", "厚木", 1320, 990)

	if a.Key() != b.Key() {
		t.Errorf("records differing only in fees/exit time must share a key")
	}
	if a.Key() == c.Key() {
		t.Errorf("records with different exit interchanges must not share a key")
	}
}

func TestTollRecord_Validate(t *testing.T) {
	entry := mustTime(t, "2025-04-15T07:30:00")
	exit := mustTime(t, "2025-04-15T08:05:00")

	tests := []struct {
		name      string
		record    TollRecord
		wantError bool
	}{
		{
			name: "Valid record",
			record: TollRecord{
				EntryTime: entry, ExitTime: exit,
				EntryIC: "東京", ExitIC: "横浜",
				TollFee: 1320, ActualPayment: 990,
				Status: StatusTentative,
			},
			wantError: false,
		},
		{
			name: "Zero entry time",
			record: TollRecord{
				ExitTime: exit, EntryIC: "東京", ExitIC: "横浜",
			},
			wantError: true,
		},
		{
			name: "Empty entry interchange",
			record: TollRecord{
				EntryTime: entry, ExitTime: exit, EntryIC: " ", ExitIC: "横浜",
			},
			wantError: true,
		},
		{
			name: "Negative toll fee",
			record: TollRecord{
				EntryTime: entry, ExitTime: exit,
				EntryIC: "東京", ExitIC: "横浜", TollFee: -100,
			},
			wantError: true,
		},
		{
			name: "Invalid status",
			record: TollRecord{
				EntryTime: entry, ExitTime: exit,
				EntryIC: "東京", ExitIC: "横浜", Status: "done",
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestTollRecord_JSONRoundTrip(t *testing.T) {
	original := &TollRecord{
		ID:            "abc-123",
		EntryTime:     mustTime(t, "2025-04-15T07:30:00"),
		ExitTime:      mustTime(t, "2025-04-15T08:05:00"),
		EntryIC:       "東京",
		ExitIC:        "横浜",
		TollFee:       1320,
		ActualPayment: 990,
		Discount:      DiscountMorningEvening,
		Status:        StatusFinalized,
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var restored TollRecord
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if !restored.Equals(original) {
		t.Errorf("round trip changed record: got %s, want %s", restored.String(), original.String())
	}
	if restored.ID != original.ID {
		t.Errorf("round trip changed ID: got %s, want %s", restored.ID, original.ID)
	}
}

func TestRefuelingEntry_Validate(t *testing.T) {
	date := time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		entry     RefuelingEntry
		wantError bool
	}{
		{
			name: "Valid entry",
			entry: RefuelingEntry{
				Date: date, Odometer: 50000,
				Liters: decimal.NewFromFloat(35.5), Amount: 5000,
			},
			wantError: false,
		},
		{
			name: "Zero odometer",
			entry: RefuelingEntry{
				Date: date, Liters: decimal.NewFromFloat(35.5), Amount: 5000,
			},
			wantError: true,
		},
		{
			name: "Zero liters",
			entry: RefuelingEntry{
				Date: date, Odometer: 50000, Amount: 5000,
			},
			wantError: true,
		},
		{
			name: "Zero amount",
			entry: RefuelingEntry{
				Date: date, Odometer: 50000, Liters: decimal.NewFromFloat(35.5),
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestRefuelingEntry_JSONRoundTrip_DerivedFieldsAbsent(t *testing.T) {
	entry := NewRefuelingEntry(time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC),
		50000, decimal.NewFromFloat(35.5), 5000, "ENEOS")

	data, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var asMap map[string]interface{}
	if err := json.Unmarshal(data, &asMap); err != nil {
		t.Fatalf("Unmarshal to map error = %v", err)
	}
	if _, present := asMap["distance"]; present {
		t.Errorf("unset distance must be omitted, not zero")
	}
	if _, present := asMap["fuel_efficiency"]; present {
		t.Errorf("unset efficiency must be omitted, not zero")
	}

	var restored RefuelingEntry
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !restored.Date.Equal(entry.Date) {
		t.Errorf("Date = %v, want %v", restored.Date, entry.Date)
	}
	if !restored.Liters.Equal(entry.Liters) {
		t.Errorf("Liters = %s, want %s", restored.Liters, entry.Liters)
	}
	if restored.Distance != nil || restored.Efficiency != nil {
		t.Errorf("derived fields must stay unset after round trip")
	}
}

func TestMonthlyRecord_Validate(t *testing.T) {
	tests := []struct {
		name      string
		record    MonthlyRecord
		wantError bool
	}{
		{
			name:      "Valid manual record",
			record:    MonthlyRecord{YearMonth: "2025-04", Source: SourceManual, FuelLiters: decimal.NewFromInt(120)},
			wantError: false,
		},
		{
			name:      "Bad year-month key",
			record:    MonthlyRecord{YearMonth: "202504", Source: SourceManual},
			wantError: true,
		},
		{
			name:      "Month out of range",
			record:    MonthlyRecord{YearMonth: "2025-13", Source: SourceManual},
			wantError: true,
		},
		{
			name:      "Invalid source",
			record:    MonthlyRecord{YearMonth: "2025-04", Source: "guess"},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestYearMonthKey(t *testing.T) {
	if got := YearMonthKey(2025, 4); got != "2025-04" {
		t.Errorf("YearMonthKey(2025, 4) = %s, want 2025-04", got)
	}

	year, month, err := ParseYearMonth("2025-04")
	if err != nil {
		t.Fatalf("ParseYearMonth() error = %v", err)
	}
	if year != 2025 || month != 4 {
		t.Errorf("ParseYearMonth() = (%d, %d), want (2025, 4)", year, month)
	}
}

func TestAllowanceEntry_JSONRoundTrip(t *testing.T) {
	entry := &AllowanceEntry{
		EffectiveDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Amount:        75000,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var restored AllowanceEntry
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !restored.EffectiveDate.Equal(entry.EffectiveDate) || restored.Amount != entry.Amount {
		t.Errorf("round trip changed entry: got %+v, want %+v", restored, entry)
	}
}
