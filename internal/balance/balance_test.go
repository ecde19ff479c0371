package balance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"commute-ledger/internal/fuel"
	"commute-ledger/internal/models"
)

func date(value string) time.Time {
	d, err := time.Parse(models.DateLayout, value)
	if err != nil {
		panic(err)
	}
	return d
}

func allowanceHistory() []*models.AllowanceEntry {
	return []*models.AllowanceEntry{
		{EffectiveDate: date("2024-01-01"), Amount: 70000},
		{EffectiveDate: date("2024-06-01"), Amount: 75000},
	}
}

func TestAllowanceForMonth(t *testing.T) {
	history := allowanceHistory()

	tests := []struct {
		name  string
		year  int
		month time.Month
		want  int64
	}{
		{"Before any entry", 2023, time.December, 0},
		{"First entry effective", 2024, time.January, 70000},
		{"Between entries", 2024, time.May, 70000},
		{"Second entry effective", 2024, time.June, 75000},
		{"After all entries", 2025, time.March, 75000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AllowanceForMonth(history, tt.year, tt.month); got != tt.want {
				t.Errorf("AllowanceForMonth(%d, %s) = %d, want %d", tt.year, tt.month, got, tt.want)
			}
		})
	}
}

func TestAllowanceForMonth_MidMonthEffectiveDate(t *testing.T) {
	history := []*models.AllowanceEntry{
		{EffectiveDate: date("2024-06-15"), Amount: 80000},
	}

	// Effective after the first of June, so June still has no allowance
	if got := AllowanceForMonth(history, 2024, time.June); got != 0 {
		t.Errorf("AllowanceForMonth(June) = %d, want 0", got)
	}
	if got := AllowanceForMonth(history, 2024, time.July); got != 80000 {
		t.Errorf("AllowanceForMonth(July) = %d, want 80000", got)
	}
}

func tollRecord(entry string, payment int64) *models.TollRecord {
	ts, err := time.Parse(models.TimeLayout, entry)
	if err != nil {
		panic(err)
	}
	record := models.NewTollRecord(ts, ts.Add(30*time.Minute), "東京", "横浜", payment, payment)
	return record
}

func refuelEntry(day string, odometer int, liters string, amount int64) *models.RefuelingEntry {
	return &models.RefuelingEntry{
		ID:       day,
		Date:     date(day),
		Odometer: odometer,
		Liters:   decimal.RequireFromString(liters),
		Amount:   amount,
	}
}

func TestMonthBalance_FromRefuelingEntries(t *testing.T) {
	calc := fuel.NewCalculator()
	entries := calc.Recalculate([]*models.RefuelingEntry{
		refuelEntry("2024-05-25", 10000, "28", 4800),
		refuelEntry("2024-06-05", 10500, "30", 4950),
		refuelEntry("2024-06-25", 11200, "35", 5600),
	})

	in := &Inputs{
		TollRecords: []*models.TollRecord{
			tollRecord("2024-06-03T07:30:00", 990),
			tollRecord("2024-06-03T17:45:00", 990), // same day, second trip
			tollRecord("2024-06-04T07:30:00", 990),
			tollRecord("2024-05-30T07:30:00", 990), // previous month
		},
		RefuelingEntries: entries,
		AllowanceHistory: allowanceHistory(),
	}

	a := NewAggregator()
	got := a.MonthBalance(in, 2024, time.June)

	if got.YearMonth != "2024-06" {
		t.Errorf("YearMonth = %s, want 2024-06", got.YearMonth)
	}
	if got.Allowance != 75000 {
		t.Errorf("Allowance = %d, want 75000", got.Allowance)
	}
	if got.TollTotal != 2970 {
		t.Errorf("TollTotal = %d, want 2970", got.TollTotal)
	}
	if got.CommuteDays != 2 {
		t.Errorf("CommuteDays = %d, want 2 (distinct entry dates)", got.CommuteDays)
	}
	if got.FuelAmount != 10550 {
		t.Errorf("FuelAmount = %d, want 10550", got.FuelAmount)
	}
	if got.DistanceKm != 1200 {
		t.Errorf("DistanceKm = %d, want 1200", got.DistanceKm)
	}
	if got.FuelSource != models.SourceRefueling {
		t.Errorf("FuelSource = %s, want refueling", got.FuelSource)
	}
	wantEfficiency := decimal.RequireFromString("18.34") // mean of 16.67 and 20
	if got.FuelEfficiency == nil || !got.FuelEfficiency.Equal(wantEfficiency) {
		t.Errorf("FuelEfficiency = %v, want %s", got.FuelEfficiency, wantEfficiency)
	}
	if want := int64(75000 - 2970 - 10550); got.Balance != want {
		t.Errorf("Balance = %d, want %d", got.Balance, want)
	}
}

func TestMonthBalance_ManualRecordTakesPrecedence(t *testing.T) {
	manualEfficiency := decimal.RequireFromString("17.5")
	in := &Inputs{
		RefuelingEntries: []*models.RefuelingEntry{
			refuelEntry("2024-06-05", 10500, "30", 4950),
		},
		MonthlyRecords: []*models.MonthlyRecord{
			{
				YearMonth:      "2024-06",
				Source:         models.SourceManual,
				DistanceKm:     800,
				FuelLiters:     decimal.RequireFromString("45"),
				FuelAmount:     7400,
				FuelEfficiency: &manualEfficiency,
			},
		},
		AllowanceHistory: allowanceHistory(),
	}

	a := NewAggregator()
	got := a.MonthBalance(in, 2024, time.June)

	if got.FuelSource != models.SourceManual {
		t.Fatalf("FuelSource = %s, want manual", got.FuelSource)
	}
	if got.FuelAmount != 7400 || got.DistanceKm != 800 {
		t.Errorf("manual amounts not used: fuel=%d distance=%d", got.FuelAmount, got.DistanceKm)
	}
	if got.FuelEfficiency == nil || !got.FuelEfficiency.Equal(manualEfficiency) {
		t.Errorf("FuelEfficiency = %v, want %s", got.FuelEfficiency, manualEfficiency)
	}
	if want := int64(75000 - 7400); got.Balance != want {
		t.Errorf("Balance = %d, want %d", got.Balance, want)
	}
}

func TestMonthBalance_NonManualMonthlyRecordIgnored(t *testing.T) {
	in := &Inputs{
		RefuelingEntries: []*models.RefuelingEntry{
			refuelEntry("2024-06-05", 10500, "30", 4950),
		},
		MonthlyRecords: []*models.MonthlyRecord{
			{
				YearMonth:  "2024-06",
				Source:     models.SourceRefueling,
				FuelLiters: decimal.RequireFromString("99"),
				FuelAmount: 99999,
			},
		},
		AllowanceHistory: allowanceHistory(),
	}

	a := NewAggregator()
	got := a.MonthBalance(in, 2024, time.June)

	if got.FuelSource != models.SourceRefueling {
		t.Errorf("FuelSource = %s, want refueling", got.FuelSource)
	}
	if got.FuelAmount != 4950 {
		t.Errorf("FuelAmount = %d, want 4950 (stale derived record must not win)", got.FuelAmount)
	}
}

func TestMonthBalance_EmptyMonth(t *testing.T) {
	a := NewAggregator()
	got := a.MonthBalance(&Inputs{AllowanceHistory: allowanceHistory()}, 2024, time.June)

	if got.TollTotal != 0 || got.FuelAmount != 0 || got.CommuteDays != 0 {
		t.Errorf("empty month must aggregate to zero costs: %+v", got)
	}
	if got.FuelEfficiency != nil {
		t.Errorf("FuelEfficiency = %s, want nil for an empty month", got.FuelEfficiency)
	}
	if got.Balance != 75000 {
		t.Errorf("Balance = %d, want the full allowance 75000", got.Balance)
	}
}

func TestYearToDate(t *testing.T) {
	in := &Inputs{
		TollRecords: []*models.TollRecord{
			tollRecord("2024-01-10T07:30:00", 990),
			tollRecord("2024-02-12T07:30:00", 990),
			tollRecord("2024-03-05T07:30:00", 990),
		},
		RefuelingEntries: []*models.RefuelingEntry{
			refuelEntry("2024-02-15", 10500, "30", 4950),
		},
		AllowanceHistory: allowanceHistory(),
	}

	a := NewAggregator()
	got := a.YearToDate(in, 2024, time.March)

	if len(got.Months) != 3 {
		t.Fatalf("YearToDate() produced %d months, want 3", len(got.Months))
	}
	if got.Allowance != 3*70000 {
		t.Errorf("Allowance = %d, want %d", got.Allowance, 3*70000)
	}
	if got.TollTotal != 2970 {
		t.Errorf("TollTotal = %d, want 2970", got.TollTotal)
	}
	if got.FuelAmount != 4950 {
		t.Errorf("FuelAmount = %d, want 4950", got.FuelAmount)
	}
	if want := got.Allowance - got.TollTotal - got.FuelAmount; got.Balance != want {
		t.Errorf("Balance = %d, want %d", got.Balance, want)
	}
}

func TestHistory(t *testing.T) {
	in := &Inputs{
		TollRecords: []*models.TollRecord{
			tollRecord("2024-04-10T07:30:00", 990),
			tollRecord("2024-06-12T07:30:00", 990),
		},
		AllowanceHistory: allowanceHistory(),
	}

	a := NewAggregator()
	got := a.History(in, 2024, time.June, 3)

	if len(got) != 3 {
		t.Fatalf("History() produced %d months, want 3", len(got))
	}
	wantKeys := []string{"2024-04", "2024-05", "2024-06"}
	for i, key := range wantKeys {
		if got[i].YearMonth != key {
			t.Errorf("History()[%d].YearMonth = %s, want %s", i, got[i].YearMonth, key)
		}
	}
	if got[0].TollTotal != 990 || got[1].TollTotal != 0 || got[2].TollTotal != 990 {
		t.Errorf("toll totals = %d, %d, %d; want 990, 0, 990",
			got[0].TollTotal, got[1].TollTotal, got[2].TollTotal)
	}
}

func TestHistory_SpansYearBoundary(t *testing.T) {
	a := NewAggregator()
	got := a.History(&Inputs{}, 2024, time.February, 4)

	wantKeys := []string{"2023-11", "2023-12", "2024-01", "2024-02"}
	for i, key := range wantKeys {
		if got[i].YearMonth != key {
			t.Errorf("History()[%d].YearMonth = %s, want %s", i, got[i].YearMonth, key)
		}
	}
}

func TestEfficiencyTrend(t *testing.T) {
	calc := fuel.NewCalculator()
	entries := calc.Recalculate([]*models.RefuelingEntry{
		refuelEntry("2024-03-01", 10000, "28", 4800),
		refuelEntry("2024-04-01", 10500, "30", 4950),
		refuelEntry("2024-05-01", 11200, "35", 5600),
		refuelEntry("2024-06-01", 11800, "30", 4950),
	})

	trend := EfficiencyTrend(entries, 2)

	if len(trend) != 2 {
		t.Fatalf("EfficiencyTrend() returned %d entries, want 2", len(trend))
	}
	// Oldest first, and only the last two with a derived efficiency
	if trend[0].ID != "2024-05-01" || trend[1].ID != "2024-06-01" {
		t.Errorf("trend order = %s, %s; want 2024-05-01, 2024-06-01", trend[0].ID, trend[1].ID)
	}
}

func TestEfficiencyTrend_SkipsUnderivedEntries(t *testing.T) {
	entries := []*models.RefuelingEntry{
		refuelEntry("2024-03-01", 10000, "28", 4800), // no derived efficiency
	}

	if trend := EfficiencyTrend(entries, 5); len(trend) != 0 {
		t.Errorf("EfficiencyTrend() returned %d entries, want 0", len(trend))
	}
}
