package etcparser

import (
	"strings"
	"testing"
	"time"

	"commute-ledger/internal/models"
	"commute-ledger/pkg/errors"
)

const textualHeader = "利用年月日（自）,時分（自）,利用年月日（至）,時分（至）,利用ＩＣ（自）,利用ＩＣ（至）,割引前料金,還元額,割引後料金,通行区分,ＥＴＣ利用額,備考１,備考２,備考３,備考"

func TestParser_ParseText_Textual(t *testing.T) {
	content := strings.Join([]string{
		textualHeader,
		"25/04/15,07:30,25/04/15,08:05,東京,横浜,,,1320,,990,,,,朝夕割引",
		"25/04/15,17:45,25/04/15,18:20,横浜,東京,,,1320,,990,,,,朝夕割引",
	}, "\n")

	parser := NewParser(nil)
	records, stats, err := parser.ParseText(content)
	if err != nil {
		t.Fatalf("ParseText() error = %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("ParseText() returned %d records, want 2", len(records))
	}
	if stats.SkipCount() != 0 {
		t.Errorf("SkipCount() = %d, want 0", stats.SkipCount())
	}
	if stats.DateEncoding != EncodingTextual {
		t.Errorf("DateEncoding = %s, want %s", stats.DateEncoding, EncodingTextual)
	}

	first := records[0]
	wantEntry := time.Date(2025, 4, 15, 7, 30, 0, 0, time.UTC)
	if !first.EntryTime.Equal(wantEntry) {
		t.Errorf("EntryTime = %v, want %v", first.EntryTime, wantEntry)
	}
	if first.EntryIC != "東京" || first.ExitIC != "横浜" {
		t.Errorf("interchanges = (%s, %s), want (東京, 横浜)", first.EntryIC, first.ExitIC)
	}
	if first.TollFee != 1320 {
		t.Errorf("TollFee = %d, want 1320", first.TollFee)
	}
	if first.ActualPayment != 990 {
		t.Errorf("ActualPayment = %d, want 990", first.ActualPayment)
	}
	if first.Discount != models.DiscountMorningEvening {
		t.Errorf("Discount = %s, want %s", first.Discount, models.DiscountMorningEvening)
	}
	if first.Status != models.StatusTentative {
		t.Errorf("Status = %s, want %s", first.Status, models.StatusTentative)
	}
}

func TestParser_ParseText_SerialTabSeparated(t *testing.T) {
	content := strings.Join([]string{
		strings.ReplaceAll(textualHeader, ",", "\t"),
		"45762\t0.3125\t45762\t0.336805555555\t東京\t横浜\t\t\t1320\t\t990",
	}, "\n")

	parser := NewParser(nil)
	records, stats, err := parser.ParseText(content)
	if err != nil {
		t.Fatalf("ParseText() error = %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("ParseText() returned %d records, want 1", len(records))
	}
	if stats.DateEncoding != EncodingSerial {
		t.Errorf("DateEncoding = %s, want %s", stats.DateEncoding, EncodingSerial)
	}
	if stats.Delimiter != "\t" {
		t.Errorf("Delimiter = %q, want tab", stats.Delimiter)
	}

	wantEntry := time.Date(2025, 4, 15, 7, 30, 0, 0, time.UTC)
	if !records[0].EntryTime.Equal(wantEntry) {
		t.Errorf("EntryTime = %v, want %v", records[0].EntryTime, wantEntry)
	}
	wantExit := time.Date(2025, 4, 15, 8, 5, 0, 0, time.UTC)
	if !records[0].ExitTime.Equal(wantExit) {
		t.Errorf("ExitTime = %v, want %v", records[0].ExitTime, wantExit)
	}
}

// A malformed row is discarded with a reason; the batch continues.
func TestParser_ParseText_SkipsShortRow(t *testing.T) {
	content := strings.Join([]string{
		textualHeader,
		"25/04/15,07:30,25/04/15,08:05,東京,横浜,,,1320,,990",
		"25/04/16,07:30,25/04/16,08:05,東京,横浜,,1320", // 8 columns only
	}, "\n")

	parser := NewParser(nil)
	records, stats, err := parser.ParseText(content)
	if err != nil {
		t.Fatalf("ParseText() error = %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("ParseText() returned %d records, want exactly 1", len(records))
	}
	if stats.SkipCount() != 1 {
		t.Fatalf("SkipCount() = %d, want 1", stats.SkipCount())
	}
	skip := stats.Skipped[0]
	if skip.Line != 3 {
		t.Errorf("Skipped line = %d, want 3", skip.Line)
	}
	if !strings.Contains(skip.Message, "columns") {
		t.Errorf("skip message %q should mention column count", skip.Message)
	}
}

func TestParser_ParseText_SkipsBadValues(t *testing.T) {
	tests := []struct {
		name string
		row  string
	}{
		{"Bad date", "25/04/40,07:30,25/04/15,08:05,東京,横浜,,,1320,,990"},
		{"Bad time", "25/04/15,99:99,25/04/15,08:05,東京,横浜,,,1320,,990"},
		{"Bad toll fee", "25/04/15,07:30,25/04/15,08:05,東京,横浜,,,abc,,990"},
		{"Bad payment", "25/04/15,07:30,25/04/15,08:05,東京,横浜,,,1320,,xyz"},
	}

	parser := NewParser(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := strings.Join([]string{
				textualHeader,
				"25/04/15,07:30,25/04/15,08:05,東京,横浜,,,1320,,990",
				tt.row,
			}, "\n")

			records, stats, err := parser.ParseText(content)
			if err != nil {
				t.Fatalf("ParseText() error = %v", err)
			}
			if len(records) != 1 {
				t.Errorf("ParseText() returned %d records, want 1 (bad row skipped)", len(records))
			}
			if stats.SkipCount() != 1 {
				t.Errorf("SkipCount() = %d, want 1", stats.SkipCount())
			}
		})
	}
}

func TestParser_ParseText_EmptyAmountsAreZero(t *testing.T) {
	content := strings.Join([]string{
		textualHeader,
		"25/04/15,07:30,25/04/15,08:05,東京,横浜,,,,,",
	}, "\n")

	parser := NewParser(nil)
	records, _, err := parser.ParseText(content)
	if err != nil {
		t.Fatalf("ParseText() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("ParseText() returned %d records, want 1", len(records))
	}
	if records[0].TollFee != 0 || records[0].ActualPayment != 0 {
		t.Errorf("empty amount fields must parse as zero, got fee=%d paid=%d",
			records[0].TollFee, records[0].ActualPayment)
	}
}

func TestParser_ParseText_NoData(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"Empty input", ""},
		{"Header only", textualHeader},
		{"Header and blank lines", textualHeader + "\n\n  \n"},
	}

	parser := NewParser(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, _, err := parser.ParseText(tt.content)
			if err != nil {
				t.Fatalf("ParseText() error = %v, want empty result without failure", err)
			}
			if len(records) != 0 {
				t.Errorf("ParseText() returned %d records, want 0", len(records))
			}
		})
	}
}

func TestParser_ParseText_MixedLineEndings(t *testing.T) {
	content := textualHeader + "\r\n" +
		"25/04/15,07:30,25/04/15,08:05,東京,横浜,,,1320,,990\r" +
		"25/04/16,07:30,25/04/16,08:05,東京,横浜,,,1320,,990\n"

	parser := NewParser(nil)
	records, _, err := parser.ParseText(content)
	if err != nil {
		t.Fatalf("ParseText() error = %v", err)
	}
	if len(records) != 2 {
		t.Errorf("ParseText() returned %d records, want 2", len(records))
	}
}

func TestClassifyDiscount(t *testing.T) {
	tests := []struct {
		notes string
		want  models.DiscountType
	}{
		{"朝夕割引適用", models.DiscountMorningEvening},
		{"深夜割引", models.DiscountLateNight},
		{"休日割引", models.DiscountHoliday},
		{"朝夕・休日", models.DiscountMorningEvening}, // first marker wins
		{"特別割引", models.DiscountNone},
		{"", models.DiscountNone},
	}

	for _, tt := range tests {
		t.Run(tt.notes, func(t *testing.T) {
			if got := ClassifyDiscount(tt.notes); got != tt.want {
				t.Errorf("ClassifyDiscount(%q) = %q, want %q", tt.notes, got, tt.want)
			}
		})
	}
}

func TestParser_ParseBytes_ASCIIContent(t *testing.T) {
	content := []byte(strings.Join([]string{
		"entry_date,entry_time,exit_date,exit_time,entry_ic,exit_ic,c6,c7,toll,c9,paid",
		"25/04/15,07:30,25/04/15,08:05,TOKYO,YOKOHAMA,,,1320,,990",
	}, "\n"))

	parser := NewParser(nil)
	records, stats, err := parser.ParseBytes(content)
	if err != nil {
		t.Fatalf("ParseBytes() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("ParseBytes() returned %d records, want 1", len(records))
	}
	// ASCII decodes identically under the first candidate
	if stats.CharEncoding != "windows-31j" {
		t.Errorf("CharEncoding = %s, want windows-31j", stats.CharEncoding)
	}
}

func TestParser_ParseBytes_UTF8Content(t *testing.T) {
	content := []byte(strings.Join([]string{
		textualHeader,
		"25/04/15,07:30,25/04/15,08:05,東京,横浜,,,1320,,990,,,,休日割引",
	}, "\n"))

	parser := NewParser(nil)
	records, _, err := parser.ParseBytes(content)
	if err != nil {
		t.Fatalf("ParseBytes() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("ParseBytes() returned %d records, want 1", len(records))
	}
	if records[0].Discount != models.DiscountHoliday {
		t.Errorf("Discount = %q, want %q", records[0].Discount, models.DiscountHoliday)
	}
}

func TestParser_ParseBytes_AllEncodingsFail(t *testing.T) {
	content := []byte("garbage without any data rows")

	parser := NewParser(nil)
	_, _, err := parser.ParseBytes(content)
	if err == nil {
		t.Fatalf("ParseBytes() expected failure when nothing parses")
	}

	ledgerErr, ok := errors.AsLedgerError(err)
	if !ok {
		t.Fatalf("error should be a structured LedgerError, got %T", err)
	}
	if ledgerErr.Code != errors.CodeEncodingExhausted {
		t.Errorf("Code = %s, want %s", ledgerErr.Code, errors.CodeEncodingExhausted)
	}
	if ledgerErr.Context["content_length"] != len(content) {
		t.Errorf("Context[content_length] = %v, want %d", ledgerErr.Context["content_length"], len(content))
	}
}

func TestParser_FinalizedBatchStatus(t *testing.T) {
	content := strings.Join([]string{
		textualHeader,
		"25/04/15,07:30,25/04/15,08:05,東京,横浜,,,1320,,990",
	}, "\n")

	parser := NewParser(&Config{DefaultStatus: models.StatusFinalized})
	records, _, err := parser.ParseText(content)
	if err != nil {
		t.Fatalf("ParseText() error = %v", err)
	}
	if records[0].Status != models.StatusFinalized {
		t.Errorf("Status = %s, want %s", records[0].Status, models.StatusFinalized)
	}
}
