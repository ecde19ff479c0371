// Package etcparser parses CSV/TSV exports from the ETC usage inquiry
// service into canonical toll usage records.
//
// The service produces two incompatible format families:
//   - direct downloads: comma-separated, textual YY/MM/DD dates and HH:MM
//     times, usually Shift-JIS encoded
//   - spreadsheet re-exports: tab-separated, dates as spreadsheet serial
//     day counts and times as day fractions
//
// The parser sniffs delimiter and date encoding from the first data line,
// normalizes both encodings to one canonical timestamp form, and skips
// malformed rows without aborting the batch. Skipped rows are reported as
// structured diagnostics alongside the parsed records.
package etcparser

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"commute-ledger/internal/models"
	"commute-ledger/pkg/errors"
	"commute-ledger/pkg/logger"

	"golang.org/x/text/encoding/ianaindex"
)

// Column layout of the export (0-indexed). Columns 6-7, 9 and 11-13 are
// unused by this tool.
const (
	colEntryDate = 0
	colEntryTime = 1
	colExitDate  = 2
	colExitTime  = 3
	colEntryIC   = 4
	colExitIC    = 5
	colTollFee   = 8
	colPayment   = 10
	colNotes     = 14

	// minColumns is the minimum field count for a parseable data row
	minColumns = 11
)

// discountMarkers lists the note-column substrings that classify a
// discount, in match priority order. First match wins.
var discountMarkers = []models.DiscountType{
	models.DiscountMorningEvening,
	models.DiscountLateNight,
	models.DiscountHoliday,
}

// encodingCandidates is the byte-decode fallback order. The first encoding
// that yields at least one parsed record wins. windows-31j and shift_jis
// resolve to the same WHATWG decoder under x/text; both names are kept for
// parity with the inquiry service's documented fallback chain.
var encodingCandidates = []string{"windows-31j", "utf-8", "shift_jis"}

// SkipReason records why a data row was discarded. Row-level failures
// never abort the batch; they are collected so callers can surface them.
type SkipReason struct {
	Line    int    `json:"line"`
	Field   string `json:"field,omitempty"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (s *SkipReason) Error() string {
	if s.Err != nil {
		return fmt.Sprintf("line %d skipped (%s='%s'): %s: %v", s.Line, s.Field, s.Value, s.Message, s.Err)
	}
	return fmt.Sprintf("line %d skipped: %s", s.Line, s.Message)
}

// ParseStats holds statistics about a parsing operation
type ParseStats struct {
	TotalLines    int           `json:"total_lines"`
	RecordsParsed int           `json:"records_parsed"`
	Skipped       []*SkipReason `json:"skipped,omitempty"`
	Delimiter     string        `json:"delimiter,omitempty"`
	DateEncoding  DateEncoding  `json:"date_encoding,omitempty"`
	CharEncoding  string        `json:"char_encoding,omitempty"`
}

// SkipCount returns the number of discarded rows
func (ps *ParseStats) SkipCount() int {
	return len(ps.Skipped)
}

// String returns a human-readable summary of parsing statistics
func (ps *ParseStats) String() string {
	return fmt.Sprintf("Parsed %d lines, %d records, %d skipped",
		ps.TotalLines, ps.RecordsParsed, ps.SkipCount())
}

// Config holds configuration for the ETC parser
type Config struct {
	// DefaultStatus is assigned to every parsed record. The CSV itself
	// carries no billing status; it is supplied externally per batch.
	DefaultStatus models.RecordStatus
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		DefaultStatus: models.StatusTentative,
	}
}

// Parser parses ETC usage inquiry exports
type Parser struct {
	config *Config
	logger logger.Logger
}

// NewParser creates a new Parser with the given configuration
func NewParser(config *Config) *Parser {
	if config == nil {
		config = DefaultConfig()
	}
	if config.DefaultStatus == "" {
		config.DefaultStatus = models.StatusTentative
	}

	return &Parser{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("etc_parser"),
	}
}

// ClassifyDiscount extracts the discount classification from the free-text
// notes column. Markers are checked in a fixed order; no match means no
// discount.
func ClassifyDiscount(notes string) models.DiscountType {
	if notes == "" {
		return models.DiscountNone
	}

	for _, marker := range discountMarkers {
		if strings.Contains(notes, string(marker)) {
			return marker
		}
	}

	return models.DiscountNone
}

// ParseBytes decodes raw export bytes and parses them, trying candidate
// character encodings in a fixed order. The first encoding that yields at
// least one record wins. If every candidate fails, the returned error
// carries the content length and the last row-level error for diagnostics.
func (p *Parser) ParseBytes(content []byte) ([]*models.TollRecord, *ParseStats, error) {
	var lastErr error

	for _, name := range encodingCandidates {
		text, err := decodeAs(content, name)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", name, err)
			continue
		}

		records, stats, err := p.ParseText(text)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", name, err)
			continue
		}

		if len(records) > 0 {
			stats.CharEncoding = name
			p.logger.WithFields(logger.Fields{
				"encoding":       name,
				"records_parsed": len(records),
				"rows_skipped":   stats.SkipCount(),
			}).Debug("Decoded and parsed export")
			return records, stats, nil
		}

		if stats.SkipCount() > 0 {
			lastErr = fmt.Errorf("%s: %s", name, stats.Skipped[len(stats.Skipped)-1].Error())
		}
	}

	lastMessage := "no rows found"
	if lastErr != nil {
		lastMessage = lastErr.Error()
	}

	p.logger.WithFields(logger.Fields{
		"content_length": len(content),
		"last_error":     lastMessage,
	}).Error("All candidate encodings failed")

	return nil, nil, errors.ParseError(errors.CodeEncodingExhausted, 0, "content", "", lastErr).
		WithContext("content_length", len(content)).
		WithContext("last_error", lastMessage)
}

// decodeAs decodes content using the named IANA character encoding. For
// UTF-8 the bytes are validated rather than transformed; the Japanese
// decoders substitute rather than fail, so wrong-encoding guesses are
// caught by the ≥1-parsed-record criterion instead.
func decodeAs(content []byte, name string) (string, error) {
	if name == "utf-8" {
		if !utf8.Valid(content) {
			return "", errors.ParseError(errors.CodeEncodingError, 0, "utf-8 validation", "", nil)
		}
		return string(content), nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return "", errors.ParseError(errors.CodeEncodingError, 0, name, "", err)
	}

	decoded, err := enc.NewDecoder().Bytes(content)
	if err != nil {
		return "", errors.ParseError(errors.CodeEncodingError, 0, name, "", err)
	}

	return string(decoded), nil
}

// ParseText parses decoded export text into toll usage records.
//
// The header line is dropped; every remaining non-blank line either yields
// one record or one SkipReason. A file with no data rows yields an empty
// batch, not an error.
func (p *Parser) ParseText(text string) ([]*models.TollRecord, *ParseStats, error) {
	stats := &ParseStats{}

	normalized := strings.ReplaceAll(strings.TrimSpace(text), "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	lines := strings.Split(normalized, "\n")
	stats.TotalLines = len(lines)

	if len(lines) < 2 {
		return []*models.TollRecord{}, stats, nil
	}

	var dataLines []string
	var lineNumbers []int
	for i, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		dataLines = append(dataLines, line)
		lineNumbers = append(lineNumbers, i+2) // 1-based, after header
	}

	if len(dataLines) == 0 {
		return []*models.TollRecord{}, stats, nil
	}

	delimiter, dateEncoding := DetectFormat(dataLines[0])
	stats.Delimiter = delimiter
	stats.DateEncoding = dateEncoding

	records := make([]*models.TollRecord, 0, len(dataLines))
	for i, line := range dataLines {
		record, skip := p.parseLine(strings.TrimSpace(line), lineNumbers[i], delimiter, dateEncoding)
		if skip != nil {
			stats.Skipped = append(stats.Skipped, skip)
			continue
		}
		records = append(records, record)
	}

	stats.RecordsParsed = len(records)
	return records, stats, nil
}

// parseLine converts one data row into a record, or explains why it was
// skipped
func (p *Parser) parseLine(line string, lineNumber int, delimiter string, dateEncoding DateEncoding) (*models.TollRecord, *SkipReason) {
	cols := strings.Split(line, delimiter)
	if len(cols) < minColumns {
		return nil, &SkipReason{
			Line:    lineNumber,
			Message: fmt.Sprintf("row has %d columns, need at least %d", len(cols), minColumns),
		}
	}

	var entry, exit time.Time
	var err error

	switch dateEncoding {
	case EncodingSerial:
		entry, err = ParseSerialTimestamp(cols[colEntryDate], cols[colEntryTime])
		if err == nil {
			exit, err = ParseSerialTimestamp(cols[colExitDate], cols[colExitTime])
		}
	default:
		entry, err = ParseTextTimestamp(cols[colEntryDate], cols[colEntryTime])
		if err == nil {
			exit, err = ParseTextTimestamp(cols[colExitDate], cols[colExitTime])
		}
	}
	if err != nil {
		return nil, &SkipReason{
			Line:    lineNumber,
			Field:   "timestamp",
			Value:   cols[colEntryDate],
			Message: "could not build entry/exit timestamps",
			Err:     err,
		}
	}

	tollFee, err := parseAmountField(cols[colTollFee])
	if err != nil {
		return nil, &SkipReason{
			Line:    lineNumber,
			Field:   "toll_fee",
			Value:   cols[colTollFee],
			Message: "toll fee is not an integer",
			Err:     err,
		}
	}

	payment, err := parseAmountField(cols[colPayment])
	if err != nil {
		return nil, &SkipReason{
			Line:    lineNumber,
			Field:   "actual_payment",
			Value:   cols[colPayment],
			Message: "actual payment is not an integer",
			Err:     err,
		}
	}

	notes := ""
	if len(cols) > colNotes {
		notes = cols[colNotes]
	}

	record := models.NewTollRecord(entry, exit, cols[colEntryIC], cols[colExitIC], tollFee, payment)
	record.Discount = ClassifyDiscount(notes)
	record.Status = p.config.DefaultStatus

	if err := record.Validate(); err != nil {
		return nil, &SkipReason{
			Line:    lineNumber,
			Message: "record failed validation",
			Err:     err,
		}
	}

	return record, nil
}

// parseAmountField reads an integer yen amount; an empty field means zero
func parseAmountField(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, nil
	}

	amount, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return 0, err
	}

	return amount, nil
}
