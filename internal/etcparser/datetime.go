package etcparser

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"commute-ledger/pkg/errors"
)

// The spreadsheet epoch. Day 1 is 1900-01-01, but the conventional format
// counts a 1900-02-29 that never existed, so day counts convert correctly
// against 1899-12-30.
var serialEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// minutesPerDay converts a day fraction into whole minutes
const minutesPerDay = 24 * 60

// SerialToDate converts a spreadsheet serial day count to a date.
// Fractional days are ignored; the time of day comes from a separate
// time-fraction column.
func SerialToDate(serial float64) time.Time {
	return serialEpoch.AddDate(0, 0, int(serial))
}

// TimeFractionToClock converts a day fraction in [0,1) to hours and
// minutes, truncating to whole minutes. Exported fractions encode exact
// minutes whose binary representation can land a hair under the minute
// boundary, so truncation applies a sub-millisecond guard.
func TimeFractionToClock(fraction float64) (int, int) {
	totalMinutes := int(fraction*minutesPerDay + 1e-6)
	return totalMinutes / 60, totalMinutes % 60
}

// ParseDateYMD parses a YY/MM/DD date. Two-digit years are interpreted as
// 2000+YY. Malformed or out-of-range input yields a structured validation
// error; the caller decides whether to skip the row.
func ParseDateYMD(value string) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(value), "/")
	if len(parts) != 3 {
		return time.Time{}, errors.ValidationError(errors.CodeInvalidDate, "date", value,
			fmt.Errorf("expected YY/MM/DD, got %d parts", len(parts)))
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, errors.ValidationError(errors.CodeInvalidDate, "date", value, err)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, errors.ValidationError(errors.CodeInvalidDate, "date", value, err)
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, errors.ValidationError(errors.CodeInvalidDate, "date", value, err)
	}

	if year < 100 {
		year += 2000
	}

	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes out-of-range components; reject instead
	if date.Year() != year || date.Month() != time.Month(month) || date.Day() != day {
		return time.Time{}, errors.ValidationError(errors.CodeInvalidDate, "date", value,
			fmt.Errorf("month or day out of range"))
	}

	return date, nil
}

// ParseTimeHM parses an HH:MM time of day into hours and minutes
func ParseTimeHM(value string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) < 2 {
		return 0, 0, errors.ValidationError(errors.CodeInvalidDate, "time", value,
			fmt.Errorf("expected HH:MM"))
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, errors.ValidationError(errors.CodeInvalidDate, "time", value, err)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, errors.ValidationError(errors.CodeInvalidDate, "time", value, err)
	}

	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, errors.ValidationError(errors.CodeOutOfRange, "time", value,
			fmt.Errorf("clock value out of range"))
	}

	return hour, minute, nil
}

// combineClock applies a time of day to a date
func combineClock(date time.Time, hour, minute int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location())
}

// ParseSerialTimestamp builds a canonical timestamp from a serial day-count
// field and a day-fraction field.
func ParseSerialTimestamp(dateField, timeField string) (time.Time, error) {
	serial, err := strconv.ParseFloat(strings.TrimSpace(dateField), 64)
	if err != nil {
		return time.Time{}, errors.ValidationError(errors.CodeInvalidDate, "date", dateField, err)
	}

	fraction, err := strconv.ParseFloat(strings.TrimSpace(timeField), 64)
	if err != nil {
		return time.Time{}, errors.ValidationError(errors.CodeInvalidDate, "time", timeField, err)
	}

	hour, minute := TimeFractionToClock(fraction)
	return combineClock(SerialToDate(serial), hour, minute), nil
}

// ParseTextTimestamp builds a canonical timestamp from a YY/MM/DD date
// field and an HH:MM time field. Equivalent serial and textual inputs
// produce identical timestamps.
func ParseTextTimestamp(dateField, timeField string) (time.Time, error) {
	date, err := ParseDateYMD(dateField)
	if err != nil {
		return time.Time{}, err
	}

	hour, minute, err := ParseTimeHM(timeField)
	if err != nil {
		return time.Time{}, err
	}

	return combineClock(date, hour, minute), nil
}
