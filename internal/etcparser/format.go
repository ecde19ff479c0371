package etcparser

import (
	"strconv"
	"strings"
)

// DateEncoding identifies how the export encodes its date and time columns
type DateEncoding string

const (
	// EncodingSerial marks spreadsheet-exported files: dates are day counts
	// since the spreadsheet epoch, times are day fractions
	EncodingSerial DateEncoding = "serial"
	// EncodingTextual marks direct downloads: dates are YY/MM/DD, times
	// are HH:MM
	EncodingTextual DateEncoding = "textual"
)

// DetectFormat inspects the first data line and determines the field
// delimiter and the date encoding.
//
// A tab anywhere in the line wins over comma. The first field parsing as a
// floating point number implies serial encoding. The heuristic never fails;
// ambiguous input falls back to comma-delimited textual, which is a known
// approximation of the source formats.
func DetectFormat(firstDataLine string) (string, DateEncoding) {
	delimiter := ","
	if strings.Contains(firstDataLine, "\t") {
		delimiter = "\t"
	}

	cols := strings.Split(firstDataLine, delimiter)

	encoding := EncodingTextual
	if len(cols) > 0 {
		if _, err := strconv.ParseFloat(strings.TrimSpace(cols[0]), 64); err == nil {
			encoding = EncodingSerial
		}
	}

	return delimiter, encoding
}
