package etcparser

import "testing"

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name          string
		line          string
		wantDelimiter string
		wantEncoding  DateEncoding
	}{
		{
			name:          "Tab separated serial dates",
			line:          "45762\t0.3125\t45762\t0.3333\t東京\t横浜\t\t\t1320\t\t990",
			wantDelimiter: "\t",
			wantEncoding:  EncodingSerial,
		},
		{
			name:          "Comma separated textual dates",
			line:          "25/04/15,07:30,25/04/15,08:05,東京,横浜,,,1320,,990",
			wantDelimiter: ",",
			wantEncoding:  EncodingTextual,
		},
		{
			name:          "Tab wins over comma",
			line:          "45762\t0.3125,extra\t45762\t0.3333\tA\tB\t\t\t100\t\t100",
			wantDelimiter: "\t",
			wantEncoding:  EncodingSerial,
		},
		{
			name:          "Comma separated serial dates",
			line:          "45762,0.3125,45762,0.3333,A,B,,,100,,100",
			wantDelimiter: ",",
			wantEncoding:  EncodingSerial,
		},
		{
			// A numeric-looking first field always selects serial decoding;
			// the heuristic carries no ambiguity signal.
			name:          "Bare number in comma file stays serial",
			line:          "12345,foo",
			wantDelimiter: ",",
			wantEncoding:  EncodingSerial,
		},
		{
			name:          "Empty line falls back to comma textual",
			line:          "",
			wantDelimiter: ",",
			wantEncoding:  EncodingTextual,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delimiter, encoding := DetectFormat(tt.line)
			if delimiter != tt.wantDelimiter {
				t.Errorf("DetectFormat() delimiter = %q, want %q", delimiter, tt.wantDelimiter)
			}
			if encoding != tt.wantEncoding {
				t.Errorf("DetectFormat() encoding = %s, want %s", encoding, tt.wantEncoding)
			}
		})
	}
}
