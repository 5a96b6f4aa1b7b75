// Package table holds the in-memory, column-major table that flows through the
// cleaning pipeline. Cells are typed so that sentinel and recode lookups can
// compare numbers as numbers and text as text, instead of relying on loose
// coercion at comparison time.
package table

import (
	"math"
	"strconv"
	"strings"
)

// Kind enumerates the cell kinds.
type Kind uint8

const (
	// KindMissing is the canonical missing marker. It is the zero Kind, so the
	// zero Value is missing.
	KindMissing Kind = iota
	// KindText is a string cell.
	KindText
	// KindNumber is a numeric cell stored as float64.
	KindNumber
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	default:
		return "missing"
	}
}

// Value is a single table cell.
type Value struct {
	kind Kind
	s    string
	n    float64
}

// Missing is the canonical missing marker. It never compares equal to a text
// or number cell, including Text("") and Number(0).
var Missing = Value{}

// Text returns a text cell holding s verbatim.
func Text(s string) Value { return Value{kind: KindText, s: s} }

// Number returns a numeric cell. NaN is stored as Missing.
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Missing
	}
	return Value{kind: KindNumber, n: f}
}

// Int returns a numeric cell holding an integral code.
func Int(i int64) Value { return Value{kind: KindNumber, n: float64(i)} }

// Parse infers a cell from raw reader text. Finite decimal numbers (after
// trimming) become number cells; everything else, including the empty string,
// stays text so that sentinel normalization sees the original spelling.
// Numbers that a float64 cannot give back verbatim stay text as well: zero
// padded identifiers ("004") and anything past 15 significant digits.
func Parse(raw string) Value {
	s := strings.TrimSpace(raw)
	if s == "" || !looksNumeric(s) || !survivesFloat(s) {
		return Text(raw)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return Text(raw)
	}
	return Value{kind: KindNumber, n: f}
}

// looksNumeric rejects spellings ParseFloat accepts but survey extracts never
// use as numbers ("NaN", "Inf", hex floats, digit separators).
func looksNumeric(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c == '.', c == '-', c == '+', c == 'e', c == 'E':
		default:
			return false
		}
	}
	return true
}

// maxFloatDigits is the number of significant decimal digits a float64
// always reproduces.
const maxFloatDigits = 15

// survivesFloat reports whether the numeric spelling s keeps its meaning
// once stored as a float64.
func survivesFloat(s string) bool {
	s = strings.TrimLeft(s, "+-")
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		s = s[:i]
	}
	intPart := s
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart = s[:i]
	}
	if len(intPart) > 1 && intPart[0] == '0' {
		return false
	}
	digits := strings.TrimLeft(strings.Replace(s, ".", "", 1), "0")
	return len(digits) <= maxFloatDigits
}

// Kind reports the cell kind.
func (v Value) Kind() Kind { return v.kind }

// IsMissing reports whether v is the canonical missing marker.
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// Str returns the text of a text cell.
func (v Value) Str() (string, bool) {
	if v.kind != KindText {
		return "", false
	}
	return v.s, true
}

// Num returns the value of a number cell.
func (v Value) Num() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.n, true
}

// Code returns the integral value of a number cell. Non-integral numbers and
// non-number cells report false.
func (v Value) Code() (int64, bool) {
	if v.kind != KindNumber || v.n != math.Trunc(v.n) {
		return 0, false
	}
	if v.n > math.MaxInt64 || v.n < math.MinInt64 {
		return 0, false
	}
	return int64(v.n), true
}

// String renders the cell for delimited output. Missing renders as "".
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.s
	case KindNumber:
		if c, ok := v.Code(); ok {
			return strconv.FormatInt(c, 10)
		}
		return strconv.FormatFloat(v.n, 'g', -1, 64)
	default:
		return ""
	}
}

// Any returns nil, string, int64 (integral numbers) or float64. It is the form
// handed to spreadsheet and database writers.
func (v Value) Any() any {
	switch v.kind {
	case KindText:
		return v.s
	case KindNumber:
		if c, ok := v.Code(); ok {
			return c
		}
		return v.n
	default:
		return nil
	}
}

// Equal reports kind-and-value equality. Missing equals only Missing.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindText:
		return v.s == o.s
	case KindNumber:
		return v.n == o.n
	default:
		return true
	}
}
