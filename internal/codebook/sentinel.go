package codebook

import (
	"sort"
	"strconv"
	"strings"

	"surveyetl/internal/table"
)

// SentinelSet holds the raw values that mean "no data" in the source encoding.
//
// Matching is type-aware:
//   - number cells match a numeric sentinel by numeric equality (998.0 == 998);
//   - text cells match a text sentinel by exact string equality, except that a
//     blank or whitespace-only string matches the "" sentinel;
//   - text cells whose trimmed content is an integer equal to a numeric
//     sentinel ("998") match too, for code columns stored as text;
//   - missing cells never match (they are already normalized).
type SentinelSet struct {
	text  map[string]struct{}
	codes map[int64]struct{}
}

// NewSentinelSet builds a set from text and numeric markers.
func NewSentinelSet(text []string, codes []int64) SentinelSet {
	s := SentinelSet{
		text:  make(map[string]struct{}, len(text)),
		codes: make(map[int64]struct{}, len(codes)),
	}
	for _, t := range text {
		s.text[t] = struct{}{}
	}
	for _, c := range codes {
		s.codes[c] = struct{}{}
	}
	return s
}

// DefaultSentinels returns the extract's markers: "..", " ", "", "NA", "N/A",
// 998 and 999.
func DefaultSentinels() SentinelSet {
	return NewSentinelSet([]string{"..", " ", "", "NA", "N/A"}, []int64{998, 999})
}

// Match reports whether v is a sentinel.
func (s SentinelSet) Match(v table.Value) bool {
	switch v.Kind() {
	case table.KindNumber:
		c, ok := v.Code()
		if !ok {
			return false
		}
		_, hit := s.codes[c]
		return hit
	case table.KindText:
		str, _ := v.Str()
		if _, hit := s.text[str]; hit {
			return true
		}
		trimmed := strings.TrimSpace(str)
		if trimmed == "" {
			_, hit := s.text[""]
			return hit
		}
		if c, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			_, hit := s.codes[c]
			return hit
		}
		return false
	default:
		return false
	}
}

// Text returns the text markers, sorted.
func (s SentinelSet) Text() []string {
	out := make([]string, 0, len(s.text))
	for t := range s.text {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Codes returns the numeric markers, sorted.
func (s SentinelSet) Codes() []int64 {
	out := make([]int64, 0, len(s.codes))
	for c := range s.codes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len returns the number of markers.
func (s SentinelSet) Len() int { return len(s.text) + len(s.codes) }
