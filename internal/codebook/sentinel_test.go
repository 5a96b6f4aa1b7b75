package codebook

import (
	"reflect"
	"testing"

	"surveyetl/internal/table"
)

func TestSentinelSet_Match(t *testing.T) {
	t.Parallel()

	s := DefaultSentinels()
	tests := []struct {
		name string
		v    table.Value
		want bool
	}{
		{"dots", table.Text(".."), true},
		{"space", table.Text(" "), true},
		{"empty", table.Text(""), true},
		{"tabs_are_blank", table.Text("\t "), true},
		{"na", table.Text("NA"), true},
		{"n_slash_a", table.Text("N/A"), true},
		{"na_lowercase", table.Text("na"), false},
		{"code_998", table.Int(998), true},
		{"code_999_float", table.Number(999.0), true},
		{"code_998_text", table.Text(" 998 "), true},
		{"code_997", table.Int(997), false},
		{"fractional", table.Number(998.5), false},
		{"zero", table.Int(0), false},
		{"label", table.Text("Female"), false},
		{"missing", table.Missing, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := s.Match(tt.v); got != tt.want {
				t.Fatalf("Match(%v)=%v want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestSentinelSet_Listing(t *testing.T) {
	t.Parallel()

	s := DefaultSentinels()
	if got, want := s.Text(), []string{"", " ", "..", "N/A", "NA"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Text=%q want %q", got, want)
	}
	if got, want := s.Codes(), []int64{998, 999}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Codes=%v want %v", got, want)
	}
	if s.Len() != 7 {
		t.Fatalf("Len=%d", s.Len())
	}
}

// TestSentinelSet_NoBlankMarker checks that blank text is only a sentinel when
// "" is configured.
func TestSentinelSet_NoBlankMarker(t *testing.T) {
	t.Parallel()

	s := NewSentinelSet([]string{".."}, nil)
	if s.Match(table.Text("  ")) {
		t.Fatalf("blank must not match without the empty marker")
	}
	if s.Match(table.Int(998)) {
		t.Fatalf("998 must not match without numeric markers")
	}
}
