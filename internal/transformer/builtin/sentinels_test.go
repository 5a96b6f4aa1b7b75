package builtin

import (
	"testing"

	"surveyetl/internal/codebook"
	"surveyetl/internal/table"
)

/*
TestSentinelsApply_TableDriven covers the type-aware equality rule applied by
the normalizer over a single column.
*/
func TestSentinelsApply_TableDriven(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []table.Value
		want []table.Value
	}{
		{
			name: "numeric_codes",
			in:   []table.Value{n(998), n(999), n(1), table.Number(998.0), table.Number(998.5)},
			want: []table.Value{miss, miss, n(1), miss, table.Number(998.5)},
		},
		{
			name: "text_markers_exact",
			in:   []table.Value{s(".."), s("NA"), s("N/A"), s("na"), s("..."), s("Yes")},
			want: []table.Value{miss, miss, miss, s("na"), s("..."), s("Yes")},
		},
		{
			name: "blank_and_whitespace",
			in:   []table.Value{s(""), s(" "), s("   "), s("\t")},
			want: []table.Value{miss, miss, miss, miss},
		},
		{
			name: "numeric_codes_stored_as_text",
			in:   []table.Value{s("998"), s(" 999 "), s("1"), s("998.0")},
			want: []table.Value{miss, miss, s("1"), s("998.0")},
		},
		{
			name: "missing_unchanged",
			in:   []table.Value{miss, n(0)},
			want: []table.Value{miss, n(0)},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			in := mkTable(t, len(tt.in), col{"x", tt.in})
			orig := append([]table.Value(nil), tt.in...)

			out := Sentinels{Set: codebook.DefaultSentinels()}.Apply(in)

			if got := cells(t, out, "x"); !equalCells(got, tt.want) {
				t.Fatalf("got %v want %v", got, tt.want)
			}
			if !equalCells(cells(t, in, "x"), orig) {
				t.Fatalf("input mutated")
			}
		})
	}
}

// TestSentinelsApply_NoSentinelSurvives runs the normalizer over every marker
// in every column and checks that none matches afterwards.
func TestSentinelsApply_NoSentinelSurvives(t *testing.T) {
	t.Parallel()

	set := codebook.DefaultSentinels()
	var row []table.Value
	for _, m := range set.Text() {
		row = append(row, s(m))
	}
	for _, c := range set.Codes() {
		row = append(row, n(c), s(table.Int(c).String()))
	}
	row = append(row, n(1), s("Female"), miss)

	in := mkTable(t, len(row), col{"a", row}, col{"b", row})
	out := Sentinels{Set: set}.Apply(in)

	for _, c := range out.Columns() {
		for i, v := range c.Cells {
			if set.Match(v) {
				t.Fatalf("%s[%d]=%v still a sentinel", c.Name, i, v)
			}
		}
	}
	if out.Rows() != in.Rows() {
		t.Fatalf("row count changed")
	}
}

func TestSentinelsApply_ReportsPerColumn(t *testing.T) {
	t.Parallel()

	in := mkTable(t, 3,
		col{"a", []table.Value{n(998), s(".."), n(1)}},
		col{"b", []table.Value{n(1), n(2), n(3)}},
	)
	got := map[string]int{}
	Sentinels{
		Set:       codebook.DefaultSentinels(),
		OnReplace: func(c string, k int) { got[c] += k },
	}.Apply(in)

	if len(got) != 1 || got["a"] != 2 {
		t.Fatalf("replacements=%v want map[a:2]", got)
	}
}

func TestSentinelsApply_CustomSet(t *testing.T) {
	t.Parallel()

	set := codebook.NewSentinelSet([]string{"-"}, []int64{-1})
	in := mkTable(t, 4, col{"a", []table.Value{s("-"), n(-1), s(""), n(998)}})
	out := Sentinels{Set: set}.Apply(in)

	want := []table.Value{miss, miss, s(""), n(998)}
	if got := cells(t, out, "a"); !equalCells(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}
