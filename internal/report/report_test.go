package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"

	"surveyetl/internal/table"
)

func profileTable(t *testing.T) *table.Table {
	t.Helper()
	tb := table.New(4)
	add := func(name string, cells ...table.Value) {
		if err := tb.Append(name, cells); err != nil {
			t.Fatalf("append %s: %v", name, err)
		}
	}
	add("gender", table.Text("Female"), table.Text("Male"), table.Text("Female"), table.Missing)
	add("age", table.Int(34), table.Int(34), table.Int(71), table.Int(19))
	add("économie", table.Text("Côte d'Ivoire"), table.Int(1), table.Missing, table.Missing)
	add("empty", table.Missing, table.Missing, table.Missing, table.Missing)
	return tb
}

func TestProfile(t *testing.T) {
	t.Parallel()

	got := Profile(profileTable(t))
	want := []ColumnProfile{
		{Name: "gender", Kind: "text", Present: 3, Missing: 1, Distinct: 2},
		{Name: "age", Kind: "number", Present: 4, Missing: 0, Distinct: 3},
		{Name: "économie", Kind: "mixed", Present: 2, Missing: 2, Distinct: 2},
		{Name: "empty", Kind: "empty", Present: 0, Missing: 4, Distinct: 0},
	}
	if len(got) != len(want) {
		t.Fatalf("profiles=%d want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("profile %d = %+v want %+v", i, got[i], want[i])
		}
	}
}

// TestWrite_Aligned checks every rendered line has the same display width,
// including rows with accented names, and that counts are humanized.
func TestWrite_Aligned(t *testing.T) {
	t.Parallel()

	tb := profileTable(t)
	var buf bytes.Buffer
	if err := Write(&buf, tb.Rows(), Profile(tb)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 7 {
		t.Fatalf("lines=%d want 7:\n%s", len(lines), buf.String())
	}
	width := runewidth.StringWidth(lines[0])
	for _, l := range lines[:6] {
		if runewidth.StringWidth(l) != width {
			t.Fatalf("misaligned line %q (width %d, want %d)", l, runewidth.StringWidth(l), width)
		}
	}
	if !strings.Contains(lines[2], "25%") {
		t.Fatalf("gender row missing 25%%: %q", lines[2])
	}
	if lines[6] != "4 rows, 4 columns" {
		t.Fatalf("footer=%q", lines[6])
	}
}

func TestWrite_Thousands(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := Write(&buf, 12000, []ColumnProfile{{Name: "wgt", Kind: "number", Present: 12000, Distinct: 11873}})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"12,000", "11,873", "12,000 rows, 1 columns"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}
