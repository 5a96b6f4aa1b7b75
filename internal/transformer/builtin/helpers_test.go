package builtin

import (
	"testing"

	"surveyetl/internal/table"
)

type col struct {
	name  string
	cells []table.Value
}

func mkTable(t *testing.T, rows int, cols ...col) *table.Table {
	t.Helper()
	tb := table.New(rows)
	for _, c := range cols {
		if err := tb.Append(c.name, c.cells); err != nil {
			t.Fatalf("append %s: %v", c.name, err)
		}
	}
	return tb
}

func cells(t *testing.T, tb *table.Table, name string) []table.Value {
	t.Helper()
	c, ok := tb.Column(name)
	if !ok {
		t.Fatalf("column %q missing; have %v", name, tb.Names())
	}
	return c
}

func equalCells(a, b []table.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

var (
	n    = table.Int
	s    = table.Text
	miss = table.Missing
)
