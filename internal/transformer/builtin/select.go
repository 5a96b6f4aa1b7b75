// Package builtin contains the cleaning stages used by the pipeline driver.
package builtin

import "surveyetl/internal/table"

// Select keeps the columns named in Columns that exist in the input, in the
// input's column order. Names absent from the input are ignored.
type Select struct {
	Columns []string
}

// Apply returns a new table with copies of the selected columns. An empty
// intersection yields a table with the input's row count and no columns.
func (s Select) Apply(in *table.Table) *table.Table {
	want := make(map[string]struct{}, len(s.Columns))
	for _, c := range s.Columns {
		want[c] = struct{}{}
	}

	out := table.New(in.Rows())
	for _, col := range in.Columns() {
		if _, ok := want[col.Name]; !ok {
			continue
		}
		cells := make([]table.Value, len(col.Cells))
		copy(cells, col.Cells)
		// Names in a valid table are unique, so Append cannot fail.
		_ = out.Append(col.Name, cells)
	}
	return out
}

// Missing lists the declared names absent from in, in declaration order and
// without repeats.
func (s Select) Missing(in *table.Table) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, c := range s.Columns {
		if _, dup := seen[c]; dup || in.Has(c) {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
