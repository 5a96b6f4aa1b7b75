package builtin

import (
	"surveyetl/internal/codebook"
	"surveyetl/internal/table"
)

// Sentinels replaces every cell matching Set with the missing marker.
// OnReplace, when set, is called once per column that had replacements.
type Sentinels struct {
	Set       codebook.SentinelSet
	OnReplace func(column string, n int)
}

// Apply returns a table in which no cell matches Set. Columns without a match
// share their cells with the input.
func (s Sentinels) Apply(in *table.Table) *table.Table {
	out := in.Shallow()
	for _, col := range in.Columns() {
		var cells []table.Value
		n := 0
		for i, v := range col.Cells {
			if !s.Set.Match(v) {
				continue
			}
			if cells == nil {
				cells = make([]table.Value, len(col.Cells))
				copy(cells, col.Cells)
			}
			cells[i] = table.Missing
			n++
		}
		if n == 0 {
			continue
		}
		_ = out.Replace(col.Name, col.Name, cells)
		if s.OnReplace != nil {
			s.OnReplace(col.Name, n)
		}
	}
	return out
}
