package exporter

import (
	"encoding/csv"
	"io"

	"surveyetl/internal/table"
)

// CSVWriter writes a header row followed by one record per row, without an
// index column. Missing cells are empty fields.
type CSVWriter struct {
	// Comma is the field delimiter. When zero, ',' is used.
	Comma rune
}

func (c CSVWriter) Write(w io.Writer, t *table.Table) error {
	cw := csv.NewWriter(w)
	if c.Comma != 0 {
		cw.Comma = c.Comma
	}
	if err := cw.Write(t.Names()); err != nil {
		return err
	}
	cols := t.Columns()
	rec := make([]string, len(cols))
	for r := 0; r < t.Rows(); r++ {
		for j, col := range cols {
			rec[j] = col.Cells[r].String()
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
