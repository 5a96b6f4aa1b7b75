package parser

import (
	"fmt"

	"surveyetl/internal/table"
)

// Builder accumulates rows column by column. Cells are inferred with
// table.Parse.
type Builder struct {
	names []string
	cols  [][]table.Value
	rows  int
}

// NewBuilder starts a table with the given canonical header.
func NewBuilder(names []string) *Builder {
	return &Builder{names: names, cols: make([][]table.Value, len(names))}
}

// Width is the header width.
func (b *Builder) Width() int { return len(b.names) }

// Add appends one row. Short rows are padded with missing cells; rows wider
// than the header are an error.
func (b *Builder) Add(row []string) error {
	if len(row) > len(b.names) {
		return fmt.Errorf("row %d has %d fields, header has %d", b.rows+1, len(row), len(b.names))
	}
	for i := range b.names {
		v := table.Missing
		if i < len(row) {
			v = table.Parse(row[i])
		}
		b.cols[i] = append(b.cols[i], v)
	}
	b.rows++
	return nil
}

// Table returns the accumulated table.
func (b *Builder) Table() (*table.Table, error) {
	t := table.New(b.rows)
	for i, name := range b.names {
		cells := b.cols[i]
		if cells == nil {
			cells = []table.Value{}
		}
		if err := t.Append(name, cells); err != nil {
			return nil, err
		}
	}
	return t, nil
}
