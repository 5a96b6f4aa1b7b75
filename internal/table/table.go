package table

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/zeebo/xxh3"
)

var (
	// ErrRowMismatch is returned when a column's length differs from the
	// table's row count.
	ErrRowMismatch = errors.New("table: column length does not match row count")
	// ErrDuplicateColumn is returned when a column name is already present.
	ErrDuplicateColumn = errors.New("table: duplicate column name")
	// ErrNoColumn is returned when a named column does not exist.
	ErrNoColumn = errors.New("table: no such column")
)

// Column is a named, ordered slice of cells.
type Column struct {
	Name  string
	Cells []Value
}

// Table is an ordered set of equally long columns. The row count is fixed at
// construction and never changes; only columns and cell values do.
type Table struct {
	rows  int
	cols  []Column
	index map[string]int
}

// New returns an empty table with the given row count and no columns.
func New(rows int) *Table {
	if rows < 0 {
		rows = 0
	}
	return &Table{rows: rows, index: map[string]int{}}
}

// Rows returns the row count.
func (t *Table) Rows() int { return t.rows }

// Width returns the column count.
func (t *Table) Width() int { return len(t.cols) }

// Names returns the column names in table order.
func (t *Table) Names() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Name
	}
	return out
}

// Has reports whether a column named name exists.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the cells of the named column. The slice is shared with the
// table; callers that mutate it must own the table.
func (t *Table) Column(name string) ([]Value, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[i].Cells, true
}

// Columns returns the columns in order. The slice is a copy; the cells are
// shared.
func (t *Table) Columns() []Column {
	out := make([]Column, len(t.cols))
	copy(out, t.cols)
	return out
}

// Append adds a column at the end.
func (t *Table) Append(name string, cells []Value) error {
	if len(cells) != t.rows {
		return fmt.Errorf("%w: %q has %d cells, table has %d rows", ErrRowMismatch, name, len(cells), t.rows)
	}
	if _, ok := t.index[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
	}
	t.index[name] = len(t.cols)
	t.cols = append(t.cols, Column{Name: name, Cells: cells})
	return nil
}

// Replace swaps the cells of column old for cells and renames it to name,
// keeping its position. Renaming onto another existing column is an error.
func (t *Table) Replace(old, name string, cells []Value) error {
	i, ok := t.index[old]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoColumn, old)
	}
	if len(cells) != t.rows {
		return fmt.Errorf("%w: %q has %d cells, table has %d rows", ErrRowMismatch, name, len(cells), t.rows)
	}
	if name != old {
		if _, taken := t.index[name]; taken {
			return fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
		}
		delete(t.index, old)
		t.index[name] = i
	}
	t.cols[i] = Column{Name: name, Cells: cells}
	return nil
}

// Drop removes the named column and reports whether it existed.
func (t *Table) Drop(name string) bool {
	i, ok := t.index[name]
	if !ok {
		return false
	}
	t.cols = append(t.cols[:i], t.cols[i+1:]...)
	t.reindex()
	return true
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.cols))
	for i, c := range t.cols {
		t.index[c.Name] = i
	}
}

// Row returns the cells of row i in column order.
func (t *Table) Row(i int) []Value {
	out := make([]Value, len(t.cols))
	for j, c := range t.cols {
		out[j] = c.Cells[i]
	}
	return out
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	out := New(t.rows)
	out.cols = make([]Column, len(t.cols))
	for i, c := range t.cols {
		cells := make([]Value, len(c.Cells))
		copy(cells, c.Cells)
		out.cols[i] = Column{Name: c.Name, Cells: cells}
	}
	out.reindex()
	return out
}

// Shallow returns a copy that shares cell slices with t. Stages that swap whole
// columns through Append, Replace or Drop on the copy leave t untouched.
func (t *Table) Shallow() *Table {
	out := New(t.rows)
	out.cols = make([]Column, len(t.cols))
	copy(out.cols, t.cols)
	out.reindex()
	return out
}

// Fingerprint hashes column names, order and every cell (kind and value).
// Two tables with the same fingerprint are, for all practical purposes,
// identical.
func (t *Table) Fingerprint() uint64 {
	h := xxh3.New()
	var buf [9]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(t.rows))
	_, _ = h.Write(buf[:8])
	for _, c := range t.cols {
		_, _ = h.WriteString(c.Name)
		_, _ = h.Write([]byte{0x1f})
		for _, v := range c.Cells {
			buf[0] = byte(v.kind)
			switch v.kind {
			case KindText:
				_, _ = h.Write(buf[:1])
				_, _ = h.WriteString(v.s)
				_, _ = h.Write([]byte{0x1e})
			case KindNumber:
				binary.LittleEndian.PutUint64(buf[1:], math.Float64bits(v.n))
				_, _ = h.Write(buf[:9])
			default:
				_, _ = h.Write(buf[:1])
			}
		}
	}
	return h.Sum64()
}
