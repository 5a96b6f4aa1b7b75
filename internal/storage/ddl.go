package storage

import (
	"fmt"
	"strings"

	"surveyetl/internal/table"
)

// ColumnType is the storage type chosen for a table column.
type ColumnType int

const (
	// TypeText holds labels and any column with at least one text cell.
	TypeText ColumnType = iota
	// TypeNumber holds columns whose non-missing cells are all numbers.
	TypeNumber
)

// ColumnDef is one destination column.
type ColumnDef struct {
	Name string
	Type ColumnType
}

// Dialect captures the SQL differences between backends.
type Dialect struct {
	Name string

	// Ident quotes one identifier.
	Ident func(string) string

	// TextType and NumberType are the column types used for auto-created
	// tables.
	TextType   string
	NumberType string

	// CreateTemplate wraps a CREATE TABLE body. It receives the quoted table
	// name, the raw table name and the column definitions joined by ", ".
	CreateTemplate func(quoted, raw, defs string) string

	// TruncateTemplate empties a table given its quoted name.
	TruncateTemplate func(quoted string) string
}

// Table quotes a possibly schema-qualified name such as "public.findex".
func (d Dialect) Table(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = d.Ident(p)
	}
	return strings.Join(parts, ".")
}

// CreateTable returns the statement creating table with cols when it does
// not exist yet.
func (d Dialect) CreateTable(name string, cols []ColumnDef) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		typ := d.TextType
		if c.Type == TypeNumber {
			typ = d.NumberType
		}
		defs[i] = d.Ident(c.Name) + " " + typ
	}
	return d.CreateTemplate(d.Table(name), name, strings.Join(defs, ", "))
}

// Truncate returns the statement emptying table.
func (d Dialect) Truncate(name string) string {
	return d.TruncateTemplate(d.Table(name))
}

// IfNotExists is the CreateTemplate for backends that support
// CREATE TABLE IF NOT EXISTS.
func IfNotExists(quoted, _, defs string) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quoted, defs)
}

// TruncateTable is the TruncateTemplate for backends with TRUNCATE TABLE.
func TruncateTable(quoted string) string { return "TRUNCATE TABLE " + quoted }

// DoubleQuote quotes an identifier ANSI style, doubling embedded quotes.
func DoubleQuote(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// InferColumns types each column of t: numeric when every non-missing cell is
// a number (all-missing columns count as numeric), text otherwise.
func InferColumns(t *table.Table) []ColumnDef {
	cols := t.Columns()
	out := make([]ColumnDef, len(cols))
	for i, c := range cols {
		typ := TypeNumber
		for _, v := range c.Cells {
			if v.Kind() == table.KindText {
				typ = TypeText
				break
			}
		}
		out[i] = ColumnDef{Name: c.Name, Type: typ}
	}
	return out
}

// rowValue converts a cell for a column of the given type: nil for missing,
// float64 for numeric columns and string otherwise.
func rowValue(v table.Value, typ ColumnType) any {
	if v.IsMissing() {
		return nil
	}
	if typ == TypeNumber {
		f, _ := v.Num()
		return f
	}
	return v.String()
}
