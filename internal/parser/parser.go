// Package parser turns a tabular byte stream into a table.Table.
package parser

import (
	"io"

	"surveyetl/internal/table"
)

// Parser reads one header row followed by data rows.
type Parser interface {
	Parse(r io.Reader) (*table.Table, error)
}
