// Package xlsx reads spreadsheet survey extracts into a table.
package xlsx

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"surveyetl/internal/parser"
	"surveyetl/internal/table"
)

// ErrNoSheet is returned when the workbook has no worksheet or lacks the
// requested one.
var ErrNoSheet = errors.New("xlsx: sheet not found")

// Options configures the spreadsheet parser.
type Options struct {
	// Sheet names the worksheet to read. Empty means the first sheet.
	Sheet string

	// HeaderMap maps source header names to canonical column names.
	HeaderMap map[string]string
}

// Parser reads the header row and data rows of one worksheet.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// Parse reads the configured sheet. Cell values are taken raw, without number
// formats, so codes arrive as plain integers. Trailing blank cells of a row
// read as missing.
func (p *Parser) Parse(r io.Reader) (*table.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := p.opt.Sheet
	if sheet == "" {
		list := f.GetSheetList()
		if len(list) == 0 {
			return nil, ErrNoSheet
		}
		sheet = list[0]
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoSheet, sheet)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, parser.ErrNoHeader
	}

	b := parser.NewBuilder(parser.NormalizeHeaders(rows[0], p.opt.HeaderMap))
	for i, row := range rows[1:] {
		if err := b.Add(row); err != nil {
			return nil, fmt.Errorf("sheet %q row %d: %w", sheet, i+2, err)
		}
	}
	return b.Table()
}
