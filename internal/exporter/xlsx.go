package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"surveyetl/internal/table"
)

// DefaultSheet is the worksheet name used when XLSXWriter.Sheet is empty.
const DefaultSheet = "cleaned"

// XLSXWriter writes one worksheet with a bold header row. Numbers stay
// numeric, labels are strings and missing cells are left blank.
type XLSXWriter struct {
	Sheet string
}

func (x XLSXWriter) Write(w io.Writer, t *table.Table) error {
	sheet := x.Sheet
	if sheet == "" {
		sheet = DefaultSheet
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("stream writer: %w", err)
	}

	cols := t.Columns()
	header := make([]any, len(cols))
	for j, c := range cols {
		header[j] = excelize.Cell{StyleID: bold, Value: c.Name}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("header row: %w", err)
	}

	row := make([]any, len(cols))
	for r := 0; r < t.Rows(); r++ {
		for j, c := range cols {
			row[j] = c.Cells[r].Any()
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("row %d: %w", r+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	return f.Write(w)
}
