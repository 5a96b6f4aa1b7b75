package xlsx

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"

	"surveyetl/internal/parser"
	"surveyetl/internal/table"
)

// workbook builds an in-memory workbook with rows written to sheet.
func workbook(t *testing.T, sheet string, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			t.Fatalf("SetSheetName: %v", err)
		}
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("CoordinatesToCellName: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	return buf
}

func TestParse_FirstSheet(t *testing.T) {
	t.Parallel()

	buf := workbook(t, "Data", [][]any{
		{"economy", "Female", "inc_q", "account"},
		{"Kenya", 1, 998, 1},
		{"Peru", 2, ".."},
	})
	tb, err := NewParser(Options{}).Parse(buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got, want := tb.Names(), []string{"economy", "female", "inc_q", "account"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("names=%v want %v", got, want)
	}
	inc, _ := tb.Column("inc_q")
	if !inc[0].Equal(table.Int(998)) || !inc[1].Equal(table.Text("..")) {
		t.Fatalf("inc_q=%v", inc)
	}
	acc, _ := tb.Column("account")
	if !acc[0].Equal(table.Int(1)) || !acc[1].IsMissing() {
		t.Fatalf("account=%v", acc)
	}
}

func TestParse_NamedSheet(t *testing.T) {
	t.Parallel()

	buf := workbook(t, "Sheet1", [][]any{{"a"}, {1}})
	if _, err := NewParser(Options{Sheet: "Sheet1"}).Parse(bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, err := NewParser(Options{Sheet: "Nope"}).Parse(bytes.NewReader(buf.Bytes()))
	if !errors.Is(err, ErrNoSheet) {
		t.Fatalf("err=%v want ErrNoSheet", err)
	}
}

func TestParse_EmptySheet(t *testing.T) {
	t.Parallel()

	buf := workbook(t, "Sheet1", nil)
	_, err := NewParser(Options{}).Parse(buf)
	if !errors.Is(err, parser.ErrNoHeader) {
		t.Fatalf("err=%v want ErrNoHeader", err)
	}
}

func TestParse_NotAWorkbook(t *testing.T) {
	t.Parallel()

	if _, err := NewParser(Options{}).Parse(bytes.NewBufferString("economy,female\n")); err == nil {
		t.Fatalf("expected error for non-xlsx input")
	}
}
