// Package report renders a per-column profile of the cleaned table as an
// aligned plain-text table for the console.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"surveyetl/internal/table"
)

// ColumnProfile summarizes one column.
type ColumnProfile struct {
	Name     string
	Kind     string // text, number, mixed or empty
	Present  int
	Missing  int
	Distinct int
}

// Profile computes a ColumnProfile for every column of t, in table order.
func Profile(t *table.Table) []ColumnProfile {
	cols := t.Columns()
	out := make([]ColumnProfile, len(cols))
	for i, c := range cols {
		p := ColumnProfile{Name: c.Name}
		seen := make(map[table.Value]struct{})
		var texts, nums int
		for _, v := range c.Cells {
			switch v.Kind() {
			case table.KindMissing:
				p.Missing++
				continue
			case table.KindText:
				texts++
			case table.KindNumber:
				nums++
			}
			p.Present++
			seen[v] = struct{}{}
		}
		p.Distinct = len(seen)
		switch {
		case texts > 0 && nums > 0:
			p.Kind = "mixed"
		case texts > 0:
			p.Kind = "text"
		case nums > 0:
			p.Kind = "number"
		default:
			p.Kind = "empty"
		}
		out[i] = p
	}
	return out
}

var header = []string{"column", "kind", "present", "missing", "missing %", "distinct"}

// Write prints profiles as a pipe-delimited table padded by display width,
// followed by a one-line total.
func Write(w io.Writer, rows int, profiles []ColumnProfile) error {
	cells := make([][]string, 0, len(profiles)+1)
	cells = append(cells, header)
	for _, p := range profiles {
		cells = append(cells, []string{
			p.Name,
			p.Kind,
			humanize.Comma(int64(p.Present)),
			humanize.Comma(int64(p.Missing)),
			percent(p.Missing, rows),
			humanize.Comma(int64(p.Distinct)),
		})
	}

	widths := make([]int, len(header))
	for _, row := range cells {
		for i, c := range row {
			if n := runewidth.StringWidth(c); n > widths[i] {
				widths[i] = n
			}
		}
	}

	var sb strings.Builder
	for r, row := range cells {
		writeRow(&sb, row, widths)
		if r == 0 {
			sep := make([]string, len(widths))
			for i, n := range widths {
				sep[i] = strings.Repeat("-", n)
			}
			writeRow(&sb, sep, widths)
		}
	}
	fmt.Fprintf(&sb, "%s rows, %s columns\n", humanize.Comma(int64(rows)), humanize.Comma(int64(len(profiles))))

	_, err := io.WriteString(w, sb.String())
	return err
}

// writeRow left-aligns the name column and right-aligns the counts.
func writeRow(sb *strings.Builder, row []string, widths []int) {
	sb.WriteString("|")
	for i, c := range row {
		sb.WriteString(" ")
		pad := strings.Repeat(" ", widths[i]-runewidth.StringWidth(c))
		if i < 2 {
			sb.WriteString(c + pad)
		} else {
			sb.WriteString(pad + c)
		}
		sb.WriteString(" |")
	}
	sb.WriteString("\n")
}

func percent(n, total int) string {
	if total == 0 {
		return "0%"
	}
	return humanize.FtoaWithDigits(float64(n)*100/float64(total), 1) + "%"
}
