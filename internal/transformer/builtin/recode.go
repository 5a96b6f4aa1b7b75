package builtin

import (
	"surveyetl/internal/codebook"
	"surveyetl/internal/table"
)

// Recode maps the integer codes of one column to labels.
//
// A number cell holding an integral code found in Spec becomes a text cell
// with its label. Every other cell (unknown codes, fractional numbers, text,
// missing) becomes missing. When Spec renames, the result takes the raw
// column's position under the target name and the raw column is gone; an
// unrelated column already named like the target is dropped first. A column
// absent from the input is skipped.
//
// OnUnmapped, when set, receives the number of non-missing cells that
// resolved to missing.
type Recode struct {
	Spec       codebook.RecodeSpec
	OnUnmapped func(column string, n int)
}

func (r Recode) Apply(in *table.Table) *table.Table {
	src, ok := in.Column(r.Spec.Column())
	if !ok || r.Spec.Column() == "" {
		return in
	}

	cells := make([]table.Value, len(src))
	unmapped := 0
	for i, v := range src {
		if code, ok := v.Code(); ok {
			if label, ok := r.Spec.Lookup(code); ok {
				cells[i] = table.Text(label)
				continue
			}
		}
		if !v.IsMissing() {
			unmapped++
		}
		// cells[i] stays the zero Value, which is table.Missing.
	}

	out := in.Shallow()
	if r.Spec.Renames() {
		out.Drop(r.Spec.Target())
	}
	_ = out.Replace(r.Spec.Column(), r.Spec.Target(), cells)

	if unmapped > 0 && r.OnUnmapped != nil {
		r.OnUnmapped(r.Spec.Column(), unmapped)
	}
	return out
}

// RecodeAll applies Specs in order.
type RecodeAll struct {
	Specs      []codebook.RecodeSpec
	OnUnmapped func(column string, n int)
}

func (r RecodeAll) Apply(in *table.Table) *table.Table {
	out := in
	for _, s := range r.Specs {
		out = Recode{Spec: s, OnUnmapped: r.OnUnmapped}.Apply(out)
	}
	return out
}
