// Package transformer defines table-to-table stages and their composition.
package transformer

import "surveyetl/internal/table"

// Transformer is one cleaning stage. Apply must not modify its input; it
// returns a new table with the same row count.
type Transformer interface{ Apply(*table.Table) *table.Table }

// Func adapts a plain function to Transformer.
type Func func(*table.Table) *table.Table

// Apply calls f(t).
func (f Func) Apply(t *table.Table) *table.Table { return f(t) }

// Chain is an ordered list of transformers.
type Chain []Transformer

// Apply feeds the output of each transformer into the next.
func (c Chain) Apply(in *table.Table) *table.Table {
	out := in
	for _, t := range c {
		out = t.Apply(out)
	}
	return out
}
