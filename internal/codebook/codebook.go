// Package codebook is the cleaning pipeline's configuration: which survey
// columns are wanted (grouped for documentation only), which raw values mean
// "missing", and how coded columns map to labels.
//
// A Codebook is built once (Default, or LoadFile for an externalized copy) and
// is read-only afterwards, so one instance can be shared by concurrent runs.
package codebook

import (
	"errors"
	"fmt"
)

// ErrTargetCollision is returned when two recodes write the same output
// column, or a rename target is itself a declared raw column.
var ErrTargetCollision = errors.New("codebook: recode target collides")

// Group is a named list of wanted columns. Groups carry no runtime behavior.
type Group struct {
	Name    string   `json:"name" yaml:"name" toml:"name"`
	Columns []string `json:"columns" yaml:"columns" toml:"columns"`
}

// Codebook is the immutable pipeline configuration.
type Codebook struct {
	groups    []Group
	sentinels SentinelSet

	gender     RecodeSpec
	employment RecodeSpec
	urbanicity RecodeSpec
	income     RecodeSpec
	yesNo      []RecodeSpec
	multi      []RecodeSpec

	byColumn map[string]RecodeSpec
}

// Parts is the input to New. Every field is required except the optional
// special-purpose recodes, which are skipped by the driver when zero.
type Parts struct {
	Groups     []Group
	Sentinels  SentinelSet
	Gender     RecodeSpec
	Employment RecodeSpec
	Urbanicity RecodeSpec
	Income     RecodeSpec
	YesNo      []RecodeSpec
	Multi      []RecodeSpec
}

// New validates p and returns a Codebook. Slices are copied.
func New(p Parts) (*Codebook, error) {
	cb := &Codebook{
		groups:     copyGroups(p.Groups),
		sentinels:  p.Sentinels,
		gender:     p.Gender,
		employment: p.Employment,
		urbanicity: p.Urbanicity,
		income:     p.Income,
		yesNo:      append([]RecodeSpec(nil), p.YesNo...),
		multi:      append([]RecodeSpec(nil), p.Multi...),
		byColumn:   map[string]RecodeSpec{},
	}
	if cb.sentinels.text == nil && cb.sentinels.codes == nil {
		cb.sentinels = NewSentinelSet(nil, nil)
	}

	targets := map[string]string{}
	for _, s := range cb.Recodes() {
		if _, dup := cb.byColumn[s.column]; dup {
			return nil, fmt.Errorf("%w: column %q recoded twice", ErrTargetCollision, s.column)
		}
		if prev, dup := targets[s.target]; dup {
			return nil, fmt.Errorf("%w: %q written by %q and %q", ErrTargetCollision, s.target, prev, s.column)
		}
		cb.byColumn[s.column] = s
		targets[s.target] = s.column
	}
	declared := map[string]struct{}{}
	for _, c := range cb.Columns() {
		declared[c] = struct{}{}
	}
	for _, s := range cb.Recodes() {
		if !s.Renames() {
			continue
		}
		if _, clash := declared[s.target]; clash {
			return nil, fmt.Errorf("%w: target %q of %q is also a declared column", ErrTargetCollision, s.target, s.column)
		}
	}
	return cb, nil
}

func copyGroups(in []Group) []Group {
	out := make([]Group, len(in))
	for i, g := range in {
		out[i] = Group{Name: g.Name, Columns: append([]string(nil), g.Columns...)}
	}
	return out
}

// Groups returns a copy of the column groups.
func (c *Codebook) Groups() []Group { return copyGroups(c.groups) }

// Columns flattens the groups into the wanted-name list, keeping the first
// occurrence of a repeated name.
func (c *Codebook) Columns() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, g := range c.groups {
		for _, name := range g.Columns {
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}

// Sentinels returns the missing-value markers.
func (c *Codebook) Sentinels() SentinelSet { return c.sentinels }

// Gender returns the female→gender recode.
func (c *Codebook) Gender() RecodeSpec { return c.gender }

// Employment returns the emp_in→employment_status recode.
func (c *Codebook) Employment() RecodeSpec { return c.employment }

// Urbanicity returns the urbanicity→urban_rural recode.
func (c *Codebook) Urbanicity() RecodeSpec { return c.urbanicity }

// Income returns the inc_q→income_quintile recode.
func (c *Codebook) Income() RecodeSpec { return c.income }

// YesNo returns the binary in-place recodes.
func (c *Codebook) YesNo() []RecodeSpec { return append([]RecodeSpec(nil), c.yesNo...) }

// Multi returns the multi-category in-place recodes.
func (c *Codebook) Multi() []RecodeSpec { return append([]RecodeSpec(nil), c.multi...) }

// Recodes returns every configured recode in pipeline order, skipping unset
// special-purpose specs.
func (c *Codebook) Recodes() []RecodeSpec {
	var out []RecodeSpec
	for _, s := range []RecodeSpec{c.gender, c.employment, c.urbanicity, c.income} {
		if s.column != "" {
			out = append(out, s)
		}
	}
	out = append(out, c.yesNo...)
	out = append(out, c.multi...)
	return out
}

// Recode returns the recode reading column.
func (c *Codebook) Recode(column string) (RecodeSpec, bool) {
	s, ok := c.byColumn[column]
	return s, ok
}
