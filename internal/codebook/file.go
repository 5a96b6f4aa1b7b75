package codebook

import (
	"fmt"
	"io"

	"surveyetl/internal/config"
)

// File is the externalized codebook document. Its JSON, YAML and TOML forms
// share the same keys. A file replaces the compiled-in defaults wholesale.
type File struct {
	Groups    []Group      `json:"groups" yaml:"groups" toml:"groups"`
	Sentinels SentinelFile `json:"sentinels" yaml:"sentinels" toml:"sentinels"`
	Recodes   RecodesFile  `json:"recodes" yaml:"recodes" toml:"recodes"`
}

// SentinelFile lists the missing markers.
type SentinelFile struct {
	Text  []string `json:"text" yaml:"text" toml:"text"`
	Codes []int64  `json:"codes" yaml:"codes" toml:"codes"`
}

// RecodeFile is one recode entry.
type RecodeFile struct {
	Column string `json:"column" yaml:"column" toml:"column"`
	Target string `json:"target,omitempty" yaml:"target,omitempty" toml:"target,omitempty"`
	Codes  []Code `json:"codes" yaml:"codes" toml:"codes"`
}

// YesNoFile applies one shared binary mapping to several columns in place.
type YesNoFile struct {
	Columns []string `json:"columns" yaml:"columns" toml:"columns"`
	Codes   []Code   `json:"codes,omitempty" yaml:"codes,omitempty" toml:"codes,omitempty"`
}

// RecodesFile groups the recodes the way the driver applies them.
type RecodesFile struct {
	Gender     *RecodeFile  `json:"gender,omitempty" yaml:"gender,omitempty" toml:"gender,omitempty"`
	Employment *RecodeFile  `json:"employment,omitempty" yaml:"employment,omitempty" toml:"employment,omitempty"`
	Urbanicity *RecodeFile  `json:"urbanicity,omitempty" yaml:"urbanicity,omitempty" toml:"urbanicity,omitempty"`
	Income     *RecodeFile  `json:"income,omitempty" yaml:"income,omitempty" toml:"income,omitempty"`
	YesNo      YesNoFile    `json:"yes_no" yaml:"yes_no" toml:"yes_no"`
	Multi      []RecodeFile `json:"multi" yaml:"multi" toml:"multi"`
}

// LoadFile reads a codebook document; the format follows the extension
// (.json, .yaml/.yml, .toml).
func LoadFile(path string) (*Codebook, error) {
	var f File
	if err := config.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("codebook: %w", err)
	}
	cb, err := f.Build()
	if err != nil {
		return nil, fmt.Errorf("codebook %s: %w", path, err)
	}
	return cb, nil
}

// Build converts the document into a validated Codebook.
func (f File) Build() (*Codebook, error) {
	p := Parts{
		Groups:    f.Groups,
		Sentinels: NewSentinelSet(f.Sentinels.Text, f.Sentinels.Codes),
	}

	single := []struct {
		in  *RecodeFile
		out *RecodeSpec
	}{
		{f.Recodes.Gender, &p.Gender},
		{f.Recodes.Employment, &p.Employment},
		{f.Recodes.Urbanicity, &p.Urbanicity},
		{f.Recodes.Income, &p.Income},
	}
	for _, s := range single {
		if s.in == nil {
			continue
		}
		rc, err := NewRecode(s.in.Column, s.in.Target, s.in.Codes...)
		if err != nil {
			return nil, err
		}
		*s.out = rc
	}

	codes := f.Recodes.YesNo.Codes
	if len(codes) == 0 {
		codes = yesNoCodes
	}
	for _, col := range f.Recodes.YesNo.Columns {
		rc, err := NewRecode(col, "", codes...)
		if err != nil {
			return nil, err
		}
		p.YesNo = append(p.YesNo, rc)
	}

	for _, m := range f.Recodes.Multi {
		rc, err := NewRecode(m.Column, m.Target, m.Codes...)
		if err != nil {
			return nil, err
		}
		p.Multi = append(p.Multi, rc)
	}
	return New(p)
}

// File returns the document form of c; Build(c.File()) reproduces c.
func (c *Codebook) File() File {
	f := File{
		Groups: c.Groups(),
		Sentinels: SentinelFile{
			Text:  c.sentinels.Text(),
			Codes: c.sentinels.Codes(),
		},
	}
	toFile := func(s RecodeSpec) *RecodeFile {
		if s.column == "" {
			return nil
		}
		rf := &RecodeFile{Column: s.column, Codes: s.Codes()}
		if s.Renames() {
			rf.Target = s.target
		}
		return rf
	}
	f.Recodes.Gender = toFile(c.gender)
	f.Recodes.Employment = toFile(c.employment)
	f.Recodes.Urbanicity = toFile(c.urbanicity)
	f.Recodes.Income = toFile(c.income)

	for i, s := range c.yesNo {
		f.Recodes.YesNo.Columns = append(f.Recodes.YesNo.Columns, s.column)
		if i == 0 {
			f.Recodes.YesNo.Codes = s.Codes()
		}
	}
	for _, s := range c.multi {
		f.Recodes.Multi = append(f.Recodes.Multi, *toFile(s))
	}
	return f
}

// Dump writes c in the given format ("json", "yaml" or "toml").
func (c *Codebook) Dump(w io.Writer, format string) error {
	return config.Encode(w, format, c.File())
}
