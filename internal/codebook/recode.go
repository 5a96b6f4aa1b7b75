package codebook

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyColumn is returned for a recode without a source column.
	ErrEmptyColumn = errors.New("codebook: recode column must not be empty")
	// ErrNoCodes is returned for a recode without any code.
	ErrNoCodes = errors.New("codebook: recode must map at least one code")
	// ErrDuplicateCode is returned when a code appears twice in one recode.
	ErrDuplicateCode = errors.New("codebook: duplicate code")
	// ErrEmptyLabel is returned when a code maps to an empty label.
	ErrEmptyLabel = errors.New("codebook: empty label")
)

// Kind classifies a recode by its number of levels.
type Kind string

const (
	// KindBinary is a two-level (yes/no style) recode.
	KindBinary Kind = "binary"
	// KindCategorical is a recode with three or more levels.
	KindCategorical Kind = "categorical"
)

// Code is one code→label pair.
type Code struct {
	Code  int64  `json:"code" yaml:"code" toml:"code"`
	Label string `json:"label" yaml:"label" toml:"label"`
}

// RecodeSpec maps raw integer codes of one column to labels, optionally
// renaming the column. The zero value is not usable; build specs with
// NewRecode or YesNo. A RecodeSpec is immutable once built.
type RecodeSpec struct {
	column string
	target string
	codes  []Code
	lookup map[int64]string
}

// NewRecode builds a recode for column. An empty target keeps the column name.
// Codes keep their declaration order.
func NewRecode(column, target string, codes ...Code) (RecodeSpec, error) {
	column = strings.TrimSpace(column)
	target = strings.TrimSpace(target)
	if column == "" {
		return RecodeSpec{}, ErrEmptyColumn
	}
	if target == "" {
		target = column
	}
	if len(codes) == 0 {
		return RecodeSpec{}, fmt.Errorf("%w: %s", ErrNoCodes, column)
	}
	lookup := make(map[int64]string, len(codes))
	ordered := make([]Code, 0, len(codes))
	for _, c := range codes {
		if _, dup := lookup[c.Code]; dup {
			return RecodeSpec{}, fmt.Errorf("%w %d in %s", ErrDuplicateCode, c.Code, column)
		}
		if strings.TrimSpace(c.Label) == "" {
			return RecodeSpec{}, fmt.Errorf("%w for code %d in %s", ErrEmptyLabel, c.Code, column)
		}
		lookup[c.Code] = c.Label
		ordered = append(ordered, c)
	}
	return RecodeSpec{column: column, target: target, codes: ordered, lookup: lookup}, nil
}

// MustRecode is NewRecode for compiled-in tables; it panics on error.
func MustRecode(column, target string, codes ...Code) RecodeSpec {
	s, err := NewRecode(column, target, codes...)
	if err != nil {
		panic(err)
	}
	return s
}

// YesNo returns the in-place 1→Yes, 0→No recode for column.
func YesNo(column string) RecodeSpec {
	return MustRecode(column, "", yesNoCodes...)
}

var yesNoCodes = []Code{{1, "Yes"}, {0, "No"}}

// Column is the raw column the recode reads.
func (s RecodeSpec) Column() string { return s.column }

// Target is the column name the recoded values are written under.
func (s RecodeSpec) Target() string { return s.target }

// Renames reports whether the raw column is replaced by a differently named
// target column.
func (s RecodeSpec) Renames() bool { return s.target != s.column }

// Kind reports binary for two-level specs, categorical otherwise.
func (s RecodeSpec) Kind() Kind {
	if len(s.codes) == 2 {
		return KindBinary
	}
	return KindCategorical
}

// Lookup returns the label for code.
func (s RecodeSpec) Lookup(code int64) (string, bool) {
	l, ok := s.lookup[code]
	return l, ok
}

// Codes returns the code→label pairs in declaration order.
func (s RecodeSpec) Codes() []Code {
	out := make([]Code, len(s.codes))
	copy(out, s.codes)
	return out
}

// Labels returns the labels in declaration order.
func (s RecodeSpec) Labels() []string {
	out := make([]string, len(s.codes))
	for i, c := range s.codes {
		out[i] = c.Label
	}
	return out
}

func (s RecodeSpec) String() string {
	if s.Renames() {
		return fmt.Sprintf("%s->%s (%d codes)", s.column, s.target, len(s.codes))
	}
	return fmt.Sprintf("%s (%d codes)", s.column, len(s.codes))
}
