package codebook

import (
	"errors"
	"reflect"
	"testing"
)

func TestNewRecode_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		column string
		codes  []Code
		want   error
	}{
		{"empty_column", " ", []Code{{1, "Yes"}}, ErrEmptyColumn},
		{"no_codes", "saved", nil, ErrNoCodes},
		{"duplicate_code", "saved", []Code{{1, "Yes"}, {1, "Also yes"}}, ErrDuplicateCode},
		{"empty_label", "saved", []Code{{1, " "}}, ErrEmptyLabel},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := NewRecode(tt.column, "", tt.codes...); !errors.Is(err, tt.want) {
				t.Fatalf("err=%v want %v", err, tt.want)
			}
		})
	}
}

func TestRecodeSpec_Accessors(t *testing.T) {
	t.Parallel()

	s := MustRecode("female", "gender", Code{1, "Female"}, Code{2, "Male"})
	if s.Column() != "female" || s.Target() != "gender" || !s.Renames() {
		t.Fatalf("names: %s", s)
	}
	if s.Kind() != KindBinary {
		t.Fatalf("kind=%s", s.Kind())
	}
	if l, ok := s.Lookup(2); !ok || l != "Male" {
		t.Fatalf("Lookup(2)=%q,%v", l, ok)
	}
	if _, ok := s.Lookup(3); ok {
		t.Fatalf("Lookup(3) must miss")
	}
	if got := s.Labels(); !reflect.DeepEqual(got, []string{"Female", "Male"}) {
		t.Fatalf("labels=%v", got)
	}

	codes := s.Codes()
	codes[0].Label = "mutated"
	if l, _ := s.Lookup(1); l != "Female" {
		t.Fatalf("Codes must return a copy")
	}

	y := YesNo("saved")
	if y.Renames() || y.Target() != "saved" || y.String() != "saved (2 codes)" {
		t.Fatalf("YesNo: %s", y)
	}
}

func TestMustRecode_Panics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatalf("want panic")
		}
	}()
	MustRecode("", "")
}
