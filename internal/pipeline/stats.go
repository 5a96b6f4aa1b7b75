package pipeline

import (
	"sort"
	"time"

	"surveyetl/internal/table"
)

// Stats summarises one run. Counts are informational.
type Stats struct {
	Rows            int
	InputColumns    int
	SelectedColumns int
	OutputColumns   int

	// MissingColumns are declared columns absent from the input.
	MissingColumns []string

	// SentinelsReplaced counts cells turned missing by normalization, per
	// column.
	SentinelsReplaced map[string]int

	// UnmappedCodes counts non-missing cells that a recode turned missing,
	// keyed by the raw column name.
	UnmappedCodes map[string]int

	Stages []StageTiming
}

// StageTiming is the wall time of one stage.
type StageTiming struct {
	Name     string
	Duration time.Duration
}

func newStats(in *table.Table) Stats {
	return Stats{
		Rows:              in.Rows(),
		InputColumns:      in.Width(),
		SentinelsReplaced: map[string]int{},
		UnmappedCodes:     map[string]int{},
	}
}

// TotalSentinels sums SentinelsReplaced.
func (s Stats) TotalSentinels() int { return sum(s.SentinelsReplaced) }

// TotalUnmapped sums UnmappedCodes.
func (s Stats) TotalUnmapped() int { return sum(s.UnmappedCodes) }

// Elapsed sums the stage durations.
func (s Stats) Elapsed() time.Duration {
	var d time.Duration
	for _, st := range s.Stages {
		d += st.Duration
	}
	return d
}

// UnmappedColumns returns the columns with unmapped codes, sorted.
func (s Stats) UnmappedColumns() []string {
	out := make([]string, 0, len(s.UnmappedCodes))
	for c := range s.UnmappedCodes {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func sum(m map[string]int) int {
	n := 0
	for _, v := range m {
		n += v
	}
	return n
}
