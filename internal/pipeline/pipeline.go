// Package pipeline runs the survey cleaning stages over one in-memory table.
//
// The order is fixed: column selection, sentinel normalization, then the
// recodes (gender, employment status, urban/rural, income quintile, the
// yes/no flags and the multi-category receipt and payment variables). Missing
// columns and unmapped codes never fail a run; they only show up in Stats.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"surveyetl/internal/codebook"
	"surveyetl/internal/metrics"
	"surveyetl/internal/table"
	"surveyetl/internal/transformer"
	"surveyetl/internal/transformer/builtin"
)

// ErrMalformedInput marks input that could not be turned into a table. It is
// the only error that aborts a run.
var ErrMalformedInput = errors.New("malformed input")

// Stage names, as they appear in Stats, logs and metrics.
const (
	StageSelect     = "select"
	StageSentinels  = "sentinels"
	StageGender     = "recode_gender"
	StageEmployment = "recode_employment"
	StageUrbanicity = "recode_urban_rural"
	StageIncome     = "recode_income"
	StageYesNo      = "recode_yes_no"
	StageMulti      = "recode_multi"
)

// Driver runs the fixed stage sequence with one codebook. A Driver holds no
// per-run state and may be shared by concurrent runs.
type Driver struct {
	cb  *codebook.Codebook
	log *zap.Logger
	job string
	now func() time.Time
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the logger. The default discards.
func WithLogger(l *zap.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.log = l
		}
	}
}

// WithJob sets the job label used for metrics.
func WithJob(job string) Option {
	return func(d *Driver) { d.job = job }
}

// New returns a driver for cb. A nil codebook means codebook.Default().
func New(cb *codebook.Codebook, opts ...Option) *Driver {
	if cb == nil {
		cb = codebook.Default()
	}
	d := &Driver{cb: cb, log: zap.NewNop(), job: "surveyetl", now: time.Now}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Codebook returns the driver's codebook.
func (d *Driver) Codebook() *codebook.Codebook { return d.cb }

// Result is the output of one run.
type Result struct {
	Table *table.Table
	Stats Stats
}

type stage struct {
	name string
	tr   transformer.Transformer
}

// stages builds the transformer sequence for one run. The callbacks write
// into st, which belongs to that run only.
func (d *Driver) stages(st *Stats) []stage {
	onReplace := func(col string, n int) {
		st.SentinelsReplaced[col] += n
		metrics.RecordCells(d.job, metrics.CellSentinelReplaced, col, int64(n))
	}
	onUnmapped := func(col string, n int) {
		st.UnmappedCodes[col] += n
		metrics.RecordCells(d.job, metrics.CellUnmappedCode, col, int64(n))
	}
	recode := func(s codebook.RecodeSpec) transformer.Transformer {
		return builtin.Recode{Spec: s, OnUnmapped: onUnmapped}
	}
	return []stage{
		{StageSelect, builtin.Select{Columns: d.cb.Columns()}},
		{StageSentinels, builtin.Sentinels{Set: d.cb.Sentinels(), OnReplace: onReplace}},
		{StageGender, recode(d.cb.Gender())},
		{StageEmployment, recode(d.cb.Employment())},
		{StageUrbanicity, recode(d.cb.Urbanicity())},
		{StageIncome, recode(d.cb.Income())},
		{StageYesNo, builtin.RecodeAll{Specs: d.cb.YesNo(), OnUnmapped: onUnmapped}},
		{StageMulti, builtin.RecodeAll{Specs: d.cb.Multi(), OnUnmapped: onUnmapped}},
	}
}

// Run cleans in and returns the result. in is not modified. Errors are
// ErrMalformedInput for a nil table and the context's error when ctx is
// cancelled between stages.
func (d *Driver) Run(ctx context.Context, in *table.Table) (*Result, error) {
	if in == nil {
		return nil, fmt.Errorf("pipeline: %w: nil table", ErrMalformedInput)
	}

	st := newStats(in)
	declared := builtin.Select{Columns: d.cb.Columns()}
	st.MissingColumns = declared.Missing(in)
	if len(st.MissingColumns) > 0 {
		d.log.Debug("pipeline: declared columns absent from input",
			zap.Int("count", len(st.MissingColumns)),
			zap.Strings("columns", st.MissingColumns))
	}

	cur := in
	for _, s := range d.stages(&st) {
		if err := ctx.Err(); err != nil {
			metrics.RecordStep(d.job, s.name, err, 0)
			return nil, fmt.Errorf("pipeline: before %s: %w", s.name, err)
		}
		start := d.now()
		cur = s.tr.Apply(cur)
		dur := d.now().Sub(start)

		st.Stages = append(st.Stages, StageTiming{Name: s.name, Duration: dur})
		metrics.RecordStep(d.job, s.name, nil, dur)
		d.log.Debug("pipeline: stage done",
			zap.String("stage", s.name),
			zap.Int("columns", cur.Width()),
			zap.Duration("took", dur))

		if s.name == StageSelect {
			st.SelectedColumns = cur.Width()
		}
	}

	// Row count is invariant across stages; a mismatch is a programming error.
	if cur.Rows() != in.Rows() {
		panic(fmt.Sprintf("pipeline: row count changed from %d to %d", in.Rows(), cur.Rows()))
	}
	st.OutputColumns = cur.Width()

	d.log.Info("pipeline: run complete",
		zap.Int("rows", st.Rows),
		zap.Int("input_columns", st.InputColumns),
		zap.Int("output_columns", st.OutputColumns),
		zap.Int("sentinels_replaced", st.TotalSentinels()),
		zap.Int("unmapped_codes", st.TotalUnmapped()))

	return &Result{Table: cur, Stats: st}, nil
}
