package pipeline

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"surveyetl/internal/codebook"
	"surveyetl/internal/table"
)

var (
	n    = table.Int
	s    = table.Text
	miss = table.Missing
)

// findexTable builds a table from column name → cells in the order of names.
func findexTable(t *testing.T, names []string, cols map[string][]table.Value) *table.Table {
	t.Helper()
	rows := -1
	for _, c := range cols {
		rows = len(c)
		break
	}
	if rows < 0 {
		rows = 0
	}
	tb := table.New(rows)
	for _, name := range names {
		if err := tb.Append(name, cols[name]); err != nil {
			t.Fatalf("append %s: %v", name, err)
		}
	}
	return tb
}

func column(t *testing.T, tb *table.Table, name string) []table.Value {
	t.Helper()
	c, ok := tb.Column(name)
	if !ok {
		t.Fatalf("no column %q in %v", name, tb.Names())
	}
	return c
}

func run(t *testing.T, in *table.Table) *Result {
	t.Helper()
	res, err := New(nil).Run(context.Background(), in)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res
}

// Example 1: female=1 becomes gender="Female" and the raw column is gone.
func TestRun_GenderRenamed(t *testing.T) {
	t.Parallel()

	in := findexTable(t, []string{"economy", "female"}, map[string][]table.Value{
		"economy": {s("Kenya")},
		"female":  {n(1)},
	})
	res := run(t, in)

	if got, want := res.Table.Names(), []string{"economy", "gender"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("names=%v want %v", got, want)
	}
	if g := column(t, res.Table, "gender"); !g[0].Equal(s("Female")) {
		t.Fatalf("gender=%v", g)
	}
}

// Example 2: inc_q=998 is a sentinel, so income_quintile ends up missing.
func TestRun_IncomeSentinelConverges(t *testing.T) {
	t.Parallel()

	in := findexTable(t, []string{"inc_q"}, map[string][]table.Value{
		"inc_q": {n(998), n(5), n(7)},
	})
	res := run(t, in)

	want := []table.Value{miss, s("Richest 20%"), miss}
	got := column(t, res.Table, "income_quintile")
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("income_quintile=%v want %v", got, want)
		}
	}
	if res.Table.Has("inc_q") {
		t.Fatalf("raw inc_q kept")
	}
	if res.Stats.SentinelsReplaced["inc_q"] != 1 || res.Stats.UnmappedCodes["inc_q"] != 1 {
		t.Fatalf("stats sentinels=%v unmapped=%v", res.Stats.SentinelsReplaced, res.Stats.UnmappedCodes)
	}
}

// Example 3: yes/no recodes with an unmapped code.
func TestRun_YesNoWithUnmapped(t *testing.T) {
	t.Parallel()

	in := findexTable(t, []string{"account", "account_fin", "borrowed"}, map[string][]table.Value{
		"account":     {n(1)},
		"account_fin": {n(0)},
		"borrowed":    {n(2)},
	})
	res := run(t, in)

	if v := column(t, res.Table, "account")[0]; !v.Equal(s("Yes")) {
		t.Fatalf("account=%v", v)
	}
	if v := column(t, res.Table, "account_fin")[0]; !v.Equal(s("No")) {
		t.Fatalf("account_fin=%v", v)
	}
	if v := column(t, res.Table, "borrowed")[0]; !v.IsMissing() {
		t.Fatalf("borrowed=%v", v)
	}
}

// Example 4: no urbanicity column means no urban_rural column and no error.
func TestRun_MissingUrbanicity(t *testing.T) {
	t.Parallel()

	in := findexTable(t, []string{"economy", "age"}, map[string][]table.Value{
		"economy": {s("Peru")},
		"age":     {n(41)},
	})
	res := run(t, in)

	if res.Table.Has("urban_rural") || res.Table.Has("urbanicity") {
		t.Fatalf("unexpected columns %v", res.Table.Names())
	}
	found := false
	for _, c := range res.Stats.MissingColumns {
		if c == "urbanicity" {
			found = true
		}
	}
	if !found {
		t.Fatalf("urbanicity not reported missing: %v", res.Stats.MissingColumns)
	}
}

// fullInput returns a table with every declared column plus undeclared noise,
// cycling through codes, sentinels and text.
func fullInput(t *testing.T, rows int) *table.Table {
	t.Helper()
	pool := []table.Value{n(0), n(1), n(2), n(3), n(4), n(5), n(6), n(98), n(99), n(998), n(999),
		s(".."), s(" "), s(""), s("NA"), s("N/A"), s("998"), s("Kenya"), miss, table.Number(1.5)}
	names := append(codebook.Default().Columns(), "wgt", "wpid_random")
	tb := table.New(rows)
	for ci, name := range names {
		cells := make([]table.Value, rows)
		for r := range cells {
			cells[r] = pool[(r+ci)%len(pool)]
		}
		if err := tb.Append(name, cells); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	return tb
}

func TestRun_Properties(t *testing.T) {
	t.Parallel()

	cb := codebook.Default()
	in := fullInput(t, 57)
	before := in.Fingerprint()
	res := run(t, in)
	out := res.Table

	if in.Fingerprint() != before {
		t.Fatalf("input mutated")
	}
	if out.Rows() != in.Rows() {
		t.Fatalf("row count %d -> %d", in.Rows(), out.Rows())
	}
	if out.Has("wgt") || out.Has("wpid_random") {
		t.Fatalf("undeclared columns kept: %v", out.Names())
	}

	set := cb.Sentinels()
	for _, c := range out.Columns() {
		for i, v := range c.Cells {
			if set.Match(v) {
				t.Fatalf("sentinel survived in %s[%d]: %v", c.Name, i, v)
			}
		}
	}

	for _, rc := range cb.Recodes() {
		labels := map[string]bool{}
		for _, l := range rc.Labels() {
			labels[l] = true
		}
		for i, v := range column(t, out, rc.Target()) {
			if v.IsMissing() {
				continue
			}
			if str, ok := v.Str(); !ok || !labels[str] {
				t.Fatalf("%s[%d]=%v outside labels", rc.Target(), i, v)
			}
		}
		if rc.Renames() && out.Has(rc.Column()) {
			t.Fatalf("raw column %s kept", rc.Column())
		}
	}

	st := res.Stats
	if st.Rows != 57 || st.InputColumns != in.Width() || st.OutputColumns != out.Width() {
		t.Fatalf("stats=%+v", st)
	}
	if st.SelectedColumns != len(cb.Columns()) {
		t.Fatalf("selected=%d want %d", st.SelectedColumns, len(cb.Columns()))
	}
	if len(st.Stages) != 8 || st.Stages[0].Name != StageSelect || st.Stages[7].Name != StageMulti {
		t.Fatalf("stages=%v", st.Stages)
	}
	if st.TotalSentinels() == 0 || st.TotalUnmapped() == 0 {
		t.Fatalf("expected replacements and unmapped codes: %+v", st)
	}
}

// TestRun_OutputOrder checks the output keeps input column order with the
// renamed columns in their raw column's slot.
func TestRun_OutputOrder(t *testing.T) {
	t.Parallel()

	names := []string{"age", "female", "noise", "economy", "inc_q", "emp_in", "urbanicity"}
	cols := map[string][]table.Value{}
	for _, c := range names {
		cols[c] = []table.Value{n(1)}
	}
	res := run(t, findexTable(t, names, cols))

	want := []string{"age", "gender", "economy", "income_quintile", "employment_status", "urban_rural"}
	if got := res.Table.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("names=%v want %v", got, want)
	}
}

func TestRun_ReselectionIsIdempotent(t *testing.T) {
	t.Parallel()

	in := fullInput(t, 20)
	d := New(nil)
	sel1 := d.stages(&Stats{SentinelsReplaced: map[string]int{}, UnmappedCodes: map[string]int{}})[0].tr.Apply(in)
	sel2 := d.stages(&Stats{SentinelsReplaced: map[string]int{}, UnmappedCodes: map[string]int{}})[0].tr.Apply(sel1)
	if sel1.Fingerprint() != sel2.Fingerprint() {
		t.Fatalf("selection not idempotent")
	}
}

func TestRun_Deterministic(t *testing.T) {
	t.Parallel()

	in := fullInput(t, 30)
	a := run(t, in)
	b := run(t, in)
	if a.Table.Fingerprint() != b.Table.Fingerprint() {
		t.Fatalf("two runs over the same input differ")
	}
}

func TestRun_EmptyAndZeroRow(t *testing.T) {
	t.Parallel()

	res := run(t, table.New(0))
	if res.Table.Rows() != 0 || res.Table.Width() != 0 {
		t.Fatalf("empty table: %d x %d", res.Table.Rows(), res.Table.Width())
	}

	in := findexTable(t, []string{"female", "account"}, map[string][]table.Value{
		"female": {}, "account": {},
	})
	res = run(t, in)
	if got := res.Table.Names(); !reflect.DeepEqual(got, []string{"gender", "account"}) {
		t.Fatalf("names=%v", got)
	}
}

func TestRun_Errors(t *testing.T) {
	t.Parallel()

	if _, err := New(nil).Run(context.Background(), nil); !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("nil table: err=%v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(nil).Run(ctx, table.New(1)); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled: err=%v", err)
	}
}

// TestRun_CustomCodebook runs with a codebook that has only one group and
// one yes/no recode.
func TestRun_CustomCodebook(t *testing.T) {
	t.Parallel()

	cb, err := codebook.New(codebook.Parts{
		Groups:    []codebook.Group{{Name: "core", Columns: []string{"flag"}}},
		Sentinels: codebook.NewSentinelSet([]string{"-"}, nil),
		YesNo:     []codebook.RecodeSpec{codebook.YesNo("flag")},
	})
	if err != nil {
		t.Fatalf("codebook.New: %v", err)
	}
	in := findexTable(t, []string{"flag", "female"}, map[string][]table.Value{
		"flag":   {n(1), s("-"), n(998)},
		"female": {n(1), n(1), n(1)},
	})
	res, err := New(cb).Run(context.Background(), in)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := res.Table.Names(); !reflect.DeepEqual(got, []string{"flag"}) {
		t.Fatalf("names=%v", got)
	}
	got := column(t, res.Table, "flag")
	if !got[0].Equal(s("Yes")) || !got[1].IsMissing() || !got[2].IsMissing() {
		t.Fatalf("flag=%v", got)
	}
}

func TestRun_ConcurrentSharedDriver(t *testing.T) {
	t.Parallel()

	d := New(nil)
	in := fullInput(t, 40)
	want := run(t, in).Table.Fingerprint()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := d.Run(context.Background(), in)
			if err != nil {
				errs <- err
				return
			}
			if res.Table.Fingerprint() != want {
				errs <- errors.New("fingerprint mismatch")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent run: %v", err)
	}
}

func TestRun_LogsSummary(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	d := New(nil, WithLogger(zap.New(core)), WithJob("test"))
	if _, err := d.Run(context.Background(), fullInput(t, 5)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	done := logs.FilterMessage("pipeline: run complete").All()
	if len(done) != 1 {
		t.Fatalf("summary logs=%d", len(done))
	}
	fields := done[0].ContextMap()
	if fields["rows"] != int64(5) {
		t.Fatalf("rows field=%v", fields["rows"])
	}
	if got := logs.FilterMessage("pipeline: stage done").Len(); got != 8 {
		t.Fatalf("stage logs=%d want 8", got)
	}
}
