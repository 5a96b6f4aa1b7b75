package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"surveyetl/internal/table"
)

// TestLoadBatches_Batching verifies rows are grouped into full batches plus a
// final partial one and that onBatch sees every flush.
func TestLoadBatches_Batching(t *testing.T) {
	t.Parallel()

	in := make(chan []any, 10)
	for i := 0; i < 7; i++ {
		in <- []any{i}
	}
	close(in)

	var sizes []int
	var seen []int64
	copyFn := func(_ context.Context, _ []string, rows [][]any) (int64, error) {
		sizes = append(sizes, len(rows))
		return int64(len(rows)), nil
	}

	n, err := LoadBatches(context.Background(), nil, []string{"id"}, in, 3, copyFn, func(n int64) { seen = append(seen, n) })
	if err != nil {
		t.Fatalf("LoadBatches: %v", err)
	}
	if n != 7 {
		t.Fatalf("total=%d want 7", n)
	}
	if len(sizes) != 3 || sizes[0] != 3 || sizes[1] != 3 || sizes[2] != 1 {
		t.Fatalf("batch sizes=%v", sizes)
	}
	if len(seen) != 3 {
		t.Fatalf("onBatch calls=%v", seen)
	}
}

func TestLoadBatches_Errors(t *testing.T) {
	t.Parallel()

	ok := func(_ context.Context, _ []string, rows [][]any) (int64, error) { return int64(len(rows)), nil }

	if _, err := LoadBatches(context.Background(), nil, nil, nil, 0, ok, nil); err == nil {
		t.Fatalf("batchSize 0 must fail")
	}
	if _, err := LoadBatches(context.Background(), nil, nil, nil, 1, nil, nil); err == nil {
		t.Fatalf("nil copyFn must fail")
	}

	in := make(chan []any, 2)
	in <- []any{1}
	in <- []any{2}
	close(in)
	boom := errors.New("boom")
	_, err := LoadBatches(context.Background(), nil, nil, in, 1,
		func(context.Context, []string, [][]any) (int64, error) { return 0, boom }, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v want boom", err)
	}
}

func TestLoadBatches_Cancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan []any) // never closed
	done := make(chan error, 1)
	go func() {
		_, err := LoadBatches(ctx, nil, nil, in, 10,
			func(_ context.Context, _ []string, rows [][]any) (int64, error) { return int64(len(rows)), nil }, nil)
		done <- err
	}()
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err=%v want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("LoadBatches did not return after cancel")
	}
}

func cleanedTable(t *testing.T) *table.Table {
	t.Helper()
	tb := table.New(3)
	if err := tb.Append("economy", []table.Value{table.Text("Kenya"), table.Text("Peru"), table.Text("Chad")}); err != nil {
		t.Fatal(err)
	}
	if err := tb.Append("wgt", []table.Value{table.Number(0.5), table.Missing, table.Int(2)}); err != nil {
		t.Fatal(err)
	}
	return tb
}

func TestLoadTable(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	var flushed int64
	n, err := LoadTable(context.Background(), repo, cleanedTable(t), LoadOptions{
		Table:      "findex",
		BatchSize:  2,
		AutoCreate: true,
		Truncate:   true,
		OnBatch:    func(n int64) { flushed += n },
	})
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	if n != 3 || flushed != 3 {
		t.Fatalf("n=%d flushed=%d want 3", n, flushed)
	}

	wantExecs := []string{
		`CREATE TABLE IF NOT EXISTS "findex" ("economy" TEXT, "wgt" REAL)`,
		`TRUNCATE TABLE "findex"`,
	}
	if len(repo.execs) != 2 || repo.execs[0] != wantExecs[0] || repo.execs[1] != wantExecs[1] {
		t.Fatalf("execs=%q", repo.execs)
	}
	if len(repo.cols) != 2 || repo.cols[0] != "economy" || repo.cols[1] != "wgt" {
		t.Fatalf("columns=%v", repo.cols)
	}
	if len(repo.batches) != 2 {
		t.Fatalf("batches=%d want 2", len(repo.batches))
	}
	second := repo.batches[0][1]
	if second[0] != "Peru" || second[1] != nil {
		t.Fatalf("row 2=%#v", second)
	}
	last := repo.batches[1][0]
	if last[0] != "Chad" || last[1] != float64(2) {
		t.Fatalf("row 3=%#v", last)
	}
}

func TestLoadTable_CopyFailure(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{failAt: 1}
	if _, err := LoadTable(context.Background(), repo, cleanedTable(t), LoadOptions{Table: "findex", BatchSize: 1}); err == nil {
		t.Fatalf("want error")
	}
	if len(repo.execs) != 0 {
		t.Fatalf("no DDL expected without AutoCreate/Truncate, got %q", repo.execs)
	}
}

// TestLoadTable_NoColumns covers an empty column selection: nothing is
// created, truncated or copied, and the skip is logged.
func TestLoadTable_NoColumns(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	repo := &fakeRepo{}
	n, err := LoadTable(context.Background(), repo, table.New(3), LoadOptions{
		Table:      "findex",
		AutoCreate: true,
		Truncate:   true,
		Logger:     zap.New(core),
	})
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	if n != 0 {
		t.Fatalf("n=%d want 0", n)
	}
	if len(repo.execs) != 0 || len(repo.batches) != 0 {
		t.Fatalf("execs=%q batches=%d, want none", repo.execs, len(repo.batches))
	}
	if got := logs.FilterMessageSnippet("load skipped").Len(); got != 1 {
		t.Fatalf("skip log entries=%d want 1", got)
	}
}
