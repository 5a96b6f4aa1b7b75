package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"surveyetl/internal/table"
)

// CopyFn inserts one batch of rows aligned to columns and returns the number
// of rows inserted.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// LoadBatches drains rows from in, groups them into batches of batchSize and
// calls copyFn per non-empty batch. onBatch, when set, is called after each
// successful flush. It returns the total reported by copyFn and the first
// error, or ctx.Err() when cancelled.
func LoadBatches(
	ctx context.Context,
	log *zap.Logger,
	columns []string,
	in <-chan []any,
	batchSize int,
	copyFn CopyFn,
	onBatch func(n int64),
) (int64, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("batchSize must be > 0")
	}
	if copyFn == nil {
		return 0, fmt.Errorf("copyFn must not be nil")
	}
	if log == nil {
		log = zap.NewNop()
	}

	var (
		total     int64
		batches   int64
		batch     = make([][]any, 0, batchSize)
		start     = time.Now()
		lastFlush = start
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := copyFn(ctx, columns, batch)
		total += n
		batch = batch[:0]
		if err != nil {
			log.Error("loader: copy failed", zap.Int64("inserted", n), zap.Int64("total", total), zap.Error(err))
			return err
		}

		batches++
		now := time.Now()
		since := now.Sub(lastFlush)
		rps := float64(0)
		if since > 0 {
			rps = float64(n) / since.Seconds()
		}
		log.Debug("loader: batch flushed",
			zap.Int64("batch", batches),
			zap.Int64("inserted", n),
			zap.Int64("total", total),
			zap.Float64("rps", rps),
			zap.Duration("elapsed", now.Sub(start).Truncate(time.Millisecond)))
		lastFlush = now
		if onBatch != nil {
			onBatch(n)
		}
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		case row, ok := <-in:
			if !ok {
				if err := flush(); err != nil {
					return total, err
				}
				log.Debug("loader: input closed", zap.Int64("batches", batches), zap.Int64("total", total))
				return total, nil
			}
			batch = append(batch, row)
			if len(batch) >= batchSize {
				if err := flush(); err != nil {
					return total, err
				}
			}
		}
	}
}

// LoadOptions configures LoadTable.
type LoadOptions struct {
	Table      string
	BatchSize  int
	AutoCreate bool
	Truncate   bool
	Logger     *zap.Logger
	// OnBatch is called after each successful batch with its row count.
	OnBatch func(n int64)
}

// LoadTable writes every row of t into repo. With AutoCreate the destination
// table is created from InferColumns when missing; with Truncate it is
// emptied first. A table without columns has nothing to store: the load is
// skipped and the destination is left untouched.
func LoadTable(ctx context.Context, repo Repository, t *table.Table, opt LoadOptions) (int64, error) {
	log := opt.Logger
	if log == nil {
		log = zap.NewNop()
	}
	d := repo.Dialect()
	if t.Width() == 0 {
		log.Info("loader: no columns selected, load skipped",
			zap.String("backend", d.Name), zap.String("table", opt.Table), zap.Int("rows", t.Rows()))
		return 0, nil
	}
	defs := InferColumns(t)

	if opt.AutoCreate {
		if err := repo.Exec(ctx, d.CreateTable(opt.Table, defs)); err != nil {
			return 0, fmt.Errorf("create table %s: %w", opt.Table, err)
		}
	}
	if opt.Truncate {
		if err := repo.Exec(ctx, d.Truncate(opt.Table)); err != nil {
			return 0, fmt.Errorf("truncate %s: %w", opt.Table, err)
		}
	}

	batchSize := opt.BatchSize
	if batchSize <= 0 {
		batchSize = 1000
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cols := t.Columns()
	rows := make(chan []any, batchSize)
	go func() {
		defer close(rows)
		for r := 0; r < t.Rows(); r++ {
			row := make([]any, len(cols))
			for j, c := range cols {
				row[j] = rowValue(c.Cells[r], defs[j].Type)
			}
			select {
			case rows <- row:
			case <-ctx.Done():
				return
			}
		}
	}()

	n, err := LoadBatches(ctx, log, t.Names(), rows, batchSize, repo.CopyFrom, opt.OnBatch)
	if err != nil {
		return n, fmt.Errorf("load %s: %w", opt.Table, err)
	}
	log.Info("loader: table loaded", zap.String("backend", d.Name), zap.String("table", opt.Table), zap.Int64("rows", n))
	return n, nil
}
