package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"surveyetl/internal/config"
	"surveyetl/internal/datasource"
	"surveyetl/internal/datasource/file"
	"surveyetl/internal/datasource/httpds"
	"surveyetl/internal/exporter"
	"surveyetl/internal/metrics"
	"surveyetl/internal/parser"
	csvparser "surveyetl/internal/parser/csv"
	xlsxparser "surveyetl/internal/parser/xlsx"
	"surveyetl/internal/pipeline"
	"surveyetl/internal/report"
	"surveyetl/internal/storage"
	"surveyetl/internal/table"
)

// run reads the extract, cleans it and writes every configured artifact. The
// file exports and the database load run concurrently; when the load fails
// after the exports succeeded, the new files are removed again.
func run(ctx context.Context, p config.Pipeline, log *zap.Logger, out io.Writer) error {
	start := time.Now()

	cb, err := loadCodebook(p.Codebook)
	if err != nil {
		return err
	}
	prs, err := newParser(p.Parser)
	if err != nil {
		return err
	}

	readStart := time.Now()
	in, err := pipeline.Read(ctx, newSource(p.Source), prs)
	metrics.RecordStep(p.Job, "read", err, time.Since(readStart))
	if err != nil {
		return err
	}
	metrics.RecordRows(p.Job, "read", int64(in.Rows()))
	log.Info("input read",
		zap.String("source", p.Source.Location()),
		zap.String("parser", p.Parser.Kind),
		zap.Int("rows", in.Rows()),
		zap.Int("columns", in.Width()))

	drv := pipeline.New(cb, pipeline.WithLogger(log), pipeline.WithJob(p.Job))
	res, err := drv.Run(ctx, in)
	if err != nil {
		return err
	}
	if cols := res.Stats.MissingColumns; len(cols) > 0 {
		log.Warn("declared columns absent from input", zap.Strings("columns", cols))
	}
	if cols := res.Stats.UnmappedColumns(); len(cols) > 0 {
		log.Warn("unmapped codes set to missing",
			zap.Int("cells", res.Stats.TotalUnmapped()),
			zap.Strings("columns", cols))
	}

	targets := outputTargets(p.Output)
	exported := false
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		writeStart := time.Now()
		err := exporter.WriteAll(gctx, res.Table, targets...)
		metrics.RecordStep(p.Job, "export", err, time.Since(writeStart))
		if err != nil {
			return err
		}
		exported = true
		metrics.RecordRows(p.Job, "written", int64(res.Table.Rows()))
		return nil
	})
	if p.Storage.Kind != "" {
		g.Go(func() error {
			loadStart := time.Now()
			n, err := loadStorage(gctx, p, res.Table, log)
			metrics.RecordStep(p.Job, "load", err, time.Since(loadStart))
			metrics.RecordRows(p.Job, "loaded", n)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		if exported {
			removeOutputs(targets)
		}
		return err
	}

	log.Info("manifest",
		zap.String("fingerprint", fmt.Sprintf("%016x", res.Table.Fingerprint())),
		zap.Int("rows", res.Table.Rows()),
		zap.Int("columns", res.Table.Width()),
		zap.String("csv", p.Output.CSV),
		zap.String("xlsx", p.Output.XLSX),
		zap.Duration("elapsed", time.Since(start).Truncate(time.Millisecond)))

	return report.Write(out, res.Table.Rows(), report.Profile(res.Table))
}

// newSource returns the reader for the configured source kind.
func newSource(s config.Source) datasource.Source {
	if s.Kind == "http" {
		hdr := http.Header{}
		for k, v := range s.HTTP.Headers {
			hdr.Set(k, v)
		}
		return httpds.NewSource(s.HTTP.URL, httpds.Config{
			Timeout:    time.Duration(s.HTTP.TimeoutSec) * time.Second,
			MaxRetries: s.HTTP.MaxRetries,
			Header:     hdr,
		})
	}
	return file.NewLocal(s.File.Path)
}

// newParser builds the reader for the configured kind and options.
func newParser(c config.Parser) (parser.Parser, error) {
	switch c.Kind {
	case "csv":
		return csvparser.NewParser(csvparser.Options{
			Comma:     c.Options.Rune("comma", ','),
			TrimSpace: c.Options.Bool("trim_space", false),
			HeaderMap: c.Options.StringMap("header_map"),
		}), nil
	case "xlsx":
		return xlsxparser.NewParser(xlsxparser.Options{
			Sheet:     c.Options.String("sheet", ""),
			HeaderMap: c.Options.StringMap("header_map"),
		}), nil
	default:
		return nil, fmt.Errorf("unsupported parser kind %q", c.Kind)
	}
}

func outputTargets(o config.Output) []exporter.Target {
	var targets []exporter.Target
	if o.CSV != "" {
		targets = append(targets, exporter.Target{Path: o.CSV, Writer: exporter.CSVWriter{}})
	}
	if o.XLSX != "" {
		targets = append(targets, exporter.Target{Path: o.XLSX, Writer: exporter.XLSXWriter{Sheet: o.Sheet}})
	}
	return targets
}

func removeOutputs(targets []exporter.Target) {
	for _, tg := range targets {
		_ = os.Remove(tg.Path)
	}
}

// loadStorage writes t into the configured database table.
func loadStorage(ctx context.Context, p config.Pipeline, t *table.Table, log *zap.Logger) (int64, error) {
	repo, err := storage.New(ctx, storage.Config{
		Kind:  p.Storage.Kind,
		DSN:   p.Storage.DB.DSN,
		Table: p.Storage.DB.Table,
	})
	if err != nil {
		return 0, fmt.Errorf("storage: %w", err)
	}
	defer repo.Close()

	return storage.LoadTable(ctx, repo, t, storage.LoadOptions{
		Table:      p.Storage.DB.Table,
		BatchSize:  p.Storage.DB.BatchSize,
		AutoCreate: p.Storage.DB.AutoCreateTable,
		Truncate:   p.Storage.DB.Truncate,
		Logger:     log,
		OnBatch:    func(int64) { metrics.RecordBatches(p.Job, 1) },
	})
}
