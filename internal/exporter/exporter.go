// Package exporter writes the cleaned table to its file artifacts.
//
// All artifacts of one run are written to temporary files next to their
// destinations and renamed into place only after every writer succeeded, so
// a failed run leaves no partial output behind.
package exporter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"surveyetl/internal/table"
)

// Writer renders a table in one file format.
type Writer interface {
	Write(w io.Writer, t *table.Table) error
}

// Target pairs a destination path with its writer.
type Target struct {
	Path   string
	Writer Writer
}

// ErrSamePath is returned when two targets share a destination.
var ErrSamePath = errors.New("exporter: targets share a path")

// WriteAll writes t to every target concurrently. On success each target
// path holds a complete file; on failure none of them was created or
// replaced.
func WriteAll(ctx context.Context, t *table.Table, targets ...Target) error {
	seen := map[string]struct{}{}
	for _, tg := range targets {
		abs, err := filepath.Abs(tg.Path)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", tg.Path, err)
		}
		if _, dup := seen[abs]; dup {
			return fmt.Errorf("%w: %s", ErrSamePath, tg.Path)
		}
		seen[abs] = struct{}{}
	}

	temps := make([]string, len(targets))
	cleanup := func() {
		for _, p := range temps {
			if p != "" {
				_ = os.Remove(p)
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, tg := range targets {
		i, tg := i, tg
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := writeTemp(tg, t)
			temps[i] = p
			return err
		})
	}
	if err := g.Wait(); err != nil {
		cleanup()
		return err
	}

	for i, tg := range targets {
		if err := os.Rename(temps[i], tg.Path); err != nil {
			cleanup()
			for _, done := range targets[:i] {
				_ = os.Remove(done.Path)
			}
			return fmt.Errorf("rename %s: %w", tg.Path, err)
		}
		temps[i] = ""
	}
	return nil
}

// WriteFile is WriteAll with a single target.
func WriteFile(ctx context.Context, path string, w Writer, t *table.Table) error {
	return WriteAll(ctx, t, Target{Path: path, Writer: w})
}

// writeTemp renders t into a temporary file in the target's directory and
// returns its path. The path is returned even on error so it can be removed.
func writeTemp(tg Target, t *table.Table) (string, error) {
	dir, base := filepath.Split(tg.Path)
	if dir == "" {
		dir = "."
	}
	f, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp for %s: %w", tg.Path, err)
	}
	if err := tg.Writer.Write(f, t); err != nil {
		f.Close()
		return f.Name(), fmt.Errorf("write %s: %w", tg.Path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return f.Name(), fmt.Errorf("sync %s: %w", tg.Path, err)
	}
	if err := f.Close(); err != nil {
		return f.Name(), fmt.Errorf("close %s: %w", tg.Path, err)
	}
	if err := os.Chmod(f.Name(), 0o644); err != nil {
		return f.Name(), fmt.Errorf("chmod %s: %w", tg.Path, err)
	}
	return f.Name(), nil
}
