// Package metrics records operational metrics for surveyetl runs behind a
// small pluggable interface. The default backend discards everything, so the
// Record helpers are always safe to call; concrete systems live in the
// prompush and datadog subpackages.
package metrics

import (
	"sync"
	"time"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a duration style value.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes buffered metrics, if the backend needs it.
	Flush() error
}

// Metric names shared with the backends.
const (
	StepTotal    = "surveyetl_step_total"
	StepDuration = "surveyetl_step_duration_seconds"
	RowsTotal    = "surveyetl_rows_total"
	CellsTotal   = "surveyetl_cells_total"
	BatchesTotal = "surveyetl_batches_total"
)

// Cell kinds passed to RecordCells.
const (
	CellSentinelReplaced = "sentinel_replaced"
	CellUnmappedCode     = "unmapped_code"
)

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs b as the global backend. Passing nil restores the no-op
// backend.
func SetBackend(b Backend) {
	mu.Lock()
	defer mu.Unlock()
	if b == nil {
		b = nopBackend{}
	}
	backend = b
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Flush delegates to the current backend.
func Flush() error {
	return current().Flush()
}

// RecordStep counts one execution of a run step and observes its duration.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}
	b := current()
	b.IncCounter(StepTotal, 1, lbls)
	b.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordRows adds delta to the row counter for kind ("read", "written",
// "loaded").
func RecordRows(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(RowsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordCells adds delta to the per-column cell counter for kind, one of the
// Cell* constants.
func RecordCells(job, kind, column string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(CellsTotal, float64(delta), Labels{
		"job":    job,
		"kind":   kind,
		"column": column,
	})
}

// RecordBatches adds delta to the database batch counter.
func RecordBatches(job string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(BatchesTotal, float64(delta), Labels{"job": job})
}
