// Package metrics provides a small, backend-agnostic abstraction for
// recording operational metrics from the ingest pipeline.
//
// It exposes a narrow Backend interface focused on counters and timing data,
// plus a global, pluggable backend defaulting to a no-op implementation, so
// metric calls are always safe even when nothing is configured. Concrete
// systems (Prometheus Pushgateway, Datadog) live in subpackages and register
// through SetBackend; the rest of the codebase depends only on this package.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it.
	Flush() error
}

// Metric names emitted by the ingest pipeline.
const (
	// MetricRows counts rows per outcome kind ("valid", "dropped").
	MetricRows = "ingest_rows_total"
	// MetricBatches counts chunks flushed to the sink.
	MetricBatches = "ingest_batches_total"
	// MetricFiles counts files per outcome ("processed", "skipped", "failed").
	MetricFiles = "ingest_files_total"
	// MetricFileDuration records per-file processing time in seconds.
	MetricFileDuration = "ingest_file_duration_seconds"
)

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing one.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordRows increments the row counter for the given outcome kind.
func RecordRows(kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(MetricRows, float64(delta), Labels{"kind": kind})
}

// RecordBatch counts one flushed chunk.
func RecordBatch() {
	backend.IncCounter(MetricBatches, 1, nil)
}

// RecordFile counts one file per outcome and records its processing time.
func RecordFile(outcome string, d time.Duration) {
	backend.IncCounter(MetricFiles, 1, Labels{"outcome": outcome})
	backend.ObserveHistogram(MetricFileDuration, d.Seconds(), Labels{"outcome": outcome})
}
