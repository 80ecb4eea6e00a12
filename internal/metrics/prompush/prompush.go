// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// It adapts the generic metrics.Backend interface to Prometheus using
// client_golang collectors, and pushes collected metrics to a Pushgateway
// instead of exposing a scrape endpoint: an ingest run is a short-lived batch
// job, so there is nothing long-lived for Prometheus to scrape. All
// Prometheus-specific dependencies stay in this package.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"csvingest/internal/metrics"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string
	jobName    string
	reg        *prometheus.Registry

	rowCounter   *prometheus.CounterVec // ingest_rows_total{kind}
	batchCounter prometheus.Counter     // ingest_batches_total
	fileCounter  *prometheus.CounterVec // ingest_files_total{outcome}
	fileDuration *prometheus.SummaryVec // ingest_file_duration_seconds{outcome}
}

// NewBackend constructs a Pushgateway backend. jobName is the Pushgateway
// "job" grouping key; gatewayURL is the Pushgateway base URL.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "csvingest"
	}

	reg := prometheus.NewRegistry()

	rowCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.MetricRows,
			Help: "Row-level counts per outcome kind (valid, dropped).",
		},
		[]string{"kind"},
	)
	batchCounter := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: metrics.MetricBatches,
			Help: "Total number of chunks flushed to the sink.",
		},
	)
	fileCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.MetricFiles,
			Help: "File-level counts per outcome (processed, skipped, failed).",
		},
		[]string{"outcome"},
	)
	fileDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       metrics.MetricFileDuration,
			Help:       "Per-file processing time in seconds, partitioned by outcome.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"outcome"},
	)

	for _, c := range []prometheus.Collector{rowCounter, batchCounter, fileCounter, fileDuration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register collector: %w", err)
		}
	}

	return &Backend{
		gatewayURL:   gatewayURL,
		jobName:      jobName,
		reg:          reg,
		rowCounter:   rowCounter,
		batchCounter: batchCounter,
		fileCounter:  fileCounter,
		fileDuration: fileDuration,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.MetricRows:
		b.rowCounter.WithLabelValues(labels["kind"]).Add(delta)
	case metrics.MetricBatches:
		b.batchCounter.Add(delta)
	case metrics.MetricFiles:
		b.fileCounter.WithLabelValues(labels["outcome"]).Add(delta)
	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.MetricFileDuration {
		return
	}
	b.fileDuration.WithLabelValues(labels["outcome"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
