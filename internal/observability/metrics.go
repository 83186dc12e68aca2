// Package observability exposes Prometheus instrumentation for the
// prediction-decoding pipeline.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for a decode run.
type Metrics struct {
	LinesRead     prometheus.Counter
	RecordsParsed prometheus.Counter
	ParseErrors   prometheus.Counter
	HeaderLines   prometheus.Counter
	FilesFailed   prometheus.Counter

	FileDuration   prometheus.Histogram
	InsertDuration prometheus.Histogram
	BatchRows      prometheus.Histogram
}

func newMetrics() *Metrics {
	return &Metrics{
		LinesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voacap",
			Name:      "lines_read_total",
			Help:      "Total raw prediction lines read.",
		}),
		RecordsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voacap",
			Name:      "records_parsed_total",
			Help:      "Total receiver-point records decoded.",
		}),
		ParseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voacap",
			Name:      "parse_errors_total",
			Help:      "Total non-fatal line parse errors.",
		}),
		HeaderLines: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voacap",
			Name:      "header_lines_total",
			Help:      "Total transmitter header lines recognized.",
		}),
		FilesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voacap",
			Name:      "files_failed_total",
			Help:      "Input files skipped because they could not be opened or read.",
		}),
		FileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "voacap",
			Name:      "file_duration_seconds",
			Help:      "Wall time to parse one prediction file.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		InsertDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "voacap",
			Name:      "insert_duration_seconds",
			Help:      "Wall time of the bulk sink commit.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		BatchRows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "voacap",
			Name:      "batch_rows",
			Help:      "Rows per committed batch.",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
		}),
	}
}

// NewMetrics creates and registers all pipeline metrics with the
// default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.LinesRead,
		m.RecordsParsed,
		m.ParseErrors,
		m.HeaderLines,
		m.FilesFailed,
		m.FileDuration,
		m.InsertDuration,
		m.BatchRows,
	)
	return m
}

// NewMetricsForTesting creates Metrics without touching the default
// registry, avoiding "already registered" panics across tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
