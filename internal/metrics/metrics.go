package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "listprep"
)

var (
	runDurationBuckets = []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120, 300}

	// Run Metrics
	RunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Time taken for a hygiene run to complete.",
		Buckets:   runDurationBuckets,
	}, []string{"source"})

	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runs_total",
		Help:      "Count of hygiene run executions.",
	}, []string{"source", "status"})

	RunsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "runs_active",
		Help:      "Number of runs currently executing.",
	})

	// Record Metrics
	RowsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rows_processed_total",
		Help:      "Number of input rows folded into runs.",
	}, []string{"source", "role"})

	RecordsOutTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_out_total",
		Help:      "Number of records written to run output.",
	}, []string{"source"})

	InvalidEmailsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "invalid_emails_total",
		Help:      "Number of rows whose email field failed validation.",
	}, []string{"source"})

	SuppressionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "suppressions_total",
		Help:      "Number of records annotated from suppression lists.",
	}, []string{"source", "tag"})
)
