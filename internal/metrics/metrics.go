// Package metrics provides the centralized Prometheus metrics registry for
// the leaderboard service.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	ImportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "leaderboard",
		Name:      "imports_total",
		Help:      "Total number of CSV imports by kind",
	}, []string{"kind"})
	ImportRowsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "leaderboard",
		Name:      "import_rows_total",
		Help:      "Total number of CSV data rows processed",
	})
	ImportRowErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "leaderboard",
		Name:      "import_row_errors_total",
		Help:      "Total number of rejected CSV rows",
	})
	ImportRejectedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "leaderboard",
		Name:      "imports_rejected_total",
		Help:      "Total number of imports aborted before row processing",
	})
	ExportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "leaderboard",
		Name:      "exports_total",
		Help:      "Total number of CSV exports by kind",
	}, []string{"kind"})
	ResultsDeletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "leaderboard",
		Name:      "results_deleted_total",
		Help:      "Total number of result rows deleted",
	})
	AggregateRecomputesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "leaderboard",
		Name:      "aggregate_recomputes_total",
		Help:      "Total number of team aggregate recomputations",
	})
)

// Histogram metrics
var (
	LeaderboardQueryDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "leaderboard",
		Name:      "query_duration_seconds",
		Help:      "Leaderboard query duration in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	ImportDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "leaderboard",
		Name:      "import_duration_seconds",
		Help:      "CSV import duration in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(ImportsTotal)
		registry.MustRegister(ImportRowsTotal)
		registry.MustRegister(ImportRowErrorsTotal)
		registry.MustRegister(ImportRejectedTotal)
		registry.MustRegister(ExportsTotal)
		registry.MustRegister(ResultsDeletedTotal)
		registry.MustRegister(AggregateRecomputesTotal)

		registry.MustRegister(LeaderboardQueryDuration)
		registry.MustRegister(ImportDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordImport records a completed import and its row outcomes.
func RecordImport(kind string, success, errorCount int, durationSeconds float64) {
	ImportsTotal.WithLabelValues(kind).Inc()
	ImportRowsTotal.Add(float64(success + errorCount))
	ImportRowErrorsTotal.Add(float64(errorCount))
	ImportDuration.Observe(durationSeconds)
}

// RecordImportRejected records an import aborted by a structural check.
func RecordImportRejected() {
	ImportRejectedTotal.Inc()
}

// RecordExport records a CSV export.
func RecordExport(kind string) {
	ExportsTotal.WithLabelValues(kind).Inc()
}

// RecordResultDeleted records a result row deletion.
func RecordResultDeleted() {
	ResultsDeletedTotal.Inc()
}

// RecordAggregateRecompute records one team aggregate recomputation.
func RecordAggregateRecompute() {
	AggregateRecomputesTotal.Inc()
}

// RecordQueryDuration records a leaderboard query duration.
func RecordQueryDuration(durationSeconds float64) {
	LeaderboardQueryDuration.Observe(durationSeconds)
}
