// Package middleware provides cross-cutting concerns for the analysis
// engine.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-saaty/internal/ports"
)

// Compile-time verification that PrometheusMetrics implements
// MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It provides real-time monitoring of run throughput,
// analysis latency, consistency quality, and cache efficiency for the
// analysis engine.
//
// Metrics register in the global Prometheus registry, so construct at
// most one instance per process.
type PrometheusMetrics struct {
	runsTotal        *prometheus.CounterVec
	analysisLatency  *prometheus.HistogramVec
	consistencyRatio *prometheus.HistogramVec
	operationCounter *prometheus.CounterVec
	observations     *prometheus.HistogramVec
	systemGauges     *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a new PrometheusMetrics instance and
// registers all required metrics in the global Prometheus registry.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		runsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ahp_runs_total",
				Help: "Total number of completed analysis runs.",
			},
			[]string{"type", "consistent"},
		),
		analysisLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ahp_analysis_duration_seconds",
				Help:    "End-to-end duration of analysis operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "solver"},
		),
		consistencyRatio: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "ahp_consistency_ratio",
				Help: "Distribution of consistency ratios per comparison block.",
				// The acceptability threshold is 0.10; buckets resolve
				// both sides of it.
				Buckets: []float64{0.01, 0.02, 0.05, 0.08, 0.1, 0.15, 0.2, 0.3, 0.5, 1},
			},
			[]string{"block"},
		),
		operationCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ahp_operations_total",
				Help: "Total number of engine operations by outcome.",
			},
			[]string{"operation", "status"},
		),
		observations: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ahp_observations",
				Help:    "Generic value distributions not covered by a dedicated histogram.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"metric"},
		),
		systemGauges: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ahp_system_state",
				Help: "Current system state values for the analysis engine.",
			},
			[]string{"metric"},
		),
	}
}

// RecordLatency implements the MetricsCollector interface by recording
// operation duration in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	solver := labelOr(labels, "solver", "unknown")
	pm.analysisLatency.WithLabelValues(operation, solver).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by incrementing
// Prometheus counters. Engine-emitted counters route to dedicated
// vectors; anything else lands in the generic operation counter.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case "ahp_runs_total":
		pm.runsTotal.WithLabelValues(
			labelOr(labels, "type", "unknown"),
			labelOr(labels, "consistent", "unknown"),
		).Add(value)
	case "ahp_requests_rejected_total":
		pm.operationCounter.WithLabelValues("request", "rejected").Add(value)
	case "ahp_cache_hits_total":
		pm.operationCounter.WithLabelValues("cache", "hit").Add(value)
	case "ahp_cache_misses_total":
		pm.operationCounter.WithLabelValues("cache", "miss").Add(value)
	case "ahp_store_failures_total":
		pm.operationCounter.WithLabelValues("store_"+labelOr(labels, "operation", "unknown"), "failure").Add(value)
	case "ahp_cache_failures_total":
		pm.operationCounter.WithLabelValues("cache_"+labelOr(labels, "operation", "unknown"), "failure").Add(value)
	default:
		pm.operationCounter.WithLabelValues(metric, "success").Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauge values.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, labels map[string]string,
) {
	pm.systemGauges.WithLabelValues(metric).Set(value)
}

// RecordHistogram implements the MetricsCollector interface by recording
// values in a Prometheus histogram. Consistency ratios get the dedicated
// threshold-aware buckets; other metrics share the generic histogram.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	if metric == "ahp_consistency_ratio" {
		pm.consistencyRatio.WithLabelValues(labelOr(labels, "block", "unknown")).Observe(value)
		return
	}
	pm.observations.WithLabelValues(metric).Observe(value)
}

// labelOr extracts a label value, falling back when the label is absent
// or empty.
func labelOr(labels map[string]string, key, fallback string) string {
	if value, ok := labels[key]; ok && value != "" {
		return value
	}
	return fallback
}
