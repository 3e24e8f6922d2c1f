package ports

import (
	"context"
	"time"

	"github.com/ahrav/go-saaty/internal/domain"
)

// ResultStore persists finished analysis reports so callers can fetch a
// run's outcome after the fact. Implementations could use Redis, a
// relational database, or in-memory storage.
type ResultStore interface {
	// Save stores a report under its ID, replacing any previous report
	// with the same ID. Implementations apply their own retention
	// policy; stored reports may expire.
	Save(ctx context.Context, report *domain.Report) error

	// Get retrieves a report by ID.
	// A missing report returns an error wrapping ErrReportNotFound.
	Get(ctx context.Context, id string) (*domain.Report, error)

	// Delete removes a report by ID.
	// Deleting a missing report is not an error.
	Delete(ctx context.Context, id string) error
}

// CacheStore defines the interface for caching analysis results keyed by
// request content. Implementations could use Redis, Memcached, or
// in-memory storage. Caching is optional but avoids re-solving identical
// surveys, which is common when a dashboard refreshes.
type CacheStore interface {
	// Get retrieves a cached value by key.
	// Returns the value and true if found, or nil and false if not found.
	// The implementation should handle serialization/deserialization.
	Get(ctx context.Context, key string) (any, bool, error)

	// Set stores a value in the cache with an expiration time.
	// The implementation should handle serialization of the value.
	// A zero duration means the item doesn't expire.
	Set(ctx context.Context, key string, value any, expiration time.Duration) error

	// Delete removes a value from the cache.
	// Returns nil if the key doesn't exist.
	Delete(ctx context.Context, key string) error

	// Clear removes all values from the cache.
	// This is useful for cache invalidation scenarios.
	Clear(ctx context.Context) error
}

// MetricsCollector defines the interface for collecting operational
// metrics. Implementations should integrate with observability platforms
// like Prometheus, OpenTelemetry, or custom monitoring solutions.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation, such as
	// one block analysis or a full run.
	// The labels map provides additional context for the metric.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	// This is useful for tracking events like cache hits/misses,
	// inconsistent blocks, validation rejections, etc.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	// This is useful for tracking values like in-flight analyses.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram.
	// This is useful for tracking distributions like consistency ratios,
	// matrix orders, or respondent counts.
	RecordHistogram(metric string, value float64, labels map[string]string)
}
