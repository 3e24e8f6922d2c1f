package ports

import (
	"errors"
	"fmt"
)

// Common infrastructure errors that can occur during external service
// interactions.
var (
	// ErrReportNotFound indicates that no stored report exists for the
	// requested run ID.
	ErrReportNotFound = errors.New("report not found")

	// ErrStoreUnavailable indicates that the backing store cannot be
	// reached.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = errors.New("operation timed out")

	// ErrCacheCorrupted indicates that cached data is corrupted or invalid.
	ErrCacheCorrupted = errors.New("cache corrupted")

	// ErrConfigNotFound indicates that required configuration is missing.
	ErrConfigNotFound = errors.New("configuration not found")

	// ErrAnalyzerNotFound indicates that no analyzer is registered under
	// the requested name.
	ErrAnalyzerNotFound = errors.New("analyzer not found")
)

// StoreError represents an error from report persistence operations.
// It includes the run ID and operation that failed.
type StoreError struct {
	// ID is the run ID that was involved in the failed operation.
	ID string

	// Operation is the name of the store operation that failed.
	Operation string

	// Err is the underlying error that caused the operation to fail.
	Err error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	return fmt.Sprintf("store error: operation=%s, id=%s, err=%v", e.Operation, e.ID, e.Err)
}

// Unwrap returns the underlying error.
func (e *StoreError) Unwrap() error { return e.Err }

// IsRetryable returns true if the error is temporary and the operation
// can be retried.
func (e *StoreError) IsRetryable() bool {
	// Only connectivity-level errors are retryable; logic errors are not.
	return errors.Is(e.Err, ErrStoreUnavailable) || errors.Is(e.Err, ErrTimeout)
}

// NewStoreError creates a new StoreError with the given details.
func NewStoreError(id, operation string, err error) *StoreError {
	return &StoreError{
		ID:        id,
		Operation: operation,
		Err:       err,
	}
}

// CacheError represents an error from cache operations.
// It includes the key and operation that failed.
type CacheError struct {
	// Key is the cache key that was involved in the failed operation.
	Key string

	// Operation is the name of the cache operation that failed.
	Operation string

	// Err is the underlying error that caused the cache operation to fail.
	Err error
}

// Error implements the error interface for CacheError.
func (e *CacheError) Error() string {
	return fmt.Sprintf("cache error: operation=%s, key=%s, err=%v", e.Operation, e.Key, e.Err)
}

// Unwrap returns the underlying error.
func (e *CacheError) Unwrap() error { return e.Err }

// NewCacheError creates a new CacheError with the given details.
func NewCacheError(key, operation string, err error) *CacheError {
	return &CacheError{
		Key:       key,
		Operation: operation,
		Err:       err,
	}
}

// MetricsError represents an error from metrics collection operations.
type MetricsError struct {
	// Metric is the name of the metric that was being collected when the
	// error occurred.
	Metric string

	// Operation is the name of the metrics operation that failed.
	Operation string

	// Err is the underlying error that caused the metrics operation to fail.
	Err error
}

// Error implements the error interface for MetricsError.
func (e *MetricsError) Error() string {
	return fmt.Sprintf("metrics error: operation=%s, metric=%s, err=%v", e.Operation, e.Metric, e.Err)
}

// Unwrap returns the underlying error.
func (e *MetricsError) Unwrap() error { return e.Err }

// NewMetricsError creates a new MetricsError with the given details.
func NewMetricsError(metric, operation string, err error) *MetricsError {
	return &MetricsError{
		Metric:    metric,
		Operation: operation,
		Err:       err,
	}
}

// ConfigError represents an error from configuration operations.
type ConfigError struct {
	// ConfigKey is the configuration key that was involved in the failed
	// operation.
	ConfigKey string

	// Err is the underlying error that caused the configuration operation
	// to fail.
	Err error
}

// Error implements the error interface for ConfigError.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: key=%s, err=%v", e.ConfigKey, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError creates a new ConfigError with the given details.
func NewConfigError(key string, err error) *ConfigError {
	return &ConfigError{
		ConfigKey: key,
		Err:       err,
	}
}
