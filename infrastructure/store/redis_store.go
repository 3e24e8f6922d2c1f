// Package store provides Redis-backed and in-memory implementations of
// the result-store and cache-store ports.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-saaty/internal/domain"
	"github.com/ahrav/go-saaty/internal/ports"
)

const (
	// reportKeyPrefix namespaces stored reports: ahp:run:{run_id}.
	reportKeyPrefix = "ahp:run:"

	// defaultReportTTL is how long finished reports stay retrievable.
	defaultReportTTL = 7 * 24 * time.Hour
)

// Verify interface compliance at compile time.
var _ ports.ResultStore = (*RedisResultStore)(nil)

// RedisResultStore persists analysis reports in Redis as JSON values with
// a bounded retention window. Reports are immutable once written, so the
// store offers no partial updates; Save replaces the whole document.
type RedisResultStore struct {
	client *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

// NewRedisResultStore creates a report store backed by the given Redis
// client. The client's lifecycle belongs to the caller.
func NewRedisResultStore(client *redis.Client) (*RedisResultStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}
	return &RedisResultStore{
		client: client,
		ttl:    defaultReportTTL,
		tracer: otel.Tracer("redis-result-store"),
	}, nil
}

// SetReportTTL configures the retention window for stored reports.
// Non-positive durations reset to the default of seven days.
func (s *RedisResultStore) SetReportTTL(ttl time.Duration) {
	if ttl <= 0 {
		ttl = defaultReportTTL
	}
	s.ttl = ttl
}

// Save stores a report under its run ID, replacing any previous value and
// refreshing the retention window.
func (s *RedisResultStore) Save(ctx context.Context, report *domain.Report) error {
	ctx, span := s.tracer.Start(ctx, "RedisResultStore.Save")
	defer span.End()

	if report == nil || report.ID == "" {
		err := ports.NewStoreError("", "save", errEmptyReportID)
		span.RecordError(err)
		return err
	}
	span.SetAttributes(attribute.String("ahp.run_id", report.ID))

	data, err := json.Marshal(report)
	if err != nil {
		err = ports.NewStoreError(report.ID, "save", fmt.Errorf("failed to marshal report: %w", err))
		span.RecordError(err)
		return err
	}

	if err := s.client.Set(ctx, s.reportKey(report.ID), data, s.ttl).Err(); err != nil {
		err = ports.NewStoreError(report.ID, "save", err)
		span.RecordError(err)
		return err
	}
	return nil
}

// Get retrieves a report by run ID. A missing or expired report returns
// an error wrapping ports.ErrReportNotFound.
func (s *RedisResultStore) Get(ctx context.Context, id string) (*domain.Report, error) {
	ctx, span := s.tracer.Start(ctx, "RedisResultStore.Get",
		trace.WithAttributes(attribute.String("ahp.run_id", id)))
	defer span.End()

	data, err := s.client.Get(ctx, s.reportKey(id)).Bytes()
	if err == redis.Nil {
		return nil, ports.NewStoreError(id, "get", ports.ErrReportNotFound)
	}
	if err != nil {
		err = ports.NewStoreError(id, "get", err)
		span.RecordError(err)
		return nil, err
	}

	var report domain.Report
	if err := json.Unmarshal(data, &report); err != nil {
		err = ports.NewStoreError(id, "get", fmt.Errorf("failed to unmarshal report: %w", err))
		span.RecordError(err)
		return nil, err
	}
	return &report, nil
}

// Delete removes a report by run ID. Deleting a missing report is not an
// error.
func (s *RedisResultStore) Delete(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "RedisResultStore.Delete",
		trace.WithAttributes(attribute.String("ahp.run_id", id)))
	defer span.End()

	if err := s.client.Del(ctx, s.reportKey(id)).Err(); err != nil {
		err = ports.NewStoreError(id, "delete", err)
		span.RecordError(err)
		return err
	}
	return nil
}

func (s *RedisResultStore) reportKey(id string) string { return reportKeyPrefix + id }
