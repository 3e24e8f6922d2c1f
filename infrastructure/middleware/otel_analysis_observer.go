package middleware

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-saaty/internal/domain"
	"github.com/ahrav/go-saaty/internal/ports"
)

var _ ports.ConsistencyAnalyzer = (*TracingAnalyzer)(nil)

// nearThresholdFraction marks judgments that pass the consistency check
// but sit close enough to the bound to deserve attention.
const nearThresholdFraction = 0.8

// TracingAnalyzer implements observability for matrix analysis using
// OpenTelemetry tracing. It wraps another analyzer, creating one span per
// analyzed matrix with the order, solver, and consistency diagnostics as
// attributes, and records events when a matrix approaches or crosses the
// consistency threshold.
type TracingAnalyzer struct {
	next ports.ConsistencyAnalyzer
}

// NewTracingAnalyzer wraps an analyzer with OpenTelemetry tracing.
func NewTracingAnalyzer(next ports.ConsistencyAnalyzer) (*TracingAnalyzer, error) {
	if next == nil {
		return nil, fmt.Errorf("analyzer cannot be nil")
	}
	return &TracingAnalyzer{next: next}, nil
}

// Name returns the wrapped analyzer's identifier; tracing is invisible to
// reports and registry lookups.
func (t *TracingAnalyzer) Name() string { return t.next.Name() }

// Validate delegates to the wrapped analyzer.
func (t *TracingAnalyzer) Validate() error { return t.next.Validate() }

// Analyze executes the wrapped analyzer within a trace span, recording
// the consistency diagnostics and any failure.
func (t *TracingAnalyzer) Analyze(
	ctx context.Context, matrix *domain.PairwiseMatrix,
) (*domain.ConsistencyResult, error) {
	tracer := otel.Tracer("consistency-analyzer")
	ctx, span := tracer.Start(ctx, "ConsistencyAnalyzer.Analyze",
		trace.WithAttributes(
			attribute.String("analyzer.name", t.next.Name()),
			attribute.Int("matrix.order", matrix.Order()),
		),
	)
	defer span.End()

	result, err := t.next.Analyze(ctx, matrix)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Float64("analysis.lambda_max", result.LambdaMax),
		attribute.Float64("analysis.consistency_index", result.ConsistencyIndex),
		attribute.Float64("analysis.consistency_ratio", result.ConsistencyRatio),
		attribute.Bool("analysis.consistent", result.IsConsistent),
	)
	t.recordThresholdEvents(span, result)

	span.SetStatus(codes.Ok, "analysis completed")
	return result, nil
}

// recordThresholdEvents emits span events for matrices near or past the
// consistency bound so inconsistent survey data surfaces in traces
// without log digging.
func (t *TracingAnalyzer) recordThresholdEvents(span trace.Span, result *domain.ConsistencyResult) {
	switch {
	case !result.IsConsistent:
		span.AddEvent("consistency.threshold_exceeded", trace.WithAttributes(
			attribute.Float64("consistency.ratio", result.ConsistencyRatio),
			attribute.Float64("consistency.threshold", domain.ConsistencyThreshold),
		))
	case result.ConsistencyRatio >= nearThresholdFraction*domain.ConsistencyThreshold:
		span.AddEvent("consistency.near_threshold", trace.WithAttributes(
			attribute.Float64("consistency.ratio", result.ConsistencyRatio),
			attribute.Float64("consistency.threshold", domain.ConsistencyThreshold),
		))
	}
}
