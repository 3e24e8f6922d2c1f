package application

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/ahrav/go-saaty/internal/domain"
	"github.com/ahrav/go-saaty/internal/ports"
)

// defaultCacheTTL bounds how long memoized reports stay valid. Analysis is
// deterministic, so the TTL exists only to cap cache growth.
const defaultCacheTTL = time.Hour

// resultCachePrefix namespaces memoized reports in the cache store.
const resultCachePrefix = "ahp:result:"

// AnalysisEngine runs one analysis end to end: collect the comparison
// blocks, analyze every block's matrix concurrently, synthesize the final
// ranking, and assemble the report.
//
// The engine is stateless between runs. Identical requests are memoized by
// content hash when a cache store is configured; concurrent identical
// requests are collapsed with singleflight and share one report (including
// its run ID). Persistence and caching are best effort: a store failure is
// recorded on the span and in the metrics but never fails a computed run.
type AnalysisEngine struct {
	// analyzer derives priorities and consistency for each block.
	analyzer ports.ConsistencyAnalyzer
	// store persists finished reports for later retrieval. Optional.
	store ports.ResultStore
	// cache memoizes reports by request fingerprint. Optional.
	cache ports.CacheStore
	// metrics receives run counters, latencies, and ratio histograms.
	// Optional.
	metrics ports.MetricsCollector

	tracer trace.Tracer

	// concurrency bounds the per-block analysis worker pool.
	concurrency int
	// cacheTTL is the expiration applied to memoized reports.
	cacheTTL time.Duration
	// sf collapses concurrent identical runs into one computation.
	sf singleflight.Group
}

// NewAnalysisEngine creates an engine around the given analyzer. The store,
// cache, and metrics collaborators are optional and may be nil; the engine
// then skips persistence, memoization, or instrumentation respectively.
// NewAnalysisEngine returns an error if the analyzer is missing or
// misconfigured.
func NewAnalysisEngine(
	analyzer ports.ConsistencyAnalyzer,
	store ports.ResultStore,
	cache ports.CacheStore,
	metrics ports.MetricsCollector,
) (*AnalysisEngine, error) {
	if analyzer == nil {
		return nil, fmt.Errorf("analyzer cannot be nil")
	}
	if err := analyzer.Validate(); err != nil {
		return nil, fmt.Errorf("analyzer validation failed: %w", err)
	}

	return &AnalysisEngine{
		analyzer:    analyzer,
		store:       store,
		cache:       cache,
		metrics:     metrics,
		tracer:      otel.Tracer("analysis-engine"),
		concurrency: runtime.NumCPU() * 2,
		cacheTTL:    defaultCacheTTL,
	}, nil
}

// SetConcurrencyLimit configures the maximum number of blocks analyzed
// concurrently. Non-positive limits reset to the default of twice the CPU
// count. Call before Evaluate.
func (e *AnalysisEngine) SetConcurrencyLimit(limit int) {
	if limit <= 0 {
		limit = runtime.NumCPU() * 2
	}
	e.concurrency = limit
}

// SetCacheTTL configures how long memoized reports stay cached.
// Non-positive durations reset to the default. Call before Evaluate.
func (e *AnalysisEngine) SetCacheTTL(ttl time.Duration) {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	e.cacheTTL = ttl
}

// Solver returns the name of the analyzer behind this engine.
func (e *AnalysisEngine) Solver() string { return e.analyzer.Name() }

// Evaluate executes one analysis run and returns its report.
//
// Errors follow the run taxonomy: a *domain.ValidationError for malformed
// input, a *domain.AnalysisError naming the offending block for numerical
// or configuration failures during analysis, and plain wrapped errors for
// everything else. Missing data never fails a run; it degrades through the
// documented defaults.
func (e *AnalysisEngine) Evaluate(ctx context.Context, req *AnalysisRequest) (*domain.Report, error) {
	start := time.Now()

	ctx, span := e.tracer.Start(ctx, "AnalysisEngine.Evaluate")
	defer span.End()

	if req == nil {
		err := fmt.Errorf("request cannot be nil")
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("ahp.goal", req.Goal),
		attribute.Int("ahp.criteria_count", len(req.Criteria)),
		attribute.Int("ahp.alternatives_count", len(req.Alternatives)),
		attribute.String("ahp.solver", e.analyzer.Name()),
	)

	if err := req.Validate(); err != nil {
		span.RecordError(err)
		e.count("ahp_requests_rejected_total", nil)
		return nil, err
	}

	if e.cache == nil {
		return e.run(ctx, span, req, start, "")
	}

	key, err := req.fingerprint()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if report, ok := e.cachedReport(ctx, span, key); ok {
		span.SetAttributes(attribute.Bool("ahp.cache_hit", true))
		e.count("ahp_cache_hits_total", nil)
		return report, nil
	}
	e.count("ahp_cache_misses_total", nil)

	v, err, _ := e.sf.Do(key, func() (any, error) {
		// Re-check inside singleflight: a concurrent caller may have
		// filled the cache between the lookup above and this execution.
		if report, ok := e.cachedReport(ctx, span, key); ok {
			return report, nil
		}
		return e.run(ctx, span, req, start, key)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Report), nil
}

// run drives the phase machine for one request: CollectBlocks,
// AnalyzeBlocks, Synthesize, Done.
func (e *AnalysisEngine) run(
	ctx context.Context,
	span trace.Span,
	req *AnalysisRequest,
	start time.Time,
	cacheKey string,
) (*domain.Report, error) {
	blocks, err := e.collectBlocks(req)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	run, err := domain.NewRun().WithBlocks(blocks)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	results, err := e.analyzeBlocks(ctx, blocks)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	run, err = run.WithResults(results)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	synthesis, err := e.synthesize(req, run)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	run, err = run.WithSynthesis(synthesis)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	report := e.buildReport(req, run, time.Since(start))
	e.persist(ctx, span, report, cacheKey)
	e.record(report, time.Since(start))

	span.SetAttributes(
		attribute.String("ahp.run_id", report.ID),
		attribute.String("ahp.type", string(report.Type)),
		attribute.Int("ahp.blocks", len(blocks)),
		attribute.Float64("ahp.goal_consistency_ratio", report.CriteriaAnalysis.ConsistencyRatio),
		attribute.Bool("ahp.reduced_confidence", report.ReducedConfidence),
	)
	return report, nil
}

// collectBlocks materializes every answered comparison block from the
// request. The goal block is mandatory; an alternatives block with no data
// is skipped so synthesis can degrade gracefully.
func (e *AnalysisEngine) collectBlocks(req *AnalysisRequest) (map[domain.BlockKey]*domain.ComparisonBlock, error) {
	blocks := make(map[domain.BlockKey]*domain.ComparisonBlock)

	goal, err := e.buildBlock(req, domain.GoalKey, req.Criteria)
	if err != nil {
		return nil, err
	}
	if goal == nil {
		verr := domain.NewValidationError("analysis request")
		verr.AddError("the goal block has no judgment data")
		return nil, verr
	}
	blocks[domain.GoalKey] = goal

	if len(req.Alternatives) == 0 {
		return blocks, nil
	}

	for _, criterion := range req.Criteria {
		key := domain.CriterionBlockKey(criterion)
		block, err := e.buildBlock(req, key, req.Alternatives)
		if err != nil {
			return nil, err
		}
		if block == nil {
			// No respondent answered this comparison; the criterion will
			// contribute zero at synthesis.
			continue
		}
		blocks[key] = block
	}

	return blocks, nil
}

// buildBlock assembles one comparison block from the request data for key.
// An explicit matrix wins over judgment maps; a block with neither returns
// nil to signal "not answered".
func (e *AnalysisEngine) buildBlock(
	req *AnalysisRequest,
	key domain.BlockKey,
	items []string,
) (*domain.ComparisonBlock, error) {
	if cells, ok := req.Matrices[key]; ok {
		matrix, err := domain.NewPairwiseMatrix(cells)
		if err != nil {
			return nil, fmt.Errorf("block %s: %w", key, err)
		}
		if matrix.Order() != len(items) {
			return nil, fmt.Errorf("block %s: %w: matrix order %d, want %d items",
				key, domain.ErrDimensionMismatch, matrix.Order(), len(items))
		}
		return &domain.ComparisonBlock{
			Key:         key,
			Items:       items,
			Matrix:      matrix,
			Respondents: len(req.Judgments[key]),
		}, nil
	}

	sets := req.Judgments[key]
	if len(sets) == 0 {
		return nil, nil
	}

	matrices := make([]*domain.PairwiseMatrix, 0, len(sets))
	var warnings []domain.JudgmentWarning
	for i, judgments := range sets {
		matrix, w, err := domain.BuildPairwiseMatrix(items, judgments)
		if err != nil {
			return nil, fmt.Errorf("block %s respondent %d: %w", key, i+1, err)
		}
		warnings = append(warnings, w...)
		matrices = append(matrices, matrix)
	}

	aggregate, err := domain.AggregateMatrices(matrices)
	if err != nil {
		return nil, fmt.Errorf("block %s: %w", key, err)
	}

	var agreement *float64
	if len(matrices) >= 2 {
		score, err := domain.RespondentAgreement(matrices)
		if err != nil {
			return nil, fmt.Errorf("block %s: %w", key, err)
		}
		agreement = &score
	}

	return &domain.ComparisonBlock{
		Key:         key,
		Items:       items,
		Matrix:      aggregate,
		Respondents: len(sets),
		Agreement:   agreement,
		Warnings:    warnings,
	}, nil
}

// analyzeBlocks runs the consistency analyzer over every block on a bounded
// worker pool. Blocks are independent, so workers share nothing; each writes
// its own result slot. A failure cancels the remaining work and surfaces as
// an analysis error naming the offending block.
func (e *AnalysisEngine) analyzeBlocks(
	ctx context.Context,
	blocks map[domain.BlockKey]*domain.ComparisonBlock,
) (map[domain.BlockKey]*domain.ConsistencyResult, error) {
	keys := make([]domain.BlockKey, 0, len(blocks))
	for key := range blocks {
		keys = append(keys, key)
	}

	results := make([]*domain.ConsistencyResult, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, key := range keys {
		g.Go(func() error {
			result, err := e.analyzer.Analyze(gctx, blocks[key].Matrix)
			if err != nil {
				return domain.NewAnalysisError(key, "consistency", err)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[domain.BlockKey]*domain.ConsistencyResult, len(keys))
	for i, key := range keys {
		out[key] = results[i]
	}
	return out, nil
}

// synthesize combines the goal block's priorities with the per-criterion
// alternative priorities into the final ranking.
func (e *AnalysisEngine) synthesize(req *AnalysisRequest, run *domain.Run) (*domain.SynthesisResult, error) {
	goalResult, ok := run.Result(domain.GoalKey)
	if !ok {
		return nil, fmt.Errorf("goal block result missing from run")
	}

	var altPriorities map[string][]float64
	if len(req.Alternatives) > 0 {
		altPriorities = make(map[string][]float64, len(req.Criteria))
		for _, criterion := range req.Criteria {
			if result, ok := run.Result(domain.CriterionBlockKey(criterion)); ok {
				altPriorities[criterion] = result.PriorityVector
			}
		}
	}

	return domain.Synthesize(req.Criteria, goalResult.PriorityVector, req.Alternatives, altPriorities)
}

// buildReport assembles the run's outcome into the externally visible
// report.
func (e *AnalysisEngine) buildReport(req *AnalysisRequest, run *domain.Run, elapsed time.Duration) *domain.Report {
	goalBlock, _ := run.Block(domain.GoalKey)
	goalResult, _ := run.Result(domain.GoalKey)
	synthesis := run.Synthesis()

	report := &domain.Report{
		ID:                uuid.NewString(),
		Goal:              req.Goal,
		Type:              synthesis.Type,
		CriteriaAnalysis:  domain.NewBlockAnalysis(goalBlock, goalResult),
		FinalScores:       domain.ScoresFromRanking(synthesis.Ranking),
		Ranking:           domain.RankedNames(synthesis.Ranking),
		ReducedConfidence: synthesis.ReducedConfidence,
		MissingCriteria:   synthesis.MissingCriteria,
		Solver:            e.analyzer.Name(),
		ElapsedMs:         elapsed.Milliseconds(),
		Timestamp:         time.Now().UTC(),
	}

	if len(req.Alternatives) > 0 {
		byCriterion := make(map[string]*domain.BlockAnalysis)
		for _, criterion := range req.Criteria {
			key := domain.CriterionBlockKey(criterion)
			block, ok := run.Block(key)
			if !ok {
				continue
			}
			result, _ := run.Result(key)
			byCriterion[criterion] = domain.NewBlockAnalysis(block, result)
		}
		report.AlternativesByCriterion = byCriterion
	}

	return report
}

// persist saves and memoizes the report. Both writes are best effort:
// failures are recorded on the span and counted, never returned, because
// the computed report is still valid for the caller.
func (e *AnalysisEngine) persist(ctx context.Context, span trace.Span, report *domain.Report, cacheKey string) {
	if e.store != nil {
		if err := e.store.Save(ctx, report); err != nil {
			span.RecordError(err)
			e.count("ahp_store_failures_total", map[string]string{"operation": "save"})
		}
	}

	if e.cache != nil && cacheKey != "" {
		data, err := json.Marshal(report)
		if err != nil {
			span.RecordError(err)
			return
		}
		if err := e.cache.Set(ctx, resultCachePrefix+cacheKey, data, e.cacheTTL); err != nil {
			span.RecordError(err)
			e.count("ahp_cache_failures_total", map[string]string{"operation": "set"})
		}
	}
}

// cachedReport looks up a memoized report by fingerprint. Corrupt cache
// entries are treated as misses.
func (e *AnalysisEngine) cachedReport(ctx context.Context, span trace.Span, key string) (*domain.Report, bool) {
	value, ok, err := e.cache.Get(ctx, resultCachePrefix+key)
	if err != nil {
		span.RecordError(err)
		e.count("ahp_cache_failures_total", map[string]string{"operation": "get"})
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return nil, false
	}

	var report domain.Report
	if err := json.Unmarshal(data, &report); err != nil {
		span.RecordError(ports.NewCacheError(resultCachePrefix+key, "get", ports.ErrCacheCorrupted))
		return nil, false
	}
	return &report, true
}

// record emits the run's metrics.
func (e *AnalysisEngine) record(report *domain.Report, elapsed time.Duration) {
	if e.metrics == nil {
		return
	}

	labels := map[string]string{
		"type":   string(report.Type),
		"solver": report.Solver,
	}
	e.metrics.RecordLatency("ahp_analysis", elapsed, labels)
	e.metrics.RecordCounter("ahp_runs_total", 1, map[string]string{
		"type":       string(report.Type),
		"consistent": fmt.Sprintf("%t", report.CriteriaAnalysis.IsConsistent),
	})
	e.metrics.RecordHistogram("ahp_consistency_ratio", report.CriteriaAnalysis.ConsistencyRatio, map[string]string{
		"block": string(domain.GoalKey),
	})
}

// count increments a counter when metrics are configured.
func (e *AnalysisEngine) count(metric string, labels map[string]string) {
	if e.metrics == nil {
		return
	}
	e.metrics.RecordCounter(metric, 1, labels)
}
