package solvers

import (
	"context"
	"fmt"
	"math"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-saaty/internal/domain"
	"github.com/ahrav/go-saaty/internal/ports"
)

var _ ports.ConsistencyAnalyzer = (*PowerIterationSolver)(nil)

// PowerIterationSolver computes the principal eigenvector of a pairwise
// comparison matrix by repeated matrix-vector multiplication.
//
// Starting from a uniform vector, each round multiplies the matrix into the
// current estimate and renormalizes it to sum to one. For positive reciprocal
// matrices the sequence converges to the dominant eigenvector, whose entries
// are the priority weights. The maximum eigenvalue is then recovered as the
// mean component-wise ratio between the matrix image and the converged
// vector.
//
// This is the exact method: unlike column normalization it does not
// approximate, so it is the preferred solver when the consistency ratio will
// gate a decision.
//
// The solver is stateless and thread-safe.
type PowerIterationSolver struct {
	name   string
	config PowerIterationConfig
	tracer trace.Tracer
}

// PowerIterationConfig defines the configuration parameters for the
// PowerIterationSolver. All fields are validated during solver creation and
// parameter unmarshaling.
type PowerIterationConfig struct {
	// Tolerance is the convergence threshold: iteration stops once no
	// component of the priority vector moves by more than this amount.
	Tolerance float64 `yaml:"tolerance" json:"tolerance" validate:"gt=0,lte=1"`

	// MaxIterations caps the iteration count. Exceeding it without
	// converging yields ErrNoConvergence.
	MaxIterations int `yaml:"max_iterations" json:"max_iterations" validate:"min=1,max=1000000"`

	// ExtendedRandomIndex permits matrices of order 11 through 15 by
	// enabling the extended random-index table. Orders above 10 are
	// rejected when this is false.
	ExtendedRandomIndex bool `yaml:"extended_random_index" json:"extended_random_index"`
}

// NewPowerIterationSolver creates a new PowerIterationSolver with the
// specified configuration. It returns an error if the configuration is
// invalid.
func NewPowerIterationSolver(name string, config PowerIterationConfig) (*PowerIterationSolver, error) {
	if name == "" {
		return nil, ErrEmptySolverName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &PowerIterationSolver{
		name:   name,
		config: config,
		tracer: otel.Tracer("power-iteration-solver"),
	}, nil
}

// Name returns the unique identifier for this solver instance.
func (pis *PowerIterationSolver) Name() string { return pis.name }

// Analyze extracts the priority vector and consistency diagnostics from the
// given matrix. It fails fast when the matrix order has no random-index
// coverage under the current configuration, before any numeric work.
func (pis *PowerIterationSolver) Analyze(
	ctx context.Context,
	matrix *domain.PairwiseMatrix,
) (*domain.ConsistencyResult, error) {
	ctx, span := pis.tracer.Start(ctx, "PowerIterationSolver.Analyze",
		trace.WithAttributes(
			attribute.String("solver.type", TypePowerIteration),
			attribute.String("solver.id", pis.name),
			attribute.Float64("config.tolerance", pis.config.Tolerance),
			attribute.Int("config.max_iterations", pis.config.MaxIterations),
		),
	)
	defer span.End()

	if matrix == nil {
		err := fmt.Errorf("matrix must not be nil")
		span.RecordError(err)
		return nil, err
	}

	n := matrix.Order()
	span.SetAttributes(attribute.Int("matrix.order", n))

	if n > 2 {
		if _, err := domain.RandomIndex(n, pis.config.ExtendedRandomIndex); err != nil {
			span.RecordError(err)
			return nil, err
		}
	}

	priorities, iterations, err := pis.dominantEigenvector(ctx, matrix)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	lambda := estimateLambdaMax(matrix, priorities)

	result, err := domain.NewConsistencyResult(priorities, lambda, pis.config.ExtendedRandomIndex)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("eigen.iterations", iterations),
		attribute.Float64("eigen.lambda_max", result.LambdaMax),
		attribute.Float64("eigen.consistency_ratio", result.ConsistencyRatio),
		attribute.Bool("eigen.is_consistent", result.IsConsistent),
	)
	return result, nil
}

// dominantEigenvector runs the power iteration until the priority vector is
// stable within the configured tolerance. It returns the converged vector
// and the number of iterations used.
func (pis *PowerIterationSolver) dominantEigenvector(
	ctx context.Context,
	matrix *domain.PairwiseMatrix,
) ([]float64, int, error) {
	n := matrix.Order()

	current := make([]float64, n)
	for i := range current {
		current[i] = 1.0 / float64(n)
	}

	for iter := 1; iter <= pis.config.MaxIterations; iter++ {
		select {
		case <-ctx.Done():
			return nil, iter, ctx.Err()
		default:
		}

		next := applyMatrix(matrix, current)
		if err := normalizeToSum(next); err != nil {
			return nil, iter, err
		}

		delta := 0.0
		for i := range next {
			if d := math.Abs(next[i] - current[i]); d > delta {
				delta = d
			}
		}
		current = next

		if delta < pis.config.Tolerance {
			return current, iter, nil
		}
	}

	return nil, pis.config.MaxIterations, fmt.Errorf("%w: %d iterations at tolerance %g",
		ErrNoConvergence, pis.config.MaxIterations, pis.config.Tolerance)
}

// Validate checks if the solver is properly configured.
func (pis *PowerIterationSolver) Validate() error {
	if err := validate.Struct(pis.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// UnmarshalParameters deserializes YAML parameters into the solver's config.
func (pis *PowerIterationSolver) UnmarshalParameters(params yaml.Node) error {
	var config PowerIterationConfig
	if err := params.Decode(&config); err != nil {
		return fmt.Errorf("failed to decode parameters: %w", err)
	}
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("parameter validation failed: %w", err)
	}
	pis.config = config
	return nil
}

// DefaultPowerIterationConfig returns a PowerIterationConfig with sensible
// defaults.
func DefaultPowerIterationConfig() PowerIterationConfig {
	return PowerIterationConfig{
		Tolerance:           1e-9,
		MaxIterations:       1000,
		ExtendedRandomIndex: false,
	}
}

// CreatePowerIterationSolver is a factory function that creates a
// PowerIterationSolver from a configuration map, for use with the
// AnalyzerRegistry.
func CreatePowerIterationSolver(id string, config map[string]any) (*PowerIterationSolver, error) {
	solverConfig := DefaultPowerIterationConfig()
	if val, ok := config["tolerance"].(float64); ok {
		solverConfig.Tolerance = val
	}
	if val, ok := config["max_iterations"].(int); ok {
		solverConfig.MaxIterations = val
	}
	if val, ok := config["max_iterations"].(float64); ok {
		solverConfig.MaxIterations = int(val)
	}
	if val, ok := config["extended_random_index"].(bool); ok {
		solverConfig.ExtendedRandomIndex = val
	}
	return NewPowerIterationSolver(id, solverConfig)
}
