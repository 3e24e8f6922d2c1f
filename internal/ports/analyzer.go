// Package ports defines the core interfaces that form the contract between
// the domain/application layers and the infrastructure layer.
// These interfaces enable dependency inversion and make the system testable.
package ports

import (
	"context"

	"github.com/ahrav/go-saaty/internal/domain"
)

// ConsistencyAnalyzer derives a normalized priority vector and the
// standard consistency diagnostics from one pairwise-comparison matrix.
// Implementations differ only in how they extract the principal
// eigenpair; callers must receive the same normalized priorities from
// any correct implementation given a well-formed reciprocal matrix.
// Analyzers should be stateless and safe for concurrent use, since the
// engine analyzes independent comparison blocks in parallel.
type ConsistencyAnalyzer interface {
	// Name returns a unique identifier for this analyzer.
	// The name is used for logging, reporting, and configuration.
	Name() string

	// Analyze computes the priority vector, the principal eigenvalue,
	// and the consistency index/ratio for the given matrix.
	// The input matrix is read-only and must not be modified.
	// The result is deterministic for a given matrix and configuration.
	//
	// The context parameter allows for cancellation and deadline
	// propagation; iterative implementations should check it between
	// sweeps and return promptly when it is done.
	//
	// Errors distinguish bad input (matrix validation), configuration
	// problems (an uncovered random-index order), and numerical failure
	// (non-convergence); callers attach the owning block key.
	Analyze(ctx context.Context, matrix *domain.PairwiseMatrix) (*domain.ConsistencyResult, error)

	// Validate checks if the analyzer is properly configured and ready
	// for use. It is typically called at registry construction time so
	// misconfiguration surfaces before any survey data is processed.
	// Return nil if validation passes, or an error describing what is
	// invalid.
	Validate() error
}

// AnalyzerFactory constructs a ConsistencyAnalyzer with the given
// instance identifier from a configuration map, typically decoded from
// YAML or environment settings. Factories let deployments choose and
// tune the solving method by name without touching engine code.
type AnalyzerFactory func(id string, config map[string]any) (ConsistencyAnalyzer, error)

// AnalyzerRegistry creates configured analyzers by type name.
// Registries let analysis definitions reference solvers symbolically
// ("power_iteration", "column_normalization") and allow custom solver
// types to be registered at runtime.
type AnalyzerRegistry interface {
	// CreateAnalyzer creates an analyzer of the named type with the
	// given instance identifier and configuration map.
	CreateAnalyzer(analyzerType, id string, config map[string]any) (ConsistencyAnalyzer, error)

	// RegisterAnalyzerFactory registers a factory for a new analyzer
	// type, replacing any previous registration for that type.
	RegisterAnalyzerFactory(analyzerType string, factory AnalyzerFactory) error

	// GetSupportedTypes returns a list of all registered analyzer types.
	GetSupportedTypes() []string
}
