package application

import (
	"fmt"
	"sync"

	"github.com/ahrav/go-saaty/infrastructure/solvers"
	"github.com/ahrav/go-saaty/internal/ports"
)

// Verify interface compliance at compile time.
var _ ports.AnalyzerRegistry = (*DefaultAnalyzerRegistry)(nil)

// DefaultAnalyzerRegistry implements the AnalyzerRegistry interface providing
// a factory for creating consistency analyzers based on type and
// configuration. It supports dynamic registration of analyzer factories so
// custom solving methods can be added at runtime.
type DefaultAnalyzerRegistry struct {
	// factories maps analyzer type strings to their factory functions.
	factories map[string]ports.AnalyzerFactory
	// mu protects concurrent access to the factories map.
	mu sync.RWMutex
}

// NewDefaultAnalyzerRegistry creates a new analyzer registry with the
// standard solver types pre-registered. The registry comes with built-in
// support for power_iteration and column_normalization analyzers.
func NewDefaultAnalyzerRegistry() *DefaultAnalyzerRegistry {
	registry := &DefaultAnalyzerRegistry{
		factories: make(map[string]ports.AnalyzerFactory),
	}

	// Register built-in analyzer types.
	registry.registerBuiltinFactories()

	return registry
}

// registerBuiltinFactories registers the standard solver types provided by
// the analysis engine.
func (r *DefaultAnalyzerRegistry) registerBuiltinFactories() {
	r.factories[solvers.TypePowerIteration] = func(id string, config map[string]any) (ports.ConsistencyAnalyzer, error) {
		solver, err := solvers.CreatePowerIterationSolver(id, config)
		if err != nil {
			return nil, err
		}
		return solver, nil
	}

	r.factories[solvers.TypeColumnNormalization] = func(id string, config map[string]any) (ports.ConsistencyAnalyzer, error) {
		solver, err := solvers.CreateColumnNormalizationSolver(id, config)
		if err != nil {
			return nil, err
		}
		return solver, nil
	}
}

// CreateAnalyzer creates a new analyzer instance based on the provided type,
// identifier, and configuration.
// It looks up the appropriate factory function and delegates creation.
func (r *DefaultAnalyzerRegistry) CreateAnalyzer(
	analyzerType string,
	id string,
	config map[string]any,
) (ports.ConsistencyAnalyzer, error) {
	r.mu.RLock()
	factory, exists := r.factories[analyzerType]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ports.ErrAnalyzerNotFound, analyzerType)
	}

	if id == "" {
		return nil, fmt.Errorf("analyzer ID cannot be empty")
	}

	if config == nil {
		config = make(map[string]any)
	}

	analyzer, err := factory(id, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create analyzer %s of type %s: %w", id, analyzerType, err)
	}

	return analyzer, nil
}

// RegisterAnalyzerFactory registers a new factory function for a specific
// analyzer type. This allows extending the registry with custom solving
// methods at runtime. The factory function is responsible for creating and
// configuring analyzer instances.
func (r *DefaultAnalyzerRegistry) RegisterAnalyzerFactory(
	analyzerType string,
	factory ports.AnalyzerFactory,
) error {
	if analyzerType == "" {
		return fmt.Errorf("analyzer type cannot be empty")
	}

	if factory == nil {
		return fmt.Errorf("factory function cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[analyzerType] = factory
	return nil
}

// GetSupportedTypes returns a list of all registered analyzer types.
// This is useful for validation, documentation, and introspection purposes.
func (r *DefaultAnalyzerRegistry) GetSupportedTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.factories))
	for analyzerType := range r.factories {
		types = append(types, analyzerType)
	}

	return types
}
