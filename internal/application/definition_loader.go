package application

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-saaty/internal/domain"
	"github.com/ahrav/go-saaty/internal/ports"
)

// AnalysisPlan is a compiled analysis definition: the validated hierarchy
// plus an analyzer instantiated from the definition's solver section.
// Plans are immutable once compiled and safe to share across goroutines.
type AnalysisPlan struct {
	// Definition is the validated source definition.
	Definition *AnalysisDefinition
	// Analyzer is the ready-to-use solver the definition selected.
	Analyzer ports.ConsistencyAnalyzer
}

// Request materializes an AnalysisRequest for this plan's hierarchy from
// raw per-respondent judgment data.
func (p *AnalysisPlan) Request(judgments map[domain.BlockKey][]domain.Judgments) *AnalysisRequest {
	return &AnalysisRequest{
		Goal:         p.Definition.Hierarchy.Goal,
		Criteria:     slices.Clone(p.Definition.Hierarchy.Criteria),
		Alternatives: slices.Clone(p.Definition.Hierarchy.Alternatives),
		Judgments:    judgments,
	}
}

// DefinitionLoader provides YAML parsing, validation, and caching for
// analysis definitions, turning declarative documents into compiled
// plans ready for the engine.
// Use DefinitionLoader to load definitions from files or readers while
// benefiting from SHA256-based caching and comprehensive validation.
type DefinitionLoader struct {
	// validator performs struct field validation and custom validation
	// rules for definitions and their nested components.
	validator *validator.Validate
	// registry provides factory methods for creating analyzers based on
	// the definition's solver type and parameters.
	registry ports.AnalyzerRegistry
	// cache stores compiled plans indexed by SHA256 hash of the
	// normalized definition to avoid recompiling identical inputs.
	// Cached plans must not be mutated.
	cache map[string]*AnalysisPlan
	// cacheMu provides thread-safe access to the cache map during
	// concurrent read and write operations.
	cacheMu sync.RWMutex
	// sf prevents duplicate compilation when multiple goroutines request
	// the same definition simultaneously.
	sf singleflight.Group
}

// NewDefinitionLoader creates a new definition loader with validation
// capabilities and an empty cache.
// NewDefinitionLoader registers custom validators for semantic validation
// beyond basic struct field validation and returns an error if any
// registration fails.
func NewDefinitionLoader(registry ports.AnalyzerRegistry) (*DefinitionLoader, error) {
	if registry == nil {
		return nil, fmt.Errorf("analyzer registry cannot be nil")
	}

	v := validator.New()
	if err := registerCustomValidators(v); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	return &DefinitionLoader{
		validator: v,
		registry:  registry,
		cache:     make(map[string]*AnalysisPlan),
	}, nil
}

// load is the common implementation for compiling plans from byte data,
// utilizing singleflight to prevent duplicate compilation and SHA256-based
// caching for efficiency.
func (dl *DefinitionLoader) load(ctx context.Context, data []byte) (*AnalysisPlan, error) {
	definition, err := dl.parseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Hash the normalized definition, not the raw bytes, so formatting
	// differences still hit the cache.
	hash, err := dl.calculateDefinitionHash(definition)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate hash: %w", err)
	}

	v, err, _ := dl.sf.Do(hash, func() (any, error) {
		// Check cache inside singleflight to handle the race between the
		// cache check and singleflight group execution.
		if plan, ok := dl.getCachedPlan(hash); ok {
			return plan, nil
		}

		if err := dl.validateDefinition(definition); err != nil {
			return nil, fmt.Errorf("validation failed: %w", err)
		}

		plan, err := dl.buildPlan(definition)
		if err != nil {
			return nil, fmt.Errorf("failed to build plan: %w", err)
		}

		dl.cachePlan(hash, plan)

		return plan, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*AnalysisPlan), nil
}

// LoadFromFile loads and compiles an analysis definition from a YAML file,
// utilizing SHA256-based caching to avoid recompiling identical files.
// LoadFromFile returns an error if file reading, parsing, validation, or
// plan compilation fails.
func (dl *DefinitionLoader) LoadFromFile(ctx context.Context, path string) (*AnalysisPlan, error) {
	// Clean the path to prevent directory traversal.
	cleanPath := filepath.Clean(path)

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return dl.load(ctx, data)
}

// LoadFromReader loads and compiles an analysis definition from an
// io.Reader, supporting any source that implements the Reader interface.
// LoadFromReader returns an error if reading, parsing, validation, or plan
// compilation fails.
func (dl *DefinitionLoader) LoadFromReader(ctx context.Context, r io.Reader) (*AnalysisPlan, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}

	return dl.load(ctx, data)
}

// parseYAML unmarshals YAML byte data into a structured AnalysisDefinition.
// parseYAML uses strict decoding to detect unknown fields, preventing
// configuration typos from being silently ignored.
func (dl *DefinitionLoader) parseYAML(data []byte) (*AnalysisDefinition, error) {
	var definition AnalysisDefinition
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Strict mode - fail on unknown fields.

	if err := decoder.Decode(&definition); err != nil {
		return nil, fmt.Errorf("YAML decode failed: %w", err)
	}
	return &definition, nil
}

// validateDefinition performs comprehensive validation on a parsed
// definition, including both struct field validation and semantic
// validation of relationships between its elements.
func (dl *DefinitionLoader) validateDefinition(definition *AnalysisDefinition) error {
	if err := dl.validator.Struct(definition); err != nil {
		return fmt.Errorf("struct validation failed: %w", err)
	}

	if err := dl.validateSemantics(definition); err != nil {
		return fmt.Errorf("semantic validation failed: %w", err)
	}

	return nil
}

// validateSemantics performs domain-specific validation rules that cannot
// be expressed through struct tags: item name uniqueness under case
// folding (judgment keys match case-insensitively, so folded collisions
// would be ambiguous), random-index coverage for the declared hierarchy
// size, and solver parameter validation.
func (dl *DefinitionLoader) validateSemantics(definition *AnalysisDefinition) error {
	if err := validateUniqueFolded("criteria", definition.Hierarchy.Criteria); err != nil {
		return err
	}
	if err := validateUniqueFolded("alternatives", definition.Hierarchy.Alternatives); err != nil {
		return err
	}

	if err := ValidateSolverParameters(definition.Solver.Type, definition.Solver.Parameters); err != nil {
		return fmt.Errorf("solver %s parameter validation failed: %w", definition.Solver.ID, err)
	}

	// Hierarchies larger than the standard random-index table need the
	// extended table switched on, or every run would fail at analysis.
	params, err := decodeParameterMap(definition.Solver.Parameters)
	if err != nil {
		return err
	}
	extended, _ := params["extended_random_index"].(bool)
	if !extended {
		if n := len(definition.Hierarchy.Criteria); n > domain.MaxStandardOrder {
			return fmt.Errorf("%d criteria exceed matrix order %d; set solver parameter extended_random_index",
				n, domain.MaxStandardOrder)
		}
		if n := len(definition.Hierarchy.Alternatives); n > domain.MaxStandardOrder {
			return fmt.Errorf("%d alternatives exceed matrix order %d; set solver parameter extended_random_index",
				n, domain.MaxStandardOrder)
		}
	}

	return nil
}

// validateUniqueFolded rejects item lists whose names collide under case
// folding.
func validateUniqueFolded(field string, items []string) error {
	caser := cases.Fold()
	seen := make(map[string]string, len(items))
	for _, name := range items {
		folded := caser.String(name)
		if other, exists := seen[folded]; exists {
			return fmt.Errorf("%s names %q and %q collide case-insensitively", field, other, name)
		}
		seen[folded] = name
	}
	return nil
}

// buildPlan compiles a validated definition into an executable plan,
// instantiating the analyzer through the registry.
func (dl *DefinitionLoader) buildPlan(definition *AnalysisDefinition) (*AnalysisPlan, error) {
	params, err := decodeParameterMap(definition.Solver.Parameters)
	if err != nil {
		return nil, err
	}

	analyzer, err := dl.registry.CreateAnalyzer(definition.Solver.Type, definition.Solver.ID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create analyzer: %w", err)
	}

	return &AnalysisPlan{
		Definition: definition,
		Analyzer:   analyzer,
	}, nil
}

// calculateDefinitionHash computes the SHA256 hash of a normalized
// definition for cache indexing, ensuring semantically identical inputs
// produce the same hash regardless of whitespace differences.
func (dl *DefinitionLoader) calculateDefinitionHash(definition *AnalysisDefinition) (string, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)

	if err := encoder.Encode(definition); err != nil {
		return "", fmt.Errorf("failed to encode definition for hashing: %w", err)
	}

	hash := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(hash[:]), nil
}

// getCachedPlan attempts to retrieve a previously compiled plan from the
// cache using its SHA256 hash as the lookup key.
// getCachedPlan is safe for concurrent use.
func (dl *DefinitionLoader) getCachedPlan(hash string) (*AnalysisPlan, bool) {
	dl.cacheMu.RLock()
	defer dl.cacheMu.RUnlock()

	plan, ok := dl.cache[hash]
	return plan, ok
}

// cachePlan stores a compiled plan in the cache indexed by its source's
// SHA256 hash for future retrieval.
// cachePlan is safe for concurrent use.
func (dl *DefinitionLoader) cachePlan(hash string, plan *AnalysisPlan) {
	dl.cacheMu.Lock()
	defer dl.cacheMu.Unlock()

	dl.cache[hash] = plan
}

// ClearCache removes all cached plans and reinitializes the cache map,
// forcing subsequent loads to recompile from source.
func (dl *DefinitionLoader) ClearCache() {
	dl.cacheMu.Lock()
	defer dl.cacheMu.Unlock()

	dl.cache = make(map[string]*AnalysisPlan)
}

// registerCustomValidators registers domain-specific validation functions
// with the validator instance.
func registerCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("semver", validateSemver); err != nil {
		return fmt.Errorf("failed to register semver validator: %w", err)
	}

	if err := RegisterAnalysisValidators(v); err != nil {
		return fmt.Errorf("failed to register analysis validators: %w", err)
	}

	return nil
}

// validateSemver validates that a string follows semantic versioning
// format (X.Y.Z where X, Y, Z are non-negative integers).
func validateSemver(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	var major, minor, patch int
	n, err := fmt.Sscanf(value, "%d.%d.%d", &major, &minor, &patch)
	return err == nil && n == 3
}
