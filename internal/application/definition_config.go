package application

import (
	"gopkg.in/yaml.v3"
)

// AnalysisDefinition is the declarative description of one reusable
// analysis: the hierarchy to evaluate and the solver that evaluates it.
// Use AnalysisDefinition to pin a survey's structure in version control so
// the server and the dataset generator agree on goal, criteria, and
// alternatives without code changes.
type AnalysisDefinition struct {
	// Version specifies the definition schema version using semantic
	// versioning to ensure compatibility across system updates.
	Version string `yaml:"version" validate:"required,semver"`
	// Metadata contains descriptive information about the analysis
	// including name, tags, and labels for organization and discovery.
	Metadata Metadata `yaml:"metadata" validate:"required"`
	// Solver selects and configures the consistency analyzer used for
	// every comparison block in this analysis.
	Solver SolverConfig `yaml:"solver" validate:"required"`
	// Hierarchy declares the decision structure: the goal, the criteria
	// compared under it, and optionally the alternatives ranked under
	// every criterion.
	Hierarchy HierarchyConfig `yaml:"hierarchy" validate:"required"`
}

// Metadata provides descriptive information about an analysis definition
// to support organization, discovery, and operational management.
type Metadata struct {
	// Name is the human-readable identifier for this analysis
	// and must be unique within the deployment scope.
	Name string `yaml:"name" validate:"required,min=1,max=255"`
	// Description provides a detailed explanation of the analysis purpose
	// and intended use cases for documentation and discovery.
	Description string `yaml:"description" validate:"max=1000"`
	// Tags are categorical labels that enable filtering and grouping
	// of analyses by functional domain or operational characteristics.
	Tags []string `yaml:"tags" validate:"max=20,dive,min=1,max=50"`
	// Labels are arbitrary key-value pairs that provide flexible metadata
	// for integration with external systems and custom categorization.
	Labels map[string]string `yaml:"labels" validate:"max=50"`
}

// SolverConfig selects a consistency analyzer implementation and carries
// its type-specific parameters.
type SolverConfig struct {
	// ID is the unique instance identifier for the solver, used in
	// reports and traces.
	ID string `yaml:"id" validate:"required,alphanum,min=1,max=100"`
	// Type specifies the analyzer implementation to instantiate,
	// determining the available parameters.
	Type string `yaml:"type" validate:"required,oneof=power_iteration column_normalization custom"`
	// Parameters contains type-specific configuration as flexible YAML
	// that is validated according to the solver type requirements.
	Parameters yaml.Node `yaml:"parameters"`
}

// HierarchyConfig declares the decision structure an analysis evaluates.
// Item names become matrix row labels and judgment-key tokens, so they
// must not contain the " vs " separator.
type HierarchyConfig struct {
	// Goal names the decision this hierarchy serves.
	Goal string `yaml:"goal" validate:"required,min=1,max=255"`
	// Criteria lists the criteria compared in the goal block, in matrix
	// order. At least two are required to form a comparison.
	Criteria []string `yaml:"criteria" validate:"required,min=2,max=15,dive,itemname"`
	// Alternatives, when present, are compared under every criterion.
	// Empty declares a criteria-only hierarchy.
	Alternatives []string `yaml:"alternatives" validate:"omitempty,min=2,max=15,dive,itemname"`
	// Concurrency bounds the per-block analysis worker pool for runs of
	// this analysis. Zero uses the engine default.
	Concurrency int `yaml:"concurrency" validate:"omitempty,min=1,max=64"`
}
