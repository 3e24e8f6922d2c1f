package application

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ValidateSolverParameters validates the parameters for a specific solver
// type, ensuring values meet the constraints the solver factory will apply.
// ValidateSolverParameters supports power_iteration, column_normalization,
// and custom solver types with type-specific validation rules.
// ValidateSolverParameters returns an error if parameter decoding fails
// or if any validation rule is violated.
func ValidateSolverParameters(solverType string, params yaml.Node) error {
	paramMap, err := decodeParameterMap(params)
	if err != nil {
		return err
	}

	switch solverType {
	case "power_iteration":
		return validatePowerIterationParams(paramMap)
	case "column_normalization":
		return validateColumnNormalizationParams(paramMap)
	case "custom":
		// Custom solvers have flexible validation.
		return nil
	default:
		return fmt.Errorf("unknown solver type: %s", solverType)
	}
}

// decodeParameterMap converts a flexible YAML parameters node into a map.
// An absent node decodes to an empty map so solver defaults apply.
func decodeParameterMap(params yaml.Node) (map[string]any, error) {
	if params.Kind == 0 {
		return map[string]any{}, nil
	}
	var paramMap map[string]any
	if err := params.Decode(&paramMap); err != nil {
		return nil, fmt.Errorf("failed to decode parameters: %w", err)
	}
	return paramMap, nil
}

// validatePowerIterationParams validates parameters for the iterative
// eigenvector solver: tolerance must be a number in (0, 1], max_iterations
// a positive integer, and extended_random_index a boolean.
func validatePowerIterationParams(params map[string]any) error {
	if tolerance, ok := params["tolerance"]; ok {
		switch v := tolerance.(type) {
		case float64:
			if v <= 0 || v > 1 {
				return fmt.Errorf("tolerance must be greater than 0 and at most 1")
			}
		case int:
			if v <= 0 || v > 1 {
				return fmt.Errorf("tolerance must be greater than 0 and at most 1")
			}
		default:
			return fmt.Errorf("tolerance must be a number")
		}
	}

	if maxIterations, ok := params["max_iterations"]; ok {
		switch v := maxIterations.(type) {
		case int:
			if v < 1 {
				return fmt.Errorf("max_iterations must be at least 1")
			}
		case float64:
			if v < 1 {
				return fmt.Errorf("max_iterations must be at least 1")
			}
		default:
			return fmt.Errorf("max_iterations must be an integer")
		}
	}

	return validateExtendedRandomIndexParam(params)
}

// validateColumnNormalizationParams validates parameters for the
// column-average solver.
func validateColumnNormalizationParams(params map[string]any) error {
	return validateExtendedRandomIndexParam(params)
}

// validateExtendedRandomIndexParam checks the shared extended_random_index
// flag present on every solver type.
func validateExtendedRandomIndexParam(params map[string]any) error {
	if extended, ok := params["extended_random_index"]; ok {
		if _, ok := extended.(bool); !ok {
			return fmt.Errorf("extended_random_index must be a boolean")
		}
	}
	return nil
}

// RegisterAnalysisValidators registers custom validation functions with
// the validator instance for use in analysis definition validation.
// RegisterAnalysisValidators adds the itemname validator referenced by
// hierarchy struct tags.
// RegisterAnalysisValidators returns an error if any validator
// registration fails.
func RegisterAnalysisValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("itemname", validateItemName); err != nil {
		return fmt.Errorf("failed to register itemname validator: %w", err)
	}
	return nil
}

// validateItemName validates that an item name can serve as a matrix row
// label and judgment-key token: non-blank, and free of the " vs " judgment
// key separator that would make keys referencing it ambiguous.
func validateItemName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if strings.TrimSpace(name) == "" {
		return false
	}
	return !strings.Contains(name, " vs ")
}
