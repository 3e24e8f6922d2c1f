// Package solvers provides consistency-analyzer implementations that
// extract a priority vector and consistency diagnostics from a pairwise
// comparison matrix, behind the ports.ConsistencyAnalyzer interface.
package solvers

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/ahrav/go-saaty/internal/domain"
)

// Registered solver type names, used by the analyzer registry and in
// configuration files.
const (
	// TypePowerIteration names the iterative dominant-eigenpair solver.
	TypePowerIteration = "power_iteration"

	// TypeColumnNormalization names Saaty's approximate column-average
	// solver.
	TypeColumnNormalization = "column_normalization"
)

// Common errors returned by solver implementations.
// These errors provide consistent error handling across all solvers.
var (
	// ErrEmptySolverName is returned when attempting to create a solver
	// with an empty name.
	ErrEmptySolverName = errors.New("solver name cannot be empty")

	// ErrNoConvergence is returned when an iterative solver fails to
	// reach its tolerance within the configured iteration budget.
	ErrNoConvergence = errors.New("eigenvector computation did not converge")
)

// Package-level validator instance for configuration validation.
// Uses go-playground/validator v10 for struct tag-based validation.
var validate = validator.New()

// applyMatrix multiplies the matrix into the vector and returns the image.
// The vector length must equal the matrix order.
func applyMatrix(matrix *domain.PairwiseMatrix, vector []float64) []float64 {
	n := matrix.Order()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		var sum float64
		for j := 0; j < n; j++ {
			sum += matrix.At(i, j) * vector[j]
		}
		out[i] = sum
	}
	return out
}

// normalizeToSum scales the vector in place so its components sum to one.
// Matrix entries are validated positive, so a non-positive sum only occurs
// on numeric breakdown.
func normalizeToSum(vector []float64) error {
	var sum float64
	for _, v := range vector {
		sum += v
	}
	if sum <= 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return fmt.Errorf("priority vector sum is not a positive finite number: %g", sum)
	}
	for i := range vector {
		vector[i] /= sum
	}
	return nil
}

// estimateLambdaMax recovers the maximum eigenvalue as the mean
// component-wise ratio between the matrix image of the weights and the
// weights themselves. For an exact eigenvector every ratio equals lambda;
// averaging smooths the residual error of approximate weights.
func estimateLambdaMax(matrix *domain.PairwiseMatrix, weights []float64) float64 {
	image := applyMatrix(matrix, weights)
	var sum float64
	for i, w := range weights {
		sum += image[i] / w
	}
	return sum / float64(len(weights))
}
