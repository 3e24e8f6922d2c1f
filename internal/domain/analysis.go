package domain

import "fmt"

// ConsistencyThreshold is the conventional acceptability bound for the
// consistency ratio: a matrix with CR below this value is treated as
// consistent enough to trust its priority vector.
const ConsistencyThreshold = 0.10

// negativeSlack absorbs the floating-point residue that can push a
// perfectly consistent matrix's index a hair below zero.
const negativeSlack = 1e-9

// ConsistencyResult is the outcome of analyzing one pairwise matrix: the
// derived priorities plus the standard consistency diagnostics.
type ConsistencyResult struct {
	// PriorityVector holds the normalized weights, one per item in the
	// block's item order. Entries are non-negative and sum to 1.
	PriorityVector []float64 `json:"priority_vector"`

	// LambdaMax is the principal eigenvalue of the matrix. It equals the
	// matrix order exactly when the judgments are perfectly consistent
	// and grows with inconsistency.
	LambdaMax float64 `json:"lambda_max"`

	// ConsistencyIndex is (LambdaMax - n) / (n - 1), or 0 for n = 1.
	ConsistencyIndex float64 `json:"consistency_index"`

	// ConsistencyRatio is ConsistencyIndex / RI(n), or 0 for n <= 2,
	// where no inconsistency is possible.
	ConsistencyRatio float64 `json:"consistency_ratio"`

	// IsConsistent reports whether ConsistencyRatio is below
	// ConsistencyThreshold.
	IsConsistent bool `json:"is_consistent"`
}

// NewConsistencyResult derives the index, ratio, and consistency flag
// from a computed priority vector and principal eigenvalue.
//
// The ratio is defined as 0 for orders 1 and 2. For larger orders the
// random index must cover the order; extendedRI widens the covered range
// to MaxExtendedOrder. An uncovered order returns ErrOrderOutOfRange.
func NewConsistencyResult(priorities []float64, lambdaMax float64, extendedRI bool) (*ConsistencyResult, error) {
	n := len(priorities)
	if n < 1 {
		return nil, fmt.Errorf("%w: empty priority vector", ErrTooFewItems)
	}

	var ci float64
	if n > 1 {
		ci = (lambdaMax - float64(n)) / float64(n-1)
	}
	if ci < 0 && ci > -negativeSlack {
		ci = 0
	}

	var cr float64
	if n > 2 {
		ri, err := RandomIndex(n, extendedRI)
		if err != nil {
			return nil, err
		}
		cr = ci / ri
		if cr < 0 && cr > -negativeSlack {
			cr = 0
		}
	}

	return &ConsistencyResult{
		PriorityVector:   priorities,
		LambdaMax:        lambdaMax,
		ConsistencyIndex: ci,
		ConsistencyRatio: cr,
		IsConsistent:     cr < ConsistencyThreshold,
	}, nil
}
