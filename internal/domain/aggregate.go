package domain

import (
	"fmt"
	"math"
)

// AggregateMatrices combines one matrix per respondent into a single
// representative matrix using the element-wise geometric mean of the
// upper triangle. The geometric mean of reciprocal values is the
// reciprocal of the geometric mean, so the aggregate keeps the unit
// diagonal and reciprocal symmetry that each input guarantees; an
// arithmetic mean would not.
//
// The mean is computed in the log domain. Raw products of up to 9 per
// respondent overflow float64 long before realistic panel sizes do;
// exp(mean(log v)) is the same quantity without the blow-up.
//
// Aggregating a single matrix returns an equal matrix. An empty input
// returns ErrNoMatrices, which callers treat as "block not answered"
// rather than a failure. Matrices of differing orders return
// ErrDimensionMismatch.
func AggregateMatrices(matrices []*PairwiseMatrix) (*PairwiseMatrix, error) {
	if len(matrices) == 0 {
		return nil, ErrNoMatrices
	}
	n := matrices[0].Order()
	for idx, m := range matrices[1:] {
		if m.Order() != n {
			return nil, fmt.Errorf("%w: matrix 0 has order %d, matrix %d has order %d",
				ErrDimensionMismatch, n, idx+1, m.Order())
		}
	}

	cells := make([][]float64, n)
	for i := range cells {
		cells[i] = make([]float64, n)
		cells[i][i] = 1
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			var logSum float64
			for _, m := range matrices {
				logSum += math.Log(m.At(i, j))
			}
			v := math.Exp(logSum / float64(len(matrices)))
			cells[i][j] = v
			cells[j][i] = 1 / v
		}
	}
	return &PairwiseMatrix{cells: cells}, nil
}
