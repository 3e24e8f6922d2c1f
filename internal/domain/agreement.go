package domain

import (
	"fmt"
	"math"
)

// RespondentAgreement measures how closely a block's respondents agree
// with each other, independently of whether any individual respondent is
// internally consistent. The score is in (0, 1]: identical judgment sets
// score 1, and the score decays as the spread between respondents grows.
//
// The spread is the sample standard deviation of the log judgments per
// upper-triangle cell, averaged across cells; the score maps that
// dispersion d to 1/(1+d). Logs make the measure symmetric in direction:
// judging 3 against 1/3 is the same disagreement as judging 1/3 against 3.
//
// At least two matrices of equal order are required; fewer return
// ErrTooFewRespondents.
func RespondentAgreement(matrices []*PairwiseMatrix) (float64, error) {
	if len(matrices) < 2 {
		return 0, fmt.Errorf("%w: need at least 2, got %d", ErrTooFewRespondents, len(matrices))
	}
	n := matrices[0].Order()
	for idx, m := range matrices[1:] {
		if m.Order() != n {
			return 0, fmt.Errorf("%w: matrix 0 has order %d, matrix %d has order %d",
				ErrDimensionMismatch, n, idx+1, m.Order())
		}
	}
	if n < 2 {
		return 1, nil
	}

	var dispersion float64
	cells := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			var mean float64
			for _, m := range matrices {
				mean += math.Log(m.At(i, j))
			}
			mean /= float64(len(matrices))

			var sumSquares float64
			for _, m := range matrices {
				d := math.Log(m.At(i, j)) - mean
				sumSquares += d * d
			}
			dispersion += math.Sqrt(sumSquares / float64(len(matrices)-1))
			cells++
		}
	}
	return 1 / (1 + dispersion/float64(cells)), nil
}
