package domain

import (
	"fmt"
	"math"
)

// diagonalTolerance bounds how far a supplied diagonal entry may sit
// from 1 before the matrix is rejected.
const diagonalTolerance = 1e-9

// PairwiseMatrix is a square, positive pairwise-comparison matrix.
// Entry (i, j) expresses how many times item i is preferred over item j;
// a well-formed matrix has a unit diagonal and reciprocal symmetry,
// m[i][j] = 1/m[j][i]. Matrices produced by BuildPairwiseMatrix and
// AggregateMatrices guarantee both properties by construction.
//
// A PairwiseMatrix is immutable after construction. Accessors return
// values or copies, never the backing storage, so one matrix can be
// shared freely across concurrent block analyses.
type PairwiseMatrix struct {
	cells [][]float64
}

// NewPairwiseMatrix validates and wraps externally supplied cells, for
// callers that hold a pre-aggregated matrix instead of raw judgments.
// The cells are deep-copied so later mutation of the argument cannot
// reach the matrix.
//
// Validation rejects, in order: an empty matrix, unequal row lengths,
// entries that are not positive finite numbers, and diagonal entries
// that are not 1. Reciprocal symmetry is not enforced here; a matrix
// with inconsistent judgments is legitimate input whose inconsistency
// the analyzer will measure.
func NewPairwiseMatrix(cells [][]float64) (*PairwiseMatrix, error) {
	n := len(cells)
	if n < 1 {
		return nil, fmt.Errorf("%w: need at least 1, got 0", ErrTooFewItems)
	}
	copied := make([][]float64, n)
	for i, row := range cells {
		if len(row) != n {
			return nil, fmt.Errorf("%w: row %d has %d entries, want %d", ErrNotSquare, i, len(row), n)
		}
		copied[i] = make([]float64, n)
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
				return nil, fmt.Errorf("%w: entry (%d,%d) = %v", ErrNonPositiveEntry, i, j, v)
			}
			copied[i][j] = v
		}
		if math.Abs(copied[i][i]-1) > diagonalTolerance {
			return nil, fmt.Errorf("%w: entry (%d,%d) = %v", ErrBadDiagonal, i, i, copied[i][i])
		}
	}
	return &PairwiseMatrix{cells: copied}, nil
}

// Order returns the matrix dimension n.
func (m *PairwiseMatrix) Order() int { return len(m.cells) }

// At returns the entry at row i, column j.
func (m *PairwiseMatrix) At(i, j int) float64 { return m.cells[i][j] }

// Rows returns a deep copy of the matrix cells, row-major.
func (m *PairwiseMatrix) Rows() [][]float64 {
	rows := make([][]float64, len(m.cells))
	for i, row := range m.cells {
		rows[i] = make([]float64, len(row))
		copy(rows[i], row)
	}
	return rows
}

// BuildPairwiseMatrix constructs one respondent's complete pairwise
// matrix from the block's ordered item list and the respondent's raw
// judgment map.
//
// Every unordered pair is filled: a resolved judgment populates the
// forward cell and its reciprocal populates the mirror cell, and pairs
// the respondent never judged default to 1, treating the items as
// equally important. The diagonal is fixed at 1. Construction therefore
// never fails on missing data; it fails only on unusable item lists and
// out-of-scale judgment values.
//
// The returned warnings describe judgment keys that were skipped or
// overridden during resolution; see resolveJudgments for the rules.
func BuildPairwiseMatrix(items []string, judgments Judgments) (*PairwiseMatrix, []JudgmentWarning, error) {
	if err := ValidateItems(items); err != nil {
		return nil, nil, err
	}

	resolved, warnings, err := resolveJudgments(items, judgments)
	if err != nil {
		return nil, warnings, err
	}

	n := len(items)
	cells := make([][]float64, n)
	for i := range cells {
		cells[i] = make([]float64, n)
		for j := range cells[i] {
			cells[i][j] = 1
		}
	}
	for pair, value := range resolved {
		cells[pair.Row][pair.Col] = value
		cells[pair.Col][pair.Row] = 1 / value
	}

	return &PairwiseMatrix{cells: cells}, warnings, nil
}
