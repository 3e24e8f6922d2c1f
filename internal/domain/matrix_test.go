package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertReciprocal checks the structural invariants every well-formed
// pairwise matrix must satisfy: unit diagonal and reciprocal symmetry.
func assertReciprocal(t *testing.T, m *PairwiseMatrix) {
	t.Helper()
	n := m.Order()
	for i := 0; i < n; i++ {
		assert.InDelta(t, 1.0, m.At(i, i), 1e-12, "diagonal entry (%d,%d)", i, i)
		for j := 0; j < n; j++ {
			assert.InDelta(t, 1.0, m.At(i, j)*m.At(j, i), 1e-9,
				"reciprocity at (%d,%d)", i, j)
		}
	}
}

func TestBuildPairwiseMatrix(t *testing.T) {
	items := []string{"Price", "Quality", "Durability"}

	tests := []struct {
		name      string
		items     []string
		judgments Judgments
		want      [][]float64
		wantCodes []WarningCode
	}{
		{
			name:  "forward keys fill both triangles",
			items: items,
			judgments: Judgments{
				"Price vs Quality":      3,
				"Price vs Durability":   5,
				"Quality vs Durability": 2,
			},
			want: [][]float64{
				{1, 3, 5},
				{1.0 / 3, 1, 2},
				{1.0 / 5, 1.0 / 2, 1},
			},
		},
		{
			name:      "missing pairs default to indifference",
			items:     items,
			judgments: Judgments{"Price vs Quality": 3},
			want: [][]float64{
				{1, 3, 1},
				{1.0 / 3, 1, 1},
				{1, 1, 1},
			},
		},
		{
			name:      "no judgments at all",
			items:     items,
			judgments: Judgments{},
			want: [][]float64{
				{1, 1, 1},
				{1, 1, 1},
				{1, 1, 1},
			},
		},
		{
			name:  "reverse key contributes its reciprocal",
			items: items,
			judgments: Judgments{
				"Quality vs Price": 4,
			},
			want: [][]float64{
				{1, 1.0 / 4, 1},
				{4, 1, 1},
				{1, 1, 1},
			},
		},
		{
			name:  "negative value prefers the second item",
			items: items,
			judgments: Judgments{
				"Price vs Quality": -3,
			},
			want: [][]float64{
				{1, 1.0 / 3, 1},
				{3, 1, 1},
				{1, 1, 1},
			},
		},
		{
			name:  "fractional value is accepted directly",
			items: items,
			judgments: Judgments{
				"Price vs Quality": 0.5,
			},
			want: [][]float64{
				{1, 0.5, 1},
				{2, 1, 1},
				{1, 1, 1},
			},
		},
		{
			name:  "item names match case-insensitively",
			items: items,
			judgments: Judgments{
				"price vs QUALITY": 2,
			},
			want: [][]float64{
				{1, 2, 1},
				{1.0 / 2, 1, 1},
				{1, 1, 1},
			},
		},
		{
			name:  "forward key wins over a conflicting reverse key",
			items: items,
			judgments: Judgments{
				"Price vs Quality": 3,
				"Quality vs Price": 3,
			},
			want: [][]float64{
				{1, 3, 1},
				{1.0 / 3, 1, 1},
				{1, 1, 1},
			},
			wantCodes: []WarningCode{WarnConflictingPair},
		},
		{
			name:  "reciprocal reverse key raises no conflict",
			items: items,
			judgments: Judgments{
				"Price vs Quality": 4,
				"Quality vs Price": 0.25,
			},
			want: [][]float64{
				{1, 4, 1},
				{1.0 / 4, 1, 1},
				{1, 1, 1},
			},
		},
		{
			name:  "unknown item is skipped with a warning",
			items: items,
			judgments: Judgments{
				"Price vs Qualty": 3,
			},
			want: [][]float64{
				{1, 1, 1},
				{1, 1, 1},
				{1, 1, 1},
			},
			wantCodes: []WarningCode{WarnUnknownItem},
		},
		{
			name:  "malformed key is skipped with a warning",
			items: items,
			judgments: Judgments{
				"Price versus Quality": 3,
			},
			want: [][]float64{
				{1, 1, 1},
				{1, 1, 1},
				{1, 1, 1},
			},
			wantCodes: []WarningCode{WarnMalformedKey},
		},
		{
			name:  "self comparison is skipped with a warning",
			items: items,
			judgments: Judgments{
				"Price vs Price": 5,
			},
			want: [][]float64{
				{1, 1, 1},
				{1, 1, 1},
				{1, 1, 1},
			},
			wantCodes: []WarningCode{WarnSelfComparison},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, warnings, err := BuildPairwiseMatrix(tt.items, tt.judgments)
			require.NoError(t, err)
			require.NotNil(t, m)

			require.Equal(t, len(tt.items), m.Order())
			for i, row := range tt.want {
				for j, want := range row {
					assert.InDelta(t, want, m.At(i, j), 1e-9, "entry (%d,%d)", i, j)
				}
			}
			assertReciprocal(t, m)

			var codes []WarningCode
			for _, w := range warnings {
				codes = append(codes, w.Code)
			}
			assert.ElementsMatch(t, tt.wantCodes, codes)
		})
	}
}

func TestBuildPairwiseMatrixRejectsBadInput(t *testing.T) {
	tests := []struct {
		name      string
		items     []string
		judgments Judgments
		wantErr   error
	}{
		{
			name:    "fewer than two items",
			items:   []string{"Price"},
			wantErr: ErrTooFewItems,
		},
		{
			name:    "duplicate item name",
			items:   []string{"Price", "Quality", "Price"},
			wantErr: ErrDuplicateItemName,
		},
		{
			name:    "blank item name",
			items:   []string{"Price", "  "},
			wantErr: ErrEmptyItemName,
		},
		{
			name:      "magnitude above the scale",
			items:     []string{"Price", "Quality"},
			judgments: Judgments{"Price vs Quality": 50},
			wantErr:   ErrJudgmentOutOfRange,
		},
		{
			name:      "negative magnitude above the scale",
			items:     []string{"Price", "Quality"},
			judgments: Judgments{"Price vs Quality": -50},
			wantErr:   ErrJudgmentOutOfRange,
		},
		{
			name:      "zero judgment",
			items:     []string{"Price", "Quality"},
			judgments: Judgments{"Price vs Quality": 0},
			wantErr:   ErrJudgmentOutOfRange,
		},
		{
			name:      "NaN judgment",
			items:     []string{"Price", "Quality"},
			judgments: Judgments{"Price vs Quality": math.NaN()},
			wantErr:   ErrJudgmentOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, err := BuildPairwiseMatrix(tt.items, tt.judgments)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, m)
		})
	}
}

func TestBuildPairwiseMatrixDuplicateKeyIsDeterministic(t *testing.T) {
	// Two distinct keys fold to the same oriented pair; the key that
	// sorts first must win regardless of map iteration order.
	items := []string{"Price", "Quality"}
	judgments := Judgments{
		"Price vs Quality": 3,
		"price vs quality": 7,
	}

	for i := 0; i < 20; i++ {
		m, warnings, err := BuildPairwiseMatrix(items, judgments)
		require.NoError(t, err)
		assert.InDelta(t, 3.0, m.At(0, 1), 1e-12)
		require.Len(t, warnings, 1)
		assert.Equal(t, WarnDuplicatePair, warnings[0].Code)
		assert.Equal(t, "price vs quality", warnings[0].Key)
	}
}

func TestNewPairwiseMatrix(t *testing.T) {
	t.Run("accepts a valid matrix and copies the cells", func(t *testing.T) {
		cells := [][]float64{
			{1, 2},
			{0.5, 1},
		}
		m, err := NewPairwiseMatrix(cells)
		require.NoError(t, err)
		require.Equal(t, 2, m.Order())

		cells[0][1] = 99
		assert.InDelta(t, 2.0, m.At(0, 1), 1e-12, "matrix must not alias caller cells")
	})

	t.Run("accepts an order-1 matrix", func(t *testing.T) {
		m, err := NewPairwiseMatrix([][]float64{{1}})
		require.NoError(t, err)
		assert.Equal(t, 1, m.Order())
	})

	t.Run("Rows returns an independent copy", func(t *testing.T) {
		m, err := NewPairwiseMatrix([][]float64{{1, 4}, {0.25, 1}})
		require.NoError(t, err)

		rows := m.Rows()
		rows[0][1] = 99
		assert.InDelta(t, 4.0, m.At(0, 1), 1e-12)
	})

	tests := []struct {
		name    string
		cells   [][]float64
		wantErr error
	}{
		{
			name:    "empty matrix",
			cells:   nil,
			wantErr: ErrTooFewItems,
		},
		{
			name:    "ragged rows",
			cells:   [][]float64{{1, 2}, {0.5}},
			wantErr: ErrNotSquare,
		},
		{
			name:    "zero entry",
			cells:   [][]float64{{1, 0}, {0.5, 1}},
			wantErr: ErrNonPositiveEntry,
		},
		{
			name:    "negative entry",
			cells:   [][]float64{{1, -2}, {0.5, 1}},
			wantErr: ErrNonPositiveEntry,
		},
		{
			name:    "infinite entry",
			cells:   [][]float64{{1, math.Inf(1)}, {0.5, 1}},
			wantErr: ErrNonPositiveEntry,
		},
		{
			name:    "diagonal not one",
			cells:   [][]float64{{1, 2}, {0.5, 2}},
			wantErr: ErrBadDiagonal,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewPairwiseMatrix(tt.cells)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, m)
		})
	}
}

func TestBlockKey(t *testing.T) {
	t.Run("goal key", func(t *testing.T) {
		assert.True(t, GoalKey.IsGoal())
		_, ok := GoalKey.Criterion()
		assert.False(t, ok)
	})

	t.Run("criterion key round trip", func(t *testing.T) {
		key := CriterionBlockKey("Price")
		assert.Equal(t, BlockKey("goal.Price"), key)
		assert.False(t, key.IsGoal())

		name, ok := key.Criterion()
		require.True(t, ok)
		assert.Equal(t, "Price", name)
	})

	t.Run("prefix without a name is not a criterion key", func(t *testing.T) {
		_, ok := BlockKey("goal.").Criterion()
		assert.False(t, ok)
	})
}
