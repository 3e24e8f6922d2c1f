package domain

import "fmt"

// MaxStandardOrder is the largest matrix order covered by the standard
// random-index table.
const MaxStandardOrder = 10

// MaxExtendedOrder is the largest matrix order covered when the extended
// random-index table is enabled.
const MaxExtendedOrder = 15

// randomIndex holds Saaty's random consistency index by matrix order:
// the expected consistency index of a randomly filled reciprocal matrix,
// used to normalize a measured index into a ratio.
var randomIndex = map[int]float64{
	1:  0,
	2:  0,
	3:  0.58,
	4:  0.90,
	5:  1.12,
	6:  1.24,
	7:  1.32,
	8:  1.41,
	9:  1.45,
	10: 1.49,
}

// extendedRandomIndex continues the table for orders 11 through 15.
// Comparisons this wide usually indicate a survey that should be split,
// so the extension is opt-in rather than the default.
var extendedRandomIndex = map[int]float64{
	11: 1.51,
	12: 1.48,
	13: 1.56,
	14: 1.57,
	15: 1.59,
}

// RandomIndex returns RI(order). Orders beyond MaxStandardOrder are only
// served when extended is true; anything still uncovered returns
// ErrOrderOutOfRange so misconfigured hierarchies fail before any
// eigenvalue work starts.
func RandomIndex(order int, extended bool) (float64, error) {
	if ri, ok := randomIndex[order]; ok {
		return ri, nil
	}
	if extended {
		if ri, ok := extendedRandomIndex[order]; ok {
			return ri, nil
		}
	}
	limit := MaxStandardOrder
	if extended {
		limit = MaxExtendedOrder
	}
	return 0, fmt.Errorf("%w: order %d not in [1, %d]", ErrOrderOutOfRange, order, limit)
}
