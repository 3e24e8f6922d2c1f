package domain

import (
	"fmt"
	"sort"
)

// SynthesisType distinguishes the two hierarchy shapes a synthesis can
// produce results for.
type SynthesisType string

const (
	// SynthesisCriteria marks a criteria-only hierarchy: the final
	// weights are the goal block's priorities keyed by criterion name.
	SynthesisCriteria SynthesisType = "criteria"

	// SynthesisAlternatives marks a full hierarchy: the final weights
	// are the weighted sum of alternative priorities across criteria.
	SynthesisAlternatives SynthesisType = "alternatives"
)

// RankedItem pairs an item name with its synthesized weight.
type RankedItem struct {
	// Name is the criterion or alternative name.
	Name string `json:"name"`

	// Weight is the item's synthesized weight.
	Weight float64 `json:"weight"`
}

// SynthesisResult is the terminal output of an analysis run.
type SynthesisResult struct {
	// Type records which hierarchy shape produced the result.
	Type SynthesisType `json:"type"`

	// FinalWeights maps each ranked item name to its weight. With every
	// block present the weights sum to 1; each criterion missing its
	// alternatives block removes that criterion's share from the total.
	FinalWeights map[string]float64 `json:"final_weights"`

	// Ranking lists the items in descending weight order. The sort is
	// stable: items with equal weights keep their input order.
	Ranking []RankedItem `json:"ranking"`

	// ReducedConfidence is set when at least one expected alternatives
	// block was missing and contributed zero, so the ranking rests on
	// partial data.
	ReducedConfidence bool `json:"reduced_confidence"`

	// MissingCriteria names the criteria whose alternatives blocks were
	// missing, in criteria order.
	MissingCriteria []string `json:"missing_criteria,omitempty"`
}

// Synthesize combines the criteria-level priorities with the
// per-criterion alternative priorities into final weights and a ranking.
//
// With no alternatives the goal priorities become the final weights
// directly. Otherwise each alternative's weight is the sum over criteria
// of the criterion weight times the alternative's priority under that
// criterion. A criterion absent from altPriorities contributes zero to
// every alternative and is reported via MissingCriteria instead of
// failing the synthesis; respondents skipping a whole comparison is
// expected survey behavior.
//
// The criteria and alternatives slices fix both the weight ordering and
// the tie order of the ranking.
func Synthesize(
	criteria []string,
	criteriaWeights []float64,
	alternatives []string,
	altPriorities map[string][]float64,
) (*SynthesisResult, error) {
	if len(criteria) == 0 {
		return nil, fmt.Errorf("%w: no criteria to synthesize", ErrTooFewItems)
	}
	if len(criteria) != len(criteriaWeights) {
		return nil, fmt.Errorf("%w: %d criteria, %d weights",
			ErrDimensionMismatch, len(criteria), len(criteriaWeights))
	}

	if len(alternatives) == 0 {
		weights := make(map[string]float64, len(criteria))
		for i, name := range criteria {
			weights[name] = criteriaWeights[i]
		}
		return &SynthesisResult{
			Type:         SynthesisCriteria,
			FinalWeights: weights,
			Ranking:      rankDescending(criteria, weights),
		}, nil
	}

	weights := make(map[string]float64, len(alternatives))
	for _, name := range alternatives {
		weights[name] = 0
	}
	var missing []string
	for i, criterion := range criteria {
		priorities, ok := altPriorities[criterion]
		if !ok {
			missing = append(missing, criterion)
			continue
		}
		if len(priorities) != len(alternatives) {
			return nil, fmt.Errorf("%w: criterion %q has %d alternative priorities, want %d",
				ErrDimensionMismatch, criterion, len(priorities), len(alternatives))
		}
		for j, name := range alternatives {
			weights[name] += criteriaWeights[i] * priorities[j]
		}
	}

	return &SynthesisResult{
		Type:              SynthesisAlternatives,
		FinalWeights:      weights,
		Ranking:           rankDescending(alternatives, weights),
		ReducedConfidence: len(missing) > 0,
		MissingCriteria:   missing,
	}, nil
}

// rankDescending orders names by descending weight. sort.SliceStable
// keeps equal-weight items in their input order.
func rankDescending(order []string, weights map[string]float64) []RankedItem {
	ranking := make([]RankedItem, len(order))
	for i, name := range order {
		ranking[i] = RankedItem{Name: name, Weight: weights[name]}
	}
	sort.SliceStable(ranking, func(a, b int) bool {
		return ranking[a].Weight > ranking[b].Weight
	})
	return ranking
}
