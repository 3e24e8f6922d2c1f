package domain

import (
	"time"
)

// BlockAnalysis couples one comparison block with its consistency result
// in report form: weights keyed by item name alongside the positional
// priority vector and the block's collection diagnostics.
type BlockAnalysis struct {
	// Key identifies the analyzed block.
	Key BlockKey `json:"key"`

	// Items lists the compared item names in matrix order.
	Items []string `json:"items"`

	// Weights maps each item name to its derived priority.
	Weights map[string]float64 `json:"weights"`

	// PriorityVector holds the same priorities in item order.
	PriorityVector []float64 `json:"priority_vector"`

	// LambdaMax is the principal eigenvalue of the block's matrix.
	LambdaMax float64 `json:"lambda_max"`

	// ConsistencyIndex is the block's consistency index.
	ConsistencyIndex float64 `json:"consistency_index"`

	// ConsistencyRatio is the block's consistency ratio.
	ConsistencyRatio float64 `json:"consistency_ratio"`

	// IsConsistent reports whether the ratio clears the conventional
	// threshold.
	IsConsistent bool `json:"is_consistent"`

	// Respondents is the number of judgment sets behind the block.
	Respondents int `json:"respondents"`

	// Agreement scores inter-respondent alignment, when computable.
	Agreement *float64 `json:"agreement,omitempty"`

	// Warnings carries the irregular judgment keys found while the
	// block was built.
	Warnings []JudgmentWarning `json:"warnings,omitempty"`
}

// NewBlockAnalysis merges a collected block with its consistency result.
// The caller guarantees the result belongs to the block; the run phase
// machinery enforces that pairing.
func NewBlockAnalysis(block *ComparisonBlock, result *ConsistencyResult) *BlockAnalysis {
	weights := make(map[string]float64, len(block.Items))
	for i, name := range block.Items {
		weights[name] = result.PriorityVector[i]
	}
	return &BlockAnalysis{
		Key:              block.Key,
		Items:            block.Items,
		Weights:          weights,
		PriorityVector:   result.PriorityVector,
		LambdaMax:        result.LambdaMax,
		ConsistencyIndex: result.ConsistencyIndex,
		ConsistencyRatio: result.ConsistencyRatio,
		IsConsistent:     result.IsConsistent,
		Respondents:      block.Respondents,
		Agreement:        block.Agreement,
		Warnings:         block.Warnings,
	}
}

// FinalScore pairs an item name with its synthesized score in report
// output.
type FinalScore struct {
	// Name is the alternative or criterion name.
	Name string `json:"name"`

	// Score is the item's final synthesized weight.
	Score float64 `json:"score"`
}

// Report is the complete outcome of one analysis run: the criteria
// analysis, the per-criterion alternative analyses when the hierarchy
// has alternatives, and the synthesized ranking.
type Report struct {
	// ID uniquely identifies this run (typically a UUID).
	ID string `json:"id"`

	// Goal is the decision goal the hierarchy serves.
	Goal string `json:"goal"`

	// Type records which hierarchy shape was synthesized.
	Type SynthesisType `json:"type"`

	// CriteriaAnalysis is the analysis of the goal block.
	CriteriaAnalysis *BlockAnalysis `json:"criteria_analysis"`

	// AlternativesByCriterion holds the analysis of each
	// alternatives-under-criterion block, keyed by criterion name.
	// It is omitted for criteria-only hierarchies.
	AlternativesByCriterion map[string]*BlockAnalysis `json:"alternative_weights_by_criterion,omitempty"`

	// FinalScores lists the synthesized weights in ranking order.
	FinalScores []FinalScore `json:"final_scores"`

	// Ranking lists the ranked item names, best first.
	Ranking []string `json:"ranking"`

	// ReducedConfidence is set when the synthesis ran on partial data
	// because at least one alternatives block was missing.
	ReducedConfidence bool `json:"reduced_confidence"`

	// MissingCriteria names the criteria whose alternatives blocks were
	// missing from the input.
	MissingCriteria []string `json:"missing_criteria,omitempty"`

	// Solver names the consistency solver that produced the priorities.
	Solver string `json:"solver"`

	// ElapsedMs measures the full run duration in milliseconds.
	ElapsedMs int64 `json:"elapsed_ms"`

	// Timestamp records when this report was created.
	Timestamp time.Time `json:"timestamp"`
}

// RankedNames projects a synthesis ranking onto its item names, best
// first.
func RankedNames(ranking []RankedItem) []string {
	names := make([]string, len(ranking))
	for i, entry := range ranking {
		names[i] = entry.Name
	}
	return names
}

// ScoresFromRanking converts a synthesis ranking into report scores,
// preserving order.
func ScoresFromRanking(ranking []RankedItem) []FinalScore {
	scores := make([]FinalScore, len(ranking))
	for i, entry := range ranking {
		scores[i] = FinalScore{Name: entry.Name, Score: entry.Weight}
	}
	return scores
}
