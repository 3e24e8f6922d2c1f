// Package domain contains the domain models and pure numerics for
// pairwise-comparison analysis: matrix construction from survey
// judgments, geometric-mean aggregation across respondents, consistency
// measurement, and multi-level weight synthesis.
package domain

import (
	"fmt"
	"strings"
)

// GoalKey identifies the top-level comparison block, in which the
// decision criteria are compared against each other under the goal.
const GoalKey BlockKey = "goal"

// criterionKeyPrefix prefixes the key of every alternatives-under-criterion
// block.
const criterionKeyPrefix = "goal."

// BlockKey identifies a comparison block within a hierarchy.
// The criteria-level block uses the fixed key "goal"; each
// alternatives-under-criterion block uses "goal.<criterionName>".
type BlockKey string

// CriterionBlockKey returns the block key for the alternatives
// comparison under the named criterion.
func CriterionBlockKey(criterion string) BlockKey {
	return BlockKey(criterionKeyPrefix + criterion)
}

// IsGoal reports whether the key identifies the criteria-level block.
func (k BlockKey) IsGoal() bool { return k == GoalKey }

// Criterion returns the criterion name embedded in an
// alternatives-under-criterion key. The second return value is false for
// the goal key and for keys that do not follow the "goal.<name>" form.
func (k BlockKey) Criterion() (string, bool) {
	s := string(k)
	if !strings.HasPrefix(s, criterionKeyPrefix) || len(s) == len(criterionKeyPrefix) {
		return "", false
	}
	return s[len(criterionKeyPrefix):], true
}

// Item is a named entity under comparison: a decision criterion or an
// alternative. The name doubles as the lookup key inside respondent
// judgment maps, so names must be unique within one comparison block.
type Item struct {
	// ID uniquely identifies the item within a hierarchy.
	ID string `json:"id"`

	// Name is the display label and the judgment-key component.
	Name string `json:"name"`
}

// ComparisonBlock holds everything known about one pairwise comparison
// after aggregation: which items are compared, the representative
// matrix, and the diagnostics gathered while building it.
type ComparisonBlock struct {
	// Key identifies the block within the hierarchy.
	Key BlockKey `json:"key"`

	// Items lists the compared item names in their canonical order.
	// Matrix rows and columns follow this order.
	Items []string `json:"items"`

	// Matrix is the aggregated pairwise matrix for this block.
	// It is read-only once the block is constructed.
	Matrix *PairwiseMatrix `json:"-"`

	// Respondents is the number of judgment sets aggregated into Matrix.
	Respondents int `json:"respondents"`

	// Agreement scores how closely the respondents' judgments align,
	// in (0, 1]. Nil when fewer than two respondents answered the block.
	Agreement *float64 `json:"agreement,omitempty"`

	// Warnings collects non-fatal irregularities found while resolving
	// judgment keys, such as conflicting forward and reverse entries.
	Warnings []JudgmentWarning `json:"warnings,omitempty"`
}

// ValidateItems checks that a block's item list is usable for matrix
// construction: at least two entries, none blank, all unique.
func ValidateItems(items []string) error {
	if len(items) < 2 {
		return fmt.Errorf("%w: need at least 2, got %d", ErrTooFewItems, len(items))
	}
	seen := make(map[string]struct{}, len(items))
	for i, name := range items {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: index %d", ErrEmptyItemName, i)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateItemName, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}
