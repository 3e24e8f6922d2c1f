// Package application orchestrates analysis runs: it turns one immutable
// request into comparison blocks, fans block analysis out over a bounded
// worker pool, synthesizes the final ranking, and assembles the report.
package application

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/ahrav/go-saaty/internal/domain"
)

// AnalysisRequest is the immutable input for one analysis run.
//
// Two request shapes share this struct. Survey integrations populate
// Judgments with one sparse judgment map per respondent per block; callers
// that aggregate elsewhere supply ready matrices in Matrices instead. A
// block with an explicit matrix ignores any judgment maps under the same
// key.
//
// Block keys follow the hierarchy convention: "goal" compares the criteria,
// "goal.<criterion>" compares the alternatives under that criterion.
type AnalysisRequest struct {
	// Goal names the decision this hierarchy serves.
	Goal string `json:"goal"`

	// Criteria is the ordered list of criteria compared in the goal block.
	Criteria []string `json:"criteria"`

	// Alternatives, when present, are compared under every criterion and
	// ranked by the synthesis. Empty means a criteria-only hierarchy.
	Alternatives []string `json:"alternatives,omitempty"`

	// Judgments holds the raw survey answers: one judgment map per
	// respondent for each answered block.
	Judgments map[domain.BlockKey][]domain.Judgments `json:"judgments,omitempty"`

	// Matrices holds pre-aggregated comparison matrices keyed by block.
	Matrices map[domain.BlockKey][][]float64 `json:"matrices,omitempty"`
}

// Validate checks the request shape before any computation. It accumulates
// every problem into one validation error so callers can fix a bad payload
// in a single round trip.
func (r *AnalysisRequest) Validate() error {
	verr := domain.NewValidationError("analysis request")

	if strings.TrimSpace(r.Goal) == "" {
		verr.AddError("goal must not be blank")
	}
	if err := domain.ValidateItems(r.Criteria); err != nil {
		verr.AddError(fmt.Sprintf("criteria: %v", err))
	}
	if len(r.Alternatives) > 0 {
		if err := domain.ValidateItems(r.Alternatives); err != nil {
			verr.AddError(fmt.Sprintf("alternatives: %v", err))
		}
	}
	if len(r.Judgments) == 0 && len(r.Matrices) == 0 {
		verr.AddError("no judgment data supplied")
	}

	for _, key := range sortedBlockKeys(r.Judgments) {
		if !r.knownBlockKey(key) {
			verr.AddError(fmt.Sprintf("judgments: unknown block key %q", key))
		}
	}
	for _, key := range sortedMatrixKeys(r.Matrices) {
		if !r.knownBlockKey(key) {
			verr.AddError(fmt.Sprintf("matrices: unknown block key %q", key))
		}
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

// knownBlockKey reports whether key addresses a block this hierarchy can
// contain: the goal block, or "goal.<criterion>" for a declared criterion
// when alternatives exist. Criterion names match exactly; fuzzy matching
// applies only inside judgment keys.
func (r *AnalysisRequest) knownBlockKey(key domain.BlockKey) bool {
	if key.IsGoal() {
		return true
	}
	criterion, ok := key.Criterion()
	if !ok {
		return false
	}
	if len(r.Alternatives) == 0 {
		return false
	}
	return slices.Contains(r.Criteria, criterion)
}

// fingerprint returns the SHA256 hex digest of the request's canonical
// JSON form, used as the memoization key. JSON object keys encode sorted,
// so two requests with the same content share a fingerprint regardless of
// map iteration order.
func (r *AnalysisRequest) fingerprint() (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("failed to encode request for hashing: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// sortedBlockKeys returns the map's keys in lexical order so validation
// messages come out deterministically.
func sortedBlockKeys(m map[domain.BlockKey][]domain.Judgments) []domain.BlockKey {
	keys := make([]domain.BlockKey, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

func sortedMatrixKeys(m map[domain.BlockKey][][]float64) []domain.BlockKey {
	keys := make([]domain.BlockKey, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}
