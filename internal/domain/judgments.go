package domain

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
)

// judgmentKeySeparator splits a judgment key into its two item names.
// Keys follow the survey convention "<NameA> vs <NameB>".
const judgmentKeySeparator = " vs "

// Saaty scale bounds for a single judgment magnitude. A value of 9 means
// "extremely preferred"; reciprocals down to 1/9 express the opposite
// direction. Magnitudes outside these bounds are rejected rather than
// clipped.
const (
	// ScaleMin is the smallest acceptable judgment magnitude.
	ScaleMin = 1.0 / 9.0

	// ScaleMax is the largest acceptable judgment magnitude.
	ScaleMax = 9.0
)

// scaleSlack absorbs float rounding at the scale bounds, so that a
// serialized 0.1111 still counts as 1/9.
const scaleSlack = 1e-3

// foldCaser is a package-level Unicode case folder for performance.
// cases.Fold() is safe for concurrent use.
var foldCaser = cases.Fold()

// Judgments is one respondent's raw answers for a single comparison
// block, keyed "<NameA> vs <NameB>". Values use the signed scale
// convention: a positive v in [1, 9] prefers the first item v times
// over the second, a negative v prefers the second item |v| times over
// the first, and fractional magnitudes express the same reciprocals
// directly.
type Judgments map[string]float64

// WarningCode classifies a non-fatal irregularity detected while
// resolving judgment keys against a block's item list.
type WarningCode string

const (
	// WarnMalformedKey marks a key that does not contain the
	// "<NameA> vs <NameB>" separator and was ignored.
	WarnMalformedKey WarningCode = "malformed_key"

	// WarnUnknownItem marks a key that names an item outside the block.
	WarnUnknownItem WarningCode = "unknown_item"

	// WarnSelfComparison marks a key that compares an item with itself.
	WarnSelfComparison WarningCode = "self_comparison"

	// WarnConflictingPair marks a pair for which both the forward and
	// the reverse key are present with values that are not reciprocal.
	// The forward key wins; the reverse value is discarded.
	WarnConflictingPair WarningCode = "conflicting_pair"

	// WarnDuplicatePair marks a pair judged twice through keys that
	// fold to the same item pair.
	WarnDuplicatePair WarningCode = "duplicate_pair"
)

// JudgmentWarning reports one irregular judgment key. Warnings never
// abort matrix construction; they exist so survey owners can clean
// their data.
type JudgmentWarning struct {
	// Code classifies the irregularity.
	Code WarningCode `json:"code"`

	// Key is the offending judgment key as the respondent wrote it.
	Key string `json:"key"`

	// Detail is a human-readable explanation, including a nearest-name
	// suggestion for unknown items.
	Detail string `json:"detail"`
}

// pairKey addresses one resolved upper-triangle cell: Row < Col in the
// block's item ordering.
type pairKey struct {
	Row int
	Col int
}

// resolvedJudgments maps typed pair keys to the sign-normalized value
// that should populate the matrix cell (Row, Col).
type resolvedJudgments map[pairKey]float64

// pairEntry remembers a resolved judgment together with the key the
// respondent actually wrote, for duplicate and conflict reporting.
type pairEntry struct {
	value float64
	key   string
}

// resolveJudgments parses a respondent's raw judgment map against the
// block's ordered item list, returning typed pair values plus the
// warnings accumulated along the way.
//
// Resolution rules, applied per key:
//   - Item names match case-insensitively (Unicode case folding) after
//     trimming surrounding whitespace.
//   - A key naming items in reverse order (j before i) contributes the
//     reciprocal of its value to the forward cell, unless the forward
//     key is also present, in which case the forward key wins and a
//     conflict warning is emitted when the two disagree.
//   - Two distinct keys folding to the same oriented pair keep the one
//     with the lexicographically smaller key, so resolution does not
//     depend on map iteration order.
//   - Keys that cannot be parsed, reference unknown items, or compare an
//     item with itself are skipped with a warning.
//
// Value rules, applied after a key resolves:
//   - A negative value v is replaced by 1/|v| (the survey convention for
//     "the second item is preferred").
//   - A magnitude outside [1/9, 9] is a validation error; partial survey
//     data is expected, out-of-scale data is not.
func resolveJudgments(items []string, judgments Judgments) (resolvedJudgments, []JudgmentWarning, error) {
	index := make(map[string]int, len(items))
	for i, name := range items {
		index[foldCaser.String(strings.TrimSpace(name))] = i
	}

	forward := make(map[pairKey]pairEntry, len(judgments))
	reverse := make(map[pairKey]pairEntry)
	var warnings []JudgmentWarning

	for key, raw := range judgments {
		left, right, ok := splitJudgmentKey(key)
		if !ok {
			warnings = append(warnings, JudgmentWarning{
				Code:   WarnMalformedKey,
				Key:    key,
				Detail: fmt.Sprintf("expected %q between two item names", judgmentKeySeparator),
			})
			continue
		}

		i, okLeft := index[foldCaser.String(left)]
		if !okLeft {
			warnings = append(warnings, unknownItemWarning(key, left, items))
			continue
		}
		j, okRight := index[foldCaser.String(right)]
		if !okRight {
			warnings = append(warnings, unknownItemWarning(key, right, items))
			continue
		}
		if i == j {
			warnings = append(warnings, JudgmentWarning{
				Code:   WarnSelfComparison,
				Key:    key,
				Detail: fmt.Sprintf("%q compared with itself; diagonal is fixed at 1", items[i]),
			})
			continue
		}

		value, err := normalizeJudgment(raw)
		if err != nil {
			return nil, warnings, fmt.Errorf("judgment %q: %w", key, err)
		}

		oriented := forward
		pair := pairKey{Row: i, Col: j}
		if i > j {
			oriented = reverse
			pair = pairKey{Row: j, Col: i}
		}
		if prev, dup := oriented[pair]; dup {
			kept, dropped := prev, pairEntry{value: value, key: key}
			if dropped.key < kept.key {
				kept, dropped = dropped, kept
			}
			oriented[pair] = kept
			warnings = append(warnings, JudgmentWarning{
				Code:   WarnDuplicatePair,
				Key:    dropped.key,
				Detail: fmt.Sprintf("pair already judged via %q; value %g discarded", kept.key, dropped.value),
			})
			continue
		}
		oriented[pair] = pairEntry{value: value, key: key}
	}

	resolved := make(resolvedJudgments, len(forward)+len(reverse))
	for pair, entry := range forward {
		resolved[pair] = entry.value
	}
	for pair, rev := range reverse {
		fwd, both := forward[pair]
		if !both {
			resolved[pair] = 1 / rev.value
			continue
		}
		// Forward key wins. Flag the conflict unless the reverse entry
		// is the reciprocal it should be.
		if math.Abs(fwd.value*rev.value-1) > 1e-6 {
			warnings = append(warnings, JudgmentWarning{
				Code: WarnConflictingPair,
				Key:  rev.key,
				Detail: fmt.Sprintf(
					"conflicts with %q = %g; forward key wins, reverse value discarded",
					fwd.key, fwd.value),
			})
		}
	}

	sortWarnings(warnings)
	return resolved, warnings, nil
}

// sortWarnings orders warnings by key then code so that output does not
// depend on map iteration order.
func sortWarnings(warnings []JudgmentWarning) {
	sort.Slice(warnings, func(a, b int) bool {
		if warnings[a].Key != warnings[b].Key {
			return warnings[a].Key < warnings[b].Key
		}
		return warnings[a].Code < warnings[b].Code
	})
}

// splitJudgmentKey separates "<NameA> vs <NameB>" into its item names.
// Item names containing the separator are not supported; the first
// occurrence splits the key.
func splitJudgmentKey(key string) (left, right string, ok bool) {
	left, right, ok = strings.Cut(key, judgmentKeySeparator)
	if !ok {
		return "", "", false
	}
	left = strings.TrimSpace(left)
	right = strings.TrimSpace(right)
	if left == "" || right == "" {
		return "", "", false
	}
	return left, right, true
}

// normalizeJudgment applies the sign convention and the scale bounds to
// a raw judgment value. Negative values flip direction: -3 becomes 1/3.
func normalizeJudgment(raw float64) (float64, error) {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0, fmt.Errorf("%w: value %v", ErrJudgmentOutOfRange, raw)
	}
	value := raw
	if value < 0 {
		value = 1 / math.Abs(value)
	}
	if value < ScaleMin-scaleSlack || value > ScaleMax+scaleSlack {
		return 0, fmt.Errorf("%w: magnitude %g outside [%g, %g]", ErrJudgmentOutOfRange, raw, ScaleMin, ScaleMax)
	}
	return value, nil
}

// unknownItemWarning builds the warning for a judgment key that names an
// item outside the block, suggesting the closest known item name.
func unknownItemWarning(key, name string, items []string) JudgmentWarning {
	detail := fmt.Sprintf("unknown item %q", name)
	if suggestion := nearestItemName(name, items); suggestion != "" {
		detail = fmt.Sprintf("unknown item %q (did you mean %q?)", name, suggestion)
	}
	return JudgmentWarning{Code: WarnUnknownItem, Key: key, Detail: detail}
}

// nearestItemName returns the block item closest to name by edit
// distance, or "" when nothing is plausibly close. The cutoff keeps
// suggestions useful: a distance beyond half the name length is noise.
func nearestItemName(name string, items []string) string {
	folded := foldCaser.String(name)
	best := ""
	bestDist := math.MaxInt
	for _, candidate := range items {
		// The levenshtein library correctly handles multi-byte UTF-8
		// characters.
		d := levenshtein.ComputeDistance(folded, foldCaser.String(candidate))
		if d < bestDist {
			best, bestDist = candidate, d
		}
	}
	if best == "" || bestDist > len([]rune(name))/2+1 {
		return ""
	}
	return best
}
