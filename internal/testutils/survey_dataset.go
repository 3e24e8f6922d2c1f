// Package testutils provides synthetic survey generation for tests,
// load experiments, and demo payloads. Generated datasets are
// deterministic for a given seed so failures reproduce.
package testutils

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/ahrav/go-saaty/internal/domain"
)

// Generation bounds. Surveys wider than the extended random-index table
// cannot be analyzed, so the generator refuses to produce them.
const (
	MinCriteria     = 2
	MaxCriteria     = domain.MaxExtendedOrder
	MaxAlternatives = domain.MaxExtendedOrder

	DefaultRespondents = 5
	DefaultNoise       = 0.1
)

// SurveyConfig controls the shape and fuzziness of a generated survey.
type SurveyConfig struct {
	// Criteria is the number of criteria under the goal.
	Criteria int

	// Alternatives is the number of ranked options. Zero generates a
	// criteria-only survey.
	Alternatives int

	// Respondents is the number of judgment sets per block.
	Respondents int

	// Noise is the standard deviation of the log-space jitter applied
	// to each respondent's judgments. Zero produces perfectly
	// consistent answers.
	Noise float64

	// Seed fixes the random stream.
	Seed int64
}

// SurveyMetadata describes how a dataset was produced.
type SurveyMetadata struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	GeneratedAt time.Time `json:"generated_at"`
	Seed        int64     `json:"seed"`
	Respondents int       `json:"respondents"`
	Noise       float64   `json:"noise"`
}

// SurveyDataset is a complete synthetic survey: the hierarchy plus one
// judgment map per respondent per comparison block. Its body fields
// mirror the analysis request payload so a dataset can be posted to the
// API as-is.
type SurveyDataset struct {
	Metadata     SurveyMetadata                         `json:"metadata"`
	Goal         string                                 `json:"goal"`
	Criteria     []string                               `json:"criteria"`
	Alternatives []string                               `json:"alternatives,omitempty"`
	Judgments    map[domain.BlockKey][]domain.Judgments `json:"judgments"`
}

// SurveyStatistics summarizes a dataset for generator output.
type SurveyStatistics struct {
	Blocks            int
	JudgmentsPerBlock int
	TotalJudgments    int
	Respondents       int
}

// GenerateSurveyDataset produces a synthetic survey. Each block gets a
// latent weight vector; ideal judgments are the weight ratios, and each
// respondent sees those ratios jittered by log-normal noise and clamped
// to the comparison scale.
func GenerateSurveyDataset(cfg SurveyConfig) (*SurveyDataset, error) {
	if cfg.Criteria < MinCriteria || cfg.Criteria > MaxCriteria {
		return nil, fmt.Errorf("criteria count %d outside [%d, %d]",
			cfg.Criteria, MinCriteria, MaxCriteria)
	}
	if cfg.Alternatives < 0 || cfg.Alternatives == 1 || cfg.Alternatives > MaxAlternatives {
		return nil, fmt.Errorf("alternatives count %d must be 0 or in [2, %d]",
			cfg.Alternatives, MaxAlternatives)
	}
	if cfg.Respondents < 1 {
		return nil, fmt.Errorf("respondents count %d must be at least 1", cfg.Respondents)
	}
	if cfg.Noise < 0 {
		return nil, fmt.Errorf("noise %g cannot be negative", cfg.Noise)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	criteria := itemNames("criterion", cfg.Criteria)
	alternatives := itemNames("option", cfg.Alternatives)

	judgments := make(map[domain.BlockKey][]domain.Judgments, 1+cfg.Criteria)
	judgments[domain.GoalKey] = generateBlockJudgments(rng, criteria, cfg.Respondents, cfg.Noise)

	if cfg.Alternatives > 0 {
		for _, criterion := range criteria {
			key := domain.CriterionBlockKey(criterion)
			judgments[key] = generateBlockJudgments(rng, alternatives, cfg.Respondents, cfg.Noise)
		}
	}

	return &SurveyDataset{
		Metadata: SurveyMetadata{
			Name: "synthetic-survey",
			Description: fmt.Sprintf(
				"Synthetic pairwise-comparison survey: %d criteria, %d alternatives, %d respondents, noise %g.",
				cfg.Criteria, cfg.Alternatives, cfg.Respondents, cfg.Noise),
			GeneratedAt: time.Now().UTC(),
			Seed:        cfg.Seed,
			Respondents: cfg.Respondents,
			Noise:       cfg.Noise,
		},
		Goal:         "rank synthetic options",
		Criteria:     criteria,
		Alternatives: alternatives,
		Judgments:    judgments,
	}, nil
}

// generateBlockJudgments draws a latent weight per item and emits the
// upper-triangle judgment map for each respondent.
func generateBlockJudgments(
	rng *rand.Rand, items []string, respondents int, noise float64,
) []domain.Judgments {
	weights := make([]float64, len(items))
	for i := range weights {
		// Log-uniform over [1, 9] keeps most pairwise ratios on-scale.
		weights[i] = math.Exp(rng.Float64() * math.Log(domain.ScaleMax))
	}

	sets := make([]domain.Judgments, respondents)
	for r := range sets {
		set := make(domain.Judgments, len(items)*(len(items)-1)/2)
		for i := 0; i < len(items); i++ {
			for j := i + 1; j < len(items); j++ {
				value := weights[i] / weights[j]
				if noise > 0 {
					value *= math.Exp(rng.NormFloat64() * noise)
				}
				set[items[i]+" vs "+items[j]] = clampToScale(value)
			}
		}
		sets[r] = set
	}
	return sets
}

func clampToScale(value float64) float64 {
	if value > domain.ScaleMax {
		return domain.ScaleMax
	}
	if value < domain.ScaleMin {
		return domain.ScaleMin
	}
	return value
}

func itemNames(prefix string, count int) []string {
	if count == 0 {
		return nil
	}
	names := make([]string, count)
	for i := range names {
		names[i] = fmt.Sprintf("%s-%02d", prefix, i+1)
	}
	return names
}

// SaveSurveyDataset writes a dataset as indented JSON, creating parent
// directories as needed.
func SaveSurveyDataset(dataset *SurveyDataset, path string) error {
	if dataset == nil {
		return fmt.Errorf("dataset cannot be nil")
	}

	data, err := json.MarshalIndent(dataset, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal dataset: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	return nil
}

// LoadSurveyDataset reads a dataset saved by SaveSurveyDataset.
func LoadSurveyDataset(path string) (*SurveyDataset, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}

	var dataset SurveyDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dataset: %w", err)
	}
	return &dataset, nil
}

// ComputeSurveyStatistics summarizes a dataset.
func ComputeSurveyStatistics(dataset *SurveyDataset) SurveyStatistics {
	stats := SurveyStatistics{
		Blocks:      len(dataset.Judgments),
		Respondents: dataset.Metadata.Respondents,
	}
	for _, sets := range dataset.Judgments {
		for _, set := range sets {
			stats.TotalJudgments += len(set)
		}
		if len(sets) > 0 && stats.JudgmentsPerBlock == 0 {
			stats.JudgmentsPerBlock = len(sets[0])
		}
	}
	return stats
}
