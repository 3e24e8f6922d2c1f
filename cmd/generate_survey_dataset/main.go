package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/ahrav/go-saaty/internal/testutils"
)

func main() {
	var (
		criteria     = flag.Int("criteria", 4, "Number of criteria under the goal")
		alternatives = flag.Int("alternatives", 3, "Number of alternatives (0 for a criteria-only survey)")
		respondents  = flag.Int("respondents", 5, "Number of judgment sets per comparison block")
		noise        = flag.Float64("noise", 0.1, "Log-space jitter applied to each judgment (0 = perfectly consistent)")
		seed         = flag.Int64("seed", 0, "Random seed (0 = derive from current time)")
		outputPath   = flag.String("output", "testdata/survey_dataset/sample_survey.json", "Output file path")
	)
	flag.Parse()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	dataset, err := testutils.GenerateSurveyDataset(testutils.SurveyConfig{
		Criteria:     *criteria,
		Alternatives: *alternatives,
		Respondents:  *respondents,
		Noise:        *noise,
		Seed:         *seed,
	})
	if err != nil {
		log.Fatalf("Failed to generate dataset: %v", err)
	}

	if err := testutils.SaveSurveyDataset(dataset, *outputPath); err != nil {
		log.Fatalf("Failed to save dataset: %v", err)
	}

	stats := testutils.ComputeSurveyStatistics(dataset)

	fmt.Printf("Generated survey dataset:\n")
	fmt.Printf("- Path: %s\n", *outputPath)
	fmt.Printf("- Seed: %d\n", *seed)
	fmt.Printf("- Comparison blocks: %d\n", stats.Blocks)
	fmt.Printf("- Respondents per block: %d\n", stats.Respondents)
	fmt.Printf("- Judgments per respondent per goal block: %d\n", stats.JudgmentsPerBlock)
	fmt.Printf("- Total judgments: %d\n", stats.TotalJudgments)
	fmt.Printf("\nDataset saved successfully!\n")

	readmePath := filepath.Join(filepath.Dir(*outputPath), "README.md")
	readme := `# Survey Datasets

This directory contains synthetic pairwise-comparison surveys for testing
and load experiments.

## Format

Each dataset mirrors the analysis request payload: a goal, a criteria
list, an optional alternatives list, and a judgments map keyed by
comparison block ("goal" or "criterion:<name>"). Every block holds one
judgment set per respondent, keyed "<NameA> vs <NameB>" on the 1-9
comparison scale.

A dataset can be posted to the analysis endpoint as-is:

    curl -X POST http://localhost:8080/api/v1/ahp/analyze \
      -H 'Content-Type: application/json' \
      -d @sample_survey.json

## Reproducibility

The metadata block records the seed and noise level. Rerunning the
generator with the same flags reproduces the judgments exactly.
`

	if err := os.WriteFile(readmePath, []byte(readme), 0600); err != nil {
		log.Printf("Warning: Failed to create README: %v", err)
	}
}
