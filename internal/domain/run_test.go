package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBlocks(t *testing.T) map[BlockKey]*ComparisonBlock {
	t.Helper()
	goal := mustMatrix(t, [][]float64{{1, 2}, {0.5, 1}})
	return map[BlockKey]*ComparisonBlock{
		GoalKey: {Key: GoalKey, Items: []string{"Price", "Quality"}, Matrix: goal, Respondents: 1},
	}
}

func testResults() map[BlockKey]*ConsistencyResult {
	return map[BlockKey]*ConsistencyResult{
		GoalKey: {
			PriorityVector: []float64{2.0 / 3, 1.0 / 3},
			LambdaMax:      2,
			IsConsistent:   true,
		},
	}
}

func TestRunHappyPath(t *testing.T) {
	run := NewRun()
	assert.Equal(t, PhaseCollectBlocks, run.Phase())

	collected, err := run.WithBlocks(testBlocks(t))
	require.NoError(t, err)
	assert.Equal(t, PhaseAnalyzeBlocks, collected.Phase())

	analyzed, err := collected.WithResults(testResults())
	require.NoError(t, err)
	assert.Equal(t, PhaseSynthesize, analyzed.Phase())

	synthesis := &SynthesisResult{
		Type:         SynthesisCriteria,
		FinalWeights: map[string]float64{"Price": 2.0 / 3, "Quality": 1.0 / 3},
	}
	done, err := analyzed.WithSynthesis(synthesis)
	require.NoError(t, err)
	assert.Equal(t, PhaseDone, done.Phase())
	assert.Equal(t, synthesis, done.Synthesis())

	block, ok := done.Block(GoalKey)
	require.True(t, ok)
	assert.Equal(t, GoalKey, block.Key)

	result, ok := done.Result(GoalKey)
	require.True(t, ok)
	assert.True(t, result.IsConsistent)
}

func TestRunSnapshotsAreImmutable(t *testing.T) {
	run := NewRun()
	collected, err := run.WithBlocks(testBlocks(t))
	require.NoError(t, err)

	// The original run is untouched by the transition.
	assert.Equal(t, PhaseCollectBlocks, run.Phase())
	_, ok := run.Block(GoalKey)
	assert.False(t, ok)

	// Mutating the returned map must not reach the snapshot.
	blocks := collected.Blocks()
	delete(blocks, GoalKey)
	_, ok = collected.Block(GoalKey)
	assert.True(t, ok)
}

func TestRunRejectsOutOfOrderTransitions(t *testing.T) {
	run := NewRun()

	t.Run("results before blocks", func(t *testing.T) {
		_, err := run.WithResults(testResults())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidTransition)

		var phaseErr *PhaseError
		require.ErrorAs(t, err, &phaseErr)
		assert.Equal(t, PhaseCollectBlocks, phaseErr.From)
		assert.Equal(t, PhaseSynthesize, phaseErr.To)
	})

	t.Run("synthesis before results", func(t *testing.T) {
		collected, err := run.WithBlocks(testBlocks(t))
		require.NoError(t, err)

		_, err = collected.WithSynthesis(&SynthesisResult{})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("collecting twice", func(t *testing.T) {
		collected, err := run.WithBlocks(testBlocks(t))
		require.NoError(t, err)

		_, err = collected.WithBlocks(testBlocks(t))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("synthesis is terminal", func(t *testing.T) {
		collected, err := run.WithBlocks(testBlocks(t))
		require.NoError(t, err)
		analyzed, err := collected.WithResults(testResults())
		require.NoError(t, err)
		done, err := analyzed.WithSynthesis(&SynthesisResult{})
		require.NoError(t, err)

		_, err = done.WithSynthesis(&SynthesisResult{})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestRunValidatesResultCoverage(t *testing.T) {
	collected, err := NewRun().WithBlocks(testBlocks(t))
	require.NoError(t, err)

	t.Run("no blocks at all", func(t *testing.T) {
		_, err := NewRun().WithBlocks(nil)
		require.Error(t, err)
	})

	t.Run("result for a block that was never collected", func(t *testing.T) {
		results := testResults()
		results[CriterionBlockKey("Ghost")] = &ConsistencyResult{PriorityVector: []float64{1}}

		_, err := collected.WithResults(results)
		require.Error(t, err)

		var phaseErr *PhaseError
		require.ErrorAs(t, err, &phaseErr)
		assert.Contains(t, phaseErr.Error(), "unknown block")
	})

	t.Run("block left without a result", func(t *testing.T) {
		_, err := collected.WithResults(map[BlockKey]*ConsistencyResult{})
		require.Error(t, err)

		var phaseErr *PhaseError
		require.ErrorAs(t, err, &phaseErr)
		assert.Contains(t, phaseErr.Error(), "no result")
	})

	t.Run("nil synthesis", func(t *testing.T) {
		analyzed, err := collected.WithResults(testResults())
		require.NoError(t, err)

		_, err = analyzed.WithSynthesis(nil)
		require.Error(t, err)
	})
}
