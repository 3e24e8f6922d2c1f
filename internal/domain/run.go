package domain

import (
	"fmt"
	"maps"
)

// Phase identifies a stage in the fixed lifecycle of an analysis run.
// A run only ever moves forward: blocks are collected, every collected
// block is analyzed, the analyzed blocks are synthesized, and the run is
// done. Synthesis is terminal; rerunning requires a fresh Run.
type Phase string

const (
	// PhaseCollectBlocks is the initial phase: respondent judgments are
	// being built and aggregated into comparison blocks.
	PhaseCollectBlocks Phase = "collect_blocks"

	// PhaseAnalyzeBlocks means every block is collected and consistency
	// analysis may proceed, independently per block.
	PhaseAnalyzeBlocks Phase = "analyze_blocks"

	// PhaseSynthesize means every block has a consistency result and the
	// final weights may be combined.
	PhaseSynthesize Phase = "synthesize"

	// PhaseDone is the terminal phase.
	PhaseDone Phase = "done"
)

// Run is an immutable snapshot of one analysis run as it advances
// through its phases. Transition methods validate the current phase,
// then return a new Run carrying the added data; the receiver is never
// modified, so snapshots can be shared across goroutines without
// locking.
type Run struct {
	phase     Phase
	blocks    map[BlockKey]*ComparisonBlock
	results   map[BlockKey]*ConsistencyResult
	synthesis *SynthesisResult
}

// NewRun creates a run in PhaseCollectBlocks with no data attached.
func NewRun() *Run {
	return &Run{phase: PhaseCollectBlocks}
}

// Phase returns the run's current phase.
func (r *Run) Phase() Phase { return r.phase }

// Block returns the collected block for key, if present.
func (r *Run) Block(key BlockKey) (*ComparisonBlock, bool) {
	b, ok := r.blocks[key]
	return b, ok
}

// Blocks returns a copy of the collected block map. The blocks
// themselves are shared; they are read-only by convention once
// collected.
func (r *Run) Blocks() map[BlockKey]*ComparisonBlock {
	return maps.Clone(r.blocks)
}

// Result returns the consistency result for key, if present.
func (r *Run) Result(key BlockKey) (*ConsistencyResult, bool) {
	res, ok := r.results[key]
	return res, ok
}

// Results returns a copy of the per-block result map.
func (r *Run) Results() map[BlockKey]*ConsistencyResult {
	return maps.Clone(r.results)
}

// Synthesis returns the synthesis result, or nil before PhaseDone.
func (r *Run) Synthesis() *SynthesisResult { return r.synthesis }

// WithBlocks completes block collection and moves the run to
// PhaseAnalyzeBlocks. It fails with a PhaseError when called in any
// other phase or with no blocks at all.
func (r *Run) WithBlocks(blocks map[BlockKey]*ComparisonBlock) (*Run, error) {
	if r.phase != PhaseCollectBlocks {
		return nil, NewPhaseError(r.phase, PhaseAnalyzeBlocks, ErrInvalidTransition)
	}
	if len(blocks) == 0 {
		return nil, NewPhaseError(r.phase, PhaseAnalyzeBlocks,
			fmt.Errorf("no comparison blocks collected"))
	}
	return &Run{
		phase:  PhaseAnalyzeBlocks,
		blocks: maps.Clone(blocks),
	}, nil
}

// WithResults attaches a consistency result for every collected block
// and moves the run to PhaseSynthesize. Results for unknown blocks and
// blocks left without a result both fail the transition: synthesis must
// never read a block whose analysis did not happen.
func (r *Run) WithResults(results map[BlockKey]*ConsistencyResult) (*Run, error) {
	if r.phase != PhaseAnalyzeBlocks {
		return nil, NewPhaseError(r.phase, PhaseSynthesize, ErrInvalidTransition)
	}
	for key := range results {
		if _, ok := r.blocks[key]; !ok {
			return nil, NewPhaseError(r.phase, PhaseSynthesize,
				fmt.Errorf("result for unknown block %q", key))
		}
	}
	for key := range r.blocks {
		if _, ok := results[key]; !ok {
			return nil, NewPhaseError(r.phase, PhaseSynthesize,
				fmt.Errorf("block %q has no result", key))
		}
	}
	return &Run{
		phase:   PhaseSynthesize,
		blocks:  r.blocks,
		results: maps.Clone(results),
	}, nil
}

// WithSynthesis attaches the final synthesis and moves the run to
// PhaseDone.
func (r *Run) WithSynthesis(synthesis *SynthesisResult) (*Run, error) {
	if r.phase != PhaseSynthesize {
		return nil, NewPhaseError(r.phase, PhaseDone, ErrInvalidTransition)
	}
	if synthesis == nil {
		return nil, NewPhaseError(r.phase, PhaseDone,
			fmt.Errorf("nil synthesis result"))
	}
	return &Run{
		phase:     PhaseDone,
		blocks:    r.blocks,
		results:   r.results,
		synthesis: synthesis,
	}, nil
}
