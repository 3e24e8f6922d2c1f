package domain

import (
	"errors"
	"fmt"
)

// Common domain errors that can occur while building, aggregating, or
// analyzing pairwise-comparison matrices.
var (
	// ErrTooFewItems indicates that a comparison block has fewer items
	// than the operation requires.
	ErrTooFewItems = errors.New("too few items")

	// ErrEmptyItemName indicates that an item name is blank.
	ErrEmptyItemName = errors.New("empty item name")

	// ErrDuplicateItemName indicates that two items in the same block
	// share a name, which would make judgment keys ambiguous.
	ErrDuplicateItemName = errors.New("duplicate item name")

	// ErrJudgmentOutOfRange indicates that a judgment magnitude falls
	// outside the permitted comparison scale.
	ErrJudgmentOutOfRange = errors.New("judgment out of scale range")

	// ErrNoMatrices indicates that aggregation was requested with no
	// input matrices. Callers treat this as "block not answered" and
	// skip the block rather than failing the run.
	ErrNoMatrices = errors.New("no matrices to aggregate")

	// ErrDimensionMismatch indicates that matrices of different orders
	// were combined in one operation.
	ErrDimensionMismatch = errors.New("matrix dimension mismatch")

	// ErrNotSquare indicates that a matrix has unequal row lengths or a
	// row count that differs from its column count.
	ErrNotSquare = errors.New("matrix is not square")

	// ErrNonPositiveEntry indicates that a matrix entry is zero,
	// negative, or not a finite number.
	ErrNonPositiveEntry = errors.New("matrix entry is not a positive finite number")

	// ErrBadDiagonal indicates that a matrix diagonal entry deviates
	// from the required unit value.
	ErrBadDiagonal = errors.New("matrix diagonal entry is not 1")

	// ErrTooFewRespondents indicates that an operation needs more
	// respondents than the block received.
	ErrTooFewRespondents = errors.New("too few respondents")

	// ErrOrderOutOfRange indicates that no random-index value is defined
	// for the requested matrix order. This is a configuration problem,
	// not bad survey data, and fails the run immediately.
	ErrOrderOutOfRange = errors.New("no random index for matrix order")

	// ErrInvalidTransition indicates that a run-phase transition was
	// attempted out of order.
	ErrInvalidTransition = errors.New("invalid phase transition")
)

// PhaseError represents an error that occurred while advancing an
// analysis run through its phases. It provides context about which
// transition was attempted.
type PhaseError struct {
	// From is the phase the run was in when the transition was attempted.
	From Phase

	// To is the phase the transition targeted.
	To Phase

	// Err is the underlying error that caused the transition to fail.
	Err error
}

// Error implements the error interface for PhaseError.
func (e *PhaseError) Error() string {
	return fmt.Sprintf("phase error: from=%s, to=%s, err=%v", e.From, e.To, e.Err)
}

// Unwrap returns the underlying error, supporting Go 1.13+ error unwrapping.
func (e *PhaseError) Unwrap() error { return e.Err }

// NewPhaseError creates a new PhaseError with the given details.
func NewPhaseError(from, to Phase, err error) *PhaseError {
	return &PhaseError{
		From: from,
		To:   to,
		Err:  err,
	}
}

// ValidationError represents an error that occurred during validation.
// It can contain multiple validation failures.
type ValidationError struct {
	// Entity is the name of the entity that failed validation.
	Entity string

	// Errors contains the list of validation error messages.
	Errors []string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error for %s: %s", e.Entity, e.Errors[0])
	}
	return fmt.Sprintf("validation errors for %s: %v", e.Entity, e.Errors)
}

// AddError adds a new error message to the validation error.
func (e *ValidationError) AddError(msg string) { e.Errors = append(e.Errors, msg) }

// HasErrors returns true if there are any validation errors.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// NewValidationError creates a new ValidationError for the given entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{
		Entity: entity,
		Errors: make([]string, 0),
	}
}

// AnalysisError represents a numerical failure while analyzing one
// comparison block. It identifies the block so a multi-block run can
// report exactly which comparison could not be solved.
type AnalysisError struct {
	// Block is the key of the comparison block whose analysis failed.
	Block BlockKey

	// Stage describes what was being computed when the failure occurred.
	Stage string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for AnalysisError.
func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis error: block=%s, stage=%s, err=%v", e.Block, e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *AnalysisError) Unwrap() error { return e.Err }

// NewAnalysisError creates a new AnalysisError with the given details.
func NewAnalysisError(block BlockKey, stage string, err error) *AnalysisError {
	return &AnalysisError{
		Block: block,
		Stage: stage,
		Err:   err,
	}
}
