// Package http exposes the analysis engine over a REST surface: full
// hierarchy analysis, single-matrix consistency checks, and stored run
// retrieval.
package http

import (
	"github.com/ahrav/go-saaty/internal/application"
	"github.com/ahrav/go-saaty/internal/domain"
)

// AnalyzeRequest is the request body for a full hierarchy analysis.
// Judgments hold one map per respondent per block; matrices carry
// pre-aggregated comparison data and win over judgments for the same
// block. Shape problems are reported together in one 400 response.
type AnalyzeRequest struct {
	Goal         string                                 `json:"goal"`
	Criteria     []string                               `json:"criteria"`
	Alternatives []string                               `json:"alternatives,omitempty"`
	Judgments    map[domain.BlockKey][]domain.Judgments `json:"judgments,omitempty"`
	Matrices     map[domain.BlockKey][][]float64        `json:"matrices,omitempty"`
}

func (r *AnalyzeRequest) toApplication() *application.AnalysisRequest {
	return &application.AnalysisRequest{
		Goal:         r.Goal,
		Criteria:     r.Criteria,
		Alternatives: r.Alternatives,
		Judgments:    r.Judgments,
		Matrices:     r.Matrices,
	}
}

// MatrixRequest is the request body for a standalone consistency check
// of one pairwise matrix. Items name the compared entities in matrix
// order.
type MatrixRequest struct {
	Items  []string    `json:"items"`
	Matrix [][]float64 `json:"matrix"`
}

// MatrixResponse reports the derived priorities and consistency
// diagnostics for one matrix.
type MatrixResponse struct {
	Items            []string           `json:"items"`
	Weights          map[string]float64 `json:"weights"`
	PriorityVector   []float64          `json:"priority_vector"`
	LambdaMax        float64            `json:"lambda_max"`
	ConsistencyIndex float64            `json:"consistency_index"`
	ConsistencyRatio float64            `json:"consistency_ratio"`
	IsConsistent     bool               `json:"is_consistent"`
	Solver           string             `json:"solver"`
}

// ErrorResponse is the uniform error body. Details carries the
// accumulated messages of a validation failure; RequestID ties the
// response to server logs.
type ErrorResponse struct {
	Error     string   `json:"error"`
	Details   []string `json:"details,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}
