package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ahrav/go-saaty/infrastructure/middleware"
	"github.com/ahrav/go-saaty/internal/application"
	"github.com/ahrav/go-saaty/internal/domain"
	"github.com/ahrav/go-saaty/internal/ports"
)

// Handler handles HTTP requests for analysis runs.
type Handler struct {
	engine   *application.AnalysisEngine
	analyzer ports.ConsistencyAnalyzer
	store    ports.ResultStore
}

// NewHandler creates a Handler. The engine serves full hierarchy
// analyses, the analyzer serves standalone matrix checks, and the store
// serves run retrieval. The store may be nil when persistence is
// disabled; run lookups then answer 404.
func NewHandler(
	engine *application.AnalysisEngine,
	analyzer ports.ConsistencyAnalyzer,
	store ports.ResultStore,
) (*Handler, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if analyzer == nil {
		return nil, fmt.Errorf("analyzer cannot be nil")
	}
	return &Handler{engine: engine, analyzer: analyzer, store: store}, nil
}

// Register registers the analysis routes on the given group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/analyze", h.Analyze)
	rg.POST("/matrix", h.AnalyzeMatrix)
	rg.GET("/runs/:id", h.GetRun)
}

// Analyze runs a full hierarchy analysis and returns the report.
func (h *Handler) Analyze(c *gin.Context) {
	var body AnalyzeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	report, err := h.engine.Evaluate(c.Request.Context(), body.toApplication())
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// AnalyzeMatrix checks the consistency of a single pairwise matrix
// without building a hierarchy or persisting anything.
func (h *Handler) AnalyzeMatrix(c *gin.Context) {
	var body MatrixRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	if err := domain.ValidateItems(body.Items); err != nil {
		respondError(c, http.StatusBadRequest, fmt.Sprintf("items: %v", err), nil)
		return
	}

	matrix, err := domain.NewPairwiseMatrix(body.Matrix)
	if err != nil {
		respondError(c, http.StatusBadRequest, fmt.Sprintf("matrix: %v", err), nil)
		return
	}
	if matrix.Order() != len(body.Items) {
		respondError(c, http.StatusBadRequest, fmt.Sprintf(
			"matrix: %v: matrix order %d, want %d items",
			domain.ErrDimensionMismatch, matrix.Order(), len(body.Items)), nil)
		return
	}

	result, err := h.analyzer.Analyze(c.Request.Context(), matrix)
	if err != nil {
		// Attach a block key so the shared mapping distinguishes bad
		// input from numerical failure.
		respondEngineError(c, domain.NewAnalysisError("matrix", "consistency", err))
		return
	}

	weights := make(map[string]float64, len(body.Items))
	for i, name := range body.Items {
		weights[name] = result.PriorityVector[i]
	}

	c.JSON(http.StatusOK, MatrixResponse{
		Items:            body.Items,
		Weights:          weights,
		PriorityVector:   result.PriorityVector,
		LambdaMax:        result.LambdaMax,
		ConsistencyIndex: result.ConsistencyIndex,
		ConsistencyRatio: result.ConsistencyRatio,
		IsConsistent:     result.IsConsistent,
		Solver:           h.analyzer.Name(),
	})
}

// GetRun retrieves a stored analysis run by ID.
func (h *Handler) GetRun(c *gin.Context) {
	if h.store == nil {
		respondError(c, http.StatusNotFound, "run not found", nil)
		return
	}

	report, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ports.ErrReportNotFound) {
			respondError(c, http.StatusNotFound, "run not found", nil)
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to get run", nil)
		return
	}

	c.JSON(http.StatusOK, report)
}

// respondEngineError maps analysis errors to HTTP statuses: request
// shape and judgment-scale problems are the client's to fix (400), a
// block whose matrix defeats the solver is semantically unprocessable
// (422), and everything else is a server fault (500).
func respondEngineError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		respondError(c, http.StatusBadRequest, "invalid analysis request", verr.Errors)
		return
	}

	if isBadInput(err) {
		respondError(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	var aerr *domain.AnalysisError
	if errors.As(err, &aerr) {
		respondError(c, http.StatusUnprocessableEntity, err.Error(), nil)
		return
	}

	respondError(c, http.StatusInternalServerError, "analysis failed", nil)
}

// isBadInput reports whether err wraps one of the domain sentinels that
// indicate malformed survey input rather than an engine fault.
func isBadInput(err error) bool {
	for _, sentinel := range []error{
		domain.ErrTooFewItems,
		domain.ErrEmptyItemName,
		domain.ErrDuplicateItemName,
		domain.ErrJudgmentOutOfRange,
		domain.ErrDimensionMismatch,
		domain.ErrNotSquare,
		domain.ErrNonPositiveEntry,
		domain.ErrBadDiagonal,
		domain.ErrTooFewRespondents,
		domain.ErrOrderOutOfRange,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func respondError(c *gin.Context, status int, message string, details []string) {
	c.JSON(status, ErrorResponse{
		Error:     message,
		Details:   details,
		RequestID: middleware.GetRequestID(c.Request.Context()),
	})
}
