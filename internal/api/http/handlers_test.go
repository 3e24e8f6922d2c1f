package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-saaty/infrastructure/middleware"
	"github.com/ahrav/go-saaty/infrastructure/solvers"
	"github.com/ahrav/go-saaty/infrastructure/store"
	"github.com/ahrav/go-saaty/internal/application"
	"github.com/ahrav/go-saaty/internal/domain"
)

// newTestRouter wires the full stack behind the router: a real power
// iteration solver, in-memory stores, and no metrics.
func newTestRouter(t *testing.T, cfg RouterConfig) (*gin.Engine, *store.MemoryResultStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	solver, err := solvers.NewPowerIterationSolver("eigensolver", solvers.DefaultPowerIterationConfig())
	require.NoError(t, err)

	resultStore := store.NewMemoryResultStore()
	engine, err := application.NewAnalysisEngine(solver, resultStore, store.NewMemoryCacheStore(), nil)
	require.NoError(t, err)

	handler, err := NewHandler(engine, solver, resultStore)
	require.NoError(t, err)

	health := NewHealthHandler("ahp-test", "0.0.0", nil)
	return BuildRouter(cfg, handler, health), resultStore
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "192.0.2.10:40000"
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

// vehicleBody builds a three-criterion, two-alternative request whose
// weights work out exactly: criteria 4/7, 2/7, 1/7 and final scores
// sedan 4/7, suv 3/7.
func vehicleBody() AnalyzeRequest {
	return AnalyzeRequest{
		Goal:         "choose a vehicle",
		Criteria:     []string{"price", "safety", "comfort"},
		Alternatives: []string{"sedan", "suv"},
		Judgments: map[domain.BlockKey][]domain.Judgments{
			domain.GoalKey: {{
				"price vs safety":   2,
				"price vs comfort":  4,
				"safety vs comfort": 2,
			}},
			"price":   {{"sedan vs suv": 3}},
			"safety":  {{"sedan vs suv": 1.0 / 3.0}},
			"comfort": {{"sedan vs suv": 1}},
		},
	}
}

func uniformMatrix(n int) [][]float64 {
	cells := make([][]float64, n)
	for i := range cells {
		row := make([]float64, n)
		for j := range row {
			row[j] = 1
		}
		cells[i] = row
	}
	return cells
}

func TestAnalyze_FullHierarchy(t *testing.T) {
	router, _ := newTestRouter(t, RouterConfig{ServiceName: "ahp-test", Version: "0.0.0"})

	rr := doJSON(t, router, http.MethodPost, "/api/v1/ahp/analyze", vehicleBody())
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var report domain.Report
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &report))

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, "choose a vehicle", report.Goal)
	assert.Equal(t, "eigensolver", report.Solver)

	require.NotNil(t, report.CriteriaAnalysis)
	assert.InDelta(t, 4.0/7.0, report.CriteriaAnalysis.Weights["price"], 1e-6)
	assert.InDelta(t, 2.0/7.0, report.CriteriaAnalysis.Weights["safety"], 1e-6)
	assert.InDelta(t, 1.0/7.0, report.CriteriaAnalysis.Weights["comfort"], 1e-6)
	assert.True(t, report.CriteriaAnalysis.IsConsistent)

	require.Len(t, report.FinalScores, 2)
	assert.Equal(t, []string{"sedan", "suv"}, report.Ranking)
	assert.InDelta(t, 4.0/7.0, report.FinalScores[0].Score, 1e-6)
	assert.InDelta(t, 3.0/7.0, report.FinalScores[1].Score, 1e-6)

	// The persisted run is retrievable through the API.
	got := doJSON(t, router, http.MethodGet, "/api/v1/ahp/runs/"+report.ID, nil)
	require.Equal(t, http.StatusOK, got.Code)

	var stored domain.Report
	require.NoError(t, json.Unmarshal(got.Body.Bytes(), &stored))
	assert.Equal(t, report.ID, stored.ID)
	assert.Equal(t, report.Ranking, stored.Ranking)
}

func TestAnalyze_CriteriaOnly(t *testing.T) {
	router, _ := newTestRouter(t, RouterConfig{})

	body := AnalyzeRequest{
		Goal:     "prioritize initiatives",
		Criteria: []string{"cost", "reliability"},
		Judgments: map[domain.BlockKey][]domain.Judgments{
			domain.GoalKey: {{"cost vs reliability": 3}},
		},
	}

	rr := doJSON(t, router, http.MethodPost, "/api/v1/ahp/analyze", body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var report domain.Report
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &report))

	assert.Equal(t, []string{"cost", "reliability"}, report.Ranking)
	assert.InDelta(t, 0.75, report.FinalScores[0].Score, 1e-6)
	assert.InDelta(t, 0.25, report.FinalScores[1].Score, 1e-6)
	assert.Nil(t, report.AlternativesByCriterion)
}

func TestAnalyze_MalformedJSON(t *testing.T) {
	router, _ := newTestRouter(t, RouterConfig{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ahp/analyze", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "invalid request body", resp.Error)
}

func TestAnalyze_ValidationErrorsAccumulate(t *testing.T) {
	router, _ := newTestRouter(t, RouterConfig{})

	body := AnalyzeRequest{
		Goal:     "   ",
		Criteria: []string{"lonely"},
	}

	rr := doJSON(t, router, http.MethodPost, "/api/v1/ahp/analyze", body)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "invalid analysis request", resp.Error)
	assert.Len(t, resp.Details, 3, "blank goal, short criteria, and missing data should all be reported")
	assert.NotEmpty(t, resp.RequestID, "error responses should carry the request ID")
}

func TestAnalyze_JudgmentOutOfScale(t *testing.T) {
	router, _ := newTestRouter(t, RouterConfig{})

	body := AnalyzeRequest{
		Goal:     "choose",
		Criteria: []string{"a", "b"},
		Judgments: map[domain.BlockKey][]domain.Judgments{
			domain.GoalKey: {{"a vs b": 12}},
		},
	}

	rr := doJSON(t, router, http.MethodPost, "/api/v1/ahp/analyze", body)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "judgment out of scale range")
}

func TestAnalyze_OrderBeyondRandomIndex(t *testing.T) {
	router, _ := newTestRouter(t, RouterConfig{})

	criteria := make([]string, 11)
	for i := range criteria {
		criteria[i] = string(rune('a' + i))
	}
	body := AnalyzeRequest{
		Goal:     "too wide",
		Criteria: criteria,
		Matrices: map[domain.BlockKey][][]float64{
			domain.GoalKey: uniformMatrix(11),
		},
	}

	rr := doJSON(t, router, http.MethodPost, "/api/v1/ahp/analyze", body)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "no random index for matrix order")
}

func TestAnalyze_InconsistentJudgmentsStillSucceed(t *testing.T) {
	router, _ := newTestRouter(t, RouterConfig{})

	body := AnalyzeRequest{
		Goal:     "cyclic",
		Criteria: []string{"a", "b", "c"},
		Judgments: map[domain.BlockKey][]domain.Judgments{
			domain.GoalKey: {{
				"a vs b": 9,
				"b vs c": 9,
				"c vs a": 9,
			}},
		},
	}

	rr := doJSON(t, router, http.MethodPost, "/api/v1/ahp/analyze", body)
	require.Equal(t, http.StatusOK, rr.Code, "inconsistency is a finding, not an error")

	var report domain.Report
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &report))
	assert.False(t, report.CriteriaAnalysis.IsConsistent)
	assert.GreaterOrEqual(t, report.CriteriaAnalysis.ConsistencyRatio, domain.ConsistencyThreshold)
}

func TestAnalyzeMatrix_Valid(t *testing.T) {
	router, _ := newTestRouter(t, RouterConfig{})

	body := MatrixRequest{
		Items:  []string{"price", "quality"},
		Matrix: [][]float64{{1, 5}, {0.2, 1}},
	}

	rr := doJSON(t, router, http.MethodPost, "/api/v1/ahp/matrix", body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp MatrixResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	assert.Equal(t, []string{"price", "quality"}, resp.Items)
	assert.InDelta(t, 5.0/6.0, resp.Weights["price"], 1e-6)
	assert.InDelta(t, 1.0/6.0, resp.Weights["quality"], 1e-6)
	assert.InDelta(t, 2.0, resp.LambdaMax, 1e-6)
	assert.InDelta(t, 0.0, resp.ConsistencyRatio, 1e-9)
	assert.True(t, resp.IsConsistent)
	assert.Equal(t, "eigensolver", resp.Solver)
}

func TestAnalyzeMatrix_BadInput(t *testing.T) {
	router, _ := newTestRouter(t, RouterConfig{})

	tests := []struct {
		name          string
		body          MatrixRequest
		expectedError string
	}{
		{
			name:          "no items",
			body:          MatrixRequest{Matrix: [][]float64{{1}}},
			expectedError: "too few items",
		},
		{
			name: "duplicate items",
			body: MatrixRequest{
				Items:  []string{"a", "a"},
				Matrix: [][]float64{{1, 1}, {1, 1}},
			},
			expectedError: "duplicate item name",
		},
		{
			name: "non-square matrix",
			body: MatrixRequest{
				Items:  []string{"a", "b"},
				Matrix: [][]float64{{1, 2}, {0.5}},
			},
			expectedError: "not square",
		},
		{
			name: "order does not match items",
			body: MatrixRequest{
				Items:  []string{"a", "b", "c"},
				Matrix: [][]float64{{1, 2}, {0.5, 1}},
			},
			expectedError: "want 3 items",
		},
		{
			name: "bad diagonal",
			body: MatrixRequest{
				Items:  []string{"a", "b"},
				Matrix: [][]float64{{2, 2}, {0.5, 1}},
			},
			expectedError: "diagonal",
		},
		{
			name: "non-positive entry",
			body: MatrixRequest{
				Items:  []string{"a", "b"},
				Matrix: [][]float64{{1, -3}, {0.5, 1}},
			},
			expectedError: "positive",
		},
		{
			name: "order beyond the random index table",
			body: MatrixRequest{
				Items: []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"},
				Matrix: func() [][]float64 {
					return uniformMatrix(11)
				}(),
			},
			expectedError: "no random index for matrix order",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(t, router, http.MethodPost, "/api/v1/ahp/matrix", tt.body)
			require.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Contains(t, resp.Error, tt.expectedError)
		})
	}
}

func TestGetRun_NotFound(t *testing.T) {
	router, _ := newTestRouter(t, RouterConfig{})

	rr := doJSON(t, router, http.MethodGet, "/api/v1/ahp/runs/does-not-exist", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "run not found", resp.Error)
}

func TestNewHandler_Validation(t *testing.T) {
	solver, err := solvers.NewPowerIterationSolver("eigensolver", solvers.DefaultPowerIterationConfig())
	require.NoError(t, err)

	engine, err := application.NewAnalysisEngine(solver, nil, nil, nil)
	require.NoError(t, err)

	t.Run("nil engine", func(t *testing.T) {
		_, err := NewHandler(nil, solver, nil)
		assert.ErrorContains(t, err, "engine cannot be nil")
	})

	t.Run("nil analyzer", func(t *testing.T) {
		_, err := NewHandler(engine, nil, nil)
		assert.ErrorContains(t, err, "analyzer cannot be nil")
	})

	t.Run("nil store is allowed", func(t *testing.T) {
		h, err := NewHandler(engine, solver, nil)
		require.NoError(t, err)
		assert.NotNil(t, h)
	})
}

func TestRespondEngineError_StatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	verr := domain.NewValidationError("analysis request")
	verr.AddError("goal must not be blank")
	verr.AddError("criteria: too few items")

	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedError  string
		expectedDetail int
	}{
		{
			name:           "validation error carries details",
			err:            verr,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid analysis request",
			expectedDetail: 2,
		},
		{
			name:           "wrapped scale violation is client error",
			err:            domain.NewAnalysisError("goal", "collect", domain.ErrJudgmentOutOfRange),
			expectedStatus: http.StatusBadRequest,
			expectedError:  "judgment out of scale range",
		},
		{
			name:           "uncovered matrix order is client error",
			err:            domain.NewAnalysisError("goal", "consistency", domain.ErrOrderOutOfRange),
			expectedStatus: http.StatusBadRequest,
			expectedError:  "no random index",
		},
		{
			name:           "non-convergence is unprocessable",
			err:            domain.NewAnalysisError("price", "consistency", solvers.ErrNoConvergence),
			expectedStatus: http.StatusUnprocessableEntity,
			expectedError:  "did not converge",
		},
		{
			name:           "unknown failure is a server error",
			err:            errors.New("backend exploded"),
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "analysis failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rr)
			c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/ahp/analyze", nil)

			respondEngineError(c, tt.err)

			require.Equal(t, tt.expectedStatus, rr.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Contains(t, resp.Error, tt.expectedError)
			assert.Len(t, resp.Details, tt.expectedDetail)
		})
	}
}

func TestRouter_RequestIDHeader(t *testing.T) {
	router, _ := newTestRouter(t, RouterConfig{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(middleware.RequestIDHeader, "trace-me-42")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, "trace-me-42", rr.Header().Get(middleware.RequestIDHeader))
}

func TestRouter_RateLimit(t *testing.T) {
	router, _ := newTestRouter(t, RouterConfig{RateLimitRPS: 1, RateLimitBurst: 1})

	first := doJSON(t, router, http.MethodGet, "/api/v1/ahp/runs/whatever", nil)
	require.Equal(t, http.StatusNotFound, first.Code, "first request should reach the handler")

	second := doJSON(t, router, http.MethodGet, "/api/v1/ahp/runs/whatever", nil)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestRouter_RateLimitSparesHealth(t *testing.T) {
	router, _ := newTestRouter(t, RouterConfig{RateLimitRPS: 1, RateLimitBurst: 1})

	for i := 0; i < 3; i++ {
		rr := doJSON(t, router, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusOK, rr.Code, "health probes must not be rate limited")
	}
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, RouterConfig{})

	rr := doJSON(t, router, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "# HELP")
}

func TestRouter_CORSPreflight(t *testing.T) {
	router, _ := newTestRouter(t, RouterConfig{})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/ahp/analyze", nil)
	req.Header.Set("Origin", "https://surveys.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}
