package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"BoundaryLab/internal/domain/errs"
	"BoundaryLab/internal/domain/models"
	"BoundaryLab/internal/usecase"
)

type fakeAnalyzer struct {
	analyze  usecase.AnalyzeParams
	backtest usecase.BacktestParams
	err      error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, p usecase.AnalyzeParams) (*models.AnalysisReport, error) {
	f.analyze = p
	if f.err != nil {
		return nil, f.err
	}
	return &models.AnalysisReport{ID: "run-1", Symbol: p.Symbol, TargetATRMove: p.TargetATR}, nil
}

func (f *fakeAnalyzer) Backtest(_ context.Context, p usecase.BacktestParams) (*models.BacktestResult, error) {
	f.backtest = p
	if f.err != nil {
		return nil, f.err
	}
	return &models.BacktestResult{TotalTrades: 4, WinningTrades: 3, HitRate: 0.75}, nil
}

func (f *fakeAnalyzer) Windows(period models.Period, count int) ([]models.WalkForwardWindow, error) {
	out := make([]models.WalkForwardWindow, count)
	for i := range out {
		out[i] = models.WalkForwardWindow{Index: i, InSamplePeriod: period}
	}
	return out, nil
}

type fakeHealth struct{ err error }

func (f fakeHealth) Health(context.Context) error { return f.err }

func newServer(a Analyzer, h HealthChecker) *echo.Echo {
	e := echo.New()
	NewAnalysisEchoHandler(nil, a, h, 24*time.Hour).RegisterRoutes(e)
	return e
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAnalysisEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		err        error
		wantStatus int
	}{
		{"query defaults", http.MethodGet, "/api/analysis?symbol=ES", "", nil, http.StatusOK},
		{"json body", http.MethodPost, "/api/analysis", `{"symbol":"ES","target_atr":1.5,"validation":"kfold"}`, nil, http.StatusOK},
		{"missing symbol", http.MethodGet, "/api/analysis", "", nil, http.StatusBadRequest},
		{"unknown validation", http.MethodGet, "/api/analysis?symbol=ES&validation=shuffle", "", nil, http.StatusBadRequest},
		{"inverted range", http.MethodGet, "/api/analysis?symbol=ES&from=2024-02-01T00:00:00Z&to=2024-01-01T00:00:00Z", "", nil, http.StatusBadRequest},
		{"insufficient data", http.MethodGet, "/api/analysis?symbol=ES", "", errs.InsufficientData("analysis", 30, 4), http.StatusUnprocessableEntity},
		{"invalid config", http.MethodGet, "/api/analysis?symbol=ES", "", errs.InvalidConfiguration("window_count", "too many"), http.StatusBadRequest},
		{"store down", http.MethodGet, "/api/analysis?symbol=ES", "", errors.New("dial tcp: refused"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fa := &fakeAnalyzer{err: tt.err}
			rec := do(newServer(fa, nil), tt.method, tt.target, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestAnalysisEndpointPassesParams(t *testing.T) {
	fa := &fakeAnalyzer{}
	rec := do(newServer(fa, nil), http.MethodPost, "/api/analysis",
		`{"symbol":"NQ","from":"2024-01-01T00:00:00Z","to":"2024-01-31T00:00:00Z","target_atr":1.5,"validation":"rolling_window","windows":8}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	p := fa.analyze
	if p.Symbol != "NQ" || p.TargetATR != 1.5 || p.Validation != models.ValidationRollingWindow || p.Windows != 8 || p.Limit != 5000 {
		t.Fatalf("params = %+v", p)
	}
	if !p.From.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("from = %v", p.From)
	}
}

func TestWindowsEndpoint(t *testing.T) {
	rec := do(newServer(&fakeAnalyzer{}, nil), http.MethodGet,
		"/api/walk-forward/windows?from=2024-01-02T09:00:00Z&to=2024-01-02T15:00:00Z&count=3", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Data struct {
			Rows  []models.WalkForwardWindow `json:"rows"`
			Total int64                      `json:"total"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Data.Total != 3 || len(body.Data.Rows) != 3 {
		t.Fatalf("body = %s", rec.Body.String())
	}

	if rec := do(newServer(&fakeAnalyzer{}, nil), http.MethodGet, "/api/walk-forward/windows?count=3", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing range: status = %d", rec.Code)
	}
}

func TestBacktestEndpoint(t *testing.T) {
	fa := &fakeAnalyzer{}
	e := newServer(fa, nil)

	rec := do(e, http.MethodPost, "/api/backtest",
		`{"symbol":"ES","boundaries":[{"range_low":60,"range_high":75,"expected_atr_move":3}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if len(fa.backtest.Boundaries) != 1 || fa.backtest.TargetATR != 2 {
		t.Fatalf("params = %+v", fa.backtest)
	}

	if rec := do(e, http.MethodPost, "/api/backtest", `{"symbol":"ES","boundaries":[]}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty boundaries: status = %d", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	if rec := do(newServer(&fakeAnalyzer{}, fakeHealth{}), http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthy: status = %d", rec.Code)
	}
	if rec := do(newServer(&fakeAnalyzer{}, fakeHealth{err: errors.New("down")}), http.MethodGet, "/health", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("unhealthy: status = %d", rec.Code)
	}
}
