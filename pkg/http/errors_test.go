package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"BoundaryLab/internal/domain/errs"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"insufficient", errs.InsufficientData("optimize", 30, 10), http.StatusUnprocessableEntity, "ERR_INSUFFICIENT_DATA"},
		{"invalid", errs.InvalidConfiguration("max_depth", "must be positive"), http.StatusBadRequest, "ERR_INVALID_CONFIGURATION"},
		{"convergence", errs.ConvergenceFailure("kfold", 3, nil, fmt.Errorf("boom")), http.StatusInternalServerError, "ERR_CONVERGENCE_FAILURE"},
		{"wrapped", fmt.Errorf("stage: %w", errs.InsufficientData("walk_forward", 50, 2)), http.StatusUnprocessableEntity, "ERR_INSUFFICIENT_DATA"},
		{"timeout", fmt.Errorf("analysis: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, "ERR_TIMEOUT"},
		{"app error", NotFoundError("missing"), http.StatusNotFound, "ERR_NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromError(tt.err)
			if got == nil {
				t.Fatalf("FromError(%v) = nil", tt.err)
			}
			if got.Status != tt.wantStatus || got.Code != tt.wantCode {
				t.Fatalf("got %d %s, want %d %s", got.Status, got.Code, tt.wantStatus, tt.wantCode)
			}
		})
	}

	if FromError(fmt.Errorf("plain")) != nil {
		t.Fatalf("plain errors must not map")
	}
}

func TestFromErrorCarriesField(t *testing.T) {
	got := FromError(errs.InvalidConfiguration("window_count", "too many"))
	if got.Field != "window_count" {
		t.Fatalf("field = %q", got.Field)
	}
}

func TestAppErrorResponse(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	if err := AppErrorResponse(c, errs.InsufficientData("analysis", 30, 3)); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Status int `json:"status"`
		Data   []struct {
			Code   string                 `json:"code"`
			Params map[string]interface{} `json:"params"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Status != http.StatusUnprocessableEntity || len(body.Data) != 1 {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
	if body.Data[0].Params["required"] != float64(30) {
		t.Fatalf("params = %v", body.Data[0].Params)
	}
}

func TestReadAndValidateRequest(t *testing.T) {
	type req struct {
		Symbol string  `query:"symbol" validate:"required"`
		Target float64 `query:"target" default:"2" validate:"gt=0"`
	}
	tests := []struct {
		name     string
		query    string
		wantCode string
		target   float64
	}{
		{"defaults applied", "?symbol=ES", "", 2},
		{"explicit", "?symbol=ES&target=1.5", "", 1.5},
		{"missing symbol", "", "ERR_REQUIRED", 0},
		{"negative", "?symbol=ES&target=-1", "ERR_GT", 0},
	}
	e := echo.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/"+tt.query, nil), httptest.NewRecorder())
			var r req
			res := ReadAndValidateRequest(c, &r)
			if tt.wantCode == "" {
				if res != nil {
					t.Fatalf("unexpected errors %v", res)
				}
				if r.Target != tt.target {
					t.Fatalf("target = %v, want %v", r.Target, tt.target)
				}
				return
			}
			ves, ok := res.([]ValidationError)
			if !ok || len(ves) == 0 {
				t.Fatalf("want validation errors, got %v", res)
			}
			if ves[0].Code != tt.wantCode {
				t.Fatalf("code = %s, want %s", ves[0].Code, tt.wantCode)
			}
		})
	}
}
