package errs

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorIsByKind(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"insufficient", InsufficientData("kfold", 50, 10), ErrInsufficientData, true},
		{"invalid", InvalidConfiguration("k_folds", "must be >= 2"), ErrInvalidConfiguration, true},
		{"convergence", ConvergenceFailure("gradient_search", 10, nil, nil), ErrConvergenceFailure, true},
		{"wrapped", fmt.Errorf("optimize: %w", InsufficientData("optimize", 30, 3)), ErrInsufficientData, true},
		{"different kind", InsufficientData("kfold", 50, 10), ErrConvergenceFailure, false},
		{"plain error", errors.New("boom"), ErrInsufficientData, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.want {
				t.Errorf("errors.Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInsufficientDataCarriesCounts(t *testing.T) {
	err := InsufficientData("expanding_window", 50, 12)
	if err.Params["required"] != 50 || err.Params["actual"] != 12 {
		t.Fatalf("params = %v", err.Params)
	}
	if !strings.Contains(err.Error(), "got 12, need at least 50") {
		t.Errorf("message = %q", err.Error())
	}
	if len(err.Hints) == 0 {
		t.Error("expected a remediation hint")
	}
}

func TestConvergenceFailureUnwraps(t *testing.T) {
	cause := errors.New("nan score")
	err := ConvergenceFailure("clustering", 7, []string{"fold 0: nan score"}, cause)
	if !errors.Is(err, cause) {
		t.Error("expected cause in chain")
	}
	if KindOf(err) != KindConvergenceFailure {
		t.Errorf("KindOf = %q", KindOf(err))
	}
	if err.Params["history"] != "fold 0: nan score" {
		t.Errorf("history = %v", err.Params["history"])
	}
	if IsDomain(cause) {
		t.Error("plain error reported as domain error")
	}
}
