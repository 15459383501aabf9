package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies domain failures. Strategy abstention is not a Kind: an empty
// boundary list is a valid result.
type Kind string

const (
	KindInsufficientData     Kind = "insufficient_data"
	KindInvalidConfiguration Kind = "invalid_configuration"
	KindConvergenceFailure   Kind = "convergence_failure"
)

// Sentinels for errors.Is. Any *Error of the same Kind matches.
var (
	ErrInsufficientData     = &Error{Kind: KindInsufficientData}
	ErrInvalidConfiguration = &Error{Kind: KindInvalidConfiguration}
	ErrConvergenceFailure   = &Error{Kind: KindConvergenceFailure}
)

// Error is the domain error returned by strategies, services and usecases.
type Error struct {
	Kind    Kind                   `json:"kind"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Hints   []string               `json:"hints,omitempty"`
	Err     error                  `json:"-"`
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind so callers can test against the sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// WithParam sets a single param.
func (e *Error) WithParam(key string, value interface{}) *Error {
	if e.Params == nil {
		e.Params = make(map[string]interface{})
	}
	e.Params[key] = value
	return e
}

// WithHint appends a remediation hint.
func (e *Error) WithHint(hint string) *Error {
	e.Hints = append(e.Hints, hint)
	return e
}

// WithError wraps an underlying error.
func (e *Error) WithError(err error) *Error {
	e.Err = err
	return e
}

// InsufficientData reports that op needs at least required samples but got actual.
func InsufficientData(op string, required, actual int) *Error {
	e := &Error{
		Kind:    KindInsufficientData,
		Code:    "ERR_INSUFFICIENT_DATA",
		Message: fmt.Sprintf("%s: insufficient samples: got %d, need at least %d", op, actual, required),
	}
	return e.WithParam("operation", op).
		WithParam("required", required).
		WithParam("actual", actual).
		WithHint("widen the time range or lower the minimum sample settings")
}

// InvalidConfiguration reports an out-of-range parameter.
func InvalidConfiguration(field, msg string) *Error {
	e := &Error{
		Kind:    KindInvalidConfiguration,
		Code:    "ERR_INVALID_CONFIGURATION",
		Message: fmt.Sprintf("invalid configuration: %s", msg),
	}
	if field != "" {
		e.Message = fmt.Sprintf("invalid configuration %s: %s", field, msg)
		e.WithParam("field", field)
	}
	return e
}

// InvalidConfigurationf is InvalidConfiguration with formatting.
func InvalidConfigurationf(field, format string, a ...interface{}) *Error {
	return InvalidConfiguration(field, fmt.Sprintf(format, a...))
}

// ConvergenceFailure wraps a failure of strategy after iterations steps. history holds
// the per-step error or score messages collected before giving up.
func ConvergenceFailure(strategy string, iterations int, history []string, cause error) *Error {
	e := &Error{
		Kind:    KindConvergenceFailure,
		Code:    "ERR_CONVERGENCE_FAILURE",
		Message: fmt.Sprintf("%s failed to converge after %d iterations", strategy, iterations),
		Err:     cause,
	}
	e.WithParam("strategy", strategy).WithParam("iterations", iterations)
	if len(history) > 0 {
		e.WithParam("history", strings.Join(history, "; "))
	}
	return e.WithHint("increase max_iterations or relax convergence_threshold").
		WithHint("check the training data for constant or sparse measurements")
}

// KindOf returns the Kind of the first *Error in err's chain, or "" when none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsDomain reports whether err carries a domain Kind.
func IsDomain(err error) bool {
	return KindOf(err) != ""
}
