package validate

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"

	"BoundaryLab/internal/domain/errs"
)

var v = validator.New()

// Validator returns the shared validator instance.
func Validator() *validator.Validate {
	return v
}

// Struct fills zero fields from `default` tags and checks `validate` tags.
// Failures come back as an invalid-configuration domain error listing every field.
func Struct(s interface{}) error {
	return StructCtx(context.Background(), s)
}

// StructCtx is Struct with a context for the validator.
func StructCtx(ctx context.Context, s interface{}) error {
	if err := defaults.Set(s); err != nil {
		return errs.InvalidConfiguration("", err.Error()).WithError(err)
	}
	if err := v.StructCtx(ctx, s); err != nil {
		return fromValidator(err)
	}
	return nil
}

func fromValidator(err error) error {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return errs.InvalidConfiguration("", err.Error()).WithError(err)
	}
	msgs := make([]string, 0, len(ves))
	for _, fe := range ves {
		msgs = append(msgs, Message(fe))
	}
	out := errs.InvalidConfiguration(ves[0].Field(), strings.Join(msgs, "; ")).WithError(err)
	out.WithParam("fields", len(ves))
	return out
}

// Message renders a human-readable message for a field error.
func Message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if fe.Type().Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Type().Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}

// Params returns the tag parameters of a field error keyed for API responses.
func Params(fe validator.FieldError) map[string]interface{} {
	params := make(map[string]interface{})

	switch fe.Tag() {
	case "min", "gte":
		params["min"] = fe.Param()
	case "max", "lte":
		params["max"] = fe.Param()
	case "gt", "lt":
		params["value"] = fe.Param()
	case "oneof":
		params["options"] = strings.Split(fe.Param(), " ")
	}

	return params
}
