package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"example.com/ewm/internal/apperr"
)

// FieldError represents a single field's validation error.
type FieldError struct {
	Field string `json:"field"`
	Msg   string `json:"message"`
	Value any    `json:"value,omitempty"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("Field: %s. Error: %s. Value: %v", e.Field, e.Msg, e.Value)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json names, not Go names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// FieldErrors runs the struct-tag rules on v.
func FieldErrors(v any) []FieldError {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "body", Msg: err.Error()}}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Msg: describe(fe), Value: fe.Value()})
	}
	return out
}

// Validate returns a validation error listing every violated rule, or nil.
func Validate(v any) error {
	fes := FieldErrors(v)
	if len(fes) == 0 {
		return nil
	}
	details := make([]string, 0, len(fes))
	for _, fe := range fes {
		details = append(details, fe.Error())
	}
	return apperr.WithDetails(details[0], details)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be null"
	case "notblank":
		return "must not be blank"
	case "min":
		return "length must be at least " + fe.Param()
	case "max":
		return "length must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "email":
		return "must be a well-formed email address"
	case "oneof":
		return "must be one of [" + fe.Param() + "]"
	default:
		return "failed rule " + fe.Tag()
	}
}
