package api

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"cloudbill/internal/report"
)

// CustomValidator adapts go-playground/validator to echo's Validator
// interface. Tag failures are reported per JSON field so body validation
// responses carry the same shape as query-parameter validation.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new custom validator
func NewValidator() *CustomValidator {
	v := validator.New()

	// Report fields by their JSON name, not the Go field name.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &CustomValidator{
		validator: v,
	}
}

// RequestBodyError carries the per-field failures of an invalid request body.
type RequestBodyError struct {
	Result *report.ValidationResult
}

// Error implements the error interface
func (e *RequestBodyError) Error() string {
	fields := make([]string, len(e.Result.Errors))
	for i, fieldErr := range e.Result.Errors {
		fields[i] = fieldErr.Field
	}
	return fmt.Sprintf("invalid request body: %s", strings.Join(fields, ", "))
}

// Validate validates a struct, mapping tag failures to a *RequestBodyError.
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	result := &report.ValidationResult{}
	for _, fe := range fieldErrs {
		result.AddError(fe.Field(), validationMessage(fe))
	}

	return &RequestBodyError{Result: result}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("must satisfy %s", fe.Tag())
	}
}
