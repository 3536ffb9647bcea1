package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"cloudbill/internal/accounting"
	"cloudbill/internal/report"
)

// ErrorResponse represents a standard API error response
type ErrorResponse struct {
	Error   string                   `json:"error"`
	Message string                   `json:"message,omitempty"`
	Details []map[string]interface{} `json:"details,omitempty"`
}

// NewErrorResponse creates a new error response
func NewErrorResponse(error, message string) *ErrorResponse {
	return &ErrorResponse{
		Error:   error,
		Message: message,
	}
}

// WithDetails adds details to an error response
func (e *ErrorResponse) WithDetails(details []map[string]interface{}) *ErrorResponse {
	e.Details = details
	return e
}

// ErrorBadRequest returns a 400 Bad Request error
func ErrorBadRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", message))
}

// ErrorNotFound returns a 404 Not Found error
func ErrorNotFound(c echo.Context, message string) error {
	return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", message))
}

// ErrorConflict returns a 409 Conflict error
func ErrorConflict(c echo.Context, message string) error {
	return c.JSON(http.StatusConflict, NewErrorResponse("conflict", message))
}

// ErrorValidation returns a 422 Unprocessable Entity error with per-field details
func ErrorValidation(c echo.Context, result *report.ValidationResult) error {
	details := make([]map[string]interface{}, len(result.Errors))
	for i, err := range result.Errors {
		details[i] = map[string]interface{}{
			"field":   err.Field,
			"message": err.Message,
		}
	}

	return c.JSON(http.StatusUnprocessableEntity, NewErrorResponse(
		"validation_failed",
		"Request validation failed",
	).WithDetails(details))
}

// ErrorBody maps a request body validation failure to a response. Tag
// failures become the per-field validation_failed shape; anything else from
// the validator is a plain bad request.
func ErrorBody(c echo.Context, err error) error {
	var bodyErr *RequestBodyError
	if errors.As(err, &bodyErr) {
		return ErrorValidation(c, bodyErr.Result)
	}
	return ErrorBadRequest(c, "Invalid request body")
}

// ErrorInternal returns a 500 Internal Server Error
func ErrorInternal(c echo.Context, message string) error {
	return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", message))
}

// ErrorServiceUnavailable returns a 503 Service Unavailable error
func ErrorServiceUnavailable(c echo.Context, message string) error {
	return c.JSON(http.StatusServiceUnavailable, NewErrorResponse("service_unavailable", message))
}

// ErrorReport maps report computation failures to responses. Hard engine
// errors stay 500s with a distinct error code so corrupt data and missing
// price regimes are distinguishable from generic failures.
func ErrorReport(c echo.Context, err error) error {
	var integrity *accounting.DataIntegrityError
	if errors.As(err, &integrity) {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("data_integrity", err.Error()))
	}

	var noPrice *accounting.NoPriceError
	if errors.As(err, &noPrice) {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("no_price_regime", err.Error()))
	}

	return ErrorInternal(c, "Failed to compute report")
}
