// Package report validates report requests, fetches the immutable snapshot a
// report needs in one pass, and runs the accounting engine over it.
package report

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Request describes one consumption or cost report: a query window plus an
// optional scope narrowing the report to a single project, user, or server.
type Request struct {
	Begin      time.Time
	End        time.Time
	ProjectID  string
	UserID     string
	InstanceID string
}

// BudgetRequest describes one budget report. The window is always the given
// calendar year; Detail controls per-flavor breakdowns at project and global
// levels.
type BudgetRequest struct {
	Year      int
	Detail    bool
	ProjectID string
	UserID    string
}

// ValidationError represents a request validation failure
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationResult contains the outcome of request validation
type ValidationResult struct {
	Valid  bool
	Errors []ValidationError
}

// AddError adds a validation error
func (r *ValidationResult) AddError(field, message string) {
	r.Valid = false
	r.Errors = append(r.Errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// Validate checks a report request for a well-formed window and scope.
func (req *Request) Validate() *ValidationResult {
	result := &ValidationResult{Valid: true}

	if req.Begin.IsZero() {
		result.AddError("begin", "begin time is required")
	}
	if req.End.IsZero() {
		result.AddError("end", "end time is required")
	}
	if !req.Begin.IsZero() && !req.End.IsZero() && !req.Begin.Before(req.End) {
		result.AddError("end", "end must be after begin")
	}

	validateScope(result, req.ProjectID, req.UserID, req.InstanceID)

	return result
}

// Validate checks a budget request for a plausible year and scope.
func (req *BudgetRequest) Validate() *ValidationResult {
	result := &ValidationResult{Valid: true}

	if req.Year < 2000 || req.Year > 2100 {
		result.AddError("year", fmt.Sprintf("year %d out of range", req.Year))
	}

	validateScope(result, req.ProjectID, req.UserID, "")

	return result
}

func validateScope(result *ValidationResult, projectID, userID, instanceID string) {
	set := 0
	for _, v := range []string{projectID, userID, instanceID} {
		if v != "" {
			set++
		}
	}
	if set > 1 {
		result.AddError("scope", "at most one of project_id, user_id, instance_id may be set")
	}

	// Instance IDs come from the compute platform as UUIDs.
	if instanceID != "" {
		if _, err := uuid.Parse(instanceID); err != nil {
			result.AddError("instance_id", "instance_id must be a UUID")
		}
	}
}
