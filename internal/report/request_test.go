package report_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloudbill/internal/report"
)

func TestRequest_Validate(t *testing.T) {
	begin := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)

	t.Run("accepts a valid global request", func(t *testing.T) {
		req := &report.Request{Begin: begin, End: end}
		result := req.Validate()
		assert.True(t, result.Valid)
		assert.Empty(t, result.Errors)
	})

	t.Run("accepts a valid server-scoped request", func(t *testing.T) {
		req := &report.Request{
			Begin:      begin,
			End:        end,
			InstanceID: "6ba7b810-9dad-11d1-80b4-00c04fd430c8",
		}
		assert.True(t, req.Validate().Valid)
	})

	t.Run("rejects missing window", func(t *testing.T) {
		req := &report.Request{}
		result := req.Validate()
		assert.False(t, result.Valid)
		require.Len(t, result.Errors, 2)
	})

	t.Run("rejects inverted window", func(t *testing.T) {
		req := &report.Request{Begin: end, End: begin}
		result := req.Validate()
		assert.False(t, result.Valid)

		found := false
		for _, e := range result.Errors {
			if e.Field == "end" {
				found = true
				break
			}
		}
		assert.True(t, found, "should have end validation error")
	})

	t.Run("rejects multiple scope fields", func(t *testing.T) {
		req := &report.Request{
			Begin:     begin,
			End:       end,
			ProjectID: "prj-1",
			UserID:    "usr-1",
		}
		result := req.Validate()
		assert.False(t, result.Valid)
		assert.Equal(t, "scope", result.Errors[0].Field)
	})

	t.Run("rejects non-UUID instance id", func(t *testing.T) {
		req := &report.Request{Begin: begin, End: end, InstanceID: "vm-42"}
		result := req.Validate()
		assert.False(t, result.Valid)
		assert.Equal(t, "instance_id", result.Errors[0].Field)
	})
}

func TestBudgetRequest_Validate(t *testing.T) {
	t.Run("accepts a plausible year", func(t *testing.T) {
		req := &report.BudgetRequest{Year: 2024}
		assert.True(t, req.Validate().Valid)
	})

	t.Run("rejects an implausible year", func(t *testing.T) {
		req := &report.BudgetRequest{Year: 24}
		result := req.Validate()
		assert.False(t, result.Valid)
		assert.Equal(t, "year", result.Errors[0].Field)
	})

	t.Run("rejects project and user scope together", func(t *testing.T) {
		req := &report.BudgetRequest{Year: 2024, ProjectID: "prj-1", UserID: "usr-1"}
		assert.False(t, req.Validate().Valid)
	})
}
