package api

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"cloudbill/internal/report"
)

// ReportHandler handles report API endpoints
type ReportHandler struct {
	reports *report.Service
}

// NewReportHandler creates a new report handler
func NewReportHandler(reports *report.Service) *ReportHandler {
	return &ReportHandler{
		reports: reports,
	}
}

// parseReportRequest extracts window and scope parameters from the query
// string. Time parameters are RFC 3339.
func parseReportRequest(c echo.Context) (report.Request, error) {
	var req report.Request

	if v := c.QueryParam("begin"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return req, echo.NewHTTPError(400, "begin must be RFC 3339")
		}
		req.Begin = t
	}

	if v := c.QueryParam("end"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return req, echo.NewHTTPError(400, "end must be RFC 3339")
		}
		req.End = t
	}

	req.ProjectID = c.QueryParam("project_id")
	req.UserID = c.QueryParam("user_id")
	req.InstanceID = c.QueryParam("instance_id")

	return req, nil
}

// Consumption handles GET /api/v1/reports/consumption
func (h *ReportHandler) Consumption(c echo.Context) error {
	req, err := parseReportRequest(c)
	if err != nil {
		return ErrorBadRequest(c, err.Error())
	}

	if result := req.Validate(); !result.Valid {
		return ErrorValidation(c, result)
	}

	node, err := h.reports.Consumption(c.Request().Context(), req)
	if err != nil {
		return ErrorReport(c, err)
	}

	return SuccessOK(c, node)
}

// Cost handles GET /api/v1/reports/costs
func (h *ReportHandler) Cost(c echo.Context) error {
	req, err := parseReportRequest(c)
	if err != nil {
		return ErrorBadRequest(c, err.Error())
	}

	if result := req.Validate(); !result.Valid {
		return ErrorValidation(c, result)
	}

	node, err := h.reports.Cost(c.Request().Context(), req)
	if err != nil {
		return ErrorReport(c, err)
	}

	return SuccessOK(c, node)
}

// Budget handles GET /api/v1/reports/budgets
func (h *ReportHandler) Budget(c echo.Context) error {
	year, err := strconv.Atoi(c.QueryParam("year"))
	if err != nil {
		return ErrorBadRequest(c, "year is required and must be an integer")
	}

	detail := false
	if v := c.QueryParam("detail"); v != "" {
		detail, err = strconv.ParseBool(v)
		if err != nil {
			return ErrorBadRequest(c, "detail must be a boolean")
		}
	}

	req := report.BudgetRequest{
		Year:      year,
		Detail:    detail,
		ProjectID: c.QueryParam("project_id"),
		UserID:    c.QueryParam("user_id"),
	}

	if result := req.Validate(); !result.Valid {
		return ErrorValidation(c, result)
	}

	node, err := h.reports.Budget(c.Request().Context(), req)
	if err != nil {
		return ErrorReport(c, err)
	}

	return SuccessOK(c, node)
}
