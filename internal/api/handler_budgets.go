package api

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"cloudbill/internal/store"
	"cloudbill/pkg/types"
)

// BudgetHandler handles budget API endpoints
type BudgetHandler struct {
	store *store.Store
}

// NewBudgetHandler creates a new budget handler
func NewBudgetHandler(s *store.Store) *BudgetHandler {
	return &BudgetHandler{
		store: s,
	}
}

// UpsertBudgetRequest represents the API request to set a budget
type UpsertBudgetRequest struct {
	Kind     string  `json:"kind" validate:"required,oneof=user project"`
	EntityID string  `json:"entity_id" validate:"required"`
	Year     int     `json:"year" validate:"min=2000,max=2100"`
	Amount   float64 `json:"amount" validate:"min=0"`
}

// List handles GET /api/v1/budgets
func (h *BudgetHandler) List(c echo.Context) error {
	year, err := strconv.Atoi(c.QueryParam("year"))
	if err != nil {
		return ErrorBadRequest(c, "year is required and must be an integer")
	}

	records, err := h.store.Budgets.ListForYear(c.Request().Context(), year, c.QueryParam("entity_id"))
	if err != nil {
		return ErrorInternal(c, "Failed to list budgets")
	}

	return SuccessOK(c, records)
}

// Upsert handles PUT /api/v1/budgets
func (h *BudgetHandler) Upsert(c echo.Context) error {
	var req UpsertBudgetRequest
	if err := c.Bind(&req); err != nil {
		return ErrorBadRequest(c, "Invalid request body")
	}

	if err := c.Validate(req); err != nil {
		return ErrorBody(c, err)
	}

	rec := &types.BudgetRecord{
		ID:       types.GenerateBudgetID(),
		Kind:     types.BudgetKind(req.Kind),
		EntityID: req.EntityID,
		Year:     req.Year,
		Amount:   req.Amount,
	}

	if err := h.store.Budgets.Upsert(c.Request().Context(), rec); err != nil {
		return ErrorInternal(c, "Failed to upsert budget")
	}

	return SuccessOK(c, rec)
}
