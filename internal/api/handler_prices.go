package api

import (
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"cloudbill/internal/store"
	"cloudbill/pkg/types"
)

// PriceHandler handles price history API endpoints
type PriceHandler struct {
	store *store.Store
}

// NewPriceHandler creates a new price handler
func NewPriceHandler(s *store.Store) *PriceHandler {
	return &PriceHandler{
		store: s,
	}
}

// CreatePriceRequest represents the API request to open a new price regime
type CreatePriceRequest struct {
	FlavorID  string    `json:"flavor_id" validate:"required"`
	UserClass int       `json:"user_class" validate:"min=0"`
	UnitPrice float64   `json:"unit_price" validate:"min=0"`
	StartTime time.Time `json:"start_time" validate:"required"`
}

// List handles GET /api/v1/prices
func (h *PriceHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	var (
		records []types.PriceRecord
		err     error
	)

	if flavorID := c.QueryParam("flavor_id"); flavorID != "" {
		records, err = h.store.Prices.ListForFlavor(ctx, flavorID)
	} else {
		records, err = h.store.Prices.ListAll(ctx)
	}
	if err != nil {
		return ErrorInternal(c, "Failed to list prices")
	}

	return SuccessOK(c, records)
}

// Create handles POST /api/v1/prices
func (h *PriceHandler) Create(c echo.Context) error {
	var req CreatePriceRequest
	if err := c.Bind(&req); err != nil {
		return ErrorBadRequest(c, "Invalid request body")
	}

	if err := c.Validate(req); err != nil {
		return ErrorBody(c, err)
	}

	rec := &types.PriceRecord{
		ID:        types.GeneratePriceID(),
		FlavorID:  req.FlavorID,
		UserClass: req.UserClass,
		UnitPrice: req.UnitPrice,
		StartTime: req.StartTime,
	}

	if err := h.store.Prices.Create(c.Request().Context(), rec); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return ErrorConflict(c, "A price regime with this start time already exists")
		}
		return ErrorInternal(c, "Failed to create price record")
	}

	return SuccessCreated(c, rec)
}
