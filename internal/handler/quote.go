package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-seating/internal/model"
	"github.com/iliyamo/venue-seating/internal/money"
	"github.com/iliyamo/venue-seating/internal/selection"
	"github.com/iliyamo/venue-seating/internal/settings"
)

// QuoteHandler prices a selection without opening a session.
type QuoteHandler struct {
	Venues   selection.VenueLoader
	Pricer   *Pricer
	Settings *settings.Store
}

// NewQuoteHandler constructs a QuoteHandler.  It panics if a dependency is nil.
func NewQuoteHandler(venues selection.VenueLoader, pricer *Pricer, st *settings.Store) *QuoteHandler {
	if venues == nil || pricer == nil || st == nil {
		panic("nil dependency passed to NewQuoteHandler")
	}
	return &QuoteHandler{Venues: venues, Pricer: pricer, Settings: st}
}

type quoteRequest struct {
	VenueID   string            `json:"venue_id"`
	SeatIDs   []string          `json:"seat_ids"`
	AddOns    []model.AddOnLine `json:"addons"`
	BasePrice *money.Amount     `json:"base_price_pence"`
}

// Quote handles POST /v1/quote.  Without base_price_pence the configured
// base price applies.
func (h *QuoteHandler) Quote(c echo.Context) error {
	var req quoteRequest
	if err := c.Bind(&req); err != nil || req.VenueID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "venue_id is required"})
	}
	ctx := c.Request().Context()
	idx, err := h.Venues.Load(ctx, req.VenueID)
	if err != nil {
		return writeError(c, err)
	}
	base := h.Pricer.Base
	if req.BasePrice != nil {
		base = *req.BasePrice
	}
	b, err := h.Pricer.For(ctx, req.VenueID).Quote(idx, req.SeatIDs, req.AddOns, base)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, newQuoteView(b, h.Settings.Snapshot()))
}
