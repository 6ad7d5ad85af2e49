package handler

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-seating/internal/middleware"
	"github.com/iliyamo/venue-seating/internal/money"
	"github.com/iliyamo/venue-seating/internal/resale"
)

// ListingHandler accepts resale listings for issued tickets.
type ListingHandler struct {
	Resale *resale.Service
}

// NewListingHandler constructs a ListingHandler.  It panics if svc is nil.
func NewListingHandler(svc *resale.Service) *ListingHandler {
	if svc == nil {
		panic("nil resale service passed to NewListingHandler")
	}
	return &ListingHandler{Resale: svc}
}

type listingRequest struct {
	Price money.Amount `json:"price_pence"`
}

// Create handles POST /v1/tickets/:id/listings.  The price must lie within
// the resale cap of the ticket's face value.
func (h *ListingHandler) Create(c echo.Context) error {
	var req listingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	l, err := h.Resale.Submit(c.Request().Context(), c.Param("id"), req.Price)
	if err != nil {
		return writeError(c, err)
	}
	log.Printf("resale: user %s listed ticket %s at %s", middleware.UserID(c), l.TicketID, l.ListingPrice)
	return c.JSON(http.StatusCreated, l)
}
