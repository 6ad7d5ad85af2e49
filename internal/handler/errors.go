package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-seating/internal/money"
	"github.com/iliyamo/venue-seating/internal/pricing"
	"github.com/iliyamo/venue-seating/internal/repository"
	"github.com/iliyamo/venue-seating/internal/resale"
	"github.com/iliyamo/venue-seating/internal/selection"
	"github.com/iliyamo/venue-seating/internal/settings"
	"github.com/iliyamo/venue-seating/internal/venue"
)

// errorMapping ties a domain error to its HTTP status and stable code.
var errorMapping = []struct {
	err    error
	status int
	code   string
}{
	{venue.ErrVenueNotFound, http.StatusNotFound, "venue_not_found"},
	{selection.ErrSessionNotFound, http.StatusNotFound, "session_not_found"},
	{selection.ErrSessionClosed, http.StatusNotFound, "session_not_found"},
	{selection.ErrUnknownSeat, http.StatusNotFound, "seat_not_found"},
	{repository.ErrSeatNotFound, http.StatusNotFound, "seat_not_found"},
	{repository.ErrConflict, http.StatusConflict, "conflict"},
	{selection.ErrCapacityExceeded, http.StatusConflict, "capacity_exceeded"},
	{selection.ErrSeatUnavailable, http.StatusConflict, "seat_unavailable"},
	{selection.ErrAlreadySelected, http.StatusConflict, "already_selected"},
	{pricing.ErrInvalidQuantity, http.StatusBadRequest, "invalid_quantity"},
	{pricing.ErrUnknownAddOn, http.StatusBadRequest, "unknown_addon"},
	{pricing.ErrInvalidBasePrice, http.StatusBadRequest, "invalid_base_price"},
	{money.ErrOverflow, http.StatusBadRequest, "amount_out_of_range"},
	{resale.ErrTicketNotFound, http.StatusNotFound, "ticket_not_found"},
	{resale.ErrInvalidPrice, http.StatusBadRequest, "invalid_price"},
	{resale.ErrAlreadyListed, http.StatusConflict, "already_listed"},
	{settings.ErrInvalidSettings, http.StatusBadRequest, "invalid_settings"},
}

// writeError maps err to a JSON error response.  Unknown errors are logged
// and reported as 500 without detail.
func writeError(c echo.Context, err error) error {
	var verr *venue.ValidationError
	if errors.As(err, &verr) {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error":    "invalid venue data",
			"code":     "validation_error",
			"problems": verr.Problems,
		})
	}
	var capErr *resale.PriceCapExceededError
	if errors.As(err, &capErr) {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error":           capErr.Error(),
			"code":            "price_cap_exceeded",
			"attempted_pence": capErr.Attempted,
			"cap_pence":       capErr.Cap,
		})
	}
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			return c.JSON(m.status, echo.Map{"error": err.Error(), "code": m.code})
		}
	}
	log.Printf("handler: %s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
