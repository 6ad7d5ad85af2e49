package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-seating/internal/handler"
	"github.com/iliyamo/venue-seating/internal/middleware"
)

// RegisterResale registers ticket resale endpoints.  Any authenticated
// OWNER or CUSTOMER may list a ticket.
func RegisterResale(e *echo.Echo, l *handler.ListingHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("OWNER", "CUSTOMER"),
	)
	g.POST("/tickets/:id/listings", l.Create)
}
