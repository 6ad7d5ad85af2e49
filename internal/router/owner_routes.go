package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-seating/internal/handler"
	"github.com/iliyamo/venue-seating/internal/middleware"
)

// RegisterOwner registers OWNER-scoped endpoints under /v1.
// All routes require a valid JWT and OWNER role.
func RegisterOwner(e *echo.Echo, v *handler.VenueHandler, st *handler.SettingsHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("OWNER"),
	)
	g.POST("/venues/:id/seats/:seat/taken", v.MarkTaken)
	g.PUT("/settings", st.Update)
}
