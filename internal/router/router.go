// Package router registers the HTTP routes of the API on an Echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-seating/internal/handler"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers unauthenticated browse and pricing endpoints.
// Venue reads go through the response cache.
func RegisterPublic(e *echo.Echo, v *handler.VenueHandler, q *handler.QuoteHandler, st *handler.SettingsHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/venues/:id", v.GetVenue, cache)
	e.POST("/v1/quote", q.Quote)
	e.GET("/v1/settings", st.Get)
}

// RegisterSessions registers selection session endpoints.  Sessions are
// anonymous; the session id is the capability.
func RegisterSessions(e *echo.Echo, s *handler.SessionHandler, ws *handler.StreamHandler) {
	e.POST("/v1/venues/:id/sessions", s.Open)

	g := e.Group("/v1/sessions/:sid")
	g.GET("", s.Get)
	g.DELETE("", s.Close)
	g.POST("/seats", s.Select)
	g.DELETE("/seats", s.Clear)
	g.DELETE("/seats/:seat", s.Deselect)
	g.PUT("/addons", s.SetAddOns)
	g.GET("/ws", ws.Stream)
}
