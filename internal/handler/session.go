package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-seating/internal/model"
	"github.com/iliyamo/venue-seating/internal/selection"
	"github.com/iliyamo/venue-seating/internal/settings"
)

// SessionHandler exposes selection sessions over HTTP.  Every mutating
// endpoint answers with the session and its fresh quote.
type SessionHandler struct {
	Sessions *selection.Manager
	Pricer   *Pricer
	Settings *settings.Store
}

// NewSessionHandler constructs a SessionHandler.  It panics if a dependency is nil.
func NewSessionHandler(sessions *selection.Manager, pricer *Pricer, st *settings.Store) *SessionHandler {
	if sessions == nil || pricer == nil || st == nil {
		panic("nil dependency passed to NewSessionHandler")
	}
	return &SessionHandler{Sessions: sessions, Pricer: pricer, Settings: st}
}

type selectRequest struct {
	SeatID string `json:"seat_id"`
}

type addOnsRequest struct {
	Lines []model.AddOnLine `json:"lines"`
}

// Open handles POST /v1/venues/:id/sessions.
func (h *SessionHandler) Open(c echo.Context) error {
	s, err := h.Sessions.Open(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return h.respond(c, http.StatusCreated, s, false)
}

// Get handles GET /v1/sessions/:sid.  With ?include=seats the seat list
// carries each seat's status as this session sees it.
func (h *SessionHandler) Get(c echo.Context) error {
	s, err := h.Sessions.Get(c.Param("sid"))
	if err != nil {
		return writeError(c, err)
	}
	return h.respond(c, http.StatusOK, s, c.QueryParam("include") == "seats")
}

// Select handles POST /v1/sessions/:sid/seats.
func (h *SessionHandler) Select(c echo.Context) error {
	s, err := h.Sessions.Get(c.Param("sid"))
	if err != nil {
		return writeError(c, err)
	}
	var req selectRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.SeatID) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_id is required"})
	}
	if err := s.Select(c.Request().Context(), req.SeatID); err != nil {
		return writeError(c, err)
	}
	return h.respond(c, http.StatusOK, s, false)
}

// Deselect handles DELETE /v1/sessions/:sid/seats/:seat.
func (h *SessionHandler) Deselect(c echo.Context) error {
	s, err := h.Sessions.Get(c.Param("sid"))
	if err != nil {
		return writeError(c, err)
	}
	if err := s.Deselect(c.Request().Context(), c.Param("seat")); err != nil {
		return writeError(c, err)
	}
	return h.respond(c, http.StatusOK, s, false)
}

// Clear handles DELETE /v1/sessions/:sid/seats.
func (h *SessionHandler) Clear(c echo.Context) error {
	s, err := h.Sessions.Get(c.Param("sid"))
	if err != nil {
		return writeError(c, err)
	}
	if err := s.Clear(c.Request().Context()); err != nil {
		return writeError(c, err)
	}
	return h.respond(c, http.StatusOK, s, false)
}

// Close handles DELETE /v1/sessions/:sid.
func (h *SessionHandler) Close(c echo.Context) error {
	if err := h.Sessions.Close(c.Request().Context(), c.Param("sid")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// SetAddOns handles PUT /v1/sessions/:sid/addons.  Lines are checked against
// the venue's catalogue before the session changes.
func (h *SessionHandler) SetAddOns(c echo.Context) error {
	s, err := h.Sessions.Get(c.Param("sid"))
	if err != nil {
		return writeError(c, err)
	}
	var req addOnsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if _, err := h.Pricer.For(c.Request().Context(), s.VenueID()).CheckLines(req.Lines); err != nil {
		return writeError(c, err)
	}
	if err := s.SetAddOns(c.Request().Context(), req.Lines); err != nil {
		return writeError(c, err)
	}
	return h.respond(c, http.StatusOK, s, false)
}

func (h *SessionHandler) respond(c echo.Context, status int, s *selection.Session, withSeats bool) error {
	view, err := h.Pricer.quoteSession(c.Request().Context(), s, h.Settings.Snapshot())
	if err != nil {
		return writeError(c, err)
	}
	if withSeats {
		view.Seats = s.View()
	}
	return c.JSON(status, view)
}
