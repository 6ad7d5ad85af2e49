package handler

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-seating/internal/settings"
)

// SettingsHandler reads and updates the display currency and locale.
type SettingsHandler struct {
	Store *settings.Store
}

// NewSettingsHandler constructs a SettingsHandler.  It panics if st is nil.
func NewSettingsHandler(st *settings.Store) *SettingsHandler {
	if st == nil {
		panic("nil settings store passed to NewSettingsHandler")
	}
	return &SettingsHandler{Store: st}
}

type settingsRequest struct {
	Currency string `json:"currency"`
	Locale   string `json:"locale"`
}

// Get handles GET /v1/settings.
func (h *SettingsHandler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Store.Snapshot())
}

// Update handles PUT /v1/settings.  Empty fields keep their current value.
func (h *SettingsHandler) Update(c echo.Context) error {
	var req settingsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	cur := h.Store.Snapshot()
	if req.Currency == "" {
		req.Currency = cur.Currency
	}
	if req.Locale == "" {
		req.Locale = cur.Locale
	}
	snap, err := h.Store.Update(req.Currency, req.Locale)
	if err != nil {
		return writeError(c, err)
	}
	log.Printf("settings: now %s/%s at version %d", snap.Currency, snap.Locale, snap.Version)
	return c.JSON(http.StatusOK, snap)
}
