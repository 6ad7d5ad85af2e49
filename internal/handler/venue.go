package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-seating/internal/model"
	"github.com/iliyamo/venue-seating/internal/selection"
)

// VenueHandler serves venue maps and applies seats sold elsewhere.
type VenueHandler struct {
	Venues    selection.VenueLoader
	Sessions  *selection.Manager
	Allocator *selection.Allocator
}

// NewVenueHandler constructs a VenueHandler.  It panics if a dependency is nil.
func NewVenueHandler(venues selection.VenueLoader, sessions *selection.Manager, alloc *selection.Allocator) *VenueHandler {
	if venues == nil || sessions == nil || alloc == nil {
		panic("nil dependency passed to NewVenueHandler")
	}
	return &VenueHandler{Venues: venues, Sessions: sessions, Allocator: alloc}
}

type sectionView struct {
	model.Section
	Available int `json:"available"`
}

type venueView struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Width    float64       `json:"width"`
	Height   float64       `json:"height"`
	Stage    model.Polygon `json:"stage,omitempty"`
	Sections []sectionView `json:"sections"`
	Seats    []model.Seat  `json:"seats"`
}

// GetVenue handles GET /v1/venues/:id.  Seat statuses include allocations
// received since the venue was loaded.
func (h *VenueHandler) GetVenue(c echo.Context) error {
	idx, err := h.Venues.Load(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	v := idx.Venue()
	available := make(map[string]int, len(v.Layout.Sections))
	for i := range v.Layout.Seats {
		seat := &v.Layout.Seats[i]
		if h.Sessions.IsTaken(v.ID, seat.ID) {
			seat.Status = model.SeatTaken
		}
		if seat.Status == model.SeatAvailable {
			available[seat.SectionID]++
		}
	}
	out := venueView{
		ID:       v.ID,
		Name:     v.Name,
		Width:    v.Layout.Width,
		Height:   v.Layout.Height,
		Stage:    v.Layout.Stage,
		Sections: make([]sectionView, 0, len(v.Layout.Sections)),
		Seats:    v.Layout.Seats,
	}
	for _, s := range v.Layout.Sections {
		out.Sections = append(out.Sections, sectionView{Section: s, Available: available[s.ID]})
	}
	return c.JSON(http.StatusOK, out)
}

// MarkTaken handles POST /v1/venues/:id/seats/:seat/taken.
func (h *VenueHandler) MarkTaken(c echo.Context) error {
	evs, err := h.Allocator.Take(c.Request().Context(), c.Param("id"), c.Param("seat"))
	if err != nil {
		return writeError(c, err)
	}
	if evs == nil {
		evs = []selection.Eviction{}
	}
	return c.JSON(http.StatusOK, echo.Map{"evicted": evs})
}
