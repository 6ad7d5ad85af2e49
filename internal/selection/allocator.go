package selection

import (
	"context"
	"fmt"

	"github.com/iliyamo/venue-seating/internal/model"
	"github.com/iliyamo/venue-seating/internal/venue"
)

// VenueCache is a VenueLoader whose entries can be dropped.
type VenueCache interface {
	VenueLoader
	Invalidate(id string)
}

// SeatStatusStore persists a seat's venue-wide status.
type SeatStatusStore interface {
	SetSeatStatus(ctx context.Context, venueID, seatID string, status model.SeatStatus) error
}

// Allocator applies seats sold through another channel.  It records the
// sale when a store is configured, drops the cached venue so new sessions
// see it, and evicts the seat from every open session.
type Allocator struct {
	Venues   VenueCache
	Store    SeatStatusStore // optional
	Sessions *Manager
}

// Take marks seatID on venueID as taken and returns the evictions caused.
func (a *Allocator) Take(ctx context.Context, venueID, seatID string) ([]Eviction, error) {
	idx, err := a.Venues.Load(ctx, venueID)
	if err != nil {
		return nil, err
	}
	if _, ok := idx.Seat(seatID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSeat, seatID)
	}
	if a.Store != nil {
		if err := a.Store.SetSeatStatus(ctx, venueID, seatID, model.SeatTaken); err != nil {
			return nil, fmt.Errorf("persist taken %s/%s: %w", venueID, seatID, err)
		}
		a.Venues.Invalidate(venueID)
	}
	return a.Sessions.MarkTaken(ctx, venueID, seatID), nil
}

var _ VenueCache = (*venue.Loader)(nil)
