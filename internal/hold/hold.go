// Package hold grants short-lived seat leases from a single inventory
// authority.  Selection sessions are clients: they ask for a hold before a
// seat becomes selected, release it on deselect, and are told when a hold
// lapses so the seat can be evicted from the session.
package hold

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/venue-seating/internal/model"
)

var (
	// ErrHeld means another holder currently owns the seat.
	ErrHeld = errors.New("seat is held by another session")
	// ErrNotHolder means the lease is unknown, expired or owned by someone else.
	ErrNotHolder = errors.New("hold not owned by caller")
	// ErrClosed is returned after the authority has been shut down.
	ErrClosed = errors.New("hold authority closed")
)

// Reasons carried by Expiry.
const (
	ReasonExpired = "expired" // TTL elapsed without renewal
	ReasonLost    = "lost"    // the authority no longer records this holder
)

// Request asks for a hold on one seat.  A zero TTL uses the authority default.
type Request struct {
	VenueID string
	SeatID  string
	Holder  string
	TTL     time.Duration
}

// Expiry tells the holder that a lease ended without being released.
type Expiry struct {
	Hold   model.SeatHold
	Reason string
}

// Authority is the request-hold / release-hold / hold-expired protocol.
type Authority interface {
	// Request grants a hold or fails with ErrHeld.  Asking again for a seat
	// the same holder already owns extends the existing hold.
	Request(ctx context.Context, req Request) (model.SeatHold, error)
	// Release gives a hold back.  Releasing a lapsed hold returns ErrNotHolder.
	Release(ctx context.Context, h model.SeatHold) error
	// Renew pushes ExpiresAt forward by ttl (default TTL when zero).
	Renew(ctx context.Context, h model.SeatHold, ttl time.Duration) (model.SeatHold, error)
	// Expired delivers one message per hold that lapsed.
	Expired() <-chan Expiry
	// Close stops background work.  Outstanding holds are left to lapse.
	Close() error
}

func seatKey(venueID, seatID string) string {
	return venueID + ":" + seatID
}
