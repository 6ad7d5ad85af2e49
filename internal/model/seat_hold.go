package model

import "time"

// SeatHold is a time-boxed lease on a seat granted by the inventory
// authority.  Holds prevent two sessions from selecting the same seat while
// either is still deciding.  A hold that is not renewed lapses at ExpiresAt.
//
// Fields:
//
//	VenueID   – venue the seat belongs to
//	SeatID    – seat being held
//	Holder    – opaque id of the session owning the hold
//	Token     – value proving ownership on release/renew
//	ExpiresAt – when the hold lapses
type SeatHold struct {
	VenueID   string    `json:"venue_id"`
	SeatID    string    `json:"seat_id"`
	Holder    string    `json:"holder"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
