// Package queue defines the messages exchanged over RabbitMQ and the
// publisher and consumer that carry them.
package queue

import (
	"time"

	"github.com/iliyamo/venue-seating/internal/model"
	"github.com/iliyamo/venue-seating/internal/selection"
)

// SeatTakenEvent is consumed when another channel (box office, partner
// allocation) sells a seat.  Every session holding it is evicted.
type SeatTakenEvent struct {
	VenueID string `json:"venue_id"`
	SeatID  string `json:"seat_id"`
}

// ListingCreatedEvent is published when a resale listing passes the cap.
type ListingCreatedEvent struct {
	ListingID         string `json:"listing_id"`
	TicketID          string `json:"ticket_id"`
	FaceValuePence    int64  `json:"face_value_pence"`
	ListingPricePence int64  `json:"listing_price_pence"`
	CapPence          int64  `json:"cap_pence"`
	FeePence          int64  `json:"fee_pence"`
	PayoutPence       int64  `json:"payout_pence"`
	CreatedAt         string `json:"created_at"`
}

// SeatEvictedEvent is published whenever a seat is removed from a session
// because it was taken or its hold lapsed.
type SeatEvictedEvent struct {
	SessionID string `json:"session_id"`
	VenueID   string `json:"venue_id"`
	SeatID    string `json:"seat_id"`
	Reason    string `json:"reason"`
	EvictedAt string `json:"evicted_at"`
}

// NewListingCreated builds the event for l.
func NewListingCreated(l model.ResaleListing) ListingCreatedEvent {
	return ListingCreatedEvent{
		ListingID:         l.ID,
		TicketID:          l.TicketID,
		FaceValuePence:    int64(l.FaceValue),
		ListingPricePence: int64(l.ListingPrice),
		CapPence:          int64(l.Cap),
		FeePence:          int64(l.Fee),
		PayoutPence:       int64(l.Payout),
		CreatedAt:         l.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// NewSeatEvicted builds the event for ev at time at.
func NewSeatEvicted(ev selection.Eviction, at time.Time) SeatEvictedEvent {
	return SeatEvictedEvent{
		SessionID: ev.SessionID,
		VenueID:   ev.VenueID,
		SeatID:    ev.SeatID,
		Reason:    ev.Reason,
		EvictedAt: at.UTC().Format(time.RFC3339),
	}
}
