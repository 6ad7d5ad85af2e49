package model

import (
	"time"

	"github.com/iliyamo/venue-seating/internal/money"
)

// ResaleListing is a secondary-market offer for a previously issued ticket.
// FaceValue is fixed at issuance; Cap, Fee and Payout derive from it and the
// listing price under the resale policy in force.
//
// Fields:
//
//	ID           – resale_listings.id
//	TicketID     – tickets.id being resold
//	FaceValue    – original price paid, immutable
//	ListingPrice – requested price
//	Cap          – maximum permitted listing price
//	Fee          – platform fee on the listing price
//	Payout       – ListingPrice − Fee
//	CreatedAt    – when the listing was accepted
type ResaleListing struct {
	ID           string       `json:"id"`
	TicketID     string       `json:"ticket_id"`
	FaceValue    money.Amount `json:"face_value_pence"`
	ListingPrice money.Amount `json:"listing_price_pence"`
	Cap          money.Amount `json:"cap_pence"`
	Fee          money.Amount `json:"fee_pence"`
	Payout       money.Amount `json:"payout_pence"`
	CreatedAt    time.Time    `json:"created_at"`
}
