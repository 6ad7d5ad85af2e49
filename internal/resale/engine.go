// Package resale enforces the anti-scalping cap on secondary-market
// listings and computes the seller's payout.
package resale

import (
	"errors"
	"fmt"

	"github.com/iliyamo/venue-seating/internal/model"
	"github.com/iliyamo/venue-seating/internal/money"
)

var (
	// ErrPriceCapExceeded matches every *PriceCapExceededError.
	ErrPriceCapExceeded = errors.New("listing price exceeds resale cap")
	// ErrInvalidPrice means the listing price is zero or negative.
	ErrInvalidPrice = errors.New("listing price must be positive")
	// ErrTicketNotFound means the ticket has no recorded face value.
	ErrTicketNotFound = errors.New("ticket not found")
	// ErrAlreadyListed means the ticket already has a listing.
	ErrAlreadyListed = errors.New("ticket already listed")
)

// PriceCapExceededError carries the rejected price and the cap it broke.
type PriceCapExceededError struct {
	Attempted money.Amount
	Cap       money.Amount
}

func (e *PriceCapExceededError) Error() string {
	return fmt.Sprintf("listing price %s exceeds resale cap %s", e.Attempted, e.Cap)
}

// Is makes errors.Is(err, ErrPriceCapExceeded) hold.
func (e *PriceCapExceededError) Is(target error) bool {
	return target == ErrPriceCapExceeded
}

// Policy is the cap and fee ratio in basis points.
type Policy struct {
	CapRatioBps int64 // 11000 allows 110% of face value
	FeeRatioBps int64 // platform fee on the listing price
}

// DefaultPolicy caps resale at 110% of face value with a 10% fee.
func DefaultPolicy() Policy {
	return Policy{CapRatioBps: 11000, FeeRatioBps: 1000}
}

// Engine applies a Policy.  It has no side effects.
type Engine struct {
	policy Policy
}

// NewEngine returns an Engine for p.
func NewEngine(p Policy) Engine {
	return Engine{policy: p}
}

// Policy returns the policy in force.
func (e Engine) Policy() Policy { return e.policy }

// Cap is the highest permitted listing price for a ticket of face value.
// A fractional penny is dropped, so the cap never exceeds the ratio.
func (e Engine) Cap(face money.Amount) (money.Amount, error) {
	return face.MulBpsFloor(e.policy.CapRatioBps)
}

// Validate accepts any price up to and including cap.
func (e Engine) Validate(price, cap money.Amount) error {
	if price > cap {
		return &PriceCapExceededError{Attempted: price, Cap: cap}
	}
	return nil
}

// Payout splits a listing price into the platform fee and what the seller
// receives.
func (e Engine) Payout(price money.Amount) (fee, payout money.Amount) {
	fee = price.MulBps(e.policy.FeeRatioBps)
	return fee, price - fee
}

// Price builds the listing for ticketID, or fails when price breaks the cap.
func (e Engine) Price(ticketID string, face, price money.Amount) (model.ResaleListing, error) {
	if price <= 0 {
		return model.ResaleListing{}, ErrInvalidPrice
	}
	cap, err := e.Cap(face)
	if err != nil {
		return model.ResaleListing{}, fmt.Errorf("cap for %s: %w", ticketID, err)
	}
	if err := e.Validate(price, cap); err != nil {
		return model.ResaleListing{}, err
	}
	fee, payout := e.Payout(price)
	return model.ResaleListing{
		TicketID:     ticketID,
		FaceValue:    face,
		ListingPrice: price,
		Cap:          cap,
		Fee:          fee,
		Payout:       payout,
	}, nil
}
