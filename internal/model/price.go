package model

import "github.com/iliyamo/venue-seating/internal/money"

// PriceBreakdown is the derived price of a selection plus add-ons.  It is
// never stored; every mutation recomputes it.
//
// Fields:
//
//	Seats          – per-seat price lines in selection order
//	AddOns         – per-add-on lines for quantities above zero
//	Subtotal       – Σ seat prices
//	ServiceFee     – service fee on the subtotal, shown separately
//	AddOnTotal     – Σ add-on unit price × quantity, before discount
//	BundleDiscount – discount on AddOnTotal when enough distinct add-ons are chosen
//	GrandTotal     – Subtotal + ServiceFee + AddOnTotal − BundleDiscount
type PriceBreakdown struct {
	Seats          []SeatPrice  `json:"seats"`
	AddOns         []AddOnPrice `json:"addons"`
	Subtotal       money.Amount `json:"subtotal_pence"`
	ServiceFee     money.Amount `json:"service_fee_pence"`
	AddOnTotal     money.Amount `json:"addon_total_pence"`
	BundleDiscount money.Amount `json:"bundle_discount_pence"`
	GrandTotal     money.Amount `json:"grand_total_pence"`
}

// AddOnNet is the add-on total after the bundle discount.
func (b PriceBreakdown) AddOnNet() money.Amount {
	return b.AddOnTotal - b.BundleDiscount
}

// SeatPrice is one priced seat.
type SeatPrice struct {
	SeatID    string       `json:"seat_id"`
	SectionID string       `json:"section_id,omitempty"`
	Price     money.Amount `json:"price_pence"`
}

// AddOnPrice is one priced add-on line.
type AddOnPrice struct {
	AddOnID   string       `json:"addon_id"`
	UnitPrice money.Amount `json:"unit_price_pence"`
	Quantity  int          `json:"quantity"`
	Total     money.Amount `json:"total_pence"`
}
