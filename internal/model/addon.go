package model

import "github.com/iliyamo/venue-seating/internal/money"

// AddOn is an optional extra sold alongside seats.  It is priced either at a
// fixed UnitPrice or, when PercentBps is non-zero, as a percentage of the
// ticket subtotal recomputed on every quote.
//
// Fields:
//
//	ID         – addons.id ("shield", "fast-track", ...)
//	Name       – display name
//	UnitPrice  – fixed price per unit in pence
//	PercentBps – percentage-of-subtotal rule in basis points (0 = fixed)
//	Stock      – remaining units, nil when unlimited
type AddOn struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	UnitPrice  money.Amount `json:"unit_price_pence"`
	PercentBps int64        `json:"percent_bps,omitempty"`
	Stock      *int         `json:"stock,omitempty"`
}

// PercentPriced reports whether the unit price depends on the subtotal.
func (a AddOn) PercentPriced() bool {
	return a.PercentBps > 0
}

// AddOnLine is a chosen quantity of one add-on.
type AddOnLine struct {
	AddOnID  string `json:"addon_id"`
	Quantity int    `json:"quantity"`
}
