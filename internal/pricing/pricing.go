// Package pricing turns a seat selection and add-on choices into a price
// breakdown.  Quotes are pure: the same inputs always give the same output,
// and nothing is cached between calls.
package pricing

import (
	"errors"
	"fmt"
	"log"

	"github.com/iliyamo/venue-seating/internal/model"
	"github.com/iliyamo/venue-seating/internal/money"
)

var (
	// ErrInvalidQuantity means an add-on quantity is negative, above stock or
	// above MaxQuantity.
	ErrInvalidQuantity = errors.New("invalid add-on quantity")
	// ErrUnknownAddOn means the add-on id is not in the catalogue.
	ErrUnknownAddOn = errors.New("unknown add-on")
	// ErrInvalidBasePrice means the base ticket price is negative or above
	// MaxBasePrice.
	ErrInvalidBasePrice = errors.New("base price out of range")
)

// Bounds on quote inputs.  Within them every total fits an Amount.
const (
	MaxQuantity  = 9999                    // per add-on, summed across lines
	MaxBasePrice = money.Amount(100000000) // £1,000,000
)

// Policy holds the percentages applied by the engine, in basis points.
type Policy struct {
	ServiceFeeBps     int64 // fee on the seat subtotal
	ShieldBps         int64 // shield add-on unit price as a share of subtotal
	BundleDiscountBps int64 // discount on the add-on total
	BundleThreshold   int   // distinct add-ons needed for the discount
}

// DefaultPolicy is a 10% service fee, 7% shield, and 10% off add-ons when
// two or more are chosen.
func DefaultPolicy() Policy {
	return Policy{
		ServiceFeeBps:     1000,
		ShieldBps:         700,
		BundleDiscountBps: 1000,
		BundleThreshold:   2,
	}
}

// Add-on ids of the default catalogue.
const (
	AddOnShield     = "shield"
	AddOnFastTrack  = "fast-track"
	AddOnParking    = "parking"
	AddOnMerch      = "merch-bundle"
	defaultMerchQty = 50
)

// DefaultAddOns returns the built-in add-on catalogue for p.
func DefaultAddOns(p Policy) []model.AddOn {
	stock := defaultMerchQty
	return []model.AddOn{
		{ID: AddOnShield, Name: "Ticket Shield", PercentBps: p.ShieldBps},
		{ID: AddOnFastTrack, Name: "Fast-Track Entry", UnitPrice: 1500},
		{ID: AddOnParking, Name: "Parking", UnitPrice: 2500},
		{ID: AddOnMerch, Name: "Merch Bundle", UnitPrice: 2000, Stock: &stock},
	}
}

// Sections resolves a seat to its section multiplier.  *venue.Index
// satisfies it.
type Sections interface {
	SectionContaining(seatID string) (model.Section, bool)
	MultiplierBps(sectionID string) (int64, bool)
}

// Logger is the subset of *log.Logger used by this package.
type Logger interface {
	Printf(format string, v ...any)
}

// Engine prices selections against one add-on catalogue.
type Engine struct {
	policy Policy
	addOns []model.AddOn
	byID   map[string]int
	logger Logger
}

// New returns an Engine.  A nil logger logs to the standard logger.
func New(p Policy, addOns []model.AddOn, logger Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	e := &Engine{
		policy: p,
		addOns: make([]model.AddOn, len(addOns)),
		byID:   make(map[string]int, len(addOns)),
		logger: logger,
	}
	for i, a := range addOns {
		if a.Stock != nil {
			n := *a.Stock
			a.Stock = &n
		}
		e.addOns[i] = a
		e.byID[a.ID] = i
	}
	return e
}

// Policy returns the engine's policy.
func (e *Engine) Policy() Policy { return e.policy }

// AddOns returns a copy of the catalogue.
func (e *Engine) AddOns() []model.AddOn {
	out := make([]model.AddOn, len(e.addOns))
	copy(out, e.addOns)
	return out
}

// WithAddOns returns an engine sharing the policy and logger but selling
// a different catalogue.
func (e *Engine) WithAddOns(addOns []model.AddOn) *Engine {
	return New(e.policy, addOns, e.logger)
}

// CheckLines validates add-on choices without pricing them and returns the
// quantity per catalogue entry.
func (e *Engine) CheckLines(lines []model.AddOnLine) ([]int, error) {
	qty := make([]int, len(e.addOns))
	for _, l := range lines {
		i, ok := e.byID[l.AddOnID]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownAddOn, l.AddOnID)
		}
		if l.Quantity < 0 || l.Quantity > MaxQuantity-qty[i] {
			return nil, fmt.Errorf("%w: %s quantity %d", ErrInvalidQuantity, l.AddOnID, l.Quantity)
		}
		qty[i] += l.Quantity
	}
	for i, a := range e.addOns {
		if a.Stock != nil && qty[i] > *a.Stock {
			return nil, fmt.Errorf("%w: %s quantity %d exceeds stock %d", ErrInvalidQuantity, a.ID, qty[i], *a.Stock)
		}
	}
	return qty, nil
}

// Quote prices seatIDs at base and adds the chosen add-ons.
//
// A seat whose section cannot be resolved is priced at face value and
// logged.  A seat id listed twice is priced once.  With no seats the quote
// is all zeros, whatever add-ons were chosen.
func (e *Engine) Quote(sections Sections, seatIDs []string, lines []model.AddOnLine, base money.Amount) (model.PriceBreakdown, error) {
	if base < 0 || base > MaxBasePrice {
		return model.PriceBreakdown{}, fmt.Errorf("%w: %s", ErrInvalidBasePrice, base)
	}
	qty, err := e.CheckLines(lines)
	if err != nil {
		return model.PriceBreakdown{}, err
	}

	b := model.PriceBreakdown{
		Seats:  []model.SeatPrice{},
		AddOns: []model.AddOnPrice{},
	}
	seen := make(map[string]bool, len(seatIDs))
	for _, id := range seatIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		line := model.SeatPrice{SeatID: id}
		bps := int64(money.BpsScale)
		if sec, ok := sections.SectionContaining(id); ok {
			line.SectionID = sec.ID
			if m, ok := sections.MultiplierBps(sec.ID); ok {
				bps = m
			} else {
				e.logger.Printf("pricing: section %s has no multiplier, pricing seat %s at face value", sec.ID, id)
			}
		} else {
			e.logger.Printf("pricing: no section for seat %s, pricing at face value", id)
		}
		if line.Price, err = base.CheckedMulBps(bps); err != nil {
			return model.PriceBreakdown{}, fmt.Errorf("price seat %s: %w", id, err)
		}
		b.Seats = append(b.Seats, line)
		if b.Subtotal, err = b.Subtotal.Plus(line.Price); err != nil {
			return model.PriceBreakdown{}, fmt.Errorf("subtotal: %w", err)
		}
	}
	if len(b.Seats) == 0 {
		return b, nil
	}

	if b.ServiceFee, err = b.Subtotal.CheckedMulBps(e.policy.ServiceFeeBps); err != nil {
		return model.PriceBreakdown{}, fmt.Errorf("service fee: %w", err)
	}

	distinct := 0
	for i, a := range e.addOns {
		if qty[i] == 0 {
			continue
		}
		distinct++
		unit := a.UnitPrice
		if a.PercentPriced() {
			if unit, err = b.Subtotal.CheckedMulBps(a.PercentBps); err != nil {
				return model.PriceBreakdown{}, fmt.Errorf("price %s: %w", a.ID, err)
			}
		}
		total, err := unit.Times(int64(qty[i]))
		if err != nil {
			return model.PriceBreakdown{}, fmt.Errorf("price %s: %w", a.ID, err)
		}
		b.AddOns = append(b.AddOns, model.AddOnPrice{
			AddOnID:   a.ID,
			UnitPrice: unit,
			Quantity:  qty[i],
			Total:     total,
		})
		if b.AddOnTotal, err = b.AddOnTotal.Plus(total); err != nil {
			return model.PriceBreakdown{}, fmt.Errorf("add-on total: %w", err)
		}
	}
	if distinct >= e.policy.BundleThreshold {
		if b.BundleDiscount, err = b.AddOnTotal.CheckedMulBps(e.policy.BundleDiscountBps); err != nil {
			return model.PriceBreakdown{}, fmt.Errorf("bundle discount: %w", err)
		}
	}
	total, err := b.Subtotal.Plus(b.ServiceFee)
	if err == nil {
		total, err = total.Plus(b.AddOnTotal - b.BundleDiscount)
	}
	if err != nil {
		return model.PriceBreakdown{}, fmt.Errorf("grand total: %w", err)
	}
	b.GrandTotal = total
	return b, nil
}
