package handler

import (
	"context"
	"log"

	"github.com/iliyamo/venue-seating/internal/model"
	"github.com/iliyamo/venue-seating/internal/money"
	"github.com/iliyamo/venue-seating/internal/pricing"
	"github.com/iliyamo/venue-seating/internal/selection"
	"github.com/iliyamo/venue-seating/internal/settings"
)

// AddOnSource returns a venue's own add-on catalogue.  An empty result
// means the venue sells the default catalogue.
type AddOnSource interface {
	ForVenue(ctx context.Context, venueID string) ([]model.AddOn, error)
}

// Pricer picks the add-on catalogue for a venue and prices selections at the
// configured base price.
type Pricer struct {
	Engine *pricing.Engine
	AddOns AddOnSource // optional
	Base   money.Amount
}

// For returns the engine selling venueID's add-ons.
func (p *Pricer) For(ctx context.Context, venueID string) *pricing.Engine {
	if p.AddOns == nil {
		return p.Engine
	}
	list, err := p.AddOns.ForVenue(ctx, venueID)
	if err != nil {
		log.Printf("pricing: add-ons for %s unavailable, using defaults: %v", venueID, err)
		return p.Engine
	}
	if len(list) == 0 {
		return p.Engine
	}
	return p.Engine.WithAddOns(list)
}

// quoteView is a price breakdown with its totals formatted for display.
type quoteView struct {
	model.PriceBreakdown
	Display         map[string]string `json:"display"`
	SettingsVersion uint64            `json:"settings_version"`
}

func newQuoteView(b model.PriceBreakdown, s settings.Snapshot) quoteView {
	return quoteView{
		PriceBreakdown: b,
		Display: map[string]string{
			"subtotal":        s.Format(b.Subtotal),
			"service_fee":     s.Format(b.ServiceFee),
			"addon_total":     s.Format(b.AddOnTotal),
			"bundle_discount": s.Format(b.BundleDiscount),
			"grand_total":     s.Format(b.GrandTotal),
		},
		SettingsVersion: s.Version,
	}
}

// sessionView is the response for every session endpoint.
type sessionView struct {
	Session       selection.Snapshot `json:"session"`
	Quote         quoteView          `json:"quote"`
	CanSelectMore bool               `json:"can_select_more"`
	Seats         []model.Seat       `json:"seats,omitempty"`
}

// quoteSession prices one consistent snapshot of s.
func (p *Pricer) quoteSession(ctx context.Context, s *selection.Session, st settings.Snapshot) (sessionView, error) {
	snap := s.Snapshot()
	b, err := p.For(ctx, snap.VenueID).Quote(s.Index(), snap.SeatIDs, snap.AddOns, p.Base)
	if err != nil {
		return sessionView{}, err
	}
	return sessionView{
		Session:       snap,
		Quote:         newQuoteView(b, st),
		CanSelectMore: len(snap.SeatIDs) < selection.MaxSeats,
	}, nil
}
