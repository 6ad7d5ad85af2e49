package venue

import "github.com/iliyamo/venue-seating/internal/model"

// SeatAt returns the seat nearest to p whose centre lies within radius.
// Ties keep the seat defined first in the layout.
func (x *Index) SeatAt(p model.Point, radius float64) (model.Seat, bool) {
	best := -1
	bestDist := radius
	for i, seat := range x.venue.Layout.Seats {
		d := p.Distance(seat.Position())
		if d < bestDist || (d == bestDist && best < 0) {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return model.Seat{}, false
	}
	return x.venue.Layout.Seats[best], true
}

// SectionAt returns the first section, in layout order, whose polygon
// contains p.
func (x *Index) SectionAt(p model.Point) (model.Section, bool) {
	for _, s := range x.venue.Layout.Sections {
		lo, hi := s.Polygon.BoundingBox()
		if p.X < lo.X || p.X > hi.X || p.Y < lo.Y || p.Y > hi.Y {
			continue
		}
		if s.Polygon.Contains(p) {
			return s, true
		}
	}
	return model.Section{}, false
}

// OnStage reports whether p falls inside the stage outline.
func (x *Index) OnStage(p model.Point) bool {
	return x.venue.Layout.Stage.Contains(p)
}
