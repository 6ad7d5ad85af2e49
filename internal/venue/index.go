// Package venue validates venue layouts and answers read-only queries about
// them.  A loaded Index is immutable and safe for concurrent use.
package venue

import (
	"fmt"
	"math"

	"github.com/iliyamo/venue-seating/internal/model"
	"github.com/iliyamo/venue-seating/internal/money"
)

// maxMultiplier bounds section multipliers so seat prices stay in range.
const maxMultiplier = 100

// Index is a validated, immutable venue with lookup tables.
type Index struct {
	venue      model.Venue
	sectionPos map[string]int
	seatPos    map[string]int
	bySection  map[string][]int
	multBps    map[string]int64
	available  map[string]int
}

// Load validates v and builds an Index over a private copy of it.  Any
// structural problem aborts the load with a *ValidationError.
func Load(v *model.Venue) (*Index, error) {
	if v == nil {
		return nil, &ValidationError{Problems: []string{"venue is nil"}}
	}
	cp := cloneVenue(v)
	if problems := validate(&cp); len(problems) > 0 {
		return nil, &ValidationError{VenueID: cp.ID, Problems: problems}
	}

	x := &Index{
		venue:      cp,
		sectionPos: make(map[string]int, len(cp.Layout.Sections)),
		seatPos:    make(map[string]int, len(cp.Layout.Seats)),
		bySection:  make(map[string][]int, len(cp.Layout.Sections)),
		multBps:    make(map[string]int64, len(cp.Layout.Sections)),
		available:  make(map[string]int, len(cp.Layout.Sections)),
	}
	for i, s := range cp.Layout.Sections {
		x.sectionPos[s.ID] = i
		x.multBps[s.ID] = money.RatioToBps(s.PriceMultiplier)
	}
	for i, seat := range cp.Layout.Seats {
		x.seatPos[seat.ID] = i
		x.bySection[seat.SectionID] = append(x.bySection[seat.SectionID], i)
		if seat.Status == model.SeatAvailable {
			x.available[seat.SectionID]++
		}
	}
	return x, nil
}

func validate(v *model.Venue) []string {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if v.ID == "" {
		add("venue id is empty")
	}
	if !(v.Layout.Width > 0) || !(v.Layout.Height > 0) {
		add("canvas must have positive width and height, got %vx%v", v.Layout.Width, v.Layout.Height)
	}
	if n := len(v.Layout.Stage); n > 0 && n < 3 {
		add("stage polygon has %d points, need at least 3", n)
	}

	sections := make(map[string]bool, len(v.Layout.Sections))
	for i, s := range v.Layout.Sections {
		if s.ID == "" {
			add("section #%d has an empty id", i)
			continue
		}
		if sections[s.ID] {
			add("duplicate section id %q", s.ID)
		}
		sections[s.ID] = true
		if len(s.Polygon) < 3 {
			add("section %q polygon has %d points, need at least 3", s.ID, len(s.Polygon))
		}
		m := s.PriceMultiplier
		switch {
		case math.IsNaN(m) || math.IsInf(m, 0) || m <= 0:
			add("section %q price multiplier must be positive, got %v", s.ID, m)
		case m > maxMultiplier:
			add("section %q price multiplier %v is above %v", s.ID, m, maxMultiplier)
		case math.Abs(money.BpsToRatio(money.RatioToBps(m))-m) > 1e-9:
			add("section %q price multiplier %v has more than four decimal places", s.ID, m)
		}
	}

	owner := make(map[string]string, len(v.Layout.Seats))
	for i := range v.Layout.Seats {
		seat := &v.Layout.Seats[i]
		if seat.ID == "" {
			add("seat #%d has an empty id", i)
			continue
		}
		if !sections[seat.SectionID] {
			add("seat %q references unknown section %q", seat.ID, seat.SectionID)
		}
		if prev, ok := owner[seat.ID]; ok {
			if prev == seat.SectionID {
				add("section %q has duplicate seat id %q", prev, seat.ID)
			} else {
				add("seat id %q appears in sections %q and %q", seat.ID, prev, seat.SectionID)
			}
		} else {
			owner[seat.ID] = seat.SectionID
		}
		if seat.Status == "" {
			seat.Status = model.SeatAvailable
		}
		switch {
		case !seat.Status.Valid():
			add("seat %q has unknown status %q", seat.ID, seat.Status)
		case seat.Status == model.SeatSelected:
			add("seat %q has session-only status %q persisted", seat.ID, seat.Status)
		}
	}
	return problems
}

func cloneVenue(v *model.Venue) model.Venue {
	cp := *v
	cp.Layout.Stage = append(model.Polygon(nil), v.Layout.Stage...)
	cp.Layout.Sections = make([]model.Section, len(v.Layout.Sections))
	for i, s := range v.Layout.Sections {
		s.Polygon = append(model.Polygon(nil), s.Polygon...)
		cp.Layout.Sections[i] = s
	}
	cp.Layout.Seats = append([]model.Seat(nil), v.Layout.Seats...)
	return cp
}

// ID returns the venue id.
func (x *Index) ID() string { return x.venue.ID }

// Venue returns a copy of the validated venue.
func (x *Index) Venue() model.Venue { return cloneVenue(&x.venue) }

// Seat looks up a seat by id.
func (x *Index) Seat(seatID string) (model.Seat, bool) {
	i, ok := x.seatPos[seatID]
	if !ok {
		return model.Seat{}, false
	}
	return x.venue.Layout.Seats[i], true
}

// Section looks up a section by id.
func (x *Index) Section(sectionID string) (model.Section, bool) {
	i, ok := x.sectionPos[sectionID]
	if !ok {
		return model.Section{}, false
	}
	return x.venue.Layout.Sections[i], true
}

// Sections returns the sections in layout order.
func (x *Index) Sections() []model.Section {
	return append([]model.Section(nil), x.venue.Layout.Sections...)
}

// SectionContaining returns the section the seat belongs to.
func (x *Index) SectionContaining(seatID string) (model.Section, bool) {
	seat, ok := x.Seat(seatID)
	if !ok {
		return model.Section{}, false
	}
	return x.Section(seat.SectionID)
}

// SeatsIn returns the seats of a section in layout order.
func (x *Index) SeatsIn(sectionID string) []model.Seat {
	idx := x.bySection[sectionID]
	out := make([]model.Seat, 0, len(idx))
	for _, i := range idx {
		out = append(out, x.venue.Layout.Seats[i])
	}
	return out
}

// AvailableCount returns how many seats of the section have persisted status
// available.  Unknown sections count zero.
func (x *Index) AvailableCount(sectionID string) int {
	return x.available[sectionID]
}

// MultiplierBps returns the section price multiplier in basis points.
func (x *Index) MultiplierBps(sectionID string) (int64, bool) {
	bps, ok := x.multBps[sectionID]
	return bps, ok
}
