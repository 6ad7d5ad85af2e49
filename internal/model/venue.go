package model

import "strconv"

// SeatStatus is the availability state of a seat.  Venue data only ever
// persists available, taken or reserved; selected exists solely inside a
// selection session overlay.
type SeatStatus string

const (
	SeatAvailable SeatStatus = "available"
	SeatSelected  SeatStatus = "selected"
	SeatTaken     SeatStatus = "taken"
	SeatReserved  SeatStatus = "reserved"
)

// Valid reports whether s is one of the known statuses.
func (s SeatStatus) Valid() bool {
	switch s {
	case SeatAvailable, SeatSelected, SeatTaken, SeatReserved:
		return true
	}
	return false
}

// Venue is a place tickets are sold for.  It owns exactly one layout.
//
// Fields:
//
//	ID     – venues.id
//	Name   – display name
//	Layout – spatial description of stage, sections and seats
type Venue struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Layout Layout `json:"layout"`
}

// Layout describes the venue map in its own logical coordinate space.
// Sections keep the order in which they were defined; hit testing and
// listing both honour that order.  Seats are stored flat and point at their
// section through SectionID, mirroring the seats table.
type Layout struct {
	Width    float64   `json:"width"`           // venues.canvas_width
	Height   float64   `json:"height"`          // venues.canvas_height
	Stage    Polygon   `json:"stage,omitempty"` // stage_points (optional)
	Sections []Section `json:"sections"`
	Seats    []Seat    `json:"seats"`
}

// Section is a priced block of seats with an on-map boundary.
//
// Fields:
//
//	ID              – sections.id, unique within the venue
//	Name            – sections.name
//	Color           – display colour, e.g. "#d4af37"
//	PriceMultiplier – factor applied to the base price; 1.0 is face value.
//	                  Held as basis points, so at most four decimal places
//	                  (1.1235, not 1.12345) and at most 100.  Each seat price
//	                  is rounded half-up to the penny before the subtotal
//	                  is summed.
//	Polygon         – boundary, at least three points
type Section struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Color           string  `json:"color"`
	PriceMultiplier float64 `json:"price_multiplier"`
	Polygon         Polygon `json:"polygon"`
}

// Seat is a single sellable position.  ID is unique across the venue and
// SectionID names the one section it belongs to.
type Seat struct {
	ID        string     `json:"id"`         // seats.id
	SectionID string     `json:"section_id"` // seats.section_id
	Row       string     `json:"row"`        // seats.row_label
	Number    int        `json:"number"`     // seats.seat_number
	X         float64    `json:"x"`          // seats.pos_x
	Y         float64    `json:"y"`          // seats.pos_y
	Status    SeatStatus `json:"status"`     // seats.status (never "selected")
}

// Position returns the seat location in layout coordinates.
func (s Seat) Position() Point {
	return Point{X: s.X, Y: s.Y}
}

// Label returns the human readable seat label, e.g. "C12".
func (s Seat) Label() string {
	return s.Row + strconv.Itoa(s.Number)
}
