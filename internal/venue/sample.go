package venue

import (
	"fmt"

	"github.com/iliyamo/venue-seating/internal/model"
)

// SampleID is the id of the built-in demo venue.
const SampleID = "arena"

// Sample returns a small demo venue: a stage, a premium block at 2.0×, the
// stalls at face value and a balcony at 0.75×.  It backs the server when no
// catalog is configured and is the fixture used across the test suites.
func Sample() *model.Venue {
	v := &model.Venue{
		ID:   SampleID,
		Name: "Riverside Arena",
		Layout: model.Layout{
			Width:  800,
			Height: 600,
			Stage:  rect(300, 20, 500, 80),
			Sections: []model.Section{
				{ID: "premium", Name: "Premium", Color: "#d4af37", PriceMultiplier: 2.0, Polygon: rect(300, 100, 500, 200)},
				{ID: "stalls", Name: "Stalls", Color: "#3b82f6", PriceMultiplier: 1.0, Polygon: rect(100, 220, 700, 400)},
				{ID: "balcony", Name: "Balcony", Color: "#10b981", PriceMultiplier: 0.75, Polygon: rect(100, 420, 700, 560)},
			},
		},
	}
	v.Layout.Seats = append(v.Layout.Seats, grid("premium", "P", 2, 8, 310, 120, 25, 40)...)
	v.Layout.Seats = append(v.Layout.Seats, grid("stalls", "S", 4, 12, 130, 240, 45, 40)...)
	v.Layout.Seats = append(v.Layout.Seats, grid("balcony", "B", 2, 10, 150, 450, 50, 60)...)

	for i := range v.Layout.Seats {
		switch v.Layout.Seats[i].ID {
		case "P-A1", "S-D12":
			v.Layout.Seats[i].Status = model.SeatTaken
		case "P-A2":
			v.Layout.Seats[i].Status = model.SeatReserved
		}
	}
	return v
}

func rect(x0, y0, x1, y1 float64) model.Polygon {
	return model.Polygon{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}
}

func grid(sectionID, prefix string, rows, perRow int, x0, y0, dx, dy float64) []model.Seat {
	seats := make([]model.Seat, 0, rows*perRow)
	for r := 0; r < rows; r++ {
		row := string(rune('A' + r))
		for n := 1; n <= perRow; n++ {
			seats = append(seats, model.Seat{
				ID:        fmt.Sprintf("%s-%s%d", prefix, row, n),
				SectionID: sectionID,
				Row:       row,
				Number:    n,
				X:         x0 + float64(n-1)*dx,
				Y:         y0 + float64(r)*dy,
				Status:    model.SeatAvailable,
			})
		}
	}
	return seats
}
