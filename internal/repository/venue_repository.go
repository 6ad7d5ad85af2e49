package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/venue-seating/internal/model"
	"github.com/iliyamo/venue-seating/internal/venue"
)

// VenueRepo reads venue layouts from the venues, stage_points, sections,
// section_points and seats tables.  It implements venue.Catalog; the
// returned venue is raw and must still pass venue.Load.
type VenueRepo struct {
	db *sql.DB
}

// NewVenueRepo constructs a VenueRepo with the provided DB handle.
func NewVenueRepo(db *sql.DB) *VenueRepo {
	return &VenueRepo{db: db}
}

// Venue implements venue.Catalog.
func (r *VenueRepo) Venue(ctx context.Context, id string) (*model.Venue, error) {
	v := &model.Venue{ID: id}
	const qVenue = "SELECT name, canvas_width, canvas_height FROM venues WHERE id = ?"
	err := r.db.QueryRowContext(ctx, qVenue, id).Scan(&v.Name, &v.Layout.Width, &v.Layout.Height)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, venue.ErrVenueNotFound
	}
	if err != nil {
		return nil, err
	}

	stage, err := r.points(ctx, "SELECT x, y FROM stage_points WHERE venue_id = ? ORDER BY position", id)
	if err != nil {
		return nil, err
	}
	v.Layout.Stage = stage

	if v.Layout.Sections, err = r.sections(ctx, id); err != nil {
		return nil, err
	}
	if v.Layout.Seats, err = r.seats(ctx, id); err != nil {
		return nil, err
	}
	return v, nil
}

func (r *VenueRepo) points(ctx context.Context, q string, args ...any) (model.Polygon, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var poly model.Polygon
	for rows.Next() {
		var p model.Point
		if err := rows.Scan(&p.X, &p.Y); err != nil {
			return nil, err
		}
		poly = append(poly, p)
	}
	return poly, rows.Err()
}

func (r *VenueRepo) sections(ctx context.Context, venueID string) ([]model.Section, error) {
	const q = `SELECT id, name, color, price_multiplier FROM sections
		WHERE venue_id = ? ORDER BY position`
	rows, err := r.db.QueryContext(ctx, q, venueID)
	if err != nil {
		return nil, err
	}
	var sections []model.Section
	for rows.Next() {
		var s model.Section
		if err := rows.Scan(&s.ID, &s.Name, &s.Color, &s.PriceMultiplier); err != nil {
			rows.Close()
			return nil, err
		}
		sections = append(sections, s)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Polygons are read per section so each keeps its vertex order.
	for i := range sections {
		poly, err := r.points(ctx,
			"SELECT x, y FROM section_points WHERE venue_id = ? AND section_id = ? ORDER BY position",
			venueID, sections[i].ID)
		if err != nil {
			return nil, err
		}
		sections[i].Polygon = poly
	}
	return sections, nil
}

func (r *VenueRepo) seats(ctx context.Context, venueID string) ([]model.Seat, error) {
	const q = `SELECT s.id, s.section_id, s.row_label, s.number, s.x, s.y, s.status
		FROM seats s
		LEFT JOIN sections sec ON sec.venue_id = s.venue_id AND sec.id = s.section_id
		WHERE s.venue_id = ?
		ORDER BY sec.position, s.row_label, s.number`
	rows, err := r.db.QueryContext(ctx, q, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var seats []model.Seat
	for rows.Next() {
		var s model.Seat
		var status string
		if err := rows.Scan(&s.ID, &s.SectionID, &s.Row, &s.Number, &s.X, &s.Y, &status); err != nil {
			return nil, err
		}
		s.Status = model.SeatStatus(status)
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// SetSeatStatus persists a seat's venue-wide status.  Only available, taken
// and reserved may be stored.
func (r *VenueRepo) SetSeatStatus(ctx context.Context, venueID, seatID string, status model.SeatStatus) error {
	if !status.Valid() || status == model.SeatSelected {
		return ErrConflict
	}
	const q = "UPDATE seats SET status = ? WHERE venue_id = ? AND id = ?"
	res, err := r.db.ExecContext(ctx, q, string(status), venueID, seatID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// MySQL reports zero affected rows when the value is unchanged.
		var exists int
		err := r.db.QueryRowContext(ctx,
			"SELECT 1 FROM seats WHERE venue_id = ? AND id = ? LIMIT 1", venueID, seatID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSeatNotFound
		}
		return err
	}
	return nil
}
