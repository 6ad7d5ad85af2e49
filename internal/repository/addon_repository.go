package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/venue-seating/internal/model"
	"github.com/iliyamo/venue-seating/internal/money"
)

// AddOnRepo reads per-venue add-on catalogues from the addons table.
type AddOnRepo struct {
	db *sql.DB
}

// NewAddOnRepo constructs an AddOnRepo with the provided DB handle.
func NewAddOnRepo(db *sql.DB) *AddOnRepo { return &AddOnRepo{db: db} }

// ForVenue returns the venue's add-ons in display order.  An empty result
// means the venue sells the default catalogue.
func (r *AddOnRepo) ForVenue(ctx context.Context, venueID string) ([]model.AddOn, error) {
	const q = `SELECT id, name, unit_price_pence, percent_bps, stock
		FROM addons WHERE venue_id = ? ORDER BY position`
	rows, err := r.db.QueryContext(ctx, q, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.AddOn
	for rows.Next() {
		var (
			a     model.AddOn
			unit  int64
			stock sql.NullInt64
		)
		if err := rows.Scan(&a.ID, &a.Name, &unit, &a.PercentBps, &stock); err != nil {
			return nil, err
		}
		a.UnitPrice = money.Amount(unit)
		if stock.Valid {
			n := int(stock.Int64)
			a.Stock = &n
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
