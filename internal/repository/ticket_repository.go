package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/venue-seating/internal/model"
	"github.com/iliyamo/venue-seating/internal/money"
	"github.com/iliyamo/venue-seating/internal/resale"
)

// TicketRepo reads issued tickets.  It implements resale.TicketStore.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo constructs a TicketRepo with the provided DB handle.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// FaceValue returns the price recorded when the ticket was issued.
func (r *TicketRepo) FaceValue(ctx context.Context, ticketID string) (money.Amount, error) {
	const q = "SELECT face_value_pence FROM tickets WHERE id = ?"
	var pence int64
	if err := r.db.QueryRowContext(ctx, q, ticketID).Scan(&pence); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, resale.ErrTicketNotFound
		}
		return 0, err
	}
	return money.Amount(pence), nil
}

// ListingRepo stores accepted resale listings.  It implements
// resale.ListingStore.
type ListingRepo struct {
	db *sql.DB
}

// NewListingRepo constructs a ListingRepo with the provided DB handle.
func NewListingRepo(db *sql.DB) *ListingRepo { return &ListingRepo{db: db} }

// CreateListing inserts l.  The unique key on ticket_id turns a second
// listing for the same ticket into resale.ErrAlreadyListed.
func (r *ListingRepo) CreateListing(ctx context.Context, l model.ResaleListing) error {
	const q = `INSERT INTO resale_listings
		(id, ticket_id, face_value_pence, listing_price_pence, cap_pence, fee_pence, payout_pence, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		l.ID, l.TicketID, int64(l.FaceValue), int64(l.ListingPrice),
		int64(l.Cap), int64(l.Fee), int64(l.Payout),
		l.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
	if isDuplicateKey(err) {
		return resale.ErrAlreadyListed
	}
	return err
}
