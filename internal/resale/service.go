package resale

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/iliyamo/venue-seating/internal/clock"
	"github.com/iliyamo/venue-seating/internal/model"
	"github.com/iliyamo/venue-seating/internal/money"
)

// TicketStore looks up the face value recorded when a ticket was issued.
type TicketStore interface {
	FaceValue(ctx context.Context, ticketID string) (money.Amount, error)
}

// ListingStore persists accepted listings.  CreateListing returns
// ErrAlreadyListed when the ticket is already on sale.
type ListingStore interface {
	CreateListing(ctx context.Context, l model.ResaleListing) error
}

// Publisher announces accepted listings to the marketplace.
type Publisher interface {
	ListingCreated(ctx context.Context, l model.ResaleListing) error
}

// Service implements submitListing.
type Service struct {
	Engine    Engine
	Tickets   TicketStore
	Listings  ListingStore
	Publisher Publisher // optional
	Clock     clock.Clock
}

// Submit prices and stores a listing for ticketID at price.  A publish
// failure is logged; the listing stands.
func (s *Service) Submit(ctx context.Context, ticketID string, price money.Amount) (model.ResaleListing, error) {
	if price <= 0 {
		return model.ResaleListing{}, ErrInvalidPrice
	}
	face, err := s.Tickets.FaceValue(ctx, ticketID)
	if err != nil {
		return model.ResaleListing{}, err
	}
	l, err := s.Engine.Price(ticketID, face, price)
	if err != nil {
		return model.ResaleListing{}, err
	}
	l.ID = uuid.NewString()
	c := s.Clock
	if c == nil {
		c = clock.Real()
	}
	l.CreatedAt = c.Now()
	if err := s.Listings.CreateListing(ctx, l); err != nil {
		return model.ResaleListing{}, err
	}
	if s.Publisher != nil {
		if err := s.Publisher.ListingCreated(ctx, l); err != nil {
			log.Printf("resale: publish listing %s: %v", l.ID, err)
		}
	}
	return l, nil
}

// MemoryStore keeps tickets and listings in memory.  It backs the server
// when no database is configured.
type MemoryStore struct {
	mu       sync.Mutex
	tickets  map[string]money.Amount
	listings map[string]model.ResaleListing // by ticket id
}

// NewMemoryStore returns a store knowing the given ticket face values.
func NewMemoryStore(tickets map[string]money.Amount) *MemoryStore {
	t := make(map[string]money.Amount, len(tickets))
	for k, v := range tickets {
		t[k] = v
	}
	return &MemoryStore{tickets: t, listings: make(map[string]model.ResaleListing)}
}

// FaceValue implements TicketStore.
func (m *MemoryStore) FaceValue(_ context.Context, ticketID string) (money.Amount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.tickets[ticketID]
	if !ok {
		return 0, ErrTicketNotFound
	}
	return v, nil
}

// CreateListing implements ListingStore.
func (m *MemoryStore) CreateListing(_ context.Context, l model.ResaleListing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.listings[l.TicketID]; ok {
		return ErrAlreadyListed
	}
	m.listings[l.TicketID] = l
	return nil
}

// Listing returns the listing for ticketID, if any.
func (m *MemoryStore) Listing(ticketID string) (model.ResaleListing, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[ticketID]
	return l, ok
}
