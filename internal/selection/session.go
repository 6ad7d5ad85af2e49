// Package selection holds the per-user seat selection state.  A Session is
// a client of the hold authority: the authority decides who may hold a seat,
// the session only remembers what it was granted.
package selection

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/iliyamo/venue-seating/internal/clock"
	"github.com/iliyamo/venue-seating/internal/hold"
	"github.com/iliyamo/venue-seating/internal/model"
	"github.com/iliyamo/venue-seating/internal/venue"
)

// MaxSeats is the most seats one session may hold.
const MaxSeats = 10

// Logger is the subset of *log.Logger used by this package.
type Logger interface {
	Printf(format string, v ...any)
}

// Snapshot is a consistent copy of a session taken under its lock.
type Snapshot struct {
	ID      string            `json:"id"`
	VenueID string            `json:"venue_id"`
	SeatIDs []string          `json:"seat_ids"`
	AddOns  []model.AddOnLine `json:"addons"`
	Version uint64            `json:"version"`
}

// Session is one user's seat selection for one venue.  All methods are safe
// for concurrent use; every mutation happens under a single lock, so a
// Snapshot never reflects half an operation.
type Session struct {
	id    string
	idx   *venue.Index
	auth  hold.Authority
	ttl   time.Duration
	clock clock.Clock
	log   Logger

	mu       sync.Mutex
	seats    []string
	holds    map[string]model.SeatHold
	taken    map[string]bool
	addOns   []model.AddOnLine
	version  uint64
	lastUsed time.Time
	closed   bool
}

// SessionOptions configures NewSession.  Auth may be nil, in which case the
// session trusts the venue's persisted statuses alone.
type SessionOptions struct {
	Auth    hold.Authority
	HoldTTL time.Duration
	Clock   clock.Clock
	Logger  Logger
}

// NewSession opens an empty selection over idx.
func NewSession(id string, idx *venue.Index, opts SessionOptions) *Session {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Session{
		id:       id,
		idx:      idx,
		auth:     opts.Auth,
		ttl:      opts.HoldTTL,
		clock:    opts.Clock,
		log:      opts.Logger,
		holds:    make(map[string]model.SeatHold),
		taken:    make(map[string]bool),
		lastUsed: opts.Clock.Now(),
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// VenueID returns the id of the venue being selected from.
func (s *Session) VenueID() string { return s.idx.ID() }

// Index returns the venue the session selects from.
func (s *Session) Index() *venue.Index { return s.idx }

// Select adds seatID to the selection.
func (s *Session) Select(ctx context.Context, seatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.lastUsed = s.clock.Now()
	s.renewLocked(ctx)

	seat, ok := s.idx.Seat(seatID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSeat, seatID)
	}
	if slices.Contains(s.seats, seatID) {
		return fmt.Errorf("%w: %s", ErrAlreadySelected, seatID)
	}
	if len(s.seats) >= MaxSeats {
		return ErrCapacityExceeded
	}
	if s.taken[seatID] || seat.Status != model.SeatAvailable {
		return fmt.Errorf("%w: %s", ErrSeatUnavailable, seatID)
	}

	if s.auth != nil {
		h, err := s.auth.Request(ctx, hold.Request{
			VenueID: s.idx.ID(),
			SeatID:  seatID,
			Holder:  s.id,
			TTL:     s.ttl,
		})
		if errors.Is(err, hold.ErrHeld) {
			return fmt.Errorf("%w: %s is held by another session", ErrSeatUnavailable, seatID)
		}
		if err != nil {
			return fmt.Errorf("request hold %s: %w", seatID, err)
		}
		s.holds[seatID] = h
	}

	s.seats = append(s.seats, seatID)
	s.version++
	return nil
}

// Deselect removes seatID from the selection.  Deselecting a seat that is
// not selected does nothing.
func (s *Session) Deselect(ctx context.Context, seatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.lastUsed = s.clock.Now()
	s.renewLocked(ctx)
	if !s.drop(seatID) {
		return nil
	}
	s.release(ctx, seatID)
	s.version++
	return nil
}

// Clear empties the selection and releases every hold.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.lastUsed = s.clock.Now()
	s.clearLocked(ctx)
	return nil
}

func (s *Session) clearLocked(ctx context.Context) {
	if len(s.seats) == 0 {
		return
	}
	for _, id := range s.seats {
		s.release(ctx, id)
	}
	s.seats = nil
	s.version++
}

// CanSelectMore reports whether another seat fits in the selection.
func (s *Session) CanSelectMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seats) < MaxSeats
}

// Len returns the number of selected seats.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seats)
}

// SeatIDs returns the selected seats in the order they were added.
func (s *Session) SeatIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.seats)
}

// StatusOf reports the seat's status as seen by this session.
func (s *Session) StatusOf(seatID string) (model.SeatStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked(seatID)
}

func (s *Session) statusLocked(seatID string) (model.SeatStatus, bool) {
	seat, ok := s.idx.Seat(seatID)
	if !ok {
		return "", false
	}
	switch {
	case s.taken[seatID]:
		return model.SeatTaken, true
	case slices.Contains(s.seats, seatID):
		return model.SeatSelected, true
	}
	return seat.Status, true
}

// View returns every seat of the venue with the status this session sees.
func (s *Session) View() []model.Seat {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.idx.Venue()
	for i := range v.Layout.Seats {
		st, _ := s.statusLocked(v.Layout.Seats[i].ID)
		v.Layout.Seats[i].Status = st
	}
	return v.Layout.Seats
}

// SetAddOns replaces the chosen add-on quantities.
func (s *Session) SetAddOns(ctx context.Context, lines []model.AddOnLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.lastUsed = s.clock.Now()
	s.renewLocked(ctx)
	s.addOns = slices.Clone(lines)
	s.version++
	return nil
}

// Snapshot returns the selection and add-on choices as of one instant.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:      s.id,
		VenueID: s.idx.ID(),
		SeatIDs: slices.Clone(s.seats),
		AddOns:  slices.Clone(s.addOns),
		Version: s.version,
	}
}

// MarkTaken records that seatID was allocated elsewhere.  When the session
// held the seat it is evicted and MarkTaken returns true.
func (s *Session) MarkTaken(ctx context.Context, seatID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.idx.Seat(seatID); !ok {
		return false
	}
	s.taken[seatID] = true
	if !s.drop(seatID) {
		return false
	}
	s.release(ctx, seatID)
	s.version++
	return true
}

// expire evicts the seat covered by h if the session still holds that
// exact lease.
func (s *Session) expire(h model.SeatHold) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.holds[h.SeatID]
	if !ok || cur.Token != h.Token {
		return false
	}
	delete(s.holds, h.SeatID)
	s.drop(h.SeatID)
	s.version++
	return true
}

// Close releases every hold and rejects further mutations.
func (s *Session) Close(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.clearLocked(ctx)
	s.closed = true
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// drop removes seatID from the ordered list.
func (s *Session) drop(seatID string) bool {
	i := slices.Index(s.seats, seatID)
	if i < 0 {
		return false
	}
	s.seats = slices.Delete(s.seats, i, i+1)
	return true
}

// renewLocked extends every lease due to lapse within half the hold TTL, so
// holds last as long as the user keeps working on the selection.  A lease
// the authority no longer recognises is left to its expiry message.
func (s *Session) renewLocked(ctx context.Context) {
	if s.auth == nil {
		return
	}
	now := s.clock.Now()
	for seatID, h := range s.holds {
		if s.ttl > 0 && h.ExpiresAt.Sub(now) > s.ttl/2 {
			continue
		}
		next, err := s.auth.Renew(ctx, h, s.ttl)
		if err != nil {
			if !errors.Is(err, hold.ErrNotHolder) {
				s.log.Printf("selection: renew hold %s/%s: %v", h.VenueID, seatID, err)
			}
			continue
		}
		s.holds[seatID] = next
	}
}

func (s *Session) release(ctx context.Context, seatID string) {
	h, ok := s.holds[seatID]
	if !ok {
		return
	}
	delete(s.holds, seatID)
	if err := s.auth.Release(ctx, h); err != nil && !errors.Is(err, hold.ErrNotHolder) {
		s.log.Printf("selection: release hold %s/%s: %v", h.VenueID, seatID, err)
	}
}
