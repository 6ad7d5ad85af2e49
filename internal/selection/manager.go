package selection

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/venue-seating/internal/clock"
	"github.com/iliyamo/venue-seating/internal/hold"
	"github.com/iliyamo/venue-seating/internal/venue"
)

// Eviction reasons.
const (
	ReasonTaken   = "taken"
	ReasonExpired = hold.ReasonExpired
	ReasonLost    = hold.ReasonLost
)

// Eviction tells a client that a selected seat was removed from its session.
type Eviction struct {
	SessionID string `json:"session_id"`
	VenueID   string `json:"venue_id"`
	SeatID    string `json:"seat_id"`
	Reason    string `json:"reason"`
}

// VenueLoader resolves a venue id to a validated Index.
type VenueLoader interface {
	Load(ctx context.Context, id string) (*venue.Index, error)
}

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	Auth       hold.Authority
	HoldTTL    time.Duration
	IdleTTL    time.Duration
	SweepEvery time.Duration
	Clock      clock.Clock
	Logger     Logger
}

type subscriber struct {
	sessionID string
	ch        chan Eviction
}

// Manager owns the open sessions.  It routes hold-expired and seat-taken
// messages to the sessions they concern and fans evictions out to
// subscribers.
type Manager struct {
	loader VenueLoader
	opts   ManagerOptions

	mu       sync.RWMutex
	sessions map[string]*Session
	taken    map[string]map[string]bool // venue -> seat

	subMu  sync.Mutex
	subs   map[int]subscriber
	nextID int
}

// NewManager returns a Manager loading venues through loader.
func NewManager(loader VenueLoader, opts ManagerOptions) *Manager {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.SweepEvery <= 0 {
		opts.SweepEvery = time.Minute
	}
	return &Manager{
		loader:   loader,
		opts:     opts,
		sessions: make(map[string]*Session),
		taken:    make(map[string]map[string]bool),
		subs:     make(map[int]subscriber),
	}
}

// Open starts a new session on venueID.
func (m *Manager) Open(ctx context.Context, venueID string) (*Session, error) {
	idx, err := m.loader.Load(ctx, venueID)
	if err != nil {
		return nil, err
	}
	s := NewSession(uuid.NewString(), idx, SessionOptions{
		Auth:    m.opts.Auth,
		HoldTTL: m.opts.HoldTTL,
		Clock:   m.opts.Clock,
		Logger:  m.opts.Logger,
	})

	m.mu.Lock()
	for seatID := range m.taken[venueID] {
		s.taken[seatID] = true
	}
	m.sessions[s.id] = s
	m.mu.Unlock()
	return s, nil
}

// Get returns the open session with id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Close ends the session and releases its holds.
func (m *Manager) Close(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.Close(ctx)
	return nil
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// MarkTaken applies an external allocation of seatID to every session on
// venueID and returns the evictions it caused.
func (m *Manager) MarkTaken(ctx context.Context, venueID, seatID string) []Eviction {
	m.mu.Lock()
	if m.taken[venueID] == nil {
		m.taken[venueID] = make(map[string]bool)
	}
	m.taken[venueID][seatID] = true
	var targets []*Session
	for _, s := range m.sessions {
		if s.VenueID() == venueID {
			targets = append(targets, s)
		}
	}
	m.mu.Unlock()

	var out []Eviction
	for _, s := range targets {
		if s.MarkTaken(ctx, seatID) {
			ev := Eviction{SessionID: s.id, VenueID: venueID, SeatID: seatID, Reason: ReasonTaken}
			out = append(out, ev)
			m.publish(ev)
		}
	}
	return out
}

// IsTaken reports whether seatID on venueID was allocated through MarkTaken.
func (m *Manager) IsTaken(venueID, seatID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.taken[venueID][seatID]
}

// HandleExpiry evicts the seat covered by an expired hold.
func (m *Manager) HandleExpiry(e hold.Expiry) (Eviction, bool) {
	m.mu.RLock()
	s, ok := m.sessions[e.Hold.Holder]
	m.mu.RUnlock()
	if !ok || !s.expire(e.Hold) {
		return Eviction{}, false
	}
	ev := Eviction{SessionID: s.id, VenueID: e.Hold.VenueID, SeatID: e.Hold.SeatID, Reason: e.Reason}
	m.publish(ev)
	return ev, true
}

// Subscribe returns a channel of evictions for sessionID, or for every
// session when sessionID is empty.  The returned func unsubscribes.
func (m *Manager) Subscribe(sessionID string) (<-chan Eviction, func()) {
	ch := make(chan Eviction, 16)
	m.subMu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = subscriber{sessionID: sessionID, ch: ch}
	m.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.subMu.Lock()
			delete(m.subs, id)
			m.subMu.Unlock()
			close(ch)
		})
	}
}

func (m *Manager) publish(ev Eviction) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	for _, sub := range m.subs {
		if sub.sessionID != "" && sub.sessionID != ev.SessionID {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			m.opts.Logger.Printf("selection: dropped eviction %s/%s for slow subscriber", ev.SessionID, ev.SeatID)
		}
	}
}

// SweepIdle closes sessions unused for longer than the idle TTL and
// returns how many were closed.
func (m *Manager) SweepIdle(ctx context.Context) int {
	if m.opts.IdleTTL <= 0 {
		return 0
	}
	cutoff := m.opts.Clock.Now().Add(-m.opts.IdleTTL)
	m.mu.Lock()
	var idle []*Session
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()
	for _, s := range idle {
		s.Close(ctx)
	}
	if len(idle) > 0 {
		m.opts.Logger.Printf("selection: closed %d idle sessions", len(idle))
	}
	return len(idle)
}

// Run routes hold expiries and sweeps idle sessions until ctx is done.
// Open sessions are closed on return.
func (m *Manager) Run(ctx context.Context) {
	var expired <-chan hold.Expiry
	if m.opts.Auth != nil {
		expired = m.opts.Auth.Expired()
	}
	t := time.NewTicker(m.opts.SweepEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			m.closeAll()
			return
		case e := <-expired:
			if ev, ok := m.HandleExpiry(e); ok {
				m.opts.Logger.Printf("selection: evicted %s from %s (%s)", ev.SeatID, ev.SessionID, ev.Reason)
			}
		case <-t.C:
			m.SweepIdle(ctx)
		}
	}
}

func (m *Manager) closeAll() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, s := range all {
		s.Close(ctx)
	}
}
