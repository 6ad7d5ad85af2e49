package hold

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/venue-seating/internal/clock"
	"github.com/iliyamo/venue-seating/internal/model"
)

// Memory is an in-process Authority.  A single goroutine owns every lease;
// callers talk to it only through messages, so no lease state is shared.
type Memory struct {
	clock clock.Clock
	ttl   time.Duration

	inbox   chan any
	expired chan Expiry
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

type requestMsg struct {
	req   Request
	reply chan leaseReply
}

type releaseMsg struct {
	hold  model.SeatHold
	reply chan error
}

type renewMsg struct {
	hold  model.SeatHold
	ttl   time.Duration
	reply chan leaseReply
}

type sweepMsg struct {
	reply chan int
}

type leaseReply struct {
	hold model.SeatHold
	err  error
}

// NewMemory starts a Memory authority.  Leases are checked for expiry every
// sweepEvery; zero disables the ticker and leaves sweeping to Sweep.
func NewMemory(c clock.Clock, ttl, sweepEvery time.Duration) *Memory {
	m := &Memory{
		clock:   c,
		ttl:     ttl,
		inbox:   make(chan any),
		expired: make(chan Expiry),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go m.run(sweepEvery)
	return m
}

func (m *Memory) run(sweepEvery time.Duration) {
	defer close(m.stopped)

	leases := make(map[string]model.SeatHold)
	var pending []Expiry

	var tick <-chan time.Time
	if sweepEvery > 0 {
		t := time.NewTicker(sweepEvery)
		defer t.Stop()
		tick = t.C
	}

	sweep := func() int {
		now := m.clock.Now()
		n := 0
		for k, h := range leases {
			if !now.Before(h.ExpiresAt) {
				delete(leases, k)
				pending = append(pending, Expiry{Hold: h, Reason: ReasonExpired})
				n++
			}
		}
		return n
	}

	for {
		// Expiries queue up here so a slow reader never blocks requests.
		var out chan Expiry
		var next Expiry
		if len(pending) > 0 {
			out = m.expired
			next = pending[0]
		}

		select {
		case <-m.done:
			return
		case <-tick:
			sweep()
		case out <- next:
			pending = pending[1:]
		case msg := <-m.inbox:
			switch msg := msg.(type) {
			case requestMsg:
				sweep()
				msg.reply <- m.grant(leases, msg.req)
			case releaseMsg:
				k := seatKey(msg.hold.VenueID, msg.hold.SeatID)
				cur, ok := leases[k]
				if !ok || cur.Token != msg.hold.Token || !m.clock.Now().Before(cur.ExpiresAt) {
					msg.reply <- ErrNotHolder
					continue
				}
				delete(leases, k)
				msg.reply <- nil
			case renewMsg:
				k := seatKey(msg.hold.VenueID, msg.hold.SeatID)
				cur, ok := leases[k]
				if !ok || cur.Token != msg.hold.Token || !m.clock.Now().Before(cur.ExpiresAt) {
					msg.reply <- leaseReply{err: ErrNotHolder}
					continue
				}
				cur.ExpiresAt = m.clock.Now().Add(m.ttlOr(msg.ttl))
				leases[k] = cur
				msg.reply <- leaseReply{hold: cur}
			case sweepMsg:
				msg.reply <- sweep()
			}
		}
	}
}

func (m *Memory) grant(leases map[string]model.SeatHold, req Request) leaseReply {
	k := seatKey(req.VenueID, req.SeatID)
	now := m.clock.Now()
	if cur, ok := leases[k]; ok {
		if cur.Holder != req.Holder {
			return leaseReply{err: ErrHeld}
		}
		cur.ExpiresAt = now.Add(m.ttlOr(req.TTL))
		leases[k] = cur
		return leaseReply{hold: cur}
	}
	h := model.SeatHold{
		VenueID:   req.VenueID,
		SeatID:    req.SeatID,
		Holder:    req.Holder,
		Token:     uuid.NewString(),
		ExpiresAt: now.Add(m.ttlOr(req.TTL)),
	}
	leases[k] = h
	return leaseReply{hold: h}
}

func (m *Memory) ttlOr(d time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return m.ttl
}

func (m *Memory) send(ctx context.Context, msg any) error {
	select {
	case m.inbox <- msg:
		return nil
	case <-m.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Request implements Authority.
func (m *Memory) Request(ctx context.Context, req Request) (model.SeatHold, error) {
	reply := make(chan leaseReply, 1)
	if err := m.send(ctx, requestMsg{req: req, reply: reply}); err != nil {
		return model.SeatHold{}, err
	}
	r := <-reply
	return r.hold, r.err
}

// Release implements Authority.
func (m *Memory) Release(ctx context.Context, h model.SeatHold) error {
	reply := make(chan error, 1)
	if err := m.send(ctx, releaseMsg{hold: h, reply: reply}); err != nil {
		return err
	}
	return <-reply
}

// Renew implements Authority.
func (m *Memory) Renew(ctx context.Context, h model.SeatHold, ttl time.Duration) (model.SeatHold, error) {
	reply := make(chan leaseReply, 1)
	if err := m.send(ctx, renewMsg{hold: h, ttl: ttl, reply: reply}); err != nil {
		return model.SeatHold{}, err
	}
	r := <-reply
	return r.hold, r.err
}

// Sweep expires every lease past its deadline and returns how many lapsed.
func (m *Memory) Sweep(ctx context.Context) (int, error) {
	reply := make(chan int, 1)
	if err := m.send(ctx, sweepMsg{reply: reply}); err != nil {
		return 0, err
	}
	return <-reply, nil
}

// Expired implements Authority.
func (m *Memory) Expired() <-chan Expiry { return m.expired }

// Close implements Authority.
func (m *Memory) Close() error {
	m.once.Do(func() { close(m.done) })
	<-m.stopped
	return nil
}
