package repository

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/iliyamo/venue-seating/internal/clock"
	"github.com/iliyamo/venue-seating/internal/hold"
	"github.com/iliyamo/venue-seating/internal/model"
)

// SeatHoldRepo is a hold.Authority backed by the seat_holds table.  One row
// per held seat; the primary key on (venue_id, seat_id) makes the database
// the single authority.  Lapsed rows are removed by a periodic sweep, which
// reports each one on Expired.
type SeatHoldRepo struct {
	db    *sql.DB
	clock clock.Clock
	ttl   time.Duration

	expired chan hold.Expiry
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

var _ hold.Authority = (*SeatHoldRepo)(nil)

// NewSeatHoldRepo returns a SeatHoldRepo bound to db and starts its sweeper.
// A zero sweepEvery leaves sweeping to Sweep.
func NewSeatHoldRepo(db *sql.DB, c clock.Clock, ttl, sweepEvery time.Duration) *SeatHoldRepo {
	r := &SeatHoldRepo{
		db:      db,
		clock:   c,
		ttl:     ttl,
		expired: make(chan hold.Expiry, 64),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go r.run(sweepEvery)
	return r
}

// randomToken generates a random hexadecimal string of n bytes for the
// hold_token column.
func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (r *SeatHoldRepo) ttlOr(d time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return r.ttl
}

func (r *SeatHoldRepo) closed() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Request implements hold.Authority.  The current row is locked with
// SELECT ... FOR UPDATE; a lapsed row is replaced, the caller's own row is
// extended and anyone else's row fails with hold.ErrHeld.
func (r *SeatHoldRepo) Request(ctx context.Context, req hold.Request) (model.SeatHold, error) {
	if r.closed() {
		return model.SeatHold{}, hold.ErrClosed
	}
	now := r.clock.Now()
	h := model.SeatHold{
		VenueID:   req.VenueID,
		SeatID:    req.SeatID,
		Holder:    req.Holder,
		ExpiresAt: now.Add(r.ttlOr(req.TTL)),
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.SeatHold{}, err
	}
	defer tx.Rollback()

	var cur model.SeatHold
	var stale bool
	err = tx.QueryRowContext(ctx,
		`SELECT holder, hold_token, expires_at FROM seat_holds WHERE venue_id = ? AND seat_id = ? FOR UPDATE`,
		req.VenueID, req.SeatID,
	).Scan(&cur.Holder, &cur.Token, &cur.ExpiresAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		h.Token, err = randomToken(32)
		if err != nil {
			return model.SeatHold{}, err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO seat_holds (venue_id, seat_id, holder, hold_token, expires_at) VALUES (?, ?, ?, ?, ?)`,
			h.VenueID, h.SeatID, h.Holder, h.Token, h.ExpiresAt,
		)
		if isDuplicateKey(err) {
			return model.SeatHold{}, hold.ErrHeld
		}
	case err != nil:
		return model.SeatHold{}, err
	case cur.Holder == req.Holder && now.Before(cur.ExpiresAt):
		h.Token = cur.Token
		_, err = tx.ExecContext(ctx,
			`UPDATE seat_holds SET expires_at = ? WHERE venue_id = ? AND seat_id = ?`,
			h.ExpiresAt, h.VenueID, h.SeatID,
		)
	case now.Before(cur.ExpiresAt):
		return model.SeatHold{}, hold.ErrHeld
	default:
		// The row lapsed before the sweeper saw it; report it and take over.
		cur.VenueID, cur.SeatID = req.VenueID, req.SeatID
		stale = true
		h.Token, err = randomToken(32)
		if err != nil {
			return model.SeatHold{}, err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE seat_holds SET holder = ?, hold_token = ?, expires_at = ? WHERE venue_id = ? AND seat_id = ?`,
			h.Holder, h.Token, h.ExpiresAt, h.VenueID, h.SeatID,
		)
	}
	if err != nil {
		return model.SeatHold{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.SeatHold{}, err
	}
	if stale {
		// Callers may hold a session lock; never block them on the router.
		go r.report(cur)
	}
	return h, nil
}

// Release implements hold.Authority.
func (r *SeatHoldRepo) Release(ctx context.Context, h model.SeatHold) error {
	if r.closed() {
		return hold.ErrClosed
	}
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM seat_holds WHERE venue_id = ? AND seat_id = ? AND hold_token = ? AND expires_at > ?`,
		h.VenueID, h.SeatID, h.Token, r.clock.Now(),
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return hold.ErrNotHolder
	}
	return nil
}

// Renew implements hold.Authority.
func (r *SeatHoldRepo) Renew(ctx context.Context, h model.SeatHold, ttl time.Duration) (model.SeatHold, error) {
	if r.closed() {
		return model.SeatHold{}, hold.ErrClosed
	}
	now := r.clock.Now()
	next := now.Add(r.ttlOr(ttl))
	res, err := r.db.ExecContext(ctx,
		`UPDATE seat_holds SET expires_at = ? WHERE venue_id = ? AND seat_id = ? AND hold_token = ? AND expires_at > ?`,
		next, h.VenueID, h.SeatID, h.Token, now,
	)
	if err != nil {
		return model.SeatHold{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.SeatHold{}, hold.ErrNotHolder
	}
	h.ExpiresAt = next
	return h, nil
}

// Sweep removes every lapsed hold in one transaction and reports each on
// Expired.  It returns how many were removed.
func (r *SeatHoldRepo) Sweep(ctx context.Context) (int, error) {
	now := r.clock.Now()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT venue_id, seat_id, holder, hold_token, expires_at FROM seat_holds WHERE expires_at <= ? FOR UPDATE`,
		now,
	)
	if err != nil {
		return 0, err
	}
	var lapsed []model.SeatHold
	for rows.Next() {
		var h model.SeatHold
		if err := rows.Scan(&h.VenueID, &h.SeatID, &h.Holder, &h.Token, &h.ExpiresAt); err != nil {
			rows.Close()
			return 0, err
		}
		lapsed = append(lapsed, h)
	}
	if err := rows.Close(); err != nil {
		return 0, err
	}
	if len(lapsed) == 0 {
		return 0, nil
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM seat_holds WHERE expires_at <= ?`, now); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	for _, h := range lapsed {
		r.report(h)
	}
	return len(lapsed), nil
}

func (r *SeatHoldRepo) report(h model.SeatHold) {
	select {
	case r.expired <- hold.Expiry{Hold: h, Reason: hold.ReasonExpired}:
	case <-r.done:
	}
}

// Expired implements hold.Authority.
func (r *SeatHoldRepo) Expired() <-chan hold.Expiry { return r.expired }

// Close implements hold.Authority.
func (r *SeatHoldRepo) Close() error {
	r.once.Do(func() { close(r.done) })
	<-r.stopped
	return nil
}

func (r *SeatHoldRepo) run(every time.Duration) {
	defer close(r.stopped)
	if every <= 0 {
		<-r.done
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-r.done:
			return
		case <-t.C:
			ctx, cancel := context.WithTimeout(context.Background(), every+5*time.Second)
			if _, err := r.Sweep(ctx); err != nil {
				log.Printf("hold: mysql sweep failed: %v", err)
			}
			cancel()
		}
	}
}
