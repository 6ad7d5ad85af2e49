package hold

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/venue-seating/internal/model"
)

// releaseScript deletes the key only when it still carries the caller's value.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

// renewScript extends the key only when it still carries the caller's value.
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// Redis is an Authority backed by Redis keys with a PX expiry, so several
// server processes share one set of leases.  Each process watches the holds
// it granted and reports the ones whose keys vanished.
type Redis struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration

	mu     sync.Mutex
	issued map[string]model.SeatHold

	expired chan Expiry
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// NewRedis starts a Redis authority.  Keys are written as
// <prefix>:<venue>:<seat> and checked for loss every sweepEvery.
func NewRedis(rdb redis.UniversalClient, prefix string, ttl, sweepEvery time.Duration) *Redis {
	if prefix == "" {
		prefix = "hold"
	}
	if sweepEvery <= 0 {
		sweepEvery = time.Second
	}
	r := &Redis{
		rdb:     rdb,
		prefix:  prefix,
		ttl:     ttl,
		issued:  make(map[string]model.SeatHold),
		expired: make(chan Expiry, 64),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go r.watch(sweepEvery)
	return r
}

func (r *Redis) key(venueID, seatID string) string {
	return r.prefix + ":" + seatKey(venueID, seatID)
}

func leaseValue(h model.SeatHold) string {
	return h.Holder + "|" + h.Token
}

func parseLeaseValue(v string) (holder, token string) {
	i := strings.LastIndexByte(v, '|')
	if i < 0 {
		return v, ""
	}
	return v[:i], v[i+1:]
}

func (r *Redis) ttlOr(d time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return r.ttl
}

// Request implements Authority.
func (r *Redis) Request(ctx context.Context, req Request) (model.SeatHold, error) {
	if r.closed() {
		return model.SeatHold{}, ErrClosed
	}
	ttl := r.ttlOr(req.TTL)
	key := r.key(req.VenueID, req.SeatID)
	h := model.SeatHold{
		VenueID:   req.VenueID,
		SeatID:    req.SeatID,
		Holder:    req.Holder,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().UTC().Add(ttl),
	}
	ok, err := r.rdb.SetNX(ctx, key, leaseValue(h), ttl).Result()
	if err != nil {
		return model.SeatHold{}, err
	}
	if !ok {
		cur, err := r.rdb.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return r.Request(ctx, req)
		}
		if err != nil {
			return model.SeatHold{}, err
		}
		holder, token := parseLeaseValue(cur)
		if holder != req.Holder {
			return model.SeatHold{}, ErrHeld
		}
		h.Token = token
		renewed, err := r.Renew(ctx, h, ttl)
		if errors.Is(err, ErrNotHolder) {
			return r.Request(ctx, req)
		}
		return renewed, err
	}
	r.mu.Lock()
	r.issued[key] = h
	r.mu.Unlock()
	return h, nil
}

// Release implements Authority.
func (r *Redis) Release(ctx context.Context, h model.SeatHold) error {
	if r.closed() {
		return ErrClosed
	}
	key := r.key(h.VenueID, h.SeatID)
	n, err := releaseScript.Run(ctx, r.rdb, []string{key}, leaseValue(h)).Int()
	if err != nil {
		return err
	}
	r.mu.Lock()
	if cur, ok := r.issued[key]; ok && cur.Token == h.Token {
		delete(r.issued, key)
	}
	r.mu.Unlock()
	if n == 0 {
		return ErrNotHolder
	}
	return nil
}

// Renew implements Authority.
func (r *Redis) Renew(ctx context.Context, h model.SeatHold, ttl time.Duration) (model.SeatHold, error) {
	if r.closed() {
		return model.SeatHold{}, ErrClosed
	}
	ttl = r.ttlOr(ttl)
	key := r.key(h.VenueID, h.SeatID)
	n, err := renewScript.Run(ctx, r.rdb, []string{key}, leaseValue(h), ttl.Milliseconds()).Int()
	if err != nil {
		return model.SeatHold{}, err
	}
	if n == 0 {
		return model.SeatHold{}, ErrNotHolder
	}
	h.ExpiresAt = time.Now().UTC().Add(ttl)
	r.mu.Lock()
	r.issued[key] = h
	r.mu.Unlock()
	return h, nil
}

// Expired implements Authority.
func (r *Redis) Expired() <-chan Expiry { return r.expired }

// Close implements Authority.
func (r *Redis) Close() error {
	r.once.Do(func() { close(r.done) })
	<-r.stopped
	return nil
}

func (r *Redis) closed() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

func (r *Redis) watch(every time.Duration) {
	defer close(r.stopped)
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-r.done:
			return
		case <-t.C:
			ctx, cancel := context.WithTimeout(context.Background(), every)
			if err := r.check(ctx); err != nil {
				log.Printf("hold: redis sweep failed: %v", err)
			}
			cancel()
		}
	}
}

// check compares every issued hold with the value stored in Redis.
func (r *Redis) check(ctx context.Context) error {
	r.mu.Lock()
	keys := make([]string, 0, len(r.issued))
	for k := range r.issued {
		keys = append(keys, k)
	}
	r.mu.Unlock()
	if len(keys) == 0 {
		return nil
	}
	vals, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	var lapsed []Expiry
	r.mu.Lock()
	for i, k := range keys {
		h, ok := r.issued[k]
		if !ok {
			continue
		}
		s, _ := vals[i].(string)
		if s == leaseValue(h) {
			continue
		}
		delete(r.issued, k)
		reason := ReasonLost
		if s == "" && !now.Before(h.ExpiresAt) {
			reason = ReasonExpired
		}
		lapsed = append(lapsed, Expiry{Hold: h, Reason: reason})
	}
	r.mu.Unlock()
	for _, e := range lapsed {
		select {
		case r.expired <- e:
		case <-r.done:
			return nil
		}
	}
	return nil
}
