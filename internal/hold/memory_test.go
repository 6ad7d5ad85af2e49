package hold

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/venue-seating/internal/clock"
)

var epoch = time.Date(2026, 3, 1, 19, 30, 0, 0, time.UTC)

func newMemory(t *testing.T) (*Memory, *clock.Fake) {
	t.Helper()
	c := clock.NewFake(epoch)
	m := NewMemory(c, time.Minute, 0)
	t.Cleanup(func() { m.Close() })
	return m, c
}

func TestMemoryGrantAndConflict(t *testing.T) {
	m, _ := newMemory(t)
	ctx := context.Background()

	h, err := m.Request(ctx, Request{VenueID: "arena", SeatID: "P-A3", Holder: "s1"})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if h.Token == "" || !h.ExpiresAt.Equal(epoch.Add(time.Minute)) {
		t.Fatalf("unexpected hold %+v", h)
	}
	if _, err := m.Request(ctx, Request{VenueID: "arena", SeatID: "P-A3", Holder: "s2"}); !errors.Is(err, ErrHeld) {
		t.Fatalf("want ErrHeld, got %v", err)
	}
	// Another venue's seat with the same id is independent.
	if _, err := m.Request(ctx, Request{VenueID: "hall", SeatID: "P-A3", Holder: "s2"}); err != nil {
		t.Fatalf("other venue: %v", err)
	}
}

func TestMemorySameHolderExtends(t *testing.T) {
	m, c := newMemory(t)
	ctx := context.Background()

	first, err := m.Request(ctx, Request{VenueID: "arena", SeatID: "S-A1", Holder: "s1"})
	if err != nil {
		t.Fatal(err)
	}
	c.Advance(30 * time.Second)
	again, err := m.Request(ctx, Request{VenueID: "arena", SeatID: "S-A1", Holder: "s1"})
	if err != nil {
		t.Fatal(err)
	}
	if again.Token != first.Token {
		t.Fatalf("token changed: %s -> %s", first.Token, again.Token)
	}
	if !again.ExpiresAt.Equal(epoch.Add(90 * time.Second)) {
		t.Fatalf("expires at %v", again.ExpiresAt)
	}
}

func TestMemoryRelease(t *testing.T) {
	m, _ := newMemory(t)
	ctx := context.Background()

	h, err := m.Request(ctx, Request{VenueID: "arena", SeatID: "S-A2", Holder: "s1"})
	if err != nil {
		t.Fatal(err)
	}
	forged := h
	forged.Token = "nope"
	if err := m.Release(ctx, forged); !errors.Is(err, ErrNotHolder) {
		t.Fatalf("forged release: %v", err)
	}
	if err := m.Release(ctx, h); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := m.Release(ctx, h); !errors.Is(err, ErrNotHolder) {
		t.Fatalf("double release: %v", err)
	}
	if _, err := m.Request(ctx, Request{VenueID: "arena", SeatID: "S-A2", Holder: "s2"}); err != nil {
		t.Fatalf("seat not freed: %v", err)
	}
}

func TestMemoryExpiryIsReported(t *testing.T) {
	m, c := newMemory(t)
	ctx := context.Background()

	h, err := m.Request(ctx, Request{VenueID: "arena", SeatID: "B-A1", Holder: "s1", TTL: 10 * time.Second})
	if err != nil {
		t.Fatal(err)
	}
	c.Advance(9 * time.Second)
	if n, _ := m.Sweep(ctx); n != 0 {
		t.Fatalf("swept %d before deadline", n)
	}
	c.Advance(time.Second)
	if n, _ := m.Sweep(ctx); n != 1 {
		t.Fatalf("swept %d at deadline, want 1", n)
	}

	select {
	case e := <-m.Expired():
		if e.Hold.Token != h.Token || e.Reason != ReasonExpired {
			t.Fatalf("unexpected expiry %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("no expiry delivered")
	}

	if _, err := m.Renew(ctx, h, 0); !errors.Is(err, ErrNotHolder) {
		t.Fatalf("renew after expiry: %v", err)
	}
	if _, err := m.Request(ctx, Request{VenueID: "arena", SeatID: "B-A1", Holder: "s2"}); err != nil {
		t.Fatalf("expired seat not free: %v", err)
	}
}

func TestMemoryRenew(t *testing.T) {
	m, c := newMemory(t)
	ctx := context.Background()

	h, err := m.Request(ctx, Request{VenueID: "arena", SeatID: "S-B4", Holder: "s1"})
	if err != nil {
		t.Fatal(err)
	}
	c.Advance(50 * time.Second)
	h, err = m.Renew(ctx, h, 2*time.Minute)
	if err != nil {
		t.Fatalf("renew: %v", err)
	}
	c.Advance(time.Minute)
	if n, _ := m.Sweep(ctx); n != 0 {
		t.Fatalf("renewed hold swept")
	}
	if !h.ExpiresAt.Equal(epoch.Add(170 * time.Second)) {
		t.Fatalf("expires at %v", h.ExpiresAt)
	}
}

func TestMemoryClosed(t *testing.T) {
	m := NewMemory(clock.NewFake(epoch), time.Minute, 0)
	m.Close()
	m.Close()
	if _, err := m.Request(context.Background(), Request{VenueID: "arena", SeatID: "x", Holder: "s"}); !errors.Is(err, ErrClosed) {
		t.Fatalf("want ErrClosed, got %v", err)
	}
}

func TestLeaseValueRoundTrip(t *testing.T) {
	holder, token := parseLeaseValue("sess|a|tok")
	if holder != "sess|a" || token != "tok" {
		t.Fatalf("got %q %q", holder, token)
	}
}
