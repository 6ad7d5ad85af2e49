// Package settings holds the display currency and locale shared by every
// surface of the service.  Handlers receive a *Store explicitly; a change
// bumps the version so readers can tell their snapshot is stale.
package settings

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/iliyamo/venue-seating/internal/money"
)

// ErrInvalidSettings means the currency or locale could not be parsed.
var ErrInvalidSettings = errors.New("invalid settings")

// Snapshot is an immutable view of the settings at one version.
type Snapshot struct {
	Version   uint64    `json:"version"`
	Currency  string    `json:"currency"`
	Locale    string    `json:"locale"`
	UpdatedAt time.Time `json:"updated_at"`

	unit currency.Unit
	tag  language.Tag
}

// Format renders an amount for display, e.g. "£563.20" for en-GB/GBP.
func (s Snapshot) Format(a money.Amount) string {
	p := message.NewPrinter(s.tag)
	return p.Sprint(currency.Symbol(s.unit.Amount(a.Major())))
}

// Store is a versioned settings holder.
type Store struct {
	cur atomic.Pointer[Snapshot]
}

// NewStore returns a store at version 1 with the given currency code and
// BCP 47 locale.
func NewStore(code, locale string) (*Store, error) {
	snap, err := build(code, locale)
	if err != nil {
		return nil, err
	}
	snap.Version = 1
	snap.UpdatedAt = time.Now().UTC()
	s := &Store{}
	s.cur.Store(&snap)
	return s, nil
}

// Snapshot returns the current settings.
func (s *Store) Snapshot() Snapshot {
	return *s.cur.Load()
}

// Update replaces the settings and returns the new snapshot.  Concurrent
// updates each get their own version.
func (s *Store) Update(code, locale string) (Snapshot, error) {
	next, err := build(code, locale)
	if err != nil {
		return Snapshot{}, err
	}
	for {
		old := s.cur.Load()
		n := next
		n.Version = old.Version + 1
		n.UpdatedAt = time.Now().UTC()
		if s.cur.CompareAndSwap(old, &n) {
			return n, nil
		}
	}
}

func build(code, locale string) (Snapshot, error) {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: currency %q: %v", ErrInvalidSettings, code, err)
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: locale %q: %v", ErrInvalidSettings, locale, err)
	}
	return Snapshot{Currency: unit.String(), Locale: tag.String(), unit: unit, tag: tag}, nil
}
