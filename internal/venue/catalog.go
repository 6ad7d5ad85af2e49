package venue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/iliyamo/venue-seating/internal/model"
)

// Catalog is the source of raw venue data.  Implementations return
// ErrVenueNotFound when the id is unknown.
type Catalog interface {
	Venue(ctx context.Context, id string) (*model.Venue, error)
}

// Logger is the subset of *log.Logger used by this package.
type Logger interface {
	Printf(format string, v ...any)
}

// Loader implements loadVenue: it fetches a venue from the catalog,
// validates it and memoises the resulting Index.  Venues are static
// reference data, so each id is loaded at most once until invalidated.
type Loader struct {
	catalog Catalog
	logger  Logger

	mu    sync.Mutex
	cache map[string]*Index
}

// NewLoader returns a Loader reading from c.
func NewLoader(c Catalog, logger Logger) *Loader {
	return &Loader{catalog: c, logger: logger, cache: make(map[string]*Index)}
}

// Load returns the validated Index for id.
func (l *Loader) Load(ctx context.Context, id string) (*Index, error) {
	l.mu.Lock()
	if x, ok := l.cache[id]; ok {
		l.mu.Unlock()
		return x, nil
	}
	l.mu.Unlock()

	raw, err := l.catalog.Venue(ctx, id)
	if err != nil {
		if errors.Is(err, ErrVenueNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load venue %s: %w", id, err)
	}
	x, err := Load(raw)
	if err != nil {
		l.logger.Printf("venue: rejected %s: %v", id, err)
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if prev, ok := l.cache[id]; ok {
		return prev, nil
	}
	l.cache[id] = x
	return x, nil
}

// Invalidate drops a memoised venue so the next Load re-reads the catalog.
func (l *Loader) Invalidate(id string) {
	l.mu.Lock()
	delete(l.cache, id)
	l.mu.Unlock()
}

// StaticCatalog serves venues from memory.  Useful for fixtures and tests.
type StaticCatalog map[string]*model.Venue

// Venue implements Catalog.
func (c StaticCatalog) Venue(_ context.Context, id string) (*model.Venue, error) {
	v, ok := c[id]
	if !ok {
		return nil, ErrVenueNotFound
	}
	return v, nil
}

// FileCatalog reads venues from <dir>/<id>.json.
type FileCatalog struct {
	Dir string
}

// Venue implements Catalog.
func (c FileCatalog) Venue(_ context.Context, id string) (*model.Venue, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return nil, ErrVenueNotFound
	}
	b, err := os.ReadFile(filepath.Join(c.Dir, id+".json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrVenueNotFound
		}
		return nil, err
	}
	var v model.Venue
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("decode %s.json: %w", id, err)
	}
	if v.ID == "" {
		v.ID = id
	}
	return &v, nil
}
