package venue

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrVenueNotFound is returned when no active venue matches a lookup.
var ErrVenueNotFound = errors.New("venue not found")

// Repository supplies catalog snapshots. Implementations return fresh copies
// on every call so callers own the returned venues.
type Repository interface {
	// ListActive returns every active venue ordered by name.
	ListActive(ctx context.Context) ([]Venue, error)

	// GetBySlug returns a single active venue or ErrVenueNotFound.
	GetBySlug(ctx context.Context, slug string) (*Venue, error)

	// ListFeatures returns the attribute catalog ordered by label.
	ListFeatures(ctx context.Context) ([]Feature, error)
}

type record struct {
	venue  Venue
	active bool
}

// InMemoryRepository is an in-memory implementation of Repository.
// Used for development, the CLI and tests. Thread-safe via RWMutex.
type InMemoryRepository struct {
	mu       sync.RWMutex
	venues   map[string]*record
	features map[string]Feature
}

// NewInMemoryRepository creates an empty in-memory catalog.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		venues:   make(map[string]*record),
		features: make(map[string]Feature),
	}
}

// Upsert stores an active copy of v keyed by its ID.
func (r *InMemoryRepository) Upsert(v Venue) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := v.Clone()
	if stored.Category == "" {
		stored.Category = DefaultCategory
	}
	r.venues[stored.ID] = &record{venue: stored, active: true}
}

// SetActive toggles whether a venue is visible in catalog snapshots.
// Returns ErrVenueNotFound for unknown IDs.
func (r *InMemoryRepository) SetActive(id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.venues[id]
	if !ok {
		return ErrVenueNotFound
	}
	rec.active = active
	return nil
}

// UpsertFeature stores an attribute catalog entry.
func (r *InMemoryRepository) UpsertFeature(f Feature) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.features[f.ID] = f
}

// ListActive returns copies of all active venues ordered by name.
func (r *InMemoryRepository) ListActive(ctx context.Context) ([]Venue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Venue, 0, len(r.venues))
	for _, rec := range r.venues {
		if !rec.active {
			continue
		}
		out = append(out, rec.venue.Clone())
	}

	// ID as tie breaker keeps snapshots reproducible across map iteration order.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// GetBySlug returns a copy of the active venue with the given slug.
func (r *InMemoryRepository) GetBySlug(ctx context.Context, slug string) (*Venue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rec := range r.venues {
		if rec.active && rec.venue.Slug == slug {
			v := rec.venue.Clone()
			return &v, nil
		}
	}
	return nil, ErrVenueNotFound
}

// ListFeatures returns the attribute catalog ordered by label.
func (r *InMemoryRepository) ListFeatures(ctx context.Context) ([]Feature, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Feature, 0, len(r.features))
	for _, f := range r.features {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Label != out[j].Label {
			return out[i].Label < out[j].Label
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
