package idempotency

import (
	"context"
	"sync"
	"time"
)

// InMemoryRepository implements Repository with a map. Expired records are
// hidden from Get and removed by DeleteOlderThan.
type InMemoryRepository struct {
	mu     sync.RWMutex
	keys   map[string]*Record
	expiry time.Duration
	now    func() time.Time
}

// NewInMemoryRepository creates a repository whose records expire after
// expiry. A non-positive expiry uses DefaultExpiry.
func NewInMemoryRepository(expiry time.Duration) *InMemoryRepository {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &InMemoryRepository{
		keys:   make(map[string]*Record),
		expiry: expiry,
		now:    time.Now,
	}
}

// Get retrieves a copy of the record stored under key.
func (r *InMemoryRepository) Get(_ context.Context, key string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.keys[key]
	if !ok || r.expired(record) {
		return nil, ErrKeyNotFound
	}
	copied := *record
	return &copied, nil
}

// Store saves a copy of record. An expired record under the same key is replaced.
func (r *InMemoryRepository) Store(_ context.Context, record *Record) error {
	if err := ValidateKey(record.Key); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.keys[record.Key]; ok && !r.expired(existing) {
		return ErrKeyExists
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = r.now()
	}
	copied := *record
	r.keys[record.Key] = &copied
	return nil
}

// DeleteOlderThan removes records created before now minus age and returns
// how many were deleted.
func (r *InMemoryRepository) DeleteOlderThan(age time.Duration) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-age)
	var deleted int64
	for key, record := range r.keys {
		if record.CreatedAt.Before(cutoff) {
			delete(r.keys, key)
			deleted++
		}
	}
	return deleted
}

// Len returns the number of stored records, expired ones included.
func (r *InMemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.keys)
}

func (r *InMemoryRepository) expired(record *Record) bool {
	return r.now().Sub(record.CreatedAt) > r.expiry
}
