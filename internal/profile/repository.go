package profile

import (
	"context"
	"errors"
	"sync"
)

// ErrProfileNotFound is returned when a user has neither a profile nor any
// stored preference.
var ErrProfileNotFound = errors.New("profile not found")

// Repository loads user contexts.
type Repository interface {
	// Get returns a fresh copy of the user's context or ErrProfileNotFound.
	Get(ctx context.Context, userID string) (*UserContext, error)
}

// InMemoryRepository is an in-memory implementation of Repository.
type InMemoryRepository struct {
	mu       sync.RWMutex
	profiles map[string]*UserContext
}

// NewInMemoryRepository creates an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{profiles: make(map[string]*UserContext)}
}

// Put stores a copy of uc under userID.
func (r *InMemoryRepository) Put(userID string, uc *UserContext) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := uc.Clone()
	if stored == nil {
		stored = &UserContext{}
	}
	stored.UserID = userID
	r.profiles[userID] = stored
}

// Get returns a copy of the stored context.
func (r *InMemoryRepository) Get(ctx context.Context, userID string) (*UserContext, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	uc, ok := r.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return uc.Clone(), nil
}
