// Package feedback stores free-form feedback left by visitors.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/onnwee/venuefinder/internal/validate"
)

// ErrInvalidFeedback wraps validation failures of a new entry.
var ErrInvalidFeedback = errors.New("invalid feedback")

// List limits. DefaultListLimit applies when the caller passes a non-positive
// limit; MaxListLimit bounds what GET /feedback accepts.
const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

// Entry is one stored feedback message.
type Entry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// NewEntry validates name and message and returns an entry with a fresh ID.
func NewEntry(name, message string, now time.Time) (*Entry, error) {
	n, err := validate.FeedbackName(name)
	if err != nil {
		return nil, fmt.Errorf("%w: name: %w", ErrInvalidFeedback, err)
	}
	m, err := validate.FeedbackMessage(message)
	if err != nil {
		return nil, fmt.Errorf("%w: message: %w", ErrInvalidFeedback, err)
	}
	return &Entry{
		ID:        uuid.NewString(),
		Name:      n,
		Message:   m,
		CreatedAt: now.UTC(),
	}, nil
}

// Store persists feedback entries.
type Store interface {
	// Create validates and stores a new entry.
	Create(ctx context.Context, name, message string) (*Entry, error)

	// List returns up to limit entries, newest first.
	List(ctx context.Context, limit int) ([]Entry, error)
}

// InMemoryStore is an in-memory implementation of Store.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
	now     func() time.Time
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{now: time.Now}
}

// Create validates and appends a new entry.
func (s *InMemoryStore) Create(ctx context.Context, name, message string) (*Entry, error) {
	e, err := NewEntry(name, message, s.now())
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, *e)
	return e, nil
}

// List returns the newest entries first.
func (s *InMemoryStore) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	n := min(limit, len(s.entries))
	out := make([]Entry, 0, n)
	for i := len(s.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.entries[i])
	}
	return out, nil
}
