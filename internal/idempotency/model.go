// Package idempotency stores the responses of completed write requests so
// that clients can safely retry them with the same Idempotency-Key.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

var (
	// ErrKeyNotFound is returned when an idempotency key is not found.
	ErrKeyNotFound = errors.New("idempotency key not found")

	// ErrKeyExists is returned when attempting to create a duplicate key.
	ErrKeyExists = errors.New("idempotency key already exists")

	// ErrInvalidKey is returned when the key is empty or contains control characters.
	ErrInvalidKey = errors.New("invalid idempotency key")

	// ErrKeyTooLong is returned when the key exceeds MaxKeyLength.
	ErrKeyTooLong = errors.New("idempotency key exceeds maximum length of 64 characters")
)

// MaxKeyLength is the maximum allowed length for an idempotency key.
const MaxKeyLength = 64

// DefaultExpiry is how long a completed response is replayable.
const DefaultExpiry = 24 * time.Hour

// Record is a completed request and the response it produced.
type Record struct {
	Key          string    `json:"key"`
	Method       string    `json:"method"`
	Route        string    `json:"route"`
	CreatedAt    time.Time `json:"created_at"`
	ResponseHash string    `json:"response_hash"`
	ResponseBody string    `json:"response_body"`
	StatusCode   int       `json:"status_code"`
}

// Matches reports whether the record was produced by the same method and route.
func (r *Record) Matches(method, route string) bool {
	return r.Method == method && r.Route == route
}

// Verify reports whether the cached body still matches its stored hash.
func (r *Record) Verify() bool {
	return ComputeResponseHash(r.ResponseBody) == r.ResponseHash
}

// ValidateKey checks that an idempotency key is non-empty, at most
// MaxKeyLength bytes and free of control characters.
func ValidateKey(key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	for i := 0; i < len(key); i++ {
		if key[i] < 0x20 || key[i] == 0x7f {
			return ErrInvalidKey
		}
	}
	return nil
}

// ComputeResponseHash computes a hex SHA256 of the response body.
func ComputeResponseHash(responseBody string) string {
	hash := sha256.Sum256([]byte(responseBody))
	return hex.EncodeToString(hash[:])
}

// Repository persists idempotency records.
type Repository interface {
	// Get returns ErrKeyNotFound if the key doesn't exist or has expired.
	Get(ctx context.Context, key string) (*Record, error)

	// Store returns ErrKeyExists if the key is already taken.
	Store(ctx context.Context, record *Record) error
}
