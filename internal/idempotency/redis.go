package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces idempotency keys in a shared Redis.
const DefaultRedisPrefix = "venuefinder:idem:"

// RedisRepository stores records as JSON with a TTL so expiry needs no sweeper.
type RedisRepository struct {
	client *redis.Client
	prefix string
	expiry time.Duration
}

// NewRedisRepository creates a Redis-backed repository. A non-positive expiry
// uses DefaultExpiry.
func NewRedisRepository(client *redis.Client, expiry time.Duration) *RedisRepository {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &RedisRepository{client: client, prefix: DefaultRedisPrefix, expiry: expiry}
}

// Get loads the record stored under key.
func (r *RedisRepository) Get(ctx context.Context, key string) (*Record, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get idempotency key: %w", err)
	}
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode idempotency record: %w", err)
	}
	return &record, nil
}

// Store writes the record with SET NX so concurrent first requests cannot
// both win.
func (r *RedisRepository) Store(ctx context.Context, record *Record) error {
	if err := ValidateKey(record.Key); err != nil {
		return err
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode idempotency record: %w", err)
	}
	ok, err := r.client.SetNX(ctx, r.prefix+record.Key, data, r.expiry).Result()
	if err != nil {
		return fmt.Errorf("redis set idempotency key: %w", err)
	}
	if !ok {
		return ErrKeyExists
	}
	return nil
}
