package scope

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KV is the narrow persistence port the scope store writes its selection
// through. Get returns (nil, nil) for an absent key; absence means "no
// selection", never "selection = null".
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// RedisKV persists selections in redis.
type RedisKV struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisKV constructs a RedisKV. ttl of zero keeps entries forever.
func NewRedisKV(client *redis.Client, ttl time.Duration) *RedisKV {
	return &RedisKV{client: client, ttl: ttl}
}

func (kv *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	payload, err := kv.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("scope: kv get: %w", err)
	}
	return payload, nil
}

func (kv *RedisKV) Set(ctx context.Context, key string, value []byte) error {
	if err := kv.client.Set(ctx, key, value, kv.ttl).Err(); err != nil {
		return fmt.Errorf("scope: kv set: %w", err)
	}
	return nil
}

func (kv *RedisKV) Remove(ctx context.Context, key string) error {
	if err := kv.client.Del(ctx, key).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("scope: kv remove: %w", err)
	}
	return nil
}

var _ KV = (*RedisKV)(nil)

// MemoryKV is an in-memory KV for tests.
type MemoryKV struct {
	values map[string][]byte
}

// NewMemoryKV constructs an empty MemoryKV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string][]byte)}
}

func (kv *MemoryKV) Get(ctx context.Context, key string) ([]byte, error) {
	value, ok := kv.values[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (kv *MemoryKV) Set(ctx context.Context, key string, value []byte) error {
	kv.values[key] = append([]byte(nil), value...)
	return nil
}

func (kv *MemoryKV) Remove(ctx context.Context, key string) error {
	delete(kv.values, key)
	return nil
}

var _ KV = (*MemoryKV)(nil)
