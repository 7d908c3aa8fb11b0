package scope

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisKV(t *testing.T, ttl time.Duration) *RedisKV {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisKV(client, ttl)
}

func TestRedisKVAbsentKeyMeansNoSelection(t *testing.T) {
	kv := newRedisKV(t, 0)

	payload, err := kv.Get(context.Background(), "scope:user:1:company")
	if err != nil {
		t.Fatalf("get absent key: %v", err)
	}
	if payload != nil {
		t.Fatalf("expected nil payload for absent key, got %q", payload)
	}
}

func TestRedisKVRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := newRedisKV(t, 0)

	if err := kv.Set(ctx, "scope:user:1:company", []byte(`{"id":1}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	payload, err := kv.Get(ctx, "scope:user:1:company")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(payload) != `{"id":1}` {
		t.Fatalf("unexpected payload %q", payload)
	}

	if err := kv.Remove(ctx, "scope:user:1:company"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	payload, err = kv.Get(ctx, "scope:user:1:company")
	if err != nil {
		t.Fatalf("get after remove: %v", err)
	}
	if payload != nil {
		t.Fatalf("expected key gone after remove, got %q", payload)
	}
}

func TestRedisKVRemoveIsIdempotent(t *testing.T) {
	kv := newRedisKV(t, 0)

	if err := kv.Remove(context.Background(), "scope:user:1:district"); err != nil {
		t.Fatalf("remove absent key: %v", err)
	}
}
