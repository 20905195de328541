package ports

import (
	"context"
	"time"
)

// StoreHealth is the result of a backing-store liveness probe.
type StoreHealth struct {
	Status  string        `json:"status"`
	Latency time.Duration `json:"latency,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// KeyValueStore is the minimal contract the cache, rate limiter and session
// registry need from a remote key-value service. Values are serialized by the
// implementation; Get reports ok=false on absence AND on transport or decode
// errors (fail-soft read path, logged by the implementation). Set and Del
// propagate errors — they are the lowest-level write primitives and callers
// one layer up decide whether to degrade.
type KeyValueStore interface {
	// Set serializes value and stores it under key. ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// Get deserializes the stored value into dest. ok=false on miss or error.
	Get(ctx context.Context, key string, dest any) (bool, error)
	// Del removes keys; absent keys are not an error. Returns count deleted.
	Del(ctx context.Context, keys ...string) (int64, error)
	Exists(ctx context.Context, key string) (bool, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	TTL(ctx context.Context, key string) (time.Duration, error)
	// Keys enumerates keys matching a glob pattern. Admin paths only; O(keyspace).
	Keys(ctx context.Context, pattern string) ([]string, error)

	// Sorted-set operations used by the sliding-window rate limiter.
	ZAdd(ctx context.Context, key string, score float64, member string) error
	ZRemRangeByScore(ctx context.Context, key string, min, max float64) error
	ZCard(ctx context.Context, key string) (int64, error)

	// Set operations used by the per-user session index.
	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)

	HealthCheck(ctx context.Context) StoreHealth
	MemoryUsage(ctx context.Context) (string, error)
	// FlushAll clears the entire store. Destructive, admin-only.
	FlushAll(ctx context.Context) error
}
