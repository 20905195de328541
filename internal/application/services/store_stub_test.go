package services

import (
	"context"
	"errors"
	"time"

	"github.com/oeeez/artistly-platform/internal/core/ports"
)

var errStoreDown = errors.New("store unreachable")

// failingStore simulates a backing-store outage: every read misses and
// every write errors.
type failingStore struct{}

func (failingStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return errStoreDown
}
func (failingStore) Get(ctx context.Context, key string, dest any) (bool, error) {
	return false, nil
}
func (failingStore) Del(ctx context.Context, keys ...string) (int64, error) { return 0, errStoreDown }
func (failingStore) Exists(ctx context.Context, key string) (bool, error)   { return false, errStoreDown }
func (failingStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return errStoreDown
}
func (failingStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	return 0, errStoreDown
}
func (failingStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	return nil, errStoreDown
}
func (failingStore) ZAdd(ctx context.Context, key string, score float64, member string) error {
	return errStoreDown
}
func (failingStore) ZRemRangeByScore(ctx context.Context, key string, min, max float64) error {
	return errStoreDown
}
func (failingStore) ZCard(ctx context.Context, key string) (int64, error) { return 0, errStoreDown }
func (failingStore) SAdd(ctx context.Context, key string, members ...string) error {
	return errStoreDown
}
func (failingStore) SRem(ctx context.Context, key string, members ...string) error {
	return errStoreDown
}
func (failingStore) SMembers(ctx context.Context, key string) ([]string, error) {
	return nil, errStoreDown
}
func (failingStore) HealthCheck(ctx context.Context) ports.StoreHealth {
	return ports.StoreHealth{Status: "unhealthy", Error: errStoreDown.Error()}
}
func (failingStore) MemoryUsage(ctx context.Context) (string, error) { return "", errStoreDown }
func (failingStore) FlushAll(ctx context.Context) error              { return errStoreDown }

var _ ports.KeyValueStore = failingStore{}
