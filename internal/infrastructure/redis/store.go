package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/oeeez/artistly-platform/internal/core/ports"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// Store implements ports.KeyValueStore over a Redis connection. Values are
// JSON-serialized. Reads are fail-soft (miss + log); writes propagate.
type Store struct {
	client redis.Cmdable
	logger *logrus.Logger
}

// NewStore creates a Redis-backed key-value store adapter.
func NewStore(client redis.Cmdable, logger *logrus.Logger) *Store {
	return &Store{client: client, logger: logger}
}

func (s *Store) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for %s: %w", key, err)
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		s.logWarn(key, err, "redis get failed; treating as miss")
		return false, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		s.logWarn(key, err, "failed to unmarshal cached value; treating as miss")
		return false, nil
	}
	return true, nil
}

func (s *Store) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	n, err := s.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to delete keys: %w", err)
	}
	return n, nil
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check existence of %s: %w", key, err)
	}
	return n > 0, nil
}

func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Expire(ctx, key, ttl).Err()
}

func (s *Store) TTL(ctx context.Context, key string) (time.Duration, error) {
	return s.client.TTL(ctx, key).Result()
}

// Keys walks the keyspace with SCAN rather than KEYS so it does not block
// the server. Still O(keyspace); administrative paths only.
func (s *Store) Keys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64
	for {
		page, next, err := s.client.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan keys for %s: %w", pattern, err)
		}
		keys = append(keys, page...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}

func (s *Store) ZAdd(ctx context.Context, key string, score float64, member string) error {
	return s.client.ZAdd(ctx, key, &redis.Z{Score: score, Member: member}).Err()
}

func (s *Store) ZRemRangeByScore(ctx context.Context, key string, min, max float64) error {
	return s.client.ZRemRangeByScore(ctx, key, formatScore(min), formatScore(max)).Err()
}

func (s *Store) ZCard(ctx context.Context, key string) (int64, error) {
	return s.client.ZCard(ctx, key).Result()
}

func (s *Store) SAdd(ctx context.Context, key string, members ...string) error {
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	return s.client.SAdd(ctx, key, args...).Err()
}

func (s *Store) SRem(ctx context.Context, key string, members ...string) error {
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	return s.client.SRem(ctx, key, args...).Err()
}

func (s *Store) SMembers(ctx context.Context, key string) ([]string, error) {
	return s.client.SMembers(ctx, key).Result()
}

func (s *Store) HealthCheck(ctx context.Context) ports.StoreHealth {
	start := time.Now()
	if err := s.client.Ping(ctx).Err(); err != nil {
		return ports.StoreHealth{Status: "unhealthy", Error: err.Error()}
	}
	return ports.StoreHealth{Status: "healthy", Latency: time.Since(start)}
}

// MemoryUsage reports the server's used_memory_human from INFO memory.
func (s *Store) MemoryUsage(ctx context.Context) (string, error) {
	info, err := s.client.Info(ctx, "memory").Result()
	if err != nil {
		return "", fmt.Errorf("failed to read memory info: %w", err)
	}
	for _, line := range strings.Split(info, "\r\n") {
		if v, ok := strings.CutPrefix(line, "used_memory_human:"); ok {
			return strings.TrimSpace(v), nil
		}
	}
	return "unknown", nil
}

func (s *Store) FlushAll(ctx context.Context) error {
	return s.client.FlushAll(ctx).Err()
}

func (s *Store) logWarn(key string, err error, msg string) {
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"key": key}).WithError(err).Warn(msg)
	}
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

var _ ports.KeyValueStore = (*Store)(nil)
