// Package memory provides an in-process ports.KeyValueStore. It mirrors the
// Redis adapter's semantics (JSON serialization, lazy expiry) and exists for
// unit tests and Redis-less local runs; it does not enforce anything across
// processes.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/oeeez/artistly-platform/internal/core/ports"
)

type entry struct {
	data      []byte
	expiresAt time.Time // zero means no expiry
}

type zsetEntry struct {
	members   map[string]float64
	expiresAt time.Time
}

type setEntry struct {
	members   map[string]struct{}
	expiresAt time.Time
}

// Store is a mutex-guarded map with TTL support.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	zsets   map[string]*zsetEntry
	sets    map[string]*setEntry

	// now is swappable in tests.
	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		entries: make(map[string]*entry),
		zsets:   make(map[string]*zsetEntry),
		sets:    make(map[string]*setEntry),
		now:     time.Now,
	}
}

// SetClock overrides the time source. Tests only.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) expired(at time.Time) bool {
	return !at.IsZero() && !s.now().Before(at)
}

func (s *Store) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for %s: %w", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e := &entry{data: data}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.entries[key] = e
	return nil
}

func (s *Store) Get(ctx context.Context, key string, dest any) (bool, error) {
	s.mu.Lock()
	e, ok := s.entries[key]
	if ok && s.expired(e.expiresAt) {
		delete(s.entries, key)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(e.data, dest); err != nil {
		return false, nil
	}
	return true, nil
}

func (s *Store) Del(ctx context.Context, keys ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, key := range keys {
		if e, ok := s.entries[key]; ok {
			if !s.expired(e.expiresAt) {
				n++
			}
			delete(s.entries, key)
		}
		if z, ok := s.zsets[key]; ok {
			if !s.expired(z.expiresAt) {
				n++
			}
			delete(s.zsets, key)
		}
		if st, ok := s.sets[key]; ok {
			if !s.expired(st.expiresAt) {
				n++
			}
			delete(s.sets, key)
		}
	}
	return n, nil
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok && !s.expired(e.expiresAt) {
		return true, nil
	}
	if z, ok := s.zsets[key]; ok && !s.expired(z.expiresAt) {
		return true, nil
	}
	if st, ok := s.sets[key]; ok && !s.expired(st.expiresAt) {
		return true, nil
	}
	return false, nil
}

func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	at := s.now().Add(ttl)
	if e, ok := s.entries[key]; ok && !s.expired(e.expiresAt) {
		e.expiresAt = at
	}
	if z, ok := s.zsets[key]; ok && !s.expired(z.expiresAt) {
		z.expiresAt = at
	}
	if st, ok := s.sets[key]; ok && !s.expired(st.expiresAt) {
		st.expiresAt = at
	}
	return nil
}

func (s *Store) TTL(ctx context.Context, key string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok && !s.expired(e.expiresAt) {
		if e.expiresAt.IsZero() {
			return -1, nil
		}
		return e.expiresAt.Sub(s.now()), nil
	}
	return -2, nil
}

func (s *Store) Keys(ctx context.Context, pattern string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	match := func(key string) {
		if ok, _ := path.Match(pattern, key); ok {
			keys = append(keys, key)
		}
	}
	for key, e := range s.entries {
		if !s.expired(e.expiresAt) {
			match(key)
		}
	}
	for key, z := range s.zsets {
		if !s.expired(z.expiresAt) {
			match(key)
		}
	}
	for key, st := range s.sets {
		if !s.expired(st.expiresAt) {
			match(key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) ZAdd(ctx context.Context, key string, score float64, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	z, ok := s.zsets[key]
	if !ok || s.expired(z.expiresAt) {
		z = &zsetEntry{members: make(map[string]float64)}
		s.zsets[key] = z
	}
	z.members[member] = score
	return nil
}

func (s *Store) ZRemRangeByScore(ctx context.Context, key string, min, max float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	z, ok := s.zsets[key]
	if !ok || s.expired(z.expiresAt) {
		return nil
	}
	for m, score := range z.members {
		if score >= min && score <= max {
			delete(z.members, m)
		}
	}
	return nil
}

func (s *Store) ZCard(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	z, ok := s.zsets[key]
	if !ok || s.expired(z.expiresAt) {
		return 0, nil
	}
	return int64(len(z.members)), nil
}

func (s *Store) SAdd(ctx context.Context, key string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sets[key]
	if !ok || s.expired(st.expiresAt) {
		st = &setEntry{members: make(map[string]struct{})}
		s.sets[key] = st
	}
	for _, m := range members {
		st.members[m] = struct{}{}
	}
	return nil
}

func (s *Store) SRem(ctx context.Context, key string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sets[key]
	if !ok || s.expired(st.expiresAt) {
		return nil
	}
	for _, m := range members {
		delete(st.members, m)
	}
	return nil
}

func (s *Store) SMembers(ctx context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sets[key]
	if !ok || s.expired(st.expiresAt) {
		return nil, nil
	}
	members := make([]string, 0, len(st.members))
	for m := range st.members {
		members = append(members, m)
	}
	sort.Strings(members)
	return members, nil
}

func (s *Store) HealthCheck(ctx context.Context) ports.StoreHealth {
	return ports.StoreHealth{Status: "healthy"}
}

func (s *Store) MemoryUsage(ctx context.Context) (string, error) {
	return "n/a", nil
}

func (s *Store) FlushAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*entry)
	s.zsets = make(map[string]*zsetEntry)
	s.sets = make(map[string]*setEntry)
	return nil
}

var _ ports.KeyValueStore = (*Store)(nil)
