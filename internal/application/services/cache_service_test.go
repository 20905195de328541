package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	config "github.com/oeeez/artistly-platform/configs"
	"github.com/oeeez/artistly-platform/internal/core/ports"
	"github.com/oeeez/artistly-platform/internal/infrastructure/memory"
)

func cacheConfig() *config.CacheConfig {
	return &config.CacheConfig{
		Prefix:           "cache",
		TagPrefix:        "tag",
		ShortTTL:         5 * time.Minute,
		MediumTTL:        30 * time.Minute,
		LongTTL:          24 * time.Hour,
		UserProfileTTL:   time.Hour,
		ArtistDataTTL:    2 * time.Hour,
		SearchTTL:        10 * time.Minute,
		NotificationsTTL: 5 * time.Minute,
		AnalyticsTTL:     24 * time.Hour,
		TagTTLBuffer:     time.Hour,
	}
}

func newTestCache(store ports.KeyValueStore, enabled bool) *TaggedCache {
	return NewTaggedCache(store, cacheConfig(), enabled, nil)
}

func TestCacheRoundTrip(t *testing.T) {
	store := memory.NewStore()
	c := newTestCache(store, true)
	ctx := context.Background()

	type artist struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	in := artist{ID: "a1", Name: "Nova"}
	c.Set(ctx, "artist:a1", in, nil)

	var out artist
	if !c.Get(ctx, "artist:a1", &out) {
		t.Fatal("expected cache hit")
	}
	if out != in {
		t.Fatalf("round trip mismatch: got %+v want %+v", out, in)
	}
}

func TestCacheEntryExpires(t *testing.T) {
	store := memory.NewStore()
	base := time.Now()
	now := base
	store.SetClock(func() time.Time { return now })
	c := newTestCache(store, true)
	ctx := context.Background()

	c.Set(ctx, "k", "v", &ports.CacheOptions{TTL: time.Minute})

	var out string
	if !c.Get(ctx, "k", &out) {
		t.Fatal("expected hit before expiry")
	}
	now = base.Add(2 * time.Minute)
	if c.Get(ctx, "k", &out) {
		t.Fatal("expected miss after TTL elapsed")
	}
}

func TestDelByTagInvalidatesAllMembers(t *testing.T) {
	store := memory.NewStore()
	c := newTestCache(store, true)
	ctx := context.Background()

	c.Set(ctx, "artist:a1", "first", &ports.CacheOptions{Tags: []string{"artists"}})
	c.Set(ctx, "artist:a2", "second", &ports.CacheOptions{Tags: []string{"artists"}})
	c.Set(ctx, "unrelated", "keep", nil)

	c.DelByTag(ctx, "artists")

	var out string
	if c.Get(ctx, "artist:a1", &out) || c.Get(ctx, "artist:a2", &out) {
		t.Fatal("tagged entries should be gone after DelByTag")
	}
	if !c.Get(ctx, "unrelated", &out) {
		t.Fatal("untagged entry should survive")
	}
	var members []string
	if ok, _ := store.Get(ctx, "tag:artists", &members); ok && len(members) > 0 {
		t.Fatalf("tag index should be deleted, got %v", members)
	}
}

func TestDelByTagAbsentTagIsNoOp(t *testing.T) {
	c := newTestCache(memory.NewStore(), true)
	// Must not panic or log-propagate anything.
	c.DelByTag(context.Background(), "no-such-tag")
}

func TestCacheDisabledByFeatureFlag(t *testing.T) {
	c := newTestCache(memory.NewStore(), false)
	ctx := context.Background()

	c.Set(ctx, "k", "v", nil)
	var out string
	if c.Get(ctx, "k", &out) {
		t.Fatal("disabled cache must always miss")
	}
}

func TestGetOrSetCachesProducedValue(t *testing.T) {
	c := newTestCache(memory.NewStore(), true)
	ctx := context.Background()

	var calls atomic.Int32
	fetch := func(ctx context.Context) (any, error) {
		calls.Add(1)
		return map[string]string{"name": "Nova"}, nil
	}

	var first map[string]string
	if err := c.GetOrSet(ctx, "artist:a1", &first, fetch, nil); err != nil {
		t.Fatalf("GetOrSet failed: %v", err)
	}
	var second map[string]string
	if err := c.GetOrSet(ctx, "artist:a1", &second, fetch, nil); err != nil {
		t.Fatalf("GetOrSet failed: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single producer call, got %d", calls.Load())
	}
	if second["name"] != "Nova" {
		t.Fatalf("unexpected cached value: %v", second)
	}
}

func TestGetOrSetProducerErrorPropagates(t *testing.T) {
	c := newTestCache(memory.NewStore(), true)
	wantErr := errors.New("upstream failed")

	var out string
	err := c.GetOrSet(context.Background(), "k", &out, func(ctx context.Context) (any, error) {
		return nil, wantErr
	}, nil)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected producer error, got %v", err)
	}
}

func TestGetOrSetFallsBackWhenStoreDown(t *testing.T) {
	c := newTestCache(failingStore{}, true)

	var out string
	err := c.GetOrSet(context.Background(), "k", &out, func(ctx context.Context) (any, error) {
		return "fresh", nil
	}, nil)
	if err != nil {
		t.Fatalf("store outage must not surface: %v", err)
	}
	if out != "fresh" {
		t.Fatalf("expected produced value, got %q", out)
	}
}

// Concurrent misses may all invoke the producer: there is no stampede
// protection, and both calls must still succeed with the last write winning.
func TestGetOrSetConcurrentMisses(t *testing.T) {
	c := newTestCache(memory.NewStore(), true)
	ctx := context.Background()

	var calls atomic.Int32
	gate := make(chan struct{})
	fetch := func(ctx context.Context) (any, error) {
		calls.Add(1)
		<-gate
		return "value", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var out string
			if err := c.GetOrSet(ctx, "slow", &out, fetch, nil); err != nil {
				t.Errorf("GetOrSet failed: %v", err)
			}
		}()
	}
	// Let both goroutines reach the producer before releasing it.
	for calls.Load() < 2 {
		time.Sleep(time.Millisecond)
	}
	close(gate)
	wg.Wait()

	if calls.Load() != 2 {
		t.Fatalf("expected both misses to invoke the producer, got %d", calls.Load())
	}
	var out string
	if !c.Get(ctx, "slow", &out) || out != "value" {
		t.Fatalf("expected cached value after concurrent misses, got %q", out)
	}
}

func TestGetNeverThrowsWhenStoreDown(t *testing.T) {
	c := newTestCache(failingStore{}, true)
	var out string
	if c.Get(context.Background(), "x", &out) {
		t.Fatal("expected miss when store is unreachable")
	}
}

func TestDirectDelLeavesTagIndexStale(t *testing.T) {
	store := memory.NewStore()
	c := newTestCache(store, true)
	ctx := context.Background()

	c.Set(ctx, "a", 1, &ports.CacheOptions{Tags: []string{"grp"}})
	c.Del(ctx, "a")

	// Index still references the deleted key; DelByTag must tolerate it.
	var members []string
	if ok, _ := store.Get(ctx, "tag:grp", &members); !ok || len(members) != 1 {
		t.Fatalf("expected stale index entry, got %v", members)
	}
	c.DelByTag(ctx, "grp")
}

func TestClearRemovesNamespace(t *testing.T) {
	store := memory.NewStore()
	c := newTestCache(store, true)
	ctx := context.Background()

	c.Set(ctx, "a", 1, nil)
	c.Set(ctx, "b", 2, nil)
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	var out int
	if c.Get(ctx, "a", &out) || c.Get(ctx, "b", &out) {
		t.Fatal("expected empty cache after clear")
	}
}

func TestStatsCountsAndHitRate(t *testing.T) {
	store := memory.NewStore()
	c := newTestCache(store, true)
	ctx := context.Background()

	c.Set(ctx, "a", 1, nil)
	var out int
	c.Get(ctx, "a", &out)   // hit
	c.Get(ctx, "zzz", &out) // miss

	stats, err := c.Stats(ctx)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.TotalKeys != 1 {
		t.Fatalf("expected 1 key, got %d", stats.TotalKeys)
	}
	if stats.HitRate != 0.5 {
		t.Fatalf("expected hit rate 0.5, got %v", stats.HitRate)
	}
}

func TestConvenienceWrappers(t *testing.T) {
	store := memory.NewStore()
	c := newTestCache(store, true)
	ctx := context.Background()

	c.SetUserProfile(ctx, "u1", map[string]string{"name": "Aria"})
	var profile map[string]string
	if !c.GetUserProfile(ctx, "u1", &profile) {
		t.Fatal("expected user profile hit")
	}
	c.InvalidateUser(ctx, "u1")
	if c.GetUserProfile(ctx, "u1", &profile) {
		t.Fatal("expected miss after user invalidation")
	}

	c.SetArtist(ctx, "a1", map[string]string{"name": "Nova"})
	c.SetSearch(ctx, "dj berlin", []string{"a1"})
	var results []string
	if !c.GetSearch(ctx, "dj berlin", &results) {
		t.Fatal("expected search hit")
	}
	c.InvalidateSearches(ctx)
	if c.GetSearch(ctx, "dj berlin", &results) {
		t.Fatal("expected miss after search invalidation")
	}
	var a map[string]string
	if !c.GetArtist(ctx, "a1", &a) {
		t.Fatal("artist entry should survive search invalidation")
	}
}
