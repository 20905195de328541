package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	config "github.com/oeeez/artistly-platform/configs"
	"github.com/oeeez/artistly-platform/internal/core/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

var (
	cacheOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_operations_total",
			Help: "The total number of cache lookups by result",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(cacheOpsTotal)
}

// TaggedCache implements ports.Cache: a value cache with named TTL classes
// and tag-based group invalidation over a KeyValueStore.
//
// Tag indices are plain key lists rewritten on every registration; the
// entry write and the index update are two independent commands, so a crash
// between them can orphan an entry from tag invalidation or leave the index
// pointing at an absent key. Both are tolerated — DelByTag treats missing
// members as no-ops and orphans age out via their own TTL.
type TaggedCache struct {
	store   ports.KeyValueStore
	cfg     *config.CacheConfig
	enabled bool
	logger  *logrus.Logger

	hits   atomic.Uint64
	misses atomic.Uint64
}

func NewTaggedCache(store ports.KeyValueStore, cfg *config.CacheConfig, enabled bool, logger *logrus.Logger) *TaggedCache {
	return &TaggedCache{store: store, cfg: cfg, enabled: enabled, logger: logger}
}

func (c *TaggedCache) resolveTTL(opts *ports.CacheOptions) time.Duration {
	if opts != nil && opts.TTL > 0 {
		return opts.TTL
	}
	class := ports.TTLMedium
	if opts != nil && opts.Class != "" {
		class = opts.Class
	}
	switch class {
	case ports.TTLShort:
		return c.cfg.ShortTTL
	case ports.TTLLong:
		return c.cfg.LongTTL
	case ports.TTLUserProfile:
		return c.cfg.UserProfileTTL
	case ports.TTLArtistData:
		return c.cfg.ArtistDataTTL
	case ports.TTLSearch:
		return c.cfg.SearchTTL
	case ports.TTLNotifications:
		return c.cfg.NotificationsTTL
	case ports.TTLAnalytics:
		return c.cfg.AnalyticsTTL
	default:
		return c.cfg.MediumTTL
	}
}

func (c *TaggedCache) entryKey(key string) string {
	return c.cfg.Prefix + ":" + key
}

func (c *TaggedCache) tagKey(tag string) string {
	return c.cfg.TagPrefix + ":" + tag
}

// Set writes through to the store and registers the key under each tag.
func (c *TaggedCache) Set(ctx context.Context, key string, value any, opts *ports.CacheOptions) {
	if !c.enabled {
		return
	}
	ttl := c.resolveTTL(opts)
	entryKey := c.entryKey(key)
	if err := c.store.Set(ctx, entryKey, value, ttl); err != nil {
		c.logError(err, logrus.Fields{"key": key}, "cache set failed")
		return
	}
	if opts == nil {
		return
	}
	for _, tag := range opts.Tags {
		if err := c.addToTag(ctx, tag, entryKey, ttl); err != nil {
			c.logError(err, logrus.Fields{"key": key, "tag": tag}, "tag index update failed")
		}
	}
}

// addToTag appends entryKey to the tag's key list if absent and rewrites the
// index. The index TTL is the larger of its current remaining TTL and the
// new entry's TTL plus the configured buffer, so a long-lived member cannot
// outlive its index.
func (c *TaggedCache) addToTag(ctx context.Context, tag, entryKey string, entryTTL time.Duration) error {
	tagKey := c.tagKey(tag)
	var members []string
	if _, err := c.store.Get(ctx, tagKey, &members); err != nil {
		return err
	}
	present := false
	for _, m := range members {
		if m == entryKey {
			present = true
			break
		}
	}
	indexTTL := entryTTL + c.cfg.TagTTLBuffer
	if remaining, err := c.store.TTL(ctx, tagKey); err == nil && remaining > indexTTL {
		indexTTL = remaining
	}
	if present {
		// Already a member; just extend the index lifetime.
		return c.store.Expire(ctx, tagKey, indexTTL)
	}
	members = append(members, entryKey)
	return c.store.Set(ctx, tagKey, members, indexTTL)
}

// Get fills dest from the cache; false on miss, store error, or when the
// cache feature flag is off.
func (c *TaggedCache) Get(ctx context.Context, key string, dest any) bool {
	if !c.enabled {
		return false
	}
	ok, err := c.store.Get(ctx, c.entryKey(key), dest)
	if err != nil || !ok {
		c.misses.Add(1)
		cacheOpsTotal.WithLabelValues("miss").Inc()
		return false
	}
	c.hits.Add(1)
	cacheOpsTotal.WithLabelValues("hit").Inc()
	return true
}

// Del removes keys directly. Tag indices referencing them are left stale.
func (c *TaggedCache) Del(ctx context.Context, keys ...string) {
	if !c.enabled || len(keys) == 0 {
		return
	}
	entryKeys := make([]string, len(keys))
	for i, k := range keys {
		entryKeys[i] = c.entryKey(k)
	}
	if _, err := c.store.Del(ctx, entryKeys...); err != nil {
		c.logError(err, logrus.Fields{"keys": keys}, "cache delete failed")
	}
}

// DelByTag removes every key registered under tag plus the index itself.
func (c *TaggedCache) DelByTag(ctx context.Context, tag string) {
	if !c.enabled {
		return
	}
	tagKey := c.tagKey(tag)
	var members []string
	if _, err := c.store.Get(ctx, tagKey, &members); err != nil {
		c.logError(err, logrus.Fields{"tag": tag}, "tag index read failed")
		return
	}
	if _, err := c.store.Del(ctx, append(members, tagKey)...); err != nil {
		c.logError(err, logrus.Fields{"tag": tag}, "tag invalidation failed")
	}
}

// GetOrSet returns the cached value or produces, caches and returns a fresh
// one. The producer's error propagates; internal cache errors degrade to a
// direct fetch. Concurrent misses for the same key may all invoke fetch —
// there is deliberately no stampede protection.
func (c *TaggedCache) GetOrSet(ctx context.Context, key string, dest any, fetch func(ctx context.Context) (any, error), opts *ports.CacheOptions) error {
	if c.Get(ctx, key, dest) {
		return nil
	}
	value, err := fetch(ctx)
	if err != nil {
		return err
	}
	c.Set(ctx, key, value, opts)
	return assign(value, dest)
}

// Clear deletes every key in the cache namespace via pattern scan.
func (c *TaggedCache) Clear(ctx context.Context) error {
	keys, err := c.store.Keys(ctx, c.cfg.Prefix+":*")
	if err != nil {
		return fmt.Errorf("failed to enumerate cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if _, err := c.store.Del(ctx, keys...); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

func (c *TaggedCache) Stats(ctx context.Context) (ports.CacheStats, error) {
	keys, err := c.store.Keys(ctx, c.cfg.Prefix+":*")
	if err != nil {
		return ports.CacheStats{}, fmt.Errorf("failed to enumerate cache keys: %w", err)
	}
	mem, err := c.store.MemoryUsage(ctx)
	if err != nil {
		mem = "unknown"
	}
	return ports.CacheStats{TotalKeys: len(keys), MemoryUsage: mem, HitRate: c.hitRate()}, nil
}

func (c *TaggedCache) hitRate() float64 {
	hits := c.hits.Load()
	total := hits + c.misses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

func (c *TaggedCache) logError(err error, fields logrus.Fields, msg string) {
	if c.logger != nil {
		c.logger.WithFields(fields).WithError(err).Warn(msg)
	}
}

// assign copies value into dest through a JSON round trip, the same shape
// a cache hit would take.
func assign(value, dest any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal produced value: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to decode produced value: %w", err)
	}
	return nil
}

// Convenience wrappers with fixed key-naming and tag conventions.

func (c *TaggedCache) SetUserProfile(ctx context.Context, userID string, profile any) {
	c.Set(ctx, "user:"+userID, profile, &ports.CacheOptions{Class: ports.TTLUserProfile, Tags: []string{"user:" + userID}})
}

func (c *TaggedCache) GetUserProfile(ctx context.Context, userID string, dest any) bool {
	return c.Get(ctx, "user:"+userID, dest)
}

// InvalidateUser drops everything tagged to the user (profile, settings,
// bookings views).
func (c *TaggedCache) InvalidateUser(ctx context.Context, userID string) {
	c.DelByTag(ctx, "user:"+userID)
}

func (c *TaggedCache) SetArtist(ctx context.Context, artistID string, artist any) {
	c.Set(ctx, "artist:"+artistID, artist, &ports.CacheOptions{Class: ports.TTLArtistData, Tags: []string{"artist:" + artistID, "artists"}})
}

func (c *TaggedCache) GetArtist(ctx context.Context, artistID string, dest any) bool {
	return c.Get(ctx, "artist:"+artistID, dest)
}

func (c *TaggedCache) InvalidateArtist(ctx context.Context, artistID string) {
	c.DelByTag(ctx, "artist:"+artistID)
}

func (c *TaggedCache) SetSearch(ctx context.Context, query string, results any) {
	c.Set(ctx, searchKey(query), results, &ports.CacheOptions{Class: ports.TTLSearch, Tags: []string{"search"}})
}

func (c *TaggedCache) GetSearch(ctx context.Context, query string, dest any) bool {
	return c.Get(ctx, searchKey(query), dest)
}

// InvalidateSearches drops all cached search results; used whenever artist
// listings change.
func (c *TaggedCache) InvalidateSearches(ctx context.Context) {
	c.DelByTag(ctx, "search")
}

func searchKey(query string) string {
	sum := sha256.Sum256([]byte(query))
	return "search:" + hex.EncodeToString(sum[:8])
}

var _ ports.Cache = (*TaggedCache)(nil)
