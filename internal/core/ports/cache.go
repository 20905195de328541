package ports

import (
	"context"
	"time"
)

// TTLClass names a configured expiry duration for cache entries.
type TTLClass string

const (
	TTLShort         TTLClass = "short"
	TTLMedium        TTLClass = "medium"
	TTLLong          TTLClass = "long"
	TTLUserProfile   TTLClass = "userProfile"
	TTLArtistData    TTLClass = "artistData"
	TTLSearch        TTLClass = "search"
	TTLNotifications TTLClass = "notifications"
	TTLAnalytics     TTLClass = "analytics"
)

// CacheOptions controls expiry and tag membership for a cache write.
// TTL takes precedence over Class when both are set; with neither,
// the medium class applies.
type CacheOptions struct {
	TTL   time.Duration
	Class TTLClass
	Tags  []string
}

// CacheStats is the administrative view of the cache namespace.
type CacheStats struct {
	TotalKeys   int     `json:"totalKeys"`
	MemoryUsage string  `json:"memoryUsage"`
	HitRate     float64 `json:"hitRate"`
}

// Cache is a tagged value cache. It is a pure optimization layer: every
// method degrades to a miss / no-op on internal failure and never returns
// a store error to the caller. The one exception is GetOrSet, which
// propagates the producer's own error.
type Cache interface {
	// Set stores value under key and registers it with each tag.
	Set(ctx context.Context, key string, value any, opts *CacheOptions)
	// Get fills dest from the cache. false on miss, error, or when the
	// cache feature flag is off.
	Get(ctx context.Context, key string, dest any) bool
	// Del removes keys directly. Tag indices referencing them go stale;
	// DelByTag tolerates that.
	Del(ctx context.Context, keys ...string)
	// DelByTag removes every key registered under tag plus the tag index.
	// Absent or empty tags are a no-op.
	DelByTag(ctx context.Context, tag string)
	// GetOrSet returns the cached value or produces, caches and returns a
	// fresh one. Concurrent misses may all invoke fetch — there is no
	// stampede protection, by contract.
	GetOrSet(ctx context.Context, key string, dest any, fetch func(ctx context.Context) (any, error), opts *CacheOptions) error
	// Clear deletes every key in the cache namespace. Admin only.
	Clear(ctx context.Context) error
	Stats(ctx context.Context) (CacheStats, error)
}
