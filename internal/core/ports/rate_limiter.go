package ports

import (
	"context"
	"time"
)

// LimitPolicy bounds request counts within a trailing window.
type LimitPolicy struct {
	Window      time.Duration
	MaxRequests int
}

// RateLimitResult reports one limiter decision.
type RateLimitResult struct {
	Allowed   bool      `json:"allowed"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetTime time.Time `json:"resetTime"`
}

// RateLimiter bounds request rates per identifier using a sliding window.
// Checks fail open: on any internal error the result is allowed with full
// remaining quota, so a backing-store outage never denies legitimate users.
type RateLimiter interface {
	CheckLimit(ctx context.Context, identifier string, policy LimitPolicy, prefix string) RateLimitResult
	CheckLoginLimit(ctx context.Context, identifier string) RateLimitResult
	CheckSignupLimit(ctx context.Context, identifier string) RateLimitResult
	CheckPasswordResetLimit(ctx context.Context, identifier string) RateLimitResult
	CheckAPILimit(ctx context.Context, identifier string) RateLimitResult
	CheckSearchLimit(ctx context.Context, identifier string) RateLimitResult
	// ResetLimit deletes the identifier's window. Administrative override.
	ResetLimit(ctx context.Context, identifier, prefix string) error
}
