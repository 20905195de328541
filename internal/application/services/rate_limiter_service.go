package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	config "github.com/oeeez/artistly-platform/configs"
	"github.com/oeeez/artistly-platform/internal/core/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

var (
	rateLimitDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_decisions_total",
			Help: "The total number of rate limiter decisions by action and outcome",
		},
		[]string{"action", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(rateLimitDecisions)
}

// SlidingWindowLimiter implements ports.RateLimiter with a sorted-set
// sliding window per identifier. Each check is a read-prune-count-add
// sequence of independent commands; concurrent checks for the same
// identifier can race and briefly exceed the limit, which is accepted.
// Any store error fails open with full remaining quota.
type SlidingWindowLimiter struct {
	store   ports.KeyValueStore
	cfg     *config.RateLimitConfig
	enabled bool
	logger  *logrus.Logger

	// now is swappable in tests.
	now func() time.Time
}

func NewSlidingWindowLimiter(store ports.KeyValueStore, cfg *config.RateLimitConfig, enabled bool, logger *logrus.Logger) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{store: store, cfg: cfg, enabled: enabled, logger: logger, now: time.Now}
}

func (l *SlidingWindowLimiter) key(prefix, identifier string) string {
	return fmt.Sprintf("%s:%s:%s", l.cfg.Prefix, prefix, identifier)
}

// CheckLimit counts requests by identifier within the policy's trailing
// window and records the current request when allowed.
func (l *SlidingWindowLimiter) CheckLimit(ctx context.Context, identifier string, policy ports.LimitPolicy, prefix string) ports.RateLimitResult {
	now := l.now()
	allowedAll := ports.RateLimitResult{
		Allowed:   true,
		Limit:     policy.MaxRequests,
		Remaining: policy.MaxRequests,
		ResetTime: now.Add(policy.Window),
	}
	if !l.enabled {
		return allowedAll
	}

	key := l.key(prefix, identifier)
	windowStart := now.Add(-policy.Window)

	// Expire entries that fell out of the window, then count the rest.
	if err := l.store.ZRemRangeByScore(ctx, key, 0, float64(windowStart.UnixNano())); err != nil {
		return l.failOpen(prefix, identifier, err, allowedAll)
	}
	current, err := l.store.ZCard(ctx, key)
	if err != nil {
		return l.failOpen(prefix, identifier, err, allowedAll)
	}

	if current >= int64(policy.MaxRequests) {
		rateLimitDecisions.WithLabelValues(prefix, "denied").Inc()
		return ports.RateLimitResult{
			Allowed:   false,
			Limit:     policy.MaxRequests,
			Remaining: 0,
			ResetTime: now.Add(policy.Window),
		}
	}

	member := strconv.FormatInt(now.UnixNano(), 10)
	if err := l.store.ZAdd(ctx, key, float64(now.UnixNano()), member); err != nil {
		return l.failOpen(prefix, identifier, err, allowedAll)
	}
	if err := l.store.Expire(ctx, key, policy.Window); err != nil {
		l.logWarn(prefix, identifier, err, "failed to refresh rate limit window TTL")
	}

	rateLimitDecisions.WithLabelValues(prefix, "allowed").Inc()
	remaining := policy.MaxRequests - int(current) - 1
	if remaining < 0 {
		remaining = 0
	}
	return ports.RateLimitResult{
		Allowed:   true,
		Limit:     policy.MaxRequests,
		Remaining: remaining,
		ResetTime: now.Add(policy.Window),
	}
}

func (l *SlidingWindowLimiter) failOpen(prefix, identifier string, err error, result ports.RateLimitResult) ports.RateLimitResult {
	l.logWarn(prefix, identifier, err, "rate limiter store error; allowing request (fail-open)")
	rateLimitDecisions.WithLabelValues(prefix, "error").Inc()
	return result
}

func (l *SlidingWindowLimiter) logWarn(prefix, identifier string, err error, msg string) {
	if l.logger != nil {
		l.logger.WithFields(logrus.Fields{"action": prefix, "identifier": identifier}).WithError(err).Warn(msg)
	}
}

func policy(p config.RateLimitPolicy) ports.LimitPolicy {
	return ports.LimitPolicy{Window: p.Window, MaxRequests: p.MaxRequests}
}

func (l *SlidingWindowLimiter) CheckLoginLimit(ctx context.Context, identifier string) ports.RateLimitResult {
	return l.CheckLimit(ctx, identifier, policy(l.cfg.Login), "login")
}

func (l *SlidingWindowLimiter) CheckSignupLimit(ctx context.Context, identifier string) ports.RateLimitResult {
	return l.CheckLimit(ctx, identifier, policy(l.cfg.Signup), "signup")
}

func (l *SlidingWindowLimiter) CheckPasswordResetLimit(ctx context.Context, identifier string) ports.RateLimitResult {
	return l.CheckLimit(ctx, identifier, policy(l.cfg.PasswordReset), "password-reset")
}

func (l *SlidingWindowLimiter) CheckAPILimit(ctx context.Context, identifier string) ports.RateLimitResult {
	return l.CheckLimit(ctx, identifier, policy(l.cfg.API), "api")
}

func (l *SlidingWindowLimiter) CheckSearchLimit(ctx context.Context, identifier string) ports.RateLimitResult {
	return l.CheckLimit(ctx, identifier, policy(l.cfg.Search), "search")
}

// ResetLimit deletes the identifier's window entirely. Administrative override.
func (l *SlidingWindowLimiter) ResetLimit(ctx context.Context, identifier, prefix string) error {
	if _, err := l.store.Del(ctx, l.key(prefix, identifier)); err != nil {
		return fmt.Errorf("failed to reset rate limit for %s:%s: %w", prefix, identifier, err)
	}
	return nil
}

var _ ports.RateLimiter = (*SlidingWindowLimiter)(nil)
