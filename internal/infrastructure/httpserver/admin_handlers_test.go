package httpserver_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	config "github.com/oeeez/artistly-platform/configs"
	"github.com/oeeez/artistly-platform/internal/application/services"
	"github.com/oeeez/artistly-platform/internal/infrastructure/httpserver"
	"github.com/oeeez/artistly-platform/internal/infrastructure/memory"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-admin-secret"

type testEnv struct {
	server *httpserver.Server
	cache  *services.TaggedCache
	store  *memory.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	cacheCfg := &config.CacheConfig{
		Prefix: "cache", TagPrefix: "tag",
		ShortTTL: 5 * time.Minute, MediumTTL: 30 * time.Minute, LongTTL: 24 * time.Hour,
		UserProfileTTL: time.Hour, ArtistDataTTL: 2 * time.Hour, SearchTTL: 10 * time.Minute,
		NotificationsTTL: 5 * time.Minute, AnalyticsTTL: 24 * time.Hour, TagTTLBuffer: time.Hour,
	}
	rlCfg := &config.RateLimitConfig{
		Prefix: "rate",
		Login:  config.RateLimitPolicy{Window: 15 * time.Minute, MaxRequests: 5},
		API:    config.RateLimitPolicy{Window: time.Minute, MaxRequests: 1000},
		Search: config.RateLimitPolicy{Window: time.Minute, MaxRequests: 30},
	}
	sessCfg := &config.SessionConfig{Prefix: "session", UserPrefix: "session:user", TTL: time.Hour}

	cache := services.NewTaggedCache(store, cacheCfg, true, nil)
	limiter := services.NewSlidingWindowLimiter(store, rlCfg, true, nil)
	sessions := services.NewSessionRegistry(store, sessCfg, true, nil)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	server := httpserver.NewServer(&httpserver.ServerConfig{}, testSecret, logger, httpserver.ServerDeps{
		Cache:       cache,
		RateLimiter: limiter,
		Sessions:    sessions,
		Store:       store,
	})
	return &testEnv{server: server, cache: cache, store: store}
}

func adminToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "ops",
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (e *testEnv) request(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.server.Echo().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestAdminRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodGet, "/admin/cache/stats", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.request(t, http.MethodGet, "/admin/cache/stats", "", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRejectsNonAdminRole(t *testing.T) {
	env := newTestEnv(t)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user", "role": "member", "exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	rec := env.request(t, http.MethodGet, "/admin/cache/stats", "", signed)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestClearCacheByKey(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.cache.Set(ctx, "artist:a1", "cached", nil)

	rec := env.request(t, http.MethodPost, "/admin/cache/clear", `{"key":"artist:a1"}`, adminToken(t))
	assert.Equal(t, http.StatusOK, rec.Code)

	var out string
	assert.False(t, env.cache.Get(ctx, "artist:a1", &out), "key should be gone after clear")
}

func TestClearCachePatternNotImplemented(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodPost, "/admin/cache/clear", `{"pattern":"artist:*"}`, adminToken(t))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["message"], "not implemented")
}

func TestClearCacheMissingArgs(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodPost, "/admin/cache/clear", `{}`, adminToken(t))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCacheStatsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.cache.Set(ctx, "a", 1, nil)
	env.cache.Set(ctx, "b", 2, nil)

	rec := env.request(t, http.MethodGet, "/admin/cache/stats", "", adminToken(t))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Cache struct {
			TotalKeys int `json:"totalKeys"`
		} `json:"cache"`
		Timestamp string `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Cache.TotalKeys)
	assert.NotEmpty(t, body.Timestamp)
}

func TestSessionAdminEndpoints(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sessions := services.NewSessionRegistry(env.store, &config.SessionConfig{
		Prefix: "session", UserPrefix: "session:user", TTL: time.Hour,
	}, true, nil)
	_, err := sessions.Create(ctx, "s1", "u1", nil, nil)
	require.NoError(t, err)
	_, err = sessions.Create(ctx, "s2", "u1", nil, nil)
	require.NoError(t, err)

	rec := env.request(t, http.MethodGet, "/admin/sessions/stats", "", adminToken(t))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.request(t, http.MethodDelete, "/admin/sessions/s1", "", adminToken(t))
	assert.Equal(t, http.StatusOK, rec.Code)
	got, err := sessions.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, got, "session should be terminated")

	rec = env.request(t, http.MethodDelete, "/admin/users/u1/sessions", "", adminToken(t))
	assert.Equal(t, http.StatusOK, rec.Code)
	remaining, err := sessions.GetUserSessions(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestResetRateLimitEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodPost, "/admin/ratelimit/reset", `{"identifier":"1.2.3.4","prefix":"login"}`, adminToken(t))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.request(t, http.MethodPost, "/admin/ratelimit/reset", `{"identifier":""}`, adminToken(t))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimitHeadersPresent(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodGet, "/health", "", "")
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Remaining"))
}
