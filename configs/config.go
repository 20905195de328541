package configs

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	Log       LogConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Session   SessionConfig
	Admin     AdminConfig
	Features  FeatureFlags
}

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	TLSCertFile  string
	TLSKeyFile   string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	// Pool and timeout settings
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolTimeout  time.Duration
	IdleTimeout  time.Duration
	MaxRetries   int
}

type LogConfig struct {
	Level  string
	Format string // json or text
}

// CacheConfig holds TTL classes and key prefixes for the tagged cache.
type CacheConfig struct {
	Prefix    string
	TagPrefix string
	// TTL classes
	ShortTTL         time.Duration
	MediumTTL        time.Duration
	LongTTL          time.Duration
	UserProfileTTL   time.Duration
	ArtistDataTTL    time.Duration
	SearchTTL        time.Duration
	NotificationsTTL time.Duration
	AnalyticsTTL     time.Duration
	// TTL buffer added to tag indices over their longest member entry
	TagTTLBuffer time.Duration
}

// RateLimitPolicy is a window/max pair for one action class.
type RateLimitPolicy struct {
	Window      time.Duration
	MaxRequests int
}

type RateLimitConfig struct {
	Prefix        string
	Login         RateLimitPolicy
	Signup        RateLimitPolicy
	PasswordReset RateLimitPolicy
	API           RateLimitPolicy
	Search        RateLimitPolicy
}

type SessionConfig struct {
	Prefix     string
	UserPrefix string
	TTL        time.Duration
}

type AdminConfig struct {
	JWTSecret string
}

// FeatureFlags gate the optimization subsystems; a disabled subsystem
// degrades to a no-op rather than an error.
type FeatureFlags struct {
	CacheEnabled        bool
	SessionsEnabled     bool
	RateLimitEnabled    bool
	AnalyticsEnabled    bool
	ErrorLoggingEnabled bool
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
			TLSCertFile:  getEnv("TLS_CERT_FILE", ""),
			TLSKeyFile:   getEnv("TLS_KEY_FILE", ""),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getIntEnv("REDIS_DB", 0),
			PoolSize:     getIntEnv("REDIS_POOL_SIZE", 10),
			MinIdleConns: getIntEnv("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDurationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDurationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolTimeout:  getDurationEnv("REDIS_POOL_TIMEOUT", 4*time.Second),
			IdleTimeout:  getDurationEnv("REDIS_IDLE_TIMEOUT", 5*time.Minute),
			MaxRetries:   getIntEnv("REDIS_MAX_RETRIES", 3),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Cache: CacheConfig{
			Prefix:           getEnv("CACHE_PREFIX", "cache"),
			TagPrefix:        getEnv("CACHE_TAG_PREFIX", "tag"),
			ShortTTL:         getDurationEnv("CACHE_TTL_SHORT", 5*time.Minute),
			MediumTTL:        getDurationEnv("CACHE_TTL_MEDIUM", 30*time.Minute),
			LongTTL:          getDurationEnv("CACHE_TTL_LONG", 24*time.Hour),
			UserProfileTTL:   getDurationEnv("CACHE_TTL_USER_PROFILE", time.Hour),
			ArtistDataTTL:    getDurationEnv("CACHE_TTL_ARTIST_DATA", 2*time.Hour),
			SearchTTL:        getDurationEnv("CACHE_TTL_SEARCH", 10*time.Minute),
			NotificationsTTL: getDurationEnv("CACHE_TTL_NOTIFICATIONS", 5*time.Minute),
			AnalyticsTTL:     getDurationEnv("CACHE_TTL_ANALYTICS", 24*time.Hour),
			TagTTLBuffer:     getDurationEnv("CACHE_TAG_TTL_BUFFER", time.Hour),
		},
		RateLimit: RateLimitConfig{
			Prefix:        getEnv("RATE_LIMIT_PREFIX", "rate"),
			Login:         RateLimitPolicy{Window: getDurationEnv("RATE_LIMIT_LOGIN_WINDOW", 15*time.Minute), MaxRequests: getIntEnv("RATE_LIMIT_LOGIN_MAX", 5)},
			Signup:        RateLimitPolicy{Window: getDurationEnv("RATE_LIMIT_SIGNUP_WINDOW", time.Hour), MaxRequests: getIntEnv("RATE_LIMIT_SIGNUP_MAX", 3)},
			PasswordReset: RateLimitPolicy{Window: getDurationEnv("RATE_LIMIT_PASSWORD_RESET_WINDOW", time.Hour), MaxRequests: getIntEnv("RATE_LIMIT_PASSWORD_RESET_MAX", 3)},
			API:           RateLimitPolicy{Window: getDurationEnv("RATE_LIMIT_API_WINDOW", time.Minute), MaxRequests: getIntEnv("RATE_LIMIT_API_MAX", 60)},
			Search:        RateLimitPolicy{Window: getDurationEnv("RATE_LIMIT_SEARCH_WINDOW", time.Minute), MaxRequests: getIntEnv("RATE_LIMIT_SEARCH_MAX", 30)},
		},
		Session: SessionConfig{
			Prefix:     getEnv("SESSION_PREFIX", "session"),
			UserPrefix: getEnv("SESSION_USER_PREFIX", "session:user"),
			TTL:        getDurationEnv("SESSION_TTL", 7*24*time.Hour),
		},
		Admin: AdminConfig{
			JWTSecret: getEnv("ADMIN_JWT_SECRET", ""),
		},
		Features: FeatureFlags{
			CacheEnabled:        getBoolEnv("FEATURE_CACHE_ENABLED", true),
			SessionsEnabled:     getBoolEnv("FEATURE_SESSIONS_ENABLED", true),
			RateLimitEnabled:    getBoolEnv("FEATURE_RATE_LIMIT_ENABLED", true),
			AnalyticsEnabled:    getBoolEnv("FEATURE_ANALYTICS_ENABLED", true),
			ErrorLoggingEnabled: getBoolEnv("FEATURE_ERROR_LOGGING_ENABLED", true),
		},
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
