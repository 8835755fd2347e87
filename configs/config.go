package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/avatarctic/webutil/internal/infrastructure/settings"
)

// Cache backends selectable with cache.backend.
const (
	BackendFile  = "file"
	BackendShm   = "shm"
	BackendRedis = "redis"
)

type Config struct {
	Server  ServerConfig
	Cache   CacheConfig
	Redis   RedisConfig
	Log     LogConfig
	Site    SiteConfig
	Session SessionConfig
	// RateLimit is disabled when RequestsPerWindow is zero.
	RateLimit RateLimitConfig

	// Settings holds every key read from the settings file.
	Settings *settings.Store
}

type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	TLSCertFile     string
	TLSKeyFile      string
}

type CacheConfig struct {
	Backend  string
	File     string
	Salt     string
	Size     int
	RedisKey string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	// Pool and timeout settings
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string // json or text
	File   string
}

type SiteConfig struct {
	URL    string
	Router string
}

type RateLimitConfig struct {
	RequestsPerWindow int
	BurstMultiplier   float64
	Window            time.Duration
	KeyPrefix         string
	TrustProxy        bool
}

type SessionConfig struct {
	Cookie string
	TTL    time.Duration
}

// Load reads an optional .env file, merges the settings file at path and
// resolves every option as environment variable, then settings key, then
// default. A missing settings file is not an error.
func Load(path string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	st := settings.New()
	if path != "" {
		if err := st.Source(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	cfg := FromSettings(st)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromSettings builds a Config from st and the environment.
func FromSettings(st *settings.Store) *Config {
	return &Config{
		Server: ServerConfig{
			Host:            getString(st, "server.host", "SERVER_HOST", "0.0.0.0"),
			Port:            getString(st, "server.port", "SERVER_PORT", "8080"),
			ReadTimeout:     getDuration(st, "server.read_timeout", "SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDuration(st, "server.write_timeout", "SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getDuration(st, "server.idle_timeout", "SERVER_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getDuration(st, "server.shutdown_timeout", "SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			TLSCertFile:     getString(st, "server.tls_cert", "TLS_CERT_FILE", ""),
			TLSKeyFile:      getString(st, "server.tls_key", "TLS_KEY_FILE", ""),
		},
		Cache: CacheConfig{
			Backend:  getString(st, "cache.backend", "CACHE_BACKEND", BackendFile),
			File:     getString(st, "cache.file", "CACHE_FILE", "cache.bin"),
			Salt:     getString(st, "mcache.solt", "MCACHE_SOLT", ""),
			Size:     getInt(st, "cache.size", "CACHE_SIZE", 10485760),
			RedisKey: getString(st, "cache.redis_key", "CACHE_REDIS_KEY", "webutil:cache"),
		},
		Redis: RedisConfig{
			Host:         getString(st, "redis.host", "REDIS_HOST", "localhost"),
			Port:         getString(st, "redis.port", "REDIS_PORT", "6379"),
			Password:     getString(st, "redis.password", "REDIS_PASSWORD", ""),
			DB:           getInt(st, "redis.db", "REDIS_DB", 0),
			PoolSize:     getInt(st, "redis.pool_size", "REDIS_POOL_SIZE", 10),
			DialTimeout:  getDuration(st, "redis.dial_timeout", "REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration(st, "redis.read_timeout", "REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration(st, "redis.write_timeout", "REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Log: LogConfig{
			Level:  getString(st, "log.level", "LOG_LEVEL", "info"),
			Format: getString(st, "log.format", "LOG_FORMAT", "json"),
			File:   getString(st, "logger.file", "LOGGER_FILE", ""),
		},
		Site: SiteConfig{
			URL:    getString(st, "site.url", "SITE_URL", ""),
			Router: getString(st, "site.router", "SITE_ROUTER", ""),
		},
		Session: SessionConfig{
			Cookie: getString(st, "session.cookie", "SESSION_COOKIE", "SESSID"),
			TTL:    getDuration(st, "session.ttl", "SESSION_TTL", 24*time.Minute),
		},
		RateLimit: RateLimitConfig{
			RequestsPerWindow: getInt(st, "ratelimit.requests", "RATE_LIMIT_REQUESTS", 0),
			BurstMultiplier:   getFloat(st, "ratelimit.burst", "RATE_LIMIT_BURST", 1),
			Window:            getDuration(st, "ratelimit.window", "RATE_LIMIT_WINDOW", time.Minute),
			KeyPrefix:         getString(st, "ratelimit.key_prefix", "RATE_LIMIT_KEY_PREFIX", "ratelimit:ip"),
			TrustProxy:        getBool(st, "ratelimit.trust_proxy", "RATE_LIMIT_TRUST_PROXY", false),
		},
		Settings: st,
	}
}

// Validate rejects combinations the cache cannot run with.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case BackendFile:
		if c.Cache.File == "" {
			return fmt.Errorf("cache.file must be set for the %s backend", BackendFile)
		}
	case BackendShm:
		if c.Cache.Salt == "" {
			return fmt.Errorf("mcache.solt must be set for the %s backend", BackendShm)
		}
		if c.Cache.Size <= 10 {
			return fmt.Errorf("cache.size %d is too small", c.Cache.Size)
		}
	case BackendRedis:
	default:
		return fmt.Errorf("unknown cache.backend %q", c.Cache.Backend)
	}
	if c.RateLimit.RequestsPerWindow < 0 {
		return fmt.Errorf("ratelimit.requests must not be negative")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive")
	}
	return nil
}

func getString(st *settings.Store, key, envKey, defaultValue string) string {
	if value := os.Getenv(envKey); value != "" {
		return value
	}
	return st.Get(key, defaultValue)
}

func getInt(st *settings.Store, key, envKey string, defaultValue int) int {
	if value := os.Getenv(envKey); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return st.Int(key, defaultValue)
}

func getBool(st *settings.Store, key, envKey string, defaultValue bool) bool {
	if value := os.Getenv(envKey); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return st.Bool(key, defaultValue)
}

func getFloat(st *settings.Store, key, envKey string, defaultValue float64) float64 {
	value := os.Getenv(envKey)
	if value == "" {
		value = st.Get(key, "")
	}
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func getDuration(st *settings.Store, key, envKey string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(envKey); value != "" {
		return settings.ParseDuration(value, defaultValue)
	}
	return st.Duration(key, defaultValue)
}
