package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppName         = "WalletOrders"
	defaultAppEnv          = "development"
	defaultPort            = "3000"
	defaultLogLevel        = "info"
	defaultShutdownDelay   = 10 * time.Second
	defaultIdempotencyTTL  = 24 * time.Hour
	defaultFulfillmentURL  = "https://jsonplaceholder.typicode.com/posts"
	defaultFulfillmentWait = 5 * time.Second
	defaultMaxAttempts     = 3
	defaultBaseDelay       = time.Second
	defaultMaxDelay        = 5 * time.Second
	defaultTokenTTL        = 7 * 24 * time.Hour
	defaultRateLimit       = 100
	defaultDBMaxConns      = 10
	defaultDBIdleTime      = 5 * time.Minute
	defaultRedisTimeout    = 3 * time.Second
	idemTTLSecondsEnvVar   = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar       = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	Postgres    Postgres
	Redis       Redis
	Fulfillment Fulfillment

	AdminAPIKey        string
	JWTSecret          string
	AccessTokenTTL     time.Duration
	RateLimitPerMinute int
	// TrustClientIDHeader lets callers identify themselves with the client-id
	// header when no bearer token is presented.
	TrustClientIDHeader bool
}

// Postgres sizes the connection pool. Ledger transactions are short, so a
// small pool is enough for a single instance.
type Postgres struct {
	MaxConns        int32
	MinConns        int32
	MaxConnIdleTime time.Duration
}

// Redis tunes the client used for idempotency keys and rate limiting.
// Zero values keep the go-redis defaults.
type Redis struct {
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Fulfillment holds settings for the outbound fulfillment provider.
type Fulfillment struct {
	URL         string
	Timeout     time.Duration
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Load reads configuration values from the environment and populates a Config instance.
// A .env file in the working directory is read first when present; real
// environment variables win over its values.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		AppEnv:         strings.ToLower(getEnv("APP_ENV", defaultAppEnv)),
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		ShutdownPeriod: defaultShutdownDelay,
		IdempotencyTTL: defaultIdempotencyTTL,
		Postgres: Postgres{
			MaxConns:        defaultDBMaxConns,
			MaxConnIdleTime: defaultDBIdleTime,
		},
		Redis: Redis{
			ReadTimeout:  defaultRedisTimeout,
			WriteTimeout: defaultRedisTimeout,
		},
		Fulfillment: Fulfillment{
			URL:         getEnv("FULFILLMENT_API_URL", defaultFulfillmentURL),
			Timeout:     defaultFulfillmentWait,
			MaxAttempts: defaultMaxAttempts,
			BaseDelay:   defaultBaseDelay,
			MaxDelay:    defaultMaxDelay,
		},
		AdminAPIKey:        os.Getenv("ADMIN_API_KEY"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		AccessTokenTTL:     defaultTokenTTL,
		RateLimitPerMinute: defaultRateLimit,
	}

	if v := os.Getenv(shutdownSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownSecondsEnvVar, err)
		}
		cfg.ShutdownPeriod = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(shutdownDurationEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownDurationEnvVar, err)
		}
		cfg.ShutdownPeriod = d
	}

	if v := os.Getenv(idemTTLSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", idemTTLSecondsEnvVar, err)
		}
		cfg.IdempotencyTTL = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(idemTTLDurEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", idemTTLDurEnvVar, err)
		}
		cfg.IdempotencyTTL = d
	}

	if v := os.Getenv("DB_MAX_CONNS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("invalid DB_MAX_CONNS: %q", v)
		}
		cfg.Postgres.MaxConns = int32(n)
	}
	if v := os.Getenv("DB_MIN_CONNS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("invalid DB_MIN_CONNS: %q", v)
		}
		cfg.Postgres.MinConns = int32(n)
	}
	if v := os.Getenv("DB_MAX_CONN_IDLE_TIME"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DB_MAX_CONN_IDLE_TIME: %w", err)
		}
		cfg.Postgres.MaxConnIdleTime = d
	}
	if v := os.Getenv("REDIS_POOL_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("invalid REDIS_POOL_SIZE: %q", v)
		}
		cfg.Redis.PoolSize = n
	}
	for env, dst := range map[string]*time.Duration{
		"REDIS_DIAL_TIMEOUT":  &cfg.Redis.DialTimeout,
		"REDIS_READ_TIMEOUT":  &cfg.Redis.ReadTimeout,
		"REDIS_WRITE_TIMEOUT": &cfg.Redis.WriteTimeout,
	} {
		if v := os.Getenv(env); v != "" {
			d, err := parseMillisOrDuration(v)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s: %w", env, err)
			}
			*dst = d
		}
	}

	// FULFILLMENT_API_TIMEOUT is milliseconds when it is a bare integer.
	if v := os.Getenv("FULFILLMENT_API_TIMEOUT"); v != "" {
		d, err := parseMillisOrDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid FULFILLMENT_API_TIMEOUT: %w", err)
		}
		cfg.Fulfillment.Timeout = d
	}
	if v := os.Getenv("FULFILLMENT_BASE_DELAY"); v != "" {
		d, err := parseMillisOrDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid FULFILLMENT_BASE_DELAY: %w", err)
		}
		cfg.Fulfillment.BaseDelay = d
	}
	if v := os.Getenv("FULFILLMENT_MAX_DELAY"); v != "" {
		d, err := parseMillisOrDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid FULFILLMENT_MAX_DELAY: %w", err)
		}
		cfg.Fulfillment.MaxDelay = d
	}
	if v := os.Getenv("FULFILLMENT_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("invalid FULFILLMENT_MAX_ATTEMPTS: %q", v)
		}
		cfg.Fulfillment.MaxAttempts = n
	}

	if v := os.Getenv("ACCESS_TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid ACCESS_TOKEN_TTL: %w", err)
		}
		cfg.AccessTokenTTL = d
	}
	if v := os.Getenv("RATE_LIMIT_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE: %w", err)
		}
		cfg.RateLimitPerMinute = n
	}

	cfg.TrustClientIDHeader = cfg.IsDevelopment()
	if v := os.Getenv("TRUST_CLIENT_ID_HEADER"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid TRUST_CLIENT_ID_HEADER: %w", err)
		}
		cfg.TrustClientIDHeader = b
	}

	if cfg.IsDevelopment() {
		if cfg.JWTSecret == "" {
			cfg.JWTSecret = "dev-secret-change-me"
		}
		return cfg, nil
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL must be set")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("REDIS_URL must be set")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET must be set")
	}
	if cfg.AdminAPIKey == "" {
		return Config{}, fmt.Errorf("ADMIN_API_KEY must be set")
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDevelopment reports whether the service runs in a local/dev environment,
// where missing Postgres or Redis fall back to in-memory stores.
func (c Config) IsDevelopment() bool {
	switch c.AppEnv {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseMillisOrDuration(v string) (time.Duration, error) {
	if ms, err := strconv.Atoi(v); err == nil {
		if ms < 0 {
			return 0, fmt.Errorf("negative duration %d", ms)
		}
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(v)
}
