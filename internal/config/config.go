package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	RabbitMQ  RabbitMQConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	Points    PointsConfig
	Upload    UploadConfig
	RateLimit RateLimitConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	BaseWebURL            string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RabbitMQConfig points at the broker used for outbound notifications.
// An empty URL disables publishing; notifications are then only logged.
type RabbitMQConfig struct {
	URL string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// PointsConfig governs referral rewards and the expiry sweep.
type PointsConfig struct {
	ReferralReward        int64
	ReferralValidityMonth int
	ReferralVoucherPct    int64
	ExpiryCron            string
	ExpiryLockTTLSeconds  int
}

// UploadConfig controls payment proof storage.
type UploadConfig struct {
	Dir          string
	MaxFileBytes int
}

// RateLimitConfig drives the Redis token bucket on purchase routes.
type RateLimitConfig struct {
	Enabled               bool
	Capacity              int
	RefillTokens          int
	RefillIntervalSeconds int
	Prefix                string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "eventbright-api"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8000"),
			Version:               getEnv("APP_VERSION", "dev"),
			BaseWebURL:            getEnv("BASE_WEB_URL", "http://localhost:3000"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		RabbitMQ: RabbitMQConfig{
			URL: os.Getenv("RABBITMQ_URL"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 10),
		},
		Points: PointsConfig{
			ReferralReward:        int64(getEnvAsInt("POINTS_REFERRAL_REWARD", 10000)),
			ReferralValidityMonth: getEnvAsInt("POINTS_REFERRAL_VALIDITY_MONTHS", 3),
			ReferralVoucherPct:    int64(getEnvAsInt("POINTS_REFERRAL_VOUCHER_PERCENT", 10)),
			ExpiryCron:            getEnv("POINT_EXPIRY_CRON", "0 0 * * *"),
			ExpiryLockTTLSeconds:  getEnvAsInt("POINT_EXPIRY_LOCK_TTL_SECONDS", 600),
		},
		Upload: UploadConfig{
			Dir:          getEnv("UPLOAD_DIR", "public/payments"),
			MaxFileBytes: getEnvAsInt("UPLOAD_MAX_FILE_BYTES", 1<<20),
		},
		RateLimit: RateLimitConfig{
			Enabled:               getEnvAsBool("RATE_LIMIT_ENABLED", true),
			Capacity:              getEnvAsInt("RATE_LIMIT_CAPACITY", 20),
			RefillTokens:          getEnvAsInt("RATE_LIMIT_REFILL_TOKENS", 1),
			RefillIntervalSeconds: getEnvAsInt("RATE_LIMIT_REFILL_INTERVAL_SECONDS", 3),
			Prefix:                getEnv("RATE_LIMIT_PREFIX", "rl"),
		},
	}

	if cfg.App.Env == "production" && cfg.Auth.JWTSecret == "dev-secret" {
		return nil, fmt.Errorf("AUTH_JWT_SECRET must be set in production")
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// ExpiryLockTTL is how long one replica holds the sweep lock.
func (p PointsConfig) ExpiryLockTTL() time.Duration {
	if p.ExpiryLockTTLSeconds <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(p.ExpiryLockTTLSeconds) * time.Second
}

// RefillInterval returns the bucket refill period.
func (r RateLimitConfig) RefillInterval() time.Duration {
	if r.RefillIntervalSeconds <= 0 {
		return time.Second
	}
	return time.Duration(r.RefillIntervalSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
