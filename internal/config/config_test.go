package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:8000", cfg.App.Addr())
	require.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	require.Equal(t, int64(10000), cfg.Points.ReferralReward)
	require.Equal(t, 3, cfg.Points.ReferralValidityMonth)
	require.Equal(t, "0 0 * * *", cfg.Points.ExpiryCron)
	require.Equal(t, 1<<20, cfg.Upload.MaxFileBytes)
	require.True(t, cfg.RateLimit.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("POINT_EXPIRY_CRON", "*/5 * * * *")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "0")
	t.Setenv("POSTGRES_MAX_CONNS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "9090", cfg.App.Port)
	require.Equal(t, "*/5 * * * *", cfg.Points.ExpiryCron)
	require.False(t, cfg.RateLimit.Enabled)
	require.Zero(t, cfg.App.RequestTimeout())
	require.Equal(t, int32(10), cfg.Postgres.MaxConns)
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "x")
	_, err := Load()
	require.Error(t, err)
}

func TestLoadRequiresSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("AUTH_JWT_SECRET", "s3cret")
	_, err = Load()
	require.NoError(t, err)
}

func TestDurationFallbacks(t *testing.T) {
	require.Equal(t, 10*time.Minute, PointsConfig{}.ExpiryLockTTL())
	require.Equal(t, time.Second, RateLimitConfig{}.RefillInterval())
	require.Equal(t, 3*time.Second, RateLimitConfig{RefillIntervalSeconds: 3}.RefillInterval())
}
