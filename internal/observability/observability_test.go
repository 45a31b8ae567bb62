package observability

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/eventbright/internal/config"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/events", "GET", 200, 10*time.Millisecond)
	m.RecordRequest("/events", "GET", 200, 30*time.Millisecond)
	m.RecordRequest("/auth/login", "POST", 401, time.Millisecond)
	m.RecordError("/auth/login", "POST", "UNAUTHORIZED")
	m.RecordPurchase("completed")
	m.RecordPurchase("NO_CAPACITY")
	m.RecordPurchase("completed")
	m.RecordSweep(3, 1, decimal.NewFromInt(10000))
	m.RecordSweep(1, 0, decimal.NewFromInt(5000))

	snap := m.Snapshot()
	require.Len(t, snap.Requests, 2)
	assert.Equal(t, "/auth/login|POST|401", snap.Requests[0].Route)
	assert.Equal(t, "/events|GET|200", snap.Requests[1].Route)
	assert.Equal(t, int64(2), snap.Requests[1].Count)
	assert.InDelta(t, 20.0, snap.Requests[1].AvgMillis, 0.001)
	assert.Equal(t, int64(1), snap.Errors["/auth/login|POST|UNAUTHORIZED"])
	assert.Equal(t, int64(2), snap.Purchases["completed"])
	assert.Equal(t, SweepTotals{Runs: 2, Expired: 4, Failed: 1, PointsRemoved: "15000"}, snap.Sweeps)
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, 0)
	m.RecordError("/", "GET", "X")
	m.RecordPurchase("completed")
	m.RecordSweep(1, 0, decimal.NewFromInt(1))
}

func TestRequestLoggerUsesRoutePattern(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	metrics := NewMetrics()

	app := fiber.New()
	app.Use(RequestLogger(zap.New(core), metrics))
	app.Get("/events/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	resp, err := app.Test(httptest.NewRequest("GET", "/events/42", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(requestIDHeader))

	snap := metrics.Snapshot()
	require.Len(t, snap.Requests, 1)
	assert.Equal(t, "/events/:id|GET|200", snap.Requests[0].Route)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "/events/42", entries[0].ContextMap()["path"])
}

func TestRequestLoggerKeepsIncomingRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestLogger(zap.NewNop(), nil))
	app.Get("/", func(c *fiber.Ctx) error { return nil })

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", resp.Header.Get(requestIDHeader))
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	logger, err := NewLogger(config.AppConfig{Name: "eventbright-api", Env: "test"}, config.LoggerConfig{Level: "loud"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}
