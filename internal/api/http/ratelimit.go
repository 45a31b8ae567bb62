package http

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/eventbright/internal/auth"
	"github.com/spec-kit/eventbright/internal/config"
	apperrors "github.com/spec-kit/eventbright/pkg/util/errorutil"
)

var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill_tokens = tonumber(ARGV[3])
local interval_ms = tonumber(ARGV[4])
local ttl_seconds = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])

if tokens == nil or last_refill == nil then
    tokens = capacity
    last_refill = now_ms
end

if interval_ms > 0 and refill_tokens > 0 then
    local elapsed = math.max(0, now_ms - last_refill)
    local intervals = math.floor(elapsed / interval_ms)
    if intervals > 0 then
        tokens = math.min(capacity, tokens + (intervals * refill_tokens))
        last_refill = last_refill + (intervals * interval_ms)
    end
end

local allowed = 0
local retry_after_ms = 0
if tokens > 0 then
    allowed = 1
    tokens = tokens - 1
else
    retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('EXPIRE', key, ttl_seconds)

return { allowed, tokens, retry_after_ms }
`)

// RateLimiter is a Redis token bucket keyed by caller and route. It fails
// open when Redis is unavailable.
type RateLimiter struct {
	cfg    config.RateLimitConfig
	redis  *redis.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewRateLimiter builds the limiter. A nil client or disabled config yields
// a pass-through handler.
func NewRateLimiter(cfg config.RateLimitConfig, rdb *redis.Client, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{cfg: cfg, redis: rdb, logger: logger, now: time.Now}
}

// Handle enforces the bucket for the current request.
func (l *RateLimiter) Handle(c *fiber.Ctx) error {
	if !l.cfg.Enabled || l.redis == nil || l.cfg.Capacity <= 0 {
		return c.Next()
	}

	interval := l.cfg.RefillInterval()
	ttl := l.bucketTTL(interval)
	key := l.key(c)

	vals, err := tokenBucketScript.Run(c.UserContext(), l.redis, []string{key},
		l.now().UnixMilli(), l.cfg.Capacity, l.cfg.RefillTokens, interval.Milliseconds(), ttl).Int64Slice()
	if err != nil || len(vals) != 3 {
		l.logger.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
		return c.Next()
	}

	c.Set("X-RateLimit-Limit", strconv.Itoa(l.cfg.Capacity))
	c.Set("X-RateLimit-Remaining", strconv.FormatInt(vals[1], 10))

	if vals[0] != 1 {
		secs := int(math.Ceil(float64(vals[2]) / 1000.0))
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(secs))
		return apperrors.NewRateLimited(secs)
	}
	return c.Next()
}

// bucketTTL keeps idle buckets around long enough to refill completely.
func (l *RateLimiter) bucketTTL(interval time.Duration) int64 {
	refill := l.cfg.RefillTokens
	if refill <= 0 {
		refill = 1
	}
	full := time.Duration((l.cfg.Capacity+refill-1)/refill) * interval
	secs := int64(full / time.Second)
	if secs < 60 {
		secs = 60
	}
	return secs
}

func (l *RateLimiter) key(c *fiber.Ctx) string {
	caller := "ip:" + c.IP()
	if result, ok := auth.ResultFromContext(c).(auth.Authenticated); ok {
		caller = fmt.Sprintf("user:%d", result.UserID)
	}
	return strings.Join([]string{l.cfg.Prefix, caller, c.Method() + " " + c.Path()}, ":")
}
