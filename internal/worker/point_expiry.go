package worker

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/spec-kit/eventbright/internal/service"
)

const expiryLockKey = "lock:point-expiry"

// Sweeper is the point ledger operation the scheduler drives.
type Sweeper interface {
	ExpireDue(ctx context.Context, now time.Time) (service.SweepResult, error)
}

// SweepRecorder receives the outcome of each completed sweep.
type SweepRecorder interface {
	RecordSweep(expired, failed int, removed decimal.Decimal)
}

// PointExpiryRunner runs the point expiry sweep on a cron schedule. When a
// Redis client is set, a lock keeps replicas from sweeping the same tick.
type PointExpiryRunner struct {
	sweeper  Sweeper
	redis    *redis.Client
	lockTTL  time.Duration
	logger   *zap.Logger
	now      func() time.Time
	cron     *cron.Cron
	recorder SweepRecorder
}

// NewPointExpiryRunner constructs the runner. rdb may be nil.
func NewPointExpiryRunner(sweeper Sweeper, rdb *redis.Client, lockTTL time.Duration, logger *zap.Logger) *PointExpiryRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PointExpiryRunner{
		sweeper: sweeper,
		redis:   rdb,
		lockTTL: lockTTL,
		logger:  logger,
		now:     time.Now,
	}
}

// WithRecorder reports sweep outcomes to rec.
func (r *PointExpiryRunner) WithRecorder(rec SweepRecorder) *PointExpiryRunner {
	r.recorder = rec
	return r
}

// Start schedules the sweep with a standard five-field cron spec in UTC.
func (r *PointExpiryRunner) Start(ctx context.Context, spec string) error {
	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(spec, func() { r.RunOnce(ctx) }); err != nil {
		return err
	}
	r.cron = c
	c.Start()
	r.logger.Info("point expiry scheduled", zap.String("cron", spec))
	return nil
}

// Stop halts scheduling and waits for a running sweep to finish.
func (r *PointExpiryRunner) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
}

// RunOnce performs a single sweep. It reports whether this process ran it.
func (r *PointExpiryRunner) RunOnce(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	release, ok := r.acquire(ctx)
	if !ok {
		return false
	}
	defer release()

	result, err := r.sweeper.ExpireDue(ctx, r.now())
	if err != nil {
		r.logger.Error("point expiry sweep failed", zap.Error(err))
		return true
	}
	if r.recorder != nil {
		r.recorder.RecordSweep(result.Expired, result.Failed, result.PointsRemoved)
	}
	return true
}

func (r *PointExpiryRunner) acquire(ctx context.Context) (func(), bool) {
	if r.redis == nil {
		return func() {}, true
	}
	ok, err := r.redis.SetNX(ctx, expiryLockKey, r.now().UTC().Format(time.RFC3339), r.lockTTL).Result()
	if err != nil {
		// grant deletes are conditional; an unlocked run cannot expire one twice
		r.logger.Warn("point expiry lock unavailable, sweeping without it", zap.Error(err))
		return func() {}, true
	}
	if !ok {
		r.logger.Debug("point expiry already running elsewhere")
		return nil, false
	}
	return func() {
		if err := r.redis.Del(context.Background(), expiryLockKey).Err(); err != nil {
			r.logger.Warn("release point expiry lock", zap.Error(err))
		}
	}, true
}
