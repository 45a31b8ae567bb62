package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/spec-kit/eventbright/internal/domain"
	"github.com/spec-kit/eventbright/internal/repository"
	apperrors "github.com/spec-kit/eventbright/pkg/util/errorutil"
)

// SweepResult summarizes one expiry run.
type SweepResult struct {
	Expired       int
	Failed        int
	PointsRemoved decimal.Decimal
}

// PointService maintains user point balances and their expiring grants.
type PointService struct {
	tx     repository.TxRunner
	points repository.PointRepository
	logger *zap.Logger
}

// NewPointService constructs the service.
func NewPointService(tx repository.TxRunner, points repository.PointRepository, logger *zap.Logger) *PointService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PointService{tx: tx, points: points, logger: logger}
}

// ApplyPoints checks that user can spend amount and returns the balance left
// afterwards. It does not write anything.
func (s *PointService) ApplyPoints(user *domain.User, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, apperrors.NewValidationError("pointsUsed must not be negative", nil)
	}
	if amount.IsZero() {
		return user.TotalPoint, nil
	}
	if user.TotalPoint.LessThan(amount) {
		return decimal.Zero, apperrors.ErrInsufficientPoints
	}
	return user.TotalPoint.Sub(amount), nil
}

// Deduct lowers the balance inside the caller's transaction. The update only
// applies while the stored balance still covers amount.
func (s *PointService) Deduct(ctx context.Context, repos repository.Repositories, userID int64, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return nil
	}
	if _, err := repos.Users.DeductPoints(ctx, userID, amount); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrInsufficientPoints
		}
		return err
	}
	return nil
}

// Grant records a point grant and credits it to the user's balance.
func (s *PointService) Grant(ctx context.Context, repos repository.Repositories, userID int64, amount decimal.Decimal, expiresAt time.Time) (*domain.PointGrant, error) {
	grant := &domain.PointGrant{UserID: userID, Amount: amount, ExpiresAt: expiresAt}
	if err := repos.Points.Create(ctx, grant); err != nil {
		return nil, err
	}
	if err := repos.Users.AddPoints(ctx, userID, amount); err != nil {
		return nil, err
	}
	return grant, nil
}

// ExpireDue removes every grant whose expiry is at or before now and takes
// its amount off the owner's balance. Each grant commits on its own; a grant
// that fails is logged and left for the next run.
func (s *PointService) ExpireDue(ctx context.Context, now time.Time) (SweepResult, error) {
	result := SweepResult{PointsRemoved: decimal.Zero}

	due, err := s.points.ListDue(ctx, now)
	if err != nil {
		return result, err
	}

	for _, grant := range due {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		removed := false
		err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
			ok, err := repos.Points.Delete(ctx, grant.ID)
			if err != nil || !ok {
				return err
			}
			if err := repos.Users.ExpirePoints(ctx, grant.UserID, grant.Amount); err != nil {
				return err
			}
			removed = true
			return nil
		})
		if err != nil {
			result.Failed++
			s.logger.Error("point grant expiry failed",
				zap.Int64("grant_id", grant.ID),
				zap.Int64("user_id", grant.UserID),
				zap.Error(err))
			continue
		}
		if removed {
			result.Expired++
			result.PointsRemoved = result.PointsRemoved.Add(grant.Amount)
		}
	}

	s.logger.Info("point expiry sweep finished",
		zap.Int("expired", result.Expired),
		zap.Int("failed", result.Failed),
		zap.String("points_removed", result.PointsRemoved.String()))
	return result, nil
}
