package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/spec-kit/eventbright/internal/domain"
	"github.com/spec-kit/eventbright/internal/events"
	"github.com/spec-kit/eventbright/internal/repository"
	apperrors "github.com/spec-kit/eventbright/pkg/util/errorutil"
)

// PurchaseInput is a request to buy one ticket.
type PurchaseInput struct {
	UserID     int64
	EventID    int64
	PointsUsed decimal.Decimal
	VoucherID  *int64
}

// PaymentInput is a manual bank-transfer submission awaiting review.
type PaymentInput struct {
	UserID       int64
	EventID      int64
	FinalPrice   decimal.Decimal
	PointsUsed   decimal.Decimal
	PaymentProof string
}

// PurchaseService turns a validated purchase into one atomic write.
type PurchaseService struct {
	repos      repository.Repositories
	tx         repository.TxRunner
	vouchers   *VoucherService
	points     *PointService
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// PurchaseDependencies bundles collaborators for the purchase service.
type PurchaseDependencies struct {
	Repos      repository.Repositories
	Tx         repository.TxRunner
	Vouchers   *VoucherService
	Points     *PointService
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewPurchaseService constructs the service.
func NewPurchaseService(deps PurchaseDependencies) *PurchaseService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PurchaseService{
		repos:      deps.Repos,
		tx:         deps.Tx,
		vouchers:   deps.Vouchers,
		points:     deps.Points,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Purchase validates the request and, in a single transaction, deducts
// points, consumes the voucher, records a completed transaction and takes
// one spot from the event. Any rejection leaves storage untouched.
func (s *PurchaseService) Purchase(ctx context.Context, in PurchaseInput) (*domain.Transaction, error) {
	if in.PointsUsed.IsNegative() {
		return nil, apperrors.NewValidationError("pointsUsed must not be negative", nil)
	}

	event, err := s.repos.Events.GetByID(ctx, in.EventID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNoCapacity
		}
		return nil, err
	}
	if !event.HasCapacity() {
		return nil, apperrors.ErrNoCapacity
	}

	user, err := s.repos.Users.GetByID(ctx, in.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUnauthenticated
		}
		return nil, err
	}

	discount, err := s.vouchers.Evaluate(ctx, user.ID, in.VoucherID, event.Price)
	if err != nil {
		return nil, err
	}

	charge := decimal.Max(event.Price.Sub(in.PointsUsed).Sub(discount.Amount), decimal.Zero)

	if _, err := s.points.ApplyPoints(user, in.PointsUsed); err != nil {
		return nil, err
	}

	txn := &domain.Transaction{
		Code:            uuid.NewString(),
		UserID:          user.ID,
		EventID:         event.ID,
		Qty:             1,
		Tax:             decimal.Zero,
		PointsUsed:      in.PointsUsed,
		TotalAmount:     charge,
		PaymentMethodID: domain.PaymentMethodBankTransfer,
		Status:          domain.TransactionStatusCompleted,
	}
	if discount.Applicable {
		voucherID := discount.VoucherID
		txn.VoucherID = &voucherID
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if err := s.points.Deduct(ctx, repos, user.ID, in.PointsUsed); err != nil {
			return err
		}
		if discount.Applicable {
			if err := s.vouchers.Consume(ctx, repos, discount.VoucherID); err != nil {
				return err
			}
		}
		if err := repos.Transactions.Create(ctx, txn); err != nil {
			return err
		}
		if _, err := repos.Events.ReserveSpot(ctx, event.ID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.ErrNoCapacity
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventTransactionCompleted, user, event, txn)
	return txn, nil
}

// SubmitPayment records a pending bank-transfer purchase with its proof of
// payment. Capacity and balances are left alone until the payment is reviewed.
func (s *PurchaseService) SubmitPayment(ctx context.Context, in PaymentInput) (*domain.Transaction, error) {
	if in.PaymentProof == "" {
		return nil, apperrors.NewValidationError("payment proof is required", nil)
	}
	if in.FinalPrice.IsNegative() || in.PointsUsed.IsNegative() {
		return nil, apperrors.NewValidationError("amounts must not be negative", nil)
	}

	event, err := s.repos.Events.GetByID(ctx, in.EventID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("event", map[string]any{"event_id": in.EventID})
		}
		return nil, err
	}
	user, err := s.repos.Users.GetByID(ctx, in.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUnauthenticated
		}
		return nil, err
	}

	proof := in.PaymentProof
	txn := &domain.Transaction{
		Code:            uuid.NewString(),
		UserID:          user.ID,
		EventID:         event.ID,
		Qty:             1,
		Tax:             decimal.Zero,
		PointsUsed:      in.PointsUsed,
		TotalAmount:     in.FinalPrice,
		PaymentMethodID: domain.PaymentMethodBankTransfer,
		PaymentProof:    &proof,
		Status:          domain.TransactionStatusPending,
	}
	if err := s.repos.Transactions.Create(ctx, txn); err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventPaymentSubmitted, user, event, txn)
	return txn, nil
}

func (s *PurchaseService) publish(ctx context.Context, eventType events.EventType, user *domain.User, event *domain.Event, txn *domain.Transaction) {
	if s.dispatcher == nil {
		return
	}
	err := s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    user.ID,
		Timestamp: time.Now(),
		Payload: events.TransactionPayload{
			TransactionID: txn.ID,
			Code:          txn.Code,
			EventID:       event.ID,
			EventName:     event.Name,
			Email:         user.Email,
			TotalAmount:   txn.TotalAmount,
			PointsUsed:    txn.PointsUsed,
			VoucherID:     txn.VoucherID,
			Status:        string(txn.Status),
		},
	})
	if err != nil {
		s.logger.Warn("publish purchase event failed", zap.String("type", string(eventType)), zap.Int64("transaction_id", txn.ID), zap.Error(err))
	}
}
