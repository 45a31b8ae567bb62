package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/eventbright/internal/domain"
	"github.com/spec-kit/eventbright/internal/repository"
	apperrors "github.com/spec-kit/eventbright/pkg/util/errorutil"
)

// Discount is the outcome of evaluating a voucher against a price.
type Discount struct {
	Applicable bool
	VoucherID  int64
	Amount     decimal.Decimal
}

// VoucherService validates and consumes discount vouchers.
type VoucherService struct {
	vouchers repository.VoucherRepository
	now      func() time.Time
}

// NewVoucherService constructs the service.
func NewVoucherService(vouchers repository.VoucherRepository) *VoucherService {
	return &VoucherService{vouchers: vouchers, now: time.Now}
}

// Evaluate previews the discount voucherID grants userID on price. A nil
// voucherID is not an error; it yields a non-applicable Discount. Nothing
// is consumed.
func (s *VoucherService) Evaluate(ctx context.Context, userID int64, voucherID *int64, price decimal.Decimal) (Discount, error) {
	if voucherID == nil {
		return Discount{Amount: decimal.Zero}, nil
	}

	voucher, err := s.vouchers.GetByID(ctx, *voucherID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Discount{}, apperrors.ErrInvalidVoucher
		}
		return Discount{}, err
	}
	if voucher.UserID != userID || !voucher.UsableAt(s.now()) {
		return Discount{}, apperrors.ErrInvalidVoucher
	}

	return Discount{Applicable: true, VoucherID: voucher.ID, Amount: voucher.DiscountFor(price)}, nil
}

// Consume deactivates the voucher through repos, which must be bound to the
// purchase transaction. A voucher used concurrently fails with ErrInvalidVoucher.
func (s *VoucherService) Consume(ctx context.Context, repos repository.Repositories, voucherID int64) error {
	if err := repos.Vouchers.Consume(ctx, voucherID, s.now()); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrInvalidVoucher
		}
		return err
	}
	return nil
}

// ListUsable returns the user's vouchers that can be redeemed right now.
func (s *VoucherService) ListUsable(ctx context.Context, userID int64) ([]domain.Voucher, error) {
	return s.vouchers.ListUsableByUser(ctx, userID, s.now())
}

// IssuePercentage creates a single-use percentage voucher for userID valid
// from now until until.
func (s *VoucherService) IssuePercentage(ctx context.Context, repos repository.Repositories, userID int64, percent decimal.Decimal, until time.Time) (*domain.Voucher, error) {
	voucher := &domain.Voucher{
		UserID:    userID,
		Code:      generateVoucherCode(),
		Type:      domain.VoucherTypePercentage,
		Category:  domain.VoucherCategoryDiscount,
		Amount:    percent,
		Active:    true,
		StartDate: s.now(),
		EndDate:   until,
		Qty:       1,
	}
	if err := repos.Vouchers.Create(ctx, voucher); err != nil {
		return nil, err
	}
	return voucher, nil
}

func generateVoucherCode() string {
	return "REF-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
