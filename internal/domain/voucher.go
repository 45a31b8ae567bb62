package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// VoucherType selects how a voucher's amount is applied.
type VoucherType string

const (
	VoucherTypePercentage VoucherType = "percentage"
	VoucherTypeFixed      VoucherType = "fixed"
)

const VoucherCategoryDiscount = "discount"

// Voucher is a single-use discount issued to one user.
type Voucher struct {
	ID        int64
	UserID    int64
	Code      string
	Type      VoucherType
	Category  string
	Amount    decimal.Decimal
	Active    bool
	StartDate time.Time
	EndDate   time.Time
	Qty       int
	CreatedAt time.Time
}

// UsableAt reports whether the voucher is active and now falls in [StartDate, EndDate).
func (v *Voucher) UsableAt(now time.Time) bool {
	if v == nil || !v.Active {
		return false
	}
	return !now.Before(v.StartDate) && now.Before(v.EndDate)
}

// DiscountFor returns the discount this voucher grants on price. The result is not clamped.
func (v *Voucher) DiscountFor(price decimal.Decimal) decimal.Decimal {
	if v.Type == VoucherTypePercentage {
		return price.Mul(v.Amount).Div(decimal.NewFromInt(100))
	}
	return v.Amount
}
