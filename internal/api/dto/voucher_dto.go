package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/eventbright/internal/domain"
)

// VoucherResponse is the public view of a voucher.
type VoucherResponse struct {
	ID        int64              `json:"id"`
	UserID    int64              `json:"user_id"`
	Code      string             `json:"voucher_code"`
	Type      domain.VoucherType `json:"type"`
	Category  string             `json:"category"`
	Amount    decimal.Decimal    `json:"amount"`
	Active    bool               `json:"status"`
	StartDate time.Time          `json:"start_date"`
	EndDate   time.Time          `json:"end_date"`
	Qty       int                `json:"qty"`
}

// NewVoucherResponses maps a list of vouchers.
func NewVoucherResponses(list []domain.Voucher) []VoucherResponse {
	out := make([]VoucherResponse, 0, len(list))
	for _, v := range list {
		out = append(out, VoucherResponse{
			ID:        v.ID,
			UserID:    v.UserID,
			Code:      v.Code,
			Type:      v.Type,
			Category:  v.Category,
			Amount:    v.Amount,
			Active:    v.Active,
			StartDate: v.StartDate,
			EndDate:   v.EndDate,
			Qty:       v.Qty,
		})
	}
	return out
}
