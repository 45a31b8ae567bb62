package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/eventbright/internal/domain"
)

// CreateTransactionRequest buys one ticket. FinalPrice is accepted for
// compatibility with existing clients but the charge is always recomputed.
type CreateTransactionRequest struct {
	EventID    int64            `json:"eventId" validate:"required,gt=0"`
	PointsUsed *decimal.Decimal `json:"pointsUsed"`
	FinalPrice *decimal.Decimal `json:"finalPrice"`
	VoucherID  *int64           `json:"voucherId" validate:"omitempty,gt=0"`
}

// SubmitPaymentForm is the non-file part of the multipart payment submission.
type SubmitPaymentForm struct {
	EventID    int64  `json:"eventId" validate:"required,gt=0"`
	FinalPrice string `json:"finalPrice" validate:"required,numeric"`
	PointsUsed string `json:"pointsUsed" validate:"omitempty,numeric"`
}

// TransactionResponse is the public view of a transaction.
type TransactionResponse struct {
	ID              int64                    `json:"id"`
	Code            string                   `json:"code"`
	UserID          int64                    `json:"user_id"`
	EventID         int64                    `json:"event_id"`
	Qty             int                      `json:"qty"`
	Tax             decimal.Decimal          `json:"tax"`
	PointsUsed      decimal.Decimal          `json:"point_used"`
	VoucherID       *int64                   `json:"voucher_id"`
	TotalAmount     decimal.Decimal          `json:"total_amount"`
	PaymentMethodID int64                    `json:"payment_method_id"`
	PaymentProof    *string                  `json:"payment_proof,omitempty"`
	Status          domain.TransactionStatus `json:"status"`
	CreatedAt       time.Time                `json:"created_at"`
}

// TransactionDetailResponse adds buyer and voucher data for organizers.
type TransactionDetailResponse struct {
	TransactionResponse
	BuyerName     string  `json:"buyer_name"`
	BuyerEmail    string  `json:"buyer_email"`
	VoucherCode   *string `json:"voucher_code,omitempty"`
	VoucherActive *bool   `json:"voucher_active,omitempty"`
}

// NewTransactionResponse maps a domain transaction.
func NewTransactionResponse(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:              t.ID,
		Code:            t.Code,
		UserID:          t.UserID,
		EventID:         t.EventID,
		Qty:             t.Qty,
		Tax:             t.Tax,
		PointsUsed:      t.PointsUsed,
		VoucherID:       t.VoucherID,
		TotalAmount:     t.TotalAmount,
		PaymentMethodID: t.PaymentMethodID,
		PaymentProof:    t.PaymentProof,
		Status:          t.Status,
		CreatedAt:       t.CreatedAt,
	}
}

// NewTransactionDetailResponses maps organizer transaction rows.
func NewTransactionDetailResponses(rows []domain.TransactionDetail) []TransactionDetailResponse {
	out := make([]TransactionDetailResponse, 0, len(rows))
	for i := range rows {
		out = append(out, TransactionDetailResponse{
			TransactionResponse: NewTransactionResponse(&rows[i].Transaction),
			BuyerName:           rows[i].BuyerName,
			BuyerEmail:          rows[i].BuyerEmail,
			VoucherCode:         rows[i].VoucherCode,
			VoucherActive:       rows[i].VoucherActive,
		})
	}
	return out
}
