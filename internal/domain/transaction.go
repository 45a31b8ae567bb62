package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus tracks payment state of a purchase.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
)

// PaymentMethodBankTransfer is the only payment method currently offered.
const PaymentMethodBankTransfer int64 = 1

// Transaction records one ticket purchase.
type Transaction struct {
	ID              int64
	Code            string
	UserID          int64
	EventID         int64
	Qty             int
	Tax             decimal.Decimal
	PointsUsed      decimal.Decimal
	VoucherID       *int64
	TotalAmount     decimal.Decimal
	PaymentMethodID int64
	PaymentProof    *string
	Status          TransactionStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TransactionDetail joins a transaction with its buyer and voucher for organizer views.
type TransactionDetail struct {
	Transaction
	BuyerName     string
	BuyerEmail    string
	VoucherCode   *string
	VoucherActive *bool
}
