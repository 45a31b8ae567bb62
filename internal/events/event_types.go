package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventType enumerates supported event identifiers. The value doubles as
// the broker queue name.
type EventType string

const (
	EventUserRegistered       EventType = "user.registered"
	EventTransactionCompleted EventType = "transaction.completed"
	EventPaymentSubmitted     EventType = "payment.submitted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    int64       `json:"user_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UserRegisteredPayload carries what the welcome mail needs.
type UserRegisteredPayload struct {
	Fullname     string `json:"fullname"`
	Email        string `json:"email"`
	ReferralCode string `json:"referral_code"`
	ReferredBy   *int64 `json:"referred_by,omitempty"`
}

// TransactionPayload describes a purchase for the receipt mail.
type TransactionPayload struct {
	TransactionID int64           `json:"transaction_id"`
	Code          string          `json:"code"`
	EventID       int64           `json:"event_id"`
	EventName     string          `json:"event_name"`
	Email         string          `json:"email"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PointsUsed    decimal.Decimal `json:"points_used"`
	VoucherID     *int64          `json:"voucher_id,omitempty"`
	Status        string          `json:"status"`
}
