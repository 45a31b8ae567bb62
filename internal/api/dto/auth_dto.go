package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/eventbright/internal/domain"
)

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Fullname     string  `json:"fullname" validate:"required,min=3,max=120"`
	Email        string  `json:"email" validate:"required,email"`
	Password     string  `json:"password" validate:"required,min=6,max=72"`
	PhoneNumber  *string `json:"phone_number" validate:"omitempty,max=32"`
	ReferralCode string  `json:"referral_code" validate:"omitempty,alphanum,max=32"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID           int64           `json:"id"`
	Fullname     string          `json:"fullname"`
	Email        string          `json:"email"`
	PhoneNumber  *string         `json:"phone_number,omitempty"`
	ReferralCode string          `json:"referral_code"`
	Role         domain.Role     `json:"role"`
	TotalPoint   decimal.Decimal `json:"total_point"`
}

// AuthResponse carries an issued access token.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:           u.ID,
		Fullname:     u.Fullname,
		Email:        u.Email,
		PhoneNumber:  u.PhoneNumber,
		ReferralCode: u.ReferralCode,
		Role:         u.Role,
		TotalPoint:   u.TotalPoint,
	}
}

// NewAuthResponse maps an issued token.
func NewAuthResponse(t domain.Token) AuthResponse {
	return AuthResponse{Token: t.Value, ExpiresAt: t.ExpiresAt}
}
