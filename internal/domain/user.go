package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role is the authorization role carried on a user and in issued tokens.
type Role string

const (
	RoleUser      Role = "user"
	RoleOrganizer Role = "event-organizer"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleOrganizer, RoleAdmin:
		return true
	}
	return false
}

// User is a marketplace account. TotalPoint never goes below zero.
type User struct {
	ID           int64
	Fullname     string
	Email        string
	PasswordHash string
	PhoneNumber  *string
	TotalPoint   decimal.Decimal
	ReferralCode string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ReferralHistory links a referrer to the account that registered with their code.
type ReferralHistory struct {
	ID             int64
	ReferrerID     int64
	ReferredUserID int64
	CreatedAt      time.Time
}
