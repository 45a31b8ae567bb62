package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PointGrant is a batch of loyalty points credited to a user that lapses at ExpiresAt.
type PointGrant struct {
	ID        int64
	UserID    int64
	Amount    decimal.Decimal
	ExpiresAt time.Time
	CreatedAt time.Time
}

// ExpiredAt reports whether the grant is due for removal at now.
func (g *PointGrant) ExpiredAt(now time.Time) bool {
	return !g.ExpiresAt.After(now)
}
