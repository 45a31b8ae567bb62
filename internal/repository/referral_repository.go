package repository

import (
	"context"

	"github.com/spec-kit/eventbright/internal/domain"
)

// ReferralRepository records who referred whom.
type ReferralRepository interface {
	Create(ctx context.Context, entry *domain.ReferralHistory) error
}

type referralRepository struct {
	db DB
}

// NewReferralRepository constructs repository.
func NewReferralRepository(db DB) ReferralRepository {
	return &referralRepository{db: db}
}

func (r *referralRepository) Create(ctx context.Context, entry *domain.ReferralHistory) error {
	const query = `
        INSERT INTO referral_history (referrer_id, referred_user_id)
        VALUES ($1,$2)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query, entry.ReferrerID, entry.ReferredUserID).Scan(&entry.ID, &entry.CreatedAt)
}
