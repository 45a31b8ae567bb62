package repository

import (
	"context"
	"time"

	"github.com/spec-kit/eventbright/internal/domain"
)

// PointRepository stores point grants and their expiry.
type PointRepository interface {
	Create(ctx context.Context, grant *domain.PointGrant) error
	ListDue(ctx context.Context, now time.Time) ([]domain.PointGrant, error)
	// Delete removes a grant and reports whether a row was actually removed,
	// so a grant already processed by another sweep is not charged twice.
	Delete(ctx context.Context, id int64) (bool, error)
}

type pointRepository struct {
	db DB
}

// NewPointRepository constructs repository.
func NewPointRepository(db DB) PointRepository {
	return &pointRepository{db: db}
}

func (r *pointRepository) Create(ctx context.Context, grant *domain.PointGrant) error {
	const query = `
        INSERT INTO points (user_id, amount, expires_at)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query, grant.UserID, grant.Amount, grant.ExpiresAt).Scan(&grant.ID, &grant.CreatedAt)
}

func (r *pointRepository) ListDue(ctx context.Context, now time.Time) ([]domain.PointGrant, error) {
	const query = `
        SELECT id, user_id, amount, expires_at, created_at
        FROM points WHERE expires_at <= $1
        ORDER BY expires_at ASC, id ASC`
	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.PointGrant{}
	for rows.Next() {
		var grant domain.PointGrant
		if err := rows.Scan(&grant.ID, &grant.UserID, &grant.Amount, &grant.ExpiresAt, &grant.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, grant)
	}
	return result, rows.Err()
}

func (r *pointRepository) Delete(ctx context.Context, id int64) (bool, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM points WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}
