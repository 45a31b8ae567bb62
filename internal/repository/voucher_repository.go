package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/eventbright/internal/domain"
)

// VoucherRepository manages voucher persistence.
type VoucherRepository interface {
	Create(ctx context.Context, voucher *domain.Voucher) error
	GetByID(ctx context.Context, id int64) (*domain.Voucher, error)
	ListUsableByUser(ctx context.Context, userID int64, now time.Time) ([]domain.Voucher, error)
	// Consume deactivates a voucher that is still usable at now.
	// pgx.ErrNoRows means it was already used, expired or never existed.
	Consume(ctx context.Context, id int64, now time.Time) error
}

type voucherRepository struct {
	db DB
}

// NewVoucherRepository constructs repository.
func NewVoucherRepository(db DB) VoucherRepository {
	return &voucherRepository{db: db}
}

const voucherColumns = `id, user_id, code, type, category, amount, active, start_date, end_date, qty, created_at`

func (r *voucherRepository) Create(ctx context.Context, voucher *domain.Voucher) error {
	const query = `
        INSERT INTO vouchers (user_id, code, type, category, amount, active, start_date, end_date, qty)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		voucher.UserID,
		voucher.Code,
		voucher.Type,
		voucher.Category,
		voucher.Amount,
		voucher.Active,
		voucher.StartDate,
		voucher.EndDate,
		voucher.Qty,
	).Scan(&voucher.ID, &voucher.CreatedAt)
}

func (r *voucherRepository) GetByID(ctx context.Context, id int64) (*domain.Voucher, error) {
	return scanVoucher(r.db.QueryRow(ctx, `SELECT `+voucherColumns+` FROM vouchers WHERE id=$1`, id))
}

func (r *voucherRepository) ListUsableByUser(ctx context.Context, userID int64, now time.Time) ([]domain.Voucher, error) {
	const query = `SELECT ` + voucherColumns + ` FROM vouchers
        WHERE user_id=$1 AND active AND start_date <= $2 AND end_date > $2
        ORDER BY end_date ASC`
	rows, err := r.db.Query(ctx, query, userID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Voucher{}
	for rows.Next() {
		voucher, err := scanVoucher(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *voucher)
	}
	return result, rows.Err()
}

func (r *voucherRepository) Consume(ctx context.Context, id int64, now time.Time) error {
	const query = `
        UPDATE vouchers SET active = false
        WHERE id = $1 AND active AND start_date <= $2 AND end_date > $2`
	cmd, err := r.db.Exec(ctx, query, id, now)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanVoucher(row pgx.Row) (*domain.Voucher, error) {
	var voucher domain.Voucher
	if err := row.Scan(
		&voucher.ID,
		&voucher.UserID,
		&voucher.Code,
		&voucher.Type,
		&voucher.Category,
		&voucher.Amount,
		&voucher.Active,
		&voucher.StartDate,
		&voucher.EndDate,
		&voucher.Qty,
		&voucher.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &voucher, nil
}
