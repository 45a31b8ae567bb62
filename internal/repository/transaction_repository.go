package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/eventbright/internal/domain"
)

// TransactionRepository persists ticket purchases.
type TransactionRepository interface {
	Create(ctx context.Context, txn *domain.Transaction) error
	GetByID(ctx context.Context, id int64) (*domain.Transaction, error)
	ListByEvent(ctx context.Context, eventID int64) ([]domain.TransactionDetail, error)
}

type transactionRepository struct {
	db DB
}

// NewTransactionRepository instantiates repository.
func NewTransactionRepository(db DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, txn *domain.Transaction) error {
	const query = `
        INSERT INTO transactions (code, user_id, event_id, qty, tax, points_used, voucher_id,
            total_amount, payment_method_id, payment_proof, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		txn.Code,
		txn.UserID,
		txn.EventID,
		txn.Qty,
		txn.Tax,
		txn.PointsUsed,
		txn.VoucherID,
		txn.TotalAmount,
		txn.PaymentMethodID,
		txn.PaymentProof,
		txn.Status,
	).Scan(&txn.ID, &txn.CreatedAt, &txn.UpdatedAt)
}

func (r *transactionRepository) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	const query = `
        SELECT id, code, user_id, event_id, qty, tax, points_used, voucher_id, total_amount,
               payment_method_id, payment_proof, status, created_at, updated_at
        FROM transactions WHERE id=$1`
	var txn domain.Transaction
	if err := scanTransaction(r.db.QueryRow(ctx, query, id), &txn); err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *transactionRepository) ListByEvent(ctx context.Context, eventID int64) ([]domain.TransactionDetail, error) {
	const query = `
        SELECT t.id, t.code, t.user_id, t.event_id, t.qty, t.tax, t.points_used, t.voucher_id, t.total_amount,
               t.payment_method_id, t.payment_proof, t.status, t.created_at, t.updated_at,
               u.fullname, u.email, v.code, v.active
        FROM transactions t
        JOIN users u ON u.id = t.user_id
        LEFT JOIN vouchers v ON v.id = t.voucher_id
        WHERE t.event_id = $1
        ORDER BY t.created_at ASC, t.id ASC`
	rows, err := r.db.Query(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.TransactionDetail{}
	for rows.Next() {
		var detail domain.TransactionDetail
		if err := rows.Scan(
			&detail.ID,
			&detail.Code,
			&detail.UserID,
			&detail.EventID,
			&detail.Qty,
			&detail.Tax,
			&detail.PointsUsed,
			&detail.VoucherID,
			&detail.TotalAmount,
			&detail.PaymentMethodID,
			&detail.PaymentProof,
			&detail.Status,
			&detail.CreatedAt,
			&detail.UpdatedAt,
			&detail.BuyerName,
			&detail.BuyerEmail,
			&detail.VoucherCode,
			&detail.VoucherActive,
		); err != nil {
			return nil, err
		}
		result = append(result, detail)
	}
	return result, rows.Err()
}

func scanTransaction(row pgx.Row, txn *domain.Transaction) error {
	return row.Scan(
		&txn.ID,
		&txn.Code,
		&txn.UserID,
		&txn.EventID,
		&txn.Qty,
		&txn.Tax,
		&txn.PointsUsed,
		&txn.VoucherID,
		&txn.TotalAmount,
		&txn.PaymentMethodID,
		&txn.PaymentProof,
		&txn.Status,
		&txn.CreatedAt,
		&txn.UpdatedAt,
	)
}
