package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/eventbright/internal/domain"
)

// UserRepository defines persistence access for marketplace accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByReferralCode(ctx context.Context, code string) (*domain.User, error)
	// DeductPoints lowers the balance only when it covers amount and returns
	// the new balance. pgx.ErrNoRows means the balance was too low.
	DeductPoints(ctx context.Context, id int64, amount decimal.Decimal) (decimal.Decimal, error)
	AddPoints(ctx context.Context, id int64, amount decimal.Decimal) error
	// ExpirePoints lowers the balance by amount, never below zero.
	ExpirePoints(ctx context.Context, id int64, amount decimal.Decimal) error
}

type userRepository struct {
	db DB
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, fullname, email, password_hash, phone_number, total_point, referral_code, role, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (fullname, email, password_hash, phone_number, total_point, referral_code, role)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at, updated_at`

	return r.db.QueryRow(ctx, query,
		user.Fullname,
		user.Email,
		user.PasswordHash,
		user.PhoneNumber,
		user.TotalPoint,
		user.ReferralCode,
		user.Role,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
}

func (r *userRepository) GetByReferralCode(ctx context.Context, code string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE referral_code=$1`, code)
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.db.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Fullname,
		&user.Email,
		&user.PasswordHash,
		&user.PhoneNumber,
		&user.TotalPoint,
		&user.ReferralCode,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) DeductPoints(ctx context.Context, id int64, amount decimal.Decimal) (decimal.Decimal, error) {
	const query = `
        UPDATE users SET total_point = total_point - $2, updated_at = NOW()
        WHERE id = $1 AND total_point >= $2
        RETURNING total_point`

	var balance decimal.Decimal
	if err := r.db.QueryRow(ctx, query, id, amount).Scan(&balance); err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

func (r *userRepository) AddPoints(ctx context.Context, id int64, amount decimal.Decimal) error {
	const query = `UPDATE users SET total_point = total_point + $2, updated_at = NOW() WHERE id = $1`
	return r.execOne(ctx, query, id, amount)
}

func (r *userRepository) ExpirePoints(ctx context.Context, id int64, amount decimal.Decimal) error {
	const query = `UPDATE users SET total_point = GREATEST(total_point - $2, 0), updated_at = NOW() WHERE id = $1`
	return r.execOne(ctx, query, id, amount)
}

func (r *userRepository) execOne(ctx context.Context, query string, args ...any) error {
	cmd, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
