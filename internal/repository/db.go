package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// DB is the subset of pgx shared by *pgxpool.Pool and pgx.Tx.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repositories bundles every repository bound to the same DB handle.
type Repositories struct {
	Users        UserRepository
	Events       EventRepository
	Vouchers     VoucherRepository
	Points       PointRepository
	Transactions TransactionRepository
	Referrals    ReferralRepository
}

// NewRepositories binds all Postgres repositories to db.
func NewRepositories(db DB) Repositories {
	return Repositories{
		Users:        NewUserRepository(db),
		Events:       NewEventRepository(db),
		Vouchers:     NewVoucherRepository(db),
		Points:       NewPointRepository(db),
		Transactions: NewTransactionRepository(db),
		Referrals:    NewReferralRepository(db),
	}
}

// TxRunner runs fn with repositories bound to a single database transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

type pgTxRunner struct {
	db DB
}

// NewTxRunner returns a TxRunner backed by Postgres.
func NewTxRunner(db DB) TxRunner {
	return &pgTxRunner{db: db}
}

func (r *pgTxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, NewRepositories(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// IsUniqueViolation reports whether err is a Postgres unique constraint failure.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// ViolatedConstraint returns the unique constraint err tripped, or "".
func ViolatedConstraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return pgErr.ConstraintName
	}
	return ""
}

// UniqueViolation builds the error Postgres would return for a duplicate on constraint.
func UniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: uniqueViolation, ConstraintName: constraint, Message: "duplicate key value violates unique constraint"}
}

// IsForeignKeyViolation reports whether err is a Postgres foreign key failure,
// such as deleting a row that is still referenced.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}

// ForeignKeyViolation builds the error Postgres would return when constraint blocks a write.
func ForeignKeyViolation(constraint string) error {
	return &pgconn.PgError{Code: foreignKeyViolation, ConstraintName: constraint, Message: "update or delete violates foreign key constraint"}
}
