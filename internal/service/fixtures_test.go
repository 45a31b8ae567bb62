package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/eventbright/internal/auth"
	"github.com/spec-kit/eventbright/internal/config"
	"github.com/spec-kit/eventbright/internal/domain"
	"github.com/spec-kit/eventbright/internal/events"
	"github.com/spec-kit/eventbright/internal/repository"
	"github.com/spec-kit/eventbright/internal/repository/memstore"
)

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store      *memstore.Store
	repos      repository.Repositories
	dispatcher events.Dispatcher
	vouchers   *VoucherService
	points     *PointService
	purchases  *PurchaseService
	auth       *AuthService
	events     *EventService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithTx(t, nil)
}

// newFixtureWithTx lets a test wrap the store's TxRunner.
func newFixtureWithTx(t *testing.T, wrap func(repository.TxRunner) repository.TxRunner) *fixture {
	t.Helper()
	store := memstore.New()
	repos := store.Repositories()
	var tx repository.TxRunner = store
	if wrap != nil {
		tx = wrap(store)
	}

	dispatcher := events.NewInMemoryDispatcher()
	vouchers := NewVoucherService(repos.Vouchers)
	vouchers.now = func() time.Time { return testNow }
	points := NewPointService(tx, repos.Points, zap.NewNop())

	cfg := config.Config{
		Auth: config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 60, BcryptCost: 4},
		Points: config.PointsConfig{
			ReferralReward:        10000,
			ReferralValidityMonth: 3,
			ReferralVoucherPct:    10,
		},
	}
	authSvc := NewAuthService(cfg, AuthDependencies{
		Repos:      repos,
		Tx:         tx,
		Points:     points,
		Vouchers:   vouchers,
		Tokens:     auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		Dispatcher: dispatcher,
	})
	authSvc.now = func() time.Time { return testNow }

	return &fixture{
		store:      store,
		repos:      repos,
		dispatcher: dispatcher,
		vouchers:   vouchers,
		points:     points,
		purchases: NewPurchaseService(PurchaseDependencies{
			Repos:      repos,
			Tx:         tx,
			Vouchers:   vouchers,
			Points:     points,
			Dispatcher: dispatcher,
		}),
		auth:   authSvc,
		events: NewEventService(repos),
	}
}

func (f *fixture) user(t *testing.T, email string, points int64) *domain.User {
	t.Helper()
	u := &domain.User{
		Fullname:     email,
		Email:        email,
		ReferralCode: email,
		TotalPoint:   decimal.NewFromInt(points),
		Role:         domain.RoleUser,
	}
	require.NoError(t, f.repos.Users.Create(context.Background(), u))
	return u
}

func (f *fixture) organizer(t *testing.T, email string) *domain.User {
	t.Helper()
	u := &domain.User{Fullname: email, Email: email, ReferralCode: email, Role: domain.RoleOrganizer}
	require.NoError(t, f.repos.Users.Create(context.Background(), u))
	return u
}

func (f *fixture) event(t *testing.T, price int64, spot int) *domain.Event {
	t.Helper()
	e := &domain.Event{
		Name:        "Jazz Night",
		Description: "live",
		StartDate:   testNow.AddDate(0, 1, 0),
		EndDate:     testNow.AddDate(0, 1, 0).Add(3 * time.Hour),
		Location:    "Jakarta",
		Price:       decimal.NewFromInt(price),
		Slug:        uuid.NewString(),
		Spot:        spot,
		CreatedBy:   1,
	}
	require.NoError(t, f.repos.Events.Create(context.Background(), e))
	return e
}

func (f *fixture) voucher(t *testing.T, userID int64, kind domain.VoucherType, amount int64) *domain.Voucher {
	t.Helper()
	v := &domain.Voucher{
		UserID:    userID,
		Code:      generateVoucherCode(),
		Type:      kind,
		Category:  domain.VoucherCategoryDiscount,
		Amount:    decimal.NewFromInt(amount),
		Active:    true,
		StartDate: testNow.Add(-time.Hour),
		EndDate:   testNow.AddDate(0, 1, 0),
		Qty:       1,
	}
	require.NoError(t, f.repos.Vouchers.Create(context.Background(), v))
	return v
}

func (f *fixture) reloadUser(t *testing.T, id int64) *domain.User {
	t.Helper()
	u, err := f.repos.Users.GetByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

func (f *fixture) reloadEvent(t *testing.T, id int64) *domain.Event {
	t.Helper()
	e, err := f.repos.Events.GetByID(context.Background(), id)
	require.NoError(t, err)
	return e
}

// failingTransactions makes every transaction insert fail.
type failingTransactions struct {
	repository.TransactionRepository
	err error
}

func (f failingTransactions) Create(context.Context, *domain.Transaction) error { return f.err }

type failingInsertRunner struct {
	inner repository.TxRunner
	err   error
}

func (r failingInsertRunner) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	return r.inner.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		repos.Transactions = failingTransactions{TransactionRepository: repos.Transactions, err: r.err}
		return fn(ctx, repos)
	})
}

var errInsert = errors.New("insert failed")

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func ptr[T any](v T) *T { return &v }
