package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/eventbright/internal/domain"
	"github.com/spec-kit/eventbright/internal/repository"
	apperrors "github.com/spec-kit/eventbright/pkg/util/errorutil"
)

func TestApplyPoints(t *testing.T) {
	f := newFixture(t)
	user := &domain.User{TotalPoint: d(10000)}

	left, err := f.points.ApplyPoints(user, d(0))
	require.NoError(t, err)
	assert.True(t, left.Equal(d(10000)))

	left, err = f.points.ApplyPoints(user, d(10000))
	require.NoError(t, err)
	assert.True(t, left.IsZero())

	_, err = f.points.ApplyPoints(user, d(10001))
	assert.ErrorIs(t, err, apperrors.ErrInsufficientPoints)

	_, err = f.points.ApplyPoints(user, d(-5))
	assert.Equal(t, 400, apperrors.StatusCode(err))
}

func grant(t *testing.T, f *fixture, userID int64, amount int64, expiresAt time.Time) {
	t.Helper()
	err := f.store.WithinTx(context.Background(), func(ctx context.Context, repos repository.Repositories) error {
		_, err := f.points.Grant(ctx, repos, userID, d(amount), expiresAt)
		return err
	})
	require.NoError(t, err)
}

func TestExpireDueRemovesOnlyDueGrants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice@example.com", 0)
	bob := f.user(t, "bob@example.com", 0)

	grant(t, f, alice.ID, 10000, testNow.Add(-time.Hour))
	grant(t, f, alice.ID, 10000, testNow.AddDate(0, 1, 0))
	grant(t, f, bob.ID, 10000, testNow)

	result, err := f.points.ExpireDue(ctx, testNow)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Expired)
	assert.Zero(t, result.Failed)
	assert.True(t, result.PointsRemoved.Equal(d(20000)))

	assert.True(t, f.reloadUser(t, alice.ID).TotalPoint.Equal(d(10000)))
	assert.True(t, f.reloadUser(t, bob.ID).TotalPoint.IsZero())
	assert.Equal(t, 1, f.store.CountGrants())
}

func TestExpireDueIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice@example.com", 500)
	grant(t, f, alice.ID, 10000, testNow.Add(-time.Minute))

	_, err := f.points.ExpireDue(ctx, testNow)
	require.NoError(t, err)
	after := f.reloadUser(t, alice.ID).TotalPoint

	result, err := f.points.ExpireDue(ctx, testNow)
	require.NoError(t, err)
	assert.Zero(t, result.Expired)
	assert.True(t, f.reloadUser(t, alice.ID).TotalPoint.Equal(after))
	assert.True(t, after.Equal(d(500)))
}

func TestExpireDueFloorsSpentBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice@example.com", 0)
	grant(t, f, alice.ID, 10000, testNow.Add(-time.Minute))

	err := f.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		return f.points.Deduct(ctx, repos, alice.ID, d(8000))
	})
	require.NoError(t, err)

	_, err = f.points.ExpireDue(ctx, testNow)
	require.NoError(t, err)
	assert.True(t, f.reloadUser(t, alice.ID).TotalPoint.IsZero())
}

// failOnUser fails balance updates for one user.
type failOnUser struct {
	repository.UserRepository
	userID int64
}

func (f failOnUser) ExpirePoints(ctx context.Context, id int64, amount decimal.Decimal) error {
	if id == f.userID {
		return errors.New("balance update failed")
	}
	return f.UserRepository.ExpirePoints(ctx, id, amount)
}

type failOnUserRunner struct {
	inner  repository.TxRunner
	userID int64
}

func (r failOnUserRunner) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	return r.inner.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		repos.Users = failOnUser{UserRepository: repos.Users, userID: r.userID}
		return fn(ctx, repos)
	})
}

func TestExpireDueContinuesPastFailures(t *testing.T) {
	f := newFixtureWithTx(t, func(inner repository.TxRunner) repository.TxRunner {
		return failOnUserRunner{inner: inner, userID: 1}
	})
	ctx := context.Background()
	bad := f.user(t, "bad@example.com", 0)
	good := f.user(t, "good@example.com", 0)
	require.Equal(t, int64(1), bad.ID)

	grant(t, f, bad.ID, 10000, testNow.Add(-time.Minute))
	grant(t, f, good.ID, 10000, testNow.Add(-time.Minute))

	result, err := f.points.ExpireDue(ctx, testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Expired)
	assert.Equal(t, 1, result.Failed)

	assert.True(t, f.reloadUser(t, bad.ID).TotalPoint.Equal(d(10000)))
	assert.True(t, f.reloadUser(t, good.ID).TotalPoint.IsZero())
	assert.Equal(t, 1, f.store.CountGrants(), "the failed grant stays for the next run")
}
