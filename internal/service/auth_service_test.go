package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/eventbright/internal/domain"
	"github.com/spec-kit/eventbright/internal/events"
	apperrors "github.com/spec-kit/eventbright/pkg/util/errorutil"
)

func TestRegisterWithoutReferral(t *testing.T) {
	f := newFixture(t)
	var published []events.Event
	f.dispatcher.Subscribe(events.EventUserRegistered, func(_ context.Context, e events.Event) error {
		published = append(published, e)
		return nil
	})

	user, err := f.auth.Register(context.Background(), RegisterInput{
		Fullname: "  Ana ", Email: "Ana@Example.com", Password: "secret",
	})
	require.NoError(t, err)

	assert.Equal(t, "Ana", user.Fullname)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Len(t, user.ReferralCode, 10)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.True(t, user.TotalPoint.IsZero())
	assert.NotEqual(t, "secret", user.PasswordHash)
	require.Len(t, published, 1)
	assert.Equal(t, user.ID, published[0].UserID)
}

func TestRegisterWithReferralRewardsBothSides(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	referrer, err := f.auth.Register(ctx, RegisterInput{Fullname: "Ref", Email: "ref@example.com", Password: "pw"})
	require.NoError(t, err)

	user, err := f.auth.Register(ctx, RegisterInput{
		Fullname: "New", Email: "new@example.com", Password: "pw", ReferralCode: referrer.ReferralCode,
	})
	require.NoError(t, err)

	assert.True(t, f.reloadUser(t, referrer.ID).TotalPoint.Equal(d(10000)))
	assert.Equal(t, 1, f.store.CountGrants())

	due, err := f.repos.Points.ListDue(ctx, testNow.AddDate(0, 3, 0))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, referrer.ID, due[0].UserID)
	assert.True(t, due[0].ExpiresAt.Equal(testNow.AddDate(0, 3, 0)))

	vouchers, err := f.repos.Vouchers.ListUsableByUser(ctx, user.ID, testNow)
	require.NoError(t, err)
	require.Len(t, vouchers, 1)
	assert.Equal(t, domain.VoucherTypePercentage, vouchers[0].Type)
	assert.True(t, vouchers[0].Amount.Equal(d(10)))
	assert.Regexp(t, `^REF-[0-9A-F]{8}$`, vouchers[0].Code)

	history := f.store.Referrals()
	require.Len(t, history, 1)
	assert.Equal(t, referrer.ID, history[0].ReferrerID)
	assert.Equal(t, user.ID, history[0].ReferredUserID)
}

func TestRegisterUnknownReferralWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, RegisterInput{Fullname: "New", Email: "new@example.com", Password: "pw", ReferralCode: "NOPE"})
	require.Error(t, err)
	assert.Equal(t, 400, apperrors.StatusCode(err))

	_, err = f.repos.Users.GetByEmail(ctx, "new@example.com")
	assert.Error(t, err)
	assert.Zero(t, f.store.CountGrants())
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.auth.Register(ctx, RegisterInput{Fullname: "A", Email: "a@example.com", Password: "pw"})
	require.NoError(t, err)

	_, err = f.auth.Register(ctx, RegisterInput{Fullname: "B", Email: "A@example.com", Password: "pw"})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
}

func TestRegisterRequiresFields(t *testing.T) {
	f := newFixture(t)
	_, err := f.auth.Register(context.Background(), RegisterInput{Email: "a@example.com"})
	assert.Equal(t, 400, apperrors.StatusCode(err))
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	registered, err := f.auth.Register(ctx, RegisterInput{Fullname: "A", Email: "a@example.com", Password: "pw"})
	require.NoError(t, err)

	user, token, err := f.auth.Login(ctx, "A@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.NotEmpty(t, token.Value)
	assert.Equal(t, domain.RoleUser, token.Role)

	_, _, err = f.auth.Login(ctx, "a@example.com", "wrong")
	assert.Equal(t, 401, apperrors.StatusCode(err))

	_, _, err = f.auth.Login(ctx, "ghost@example.com", "pw")
	assert.Equal(t, 401, apperrors.StatusCode(err))
}
