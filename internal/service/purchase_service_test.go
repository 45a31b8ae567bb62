package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/eventbright/internal/domain"
	"github.com/spec-kit/eventbright/internal/events"
	"github.com/spec-kit/eventbright/internal/repository"
	apperrors "github.com/spec-kit/eventbright/pkg/util/errorutil"
)

func TestPurchasePercentageVoucher(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := f.user(t, "buyer@example.com", 0)
	event := f.event(t, 100000, 5)
	voucher := f.voucher(t, buyer.ID, domain.VoucherTypePercentage, 10)

	txn, err := f.purchases.Purchase(ctx, PurchaseInput{UserID: buyer.ID, EventID: event.ID, PointsUsed: d(0), VoucherID: &voucher.ID})
	require.NoError(t, err)

	assert.True(t, txn.TotalAmount.Equal(d(90000)), txn.TotalAmount.String())
	assert.Equal(t, domain.TransactionStatusCompleted, txn.Status)
	require.NotNil(t, txn.VoucherID)
	assert.Equal(t, voucher.ID, *txn.VoucherID)

	reloaded := f.reloadEvent(t, event.ID)
	assert.Equal(t, 4, reloaded.Spot)
	assert.Equal(t, 1, reloaded.TicketsSold)
	assert.Equal(t, 1, f.store.CountTransactions())
}

func TestPurchasePointsAndFixedVoucher(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := f.user(t, "buyer@example.com", 25000)
	event := f.event(t, 100000, 5)
	voucher := f.voucher(t, buyer.ID, domain.VoucherTypeFixed, 15000)

	txn, err := f.purchases.Purchase(ctx, PurchaseInput{UserID: buyer.ID, EventID: event.ID, PointsUsed: d(20000), VoucherID: &voucher.ID})
	require.NoError(t, err)

	assert.True(t, txn.TotalAmount.Equal(d(65000)), txn.TotalAmount.String())
	assert.True(t, f.reloadUser(t, buyer.ID).TotalPoint.Equal(d(5000)))
}

func TestPurchaseChargeNeverNegative(t *testing.T) {
	f := newFixture(t)
	buyer := f.user(t, "buyer@example.com", 100000)
	event := f.event(t, 50000, 1)

	txn, err := f.purchases.Purchase(context.Background(), PurchaseInput{UserID: buyer.ID, EventID: event.ID, PointsUsed: d(60000)})
	require.NoError(t, err)
	assert.True(t, txn.TotalAmount.IsZero())
	assert.True(t, f.reloadUser(t, buyer.ID).TotalPoint.Equal(d(40000)))
}

func TestPurchaseInsufficientPoints(t *testing.T) {
	f := newFixture(t)
	buyer := f.user(t, "buyer@example.com", 10000)
	event := f.event(t, 50000, 3)

	_, err := f.purchases.Purchase(context.Background(), PurchaseInput{UserID: buyer.ID, EventID: event.ID, PointsUsed: d(60000)})
	require.ErrorIs(t, err, apperrors.ErrInsufficientPoints)

	assert.True(t, f.reloadUser(t, buyer.ID).TotalPoint.Equal(d(10000)))
	assert.Equal(t, 3, f.reloadEvent(t, event.ID).Spot)
	assert.Zero(t, f.store.CountTransactions())
}

func TestPurchaseSoldOut(t *testing.T) {
	f := newFixture(t)
	buyer := f.user(t, "buyer@example.com", 10000)
	event := f.event(t, 50000, 0)
	voucher := f.voucher(t, buyer.ID, domain.VoucherTypeFixed, 1000)

	_, err := f.purchases.Purchase(context.Background(), PurchaseInput{UserID: buyer.ID, EventID: event.ID, PointsUsed: d(5000), VoucherID: &voucher.ID})
	require.ErrorIs(t, err, apperrors.ErrNoCapacity)

	reloaded := f.reloadEvent(t, event.ID)
	assert.Equal(t, 0, reloaded.Spot)
	assert.Equal(t, 0, reloaded.TicketsSold)
	assert.True(t, f.reloadUser(t, buyer.ID).TotalPoint.Equal(d(10000)))
	stored, err := f.repos.Vouchers.GetByID(context.Background(), voucher.ID)
	require.NoError(t, err)
	assert.True(t, stored.Active)
	assert.Zero(t, f.store.CountTransactions())
}

func TestPurchaseMissingEventIsNoCapacity(t *testing.T) {
	f := newFixture(t)
	buyer := f.user(t, "buyer@example.com", 0)

	_, err := f.purchases.Purchase(context.Background(), PurchaseInput{UserID: buyer.ID, EventID: 404, PointsUsed: d(0)})
	assert.ErrorIs(t, err, apperrors.ErrNoCapacity)
}

func TestPurchaseUnknownUser(t *testing.T) {
	f := newFixture(t)
	event := f.event(t, 50000, 1)

	_, err := f.purchases.Purchase(context.Background(), PurchaseInput{UserID: 999, EventID: event.ID, PointsUsed: d(0)})
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestPurchaseRejectsNegativePoints(t *testing.T) {
	f := newFixture(t)
	buyer := f.user(t, "buyer@example.com", 0)
	event := f.event(t, 50000, 1)

	_, err := f.purchases.Purchase(context.Background(), PurchaseInput{UserID: buyer.ID, EventID: event.ID, PointsUsed: d(-1)})
	require.Error(t, err)
	assert.Equal(t, 400, apperrors.StatusCode(err))
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
}

func TestVoucherConsumedOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := f.user(t, "buyer@example.com", 0)
	event := f.event(t, 100000, 5)
	voucher := f.voucher(t, buyer.ID, domain.VoucherTypePercentage, 10)

	_, err := f.purchases.Purchase(ctx, PurchaseInput{UserID: buyer.ID, EventID: event.ID, PointsUsed: d(0), VoucherID: &voucher.ID})
	require.NoError(t, err)

	_, err = f.purchases.Purchase(ctx, PurchaseInput{UserID: buyer.ID, EventID: event.ID, PointsUsed: d(0), VoucherID: &voucher.ID})
	require.ErrorIs(t, err, apperrors.ErrInvalidVoucher)
	assert.Equal(t, 4, f.reloadEvent(t, event.ID).Spot)
	assert.Equal(t, 1, f.store.CountTransactions())
}

func TestPurchaseRollsBackWhenInsertFails(t *testing.T) {
	f := newFixtureWithTx(t, func(inner repository.TxRunner) repository.TxRunner {
		return failingInsertRunner{inner: inner, err: errInsert}
	})
	ctx := context.Background()
	buyer := f.user(t, "buyer@example.com", 30000)
	event := f.event(t, 100000, 2)
	voucher := f.voucher(t, buyer.ID, domain.VoucherTypeFixed, 15000)

	_, err := f.purchases.Purchase(ctx, PurchaseInput{UserID: buyer.ID, EventID: event.ID, PointsUsed: d(20000), VoucherID: &voucher.ID})
	require.ErrorIs(t, err, errInsert)

	assert.True(t, f.reloadUser(t, buyer.ID).TotalPoint.Equal(d(30000)))
	stored, err := f.repos.Vouchers.GetByID(ctx, voucher.ID)
	require.NoError(t, err)
	assert.True(t, stored.Active)
	assert.Equal(t, 2, f.reloadEvent(t, event.ID).Spot)
}

func TestConcurrentPurchasesNeverOversell(t *testing.T) {
	f := newFixture(t)
	event := f.event(t, 10000, 3)
	buyers := make([]*domain.User, 10)
	for i := range buyers {
		buyers[i] = f.user(t, string(rune('a'+i))+"@example.com", 0)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		soldOut   int
	)
	for _, buyer := range buyers {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := f.purchases.Purchase(context.Background(), PurchaseInput{UserID: id, EventID: event.ID, PointsUsed: d(0)})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case assert.ErrorIs(t, err, apperrors.ErrNoCapacity):
				soldOut++
			}
		}(buyer.ID)
	}
	wg.Wait()

	assert.Equal(t, 3, succeeded)
	assert.Equal(t, 7, soldOut)
	reloaded := f.reloadEvent(t, event.ID)
	assert.Equal(t, 0, reloaded.Spot)
	assert.Equal(t, 3, reloaded.TicketsSold)
	assert.Equal(t, 3, f.store.CountTransactions())
}

func TestPurchasePublishesCompletion(t *testing.T) {
	f := newFixture(t)
	var got []events.Event
	f.dispatcher.Subscribe(events.EventTransactionCompleted, func(_ context.Context, e events.Event) error {
		got = append(got, e)
		return nil
	})
	buyer := f.user(t, "buyer@example.com", 0)
	event := f.event(t, 10000, 1)

	txn, err := f.purchases.Purchase(context.Background(), PurchaseInput{UserID: buyer.ID, EventID: event.ID, PointsUsed: d(0)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	payload, ok := got[0].Payload.(events.TransactionPayload)
	require.True(t, ok)
	assert.Equal(t, txn.ID, payload.TransactionID)
	assert.Equal(t, "buyer@example.com", payload.Email)
}

func TestSubmitPaymentCreatesPending(t *testing.T) {
	f := newFixture(t)
	buyer := f.user(t, "buyer@example.com", 5000)
	event := f.event(t, 10000, 1)

	txn, err := f.purchases.SubmitPayment(context.Background(), PaymentInput{
		UserID: buyer.ID, EventID: event.ID, FinalPrice: d(8000), PointsUsed: d(2000), PaymentProof: "PAY1.png",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusPending, txn.Status)
	assert.True(t, txn.TotalAmount.Equal(d(8000)))
	require.NotNil(t, txn.PaymentProof)
	assert.Equal(t, "PAY1.png", *txn.PaymentProof)

	assert.Equal(t, 1, f.reloadEvent(t, event.ID).Spot)
	assert.True(t, f.reloadUser(t, buyer.ID).TotalPoint.Equal(d(5000)))
}

func TestSubmitPaymentValidation(t *testing.T) {
	f := newFixture(t)
	buyer := f.user(t, "buyer@example.com", 0)

	_, err := f.purchases.SubmitPayment(context.Background(), PaymentInput{UserID: buyer.ID, EventID: 1, FinalPrice: d(1)})
	assert.Equal(t, 400, apperrors.StatusCode(err))

	_, err = f.purchases.SubmitPayment(context.Background(), PaymentInput{UserID: buyer.ID, EventID: 404, FinalPrice: d(1), PaymentProof: "p.png"})
	assert.Equal(t, 404, apperrors.StatusCode(err))
}
