package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"rental-contracts-backend/internal/domain"
	"rental-contracts-backend/internal/repository"
	"rental-contracts-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedReservation(t *testing.T, repos *repository.Repositories) {
	t.Helper()
	ctx := context.Background()
	seedContract(t, repos, "c-inv")
	require.NoError(t, repos.Reservations.Create(ctx, &domain.Reservation{
		ID:          "r-1",
		PropertyID:  "p-1",
		TenantName:  "Ali",
		TenantEmail: "ali@example.com",
		Purpose:     domain.PurposeRent,
		RentalType:  domain.RentalTypeMonthly,
		StartDate:   day(2024, time.January, 1),
		EndDate:     day(2024, time.February, 1),
		Status:      domain.ReservationStatusAccepted,
	}))
	require.NoError(t, repos.Coupons.Create(ctx, &domain.Coupon{Code: "save10", Percent: dec("10"), Active: true}))
}

func countOutbox(t *testing.T, repos *repository.Repositories, typ domain.EventType) int {
	t.Helper()
	due, err := repos.Outbox.ListDue(context.Background(), time.Now().Add(24*time.Hour), 0)
	require.NoError(t, err)
	n := 0
	for _, ev := range due {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

func TestInvoiceService_Issue(t *testing.T) {
	ctx := context.Background()
	repos := newBoltRepos(t)
	e := newEngine(t, repos, testConfig(t), staticRenderer{ref: "rcpt-"})
	seedReservation(t, repos)

	t.Run("Coupon and default fee", func(t *testing.T) {
		inv, err := e.invoices.Issue(ctx, service.IssueRequest{ReservationID: "r-1", PropertyID: "p-1", CouponCode: "SAVE10"})
		require.NoError(t, err)

		assert.Equal(t, "INV-000001", inv.Serial)
		assert.Equal(t, domain.InvoiceStatusUnpaid, inv.Status)
		assert.Equal(t, "1200.000", inv.Subtotal.StringFixed(3))
		assert.Equal(t, "120.000", inv.Discount.StringFixed(3))
		assert.Equal(t, "60.000", inv.ServiceFee.StringFixed(3))
		assert.Equal(t, "1140.000", inv.Amount.StringFixed(3))
		assert.Equal(t, "SAVE10", inv.CouponCode)
		require.Len(t, inv.Items, 1)
		assert.Equal(t, "Monthly rent", inv.Items[0].Title)
		require.NotNil(t, inv.DueAt)
		assert.Equal(t, inv.IssuedAt.AddDate(0, 0, 7), *inv.DueAt)
		assert.Empty(t, inv.ReceiptRef)

		stored, err := e.invoices.Get(ctx, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, inv.Serial, stored.Serial)
		assert.Contains(t, e.dispatcher.types(), domain.EventInvoiceIssued)
	})

	t.Run("Per transaction fee and unknown coupon", func(t *testing.T) {
		fee := dec("2.5")
		inv, err := e.invoices.Issue(ctx, service.IssueRequest{ReservationID: "r-1", PropertyID: "p-1", CouponCode: "BOGUS", ServiceFeePercent: &fee})
		require.NoError(t, err)
		assert.Equal(t, "INV-000002", inv.Serial)
		assert.True(t, inv.Discount.IsZero())
		assert.Empty(t, inv.CouponCode)
		assert.Equal(t, "30.000", inv.ServiceFee.StringFixed(3))
		assert.Equal(t, "1230.000", inv.Amount.StringFixed(3))
	})

	t.Run("Idempotency key replays the first invoice", func(t *testing.T) {
		first, err := e.invoices.Issue(ctx, service.IssueRequest{ReservationID: "r-1", PropertyID: "p-1", IdempotencyKey: "req-1"})
		require.NoError(t, err)
		again, err := e.invoices.Issue(ctx, service.IssueRequest{ReservationID: "r-1", PropertyID: "p-1", IdempotencyKey: "req-1"})
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
		assert.Equal(t, first.Serial, again.Serial)

		next, err := e.invoices.Issue(ctx, service.IssueRequest{ReservationID: "r-1", PropertyID: "p-1"})
		require.NoError(t, err)
		assert.Equal(t, "INV-000004", next.Serial, "a replay does not consume a serial")
	})

	t.Run("Mismatched property", func(t *testing.T) {
		_, err := e.invoices.Issue(ctx, service.IssueRequest{ReservationID: "r-1", PropertyID: "p-2"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("Unknown reservation", func(t *testing.T) {
		_, err := e.invoices.Issue(ctx, service.IssueRequest{ReservationID: "r-404", PropertyID: "p-1"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Notification failure does not roll back", func(t *testing.T) {
		e.dispatcher.setFail(errors.New("smtp down"))
		defer e.dispatcher.setFail(nil)

		inv, err := e.invoices.Issue(ctx, service.IssueRequest{ReservationID: "r-1", PropertyID: "p-1"})
		require.NoError(t, err)
		_, err = repos.Invoices.GetByID(ctx, inv.ID)
		assert.NoError(t, err)
		assert.Equal(t, 1, countOutbox(t, repos, domain.EventInvoiceIssued))
	})
}

func TestInvoiceService_MarkPaid(t *testing.T) {
	ctx := context.Background()
	repos := newBoltRepos(t)
	e := newEngine(t, repos, testConfig(t), staticRenderer{ref: "rcpt-"})
	seedReservation(t, repos)

	inv, err := e.invoices.Issue(ctx, service.IssueRequest{ReservationID: "r-1", PropertyID: "p-1"})
	require.NoError(t, err)

	paidAt := time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)
	paid, err := e.invoices.MarkPaid(ctx, inv.ID, paidAt, "")
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPaid, paid.Status)
	assert.Equal(t, paidAt, *paid.PaidAt)
	assert.Empty(t, paid.ReceiptRef)
	assert.Equal(t, 1, countOutbox(t, repos, domain.EventReceiptRequested))

	t.Run("Second payment is a no-op", func(t *testing.T) {
		again, err := e.invoices.MarkPaid(ctx, inv.ID, paidAt.Add(time.Hour), "other")
		require.NoError(t, err)
		assert.True(t, paidAt.Equal(*again.PaidAt))
		assert.Empty(t, again.ReceiptRef)
	})

	t.Run("Receipt requested out of band", func(t *testing.T) {
		res, err := e.outbox.Dispatch(ctx)
		require.NoError(t, err)
		assert.Zero(t, res.Failed)

		stored, err := e.invoices.Get(ctx, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, "rcpt-"+inv.Serial, stored.ReceiptRef)
		assert.Equal(t, 0, countOutbox(t, repos, domain.EventReceiptRequested))
	})

	t.Run("Receipt given at payment", func(t *testing.T) {
		other, err := e.invoices.Issue(ctx, service.IssueRequest{ReservationID: "r-1", PropertyID: "p-1"})
		require.NoError(t, err)
		paid, err := e.invoices.MarkPaid(ctx, other.ID, time.Time{}, "bank-77")
		require.NoError(t, err)
		assert.Equal(t, "bank-77", paid.ReceiptRef)
		assert.NotNil(t, paid.PaidAt)
	})

	t.Run("Cancel after payment", func(t *testing.T) {
		canceled, err := e.invoices.Cancel(ctx, inv.ID, "refunded")
		require.NoError(t, err)
		assert.Equal(t, domain.InvoiceStatusCanceled, canceled.Status)
		assert.Equal(t, "refunded", canceled.CancelReason)

		again, err := e.invoices.Cancel(ctx, inv.ID, "twice")
		require.NoError(t, err)
		assert.Equal(t, "refunded", again.CancelReason)

		unchanged, err := e.invoices.MarkPaid(ctx, inv.ID, time.Now(), "")
		require.NoError(t, err)
		assert.Equal(t, domain.InvoiceStatusCanceled, unchanged.Status)
	})

	t.Run("Attach receipt to unpaid invoice", func(t *testing.T) {
		unpaid, err := e.invoices.Issue(ctx, service.IssueRequest{ReservationID: "r-1", PropertyID: "p-1"})
		require.NoError(t, err)
		_, err = e.invoices.AttachReceipt(ctx, unpaid.ID, "x")
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		_, err = e.invoices.AttachReceipt(ctx, unpaid.ID, "")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}
