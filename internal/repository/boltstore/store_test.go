package boltstore_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"rental-contracts-backend/internal/domain"
	"rental-contracts-backend/internal/repository"
	"rental-contracts-backend/internal/repository/boltstore"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func newTestRepos(t *testing.T) *repository.Repositories {
	t.Helper()
	s, err := boltstore.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s.Repositories()
}

func TestContractRepository(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	c := &domain.Contract{ID: "c1", PropertyID: "p1", State: domain.ContractStateDraft, TenantName: "Ali"}
	require.NoError(t, repos.Contracts.Create(ctx, c))
	assert.Equal(t, int64(1), c.Version)

	t.Run("Duplicate create", func(t *testing.T) {
		err := repos.Contracts.Create(ctx, &domain.Contract{ID: "c1"})
		assert.ErrorIs(t, err, domain.ErrDuplicateKey)
	})

	t.Run("Update bumps version", func(t *testing.T) {
		loaded, err := repos.Contracts.GetByID(ctx, "c1")
		require.NoError(t, err)
		loaded.State = domain.ContractStateSentForSignatures
		require.NoError(t, repos.Contracts.Update(ctx, loaded))
		assert.Equal(t, int64(2), loaded.Version)

		again, err := repos.Contracts.GetByID(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, domain.ContractStateSentForSignatures, again.State)
		assert.Equal(t, int64(2), again.Version)
	})

	t.Run("Stale version rejected", func(t *testing.T) {
		stale := &domain.Contract{ID: "c1", State: domain.ContractStateRejected, Version: 1}
		err := repos.Contracts.Update(ctx, stale)
		assert.ErrorIs(t, err, domain.ErrConcurrentUpdate)

		current, err := repos.Contracts.GetByID(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, domain.ContractStateSentForSignatures, current.State)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := repos.Contracts.GetByID(ctx, "nope")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestWithinTx_MarksContext(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	assert.False(t, repository.InTx(ctx))

	err := repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		assert.True(t, repository.InTx(ctx))
		return nil
	})
	require.NoError(t, err)
}

func TestWithinTx_RollsBack(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := repos.Sequences.Next(ctx, "invoice", domain.SequenceCounter{Prefix: "INV", Width: 6}); err != nil {
			return err
		}
		if err := repos.Invoices.Create(ctx, &domain.Invoice{ID: "i1", Serial: "INV-000001"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = repos.Invoices.GetByID(ctx, "i1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = repos.Sequences.Get(ctx, "invoice")
	assert.ErrorIs(t, err, domain.ErrNotFound, "a rolled back transaction must not burn a serial")

	c, err := repos.Sequences.Next(ctx, "invoice", domain.SequenceCounter{Prefix: "INV", Width: 6})
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.Value)
}

func TestInvoiceRepository(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	now := time.Now().UTC()

	inv := &domain.Invoice{
		ID:             "i1",
		Serial:         "INV-000001",
		Amount:         decimal.RequireFromString("1140.000"),
		Status:         domain.InvoiceStatusUnpaid,
		IssuedAt:       now,
		IdempotencyKey: "k1",
	}
	require.NoError(t, repos.Invoices.Create(ctx, inv))

	t.Run("Lookup by idempotency key", func(t *testing.T) {
		got, err := repos.Invoices.GetByIdempotencyKey(ctx, "k1")
		require.NoError(t, err)
		assert.Equal(t, "i1", got.ID)
		assert.Equal(t, "1140.000", got.Amount.StringFixed(3))

		_, err = repos.Invoices.GetByIdempotencyKey(ctx, "")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Duplicate idempotency key", func(t *testing.T) {
		err := repos.Invoices.Create(ctx, &domain.Invoice{ID: "i2", IdempotencyKey: "k1"})
		assert.ErrorIs(t, err, domain.ErrDuplicateKey)
	})

	t.Run("Transition guarded by status", func(t *testing.T) {
		paid := *inv
		paid.Status = domain.InvoiceStatusPaid
		paid.PaidAt = &now
		require.NoError(t, repos.Invoices.Transition(ctx, &paid, domain.InvoiceStatusUnpaid))

		err := repos.Invoices.Transition(ctx, &paid, domain.InvoiceStatusUnpaid)
		assert.ErrorIs(t, err, domain.ErrConcurrentUpdate)

		pending, err := repos.Invoices.ListPaidWithoutReceipt(ctx, 10)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, "i1", pending[0].ID)

		paid.ReceiptRef = "rcpt-INV-000001"
		require.NoError(t, repos.Invoices.Transition(ctx, &paid, domain.InvoiceStatusPaid))
		pending, err = repos.Invoices.ListPaidWithoutReceipt(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})
}

func TestSequenceRepository_Reset(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	defaults := domain.SequenceCounter{Prefix: "INV", Width: 6}

	for i := 0; i < 5; i++ {
		_, err := repos.Sequences.Next(ctx, "invoice", defaults)
		require.NoError(t, err)
	}

	reset := &domain.SequenceReset{ID: "r1", Namespace: "invoice", NewValue: 100, Actor: "admin", Reason: "migration", ResetAt: time.Now().UTC()}
	require.NoError(t, repos.Sequences.Reset(ctx, reset))
	assert.Equal(t, int64(5), reset.OldValue)

	c, err := repos.Sequences.Next(ctx, "invoice", defaults)
	require.NoError(t, err)
	assert.Equal(t, "INV-000101", c.Format(c.Value))

	err = repos.Sequences.Reset(ctx, &domain.SequenceReset{ID: "r2", Namespace: "unknown"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSequenceRepository_ConcurrentNextIsContiguous(t *testing.T) {
	root := t.TempDir()
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 30).Draw(rt, "serials")
		m := rapid.IntRange(1, 8).Draw(rt, "workers")

		dir, err := os.MkdirTemp(root, "seq")
		if err != nil {
			rt.Fatalf("temp dir: %v", err)
		}
		s, err := boltstore.Open(filepath.Join(dir, "seq.db"))
		if err != nil {
			rt.Fatalf("open: %v", err)
		}
		defer s.Close()
		repos := s.Repositories()

		jobs := make(chan struct{}, n)
		for i := 0; i < n; i++ {
			jobs <- struct{}{}
		}
		close(jobs)

		var mu sync.Mutex
		var values []int64
		var wg sync.WaitGroup
		for w := 0; w < m; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range jobs {
					c, err := repos.Sequences.Next(context.Background(), "invoice", domain.SequenceCounter{Prefix: "INV", Width: 6})
					if err != nil {
						panic(fmt.Sprintf("next: %v", err))
					}
					mu.Lock()
					values = append(values, c.Value)
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
		if len(values) != n {
			rt.Fatalf("got %d values, want %d", len(values), n)
		}
		for i, v := range values {
			if v != int64(i+1) {
				rt.Fatalf("values not contiguous at %d: %v", i, values)
			}
		}
	})
}

func TestTemplateRepository(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	require.NoError(t, repos.Templates.SaveTemplate(ctx, &domain.ContractTemplate{ID: "t1", Scope: domain.TemplateScopeUnified, BodyPrimary: "Hello {{tenant}}"}))
	tpl, err := repos.Templates.GetTemplate(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "Hello {{tenant}}", tpl.BodyPrimary)

	require.NoError(t, repos.Templates.SaveAssignment(ctx, &domain.Assignment{Level: domain.AssignmentLevelUnit, RefID: "u1", TemplateID: "t1", Active: true}))
	a, err := repos.Templates.GetActiveAssignment(ctx, domain.AssignmentLevelUnit, "u1")
	require.NoError(t, err)
	assert.Equal(t, "t1", a.TemplateID)

	require.NoError(t, repos.Templates.SaveAssignment(ctx, &domain.Assignment{Level: domain.AssignmentLevelUnit, RefID: "u1", TemplateID: "t1", Active: false}))
	_, err = repos.Templates.GetActiveAssignment(ctx, domain.AssignmentLevelUnit, "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = repos.Templates.GetActiveAssignment(ctx, domain.AssignmentLevelBuilding, "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOutboxRepository(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i, delay := range []time.Duration{0, time.Hour} {
		ev := &domain.OutboxEvent{
			ID:            fmt.Sprintf("e%d", i),
			Type:          domain.EventInvoiceIssued,
			Status:        domain.OutboxStatusPending,
			NextAttemptAt: now.Add(delay),
			CreatedAt:     now.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, repos.Outbox.Enqueue(ctx, ev))
	}

	due, err := repos.Outbox.ListDue(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "e0", due[0].ID)

	require.NoError(t, repos.Outbox.MarkRetry(ctx, "e0", 1, now.Add(time.Minute), "smtp down"))
	due, err = repos.Outbox.ListDue(ctx, now, 10)
	require.NoError(t, err)
	assert.Empty(t, due)

	require.NoError(t, repos.Outbox.MarkDelivered(ctx, []string{"e0"}, now))
	require.NoError(t, repos.Outbox.MarkFailed(ctx, "e1", 8, "gave up"))

	counts, err := repos.Outbox.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[domain.OutboxStatusDelivered])
	assert.Equal(t, 1, counts[domain.OutboxStatusFailed])
	assert.Equal(t, 0, counts[domain.OutboxStatusPending])
}

func TestPropertyAndSettings(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	require.NoError(t, repos.Properties.Create(ctx, &domain.Property{ID: "p1", Status: domain.PropertyStatusAvailable, Published: true}))
	require.NoError(t, repos.Properties.SetStatus(ctx, "p1", domain.PropertyStatusLeased, false))
	p, err := repos.Properties.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, domain.PropertyStatusLeased, p.Status)
	assert.False(t, p.Published)

	assert.ErrorIs(t, repos.Properties.SetStatus(ctx, "nope", domain.PropertyStatusLeased, false), domain.ErrNotFound)

	_, err = repos.FeeSettings.GetServicePercent(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, repos.FeeSettings.SetServicePercent(ctx, decimal.RequireFromString("6.5"), "admin"))
	pct, err := repos.FeeSettings.GetServicePercent(ctx)
	require.NoError(t, err)
	assert.Equal(t, "6.5", pct.String())

	require.NoError(t, repos.Coupons.Create(ctx, &domain.Coupon{Code: "save10", Percent: decimal.NewFromInt(10), Active: true}))
	c, err := repos.Coupons.GetByCode(ctx, "SAVE10")
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", c.Code)
}
