package repository

import (
	"context"
	"time"

	"rental-contracts-backend/internal/domain"

	"github.com/shopspring/decimal"
)

// Transactor runs fn inside a store transaction carried by the context.
// Repository calls made with that context join the transaction; nested
// WithinTx calls join the outer one.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type txMarker struct{}

// MarkTx records on ctx that a store transaction is open. Stores call it
// when they hand a transactional context to fn.
func MarkTx(ctx context.Context) context.Context {
	return context.WithValue(ctx, txMarker{}, true)
}

// InTx reports whether ctx carries an open store transaction.
func InTx(ctx context.Context) bool {
	open, _ := ctx.Value(txMarker{}).(bool)
	return open
}

type ContractRepository interface {
	Create(ctx context.Context, c *domain.Contract) error
	GetByID(ctx context.Context, id string) (*domain.Contract, error)
	// Update persists c if the stored version still equals c.Version and bumps
	// c.Version on success. A stale version yields domain.ErrConcurrentUpdate.
	Update(ctx context.Context, c *domain.Contract) error
}

type InvoiceRepository interface {
	Create(ctx context.Context, inv *domain.Invoice) error
	GetByID(ctx context.Context, id string) (*domain.Invoice, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Invoice, error)
	// Transition persists inv only if the stored status is still from.
	Transition(ctx context.Context, inv *domain.Invoice, from domain.InvoiceStatus) error
	ListPaidWithoutReceipt(ctx context.Context, limit int) ([]domain.Invoice, error)
}

type SequenceRepository interface {
	// Next atomically increments the namespace counter, creating it from
	// defaults when absent, and returns the counter holding the new value.
	Next(ctx context.Context, namespace string, defaults domain.SequenceCounter) (*domain.SequenceCounter, error)
	Get(ctx context.Context, namespace string) (*domain.SequenceCounter, error)
	// Reset sets the counter value and records the audit row in one transaction.
	Reset(ctx context.Context, reset *domain.SequenceReset) error
}

type TemplateRepository interface {
	SaveTemplate(ctx context.Context, t *domain.ContractTemplate) error
	GetTemplate(ctx context.Context, id string) (*domain.ContractTemplate, error)
	// SaveAssignment stores a as the only active assignment for its level and ref.
	SaveAssignment(ctx context.Context, a *domain.Assignment) error
	GetActiveAssignment(ctx context.Context, level domain.AssignmentLevel, refID string) (*domain.Assignment, error)
}

type PropertyRepository interface {
	Create(ctx context.Context, p *domain.Property) error
	GetByID(ctx context.Context, id string) (*domain.Property, error)
	SetStatus(ctx context.Context, propertyID string, status domain.PropertyStatus, published bool) error
	CreateUnit(ctx context.Context, u *domain.Unit) error
	GetUnit(ctx context.Context, id string) (*domain.Unit, error)
}

type ReservationRepository interface {
	Create(ctx context.Context, r *domain.Reservation) error
	GetByID(ctx context.Context, id string) (*domain.Reservation, error)
}

type CouponRepository interface {
	Create(ctx context.Context, c *domain.Coupon) error
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, ev *domain.OutboxEvent) error
	ListDue(ctx context.Context, now time.Time, limit int) ([]domain.OutboxEvent, error)
	MarkDelivered(ctx context.Context, ids []string, at time.Time) error
	MarkRetry(ctx context.Context, id string, attempts int, next time.Time, lastErr string) error
	MarkFailed(ctx context.Context, id string, attempts int, lastErr string) error
	CountByStatus(ctx context.Context) (map[domain.OutboxStatus]int, error)
}

type FeeSettingRepository interface {
	// GetServicePercent returns domain.ErrNotFound when no override is stored.
	GetServicePercent(ctx context.Context) (decimal.Decimal, error)
	SetServicePercent(ctx context.Context, percent decimal.Decimal, actor string) error
}

// Repositories bundles one backend's implementations.
type Repositories struct {
	Tx           Transactor
	Contracts    ContractRepository
	Invoices     InvoiceRepository
	Sequences    SequenceRepository
	Templates    TemplateRepository
	Properties   PropertyRepository
	Reservations ReservationRepository
	Coupons      CouponRepository
	Outbox       OutboxRepository
	FeeSettings  FeeSettingRepository
}
