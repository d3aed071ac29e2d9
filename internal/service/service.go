package service

import (
	"context"
	"time"

	"rental-contracts-backend/internal/domain"

	"github.com/shopspring/decimal"
)

// NotificationDispatcher delivers an event to the people it names.
type NotificationDispatcher interface {
	Send(ctx context.Context, ev domain.Event) error
}

// DocumentRenderer produces a receipt document for a paid invoice and returns its reference.
type DocumentRenderer interface {
	RenderReceipt(ctx context.Context, inv *domain.Invoice) (string, error)
}

type SequenceService interface {
	Next(ctx context.Context, namespace string) (string, error)
	Current(ctx context.Context, namespace string) (*domain.SequenceCounter, error)
	Reset(ctx context.Context, namespace string, value int64, actor, reason string) (*domain.SequenceReset, error)
}

type TemplateService interface {
	Resolve(ctx context.Context, level domain.AssignmentLevel, refID string) (*domain.ResolvedTemplate, error)
}

type SignatureService interface {
	SendForSignatures(ctx context.Context, contractID string, actor *domain.Actor) (*domain.Contract, error)
	Sign(ctx context.Context, contractID string, req SignRequest) (*domain.Contract, error)
	Reject(ctx context.Context, contractID, by, reason string) (*domain.Contract, error)
	GetSignatures(ctx context.Context, contractID string) (*ContractView, error)
}

type PropertyStatusSync interface {
	// Apply marks the property leased and unpublished. It reports whether a write happened.
	Apply(ctx context.Context, propertyID string) (bool, error)
}

type InvoiceService interface {
	Issue(ctx context.Context, req IssueRequest) (*domain.Invoice, error)
	MarkPaid(ctx context.Context, invoiceID string, paidAt time.Time, receiptRef string) (*domain.Invoice, error)
	AttachReceipt(ctx context.Context, invoiceID, receiptRef string) (*domain.Invoice, error)
	Cancel(ctx context.Context, invoiceID, reason string) (*domain.Invoice, error)
	Get(ctx context.Context, invoiceID string) (*domain.Invoice, error)
}

type OutboxService interface {
	// Dispatch delivers due outbox events once and reports what happened.
	Dispatch(ctx context.Context) (*DispatchResult, error)
	// RequestReceipts renders receipts for paid invoices that still lack one.
	RequestReceipts(ctx context.Context) (int, error)
}

type FeeConfigService interface {
	DefaultPercent() decimal.Decimal
	Refresh(ctx context.Context) (decimal.Decimal, error)
	Set(ctx context.Context, percent decimal.Decimal, actor string) error
}

type SignRequest struct {
	Role          domain.SignerRole
	SignerName    string
	SignerEmail   string
	OriginAddress string
	ClientContext string
}

// ContractView is the signature status of a contract.
type ContractView struct {
	Contract *domain.Contract
	NextStep string
}

type IssueRequest struct {
	ReservationID string
	PropertyID    string
	CouponCode    string
	// ServiceFeePercent overrides the configured default when set.
	ServiceFeePercent *decimal.Decimal
	IdempotencyKey    string
}

type DispatchResult struct {
	Delivered int
	Retried   int
	Failed    int
}
