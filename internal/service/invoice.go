package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rental-contracts-backend/internal/config"
	"rental-contracts-backend/internal/domain"
	"rental-contracts-backend/internal/logger"
	"rental-contracts-backend/internal/repository"
	"rental-contracts-backend/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type invoiceService struct {
	tx              repository.Transactor
	invoiceRepo     repository.InvoiceRepository
	reservationRepo repository.ReservationRepository
	propertyRepo    repository.PropertyRepository
	couponRepo      repository.CouponRepository
	sequences       SequenceService
	fees            FeeConfigService
	events          *eventPublisher

	saleDepositPercent decimal.Decimal
	dueDays            int
	maxRetries         int
}

func NewInvoiceService(
	repos *repository.Repositories,
	sequences SequenceService,
	fees FeeConfigService,
	dispatcher NotificationDispatcher,
	cfg *config.Config,
) InvoiceService {
	return &invoiceService{
		tx:                 repos.Tx,
		invoiceRepo:        repos.Invoices,
		reservationRepo:    repos.Reservations,
		propertyRepo:       repos.Properties,
		couponRepo:         repos.Coupons,
		sequences:          sequences,
		fees:               fees,
		events:             newEventPublisher(repos.Outbox, dispatcher, time.Duration(cfg.Outbox.BaseBackoffSec)*time.Second),
		saleDepositPercent: cfg.SaleDepositPercent(),
		dueDays:            cfg.Fees.InvoiceDueDays,
		maxRetries:         cfg.Workflow.MaxCASRetries,
	}
}

// Issue prices a reservation and stores an unpaid invoice under a fresh
// serial. The serial, the invoice and its outbox event commit together. A
// repeated IdempotencyKey returns the invoice issued the first time.
func (s *invoiceService) Issue(ctx context.Context, req IssueRequest) (*domain.Invoice, error) {
	logger.EnterMethod("invoiceService.Issue", "reservationID", req.ReservationID, "propertyID", req.PropertyID)

	if req.ReservationID == "" || req.PropertyID == "" {
		err := fmt.Errorf("%w: reservationId and propertyId are required", domain.ErrInvalidInput)
		logger.ExitMethodWithError("invoiceService.Issue", err)
		return nil, err
	}
	if req.ServiceFeePercent != nil && req.ServiceFeePercent.IsNegative() {
		err := fmt.Errorf("%w: service fee percent must not be negative", domain.ErrInvalidInput)
		logger.ExitMethodWithError("invoiceService.Issue", err)
		return nil, err
	}

	if req.IdempotencyKey != "" {
		existing, err := s.invoiceRepo.GetByIdempotencyKey(ctx, req.IdempotencyKey)
		if err == nil {
			logger.ExitMethod("invoiceService.Issue", "invoiceID", existing.ID, "replayed", true)
			return existing, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			logger.ExitMethodWithError("invoiceService.Issue", err)
			return nil, fmt.Errorf("failed to look up idempotency key: %w", err)
		}
	}

	reservation, err := s.reservationRepo.GetByID(ctx, req.ReservationID)
	if err != nil {
		logger.ExitMethodWithError("invoiceService.Issue", err, "reservationID", req.ReservationID)
		return nil, fmt.Errorf("failed to load reservation %s: %w", req.ReservationID, err)
	}
	if reservation.PropertyID != req.PropertyID {
		err := fmt.Errorf("%w: reservation %s is not for property %s", domain.ErrInvalidInput, req.ReservationID, req.PropertyID)
		logger.ExitMethodWithError("invoiceService.Issue", err)
		return nil, err
	}
	property, err := s.propertyRepo.GetByID(ctx, req.PropertyID)
	if err != nil {
		logger.ExitMethodWithError("invoiceService.Issue", err, "propertyID", req.PropertyID)
		return nil, fmt.Errorf("failed to load property %s: %w", req.PropertyID, err)
	}

	items, subtotal, err := utils.BaseSubtotal(utils.PricingFor(property, reservation, s.saleDepositPercent))
	if err != nil {
		logger.ExitMethodWithError("invoiceService.Issue", err, "reservationID", req.ReservationID)
		return nil, err
	}

	couponCode := strings.ToUpper(strings.TrimSpace(req.CouponCode))
	var coupon *domain.Coupon
	if couponCode != "" {
		coupon, err = s.couponRepo.GetByCode(ctx, couponCode)
		if errors.Is(err, domain.ErrNotFound) {
			coupon = nil
		} else if err != nil {
			logger.ExitMethodWithError("invoiceService.Issue", err)
			return nil, fmt.Errorf("failed to load coupon: %w", err)
		}
	}

	now := time.Now().UTC()
	breakdown := utils.ComputeFees(utils.FeeInput{
		Subtotal:       subtotal,
		CouponCode:     couponCode,
		Coupon:         coupon,
		FeePercent:     req.ServiceFeePercent,
		DefaultPercent: s.fees.DefaultPercent(),
		At:             now,
	})
	if breakdown.Warning != nil {
		logger.Warn("Coupon not applied", "code", couponCode, "reservationID", req.ReservationID, "warning", breakdown.Warning)
	}

	inv := &domain.Invoice{
		ID:                uuid.NewString(),
		ReservationID:     reservation.ID,
		PropertyID:        property.ID,
		UnitID:            reservation.UnitID,
		Items:             items,
		Subtotal:          breakdown.Subtotal,
		Discount:          breakdown.Discount,
		ServiceFeePercent: breakdown.EffectiveFeePercent,
		ServiceFee:        breakdown.ServiceFee,
		Amount:            breakdown.Amount,
		Status:            domain.InvoiceStatusUnpaid,
		IssuedAt:          now,
		IdempotencyKey:    req.IdempotencyKey,
	}
	if breakdown.CouponApplied {
		inv.CouponCode = couponCode
	}
	if s.dueDays > 0 {
		due := now.AddDate(0, 0, s.dueDays)
		inv.DueAt = &due
	}

	tenant := domain.Recipient{Name: reservation.TenantName, Email: reservation.TenantEmail}
	var staged []*domain.OutboxEvent
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		serial, err := s.sequences.Next(ctx, NamespaceInvoice)
		if err != nil {
			return err
		}
		inv.Serial = serial
		if err := s.invoiceRepo.Create(ctx, inv); err != nil {
			return err
		}
		staged, err = s.events.stageAll(ctx, []domain.Event{
			invoiceEvent(domain.EventInvoiceIssued, inv, tenant,
				"Invoice "+serial,
				fmt.Sprintf("Invoice %s for %s has been issued. Amount due: %s.", serial, property.Title, inv.Amount.StringFixed(3))),
		})
		return err
	})
	if errors.Is(err, domain.ErrDuplicateKey) && req.IdempotencyKey != "" {
		existing, getErr := s.invoiceRepo.GetByIdempotencyKey(ctx, req.IdempotencyKey)
		if getErr == nil {
			logger.ExitMethod("invoiceService.Issue", "invoiceID", existing.ID, "replayed", true)
			return existing, nil
		}
	}
	if err != nil {
		logger.ExitMethodWithError("invoiceService.Issue", err, "reservationID", req.ReservationID)
		return nil, err
	}

	s.events.flush(ctx, staged)

	logger.WithInvoice(inv.ID).Info("Invoice issued", "serial", inv.Serial, "amount", inv.Amount.StringFixed(3))
	logger.ExitMethod("invoiceService.Issue", "invoiceID", inv.ID, "serial", inv.Serial)
	return inv, nil
}

// MarkPaid records payment once. Settled invoices are returned unchanged.
// Without a receipt reference a receipt is requested from the renderer
// out of band.
func (s *invoiceService) MarkPaid(ctx context.Context, invoiceID string, paidAt time.Time, receiptRef string) (*domain.Invoice, error) {
	logger.EnterMethod("invoiceService.MarkPaid", "invoiceID", invoiceID)

	if paidAt.IsZero() {
		paidAt = time.Now().UTC()
	}
	receiptRef = strings.TrimSpace(receiptRef)

	inv, err := s.transition(ctx, invoiceID, func(inv *domain.Invoice) ([]domain.Event, bool, error) {
		if inv.IsSettled() {
			return nil, false, nil
		}
		inv.Status = domain.InvoiceStatusPaid
		inv.PaidAt = &paidAt
		inv.ReceiptRef = receiptRef

		tenant := s.tenantOf(ctx, inv)
		events := []domain.Event{
			invoiceEvent(domain.EventInvoicePaid, inv, tenant,
				"Payment received",
				fmt.Sprintf("Payment for invoice %s has been received.", inv.Serial)),
		}
		if receiptRef == "" {
			events = append(events, invoiceEvent(domain.EventReceiptRequested, inv, domain.Recipient{},
				"Receipt requested", "Render a receipt for invoice "+inv.Serial))
		}
		return events, true, nil
	})
	if err != nil {
		logger.ExitMethodWithError("invoiceService.MarkPaid", err, "invoiceID", invoiceID)
		return nil, err
	}

	logger.ExitMethod("invoiceService.MarkPaid", "invoiceID", invoiceID, "status", inv.Status)
	return inv, nil
}

func (s *invoiceService) AttachReceipt(ctx context.Context, invoiceID, receiptRef string) (*domain.Invoice, error) {
	if strings.TrimSpace(receiptRef) == "" {
		return nil, fmt.Errorf("%w: receipt reference is required", domain.ErrInvalidInput)
	}
	return s.transition(ctx, invoiceID, func(inv *domain.Invoice) ([]domain.Event, bool, error) {
		if inv.Status != domain.InvoiceStatusPaid {
			return nil, false, fmt.Errorf("%w: receipts belong to paid invoices, invoice is %s", domain.ErrInvalidTransition, inv.Status)
		}
		if inv.ReceiptRef != "" {
			return nil, false, nil
		}
		inv.ReceiptRef = receiptRef
		return nil, true, nil
	})
}

func (s *invoiceService) Cancel(ctx context.Context, invoiceID, reason string) (*domain.Invoice, error) {
	logger.EnterMethod("invoiceService.Cancel", "invoiceID", invoiceID)

	inv, err := s.transition(ctx, invoiceID, func(inv *domain.Invoice) ([]domain.Event, bool, error) {
		if inv.Status == domain.InvoiceStatusCanceled {
			return nil, false, nil
		}
		now := time.Now().UTC()
		inv.Status = domain.InvoiceStatusCanceled
		inv.CanceledAt = &now
		inv.CancelReason = reason
		return []domain.Event{
			invoiceEvent(domain.EventInvoiceCanceled, inv, s.tenantOf(ctx, inv),
				"Invoice canceled",
				fmt.Sprintf("Invoice %s has been canceled.", inv.Serial)),
		}, true, nil
	})
	if err != nil {
		logger.ExitMethodWithError("invoiceService.Cancel", err, "invoiceID", invoiceID)
		return nil, err
	}

	logger.ExitMethod("invoiceService.Cancel", "invoiceID", invoiceID)
	return inv, nil
}

func (s *invoiceService) Get(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	return s.invoiceRepo.GetByID(ctx, invoiceID)
}

// invoiceChange mutates inv and reports whether it must be written.
type invoiceChange func(inv *domain.Invoice) ([]domain.Event, bool, error)

// transition applies fn guarded by the invoice's current status. When another
// request moved the invoice first, it reloads and lets fn look again.
func (s *invoiceService) transition(ctx context.Context, invoiceID string, fn invoiceChange) (*domain.Invoice, error) {
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		inv, err := s.invoiceRepo.GetByID(ctx, invoiceID)
		if err != nil {
			return nil, err
		}
		from := inv.Status
		events, write, err := fn(inv)
		if err != nil {
			return nil, err
		}
		if !write {
			return inv, nil
		}

		var staged []*domain.OutboxEvent
		err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
			if err := s.invoiceRepo.Transition(ctx, inv, from); err != nil {
				return err
			}
			staged, err = s.events.stageAll(ctx, events)
			return err
		})
		if errors.Is(err, domain.ErrConcurrentUpdate) {
			continue
		}
		if err != nil {
			return nil, err
		}

		s.events.flush(ctx, staged)
		logger.WithInvoice(inv.ID).Info("Invoice updated", "from", from, "to", inv.Status)
		return inv, nil
	}
	return nil, fmt.Errorf("%w: invoice %s", domain.ErrConcurrentUpdate, invoiceID)
}

func (s *invoiceService) tenantOf(ctx context.Context, inv *domain.Invoice) domain.Recipient {
	r, err := s.reservationRepo.GetByID(ctx, inv.ReservationID)
	if err != nil {
		return domain.Recipient{}
	}
	return domain.Recipient{Name: r.TenantName, Email: r.TenantEmail}
}
