package service

import (
	"context"
	"fmt"
	"time"

	"rental-contracts-backend/internal/config"
	"rental-contracts-backend/internal/domain"
	"rental-contracts-backend/internal/logger"
	"rental-contracts-backend/internal/repository"
)

const maxOutboxBackoff = time.Hour

type outboxService struct {
	outboxRepo  repository.OutboxRepository
	invoiceRepo repository.InvoiceRepository
	invoices    InvoiceService
	dispatcher  NotificationDispatcher
	renderer    DocumentRenderer

	batchSize   int
	maxAttempts int
	baseBackoff time.Duration
}

func NewOutboxService(
	repos *repository.Repositories,
	invoices InvoiceService,
	dispatcher NotificationDispatcher,
	renderer DocumentRenderer,
	cfg config.OutboxConfig,
) OutboxService {
	return &outboxService{
		outboxRepo:  repos.Outbox,
		invoiceRepo: repos.Invoices,
		invoices:    invoices,
		dispatcher:  dispatcher,
		renderer:    renderer,
		batchSize:   cfg.BatchSize,
		maxAttempts: cfg.MaxAttempts,
		baseBackoff: time.Duration(cfg.BaseBackoffSec) * time.Second,
	}
}

func (s *outboxService) Dispatch(ctx context.Context) (*DispatchResult, error) {
	logger.EnterMethod("outboxService.Dispatch")

	now := time.Now().UTC()
	due, err := s.outboxRepo.ListDue(ctx, now, s.batchSize)
	if err != nil {
		logger.ExitMethodWithError("outboxService.Dispatch", err)
		return nil, fmt.Errorf("failed to list due outbox events: %w", err)
	}

	result := &DispatchResult{}
	var delivered []string
	for i := range due {
		ev := &due[i]
		if err := s.deliver(ctx, ev); err != nil {
			attempts := ev.Attempts + 1
			if attempts >= s.maxAttempts {
				logger.Error("Outbox event failed permanently", "outboxID", ev.ID, "event", ev.Type, "attempts", attempts, "error", err)
				if err := s.outboxRepo.MarkFailed(ctx, ev.ID, attempts, err.Error()); err != nil {
					logger.Error("Failed to mark outbox event failed", "outboxID", ev.ID, "error", err)
				}
				result.Failed++
				continue
			}
			next := now.Add(s.backoff(attempts))
			logger.Warn("Outbox delivery failed, will retry", "outboxID", ev.ID, "event", ev.Type, "attempts", attempts, "nextAttemptAt", next, "error", err)
			if err := s.outboxRepo.MarkRetry(ctx, ev.ID, attempts, next, err.Error()); err != nil {
				logger.Error("Failed to schedule outbox retry", "outboxID", ev.ID, "error", err)
			}
			result.Retried++
			continue
		}
		delivered = append(delivered, ev.ID)
	}

	if err := s.outboxRepo.MarkDelivered(ctx, delivered, time.Now().UTC()); err != nil {
		logger.ExitMethodWithError("outboxService.Dispatch", err)
		return nil, fmt.Errorf("failed to mark outbox events delivered: %w", err)
	}
	result.Delivered = len(delivered)

	logger.ExitMethod("outboxService.Dispatch", "delivered", result.Delivered, "retried", result.Retried, "failed", result.Failed)
	return result, nil
}

// backoff doubles per attempt starting at the base delay.
func (s *outboxService) backoff(attempts int) time.Duration {
	d := s.baseBackoff
	for i := 1; i < attempts && d < maxOutboxBackoff; i++ {
		d *= 2
	}
	if d > maxOutboxBackoff {
		d = maxOutboxBackoff
	}
	return d
}

func (s *outboxService) deliver(ctx context.Context, ev *domain.OutboxEvent) error {
	if ev.Type == domain.EventReceiptRequested {
		inv, err := s.invoiceRepo.GetByID(ctx, ev.AggregateID)
		if err != nil {
			return err
		}
		return s.renderReceipt(ctx, inv)
	}
	if s.dispatcher == nil {
		return nil
	}
	return s.dispatcher.Send(ctx, ev.Payload)
}

func (s *outboxService) renderReceipt(ctx context.Context, inv *domain.Invoice) error {
	if inv.Status != domain.InvoiceStatusPaid || inv.ReceiptRef != "" {
		return nil
	}
	logger.ExternalServiceCall("renderer", "RenderReceipt", "invoiceID", inv.ID)
	ref, err := s.renderer.RenderReceipt(ctx, inv)
	logger.ExternalServiceResult("renderer", "RenderReceipt", err, "invoiceID", inv.ID)
	if err != nil {
		return err
	}
	_, err = s.invoices.AttachReceipt(ctx, inv.ID, ref)
	return err
}

func (s *outboxService) RequestReceipts(ctx context.Context) (int, error) {
	logger.EnterMethod("outboxService.RequestReceipts")

	invoices, err := s.invoiceRepo.ListPaidWithoutReceipt(ctx, s.batchSize)
	if err != nil {
		logger.ExitMethodWithError("outboxService.RequestReceipts", err)
		return 0, fmt.Errorf("failed to list invoices without receipt: %w", err)
	}

	rendered := 0
	for i := range invoices {
		if err := s.renderReceipt(ctx, &invoices[i]); err != nil {
			logger.Warn("Receipt rendering failed", "invoiceID", invoices[i].ID, "error", err)
			continue
		}
		rendered++
	}

	logger.ExitMethod("outboxService.RequestReceipts", "rendered", rendered, "pending", len(invoices))
	return rendered, nil
}
