package service

import (
	"context"
	"fmt"
	"time"

	"rental-contracts-backend/internal/domain"
	"rental-contracts-backend/internal/logger"
	"rental-contracts-backend/internal/repository"

	"github.com/google/uuid"
)

// eventPublisher writes events to the outbox inside the caller's transaction
// and, after commit, tries to deliver them right away. Whatever cannot be
// delivered stays pending for the outbox job.
type eventPublisher struct {
	outbox      repository.OutboxRepository
	dispatcher  NotificationDispatcher
	baseBackoff time.Duration
}

func newEventPublisher(outbox repository.OutboxRepository, dispatcher NotificationDispatcher, baseBackoff time.Duration) *eventPublisher {
	return &eventPublisher{outbox: outbox, dispatcher: dispatcher, baseBackoff: baseBackoff}
}

func (p *eventPublisher) stage(ctx context.Context, ev domain.Event) (*domain.OutboxEvent, error) {
	now := time.Now().UTC()
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = now
	}
	row := &domain.OutboxEvent{
		ID:            uuid.NewString(),
		Type:          ev.Type,
		AggregateID:   ev.AggregateID,
		Payload:       ev,
		Status:        domain.OutboxStatusPending,
		NextAttemptAt: now,
		CreatedAt:     now,
	}
	if err := p.outbox.Enqueue(ctx, row); err != nil {
		return nil, fmt.Errorf("failed to enqueue %s event: %w", ev.Type, err)
	}
	return row, nil
}

func (p *eventPublisher) stageAll(ctx context.Context, events []domain.Event) ([]*domain.OutboxEvent, error) {
	staged := make([]*domain.OutboxEvent, 0, len(events))
	for _, ev := range events {
		row, err := p.stage(ctx, ev)
		if err != nil {
			return nil, err
		}
		staged = append(staged, row)
	}
	return staged, nil
}

// flush is best effort. Failures are logged and left to the outbox job.
func (p *eventPublisher) flush(ctx context.Context, staged []*domain.OutboxEvent) {
	if p.dispatcher == nil {
		return
	}
	for _, row := range staged {
		if row.Type == domain.EventReceiptRequested {
			continue
		}
		if err := p.dispatcher.Send(ctx, row.Payload); err != nil {
			logger.Warn("Immediate notification failed, leaving it to the outbox", "event", row.Type, "aggregateID", row.AggregateID, "error", err)
			next := time.Now().UTC().Add(p.baseBackoff)
			if err := p.outbox.MarkRetry(ctx, row.ID, 1, next, err.Error()); err != nil {
				logger.Error("Failed to record notification retry", "outboxID", row.ID, "error", err)
			}
			continue
		}
		if err := p.outbox.MarkDelivered(ctx, []string{row.ID}, time.Now().UTC()); err != nil {
			logger.Error("Failed to mark outbox event delivered", "outboxID", row.ID, "error", err)
		}
	}
}

func contractRecipients(c *domain.Contract, p *domain.Property, admin domain.Recipient) []domain.Recipient {
	var out []domain.Recipient
	if c.TenantEmail != "" {
		out = append(out, domain.Recipient{Name: c.TenantName, Email: c.TenantEmail})
	}
	if p != nil && p.OwnerEmail != "" {
		out = append(out, domain.Recipient{Name: p.OwnerName, Email: p.OwnerEmail})
	}
	if admin.Email != "" || admin.DeviceToken != "" {
		out = append(out, admin)
	}
	return out
}

func contractEvent(typ domain.EventType, c *domain.Contract, p *domain.Property, admin domain.Recipient, title, message string) domain.Event {
	attrs := map[string]string{
		"contract_id":    c.ID,
		"property_id":    c.PropertyID,
		"workflow_state": string(c.State),
	}
	if c.Serial != "" {
		attrs["serial"] = c.Serial
	}
	return domain.Event{
		Type:        typ,
		AggregateID: c.ID,
		Title:       title,
		Message:     message,
		Recipients:  contractRecipients(c, p, admin),
		Attributes:  attrs,
	}
}

func invoiceEvent(typ domain.EventType, inv *domain.Invoice, tenant domain.Recipient, title, message string) domain.Event {
	var recipients []domain.Recipient
	if tenant.Email != "" {
		recipients = append(recipients, tenant)
	}
	return domain.Event{
		Type:        typ,
		AggregateID: inv.ID,
		Title:       title,
		Message:     message,
		Recipients:  recipients,
		Attributes: map[string]string{
			"invoice_id":     inv.ID,
			"serial":         inv.Serial,
			"amount":         inv.Amount.StringFixed(3),
			"reservation_id": inv.ReservationID,
		},
	}
}
