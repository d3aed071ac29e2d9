// Package notify delivers domain events to people over email and push, and
// renders receipts for paid invoices.
package notify

import (
	"context"
	"errors"
	"fmt"

	"rental-contracts-backend/internal/domain"
	"rental-contracts-backend/internal/logger"
)

// Channel delivers an event over one transport.
type Channel interface {
	Name() string
	Deliver(ctx context.Context, ev domain.Event) error
}

// Dispatcher fans an event out to every configured channel.
type Dispatcher struct {
	channels []Channel
}

func NewDispatcher(channels ...Channel) *Dispatcher {
	return &Dispatcher{channels: channels}
}

// Send delivers ev on every channel. Channel failures are collected so one
// broken transport does not hide delivery on the others; any failure makes
// the whole send fail and the outbox retries it.
func (d *Dispatcher) Send(ctx context.Context, ev domain.Event) error {
	var errs []error
	for _, ch := range d.channels {
		logger.ExternalServiceCall(ch.Name(), "Deliver", "event", ev.Type, "aggregateID", ev.AggregateID)
		err := ch.Deliver(ctx, ev)
		logger.ExternalServiceResult(ch.Name(), "Deliver", err, "event", ev.Type)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ch.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// LogChannel records events in the application log. It is the fallback when
// no external transport is configured.
type LogChannel struct{}

func (LogChannel) Name() string { return "log" }

func (LogChannel) Deliver(ctx context.Context, ev domain.Event) error {
	recipients := make([]string, 0, len(ev.Recipients))
	for _, r := range ev.Recipients {
		if r.Email != "" {
			recipients = append(recipients, r.Email)
		}
	}
	logger.InfoContext(ctx, "Notification", "event", ev.Type, "aggregateID", ev.AggregateID, "title", ev.Title, "recipients", recipients)
	return nil
}
