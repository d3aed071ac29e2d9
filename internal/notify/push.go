package notify

import (
	"context"
	"fmt"

	"rental-contracts-backend/internal/domain"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

type pushSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// PushChannel sends events to recipients with a device token through Firebase Cloud Messaging.
type PushChannel struct {
	client pushSender
}

func NewPushChannel(ctx context.Context, credentialsFile string) (*PushChannel, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase messaging: %w", err)
	}
	return &PushChannel{client: client}, nil
}

func (c *PushChannel) Name() string { return "firebase" }

func (c *PushChannel) Deliver(ctx context.Context, ev domain.Event) error {
	data := map[string]string{
		"type":         string(ev.Type),
		"aggregate_id": ev.AggregateID,
	}
	for k, v := range ev.Attributes {
		data[k] = v
	}

	for _, r := range ev.Recipients {
		if r.DeviceToken == "" {
			continue
		}
		_, err := c.client.Send(ctx, &messaging.Message{
			Token: r.DeviceToken,
			Notification: &messaging.Notification{
				Title: ev.Title,
				Body:  ev.Message,
			},
			Data: data,
		})
		if err != nil {
			return fmt.Errorf("failed to send push notification: %w", err)
		}
	}
	return nil
}
