package notify

import (
	"context"
	"fmt"
	"html"

	"rental-contracts-backend/internal/domain"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type mailSender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// EmailChannel sends events to recipients with an email address through SendGrid.
type EmailChannel struct {
	client    mailSender
	fromEmail string
	fromName  string
}

func NewEmailChannel(apiKey, fromEmail, fromName string) *EmailChannel {
	return &EmailChannel{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (c *EmailChannel) Name() string { return "sendgrid" }

func (c *EmailChannel) Deliver(ctx context.Context, ev domain.Event) error {
	from := mail.NewEmail(c.fromName, c.fromEmail)
	plain, htmlContent := emailBody(ev)

	for _, r := range ev.Recipients {
		if r.Email == "" {
			continue
		}
		message := mail.NewSingleEmail(from, ev.Title, mail.NewEmail(r.Name, r.Email), plain, htmlContent)
		response, err := c.client.SendWithContext(ctx, message)
		if err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
		if response.StatusCode >= 400 {
			return fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
		}
	}
	return nil
}

func emailBody(ev domain.Event) (string, string) {
	plain := ev.Message
	htmlContent := fmt.Sprintf(`<html>
	<body>
		<h2>%s</h2>
		<p>%s</p>
	</body>
</html>`, html.EscapeString(ev.Title), html.EscapeString(ev.Message))
	return plain, htmlContent
}
