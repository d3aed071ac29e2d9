package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rental-contracts-backend/internal/domain"

	"firebase.google.com/go/v4/messaging"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockMailSender struct {
	mock.Mock
}

func (m *MockMailSender) SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rest.Response), args.Error(1)
}

type MockPushSender struct {
	mock.Mock
}

func (m *MockPushSender) Send(ctx context.Context, message *messaging.Message) (string, error) {
	args := m.Called(ctx, message)
	return args.String(0), args.Error(1)
}

type stubChannel struct {
	name string
	err  error
	seen []domain.Event
}

func (s *stubChannel) Name() string { return s.name }

func (s *stubChannel) Deliver(ctx context.Context, ev domain.Event) error {
	s.seen = append(s.seen, ev)
	return s.err
}

func sampleEvent() domain.Event {
	return domain.Event{
		Type:        domain.EventContractActivated,
		AggregateID: "c-1",
		Title:       "Contract active",
		Message:     "All parties have signed.",
		Recipients: []domain.Recipient{
			{Name: "Ali", Email: "ali@example.com", DeviceToken: "tok-ali"},
			{Name: "Salim", Email: "salim@example.com"},
			{Name: "Huda", DeviceToken: "tok-huda"},
		},
		Attributes: map[string]string{"property_id": "p-1"},
		OccurredAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestDispatcher_Send(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		a := &stubChannel{name: "a"}
		b := &stubChannel{name: "b"}
		d := NewDispatcher(a, b)

		require.NoError(t, d.Send(context.Background(), sampleEvent()))
		assert.Len(t, a.seen, 1)
		assert.Len(t, b.seen, 1)
	})

	t.Run("OneChannelFails", func(t *testing.T) {
		boom := errors.New("boom")
		a := &stubChannel{name: "a", err: boom}
		b := &stubChannel{name: "b"}
		d := NewDispatcher(a, b)

		err := d.Send(context.Background(), sampleEvent())
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "a:")
		assert.Len(t, b.seen, 1, "later channels still receive the event")
	})

	t.Run("NoChannels", func(t *testing.T) {
		assert.NoError(t, NewDispatcher().Send(context.Background(), sampleEvent()))
	})

	t.Run("LogChannel", func(t *testing.T) {
		assert.NoError(t, NewDispatcher(LogChannel{}).Send(context.Background(), sampleEvent()))
	})
}

func TestEmailChannel_Deliver(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		sender := new(MockMailSender)
		ch := &EmailChannel{client: sender, fromEmail: "noreply@example.com", fromName: "Contracts"}

		sender.On("SendWithContext", mock.Anything, mock.MatchedBy(func(m *mail.SGMailV3) bool {
			return m.Subject == "Contract active" && m.From.Address == "noreply@example.com"
		})).Return(&rest.Response{StatusCode: 202}, nil).Twice()

		require.NoError(t, ch.Deliver(context.Background(), sampleEvent()))
		sender.AssertExpectations(t)
	})

	t.Run("ProviderRejects", func(t *testing.T) {
		sender := new(MockMailSender)
		ch := &EmailChannel{client: sender, fromEmail: "noreply@example.com"}

		sender.On("SendWithContext", mock.Anything, mock.Anything).
			Return(&rest.Response{StatusCode: 401, Body: "unauthorized"}, nil).Once()

		err := ch.Deliver(context.Background(), sampleEvent())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "401")
	})

	t.Run("TransportError", func(t *testing.T) {
		sender := new(MockMailSender)
		ch := &EmailChannel{client: sender}

		sender.On("SendWithContext", mock.Anything, mock.Anything).Return(nil, errors.New("dial tcp")).Once()

		assert.Error(t, ch.Deliver(context.Background(), sampleEvent()))
	})
}

func TestPushChannel_Deliver(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		sender := new(MockPushSender)
		ch := &PushChannel{client: sender}

		sender.On("Send", mock.Anything, mock.MatchedBy(func(m *messaging.Message) bool {
			return m.Notification.Title == "Contract active" &&
				m.Data["type"] == "contract_activated" &&
				m.Data["property_id"] == "p-1"
		})).Return("msg-id", nil).Twice()

		require.NoError(t, ch.Deliver(context.Background(), sampleEvent()))
		sender.AssertExpectations(t)
	})

	t.Run("Failure", func(t *testing.T) {
		sender := new(MockPushSender)
		ch := &PushChannel{client: sender}

		sender.On("Send", mock.Anything, mock.Anything).Return("", errors.New("unregistered")).Once()

		assert.Error(t, ch.Deliver(context.Background(), sampleEvent()))
	})
}

func TestRenderers(t *testing.T) {
	inv := &domain.Invoice{ID: "i-1", Serial: "INV-000042", Amount: decimal.RequireFromString("1140")}

	t.Run("Noop", func(t *testing.T) {
		ref, err := NoopRenderer{}.RenderReceipt(context.Background(), inv)
		require.NoError(t, err)
		assert.Equal(t, "rcpt-INV-000042", ref)
	})

	t.Run("HTTP", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req renderRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "receipt", req.Kind)
			assert.Equal(t, "INV-000042", req.Invoice.Serial)
			_ = json.NewEncoder(w).Encode(renderResponse{ReceiptRef: "doc-77"})
		}))
		defer srv.Close()

		ref, err := NewHTTPRenderer(srv.URL, time.Second).RenderReceipt(context.Background(), inv)
		require.NoError(t, err)
		assert.Equal(t, "doc-77", ref)
	})

	t.Run("HTTPError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := NewHTTPRenderer(srv.URL, time.Second).RenderReceipt(context.Background(), inv)
		assert.Error(t, err)
	})
}
