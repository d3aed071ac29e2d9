package domain

import "time"

type EventType string

const (
	EventContractSentForSignatures EventType = "contract_sent_for_signatures"
	EventContractSigned            EventType = "contract_signed"
	EventContractActivated         EventType = "contract_activated"
	EventContractRejected          EventType = "contract_rejected"
	EventInvoiceIssued             EventType = "invoice_issued"
	EventInvoicePaid               EventType = "invoice_paid"
	EventInvoiceCanceled           EventType = "invoice_canceled"
	EventReceiptRequested          EventType = "receipt_requested"
)

type Recipient struct {
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	DeviceToken string `json:"device_token,omitempty"`
}

// Event is what a NotificationDispatcher delivers.
type Event struct {
	Type        EventType         `json:"type"`
	AggregateID string            `json:"aggregate_id"`
	Title       string            `json:"title"`
	Message     string            `json:"message"`
	Recipients  []Recipient       `json:"recipients,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	OccurredAt  time.Time         `json:"occurred_at"`
}

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusDelivered OutboxStatus = "delivered"
	OutboxStatusFailed    OutboxStatus = "failed"
)

type OutboxEvent struct {
	ID            string       `json:"id"`
	Type          EventType    `json:"type"`
	AggregateID   string       `json:"aggregate_id"`
	Payload       Event        `json:"payload"`
	Attempts      int          `json:"attempts"`
	Status        OutboxStatus `json:"status"`
	NextAttemptAt time.Time    `json:"next_attempt_at"`
	LastError     string       `json:"last_error,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	DeliveredAt   *time.Time   `json:"delivered_at,omitempty"`
}
