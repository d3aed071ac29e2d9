package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceStatusUnpaid   InvoiceStatus = "unpaid"
	InvoiceStatusPaid     InvoiceStatus = "paid"
	InvoiceStatusCanceled InvoiceStatus = "canceled"
)

type InvoiceItem struct {
	Title     string          `json:"title"`
	Qty       int64           `json:"qty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type Invoice struct {
	ID                string          `json:"id"`
	Serial            string          `json:"serial"`
	ReservationID     string          `json:"reservation_id"`
	PropertyID        string          `json:"property_id"`
	UnitID            *string         `json:"unit_id,omitempty"`
	Items             []InvoiceItem   `json:"items"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	Discount          decimal.Decimal `json:"discount"`
	CouponCode        string          `json:"coupon_code,omitempty"`
	ServiceFeePercent decimal.Decimal `json:"service_fee_percent"`
	ServiceFee        decimal.Decimal `json:"service_fee"`
	Amount            decimal.Decimal `json:"amount"`
	Status            InvoiceStatus   `json:"status"`
	IssuedAt          time.Time       `json:"issued_at"`
	DueAt             *time.Time      `json:"due_at,omitempty"`
	PaidAt            *time.Time      `json:"paid_at,omitempty"`
	ReceiptRef        string          `json:"receipt_ref,omitempty"`
	IdempotencyKey    string          `json:"idempotency_key,omitempty"`
	CanceledAt        *time.Time      `json:"canceled_at,omitempty"`
	CancelReason      string          `json:"cancel_reason,omitempty"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (i *Invoice) IsSettled() bool {
	return i.Status == InvoiceStatusPaid || i.Status == InvoiceStatusCanceled
}
