package http

import (
	"time"

	"rental-contracts-backend/internal/domain"

	"github.com/shopspring/decimal"
)

type signatureDTO struct {
	SignatureType string    `json:"signatureType"`
	SignerName    string    `json:"signerName"`
	SignerEmail   string    `json:"signerEmail,omitempty"`
	SignedAt      time.Time `json:"signedAt"`
}

type signaturesResponse struct {
	ContractID    string         `json:"contractId"`
	Serial        string         `json:"serial,omitempty"`
	WorkflowState string         `json:"workflowState"`
	Signatures    []signatureDTO `json:"signatures"`
	CreatedBy     string         `json:"createdBy"`
	TenantName    string         `json:"tenantName"`
	TenantEmail   string         `json:"tenantEmail"`
	NextStep      string         `json:"nextStep"`
}

type signatureActionRequest struct {
	Action        string `json:"action"`
	SignatureType string `json:"signatureType,omitempty"`
	SignerName    string `json:"signerName,omitempty"`
	SignerEmail   string `json:"signerEmail,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

type signatureActionResponse struct {
	Success       bool           `json:"success"`
	Message       string         `json:"message"`
	WorkflowState string         `json:"workflowState"`
	Signatures    []signatureDTO `json:"signatures,omitempty"`
	NextStep      string         `json:"nextStep"`
}

func toSignatureDTOs(sigs []domain.Signature) []signatureDTO {
	out := make([]signatureDTO, 0, len(sigs))
	for _, s := range sigs {
		out = append(out, signatureDTO{
			SignatureType: string(s.Role),
			SignerName:    s.SignerName,
			SignerEmail:   s.SignerEmail,
			SignedAt:      s.SignedAt,
		})
	}
	return out
}

// serviceFeePercent accepts a JSON number or a quoted decimal.
type issueInvoiceRequest struct {
	ReservationID     string           `json:"reservationId"`
	PropertyID        string           `json:"propertyId"`
	CouponCode        string           `json:"couponCode,omitempty"`
	ServiceFeePercent *decimal.Decimal `json:"serviceFeePercent,omitempty"`
	IdempotencyKey    string           `json:"idempotencyKey,omitempty"`
}

type markPaidRequest struct {
	PaidAt     *time.Time `json:"paidAt,omitempty"`
	ReceiptRef string     `json:"receiptRef,omitempty"`
}

type cancelInvoiceRequest struct {
	Reason string `json:"reason"`
}

type invoiceItemDTO struct {
	Title     string `json:"title"`
	Qty       int64  `json:"qty"`
	UnitPrice string `json:"unitPrice"`
	LineTotal string `json:"lineTotal"`
}

type invoiceDTO struct {
	ID                string           `json:"id"`
	Serial            string           `json:"serial"`
	ReservationID     string           `json:"reservationId"`
	PropertyID        string           `json:"propertyId"`
	UnitID            *string          `json:"unitId,omitempty"`
	Items             []invoiceItemDTO `json:"items"`
	Subtotal          string           `json:"subtotal"`
	Discount          string           `json:"discount"`
	CouponCode        string           `json:"couponCode,omitempty"`
	ServiceFeePercent string           `json:"serviceFeePercent"`
	ServiceFee        string           `json:"serviceFee"`
	Amount            string           `json:"amount"`
	Status            string           `json:"status"`
	IssuedAt          time.Time        `json:"issuedAt"`
	DueAt             *time.Time       `json:"dueAt,omitempty"`
	PaidAt            *time.Time       `json:"paidAt,omitempty"`
	ReceiptRef        string           `json:"receiptRef,omitempty"`
	CanceledAt        *time.Time       `json:"canceledAt,omitempty"`
	CancelReason      string           `json:"cancelReason,omitempty"`
}

// Money leaves the service with exactly three fractional digits.
func toInvoiceDTO(inv *domain.Invoice) invoiceDTO {
	items := make([]invoiceItemDTO, 0, len(inv.Items))
	for _, it := range inv.Items {
		items = append(items, invoiceItemDTO{
			Title:     it.Title,
			Qty:       it.Qty,
			UnitPrice: it.UnitPrice.StringFixed(3),
			LineTotal: it.LineTotal.StringFixed(3),
		})
	}
	return invoiceDTO{
		ID:                inv.ID,
		Serial:            inv.Serial,
		ReservationID:     inv.ReservationID,
		PropertyID:        inv.PropertyID,
		UnitID:            inv.UnitID,
		Items:             items,
		Subtotal:          inv.Subtotal.StringFixed(3),
		Discount:          inv.Discount.StringFixed(3),
		CouponCode:        inv.CouponCode,
		ServiceFeePercent: inv.ServiceFeePercent.String(),
		ServiceFee:        inv.ServiceFee.StringFixed(3),
		Amount:            inv.Amount.StringFixed(3),
		Status:            string(inv.Status),
		IssuedAt:          inv.IssuedAt,
		DueAt:             inv.DueAt,
		PaidAt:            inv.PaidAt,
		ReceiptRef:        inv.ReceiptRef,
		CanceledAt:        inv.CanceledAt,
		CancelReason:      inv.CancelReason,
	}
}

type templateResponse struct {
	Body             string            `json:"body"`
	BodySecondary    string            `json:"bodySecondary"`
	Fields           map[string]string `json:"fields"`
	Hash             string            `json:"hash"`
	TemplateID       string            `json:"templateId,omitempty"`
	MissingRequired  []string          `json:"missingRequired,omitempty"`
	UndeclaredFields []string          `json:"undeclaredFields,omitempty"`
	Resolved         bool              `json:"resolved"`
	Message          string            `json:"message,omitempty"`
}

type sequenceResponse struct {
	Namespace string    `json:"namespace"`
	Prefix    string    `json:"prefix"`
	Width     int       `json:"width"`
	Value     int64     `json:"value"`
	Next      string    `json:"next"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

type resetSequenceRequest struct {
	Value  *int64 `json:"value"`
	Reason string `json:"reason"`
}

type resetSequenceResponse struct {
	Namespace string    `json:"namespace"`
	OldValue  int64     `json:"oldValue"`
	NewValue  int64     `json:"newValue"`
	Actor     string    `json:"actor"`
	Reason    string    `json:"reason"`
	ResetAt   time.Time `json:"resetAt"`
}
