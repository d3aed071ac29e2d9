package http

import (
	"net/http"
	"strings"
	"time"

	"rental-contracts-backend/internal/service"

	"github.com/gorilla/mux"
)

type InvoiceHandler struct {
	invoices service.InvoiceService
}

func NewInvoiceHandler(invoices service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

func (h *InvoiceHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req issueInvoiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	issue := service.IssueRequest{
		ReservationID:     req.ReservationID,
		PropertyID:        req.PropertyID,
		CouponCode:        req.CouponCode,
		ServiceFeePercent: req.ServiceFeePercent,
		IdempotencyKey:    strings.TrimSpace(r.Header.Get("Idempotency-Key")),
	}
	if issue.IdempotencyKey == "" {
		issue.IdempotencyKey = req.IdempotencyKey
	}

	inv, err := h.invoices.Issue(r.Context(), issue)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toInvoiceDTO(inv))
}

func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	inv, err := h.invoices.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceDTO(inv))
}

func (h *InvoiceHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	var req markPaidRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	var paidAt time.Time
	if req.PaidAt != nil {
		paidAt = req.PaidAt.UTC()
	}

	inv, err := h.invoices.MarkPaid(r.Context(), mux.Vars(r)["id"], paidAt, req.ReceiptRef)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceDTO(inv))
}

func (h *InvoiceHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req cancelInvoiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	inv, err := h.invoices.Cancel(r.Context(), mux.Vars(r)["id"], req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceDTO(inv))
}
