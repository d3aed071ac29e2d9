// Package http exposes the contract engine over a JSON API.
package http

import (
	"net/http"

	"rental-contracts-backend/internal/config"
	"rental-contracts-backend/internal/security"

	"github.com/gorilla/mux"
)

type Handlers struct {
	Contracts *ContractHandler
	Invoices  *InvoiceHandler
	Templates *TemplateHandler
	Admin     *AdminHandler
}

// NewRouter registers every route by name; the auth middleware looks the
// name up in config.EndpointSecurityConfig.
func NewRouter(h Handlers, tm security.TokenManager) *mux.Router {
	router := mux.NewRouter()
	router.MethodNotAllowedHandler = http.HandlerFunc(MethodNotAllowed)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, r, http.StatusNotFound, msgNotFound)
	})
	router.Use(recoveryMiddleware, loggingMiddleware, authMiddleware(tm))

	router.HandleFunc("/healthz", Health).Methods(http.MethodGet).Name(config.RouteHealth)

	router.HandleFunc("/contracts/{id}/signatures", h.Contracts.GetSignatures).
		Methods(http.MethodGet).Name(config.RouteGetSignatures)
	router.HandleFunc("/contracts/{id}/signatures", h.Contracts.PostSignatures).
		Methods(http.MethodPost).Name(config.RoutePostSignatures)

	router.HandleFunc("/invoices", h.Invoices.Issue).
		Methods(http.MethodPost).Name(config.RouteIssueInvoice)
	router.HandleFunc("/invoices/{id}", h.Invoices.Get).
		Methods(http.MethodGet).Name(config.RouteGetInvoice)
	router.HandleFunc("/invoices/{id}/mark-paid", h.Invoices.MarkPaid).
		Methods(http.MethodPost).Name(config.RouteMarkInvoicePaid)
	router.HandleFunc("/invoices/{id}/cancel", h.Invoices.Cancel).
		Methods(http.MethodPost).Name(config.RouteCancelInvoice)

	router.HandleFunc("/contract-templates/{scope}/{refId}", h.Templates.Resolve).
		Methods(http.MethodGet).Name(config.RouteResolveTemplate)

	router.HandleFunc("/admin/sequences/{namespace}", h.Admin.GetSequence).
		Methods(http.MethodGet).Name(config.RouteGetSequence)
	router.HandleFunc("/admin/sequences/{namespace}/reset", h.Admin.ResetSequence).
		Methods(http.MethodPost).Name(config.RouteResetSequence)

	return router
}

func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
