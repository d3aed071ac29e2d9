package http

import (
	"net/http"

	"rental-contracts-backend/internal/domain"
	"rental-contracts-backend/internal/service"

	"github.com/gorilla/mux"
)

type TemplateHandler struct {
	templates service.TemplateService
}

func NewTemplateHandler(templates service.TemplateService) *TemplateHandler {
	return &TemplateHandler{templates: templates}
}

// Resolve answers 200 even when nothing is configured; resolved=false then
// tells the caller the body is empty.
func (h *TemplateHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	res, err := h.templates.Resolve(r.Context(), domain.AssignmentLevel(vars["scope"]), vars["refId"])
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := templateResponse{
		Body:             res.Body,
		BodySecondary:    res.BodySecondary,
		Fields:           res.Fields,
		Hash:             res.Hash,
		TemplateID:       res.TemplateID,
		MissingRequired:  res.MissingRequired,
		UndeclaredFields: res.UndeclaredFields,
		Resolved:         res.Resolved,
	}
	if !res.Resolved {
		resp.Message = message(r, msgTemplateUnresolved)
	}
	writeJSON(w, http.StatusOK, resp)
}
