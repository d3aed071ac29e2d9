package http

import (
	"fmt"
	"net/http"

	"rental-contracts-backend/internal/domain"
	"rental-contracts-backend/internal/service"

	"github.com/gorilla/mux"
)

type AdminHandler struct {
	sequences service.SequenceService
}

func NewAdminHandler(sequences service.SequenceService) *AdminHandler {
	return &AdminHandler{sequences: sequences}
}

func (h *AdminHandler) GetSequence(w http.ResponseWriter, r *http.Request) {
	c, err := h.sequences.Current(r.Context(), mux.Vars(r)["namespace"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sequenceResponse{
		Namespace: c.Namespace,
		Prefix:    c.Prefix,
		Width:     c.Width,
		Value:     c.Value,
		Next:      c.Format(c.Value + 1),
		UpdatedAt: c.UpdatedAt,
	})
}

func (h *AdminHandler) ResetSequence(w http.ResponseWriter, r *http.Request) {
	var req resetSequenceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Value == nil {
		writeError(w, r, fmt.Errorf("%w: value is required", domain.ErrInvalidInput))
		return
	}

	actor := ActorFromContext(r.Context())
	actorName := ""
	if actor != nil {
		actorName = actor.ID
		if actor.Name != "" {
			actorName = actor.Name + " (" + actor.ID + ")"
		}
	}

	reset, err := h.sequences.Reset(r.Context(), mux.Vars(r)["namespace"], *req.Value, actorName, req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resetSequenceResponse{
		Namespace: reset.Namespace,
		OldValue:  reset.OldValue,
		NewValue:  reset.NewValue,
		Actor:     reset.Actor,
		Reason:    reset.Reason,
		ResetAt:   reset.ResetAt,
	})
}
