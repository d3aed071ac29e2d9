package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"rental-contracts-backend/internal/domain"
	"rental-contracts-backend/internal/service"

	"github.com/gorilla/mux"
)

const (
	actionSend      = "send_for_signatures"
	actionSendShort = "send"
	actionSign      = "sign"
	actionReject    = "reject"
)

type ContractHandler struct {
	signatures service.SignatureService
}

func NewContractHandler(signatures service.SignatureService) *ContractHandler {
	return &ContractHandler{signatures: signatures}
}

func (h *ContractHandler) GetSignatures(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	view, err := h.signatures.GetSignatures(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c := view.Contract
	writeJSON(w, http.StatusOK, signaturesResponse{
		ContractID:    c.ID,
		Serial:        c.Serial,
		WorkflowState: string(c.State),
		Signatures:    toSignatureDTOs(c.Signatures),
		CreatedBy:     c.CreatedBy,
		TenantName:    c.TenantName,
		TenantEmail:   c.TenantEmail,
		NextStep:      view.NextStep,
	})
}

func (h *ContractHandler) PostSignatures(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	actor := ActorFromContext(r.Context())

	var req signatureActionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var (
		c   *domain.Contract
		err error
		key messageKey
	)
	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case actionSend, actionSendShort:
		c, err = h.signatures.SendForSignatures(r.Context(), id, actor)
		key = msgSentForSignatures

	case actionSign:
		role := domain.SignerRole(strings.ToLower(req.SignatureType))
		if role == domain.SignerRoleAdmin && !actor.IsAdmin() {
			writeError(w, r, fmt.Errorf("%w: admin approval needs the admin role", domain.ErrForbidden))
			return
		}
		name := req.SignerName
		if strings.TrimSpace(name) == "" && actor != nil {
			name = actor.Name
		}
		c, err = h.signatures.Sign(r.Context(), id, service.SignRequest{
			Role:          role,
			SignerName:    name,
			SignerEmail:   req.SignerEmail,
			OriginAddress: originAddress(r),
			ClientContext: r.UserAgent(),
		})
		key = msgSigned
		if c != nil && c.State == domain.ContractStateActive {
			key = msgActivated
		}

	case actionReject:
		by := req.SignerName
		if strings.TrimSpace(by) == "" && actor != nil {
			by = actor.Name
		}
		c, err = h.signatures.Reject(r.Context(), id, by, req.Reason)
		key = msgRejected

	default:
		writeStatus(w, r, http.StatusBadRequest, msgUnknownAction)
		return
	}

	if err != nil {
		h.writeActionError(w, r, id, err)
		return
	}

	writeJSON(w, http.StatusOK, signatureActionResponse{
		Success:       true,
		Message:       message(r, key),
		WorkflowState: string(c.State),
		Signatures:    toSignatureDTOs(c.Signatures),
		NextStep:      domain.NextStep(c.State),
	})
}

// writeActionError reports a failed action together with the contract's
// current state so the caller can tell a rejected document from other
// invalid transitions.
func (h *ContractHandler) writeActionError(w http.ResponseWriter, r *http.Request, id string, err error) {
	status, key := classify(err)
	if status >= http.StatusInternalServerError || errors.Is(err, domain.ErrNotFound) {
		writeError(w, r, err)
		return
	}

	resp := signatureActionResponse{Success: false}
	if view, getErr := h.signatures.GetSignatures(r.Context(), id); getErr == nil {
		resp.WorkflowState = string(view.Contract.State)
		resp.NextStep = view.NextStep
		if errors.Is(err, domain.ErrInvalidTransition) {
			switch view.Contract.State {
			case domain.ContractStateRejected:
				key = msgDocumentRejected
			case domain.ContractStateActive:
				key = msgContractActive
			}
		}
	}
	resp.Message = message(r, key)
	writeJSON(w, status, resp)
}

// MethodNotAllowed answers verbs the signatures resource does not support.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, r, http.StatusMethodNotAllowed, msgMethodNotAllowed)
}
