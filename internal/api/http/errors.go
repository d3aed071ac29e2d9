package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"rental-contracts-backend/internal/domain"
	"rental-contracts-backend/internal/logger"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func classify(err error) (int, messageKey) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, msgNotFound
	case errors.Is(err, domain.ErrAlreadySigned):
		return http.StatusConflict, msgAlreadySigned
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusBadRequest, msgInvalidTransition
	case errors.Is(err, domain.ErrOutOfOrder):
		return http.StatusBadRequest, msgOutOfOrder
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, msgInvalidInput
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, msgForbidden
	case errors.Is(err, domain.ErrConcurrentUpdate), errors.Is(err, domain.ErrDuplicateKey):
		return http.StatusConflict, msgConflict
	case errors.Is(err, domain.ErrSequenceExhausted), errors.Is(err, domain.ErrSequenceConflict):
		return http.StatusServiceUnavailable, msgSequenceDown
	}
	return http.StatusInternalServerError, msgInternal
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, key := classify(err)
	detail := err.Error()
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		detail = string(key)
	}
	writeJSON(w, status, errorResponse{Success: false, Message: message(r, key), Error: detail})
}

func writeStatus(w http.ResponseWriter, r *http.Request, status int, key messageKey) {
	writeJSON(w, status, errorResponse{Success: false, Message: message(r, key), Error: string(key)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Join(domain.ErrInvalidInput, err)
	}
	return nil
}
