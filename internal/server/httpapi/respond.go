// Package httpapi exposes the identity service over HTTP/JSON. Handlers
// stay thin: decode, call a service, map the error, encode. All business
// rules live behind the service layer.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ojudge/identity/internal/common"
)

// envelope is the response wrapper every endpoint uses, success or failure.
type envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Code: status, Message: message, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, message, nil)
}

// writeDomainError translates a service error into a status code and a
// message safe to show callers. Wrapped detail stays in the logs.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrInvalidParameter):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, common.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, common.ErrConflict):
		writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, common.ErrPolicyViolation):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, common.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrIrrecoverableStorage):
		// Distinct from a plain storage outage: the stores may disagree
		// and a retry will not help.
		writeError(w, http.StatusInternalServerError, "internal error")
	case errors.Is(err, common.ErrStorage):
		writeError(w, http.StatusBadGateway, "storage unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
