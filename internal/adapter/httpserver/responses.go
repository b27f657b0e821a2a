// Package httpserver contains the HTTP handlers and middleware for the
// interview session API.
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hireloop/interview-analyzer/internal/domain"
)

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, _ *http.Request, err error, details any) {
	code := http.StatusInternalServerError
	codeStr := "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		code = http.StatusBadRequest
		codeStr = "INVALID_ARGUMENT"
	case errors.Is(err, domain.ErrSessionNotFound):
		code = http.StatusNotFound
		codeStr = "SESSION_NOT_FOUND"
	case errors.Is(err, domain.ErrCandidateNotFound):
		code = http.StatusNotFound
		codeStr = "CANDIDATE_NOT_FOUND"
	case errors.Is(err, domain.ErrResultNotFound):
		code = http.StatusNotFound
		codeStr = "RESULT_NOT_FOUND"
	case errors.Is(err, domain.ErrSessionNotActive):
		code = http.StatusConflict
		codeStr = "SESSION_NOT_ACTIVE"
	case errors.Is(err, domain.ErrDuplicateTrigger):
		code = http.StatusConflict
		codeStr = "ALREADY_TRIGGERED"
	case errors.Is(err, domain.ErrPersistence):
		code = http.StatusServiceUnavailable
		codeStr = "STORAGE_UNAVAILABLE"
	}
	writeJSON(w, code, errorEnvelope{Error: apiError{Code: codeStr, Message: err.Error(), Details: details}})
}
