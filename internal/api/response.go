package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Envelope wraps every API response.
// Success: {"ok": true, "data": {...}}
// Error:   {"ok": false, "error": {"code": "...", "message": "..."}}
type Envelope struct {
	OK    bool          `json:"ok"`
	Data  any           `json:"data,omitempty"`
	Error *ErrorPayload `json:"error,omitempty"`
}

// ErrorPayload holds structured error information.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes.
const (
	ErrValidation  = "validation_error" // 400
	ErrNotFound    = "not_found"        // 404
	ErrConflict    = "conflict"         // 409
	ErrTooLarge    = "too_large"        // 413
	ErrInternal    = "internal"         // 500
	ErrUnavailable = "unavailable"      // 503
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(Envelope{OK: true, Data: data}); err != nil {
		slog.Error("write response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(Envelope{
		Error: &ErrorPayload{Code: code, Message: message},
	}); err != nil {
		slog.Error("write error response", "err", err)
	}
}
