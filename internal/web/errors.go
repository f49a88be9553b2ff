package web

// errors.go writes JSON error responses.
//
// Simple request problems use writeError: {"error": "..."}.
// Failures that map to the support code catalogue use respondError, which adds
// the user message, a suggested action and the code, and logs the technical
// error with the request id so the two can be correlated.

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/inventory/internal/core"
	"github.com/JonMunkholm/inventory/internal/logging"
)

// ErrorResponse is the body of a structured error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes a structured error. summary becomes the
// "error" field; the rest comes from core.MapError.
func respondError(w http.ResponseWriter, r *http.Request, status int, summary string, err error) {
	msg := core.MapError(err)

	log := logging.FromContext(r.Context())
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	log.Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err,
		"code", msg.Code,
	)

	writeJSON(w, status, ErrorResponse{
		Error:   summary,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// writeError writes {"error": message}.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeJSON encodes v as JSON with the given status.
// Encoding errors are only logged since the header is already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
