package web

import (
	"context"
	"net/http"
	"time"

	"github.com/JonMunkholm/inventory/internal/logging"
)

const readyTimeout = 2 * time.Second

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports whether the store answers queries.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.service.Ping(ctx); err != nil {
		logging.FromContext(r.Context()).Warn("readiness check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"error":  "database unreachable",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ready",
		"uploads": s.service.UploadLimiterStatus(),
	})
}
