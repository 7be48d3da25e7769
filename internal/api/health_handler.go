package api

import (
	"io"
	"net/http"

	"github.com/sungwon/mail-relay/internal/datastore"
	"github.com/sungwon/mail-relay/internal/logger"
)

// RootHandler handles GET /.
// Always returns 200 with a plain-text liveness string.
func RootHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, livenessText)
	}
}

// HealthzHandler handles GET /healthz.
// Always returns 200 OK with {"status":"ok"}.
func HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ReadyzHandler handles GET /readyz.
// Pings the configured database backend.
// Returns 200 if reachable, 503 with Retry-After header otherwise.
func ReadyzHandler(store datastore.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := datastore.Check(r.Context(), store); err != nil {
			log := logger.FromContext(r.Context())
			log.Warn().Err(err).Str("backend", store.Name()).Msg("readiness check failed")

			w.Header().Set("Retry-After", "30")
			respondMessage(w, http.StatusServiceUnavailable, msgDatabaseDown)
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
