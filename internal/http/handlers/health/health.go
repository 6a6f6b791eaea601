// Package health contains the liveness handler.
package health

import (
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/users-api/internal/storage"
	"github.com/aanand-mishra/users-api/internal/utils/response"
)

// New handles GET /health. It issues a trivial round trip against the
// store: 200 "connected" on success, 500 "disconnected" on failure.
// A liveness probe only — not a deep diagnostic.
func New(log *slog.Logger, store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(r.Context()); err != nil {
			log.Error("health check failed", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError,
				map[string]string{"status": "disconnected"})
			return
		}

		response.WriteJSON(w, http.StatusOK, map[string]string{"status": "connected"})
	}
}
