package httpd

import (
	"net/http"
	"time"
)

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"service":   "assignment-portal",
		"timestamp": time.Now().UTC(),
	}

	if h.Storage != nil {
		if err := h.Storage.Ping(r.Context()); err != nil {
			h.logger.Error().Err(err).Msg("Session storage is unavailable")
			response["status"] = "unhealthy"
			response["storage"] = err.Error()
			writeJSON(w, http.StatusServiceUnavailable, response)
			return
		}
		response["storage"] = "ok"
	}

	if h.Pool != nil {
		response["workers"] = h.Pool.GetStats()
	}

	writeJSON(w, http.StatusOK, response)
}
