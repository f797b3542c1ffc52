package handlers

import (
	"net/http"

	"github.com/movewise/aptos-swap-router/internal/domain/entities"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Network string `json:"network"`
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	version string
	network entities.Network
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(version string, network entities.Network) *HealthHandler {
	return &HealthHandler{version: version, network: network}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: h.version,
		Network: string(h.network),
	})
}
