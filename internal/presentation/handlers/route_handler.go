package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/movewise/aptos-swap-router/internal/domain/entities"
)

// RouteResolver resolves the best swap route for a pair.
type RouteResolver interface {
	BestRoute(ctx context.Context, net entities.Network, tokenIn, tokenOut, amount string) (*entities.SwapRoute, error)
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// RouteHandler handles route resolution requests.
type RouteHandler struct {
	resolver RouteResolver
	network  entities.Network
}

// NewRouteHandler creates a new route handler bound to the configured
// network.
func NewRouteHandler(resolver RouteResolver, network entities.Network) *RouteHandler {
	return &RouteHandler{
		resolver: resolver,
		network:  network,
	}
}

// GetRoute handles GET /api/v1/route
func (h *RouteHandler) GetRoute(w http.ResponseWriter, r *http.Request) {
	tokenIn := r.URL.Query().Get("tokenIn")
	tokenOut := r.URL.Query().Get("tokenOut")
	amount := r.URL.Query().Get("amount")

	if tokenIn == "" || tokenOut == "" || amount == "" {
		writeError(w, http.StatusBadRequest, "missing_params", "tokenIn, tokenOut, and amount are required")
		return
	}
	if tokenIn == tokenOut {
		writeError(w, http.StatusBadRequest, "same_token", "tokenIn and tokenOut must differ")
		return
	}
	if parsed, err := decimal.NewFromString(amount); err != nil || !parsed.IsPositive() {
		writeError(w, http.StatusBadRequest, "invalid_amount", "amount must be a positive decimal")
		return
	}

	route, err := h.resolver.BestRoute(r.Context(), h.network, tokenIn, tokenOut, amount)
	if err != nil {
		if entities.IsConfigurationError(err) {
			writeError(w, http.StatusNotFound, "no_route",
				"no route found; one of the tokens is not supported on this network")
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, route)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: message,
	})
}
