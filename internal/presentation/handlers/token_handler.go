package handlers

import (
	"net/http"

	"github.com/movewise/aptos-swap-router/internal/domain/entities"
)

// TokenHandler serves the static token table.
type TokenHandler struct {
	tokens  *entities.Registry
	network entities.Network
}

// NewTokenHandler creates a new token handler bound to the configured
// network.
func NewTokenHandler(tokens *entities.Registry, network entities.Network) *TokenHandler {
	return &TokenHandler{tokens: tokens, network: network}
}

// TokenListResponse is the token listing response.
type TokenListResponse struct {
	Network string           `json:"network"`
	Tokens  []entities.Token `json:"tokens"`
}

// ListTokens handles GET /api/v1/tokens
func (h *TokenHandler) ListTokens(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, TokenListResponse{
		Network: string(h.network),
		Tokens:  h.tokens.All(h.network),
	})
}
