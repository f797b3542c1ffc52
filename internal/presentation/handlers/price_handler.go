package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/movewise/aptos-swap-router/internal/domain/entities"
)

// PriceSource returns USD prices; it never fails.
type PriceSource interface {
	Price(ctx context.Context, token entities.Token) float64
}

// PriceHandler handles price lookups.
type PriceHandler struct {
	prices  PriceSource
	tokens  *entities.Registry
	network entities.Network
}

// NewPriceHandler creates a new price handler.
func NewPriceHandler(prices PriceSource, tokens *entities.Registry, network entities.Network) *PriceHandler {
	return &PriceHandler{
		prices:  prices,
		tokens:  tokens,
		network: network,
	}
}

// PriceResponse is the price lookup response.
type PriceResponse struct {
	Symbol    string `json:"symbol"`
	Address   string `json:"address"`
	PriceUSD  string `json:"priceUSD"`
	UpdatedAt string `json:"updatedAt"`
}

// GetPrice handles GET /api/v1/price/{symbol}
func (h *PriceHandler) GetPrice(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "missing_symbol", "token symbol is required")
		return
	}

	token, err := h.tokens.Get(h.network, symbol)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown_token",
			"token is not supported on this network")
		return
	}

	price := h.prices.Price(r.Context(), token)

	writeJSON(w, http.StatusOK, PriceResponse{
		Symbol:    token.Symbol,
		Address:   token.Address,
		PriceUSD:  strconv.FormatFloat(price, 'f', -1, 64),
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	})
}
