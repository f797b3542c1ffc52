package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/movewise/aptos-swap-router/internal/domain/entities"
)

// SwapExecutor builds transaction payloads for resolved routes.
type SwapExecutor interface {
	ExecuteSwap(ctx context.Context, net entities.Network, walletAddress, tokenIn, tokenOut, amount string, slippagePercent float64, deadlineSeconds int64) *entities.SwapResult
}

// SwapRequest is the POST /api/v1/swap body.
type SwapRequest struct {
	WalletAddress string  `json:"walletAddress"`
	TokenIn       string  `json:"tokenIn"`
	TokenOut      string  `json:"tokenOut"`
	Amount        string  `json:"amount"`
	Slippage      float64 `json:"slippage"` // percent
	Deadline      int64   `json:"deadline"` // seconds
}

// SwapHandler handles swap execution requests.
type SwapHandler struct {
	executor SwapExecutor
	network  entities.Network
}

// NewSwapHandler creates a new swap handler bound to the configured network.
func NewSwapHandler(executor SwapExecutor, network entities.Network) *SwapHandler {
	return &SwapHandler{
		executor: executor,
		network:  network,
	}
}

const (
	defaultSlippagePercent = 0.5
	defaultDeadlineSeconds = 1800
)

// ExecuteSwap handles POST /api/v1/swap
func (h *SwapHandler) ExecuteSwap(w http.ResponseWriter, r *http.Request) {
	var req SwapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body is not valid JSON")
		return
	}

	if req.WalletAddress == "" || req.TokenIn == "" || req.TokenOut == "" || req.Amount == "" {
		writeError(w, http.StatusBadRequest, "missing_params", "walletAddress, tokenIn, tokenOut, and amount are required")
		return
	}
	if parsed, err := decimal.NewFromString(req.Amount); err != nil || !parsed.IsPositive() {
		writeError(w, http.StatusBadRequest, "invalid_amount", "amount must be a positive decimal")
		return
	}
	if req.Slippage < 0 || req.Slippage >= 100 {
		writeError(w, http.StatusBadRequest, "invalid_slippage", "slippage must be between 0 and 100 percent")
		return
	}
	if req.Slippage == 0 {
		req.Slippage = defaultSlippagePercent
	}
	if req.Deadline <= 0 {
		req.Deadline = defaultDeadlineSeconds
	}

	result := h.executor.ExecuteSwap(r.Context(), h.network,
		req.WalletAddress, req.TokenIn, req.TokenOut, req.Amount, req.Slippage, req.Deadline)

	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, result)
}
