package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/movewise/aptos-swap-router/internal/domain/entities"
	"github.com/movewise/aptos-swap-router/internal/observability"
)

// fallbackRouters are the router contracts used when the aggregator did
// not supply a pre-built transaction.
var fallbackRouters = map[entities.Network]string{
	entities.Mainnet: "0x190d44266241744264b964a37b8f09863167a12d3e70cda39376cfb4e3561e12",
	entities.Testnet: "0x4e5e85fd647c7e19560590831616a3c021080265576af3182535a1d19e8bc2b3",
}

// testnetMinOutput is the nominal minimum-output floor used on testnet,
// where pool liquidity is too thin for a slippage-derived floor to clear.
const testnetMinOutput = "1"

// RouteSource resolves routes for the executor. Routes are always
// re-resolved at execution time; a caller-supplied route may carry stale
// pricing.
type RouteSource interface {
	BestRoute(ctx context.Context, net entities.Network, tokenIn, tokenOut, amount string) (*entities.SwapRoute, error)
}

// Executor turns a resolved route into a submittable transaction payload.
// It never signs or submits anything; the payload goes back to the caller
// for an external wallet to handle.
type Executor struct {
	routes  RouteSource
	log     zerolog.Logger
	metrics *observability.Metrics
}

// NewExecutor creates a swap executor over the given route source.
func NewExecutor(routes RouteSource, log zerolog.Logger, metrics *observability.Metrics) *Executor {
	return &Executor{
		routes:  routes,
		log:     log.With().Str("component", "executor").Logger(),
		metrics: metrics,
	}
}

// ExecuteSwap resolves a fresh route and builds its transaction payload.
// All failures come back in the result object, never as an error.
func (e *Executor) ExecuteSwap(ctx context.Context, net entities.Network, walletAddress, tokenIn, tokenOut, amount string, slippagePercent float64, deadlineSeconds int64) (result *entities.SwapResult) {
	defer func() {
		if rec := recover(); rec != nil {
			e.log.Error().Any("panic", rec).Msg("payload construction panicked")
			result = e.failure(fmt.Sprintf("failed to build swap payload: %v", rec))
		}
	}()

	route, err := e.routes.BestRoute(ctx, net, tokenIn, tokenOut, amount)
	if err != nil {
		// Configuration errors are the only kind that reach this point;
		// present them as a friendly no-route answer.
		e.log.Warn().Err(err).
			Str("pair", tokenIn+"/"+tokenOut).
			Msg("swap aborted, no route")
		return e.failure(fmt.Sprintf("no route found for %s → %s: %v", tokenIn, tokenOut, err))
	}

	// When the aggregator pre-built the transaction, pass it through
	// untouched.
	if len(route.RawPayload) > 0 {
		if e.metrics != nil {
			e.metrics.SwapsBuilt.Inc()
		}
		e.log.Info().
			Str("wallet", walletAddress).
			Str("protocol", route.Protocol).
			Msg("returning aggregator-built payload")
		return &entities.SwapResult{Success: true, Payload: route.RawPayload}
	}

	payload, err := buildEntryFunctionPayload(net, route, slippagePercent)
	if err != nil {
		if e.metrics != nil {
			e.metrics.SwapsFailed.Inc()
		}
		return e.failure(err.Error())
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		if e.metrics != nil {
			e.metrics.SwapsFailed.Inc()
		}
		return e.failure(fmt.Sprintf("failed to encode payload: %v", err))
	}

	if e.metrics != nil {
		e.metrics.SwapsBuilt.Inc()
	}
	e.log.Info().
		Str("wallet", walletAddress).
		Str("function", payload.Function).
		Int64("deadline", deadlineSeconds).
		Msg("built router payload")
	return &entities.SwapResult{Success: true, Payload: raw}
}

// buildEntryFunctionPayload hand-builds the fixed-shape entry-function
// call for the known router contract on the active network.
func buildEntryFunctionPayload(net entities.Network, route *entities.SwapRoute, slippagePercent float64) (*entities.TransactionPayload, error) {
	router, ok := fallbackRouters[net]
	if !ok {
		return nil, fmt.Errorf("no router contract configured for network %q", net)
	}

	amountIn, err := decimal.NewFromString(route.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid route amount %q: %w", route.Amount, err)
	}
	amountSmallest := amountIn.Shift(route.TokenIn.Decimals).Truncate(0)
	if !amountSmallest.IsPositive() {
		return nil, fmt.Errorf("amount %s is below one smallest unit of %s", route.Amount, route.TokenIn.Symbol)
	}

	minOutput, err := minOutputAmount(net, route, slippagePercent)
	if err != nil {
		return nil, err
	}

	return &entities.TransactionPayload{
		Type:          "entry_function_payload",
		Function:      router + "::router::swap_exact_input",
		TypeArguments: []string{route.TokenIn.Address, route.TokenOut.Address},
		Arguments:     []string{amountSmallest.String(), minOutput},
	}, nil
}

// minOutputAmount computes the slippage-adjusted floor on mainnet. Testnet
// uses a nominal floor so swaps clear in low-liquidity test pools.
func minOutputAmount(net entities.Network, route *entities.SwapRoute, slippagePercent float64) (string, error) {
	if net == entities.Testnet {
		return testnetMinOutput, nil
	}

	if slippagePercent < 0 || slippagePercent >= 100 {
		return "", fmt.Errorf("slippage %.2f%% out of range", slippagePercent)
	}

	expected, err := decimal.NewFromString(route.ExpectedOutput)
	if err != nil {
		return "", fmt.Errorf("invalid expected output %q: %w", route.ExpectedOutput, err)
	}

	minOut := expected.
		Mul(decimal.NewFromFloat(100 - slippagePercent)).
		Div(decimal.New(100, 0)).
		Shift(route.TokenOut.Decimals).
		Truncate(0)
	if minOut.IsNegative() {
		minOut = decimal.Zero
	}
	return minOut.String(), nil
}

func (e *Executor) failure(msg string) *entities.SwapResult {
	return &entities.SwapResult{Success: false, Error: msg}
}
