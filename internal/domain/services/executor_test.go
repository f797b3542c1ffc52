package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movewise/aptos-swap-router/internal/domain/entities"
)

// mockRouteSource returns a scripted route or error.
type mockRouteSource struct {
	route *entities.SwapRoute
	err   error
	calls int
}

func (m *mockRouteSource) BestRoute(ctx context.Context, net entities.Network, tokenIn, tokenOut, amount string) (*entities.SwapRoute, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.route, nil
}

func mustToken(t *testing.T, net entities.Network, symbol string) entities.Token {
	t.Helper()
	tok, err := entities.NewRegistry().Get(net, symbol)
	require.NoError(t, err)
	return tok
}

func directRoute(t *testing.T, net entities.Network) *entities.SwapRoute {
	return &entities.SwapRoute{
		TokenIn:        mustToken(t, net, "APT"),
		TokenOut:       mustToken(t, net, "USDC"),
		Amount:         "10",
		ExpectedOutput: "67.500000",
		Protocol:       "Liquidswap",
	}
}

func TestExecuteSwapPassesThroughAggregatorPayload(t *testing.T) {
	raw := json.RawMessage(`{"type":"entry_function_payload","function":"0xabc::router::swap","arguments":["1","2"]}`)
	route := directRoute(t, entities.Mainnet)
	route.RawPayload = raw
	source := &mockRouteSource{route: route}
	e := NewExecutor(source, zerolog.Nop(), nil)

	result := e.ExecuteSwap(context.Background(), entities.Mainnet,
		"0xwallet", "APT", "USDC", "10", 0.5, 1800)

	require.True(t, result.Success)
	assert.Empty(t, result.Error)
	// The aggregator payload must come back byte-for-byte untouched.
	assert.Equal(t, []byte(raw), []byte(result.Payload))
}

func TestExecuteSwapBuildsMainnetRouterPayload(t *testing.T) {
	source := &mockRouteSource{route: directRoute(t, entities.Mainnet)}
	e := NewExecutor(source, zerolog.Nop(), nil)

	result := e.ExecuteSwap(context.Background(), entities.Mainnet,
		"0xwallet", "APT", "USDC", "10", 0.5, 1800)

	require.True(t, result.Success)
	require.NotEmpty(t, result.Payload)

	var payload entities.TransactionPayload
	require.NoError(t, json.Unmarshal(result.Payload, &payload))

	assert.Equal(t, "entry_function_payload", payload.Type)
	assert.Equal(t,
		"0x190d44266241744264b964a37b8f09863167a12d3e70cda39376cfb4e3561e12::router::swap_exact_input",
		payload.Function)
	require.Len(t, payload.TypeArguments, 2)
	assert.Equal(t, "0x1::aptos_coin::AptosCoin", payload.TypeArguments[0])

	require.Len(t, payload.Arguments, 2)
	// 10 APT at 8 decimals
	assert.Equal(t, "1000000000", payload.Arguments[0])
	// 67.5 USDC * (100-0.5)% = 67.1625, at 6 decimals
	assert.Equal(t, "67162500", payload.Arguments[1])
}

func TestExecuteSwapTestnetUsesNominalMinimum(t *testing.T) {
	source := &mockRouteSource{route: directRoute(t, entities.Testnet)}
	e := NewExecutor(source, zerolog.Nop(), nil)

	result := e.ExecuteSwap(context.Background(), entities.Testnet,
		"0xwallet", "APT", "USDC", "10", 5, 1800)

	require.True(t, result.Success)

	var payload entities.TransactionPayload
	require.NoError(t, json.Unmarshal(result.Payload, &payload))
	require.Len(t, payload.Arguments, 2)
	assert.Equal(t, "1", payload.Arguments[1])
}

func TestExecuteSwapAlwaysReResolves(t *testing.T) {
	source := &mockRouteSource{route: directRoute(t, entities.Mainnet)}
	e := NewExecutor(source, zerolog.Nop(), nil)

	_ = e.ExecuteSwap(context.Background(), entities.Mainnet, "0xw", "APT", "USDC", "10", 0.5, 60)
	_ = e.ExecuteSwap(context.Background(), entities.Mainnet, "0xw", "APT", "USDC", "10", 0.5, 60)

	assert.Equal(t, 2, source.calls)
}

func TestExecuteSwapResolutionFailureReturnsResult(t *testing.T) {
	source := &mockRouteSource{err: errors.New("token \"DOGE\" is not configured")}
	e := NewExecutor(source, zerolog.Nop(), nil)

	result := e.ExecuteSwap(context.Background(), entities.Mainnet,
		"0xwallet", "DOGE", "USDC", "10", 0.5, 1800)

	require.False(t, result.Success)
	assert.Contains(t, result.Error, "no route found")
	assert.Empty(t, result.Payload)
}

func TestExecuteSwapBuildErrorReturnsResult(t *testing.T) {
	route := directRoute(t, entities.Mainnet)
	route.ExpectedOutput = "not-a-number"
	source := &mockRouteSource{route: route}
	e := NewExecutor(source, zerolog.Nop(), nil)

	result := e.ExecuteSwap(context.Background(), entities.Mainnet,
		"0xwallet", "APT", "USDC", "10", 0.5, 1800)

	require.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
}

func TestExecuteSwapRejectsOutOfRangeSlippage(t *testing.T) {
	source := &mockRouteSource{route: directRoute(t, entities.Mainnet)}
	e := NewExecutor(source, zerolog.Nop(), nil)

	result := e.ExecuteSwap(context.Background(), entities.Mainnet,
		"0xwallet", "APT", "USDC", "10", 100, 1800)

	require.False(t, result.Success)
	assert.Contains(t, result.Error, "slippage")
}
