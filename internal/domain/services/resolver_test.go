package services

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movewise/aptos-swap-router/internal/domain/entities"
	"github.com/movewise/aptos-swap-router/internal/infrastructure/aggregator"
)

// mockAggregator is a scripted AggregatorClient.
type mockAggregator struct {
	quotes []aggregator.Quote
	err    error
	calls  int
}

func (m *mockAggregator) Quote(ctx context.Context, from, to, amount string) ([]aggregator.Quote, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.quotes, nil
}

// mockDex is a scripted VenueQuoter keyed by tokenIn/tokenOut symbols.
type mockDex struct {
	quotes map[string]*entities.VenueQuote
	direct map[string][]entities.VenueQuote
	inputs map[string]decimal.Decimal
	calls  int
}

func newMockDex() *mockDex {
	return &mockDex{
		quotes: make(map[string]*entities.VenueQuote),
		direct: make(map[string][]entities.VenueQuote),
		inputs: make(map[string]decimal.Decimal),
	}
}

func pairKey(in, out string) string { return in + "/" + out }

func (m *mockDex) set(in, out string, q *entities.VenueQuote) {
	m.quotes[pairKey(in, out)] = q
}

func (m *mockDex) setAll(in, out string, quotes []entities.VenueQuote) {
	m.direct[pairKey(in, out)] = quotes
}

func (m *mockDex) BestQuote(ctx context.Context, net entities.Network, tokenIn, tokenOut entities.Token, amount decimal.Decimal) *entities.VenueQuote {
	m.calls++
	key := pairKey(tokenIn.Symbol, tokenOut.Symbol)
	m.inputs[key] = amount
	return m.quotes[key]
}

func (m *mockDex) AllQuotes(ctx context.Context, net entities.Network, tokenIn, tokenOut entities.Token, amount decimal.Decimal) []entities.VenueQuote {
	key := pairKey(tokenIn.Symbol, tokenOut.Symbol)
	if quotes, ok := m.direct[key]; ok {
		m.calls++
		m.inputs[key] = amount
		return quotes
	}
	if q := m.BestQuote(ctx, net, tokenIn, tokenOut, amount); q != nil {
		return []entities.VenueQuote{*q}
	}
	return nil
}

// mockPrices is a scripted PriceSource.
type mockPrices struct {
	prices map[string]float64
	calls  int
}

func (m *mockPrices) Price(ctx context.Context, token entities.Token) float64 {
	m.calls++
	if p, ok := m.prices[token.Symbol]; ok {
		return p
	}
	return 1.0
}

func newTestResolver(agg *mockAggregator, dex *mockDex, prices *mockPrices) *Resolver {
	return NewResolver(entities.NewRegistry(), agg, dex, prices, zerolog.Nop(), nil)
}

func TestBestRouteDirectAggregatorQuote(t *testing.T) {
	agg := &mockAggregator{quotes: []aggregator.Quote{
		{ToTokenAmount: "67.5", PriceImpact: "0.3"},
	}}
	dex := newMockDex()
	prices := &mockPrices{prices: map[string]float64{}}
	r := newTestResolver(agg, dex, prices)

	route, err := r.BestRoute(context.Background(), entities.Mainnet, "APT", "USDC", "10")
	require.NoError(t, err)
	require.NotNil(t, route)

	assert.Equal(t, "67.500000", route.ExpectedOutput)
	assert.InDelta(t, 0.3, route.PriceImpact, 1e-9)
	assert.Equal(t, "Panora", route.Protocol)
	assert.False(t, route.IsMultiHop)
	assert.False(t, route.Synthetic)

	// Lower tiers must not have been consulted.
	assert.Equal(t, 1, agg.calls)
	assert.Zero(t, dex.calls)
	assert.Zero(t, prices.calls)
}

func TestBestRouteAggregatorRouteNamesVenue(t *testing.T) {
	agg := &mockAggregator{quotes: []aggregator.Quote{
		{ToTokenAmount: "12.25", PriceImpact: "0.1", Route: aggregator.RouteInfo{Dex: "Liquidswap"}},
		{ToTokenAmount: "12.10", PriceImpact: "0.2", Route: aggregator.RouteInfo{Dex: "Cellana"}},
	}}
	r := newTestResolver(agg, newMockDex(), &mockPrices{})

	route, err := r.BestRoute(context.Background(), entities.Mainnet, "APT", "USDC", "3")
	require.NoError(t, err)

	assert.Equal(t, "Liquidswap", route.Protocol)
	require.Len(t, route.Alternatives, 1)
	assert.Equal(t, "Cellana", route.Alternatives[0].VenueName)
	assert.Equal(t, "12.100000", route.Alternatives[0].OutputAmount)
}

func TestBestRouteSkipsUnusableAggregatorQuotes(t *testing.T) {
	agg := &mockAggregator{quotes: []aggregator.Quote{
		{ToTokenAmount: "0", PriceImpact: "0"},
		{ToTokenAmount: "not-a-number"},
		{ToTokenAmount: "5.5", PriceImpact: "0.2", Route: aggregator.RouteInfo{Dex: "Cellana"}},
	}}
	r := newTestResolver(agg, newMockDex(), &mockPrices{})

	route, err := r.BestRoute(context.Background(), entities.Mainnet, "APT", "USDC", "1")
	require.NoError(t, err)

	assert.Equal(t, "5.500000", route.ExpectedOutput)
	assert.Equal(t, "Cellana", route.Protocol)
}

func TestBestRouteMultiHopViaNative(t *testing.T) {
	agg := &mockAggregator{err: errors.New("aggregator down")}
	dex := newMockDex()
	dex.set("CAKE", "APT", &entities.VenueQuote{
		Venue: entities.VenueLiquidswap, VenueName: "Liquidswap",
		OutputAmount: "100", PriceImpact: 0.5, GasEstimate: 700, FeePct: 0.3,
	})
	dex.set("APT", "WETH", &entities.VenueQuote{
		Venue: entities.VenuePancake, VenueName: "PancakeSwap",
		OutputAmount: "0.25", PriceImpact: 0.4, GasEstimate: 650, FeePct: 0.25,
	})
	r := newTestResolver(agg, dex, &mockPrices{})

	route, err := r.BestRoute(context.Background(), entities.Mainnet, "CAKE", "WETH", "250")
	require.NoError(t, err)

	assert.Equal(t, "0.250000", route.ExpectedOutput)
	assert.True(t, route.IsMultiHop)
	assert.False(t, route.Synthetic)
	assert.InDelta(t, 0.9, route.PriceImpact, 1e-9)
	assert.Equal(t, uint64(1350), route.GasEstimate)
	assert.Equal(t, "Liquidswap → PancakeSwap", route.Protocol)

	require.Len(t, route.Hops, 2)
	assert.Equal(t, "CAKE", route.Hops[0].TokenIn)
	assert.Equal(t, "APT", route.Hops[0].TokenOut)
	assert.Equal(t, "APT", route.Hops[1].TokenIn)
	assert.Equal(t, "WETH", route.Hops[1].TokenOut)

	// Second hop must be quoted on the first hop's output.
	assert.True(t, dex.inputs[pairKey("APT", "WETH")].Equal(decimal.RequireFromString("100")))
}

func TestBestRouteMultiHopAttachesDirectVenueAlternatives(t *testing.T) {
	agg := &mockAggregator{err: errors.New("aggregator down")}
	dex := newMockDex()
	dex.set("CAKE", "APT", &entities.VenueQuote{
		VenueName: "Liquidswap", OutputAmount: "100", PriceImpact: 0.5, GasEstimate: 700,
	})
	dex.set("APT", "WETH", &entities.VenueQuote{
		VenueName: "PancakeSwap", OutputAmount: "0.25", PriceImpact: 0.4, GasEstimate: 650,
	})
	dex.setAll("CAKE", "WETH", []entities.VenueQuote{
		{Venue: entities.VenueLiquidswap, VenueName: "Liquidswap", OutputAmount: "0.24", PriceImpact: 0.6},
		{Venue: entities.VenueCellana, VenueName: "Cellana", OutputAmount: "0.238", PriceImpact: 0.7},
	})
	r := newTestResolver(agg, dex, &mockPrices{})

	route, err := r.BestRoute(context.Background(), entities.Mainnet, "CAKE", "WETH", "250")
	require.NoError(t, err)

	assert.True(t, route.IsMultiHop)
	assert.Equal(t, "0.250000", route.ExpectedOutput)

	// The venues' direct quotes ride along for display, normalized to the
	// fixed output precision.
	require.Len(t, route.Alternatives, 2)
	assert.Equal(t, "Liquidswap", route.Alternatives[0].VenueName)
	assert.Equal(t, "0.240000", route.Alternatives[0].OutputAmount)
	assert.Equal(t, "Cellana", route.Alternatives[1].VenueName)
	assert.Equal(t, "0.238000", route.Alternatives[1].OutputAmount)

	// Direct quotes are requested on the full input amount.
	assert.True(t, dex.inputs[pairKey("CAKE", "WETH")].Equal(decimal.RequireFromString("250")))
}

func TestBestRouteSyntheticAttachesDirectVenueAlternatives(t *testing.T) {
	// No bridge pools at all, but one venue still has a thin direct pool:
	// the synthetic estimate wins yet keeps the live quote for display.
	agg := &mockAggregator{err: errors.New("aggregator down")}
	dex := newMockDex()
	dex.setAll("CAKE", "WETH", []entities.VenueQuote{
		{Venue: entities.VenueCellana, VenueName: "Cellana", OutputAmount: "0.2", PriceImpact: 4.1},
	})
	r := newTestResolver(agg, dex, &mockPrices{})

	route, err := r.BestRoute(context.Background(), entities.Mainnet, "CAKE", "WETH", "250")
	require.NoError(t, err)

	assert.True(t, route.Synthetic)
	require.Len(t, route.Alternatives, 1)
	assert.Equal(t, "Cellana", route.Alternatives[0].VenueName)
}

func TestBestRouteNativePairSkipsNativeBridge(t *testing.T) {
	// APT is an endpoint, so the native bridge is skipped and the stable
	// bridge is tried directly.
	agg := &mockAggregator{}
	dex := newMockDex()
	dex.set("APT", "USDC", &entities.VenueQuote{
		VenueName: "Liquidswap", OutputAmount: "67", PriceImpact: 0.2, GasEstimate: 700,
	})
	dex.set("USDC", "CAKE", &entities.VenueQuote{
		VenueName: "Cellana", OutputAmount: "26.8", PriceImpact: 0.3, GasEstimate: 750,
	})
	r := newTestResolver(agg, dex, &mockPrices{})

	route, err := r.BestRoute(context.Background(), entities.Mainnet, "APT", "CAKE", "10")
	require.NoError(t, err)

	assert.True(t, route.IsMultiHop)
	assert.Equal(t, "Liquidswap → Cellana", route.Protocol)
	assert.Equal(t, "26.800000", route.ExpectedOutput)
}

func TestBestRouteStableBridgeSkipsEndpointStable(t *testing.T) {
	// USDC is the input, so the stable loop must move on to USDT.
	agg := &mockAggregator{}
	dex := newMockDex()
	dex.set("USDC", "USDT", &entities.VenueQuote{
		VenueName: "Liquidswap", OutputAmount: "9.99", PriceImpact: 0.1, GasEstimate: 700,
	})
	dex.set("USDT", "CAKE", &entities.VenueQuote{
		VenueName: "PancakeSwap", OutputAmount: "3.9", PriceImpact: 0.2, GasEstimate: 650,
	})
	r := newTestResolver(agg, dex, &mockPrices{})

	route, err := r.BestRoute(context.Background(), entities.Mainnet, "USDC", "CAKE", "10")
	require.NoError(t, err)

	assert.True(t, route.IsMultiHop)
	assert.Equal(t, "Liquidswap → PancakeSwap", route.Protocol)
	require.Len(t, route.Hops, 2)
	assert.Equal(t, "USDT", route.Hops[0].TokenOut)
}

func TestBestRouteSyntheticFallback(t *testing.T) {
	agg := &mockAggregator{err: errors.New("aggregator down")}
	dex := newMockDex() // every hop lookup returns nil
	prices := &mockPrices{prices: map[string]float64{"APT": 4.2, "USDC": 1.05}}
	r := newTestResolver(agg, dex, prices)

	route, err := r.BestRoute(context.Background(), entities.Mainnet, "APT", "USDC", "10")
	require.NoError(t, err)
	require.NotNil(t, route)

	// 10 * 4.2 / 1.05 = 40
	assert.Equal(t, "40.000000", route.ExpectedOutput)
	assert.True(t, route.Synthetic)
	assert.NotEmpty(t, route.Warning)
	assert.False(t, route.IsMultiHop)
}

func TestBestRouteGracefulDegradation(t *testing.T) {
	// Every external dependency fails; the resolver must still produce a
	// route and never an error.
	agg := &mockAggregator{err: errors.New("network unreachable")}
	dex := newMockDex()
	prices := &mockPrices{} // falls back to the 1.0 default for everything
	r := newTestResolver(agg, dex, prices)

	route, err := r.BestRoute(context.Background(), entities.Mainnet, "CAKE", "WETH", "7")
	require.NoError(t, err)
	require.NotNil(t, route)

	assert.True(t, route.Synthetic)
	assert.NotEmpty(t, route.Warning)
	assert.Equal(t, "7.000000", route.ExpectedOutput)
}

func TestBestRouteUnknownTokenIsConfigurationError(t *testing.T) {
	r := newTestResolver(&mockAggregator{}, newMockDex(), &mockPrices{})

	_, err := r.BestRoute(context.Background(), entities.Mainnet, "DOGE", "USDC", "1")
	require.Error(t, err)
	assert.True(t, entities.IsConfigurationError(err))

	// CAKE is mainnet-only; on testnet it must also be a config error.
	_, err = r.BestRoute(context.Background(), entities.Testnet, "CAKE", "USDC", "1")
	require.Error(t, err)
	assert.True(t, entities.IsConfigurationError(err))
}

func TestBestRouteRejectsInvalidAmount(t *testing.T) {
	r := newTestResolver(&mockAggregator{}, newMockDex(), &mockPrices{})

	for _, amount := range []string{"", "abc", "-5", "0"} {
		_, err := r.BestRoute(context.Background(), entities.Mainnet, "APT", "USDC", amount)
		assert.Error(t, err, "amount %q", amount)
	}
}
