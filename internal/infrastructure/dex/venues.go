package dex

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/movewise/aptos-swap-router/internal/domain/entities"
	"github.com/movewise/aptos-swap-router/internal/infrastructure/aptos"
)

// Venue router deployments. The quote function is a Move view function of
// the form get_amount_out(amount_in) with the coin types as type arguments.
var (
	liquidswapRouters = map[entities.Network]string{
		entities.Mainnet: "0x190d44266241744264b964a37b8f09863167a12d3e70cda39376cfb4e3561e12",
		entities.Testnet: "0x4e5e85fd647c7e19560590831616a3c021080265576af3182535a1d19e8bc2b3",
	}
	pancakeRouters = map[entities.Network]string{
		entities.Mainnet: "0xc7efb4076dbe143cbcd98cfaaa929ecfc8f299203dfff63b95ccb6bfe19850fa",
	}
	cellanaRouters = map[entities.Network]string{
		entities.Mainnet: "0x2ebb2ccf5e1e9b804dcdabd2973f16913cbee4ae827cbc9a2a1e36baf1a34b64",
	}
)

// routerClient quotes a venue through its on-chain router's view function.
// One parameterized type covers every venue; they differ only in module
// address, function path and fee schedule.
type routerClient struct {
	client        *aptos.Client
	venue         entities.Venue
	name          string
	routers       map[entities.Network]string
	quoteFn       string // module::function under the router address
	extraTypeArgs func(router string) []string
	feePct        float64
	gasEstimate   uint64
	url           string
}

// NewLiquidswapClient creates a client for the Liquidswap router.
func NewLiquidswapClient(client *aptos.Client) VenueClient {
	return &routerClient{
		client:  client,
		venue:   entities.VenueLiquidswap,
		name:    "Liquidswap",
		routers: liquidswapRouters,
		quoteFn: "router_v2::get_amount_out",
		extraTypeArgs: func(router string) []string {
			return []string{router + "::curves::Uncorrelated"}
		},
		feePct:      0.3,
		gasEstimate: 700,
		url:         "https://liquidswap.com",
	}
}

// NewPancakeSwapClient creates a client for the PancakeSwap Aptos router.
func NewPancakeSwapClient(client *aptos.Client) VenueClient {
	return &routerClient{
		client:      client,
		venue:       entities.VenuePancake,
		name:        "PancakeSwap",
		routers:     pancakeRouters,
		quoteFn:     "router::get_amount_out",
		feePct:      0.25,
		gasEstimate: 650,
		url:         "https://aptos.pancakeswap.finance",
	}
}

// NewCellanaClient creates a client for the Cellana router.
func NewCellanaClient(client *aptos.Client) VenueClient {
	return &routerClient{
		client:      client,
		venue:       entities.VenueCellana,
		name:        "Cellana",
		routers:     cellanaRouters,
		quoteFn:     "router::get_amount_out",
		feePct:      0.05,
		gasEstimate: 750,
		url:         "https://app.cellana.finance",
	}
}

func (c *routerClient) Venue() entities.Venue {
	return c.venue
}

// Quote asks the venue router for the output amount, plus a small probe
// trade used to derive price impact against the spot rate.
func (c *routerClient) Quote(ctx context.Context, net entities.Network, tokenIn, tokenOut entities.Token, amount decimal.Decimal) (*entities.VenueQuote, error) {
	router, ok := c.routers[net]
	if !ok {
		return nil, fmt.Errorf("%s is not deployed on %s: %w", c.name, net, entities.ErrNoQuote)
	}

	amountIn := amount.Shift(tokenIn.Decimals).Truncate(0)
	if !amountIn.IsPositive() {
		return nil, entities.ErrNoQuote
	}

	fn := router + "::" + c.quoteFn
	var typeArgs []string
	typeArgs = append(typeArgs, tokenIn.Address, tokenOut.Address)
	if c.extraTypeArgs != nil {
		typeArgs = append(typeArgs, c.extraTypeArgs(router)...)
	}

	out, err := c.client.ViewU64(ctx, fn, typeArgs, []any{amountIn.String()})
	if err != nil {
		return nil, fmt.Errorf("%s quote failed: %w", c.name, err)
	}
	if out == 0 {
		return nil, fmt.Errorf("%s has no liquidity for %s/%s: %w",
			c.name, tokenIn.Symbol, tokenOut.Symbol, entities.ErrNoQuote)
	}

	output := decimal.NewFromUint64(out).Shift(-tokenOut.Decimals)

	return &entities.VenueQuote{
		Venue:        c.venue,
		VenueName:    c.name,
		OutputAmount: output.String(),
		PriceImpact:  c.priceImpact(ctx, fn, typeArgs, tokenIn, tokenOut, amountIn, out),
		FeePct:       c.feePct,
		GasEstimate:  c.gasEstimate,
		VenueURL:     c.url,
	}, nil
}

// priceImpact compares the actual execution rate against the rate of a
// small probe trade scaled up. Probe failures degrade to zero impact
// rather than discarding the quote.
func (c *routerClient) priceImpact(ctx context.Context, fn string, typeArgs []string, tokenIn, tokenOut entities.Token, amountIn decimal.Decimal, actualOut uint64) float64 {
	// 0.001 of the input token, floored at one smallest unit.
	probe := decimal.New(1, tokenIn.Decimals-3).Truncate(0)
	if !probe.IsPositive() {
		probe = decimal.New(1, 0)
	}
	if probe.GreaterThanOrEqual(amountIn) {
		return 0
	}

	probeOut, err := c.client.ViewU64(ctx, fn, typeArgs, []any{probe.String()})
	if err != nil || probeOut == 0 {
		return 0
	}

	// spot = probeOut scaled to the full input size
	spot := decimal.NewFromUint64(probeOut).Mul(amountIn).Div(probe)
	if !spot.IsPositive() {
		return 0
	}
	actual := decimal.NewFromUint64(actualOut)
	if actual.GreaterThanOrEqual(spot) {
		return 0
	}

	impact, _ := spot.Sub(actual).Div(spot).Mul(decimal.New(100, 0)).Float64()
	return impact
}
