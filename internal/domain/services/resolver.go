package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/movewise/aptos-swap-router/internal/domain/entities"
	"github.com/movewise/aptos-swap-router/internal/infrastructure/aggregator"
	"github.com/movewise/aptos-swap-router/internal/observability"
)

// defaultGasEstimate is used when no collaborator supplied a figure.
const defaultGasEstimate = 700

// syntheticWarning is attached to price-ratio estimates so the UI can flag
// the trust level.
const syntheticWarning = "estimated from market prices, not a live liquidity quote; actual execution may vary"

// AggregatorClient is the aggregator collaborator seen by the resolver.
type AggregatorClient interface {
	Quote(ctx context.Context, fromAddress, toAddress, amount string) ([]aggregator.Quote, error)
}

// VenueQuoter is the DEX quote collaborator seen by the resolver.
type VenueQuoter interface {
	AllQuotes(ctx context.Context, net entities.Network, tokenIn, tokenOut entities.Token, amount decimal.Decimal) []entities.VenueQuote
	BestQuote(ctx context.Context, net entities.Network, tokenIn, tokenOut entities.Token, amount decimal.Decimal) *entities.VenueQuote
}

// PriceSource is the price oracle collaborator seen by the resolver. Price
// never fails; it degrades to fallback constants internally.
type PriceSource interface {
	Price(ctx context.Context, token entities.Token) float64
}

// Resolver produces the single best swap route for a pair, degrading
// through an ordered fallback chain: aggregator direct quote, multi-hop
// through APT, multi-hop through a stablecoin, synthetic price-ratio
// estimate. It always returns a usable route; the only error it surfaces
// is a token configuration error.
type Resolver struct {
	tokens     *entities.Registry
	aggregator AggregatorClient
	dex        VenueQuoter
	prices     PriceSource
	log        zerolog.Logger
	metrics    *observability.Metrics
}

// NewResolver creates a route resolver over its three client collaborators.
func NewResolver(tokens *entities.Registry, agg AggregatorClient, dex VenueQuoter, prices PriceSource, log zerolog.Logger, metrics *observability.Metrics) *Resolver {
	return &Resolver{
		tokens:     tokens,
		aggregator: agg,
		dex:        dex,
		prices:     prices,
		log:        log.With().Str("component", "resolver").Logger(),
		metrics:    metrics,
	}
}

// BestRoute resolves the best route for converting amount of tokenIn into
// tokenOut on the given network.
func (r *Resolver) BestRoute(ctx context.Context, net entities.Network, tokenInSymbol, tokenOutSymbol, amount string) (*entities.SwapRoute, error) {
	started := time.Now()
	defer func() {
		if r.metrics != nil {
			r.metrics.ResolutionLatency.Observe(time.Since(started).Seconds())
		}
	}()

	tokenIn, err := r.tokens.Get(net, tokenInSymbol)
	if err != nil {
		r.countError()
		return nil, err
	}
	tokenOut, err := r.tokens.Get(net, tokenOutSymbol)
	if err != nil {
		r.countError()
		return nil, err
	}

	amountIn, err := decimal.NewFromString(amount)
	if err != nil || !amountIn.IsPositive() {
		r.countError()
		return nil, fmt.Errorf("invalid swap amount %q", amount)
	}

	// Tier 1: direct aggregator quote. The aggregator ranks its quotes
	// best-first; the first one with a usable output wins.
	if route := r.aggregatorRoute(ctx, tokenIn, tokenOut, amountIn); route != nil {
		r.countTier("aggregator")
		return route, nil
	}

	// Direct venue quotes for the pair don't form a tier of their own,
	// but any the venues produced ride along as display alternatives on
	// whichever fallback route wins.
	alternatives := r.directAlternatives(ctx, net, tokenIn, tokenOut, amountIn)

	// Tier 2: two hops through the native token, unless an endpoint
	// already is the native token.
	if tokenIn.Symbol != entities.NativeSymbol && tokenOut.Symbol != entities.NativeSymbol {
		if native, nerr := r.tokens.Get(net, entities.NativeSymbol); nerr == nil {
			if route := r.twoHopRoute(ctx, net, tokenIn, tokenOut, native, amountIn); route != nil {
				route.Alternatives = alternatives
				r.countTier("multihop")
				return route, nil
			}
		}
	}

	// Tier 3: two hops through each stablecoin in preference order,
	// skipping any that is itself an endpoint.
	for _, stable := range r.tokens.Stables(net) {
		if stable.Symbol == tokenIn.Symbol || stable.Symbol == tokenOut.Symbol {
			continue
		}
		if route := r.twoHopRoute(ctx, net, tokenIn, tokenOut, stable, amountIn); route != nil {
			route.Alternatives = alternatives
			r.countTier("multihop")
			return route, nil
		}
	}

	// Tier 4: synthetic price-ratio estimate. Never fails.
	r.countTier("synthetic")
	route := r.syntheticRoute(ctx, tokenIn, tokenOut, amountIn)
	route.Alternatives = alternatives
	return route, nil
}

// directAlternatives collects every usable direct venue quote for the pair,
// with outputs normalized to the fixed serialization precision.
func (r *Resolver) directAlternatives(ctx context.Context, net entities.Network, tokenIn, tokenOut entities.Token, amountIn decimal.Decimal) []entities.VenueQuote {
	quotes := r.dex.AllQuotes(ctx, net, tokenIn, tokenOut, amountIn)
	for i := range quotes {
		if out, ok := quotes[i].Output(); ok {
			quotes[i].OutputAmount = entities.FormatAmount(out)
		}
	}
	return quotes
}

// aggregatorRoute builds a route from the aggregator's top-ranked quote,
// or returns nil when the aggregator had nothing usable.
func (r *Resolver) aggregatorRoute(ctx context.Context, tokenIn, tokenOut entities.Token, amountIn decimal.Decimal) *entities.SwapRoute {
	quotes, err := r.aggregator.Quote(ctx, tokenIn.Address, tokenOut.Address, amountIn.String())
	if err != nil {
		r.log.Debug().Err(err).
			Str("pair", tokenIn.Symbol+"/"+tokenOut.Symbol).
			Msg("aggregator unavailable, falling back")
		return nil
	}

	for i := range quotes {
		output, perr := decimal.NewFromString(quotes[i].ToTokenAmount)
		if perr != nil || !output.IsPositive() {
			continue
		}

		best := quotes[i]
		protocol := best.Route.Dex
		if protocol == "" {
			protocol = "Panora"
		}

		route := &entities.SwapRoute{
			TokenIn:        tokenIn,
			TokenOut:       tokenOut,
			Amount:         amountIn.String(),
			ExpectedOutput: entities.FormatAmount(output),
			Protocol:       protocol,
			PriceImpact:    parsePercent(best.PriceImpact),
			GasEstimate:    defaultGasEstimate,
			Hops: []entities.Hop{{
				Venue:    protocol,
				TokenIn:  tokenIn.Symbol,
				TokenOut: tokenOut.Symbol,
			}},
			RawPayload: best.TxData,
		}

		// Remaining ranked quotes are kept for display.
		for _, alt := range quotes[i+1:] {
			altOut, aerr := decimal.NewFromString(alt.ToTokenAmount)
			if aerr != nil || !altOut.IsPositive() {
				continue
			}
			route.Alternatives = append(route.Alternatives, entities.VenueQuote{
				Venue:        entities.VenuePanora,
				VenueName:    alt.Route.Dex,
				OutputAmount: entities.FormatAmount(altOut),
				PriceImpact:  parsePercent(alt.PriceImpact),
			})
		}

		r.log.Info().
			Str("pair", tokenIn.Symbol+"/"+tokenOut.Symbol).
			Str("protocol", protocol).
			Str("output", route.ExpectedOutput).
			Msg("resolved direct aggregator route")
		return route
	}
	return nil
}

// twoHopRoute attempts tokenIn→bridge then bridge→tokenOut as two
// independent best-quote lookups. Both hops must succeed; the second hop
// is quoted on the first hop's output amount.
func (r *Resolver) twoHopRoute(ctx context.Context, net entities.Network, tokenIn, tokenOut, bridge entities.Token, amountIn decimal.Decimal) *entities.SwapRoute {
	hop1 := r.dex.BestQuote(ctx, net, tokenIn, bridge, amountIn)
	if hop1 == nil {
		return nil
	}
	bridgeAmount, ok := hop1.Output()
	if !ok {
		return nil
	}

	hop2 := r.dex.BestQuote(ctx, net, bridge, tokenOut, bridgeAmount)
	if hop2 == nil {
		return nil
	}
	output, ok := hop2.Output()
	if !ok {
		return nil
	}

	route := &entities.SwapRoute{
		TokenIn:        tokenIn,
		TokenOut:       tokenOut,
		Amount:         amountIn.String(),
		ExpectedOutput: entities.FormatAmount(output),
		Protocol:       hop1.VenueName + " → " + hop2.VenueName,
		// Simple addition across hops, no compounding correction.
		PriceImpact: hop1.PriceImpact + hop2.PriceImpact,
		GasEstimate: hop1.GasEstimate + hop2.GasEstimate,
		Hops: []entities.Hop{
			{Venue: hop1.VenueName, TokenIn: tokenIn.Symbol, TokenOut: bridge.Symbol, FeePct: hop1.FeePct},
			{Venue: hop2.VenueName, TokenIn: bridge.Symbol, TokenOut: tokenOut.Symbol, FeePct: hop2.FeePct},
		},
		IsMultiHop: true,
	}

	r.log.Info().
		Str("pair", tokenIn.Symbol+"/"+tokenOut.Symbol).
		Str("bridge", bridge.Symbol).
		Str("protocol", route.Protocol).
		Str("output", route.ExpectedOutput).
		Msg("resolved multi-hop route")
	return route
}

// syntheticRoute estimates output from the USD price ratio. The oracle's
// own fallback constants guarantee both prices are defined, so this tier
// cannot fail.
func (r *Resolver) syntheticRoute(ctx context.Context, tokenIn, tokenOut entities.Token, amountIn decimal.Decimal) *entities.SwapRoute {
	priceIn := r.prices.Price(ctx, tokenIn)
	priceOut := r.prices.Price(ctx, tokenOut)
	if priceOut <= 0 {
		priceOut = 1
	}

	output := amountIn.
		Mul(decimal.NewFromFloat(priceIn)).
		Div(decimal.NewFromFloat(priceOut))

	r.log.Warn().
		Str("pair", tokenIn.Symbol+"/"+tokenOut.Symbol).
		Float64("priceIn", priceIn).
		Float64("priceOut", priceOut).
		Msg("no liquidity route found, returning synthetic estimate")

	return &entities.SwapRoute{
		TokenIn:        tokenIn,
		TokenOut:       tokenOut,
		Amount:         amountIn.String(),
		ExpectedOutput: entities.FormatAmount(output),
		Protocol:       "Market Price Estimate",
		GasEstimate:    defaultGasEstimate,
		Synthetic:      true,
		Warning:        syntheticWarning,
	}
}

func (r *Resolver) countTier(tier string) {
	if r.metrics != nil {
		r.metrics.RouteResolutions.WithLabelValues(tier).Inc()
	}
}

func (r *Resolver) countError() {
	if r.metrics != nil {
		r.metrics.ResolutionErrors.Inc()
	}
}

func parsePercent(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
