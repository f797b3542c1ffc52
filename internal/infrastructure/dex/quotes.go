package dex

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/movewise/aptos-swap-router/internal/domain/entities"
	"github.com/movewise/aptos-swap-router/internal/observability"
)

// QuoteService fans a quote request out to every configured venue and
// merges the results.
type QuoteService struct {
	venues  []VenueClient
	tokens  *entities.Registry
	log     zerolog.Logger
	metrics *observability.Metrics
}

// NewQuoteService creates a quote service over the given venue clients.
func NewQuoteService(venues []VenueClient, tokens *entities.Registry, log zerolog.Logger, metrics *observability.Metrics) *QuoteService {
	return &QuoteService{
		venues:  venues,
		tokens:  tokens,
		log:     log.With().Str("component", "dex").Logger(),
		metrics: metrics,
	}
}

// TokenAddress is a pure lookup against the static token table.
func (s *QuoteService) TokenAddress(net entities.Network, symbol string) (string, error) {
	return s.tokens.Address(net, symbol)
}

// AllQuotes queries every venue concurrently. A venue error yields no
// entry for that venue; it never aborts the overall operation. Result
// order follows the configured venue order.
func (s *QuoteService) AllQuotes(ctx context.Context, net entities.Network, tokenIn, tokenOut entities.Token, amount decimal.Decimal) []entities.VenueQuote {
	results := make([]*entities.VenueQuote, len(s.venues))
	var wg sync.WaitGroup

	for i, venue := range s.venues {
		wg.Add(1)
		go func(idx int, v VenueClient) {
			defer wg.Done()

			quote, err := v.Quote(ctx, net, tokenIn, tokenOut, amount)
			if err != nil {
				s.log.Debug().
					Str("venue", string(v.Venue())).
					Str("pair", tokenIn.Symbol+"/"+tokenOut.Symbol).
					Err(err).
					Msg("venue quote unavailable")
				if s.metrics != nil {
					s.metrics.VenueErrors.WithLabelValues(string(v.Venue())).Inc()
				}
				return
			}
			if s.metrics != nil {
				s.metrics.VenueQuotes.Inc()
			}
			results[idx] = quote
		}(i, venue)
	}

	wg.Wait()

	quotes := make([]entities.VenueQuote, 0, len(results))
	for _, q := range results {
		if q == nil {
			continue
		}
		if _, ok := q.Output(); !ok {
			continue
		}
		quotes = append(quotes, *q)
	}
	return quotes
}

// BestQuote returns the quote with the highest output amount, or nil when
// no venue produced a usable quote. Ties keep the earlier venue.
func (s *QuoteService) BestQuote(ctx context.Context, net entities.Network, tokenIn, tokenOut entities.Token, amount decimal.Decimal) *entities.VenueQuote {
	quotes := s.AllQuotes(ctx, net, tokenIn, tokenOut, amount)

	var best *entities.VenueQuote
	var bestOut decimal.Decimal
	for i := range quotes {
		out, ok := quotes[i].Output()
		if !ok {
			continue
		}
		if best == nil || out.GreaterThan(bestOut) {
			best = &quotes[i]
			bestOut = out
		}
	}
	return best
}
