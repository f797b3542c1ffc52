package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/movewise/aptos-swap-router/internal/domain/entities"
	"github.com/movewise/aptos-swap-router/internal/infrastructure/cache"
	"github.com/movewise/aptos-swap-router/internal/observability"
)

const (
	// PriceTTL is how long a fetched USD price stays fresh.
	PriceTTL = 5 * time.Minute
	// RateTTL is how long a derived exchange rate stays fresh.
	RateTTL = 1 * time.Minute
	// minCallInterval spaces outbound price API calls process-wide. The
	// public price API throttles aggressively, so stay just above 1 rps.
	minCallInterval = 1100 * time.Millisecond
)

// fallbackPrices are the hard-coded last-resort constants used when the
// price API fails and nothing is cached. Stables pin to 1.0; majors get a
// rough ballpark that keeps synthetic routes in a sane range.
var fallbackPrices = map[string]float64{
	"USDC": 1.0,
	"USDT": 1.0,
	"APT":  5.0,
	"WETH": 2400.0,
	"CAKE": 2.5,
	"THL":  0.5,
}

// defaultFallbackPrice is used for tokens with no configured constant.
const defaultFallbackPrice = 1.0

type lastKnown struct {
	price     float64
	fetchedAt time.Time
}

// Oracle fetches and caches token USD prices from an external price API.
// It is the single source of truth for fallback price-ratio computations
// and is designed so that Price never fails.
type Oracle struct {
	httpClient *http.Client
	baseURL    string
	cache      cache.Cache
	priceTTL   time.Duration
	interval   time.Duration
	log        zerolog.Logger
	metrics    *observability.Metrics

	mu          sync.Mutex
	last        map[string]lastKnown // stale values kept for degraded reads
	nextAllowed time.Time
}

// Option tunes oracle behavior.
type Option func(*Oracle)

// WithPriceTTL overrides the price freshness window.
func WithPriceTTL(ttl time.Duration) Option {
	return func(o *Oracle) { o.priceTTL = ttl }
}

// WithCallInterval overrides the outbound rate-limit spacing.
func WithCallInterval(d time.Duration) Option {
	return func(o *Oracle) { o.interval = d }
}

// NewOracle creates a price oracle backed by a CoinGecko-compatible
// /simple/price endpoint.
func NewOracle(baseURL string, c cache.Cache, log zerolog.Logger, metrics *observability.Metrics, opts ...Option) *Oracle {
	o := &Oracle{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		cache:      c,
		priceTTL:   PriceTTL,
		interval:   minCallInterval,
		log:        log.With().Str("component", "pricing").Logger(),
		metrics:    metrics,
		last:       make(map[string]lastKnown),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Price returns the token's USD price. It never fails: cache, then the
// external API, then a stale cached value, then a hard-coded constant.
func (o *Oracle) Price(ctx context.Context, token entities.Token) float64 {
	price, err := o.priceWithCache(ctx, token)
	if err == nil {
		return price
	}

	o.mu.Lock()
	stale, ok := o.last[token.Symbol]
	o.mu.Unlock()
	if ok {
		o.log.Warn().
			Str("token", token.Symbol).
			Dur("age", time.Since(stale.fetchedAt)).
			Msg("price API unavailable, serving stale price")
		return stale.price
	}

	if fb, ok := fallbackPrices[token.Symbol]; ok {
		o.log.Warn().Str("token", token.Symbol).Float64("fallback", fb).
			Msg("price unavailable, using fallback constant")
		return fb
	}
	o.log.Warn().Str("token", token.Symbol).
		Msg("price unavailable for unknown token, using default")
	return defaultFallbackPrice
}

// priceWithCache returns a fresh price from cache or the external API.
// Unlike Price it reports failure, for callers that need to distinguish a
// real quote from a fallback constant.
func (o *Oracle) priceWithCache(ctx context.Context, token entities.Token) (float64, error) {
	key := cache.PriceCacheKey(token.Symbol)
	if o.cache != nil {
		if cached, err := o.cache.GetPrice(ctx, key); err == nil && cached != "" {
			if price, perr := strconv.ParseFloat(cached, 64); perr == nil {
				if o.metrics != nil {
					o.metrics.PriceCacheHits.Inc()
				}
				return price, nil
			}
		}
	}
	if o.metrics != nil {
		o.metrics.PriceCacheMisses.Inc()
	}

	price, err := o.fetch(ctx, token)
	if err != nil {
		return 0, err
	}

	if o.cache != nil {
		_ = o.cache.SetPrice(ctx, key, strconv.FormatFloat(price, 'f', -1, 64), o.priceTTL)
	}
	o.mu.Lock()
	o.last[token.Symbol] = lastKnown{price: price, fetchedAt: time.Now()}
	o.mu.Unlock()

	return price, nil
}

// fetch calls the external price API, honoring the process-wide spacing
// between outbound calls. Losing a race between concurrent callers is
// acceptable: last write wins on the cache.
func (o *Oracle) fetch(ctx context.Context, token entities.Token) (float64, error) {
	if token.CoinGeckoID == "" {
		return 0, fmt.Errorf("token %s has no price API identifier", token.Symbol)
	}

	o.throttle()

	u := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd",
		o.baseURL, url.QueryEscape(token.CoinGeckoID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, err
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("price request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("price API returned %d", resp.StatusCode)
	}

	var body map[string]struct {
		USD float64 `json:"usd"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("failed to decode price response: %w", err)
	}

	entry, ok := body[token.CoinGeckoID]
	if !ok || entry.USD <= 0 {
		return 0, fmt.Errorf("price API returned no price for %s", token.CoinGeckoID)
	}
	return entry.USD, nil
}

// throttle enforces the timestamp-gated delay between outbound calls.
func (o *Oracle) throttle() {
	o.mu.Lock()
	now := time.Now()
	wait := o.nextAllowed.Sub(now)
	if wait < 0 {
		wait = 0
	}
	o.nextAllowed = now.Add(wait + o.interval)
	o.mu.Unlock()

	if wait > 0 {
		time.Sleep(wait)
	}
}

// Rate returns the tokenIn→tokenOut exchange rate derived from the two USD
// prices, cached for the shorter rate TTL. Like Price, it never fails.
func (o *Oracle) Rate(ctx context.Context, tokenIn, tokenOut entities.Token) float64 {
	key := cache.RateCacheKey(tokenIn.Symbol, tokenOut.Symbol)
	if o.cache != nil {
		if cached, err := o.cache.GetRate(ctx, key); err == nil && cached != "" {
			if rate, perr := strconv.ParseFloat(cached, 64); perr == nil {
				return rate
			}
		}
	}

	in := o.Price(ctx, tokenIn)
	out := o.Price(ctx, tokenOut)
	if out == 0 {
		out = defaultFallbackPrice
	}
	rate := in / out

	if o.cache != nil {
		_ = o.cache.SetRate(ctx, key, strconv.FormatFloat(rate, 'f', -1, 64), RateTTL)
	}
	return rate
}
