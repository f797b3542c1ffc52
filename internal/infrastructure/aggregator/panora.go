// Package aggregator wraps the Panora swap aggregator quote API. The
// aggregator queries venues itself and returns ranked quotes, optionally
// with a pre-built transaction.
package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// RouteInfo names the venue path the aggregator chose.
type RouteInfo struct {
	Dex  string   `json:"dex"`
	Path []string `json:"path"`
}

// Quote is one ranked aggregator quote. TxData is an opaque executable
// payload which, when present, must be carried through to the wallet
// untouched.
type Quote struct {
	ToTokenAmount string          `json:"toTokenAmount"`
	PriceImpact   string          `json:"priceImpact"`
	FeeAmount     string          `json:"feeAmount"`
	Route         RouteInfo       `json:"route"`
	TxData        json.RawMessage `json:"txData,omitempty"`
}

type quoteResponse struct {
	Quotes []Quote `json:"quotes"`
}

// Client calls the aggregator's HTTP quote endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	log        zerolog.Logger
}

// NewClient creates an aggregator client. The API key is sent on every
// request as an x-api-key header.
func NewClient(baseURL, apiKey string, log zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		log:        log.With().Str("component", "aggregator").Logger(),
	}
}

// Quote asks for ranked quotes, best first. Any failure (network error,
// non-2xx status, malformed body) is returned as an error; callers treat
// it the same as an empty result and degrade to the next routing tier.
func (c *Client) Quote(ctx context.Context, fromAddress, toAddress, amount string) ([]Quote, error) {
	q := url.Values{}
	q.Set("fromTokenAddress", fromAddress)
	q.Set("toTokenAddress", toAddress)
	q.Set("fromTokenAmount", amount)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/swap/quote?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("aggregator request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("aggregator returned %d", resp.StatusCode)
	}

	var body quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		// Malformed responses fail closed: treated as no quotes.
		return nil, fmt.Errorf("failed to decode aggregator response: %w", err)
	}

	c.log.Debug().
		Str("from", fromAddress).
		Str("to", toAddress).
		Int("quotes", len(body.Quotes)).
		Msg("aggregator quote")
	return body.Quotes, nil
}
