package aptos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Client wraps the Aptos fullnode REST API. It is shared between the venue
// clients; all quoting goes through the node's view-function endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	log        zerolog.Logger
}

// NewClient creates a new fullnode client for the given base URL
// (e.g. https://fullnode.mainnet.aptoslabs.com/v1).
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		log:        log.With().Str("component", "aptos").Logger(),
	}
}

type viewRequest struct {
	Function      string   `json:"function"`
	TypeArguments []string `json:"type_arguments"`
	Arguments     []any    `json:"arguments"`
}

// View executes a Move view function and returns its raw return values.
func (c *Client) View(ctx context.Context, function string, typeArgs []string, args []any) ([]json.RawMessage, error) {
	if typeArgs == nil {
		typeArgs = []string{}
	}
	if args == nil {
		args = []any{}
	}
	body, err := json.Marshal(viewRequest{
		Function:      function,
		TypeArguments: typeArgs,
		Arguments:     args,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode view request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/view", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("view call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("view call returned %d: %s", resp.StatusCode, msg)
	}

	var values []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&values); err != nil {
		return nil, fmt.Errorf("failed to decode view response: %w", err)
	}
	return values, nil
}

// ViewU64 executes a view function whose first return value is a u64
// (serialized as a JSON string by the node).
func (c *Client) ViewU64(ctx context.Context, function string, typeArgs []string, args []any) (uint64, error) {
	values, err := c.View(ctx, function, typeArgs, args)
	if err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, fmt.Errorf("view call %s returned no values", function)
	}
	var s string
	if err := json.Unmarshal(values[0], &s); err != nil {
		return 0, fmt.Errorf("unexpected view return shape: %w", err)
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("view return is not a u64: %w", err)
	}
	return n, nil
}

// LedgerInfo is the node's chain status summary.
type LedgerInfo struct {
	ChainID       int    `json:"chain_id"`
	LedgerVersion string `json:"ledger_version"`
	BlockHeight   string `json:"block_height"`
}

// LedgerInfo fetches the node's current ledger state.
func (c *Client) LedgerInfo(ctx context.Context) (*LedgerInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ledger info request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ledger info returned %d", resp.StatusCode)
	}

	var info LedgerInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode ledger info: %w", err)
	}
	return &info, nil
}

type gasEstimate struct {
	GasEstimate uint64 `json:"gas_estimate"`
}

// EstimateGasPrice returns the node's suggested gas unit price.
func (c *Client) EstimateGasPrice(ctx context.Context) (uint64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/estimate_gas_price", nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("gas estimate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("gas estimate returned %d", resp.StatusCode)
	}

	var est gasEstimate
	if err := json.NewDecoder(resp.Body).Decode(&est); err != nil {
		return 0, fmt.Errorf("failed to decode gas estimate: %w", err)
	}
	return est.GasEstimate, nil
}
