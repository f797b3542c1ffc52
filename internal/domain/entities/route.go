package entities

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Venue identifies a liquidity source.
type Venue string

const (
	VenueLiquidswap Venue = "liquidswap"
	VenuePancake    Venue = "pancakeswap"
	VenueCellana    Venue = "cellana"
	VenuePanora     Venue = "panora"
)

// VenueQuote is the result of asking one liquidity venue for an exchange
// rate. Created per request, never mutated after creation.
type VenueQuote struct {
	Venue        Venue   `json:"venue"`
	VenueName    string  `json:"venueName"`
	OutputAmount string  `json:"outputAmount"` // decimal string, human units
	PriceImpact  float64 `json:"priceImpact"`  // percent
	FeePct       float64 `json:"fee"`          // percent
	GasEstimate  uint64  `json:"gasEstimate,omitempty"`
	VenueURL     string  `json:"venueUrl,omitempty"`
}

// Output parses the quote's output amount. A quote with an unparseable or
// non-positive amount is treated as unusable.
func (q *VenueQuote) Output() (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(q.OutputAmount)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}

// Hop is one leg of a route through an intermediate token.
type Hop struct {
	Venue    string  `json:"venue"`
	TokenIn  string  `json:"tokenIn"`
	TokenOut string  `json:"tokenOut"`
	FeePct   float64 `json:"fee"`
}

// SwapRoute is the resolved answer to "how do I best convert amount of
// tokenIn into tokenOut". Built fresh per request and never cached:
// prices and liquidity move.
type SwapRoute struct {
	TokenIn        Token           `json:"tokenIn"`
	TokenOut       Token           `json:"tokenOut"`
	Amount         string          `json:"amount"`
	ExpectedOutput string          `json:"expectedOutput"` // fixed 6 decimal places
	Protocol       string          `json:"protocol"`
	PriceImpact    float64         `json:"priceImpact"`
	GasEstimate    uint64          `json:"gasEstimate"`
	Hops           []Hop           `json:"hops,omitempty"`
	Alternatives   []VenueQuote    `json:"alternatives,omitempty"`
	RawPayload     json.RawMessage `json:"payload,omitempty"` // aggregator-built transaction, passed through untouched
	IsMultiHop     bool            `json:"isMultiHop,omitempty"`
	Synthetic      bool            `json:"synthetic,omitempty"`
	Warning        string          `json:"warning,omitempty"`
}

// TransactionPayload is the Aptos entry-function call shape a wallet signs
// and submits. The field layout must match the chain's expected format
// exactly for execution to succeed.
type TransactionPayload struct {
	Type          string   `json:"type"`
	Function      string   `json:"function"`
	TypeArguments []string `json:"type_arguments"`
	Arguments     []string `json:"arguments"`
}

// SwapResult is what the executor hands back to the caller. Failures are
// carried in Error, never raised.
type SwapResult struct {
	Success bool            `json:"success"`
	TxHash  string          `json:"txHash,omitempty"`
	Error   string          `json:"error,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// FormatAmount serializes an amount with exactly six decimal places, the
// fixed output precision at the API boundary.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(6)
}
