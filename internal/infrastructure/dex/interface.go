package dex

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/movewise/aptos-swap-router/internal/domain/entities"
)

// VenueClient defines the interface for quoting a single liquidity venue.
type VenueClient interface {
	// Quote returns the venue's quote for swapping amount (human units) of
	// tokenIn into tokenOut, or an error when the venue has no pool for the
	// pair or the call failed. Errors never abort the overall fan-out.
	Quote(ctx context.Context, net entities.Network, tokenIn, tokenOut entities.Token, amount decimal.Decimal) (*entities.VenueQuote, error)

	// Venue returns the venue identifier.
	Venue() entities.Venue
}
