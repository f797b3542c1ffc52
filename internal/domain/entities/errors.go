package entities

import (
	"errors"
	"fmt"
)

// ConfigurationError means the requested token/network combination has no
// address mapping. It cannot be worked around and is the only error kind
// that route resolution surfaces to its caller.
type ConfigurationError struct {
	Symbol  string
	Network Network
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("token %q is not configured for network %q", e.Symbol, e.Network)
}

// IsConfigurationError reports whether err carries a *ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// ErrNoQuote marks a venue or aggregator call that produced no usable quote.
// It is always recovered locally: a failed venue is simply absent from the
// candidate set for the current resolution attempt.
var ErrNoQuote = errors.New("no usable quote")
