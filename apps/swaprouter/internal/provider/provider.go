package provider

import (
	"context"
	"errors"
)

// ErrProviderUnavailable is returned when a provider cannot produce a quote,
// whether from a simulated outage or because the call timed out.
var ErrProviderUnavailable = errors.New("provider unavailable")

// Quote is a transient price quote for a trading pair. Quotes are consumed by
// the router immediately and never persisted.
type Quote struct {
	Provider string
	Price    float64
	Fee      float64
}

// QuoteProvider is a source of price quotes. Implementations must be safe for
// concurrent use from multiple orders.
type QuoteProvider interface {
	Name() string
	Quote(ctx context.Context, tokenIn, tokenOut string, amount float64) (Quote, error)
}
