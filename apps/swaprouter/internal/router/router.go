package router

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"swaprouter/apps/swaprouter/internal/provider"
)

// ErrRoutingFailed is returned when no winning quote could be obtained. A
// single provider failure fails the whole routing attempt; there is no
// partial routing.
var ErrRoutingFailed = errors.New("routing failed")

// Router fans a quote request out to every registered provider and picks the
// best answer. The provider slice order is the fixed priority used to break
// exact price ties, so selection is deterministic.
type Router struct {
	providers []provider.QuoteProvider
	timeout   time.Duration
	logger    *zap.Logger
}

// New creates a router over the given providers. At least two providers are
// required so a runner-up always exists.
func New(providers []provider.QuoteProvider, timeout time.Duration, logger *zap.Logger) (*Router, error) {
	if len(providers) < 2 {
		return nil, fmt.Errorf("router requires at least two providers, got %d", len(providers))
	}

	return &Router{
		providers: providers,
		timeout:   timeout,
		logger:    logger,
	}, nil
}

// QuoteBest queries all providers in parallel, waits for every one of them,
// and returns the winning quote plus the best remaining alternative. The
// winner is the strictly higher price; on an exact tie the provider
// registered earlier wins.
func (r *Router) QuoteBest(ctx context.Context, tokenIn, tokenOut string, amount float64) (provider.Quote, provider.Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	quotes := make([]provider.Quote, len(r.providers))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range r.providers {
		i, p := i, p
		g.Go(func() error {
			quote, err := p.Quote(gctx, tokenIn, tokenOut, amount)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrRoutingFailed, err)
			}
			quotes[i] = quote
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		r.logger.Warn("Routing attempt failed",
			zap.String("token_in", tokenIn),
			zap.String("token_out", tokenOut),
			zap.Error(err))
		return provider.Quote{}, provider.Quote{}, err
	}

	winner := 0
	for i := 1; i < len(quotes); i++ {
		if quotes[i].Price > quotes[winner].Price {
			winner = i
		}
	}

	runnerUp := -1
	for i := range quotes {
		if i == winner {
			continue
		}
		if runnerUp == -1 || quotes[i].Price > quotes[runnerUp].Price {
			runnerUp = i
		}
	}

	r.logger.Info("Selected best quote",
		zap.String("token_in", tokenIn),
		zap.String("token_out", tokenOut),
		zap.String("winner", quotes[winner].Provider),
		zap.Float64("winner_price", quotes[winner].Price),
		zap.String("runner_up", quotes[runnerUp].Provider),
		zap.Float64("runner_up_price", quotes[runnerUp].Price))

	return quotes[winner], quotes[runnerUp], nil
}
