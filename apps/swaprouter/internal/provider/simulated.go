package provider

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
	"swaprouter/apps/swaprouter/internal/assets"
)

// SimulatedConfig configures one synthetic quote feed.
type SimulatedConfig struct {
	Name        string
	Fee         float64       // taker fee, in [0,1)
	Variance    float64       // max multiplicative deviation from the reference price
	Latency     time.Duration // simulated network round-trip
	FailureRate float64       // probability a quote request errors out
	Seed        int64         // 0 seeds from the clock
}

// Simulated is a quote provider backed by a synthetic price generator. Each
// call applies a random multiplicative variance to the pair's reference price,
// so repeated quotes wander around the mid like a real feed would.
type Simulated struct {
	cfg      SimulatedConfig
	registry *assets.AssetRegistry
	logger   *zap.Logger

	mu  sync.Mutex // guards rng, which is not safe for concurrent use
	rng *rand.Rand
}

// NewSimulated creates a simulated quote provider
func NewSimulated(cfg SimulatedConfig, registry *assets.AssetRegistry, logger *zap.Logger) *Simulated {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Simulated{
		cfg:      cfg,
		registry: registry,
		logger:   logger,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

func (s *Simulated) Name() string {
	return s.cfg.Name
}

// Quote returns a synthetic quote for the pair after the configured latency.
func (s *Simulated) Quote(ctx context.Context, tokenIn, tokenOut string, amount float64) (Quote, error) {
	pair, ok := s.registry.GetPair(tokenIn, tokenOut)
	if !ok {
		return Quote{}, fmt.Errorf("%w: %s does not quote %s/%s", ErrProviderUnavailable, s.cfg.Name, tokenIn, tokenOut)
	}

	select {
	case <-time.After(s.cfg.Latency):
	case <-ctx.Done():
		return Quote{}, fmt.Errorf("%w: %s timed out: %v", ErrProviderUnavailable, s.cfg.Name, ctx.Err())
	}

	s.mu.Lock()
	failed := s.rng.Float64() < s.cfg.FailureRate
	deviation := (s.rng.Float64()*2 - 1) * s.cfg.Variance
	s.mu.Unlock()

	if failed {
		return Quote{}, fmt.Errorf("%w: %s did not respond", ErrProviderUnavailable, s.cfg.Name)
	}

	price := pair.ReferencePrice * (1 + deviation)

	s.logger.Debug("Generated quote",
		zap.String("provider", s.cfg.Name),
		zap.String("token_in", tokenIn),
		zap.String("token_out", tokenOut),
		zap.Float64("amount", amount),
		zap.Float64("price", price))

	return Quote{
		Provider: s.cfg.Name,
		Price:    price,
		Fee:      s.cfg.Fee,
	}, nil
}
