package executor

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SimulatedConfig configures the simulated settlement backend.
type SimulatedConfig struct {
	Latency     time.Duration // simulated settlement delay
	FailureRate float64       // probability a settlement attempt errors out
	Seed        int64         // 0 seeds from the clock
}

// Simulated is an executor that settles after a fixed delay and fabricates a
// transaction hash. The realized price is the agreed price passed through.
type Simulated struct {
	cfg    SimulatedConfig
	logger *zap.Logger
	nonce  atomic.Uint64

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// NewSimulated creates a simulated executor
func NewSimulated(cfg SimulatedConfig, logger *zap.Logger) *Simulated {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Simulated{
		cfg:    cfg,
		logger: logger,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Execute settles the swap after the configured delay.
func (s *Simulated) Execute(ctx context.Context, providerName, tokenIn, tokenOut string, amount, agreedPrice float64) (Settlement, error) {
	select {
	case <-time.After(s.cfg.Latency):
	case <-ctx.Done():
		return Settlement{}, fmt.Errorf("%w: settlement timed out: %v", ErrExecutionFailed, ctx.Err())
	}

	s.mu.Lock()
	failed := s.rng.Float64() < s.cfg.FailureRate
	s.mu.Unlock()

	if failed {
		return Settlement{}, fmt.Errorf("%w: %s rejected the settlement", ErrExecutionFailed, providerName)
	}

	txHash := s.newTxHash()

	s.logger.Info("Settled swap",
		zap.String("provider", providerName),
		zap.String("token_in", tokenIn),
		zap.String("token_out", tokenOut),
		zap.Float64("amount", amount),
		zap.Float64("price", agreedPrice),
		zap.String("tx_hash", txHash))

	return Settlement{
		TxHash:        txHash,
		ExecutedPrice: agreedPrice,
	}, nil
}

// newTxHash fabricates a unique transaction hash. A UUID plus a process-wide
// counter is hashed so two calls can never collide, even within one tick of
// the clock.
func (s *Simulated) newTxHash() string {
	id := uuid.New()
	var buf [24]byte
	copy(buf[:16], id[:])
	binary.BigEndian.PutUint64(buf[16:], s.nonce.Add(1))
	return crypto.Keccak256Hash(buf[:]).Hex()
}
