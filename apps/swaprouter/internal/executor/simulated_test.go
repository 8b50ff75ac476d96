package executor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestSimulatedExecute(t *testing.T) {
	t.Run("PassesThroughAgreedPrice", func(t *testing.T) {
		exec := NewSimulated(SimulatedConfig{Seed: 1}, zap.NewNop())

		settlement, err := exec.Execute(context.Background(), "jupiter", "SOL", "USDC", 1.5, 150.25)
		if err != nil {
			t.Fatalf("Execute failed: %v", err)
		}
		if settlement.ExecutedPrice != 150.25 {
			t.Errorf("Expected executed price 150.25, got %v", settlement.ExecutedPrice)
		}
		if !strings.HasPrefix(settlement.TxHash, "0x") || len(settlement.TxHash) != 66 {
			t.Errorf("Expected a 32-byte hex tx hash, got '%s'", settlement.TxHash)
		}
	})

	t.Run("TxHashesAreUnique", func(t *testing.T) {
		exec := NewSimulated(SimulatedConfig{Seed: 1}, zap.NewNop())

		const calls = 50
		var mu sync.Mutex
		seen := make(map[string]struct{}, calls)

		var wg sync.WaitGroup
		for i := 0; i < calls; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				settlement, err := exec.Execute(context.Background(), "jupiter", "SOL", "USDC", 1.0, 150.0)
				if err != nil {
					t.Errorf("Execute failed: %v", err)
					return
				}
				mu.Lock()
				seen[settlement.TxHash] = struct{}{}
				mu.Unlock()
			}()
		}
		wg.Wait()

		if len(seen) != calls {
			t.Errorf("Expected %d unique tx hashes, got %d", calls, len(seen))
		}
	})

	t.Run("AlwaysFailingBackend", func(t *testing.T) {
		exec := NewSimulated(SimulatedConfig{Seed: 1, FailureRate: 1.0}, zap.NewNop())

		_, err := exec.Execute(context.Background(), "jupiter", "SOL", "USDC", 1.0, 150.0)
		if !errors.Is(err, ErrExecutionFailed) {
			t.Errorf("Expected ErrExecutionFailed, got %v", err)
		}
	})

	t.Run("CancelledContextFails", func(t *testing.T) {
		exec := NewSimulated(SimulatedConfig{Seed: 1, Latency: time.Second}, zap.NewNop())

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err := exec.Execute(ctx, "jupiter", "SOL", "USDC", 1.0, 150.0)
		if !errors.Is(err, ErrExecutionFailed) {
			t.Errorf("Expected ErrExecutionFailed on timeout, got %v", err)
		}
	})
}
