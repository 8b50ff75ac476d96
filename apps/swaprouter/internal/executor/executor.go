package executor

import (
	"context"
	"errors"
)

// ErrExecutionFailed is returned when a settlement attempt fails.
var ErrExecutionFailed = errors.New("execution failed")

// Settlement is the result of one executed swap. TxHash is unique per call.
type Settlement struct {
	TxHash        string
	ExecutedPrice float64
}

// Executor settles a swap against the selected provider at an agreed price.
// Implementations must be safe for concurrent use.
type Executor interface {
	Execute(ctx context.Context, providerName, tokenIn, tokenOut string, amount, agreedPrice float64) (Settlement, error)
}
