package queue

import (
	"time"
)

const maxBackoff = 60 * time.Second

// CalculateBackoff returns the exponential backoff duration for a given
// attempt count: baseDelay * 2^attempt, capped at maxBackoff. Attempt 0 is
// the first retry.
func CalculateBackoff(baseDelay time.Duration, attempt int) time.Duration {
	if attempt < 0 {
		return baseDelay
	}

	// 2^30 seconds already exceeds any sane cap, avoid shift overflow.
	if attempt > 30 {
		return maxBackoff
	}

	backoff := baseDelay * time.Duration(1<<attempt)
	if backoff > maxBackoff {
		return maxBackoff
	}

	return backoff
}
