package router

import (
	"errors"
	"math"
)

// ErrSlippageExceeded is returned when a price deviates beyond an order's
// tolerance.
var ErrSlippageExceeded = errors.New("slippage tolerance exceeded")

// ValidateSlippage reports whether executedPrice is within tolerance of
// expectedPrice. Tolerance is a fraction: 0.01 allows a 1% deviation, 0
// allows only an exact match. A zero expected price cannot be validated
// meaningfully and always fails.
func ValidateSlippage(expectedPrice, executedPrice, tolerance float64) bool {
	if expectedPrice == 0 {
		return false
	}
	if tolerance < 0 {
		return false
	}

	deviation := math.Abs(expectedPrice-executedPrice) / math.Abs(expectedPrice)
	return deviation <= tolerance
}
