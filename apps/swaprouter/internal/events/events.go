package events

import (
	"time"
)

// OrderUpdate is the wire-level notification emitted once per order state
// transition. Optional fields are present only when relevant to the
// transition being announced.
type OrderUpdate struct {
	OrderID       string    `json:"orderId"`
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	ExecutedPrice *float64  `json:"executedPrice,omitempty"`
	TxHash        string    `json:"txHash,omitempty"`
	Error         string    `json:"error,omitempty"`
	Message       string    `json:"message,omitempty"`
}
