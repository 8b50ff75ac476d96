package model

import (
	"time"
)

// Order statuses. Transitions only ever move forward through this sequence,
// except that any non-terminal status may jump to StatusFailed.
const (
	StatusPending   = "pending"
	StatusRouting   = "routing"
	StatusBuilding  = "building"
	StatusSubmitted = "submitted"
	StatusConfirmed = "confirmed"
	StatusFailed    = "failed"
)

type Order struct {
	OrderID       string    `db:"order_id"`
	TokenIn       string    `db:"token_in"`
	TokenOut      string    `db:"token_out"`
	Amount        float64   `db:"amount"`
	Slippage      float64   `db:"slippage"`
	Status        string    `db:"status"`
	Provider      *string   `db:"provider"`       // nullable until routed
	ExecutedPrice *float64  `db:"executed_price"` // nullable until executed
	TxHash        *string   `db:"tx_hash"`        // nullable until executed
	Error         *string   `db:"error"`          // nullable unless failed
	RetryCount    int       `db:"retry_count"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// IsTerminal reports whether no further processing may happen for the order.
func (o *Order) IsTerminal() bool {
	return o.Status == StatusConfirmed || o.Status == StatusFailed
}

// StatusRank maps a status to its position in the success path. StatusFailed
// ranks above everything so the forward-only invariant covers it too.
func StatusRank(status string) int {
	switch status {
	case StatusPending:
		return 0
	case StatusRouting:
		return 1
	case StatusBuilding:
		return 2
	case StatusSubmitted:
		return 3
	case StatusConfirmed:
		return 4
	case StatusFailed:
		return 5
	default:
		return -1
	}
}
