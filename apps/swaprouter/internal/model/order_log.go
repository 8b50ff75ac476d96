package model

import (
	"time"
)

// OrderLog is an append-only audit record. One entry is written per state
// transition and entries are never mutated or deleted.
type OrderLog struct {
	ID        int64     `db:"id"`
	OrderID   string    `db:"order_id"`
	Status    string    `db:"status"`
	Message   string    `db:"message"`
	CreatedAt time.Time `db:"created_at"`
}
