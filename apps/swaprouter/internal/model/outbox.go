package model

import (
	"encoding/json"
	"time"
)

// OutboxEvent is a pending order-transition event waiting to be published to
// Kafka. Rows start in status 'unsent' and are flipped to 'sent' once the
// broker acknowledges delivery.
type OutboxEvent struct {
	ID        int64           `db:"id"`
	OrderID   string          `db:"order_id"`
	Status    string          `db:"status"`
	SendState string          `db:"send_state"`
	EventBlob json.RawMessage `db:"event_blob"`
	CreatedAt time.Time       `db:"created_at"`
}
