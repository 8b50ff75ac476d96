package repository

import (
	"database/sql"
	"fmt"
)

// InitMigration initializes the database. In production, this would use a proper migration
// library like go-migrate
func InitMigration(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			order_id UUID PRIMARY KEY,
			token_in VARCHAR(20) NOT NULL,
			token_out VARCHAR(20) NOT NULL,
			amount DOUBLE PRECISION NOT NULL,
			slippage DOUBLE PRECISION NOT NULL,
			status VARCHAR(20) NOT NULL,
			provider VARCHAR(50),
			executed_price DOUBLE PRECISION,
			tx_hash VARCHAR(66),
			error TEXT,
			retry_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders (created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS order_logs (
			id BIGSERIAL PRIMARY KEY,
			order_id UUID NOT NULL,
			status VARCHAR(20) NOT NULL,
			message TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_order_logs_order_id ON order_logs (order_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS event_outbox (
			id BIGSERIAL PRIMARY KEY,
			order_id UUID NOT NULL,
			status VARCHAR(20) NOT NULL,
			send_state VARCHAR(20) NOT NULL DEFAULT 'unsent',
			event_blob JSONB NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_event_outbox_send_state ON event_outbox (send_state, created_at)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query %s: %w", query, err)
		}
	}

	return nil
}
