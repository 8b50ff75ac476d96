package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"swaprouter/apps/swaprouter/internal/model"
)

type OutboxRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewOutboxRepository(db *sql.DB, logger *zap.Logger) *OutboxRepository {
	return &OutboxRepository{db: db, logger: logger}
}

func (r *OutboxRepository) StoreEvent(orderID, status string, eventBlob json.RawMessage) error {
	_, err := r.db.Exec(`
		INSERT INTO event_outbox (order_id, status, send_state, event_blob)
		VALUES ($1, $2, 'unsent', $3)
	`, orderID, status, eventBlob)

	if err != nil {
		return fmt.Errorf("failed to store outbox event: %w", err)
	}

	return nil
}

func (r *OutboxRepository) GetUnsentEventsForProcessing(limit int) ([]model.OutboxEvent, error) {
	// Use a transaction to ensure atomicity
	tx, err := r.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() // Will be ignored if tx.Commit() succeeds

	// Select and lock unsent events for processing
	rows, err := tx.Query(`
		SELECT id, order_id, status, send_state, event_blob, created_at
		FROM event_outbox
		WHERE send_state = 'unsent'
		ORDER BY created_at, id
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.OutboxEvent
	for rows.Next() {
		var event model.OutboxEvent
		if err := rows.Scan(&event.ID, &event.OrderID, &event.Status, &event.SendState, &event.EventBlob, &event.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	rows.Close()

	// Mark selected events as 'processing' to prevent other threads from picking them up
	for _, event := range events {
		_, err = tx.Exec(`
			UPDATE event_outbox
			SET send_state = 'processing'
			WHERE id = $1 AND send_state = 'unsent'
		`, event.ID)
		if err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return events, nil
}

func (r *OutboxRepository) MarkEventAsSent(id int64) error {
	_, err := r.db.Exec(`
		UPDATE event_outbox
		SET send_state = 'sent'
		WHERE id = $1
	`, id)
	return err
}

func (r *OutboxRepository) MarkEventAsFailed(id int64) error {
	_, err := r.db.Exec(`
		UPDATE event_outbox
		SET send_state = 'unsent'
		WHERE id = $1 AND send_state = 'processing'
	`, id)
	return err
}
