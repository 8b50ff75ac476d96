package repository

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	"swaprouter/apps/swaprouter/internal/model"
)

const orderColumns = `order_id, token_in, token_out, amount, slippage, status, provider, executed_price, tx_hash, error, retry_count, created_at, updated_at`

type OrderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewOrderRepository(db *sql.DB, logger *zap.Logger) *OrderRepository {
	return &OrderRepository{db: db, logger: logger}
}

func (r *OrderRepository) CreateOrder(order model.Order) error {
	_, err := r.db.Exec(`
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, order.OrderID, order.TokenIn, order.TokenOut, order.Amount, order.Slippage, order.Status,
		order.Provider, order.ExecutedPrice, order.TxHash, order.Error, order.RetryCount, order.CreatedAt, order.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Info("Created order",
		zap.String("order_id", order.OrderID),
		zap.String("token_in", order.TokenIn),
		zap.String("token_out", order.TokenOut),
		zap.Float64("amount", order.Amount),
		zap.String("status", order.Status))
	return nil
}

// UpdateOrder persists the mutable fields of an order. Identity and creation
// fields are never rewritten.
func (r *OrderRepository) UpdateOrder(order model.Order) error {
	_, err := r.db.Exec(`
		UPDATE orders
		SET status = $2, provider = $3, executed_price = $4, tx_hash = $5, error = $6, retry_count = $7, updated_at = $8
		WHERE order_id = $1
	`, order.OrderID, order.Status, order.Provider, order.ExecutedPrice, order.TxHash, order.Error, order.RetryCount, order.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}

	r.logger.Info("Updated order",
		zap.String("order_id", order.OrderID),
		zap.String("status", order.Status))
	return nil
}

func (r *OrderRepository) GetOrderByID(orderID string) (*model.Order, error) {
	var order model.Order
	err := r.db.QueryRow(`
		SELECT `+orderColumns+`
		FROM orders
		WHERE order_id = $1
	`, orderID).Scan(&order.OrderID, &order.TokenIn, &order.TokenOut, &order.Amount, &order.Slippage,
		&order.Status, &order.Provider, &order.ExecutedPrice, &order.TxHash, &order.Error,
		&order.RetryCount, &order.CreatedAt, &order.UpdatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get order by ID: %w", err)
	}

	return &order, nil
}

// ListRecent returns up to limit orders, newest first.
func (r *OrderRepository) ListRecent(limit int) ([]model.Order, error) {
	rows, err := r.db.Query(`
		SELECT `+orderColumns+`
		FROM orders
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var order model.Order
		if err := rows.Scan(&order.OrderID, &order.TokenIn, &order.TokenOut, &order.Amount, &order.Slippage,
			&order.Status, &order.Provider, &order.ExecutedPrice, &order.TxHash, &order.Error,
			&order.RetryCount, &order.CreatedAt, &order.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	return orders, rows.Err()
}

// AppendLog writes one append-only audit entry for an order transition.
func (r *OrderRepository) AppendLog(orderID, status, message string) error {
	_, err := r.db.Exec(`
		INSERT INTO order_logs (order_id, status, message)
		VALUES ($1, $2, $3)
	`, orderID, status, message)

	if err != nil {
		return fmt.Errorf("failed to append order log: %w", err)
	}

	return nil
}

// GetLogs returns the full audit history of an order, oldest first.
func (r *OrderRepository) GetLogs(orderID string) ([]model.OrderLog, error) {
	rows, err := r.db.Query(`
		SELECT id, order_id, status, message, created_at
		FROM order_logs
		WHERE order_id = $1
		ORDER BY created_at, id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order logs: %w", err)
	}
	defer rows.Close()

	var logs []model.OrderLog
	for rows.Next() {
		var entry model.OrderLog
		if err := rows.Scan(&entry.ID, &entry.OrderID, &entry.Status, &entry.Message, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order log: %w", err)
		}
		logs = append(logs, entry)
	}

	return logs, rows.Err()
}
