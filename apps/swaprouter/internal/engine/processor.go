package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"swaprouter/apps/swaprouter/internal/events"
	"swaprouter/apps/swaprouter/internal/executor"
	"swaprouter/apps/swaprouter/internal/model"
	"swaprouter/apps/swaprouter/internal/notifier"
	"swaprouter/apps/swaprouter/internal/router"
)

// ErrOrderNotFound is returned when a processing attempt references an order
// that does not exist.
var ErrOrderNotFound = errors.New("order not found")

// Store is the persistence surface the processor needs. Each transition's
// write completes before the matching notification is published, so an
// observer never sees a status that is not yet durably recorded.
type Store interface {
	GetOrderByID(orderID string) (*model.Order, error)
	UpdateOrder(order model.Order) error
	AppendLog(orderID, status, message string) error
}

// OutboxStore receives a durable copy of every transition event for
// asynchronous publishing. May be nil when no broker is configured.
type OutboxStore interface {
	StoreEvent(orderID, status string, eventBlob json.RawMessage) error
}

// Processor drives one order through its lifecycle:
// pending -> routing -> building -> submitted -> confirmed, or failed from
// whichever state raised an error. Exactly one log entry and one
// notification is emitted per transition.
type Processor struct {
	store    Store
	outbox   OutboxStore
	router   *router.Router
	executor executor.Executor
	hub      *notifier.Hub
	logger   *zap.Logger
	now      func() time.Time
}

// NewProcessor creates an order processor
func NewProcessor(store Store, outbox OutboxStore, rt *router.Router, exec executor.Executor, hub *notifier.Hub, logger *zap.Logger) *Processor {
	return &Processor{
		store:    store,
		outbox:   outbox,
		router:   rt,
		executor: exec,
		hub:      hub,
		logger:   logger,
		now:      time.Now,
	}
}

// Process runs one processing attempt for the order. Domain failures
// (routing, slippage, execution) are absorbed: the order is marked failed
// and nil is returned. Only infrastructural failures, such as the store
// being unreachable, are returned to the caller so the queue can retry.
func (p *Processor) Process(ctx context.Context, orderID string) error {
	order, err := p.store.GetOrderByID(orderID)
	if err != nil {
		return fmt.Errorf("failed to load order %s: %w", orderID, err)
	}
	if order == nil {
		return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}

	if order.IsTerminal() {
		// At-least-once delivery can hand us an already-finished order.
		p.logger.Info("Skipping terminal order",
			zap.String("order_id", orderID),
			zap.String("status", order.Status))
		return nil
	}

	// routing
	if err := p.advance(order, model.StatusRouting, "comparing providers", nil); err != nil {
		return err
	}

	winner, runnerUp, err := p.router.QuoteBest(ctx, order.TokenIn, order.TokenOut, order.Amount)
	if err != nil {
		return p.fail(order, err)
	}

	p.logger.Info("Routed order",
		zap.String("order_id", order.OrderID),
		zap.String("winner", winner.Provider),
		zap.Float64("winner_price", winner.Price),
		zap.String("runner_up", runnerUp.Provider),
		zap.Float64("runner_up_price", runnerUp.Price))

	// building
	selected := winner.Provider
	order.Provider = &selected
	buildMsg := fmt.Sprintf("building settlement for %s at price %.6f", winner.Provider, winner.Price)
	if err := p.advance(order, model.StatusBuilding, buildMsg, nil); err != nil {
		return err
	}

	// TODO: compare the executor's realized price against the quoted price
	// after settlement instead; checking the quote against itself can only
	// catch a negative tolerance.
	if !router.ValidateSlippage(winner.Price, winner.Price, order.Slippage) {
		return p.fail(order, fmt.Errorf("%w: tolerance %.4f at price %.6f", router.ErrSlippageExceeded, order.Slippage, winner.Price))
	}

	// submitted
	if err := p.advance(order, model.StatusSubmitted, "submitting to network", nil); err != nil {
		return err
	}

	settlement, err := p.executor.Execute(ctx, winner.Provider, order.TokenIn, order.TokenOut, order.Amount, winner.Price)
	if err != nil {
		return p.fail(order, err)
	}

	// confirmed
	order.ExecutedPrice = &settlement.ExecutedPrice
	order.TxHash = &settlement.TxHash
	confirmMsg := fmt.Sprintf("settled in tx %s", settlement.TxHash)
	extra := &events.OrderUpdate{
		ExecutedPrice: order.ExecutedPrice,
		TxHash:        settlement.TxHash,
	}
	if err := p.advance(order, model.StatusConfirmed, confirmMsg, extra); err != nil {
		return err
	}

	return nil
}

// advance moves the order to the next status and performs the full
// transition contract: persist, append one log entry, mirror the event to
// the outbox, publish one notification. Returns an error only when a
// persistence write fails.
func (p *Processor) advance(order *model.Order, status, message string, extra *events.OrderUpdate) error {
	order.Status = status
	order.UpdatedAt = p.now()

	if err := p.store.UpdateOrder(*order); err != nil {
		return fmt.Errorf("failed to persist %s transition for order %s: %w", status, order.OrderID, err)
	}
	if err := p.store.AppendLog(order.OrderID, status, message); err != nil {
		return fmt.Errorf("failed to log %s transition for order %s: %w", status, order.OrderID, err)
	}

	update := events.OrderUpdate{
		OrderID:   order.OrderID,
		Status:    status,
		Timestamp: order.UpdatedAt,
		Message:   message,
	}
	if extra != nil {
		update.ExecutedPrice = extra.ExecutedPrice
		update.TxHash = extra.TxHash
		update.Error = extra.Error
	}

	p.writeOutbox(update)
	p.hub.Publish(order.OrderID, update)

	return nil
}

// fail marks the order terminally failed with the cause's message. The
// domain error itself is absorbed; only persistence problems are returned.
func (p *Processor) fail(order *model.Order, cause error) error {
	msg := cause.Error()
	order.Error = &msg
	order.RetryCount++

	p.logger.Warn("Order failed",
		zap.String("order_id", order.OrderID),
		zap.Int("retry_count", order.RetryCount),
		zap.Error(cause))

	return p.advance(order, model.StatusFailed, msg, &events.OrderUpdate{Error: msg})
}

// writeOutbox is best-effort: a broken outbox must not break the pipeline,
// live subscribers still get their notification.
func (p *Processor) writeOutbox(update events.OrderUpdate) {
	if p.outbox == nil {
		return
	}

	blob, err := json.Marshal(update)
	if err != nil {
		p.logger.Error("Failed to marshal outbox event", zap.String("order_id", update.OrderID), zap.Error(err))
		return
	}
	if err := p.outbox.StoreEvent(update.OrderID, update.Status, blob); err != nil {
		p.logger.Error("Failed to store outbox event", zap.String("order_id", update.OrderID), zap.Error(err))
	}
}
