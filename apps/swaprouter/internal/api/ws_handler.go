package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"swaprouter/apps/swaprouter/internal/events"
	"swaprouter/apps/swaprouter/internal/model"
	"swaprouter/apps/swaprouter/internal/notifier"
)

// WSHandler streams an order's lifecycle updates over a WebSocket. On attach
// the client receives a snapshot of the order's current state, then every
// transition as it is published, until the order finishes or the client
// disconnects.
type WSHandler struct {
	store    OrderStore
	hub      *notifier.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewWSHandler creates a new WSHandler
func NewWSHandler(store OrderStore, hub *notifier.Hub, logger *zap.Logger) *WSHandler {
	return &WSHandler{
		store:  store,
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// StreamOrder handles GET /api/orders/{order_id}/ws
func (h *WSHandler) StreamOrder(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	orderID := vars["order_id"]

	// Subscribe before reading the snapshot so no transition slips between
	// the snapshot and the live stream. A transition landing in that window
	// shows up in both, which the client tolerates; a lost one it would not.
	sub := h.hub.Subscribe(orderID)

	order, err := h.store.GetOrderByID(orderID)
	if err != nil {
		h.hub.Unsubscribe(orderID, sub)
		h.logger.Error("Failed to get order for stream", zap.String("order_id", orderID), zap.Error(err))
		writeErrorResponse(w, h.logger, http.StatusInternalServerError, "database_error", "Failed to retrieve order")
		return
	}
	if order == nil {
		h.hub.Unsubscribe(orderID, sub)
		writeErrorResponse(w, h.logger, http.StatusNotFound, "order_not_found", "Order not found")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.hub.Unsubscribe(orderID, sub)
		h.logger.Error("Failed to upgrade connection", zap.String("order_id", orderID), zap.Error(err))
		return
	}

	defer func() {
		h.hub.Unsubscribe(orderID, sub)
		conn.Close()
	}()

	if err := conn.WriteJSON(snapshotUpdate(order)); err != nil {
		h.logger.Warn("Failed to send order snapshot", zap.String("order_id", orderID), zap.Error(err))
		return
	}

	// Reader goroutine: its only job is to notice the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case update, ok := <-sub.Updates():
			if !ok {
				return
			}
			if err := conn.WriteJSON(update); err != nil {
				h.logger.Warn("Failed to deliver update", zap.String("order_id", orderID), zap.Error(err))
				return
			}
			if update.Status == model.StatusConfirmed || update.Status == model.StatusFailed {
				return
			}
		case <-done:
			return
		}
	}
}

// snapshotUpdate renders an order's current state in the notification wire
// shape, sent once on attach.
func snapshotUpdate(order *model.Order) events.OrderUpdate {
	update := events.OrderUpdate{
		OrderID:       order.OrderID,
		Status:        order.Status,
		Timestamp:     order.UpdatedAt,
		ExecutedPrice: order.ExecutedPrice,
		Message:       "snapshot",
	}
	if order.TxHash != nil {
		update.TxHash = *order.TxHash
	}
	if order.Error != nil {
		update.Error = *order.Error
	}
	return update
}
