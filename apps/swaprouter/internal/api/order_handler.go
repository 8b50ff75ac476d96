package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"swaprouter/apps/swaprouter/internal/assets"
	"swaprouter/apps/swaprouter/internal/model"
	"swaprouter/apps/swaprouter/internal/queue"
)

const defaultListLimit = 20
const maxListLimit = 100

// OrderStore is the persistence surface the API reads orders from.
type OrderStore interface {
	CreateOrder(order model.Order) error
	GetOrderByID(orderID string) (*model.Order, error)
	ListRecent(limit int) ([]model.Order, error)
	GetLogs(orderID string) ([]model.OrderLog, error)
}

// Enqueuer admits an accepted order into the processing queue.
type Enqueuer interface {
	Enqueue(orderID string) error
}

// OrderHandler handles order-related API endpoints
type OrderHandler struct {
	store    OrderStore
	enqueuer Enqueuer
	registry *assets.AssetRegistry
	logger   *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(store OrderStore, enqueuer Enqueuer, registry *assets.AssetRegistry, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		store:    store,
		enqueuer: enqueuer,
		registry: registry,
		logger:   logger,
	}
}

// CreateOrder handles POST /api/orders
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, h.logger, http.StatusBadRequest, "invalid_request_body", "Invalid JSON in request body")
		return
	}

	tokenIn := strings.ToUpper(req.TokenIn)
	tokenOut := strings.ToUpper(req.TokenOut)

	if !h.registry.IsSupported(tokenIn) || !h.registry.IsSupported(tokenOut) {
		writeErrorResponse(w, h.logger, http.StatusBadRequest, "unsupported_asset",
			"Asset not supported. Supported assets: "+strings.Join(h.registry.GetSupportedSymbols(), ", "))
		return
	}

	if !h.registry.IsPairSupported(tokenIn, tokenOut) {
		writeErrorResponse(w, h.logger, http.StatusBadRequest, "unsupported_pair",
			"No provider quotes "+tokenIn+"/"+tokenOut)
		return
	}

	if req.Amount <= 0 {
		writeErrorResponse(w, h.logger, http.StatusBadRequest, "invalid_amount", "Amount must be positive")
		return
	}

	if req.Slippage < 0 || req.Slippage > 1 {
		writeErrorResponse(w, h.logger, http.StatusBadRequest, "invalid_slippage", "Slippage must be between 0 and 1")
		return
	}

	now := time.Now().UTC()
	order := model.Order{
		OrderID:   uuid.NewString(),
		TokenIn:   tokenIn,
		TokenOut:  tokenOut,
		Amount:    req.Amount,
		Slippage:  req.Slippage,
		Status:    model.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.store.CreateOrder(order); err != nil {
		h.logger.Error("Failed to create order", zap.Error(err))
		writeErrorResponse(w, h.logger, http.StatusInternalServerError, "database_error", "Failed to create order")
		return
	}

	if err := h.enqueuer.Enqueue(order.OrderID); err != nil {
		h.logger.Error("Failed to enqueue order", zap.String("order_id", order.OrderID), zap.Error(err))
		if errors.Is(err, queue.ErrQueueNotReady) || errors.Is(err, queue.ErrQueueFull) {
			writeErrorResponse(w, h.logger, http.StatusServiceUnavailable, "queue_unavailable", "Order accepted but processing is unavailable, retry later")
			return
		}
		writeErrorResponse(w, h.logger, http.StatusInternalServerError, "queue_error", "Failed to schedule order")
		return
	}

	h.logger.Info("Accepted order",
		zap.String("order_id", order.OrderID),
		zap.String("token_in", tokenIn),
		zap.String("token_out", tokenOut),
		zap.Float64("amount", req.Amount),
		zap.Float64("slippage", req.Slippage))

	writeJSONResponse(w, h.logger, http.StatusCreated, CreateOrderResponse{
		OrderID:  order.OrderID,
		Status:   order.Status,
		TokenIn:  order.TokenIn,
		TokenOut: order.TokenOut,
		Amount:   order.Amount,
	})
}

// GetOrder handles GET /api/orders/{order_id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	orderID := vars["order_id"]

	order, err := h.store.GetOrderByID(orderID)
	if err != nil {
		h.logger.Error("Failed to get order", zap.String("order_id", orderID), zap.Error(err))
		writeErrorResponse(w, h.logger, http.StatusInternalServerError, "database_error", "Failed to retrieve order")
		return
	}

	if order == nil {
		writeErrorResponse(w, h.logger, http.StatusNotFound, "order_not_found", "Order not found")
		return
	}

	writeJSONResponse(w, h.logger, http.StatusOK, toOrderResponse(order))
}

// ListOrders handles GET /api/orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeErrorResponse(w, h.logger, http.StatusBadRequest, "invalid_limit", "Limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	orders, err := h.store.ListRecent(limit)
	if err != nil {
		h.logger.Error("Failed to list orders", zap.Error(err))
		writeErrorResponse(w, h.logger, http.StatusInternalServerError, "database_error", "Failed to list orders")
		return
	}

	responses := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		responses = append(responses, toOrderResponse(&orders[i]))
	}

	writeJSONResponse(w, h.logger, http.StatusOK, responses)
}

// GetOrderLogs handles GET /api/orders/{order_id}/logs
func (h *OrderHandler) GetOrderLogs(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	orderID := vars["order_id"]

	order, err := h.store.GetOrderByID(orderID)
	if err != nil {
		h.logger.Error("Failed to get order", zap.String("order_id", orderID), zap.Error(err))
		writeErrorResponse(w, h.logger, http.StatusInternalServerError, "database_error", "Failed to retrieve order")
		return
	}
	if order == nil {
		writeErrorResponse(w, h.logger, http.StatusNotFound, "order_not_found", "Order not found")
		return
	}

	logs, err := h.store.GetLogs(orderID)
	if err != nil {
		h.logger.Error("Failed to get order logs", zap.String("order_id", orderID), zap.Error(err))
		writeErrorResponse(w, h.logger, http.StatusInternalServerError, "database_error", "Failed to retrieve order logs")
		return
	}

	responses := make([]OrderLogResponse, 0, len(logs))
	for _, entry := range logs {
		responses = append(responses, OrderLogResponse{
			Status:    entry.Status,
			Message:   entry.Message,
			Timestamp: entry.CreatedAt,
		})
	}

	writeJSONResponse(w, h.logger, http.StatusOK, responses)
}

func toOrderResponse(order *model.Order) OrderResponse {
	return OrderResponse{
		OrderID:       order.OrderID,
		TokenIn:       order.TokenIn,
		TokenOut:      order.TokenOut,
		Amount:        order.Amount,
		Slippage:      order.Slippage,
		Status:        order.Status,
		Provider:      order.Provider,
		ExecutedPrice: order.ExecutedPrice,
		TxHash:        order.TxHash,
		Error:         order.Error,
		RetryCount:    order.RetryCount,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}
}
