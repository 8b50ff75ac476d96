package api

import (
	"time"
)

// CreateOrderRequest is the request body for creating a swap order
type CreateOrderRequest struct {
	TokenIn  string  `json:"tokenIn"`
	TokenOut string  `json:"tokenOut"`
	Amount   float64 `json:"amount"`
	Slippage float64 `json:"slippage"`
}

// CreateOrderResponse is the immediate reply to an accepted order
type CreateOrderResponse struct {
	OrderID  string  `json:"orderId"`
	Status   string  `json:"status"`
	TokenIn  string  `json:"tokenIn"`
	TokenOut string  `json:"tokenOut"`
	Amount   float64 `json:"amount"`
}

// OrderResponse is the full order snapshot
type OrderResponse struct {
	OrderID       string    `json:"orderId"`
	TokenIn       string    `json:"tokenIn"`
	TokenOut      string    `json:"tokenOut"`
	Amount        float64   `json:"amount"`
	Slippage      float64   `json:"slippage"`
	Status        string    `json:"status"`
	Provider      *string   `json:"provider,omitempty"`
	ExecutedPrice *float64  `json:"executedPrice,omitempty"`
	TxHash        *string   `json:"txHash,omitempty"`
	Error         *string   `json:"error,omitempty"`
	RetryCount    int       `json:"retryCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// OrderLogResponse is one entry of an order's audit history
type OrderLogResponse struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorResponse represents the API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
