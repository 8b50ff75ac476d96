package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"swaprouter/apps/swaprouter/internal/assets"
	"swaprouter/apps/swaprouter/internal/engine"
	"swaprouter/apps/swaprouter/internal/events"
	"swaprouter/apps/swaprouter/internal/executor"
	"swaprouter/apps/swaprouter/internal/model"
	"swaprouter/apps/swaprouter/internal/notifier"
	"swaprouter/apps/swaprouter/internal/provider"
	"swaprouter/apps/swaprouter/internal/queue"
	"swaprouter/apps/swaprouter/internal/router"
)

// memStore backs the API with an in-memory order table for tests.
type memStore struct {
	mu     sync.Mutex
	orders map[string]model.Order
	seq    []string
	logs   []model.OrderLog
}

func newMemStore() *memStore {
	return &memStore{orders: make(map[string]model.Order)}
}

func (s *memStore) CreateOrder(order model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.OrderID] = order
	s.seq = append(s.seq, order.OrderID)
	return nil
}

func (s *memStore) GetOrderByID(orderID string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return nil, nil
	}
	return &order, nil
}

func (s *memStore) ListRecent(limit int) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var orders []model.Order
	for i := len(s.seq) - 1; i >= 0 && len(orders) < limit; i-- {
		orders = append(orders, s.orders[s.seq[i]])
	}
	return orders, nil
}

func (s *memStore) UpdateOrder(order model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.OrderID] = order
	return nil
}

func (s *memStore) AppendLog(orderID, status, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, model.OrderLog{OrderID: orderID, Status: status, Message: message, CreatedAt: time.Now()})
	return nil
}

func (s *memStore) GetLogs(orderID string) ([]model.OrderLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var logs []model.OrderLog
	for _, entry := range s.logs {
		if entry.OrderID == orderID {
			logs = append(logs, entry)
		}
	}
	return logs, nil
}

func (s *memStore) logStatuses(orderID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var statuses []string
	for _, entry := range s.logs {
		if entry.OrderID == orderID {
			statuses = append(statuses, entry.Status)
		}
	}
	return statuses
}

type apiRig struct {
	store  *memStore
	queue  *queue.JobQueue
	server *httptest.Server
}

// newAPIRig wires the full pipeline behind a test HTTP server: real queue,
// engine, router, hub; simulated providers and executor with zero latency
// and no simulated failures.
func newAPIRig(t *testing.T, providerLatency time.Duration) *apiRig {
	t.Helper()

	logger := zap.NewNop()
	store := newMemStore()
	registry := assets.NewAssetRegistry()
	hub := notifier.NewHub(logger)

	providers := []provider.QuoteProvider{
		provider.NewSimulated(provider.SimulatedConfig{Name: "jupiter", Fee: 0.0025, Variance: 0.005, Latency: providerLatency, Seed: 11}, registry, logger),
		provider.NewSimulated(provider.SimulatedConfig{Name: "raydium", Fee: 0.003, Variance: 0.008, Latency: providerLatency, Seed: 12}, registry, logger),
	}

	rt, err := router.New(providers, 5*time.Second, logger)
	if err != nil {
		t.Fatalf("Failed to create router: %v", err)
	}

	exec := executor.NewSimulated(executor.SimulatedConfig{Seed: 13}, logger)
	processor := engine.NewProcessor(store, nil, rt, exec, hub, logger)

	jobQueue := queue.New(queue.Config{Workers: 4, MaxAttempts: 3, BaseDelay: 10 * time.Millisecond}, processor, logger)
	jobQueue.Start(context.Background())
	t.Cleanup(jobQueue.Stop)

	server := NewServer(0, store, jobQueue, jobQueue, hub, registry, logger)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)

	return &apiRig{store: store, queue: jobQueue, server: ts}
}

func (rig *apiRig) createOrder(t *testing.T, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(rig.server.URL+"/api/orders", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("Failed to make POST request: %v", err)
	}
	return resp
}

func (rig *apiRig) waitForTerminal(t *testing.T, orderID string) OrderResponse {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(rig.server.URL + "/api/orders/" + orderID)
		if err != nil {
			t.Fatalf("Failed to make GET request: %v", err)
		}
		var order OrderResponse
		if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
			t.Fatalf("Failed to decode order response: %v", err)
		}
		resp.Body.Close()
		if order.Status == model.StatusConfirmed || order.Status == model.StatusFailed {
			return order
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("Order never reached a terminal state")
	return OrderResponse{}
}

func TestCreateOrderEndToEnd(t *testing.T) {
	rig := newAPIRig(t, 0)

	resp := rig.createOrder(t, `{"tokenIn":"SOL","tokenOut":"USDC","amount":1.5,"slippage":0.01}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		var errorResp ErrorResponse
		json.NewDecoder(resp.Body).Decode(&errorResp)
		t.Fatalf("Expected status 201, got %d. Error: %s - %s", resp.StatusCode, errorResp.Error, errorResp.Message)
	}

	var created CreateOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if created.OrderID == "" {
		t.Error("OrderID should not be empty")
	}
	if created.Status != model.StatusPending {
		t.Errorf("Expected immediate status 'pending', got '%s'", created.Status)
	}
	if created.TokenIn != "SOL" || created.TokenOut != "USDC" || created.Amount != 1.5 {
		t.Errorf("Response echoed wrong order fields: %+v", created)
	}

	final := rig.waitForTerminal(t, created.OrderID)

	switch final.Status {
	case model.StatusConfirmed:
		if final.TxHash == nil || *final.TxHash == "" {
			t.Error("Confirmed order must carry a settlement reference")
		}
		if final.ExecutedPrice == nil {
			t.Error("Confirmed order must carry a realized price")
		}
		if final.Provider == nil {
			t.Error("Confirmed order must carry the selected provider")
		}
	case model.StatusFailed:
		if final.Error == nil || *final.Error == "" {
			t.Error("Failed order must carry an error description")
		}
	}

	// Exactly one log entry per traversed state, no repeats, served by the
	// logs endpoint.
	logsResp, err := http.Get(rig.server.URL + "/api/orders/" + created.OrderID + "/logs")
	if err != nil {
		t.Fatalf("Failed to make GET request: %v", err)
	}
	defer logsResp.Body.Close()

	var logs []OrderLogResponse
	if err := json.NewDecoder(logsResp.Body).Decode(&logs); err != nil {
		t.Fatalf("Failed to decode logs response: %v", err)
	}

	statuses := make([]string, 0, len(logs))
	for _, entry := range logs {
		statuses = append(statuses, entry.Status)
	}
	seen := make(map[string]int)
	for _, status := range statuses {
		seen[status]++
	}
	for status, count := range seen {
		if count != 1 {
			t.Errorf("Status '%s' logged %d times, want exactly once", status, count)
		}
	}
	lastRank := model.StatusRank(model.StatusPending)
	for _, status := range statuses {
		rank := model.StatusRank(status)
		if rank <= lastRank {
			t.Errorf("Log sequence not strictly increasing: %v", statuses)
		}
		lastRank = rank
	}
}

func TestCreateOrderValidation(t *testing.T) {
	rig := newAPIRig(t, 0)

	tests := []struct {
		name      string
		body      string
		wantCode  string
		wantState int
	}{
		{"MalformedJSON", `{"tokenIn":`, "invalid_request_body", http.StatusBadRequest},
		{"UnsupportedAsset", `{"tokenIn":"DOGE","tokenOut":"USDC","amount":1,"slippage":0.01}`, "unsupported_asset", http.StatusBadRequest},
		{"UnsupportedPair", `{"tokenIn":"BONK","tokenOut":"USDT","amount":1,"slippage":0.01}`, "unsupported_pair", http.StatusBadRequest},
		{"ZeroAmount", `{"tokenIn":"SOL","tokenOut":"USDC","amount":0,"slippage":0.01}`, "invalid_amount", http.StatusBadRequest},
		{"NegativeAmount", `{"tokenIn":"SOL","tokenOut":"USDC","amount":-5,"slippage":0.01}`, "invalid_amount", http.StatusBadRequest},
		{"SlippageOverOne", `{"tokenIn":"SOL","tokenOut":"USDC","amount":1,"slippage":1.5}`, "invalid_slippage", http.StatusBadRequest},
		{"NegativeSlippage", `{"tokenIn":"SOL","tokenOut":"USDC","amount":1,"slippage":-0.1}`, "invalid_slippage", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := rig.createOrder(t, tt.body)
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantState {
				t.Fatalf("Expected status %d, got %d", tt.wantState, resp.StatusCode)
			}

			var errorResp ErrorResponse
			if err := json.NewDecoder(resp.Body).Decode(&errorResp); err != nil {
				t.Fatalf("Failed to decode error response: %v", err)
			}
			if errorResp.Error != tt.wantCode {
				t.Errorf("Expected error code '%s', got '%s'", tt.wantCode, errorResp.Error)
			}
		})
	}

	// Rejected requests never reach the store or the queue.
	if orders, _ := rig.store.ListRecent(10); len(orders) != 0 {
		t.Errorf("Validation failures must not create orders, found %d", len(orders))
	}
}

func TestGetOrderNotFound(t *testing.T) {
	rig := newAPIRig(t, 0)

	resp, err := http.Get(rig.server.URL + "/api/orders/3f2c8f0a-0000-0000-0000-000000000000")
	if err != nil {
		t.Fatalf("Failed to make GET request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.StatusCode)
	}

	var errorResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errorResp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	if errorResp.Error != "order_not_found" {
		t.Errorf("Expected error 'order_not_found', got '%s'", errorResp.Error)
	}
}

func TestListRecentOrders(t *testing.T) {
	rig := newAPIRig(t, 0)

	var ids []string
	for i := 0; i < 3; i++ {
		resp := rig.createOrder(t, `{"tokenIn":"SOL","tokenOut":"USDC","amount":1.5,"slippage":0.01}`)
		var created CreateOrderResponse
		json.NewDecoder(resp.Body).Decode(&created)
		resp.Body.Close()
		ids = append(ids, created.OrderID)
	}

	resp, err := http.Get(rig.server.URL + "/api/orders?limit=2")
	if err != nil {
		t.Fatalf("Failed to make GET request: %v", err)
	}
	defer resp.Body.Close()

	var orders []OrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&orders); err != nil {
		t.Fatalf("Failed to decode list response: %v", err)
	}

	if len(orders) != 2 {
		t.Fatalf("Expected 2 orders, got %d", len(orders))
	}
	// Newest first.
	if orders[0].OrderID != ids[2] || orders[1].OrderID != ids[1] {
		t.Errorf("Expected newest-first ordering, got %s then %s", orders[0].OrderID, orders[1].OrderID)
	}
}

func TestQueueStatsEndpoint(t *testing.T) {
	rig := newAPIRig(t, 0)

	resp := rig.createOrder(t, `{"tokenIn":"SOL","tokenOut":"USDC","amount":1.5,"slippage":0.01}`)
	var created CreateOrderResponse
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()
	rig.waitForTerminal(t, created.OrderID)

	statsResp, err := http.Get(rig.server.URL + "/api/queue/stats")
	if err != nil {
		t.Fatalf("Failed to make GET request: %v", err)
	}
	defer statsResp.Body.Close()

	var stats queue.Stats
	if err := json.NewDecoder(statsResp.Body).Decode(&stats); err != nil {
		t.Fatalf("Failed to decode stats response: %v", err)
	}

	if stats.Completed+stats.Failed != 1 {
		t.Errorf("Expected one finished job, got %+v", stats)
	}
	if stats.Active != 0 || stats.Waiting != 0 {
		t.Errorf("Expected a drained queue, got %+v", stats)
	}
}

func TestOrderStreamWebSocket(t *testing.T) {
	// Some provider latency so the stream can attach mid-flight.
	rig := newAPIRig(t, 50*time.Millisecond)

	resp := rig.createOrder(t, `{"tokenIn":"SOL","tokenOut":"USDC","amount":1.5,"slippage":0.01}`)
	var created CreateOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	resp.Body.Close()

	wsURL := "ws" + strings.TrimPrefix(rig.server.URL, "http") + "/api/orders/" + created.OrderID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to dial WebSocket: %v", err)
	}
	defer conn.Close()

	var received []events.OrderUpdate
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var update events.OrderUpdate
		if err := conn.ReadJSON(&update); err != nil {
			t.Fatalf("Failed to read update (got %d so far): %v", len(received), err)
		}
		if update.OrderID != created.OrderID {
			t.Errorf("Update for wrong order: %s", update.OrderID)
		}
		received = append(received, update)
		if update.Status == model.StatusConfirmed || update.Status == model.StatusFailed {
			break
		}
	}

	if len(received) == 0 {
		t.Fatal("Expected at least the snapshot message")
	}
	if received[0].Message != "snapshot" && model.StatusRank(received[0].Status) < 0 {
		t.Errorf("First message should be a snapshot of a valid status: %+v", received[0])
	}

	// Statuses never move backwards from the observer's point of view.
	ranks := make([]int, 0, len(received))
	for _, update := range received {
		ranks = append(ranks, model.StatusRank(update.Status))
	}
	if !sort.IntsAreSorted(ranks) {
		t.Errorf("Observed status sequence moved backwards: %v", ranks)
	}
}

func TestStreamUnknownOrder(t *testing.T) {
	rig := newAPIRig(t, 0)

	resp, err := http.Get(rig.server.URL + "/api/orders/unknown-id/ws")
	if err != nil {
		t.Fatalf("Failed to make GET request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404 for unknown order stream, got %d", resp.StatusCode)
	}
}
