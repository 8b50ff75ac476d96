package notifier

import (
	"sync"

	"go.uber.org/zap"
	"swaprouter/apps/swaprouter/internal/events"
)

const defaultBufferSize = 16

// Subscriber is one observer of a single order's updates. Updates arrive on
// the channel in the order they were published.
type Subscriber struct {
	ch   chan events.OrderUpdate
	once sync.Once
}

// Updates returns the subscriber's delivery channel. The channel is closed
// when the subscription ends.
func (s *Subscriber) Updates() <-chan events.OrderUpdate {
	return s.ch
}

func (s *Subscriber) close() {
	s.once.Do(func() { close(s.ch) })
}

// Hub is the in-memory registry of order subscribers. All methods are safe
// for concurrent use.
type Hub struct {
	mu          sync.Mutex
	subscribers map[string]map[*Subscriber]struct{}
	logger      *zap.Logger
}

// NewHub creates an empty notification hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		subscribers: make(map[string]map[*Subscriber]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a new observer for the order's updates.
func (h *Hub) Subscribe(orderID string) *Subscriber {
	sub := &Subscriber{ch: make(chan events.OrderUpdate, defaultBufferSize)}

	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subscribers[orderID]
	if !ok {
		set = make(map[*Subscriber]struct{})
		h.subscribers[orderID] = set
	}
	set[sub] = struct{}{}

	return sub
}

// Unsubscribe removes an observer and closes its channel. Removing a
// subscriber that is not registered is a no-op.
func (h *Hub) Unsubscribe(orderID string, sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(orderID, sub)
}

// Publish delivers the update to every current subscriber of the order.
// Delivery is best-effort: a subscriber whose buffer is full is dropped so
// one stalled observer cannot block the rest.
func (h *Hub) Publish(orderID string, update events.OrderUpdate) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subscribers[orderID]
	if !ok {
		return
	}

	var dead []*Subscriber
	for sub := range set {
		select {
		case sub.ch <- update:
		default:
			dead = append(dead, sub)
		}
	}

	for _, sub := range dead {
		h.logger.Warn("Dropping slow subscriber",
			zap.String("order_id", orderID),
			zap.String("status", update.Status))
		h.removeLocked(orderID, sub)
	}
}

// SubscriberCount returns the number of active subscribers for an order.
func (h *Hub) SubscriberCount(orderID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[orderID])
}

// removeLocked deletes the subscriber and prunes the order's entry once its
// set is empty, so the registry does not grow without bound. Callers must
// hold h.mu.
func (h *Hub) removeLocked(orderID string, sub *Subscriber) {
	set, ok := h.subscribers[orderID]
	if !ok {
		return
	}
	if _, ok := set[sub]; !ok {
		return
	}

	delete(set, sub)
	if len(set) == 0 {
		delete(h.subscribers, orderID)
	}
	sub.close()
}
