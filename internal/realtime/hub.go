// Package realtime implements the in-process propagation channel that fans
// gift fulfillment updates out to connected clients. The catalog store
// publishes one GiftUpdate per distinct purchase; the HTTP layer exposes the
// stream to browsers over Server-Sent Events.
//
// Design notes:
//   - Subscribers get a private buffered channel; a slow consumer drops
//     updates instead of blocking the webhook path. The catalog is a small
//     bounded list, so a dropped update is repaired by the next full read.
//   - The hub is process-local. Reconnection policy belongs to the transport
//     (EventSource retries on its own); the hub only delivers updates until
//     the subscription is cancelled.
package realtime

import (
	"sync"

	"github.com/tbourn/go-giftdrive-backend/internal/domain"
)

// subscriberBuffer bounds the per-subscriber queue. Purchases arrive at
// human speed, so a small buffer absorbs any realistic burst.
const subscriberBuffer = 16

// Hub is a minimal publish/subscribe fan-out for GiftUpdate notifications.
// The zero value is not usable; construct with NewHub. Safe for concurrent
// use.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan domain.GiftUpdate
	closed bool
}

// NewHub returns an empty hub ready for subscribers.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan domain.GiftUpdate)}
}

// Subscribe registers a new listener and returns its update channel together
// with a cancel function. Cancel is idempotent and closes the channel; after
// cancellation no further updates are delivered.
func (h *Hub) Subscribe() (<-chan domain.GiftUpdate, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan domain.GiftUpdate, subscriberBuffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if c, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(c)
			}
			h.mu.Unlock()
		})
	}
	return ch, cancel
}

// Publish delivers an update to every current subscriber. Subscribers whose
// buffers are full are skipped; Publish never blocks.
func (h *Hub) Publish(u domain.GiftUpdate) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- u:
		default:
			// Slow consumer: drop rather than stall the publisher.
		}
	}
}

// Close cancels all subscriptions. Further Subscribe calls return a closed
// channel, and Publish becomes a no-op. Used during graceful shutdown so SSE
// handlers unwind promptly.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}

// Len reports the current number of subscribers. Exposed for metrics and
// tests.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
