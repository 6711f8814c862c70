// Package hub fans snapshots out to any number of push consumers
// (websocket writers, the remote publisher) without ever letting a slow
// consumer touch the sampler's cadence.
package hub

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/mlrig/hwmon/internal/domain"
)

// Subscription is one consumer's view of the broadcast. C yields
// snapshots until the subscription is cancelled or the hub drops the
// consumer for falling behind; either way C is closed.
type Subscription struct {
	ID string
	C  <-chan domain.Snapshot

	ch     chan domain.Snapshot
	missed int
}

// Hub delivers each published snapshot to every live subscription with
// newest-overwrites-oldest semantics: when a consumer's buffer is full
// the oldest buffered snapshot is discarded to make room. A consumer
// whose buffer is full for maxMissed consecutive publishes is dropped.
type Hub struct {
	buffer    int
	maxMissed int
	logger    *slog.Logger

	mu   sync.Mutex
	subs map[string]*Subscription
}

func New(buffer, maxMissed int, logger *slog.Logger) *Hub {
	return &Hub{
		buffer:    buffer,
		maxMissed: maxMissed,
		logger:    logger,
		subs:      make(map[string]*Subscription),
	}
}

// Subscribe registers a new consumer.
func (h *Hub) Subscribe() *Subscription {
	ch := make(chan domain.Snapshot, h.buffer)
	sub := &Subscription{
		ID: uuid.NewString(),
		C:  ch,
		ch: ch,
	}

	h.mu.Lock()
	h.subs[sub.ID] = sub
	count := len(h.subs)
	h.mu.Unlock()

	h.logger.Info("consumer subscribed", "id", sub.ID, "consumers", count)
	return sub
}

// Unsubscribe removes a consumer and closes its channel. Safe to call
// for a consumer the hub already dropped.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(sub.ID, "unsubscribed")
}

// Publish delivers snap to all subscriptions. Never blocks: delivery to
// each consumer is a non-blocking send with drop-oldest on overflow.
func (h *Hub) Publish(snap domain.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, sub := range h.subs {
		select {
		case sub.ch <- snap:
			sub.missed = 0
			continue
		default:
		}

		// Buffer full: evict the oldest entry, then retry once. The
		// hub is the only sender, so after one receive there is room.
		select {
		case <-sub.ch:
		default:
		}
		select {
		case sub.ch <- snap:
		default:
		}

		sub.missed++
		if sub.missed >= h.maxMissed {
			h.remove(id, "consumer too slow")
		}
	}
}

// Consumers returns the number of live subscriptions.
func (h *Hub) Consumers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close drops all consumers; used during shutdown so websocket writers
// observe a closed channel and exit.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id := range h.subs {
		h.remove(id, "hub closing")
	}
}

// remove must be called with h.mu held.
func (h *Hub) remove(id, reason string) {
	sub, ok := h.subs[id]
	if !ok {
		return
	}
	delete(h.subs, id)
	close(sub.ch)
	h.logger.Info("consumer removed", "id", id, "reason", reason, "consumers", len(h.subs))
}
