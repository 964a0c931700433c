// Package notify implements the change-notification hub the presentation
// layer subscribes to. Services fan out after every successful mutation and
// never after a failed one.
package notify

import (
	"context"
	"log/slog"
	"sync"
)

// Entity and operation names used in change events.
const (
	EntityUser        = "user"
	EntityTransaction = "transaction"
	EntityBudget      = "budget"
	EntitySession     = "session"

	OpCreated = "created"
	OpUpdated = "updated"
	OpDeleted = "deleted"
	OpLogin   = "login"
	OpLogout  = "logout"
)

type (
	// Event describes one committed change.
	Event struct {
		Entity  string `json:"entity"`
		Op      string `json:"op"`
		ID      int64  `json:"id"`
		OwnerID int64  `json:"owner_id"`
	}

	// Listener is invoked with no arguments; subscribers re-query whatever
	// they display.
	Listener func()

	// Publisher mirrors events to an external transport. Publish failures
	// must not fail the mutation that produced the event.
	Publisher interface {
		Publish(ctx context.Context, ev Event) error
	}

	// Hub is a mutex-guarded listener registry with an optional publisher.
	Hub struct {
		mu        sync.Mutex
		seq       int64
		listeners map[int64]Listener
		publisher Publisher
	}
)

// NewHub returns a hub; pub may be nil for in-process-only notification.
func NewHub(pub Publisher) *Hub {
	return &Hub{
		listeners: make(map[int64]Listener),
		publisher: pub,
	}
}

// Subscribe registers a listener and returns its subscription id.
func (h *Hub) Subscribe(fn Listener) int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	h.listeners[h.seq] = fn
	return h.seq
}

// Unsubscribe removes a subscription. Unknown ids are ignored, so teardown
// paths can call it more than once.
func (h *Hub) Unsubscribe(id int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.listeners, id)
}

// Notify invokes every listener and mirrors the event to the publisher.
// Listeners run outside the hub lock so they may subscribe or unsubscribe
// reentrantly.
func (h *Hub) Notify(ctx context.Context, ev Event) {
	h.mu.Lock()
	fns := make([]Listener, 0, len(h.listeners))
	for _, fn := range h.listeners {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn()
	}

	if h.publisher != nil {
		if err := h.publisher.Publish(ctx, ev); err != nil {
			slog.WarnContext(ctx, "Failed to publish change event",
				"entity", ev.Entity,
				"op", ev.Op,
				"id", ev.ID,
				"error", err)
		}
	}
}
