// Package notify implements the transient user-feedback channel: an
// insertion-ordered set of short-lived messages, each expiring on its own
// timer.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Severity classifies a message for rendering.
type Severity string

const (
	Info    Severity = "info"
	Success Severity = "success"
	Error   Severity = "error"
)

// DefaultTTL is how long a message stays visible unless overridden.
const DefaultTTL = 2500 * time.Millisecond

// Message is one active notification.
type Message struct {
	ID        string
	Text      string
	Severity  Severity
	CreatedAt time.Time
}

// Hub holds the active messages for one consumer. Every Publish schedules
// its own expiry timer; messages never coalesce, even when the text is
// identical.
type Hub struct {
	mu     sync.Mutex
	ttl    time.Duration
	msgs   []Message
	timers map[string]*time.Timer
	closed bool
}

// NewHub creates a hub with the given default message lifetime; zero
// means DefaultTTL.
func NewHub(ttl time.Duration) *Hub {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Hub{ttl: ttl, timers: make(map[string]*time.Timer)}
}

// Publish appends a message expiring after the hub's default lifetime.
func (h *Hub) Publish(text string, severity Severity) string {
	return h.PublishFor(text, severity, h.ttl)
}

// PublishFor appends a message expiring after d.
func (h *Hub) PublishFor(text string, severity Severity, d time.Duration) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ""
	}

	id := uuid.NewString()
	h.msgs = append(h.msgs, Message{
		ID:        id,
		Text:      text,
		Severity:  severity,
		CreatedAt: time.Now(),
	})
	h.timers[id] = time.AfterFunc(d, func() { h.Dismiss(id) })
	return id
}

// Dismiss removes a message early. Other messages keep their own timers.
func (h *Hub) Dismiss(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(id)
}

func (h *Hub) remove(id string) {
	if t, ok := h.timers[id]; ok {
		t.Stop()
		delete(h.timers, id)
	}
	for i, m := range h.msgs {
		if m.ID == id {
			h.msgs = append(h.msgs[:i], h.msgs[i+1:]...)
			return
		}
	}
}

// Active returns the current messages in publish order.
func (h *Hub) Active() []Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Message, len(h.msgs))
	copy(out, h.msgs)
	return out
}

// Close stops all pending timers and drops the remaining messages. A
// closed hub ignores further publishes.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, t := range h.timers {
		t.Stop()
		delete(h.timers, id)
	}
	h.msgs = nil
}
