package events

import "sync"

// Hub fans events out to in-process subscribers. The SSE stream handler
// subscribes here to forward live conversation updates to renderers.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
	next   Publisher
}

// NewHub creates a hub that also forwards every event to next.
func NewHub(next Publisher) *Hub {
	if next == nil {
		next = Nop{}
	}
	return &Hub{subs: make(map[int]chan Event), next: next}
}

// Publish broadcasts to all subscribers and forwards downstream. A slow
// subscriber drops events rather than blocking the conversation.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	h.mu.Unlock()

	h.next.Publish(ev)
}

// Subscribe registers a new subscriber. The returned cancel func must be
// called when the subscriber goes away.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	ch := make(chan Event, 64)
	h.subs[id] = ch

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}
}

// Close closes the downstream publisher.
func (h *Hub) Close() {
	h.next.Close()
}
