package services

import "sync"

// Hub fans a "something changed" signal out to subscribers.
//
// Signals coalesce: each subscriber holds at most one pending signal, so a slow
// reader skips intermediate states and reads the latest one when it catches up.
// Notify never blocks and may be called while other locks are held.
type Hub struct {
	mu   sync.Mutex
	subs map[int]chan struct{}
	next int
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan struct{})}
}

// Subscribe returns a signal channel and a func that releases it.
func (h *Hub) Subscribe() (<-chan struct{}, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.next++
	id := h.next
	ch := make(chan struct{}, 1)
	h.subs[id] = ch

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs, id)
	}
}

func (h *Hub) Notify() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
