// internal/handler/notifier.go
package handler

import (
	"sync"
)

// Hub fans change notifications out to the streams watching a payment link.
// Notify never blocks: a subscriber that has not drained its previous
// signal already knows it must re-read.
type Hub struct {
	subscribers map[string]map[chan struct{}]bool
	mu          sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[chan struct{}]bool),
	}
}

// Subscribe returns a signal channel for linkID and a func that releases it.
func (h *Hub) Subscribe(linkID string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	if h.subscribers[linkID] == nil {
		h.subscribers[linkID] = make(map[chan struct{}]bool)
	}
	h.subscribers[linkID][ch] = true
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if subs, ok := h.subscribers[linkID]; ok {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(h.subscribers, linkID)
				}
			}
		})
	}
}

func (h *Hub) Notify(linkID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers[linkID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Subscribers reports how many streams watch linkID.
func (h *Hub) Subscribers(linkID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[linkID])
}
