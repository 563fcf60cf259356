package app

import (
	"sync"

	"quiz-session-service/internal/domain"
)

// ProgressHub fans session progress out to in-process subscribers.
type ProgressHub struct {
	mu          sync.Mutex
	subscribers map[string]map[chan domain.SessionProgress]struct{}
}

func NewProgressHub() *ProgressHub {
	return &ProgressHub{subscribers: make(map[string]map[chan domain.SessionProgress]struct{})}
}

// Subscribe registers a channel for sessionID and primes it with initial.
func (h *ProgressHub) Subscribe(sessionID string, initial domain.SessionProgress) (<-chan domain.SessionProgress, func()) {
	ch := make(chan domain.SessionProgress, 8)

	h.mu.Lock()
	subs, ok := h.subscribers[sessionID]
	if !ok {
		subs = make(map[chan domain.SessionProgress]struct{})
		h.subscribers[sessionID] = subs
	}
	subs[ch] = struct{}{}
	ch <- initial
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		subs, ok := h.subscribers[sessionID]
		if !ok {
			return
		}
		if _, ok := subs[ch]; ok {
			delete(subs, ch)
			close(ch)
		}
		if len(subs) == 0 {
			delete(h.subscribers, sessionID)
		}
	}
	return ch, cancel
}

// Publish delivers progress to every subscriber of its session without blocking.
func (h *ProgressHub) Publish(progress domain.SessionProgress) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers[progress.SessionID] {
		select {
		case ch <- progress:
		default:
			// Slow reader: drop its oldest update so the latest one always lands.
			select {
			case <-ch:
			default:
			}
			ch <- progress
		}
	}
}

// Subscribers reports how many channels follow sessionID.
func (h *ProgressHub) Subscribers(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[sessionID])
}
