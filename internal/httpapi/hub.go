package httpapi

import (
	"sync"

	"github.com/amalg/gridarena/internal/game"
	"github.com/amalg/gridarena/internal/session"
)

// hub fans snapshots out to event-stream subscribers of a channel.
type hub struct {
	mu     sync.Mutex
	subs   map[session.Key]map[chan game.Snapshot]struct{}
	closed bool
}

func newHub() *hub {
	return &hub{subs: make(map[session.Key]map[chan game.Snapshot]struct{})}
}

// subscribe returns a buffered channel of updates for key and a function
// that unsubscribes and closes it.
func (h *hub) subscribe(key session.Key) (<-chan game.Snapshot, func()) {
	ch := make(chan game.Snapshot, 8)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	if h.subs[key] == nil {
		h.subs[key] = make(map[chan game.Snapshot]struct{})
	}
	h.subs[key][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[key][ch]; !ok {
				return
			}
			delete(h.subs[key], ch)
			if len(h.subs[key]) == 0 {
				delete(h.subs, key)
			}
			close(ch)
		})
	}
}

// publish delivers snap to every subscriber of key. A subscriber whose buffer
// is full misses the update.
func (h *hub) publish(key session.Key, snap game.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[key] {
		select {
		case ch <- snap:
		default:
		}
	}
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for key, set := range h.subs {
		for ch := range set {
			close(ch)
		}
		delete(h.subs, key)
	}
}

func (h *hub) count(key session.Key) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[key])
}
