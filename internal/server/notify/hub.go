// Package notify maps usernames to their live notification connection and
// delivers best-effort pushes to them.
package notify

import (
	"sync"
	"sync/atomic"
)

// Hub holds at most one Subscriber per username. Push never blocks.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]*Subscriber

	delivered atomic.Uint64
	dropped   atomic.Uint64
	absent    atomic.Uint64
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]*Subscriber)}
}

// Register binds sub to its user, replacing any earlier binding.
func (h *Hub) Register(sub *Subscriber) {
	h.mu.Lock()
	h.subs[sub.user] = sub
	h.mu.Unlock()
}

// Unregister removes the binding for sub.User() only if it is still sub.
// A late teardown of an old connection therefore cannot evict a newer one.
func (h *Hub) Unregister(sub *Subscriber) {
	h.mu.Lock()
	if cur, ok := h.subs[sub.user]; ok && cur == sub {
		delete(h.subs, sub.user)
	}
	h.mu.Unlock()
}

// Push offers text to user's subscriber. If the offer fails the binding is
// dropped and the subscriber closed; the user gets live notifications
// again only after re-registering. It reports whether text was queued.
func (h *Hub) Push(user, text string) bool {
	h.mu.RLock()
	sub, ok := h.subs[user]
	h.mu.RUnlock()

	if !ok {
		h.absent.Add(1)
		return false
	}

	if sub.offer(text) {
		h.delivered.Add(1)
		return true
	}

	h.dropped.Add(1)
	h.Unregister(sub)
	sub.Close()
	return false
}

// Registered reports whether user currently has a binding.
func (h *Hub) Registered(user string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.subs[user]
	return ok
}

// Len returns the number of bindings.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Stats returns cumulative push outcomes: queued, dropped because the
// subscriber failed, and skipped because the user had no binding.
func (h *Hub) Stats() (delivered, dropped, absent uint64) {
	return h.delivered.Load(), h.dropped.Load(), h.absent.Load()
}

// CloseAll closes and forgets every subscriber.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[string]*Subscriber)
	h.mu.Unlock()

	for _, s := range subs {
		s.Close()
	}
}
