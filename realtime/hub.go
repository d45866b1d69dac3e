// Package realtime is an in-process change feed. Writers publish one Event
// per row change; subscribers receive the events for the tables they asked
// for. Delivery is best-effort: a subscriber whose buffer is full misses
// events rather than slowing down the writer.
package realtime

import "sync"

// Op names the kind of row change.
type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
)

// Event is a single row change notification.
type Event struct {
	Table string `json:"table"`
	Op    Op     `json:"event"`
	ID    string `json:"id,omitempty"`
}

const defaultBuffer = 16

// Hub fans events out to subscriptions.
type Hub struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	buffer int
	closed bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subs:   make(map[*Subscription]struct{}),
		buffer: defaultBuffer,
	}
}

// Subscription receives events for a fixed set of tables. An empty set
// matches every table.
type Subscription struct {
	hub    *Hub
	ch     chan Event
	tables map[string]struct{}
	once   sync.Once
}

// Events returns the delivery channel. It is closed when the subscription
// or the hub is closed.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

func (s *Subscription) wants(table string) bool {
	if len(s.tables) == 0 {
		return true
	}
	_, ok := s.tables[table]
	return ok
}

// Close detaches the subscription from its hub. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		defer s.hub.mu.Unlock()
		if _, ok := s.hub.subs[s]; ok {
			delete(s.hub.subs, s)
			close(s.ch)
		}
	})
}

// Subscribe registers interest in the given tables.
func (h *Hub) Subscribe(tables ...string) *Subscription {
	s := &Subscription{
		hub:    h,
		ch:     make(chan Event, h.buffer),
		tables: make(map[string]struct{}, len(tables)),
	}
	for _, t := range tables {
		if t != "" {
			s.tables[t] = struct{}{}
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(s.ch)
		return s
	}
	h.subs[s] = struct{}{}
	return s
}

// Publish delivers ev to every matching subscription without blocking.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		if !s.wants(ev.Table) {
			continue
		}
		select {
		case s.ch <- ev:
		default:
		}
	}
}

// Subscribers reports how many subscriptions are attached.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close ends every subscription. Later subscriptions are born closed.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for s := range h.subs {
		delete(h.subs, s)
		close(s.ch)
	}
}
