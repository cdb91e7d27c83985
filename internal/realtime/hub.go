// Package realtime moves row-change events from PostgreSQL to connected clients.
package realtime

import (
	"sync"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/shared-todo/internal/metrics"
	"github.com/BuzzLyutic/shared-todo/internal/model"
)

// Filter selects events by table and type. Empty Table matches every table;
// an empty or "*" Type matches every event type.
type Filter struct {
	Table string
	Type  model.EventType
}

func (f Filter) Match(e model.ChangeEvent) bool {
	if f.Table != "" && f.Table != e.Table {
		return false
	}
	return f.Type == "" || f.Type == model.EventAll || f.Type == e.Type
}

type Subscription struct {
	C <-chan model.ChangeEvent

	id  uint64
	hub *Hub
}

// Close unregisters the subscription and closes C. Safe to call twice.
func (s *Subscription) Close() {
	s.hub.unsubscribe(s.id)
}

type subscriber struct {
	filter Filter
	ch     chan model.ChangeEvent
}

// Hub fans published events out to subscribers. Publish never blocks: a
// subscriber whose buffer is full is closed so it can reconnect and reload.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]*subscriber
	next   uint64
	buffer int
	closed bool
	logger *zap.Logger
}

func NewHub(logger *zap.Logger, buffer int) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{
		subs:   make(map[uint64]*subscriber),
		buffer: buffer,
		logger: logger,
	}
}

func (h *Hub) Subscribe(f Filter) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan model.ChangeEvent, h.buffer)
	if h.closed {
		close(ch)
		return &Subscription{C: ch, hub: h}
	}
	h.next++
	h.subs[h.next] = &subscriber{filter: f, ch: ch}
	metrics.RealtimeSubscribers.Inc()
	return &Subscription{C: ch, id: h.next, hub: h}
}

func (h *Hub) unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(s.ch)
		metrics.RealtimeSubscribers.Dec()
	}
}

func (h *Hub) Publish(e model.ChangeEvent) {
	metrics.RealtimeEventsTotal.WithLabelValues(e.Table, string(e.Type)).Inc()

	var overflow []uint64
	h.mu.RLock()
	for id, s := range h.subs {
		if !s.filter.Match(e) {
			continue
		}
		select {
		case s.ch <- e:
		default:
			overflow = append(overflow, id)
		}
	}
	h.mu.RUnlock()

	for _, id := range overflow {
		metrics.RealtimeDroppedTotal.Inc()
		h.logger.Warn("closing slow subscriber",
			zap.Uint64("subscriber", id),
			zap.String("table", e.Table),
			zap.String("type", string(e.Type)),
		)
		h.unsubscribe(id)
	}
}

// Close ends every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, s := range h.subs {
		delete(h.subs, id)
		close(s.ch)
		metrics.RealtimeSubscribers.Dec()
	}
}
