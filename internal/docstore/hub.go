package docstore

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/modtrackin/modtrackin/internal/logger"
)

// QueryFunc runs a query against a backend; the hub calls it to build each
// snapshot.
type QueryFunc func(ctx context.Context, q Query) ([]Document, error)

// Hub fans change notifications for a collection out to its listeners.
// Backends call Notify after local writes and whenever their own change feed
// (NOTIFY, pub/sub, change stream) reports a remote write.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[*subscription]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*subscription]struct{})}
}

type subscription struct {
	hub        *Hub
	collection string
	query      Query
	run        QueryFunc
	fn         Listener
	wake       chan struct{}
	cancel     context.CancelFunc
	closed     atomic.Bool
	once       sync.Once
}

// Subscribe registers fn and schedules the initial snapshot. Snapshots are
// delivered from a dedicated goroutine; bursts of changes coalesce into one.
func (h *Hub) Subscribe(ctx context.Context, collection string, q Query, run QueryFunc, fn Listener) Subscription {
	ctx, cancel := context.WithCancel(ctx)
	s := &subscription{
		hub:        h,
		collection: collection,
		query:      q,
		run:        run,
		fn:         fn,
		wake:       make(chan struct{}, 1),
		cancel:     cancel,
	}

	h.mu.Lock()
	if h.subs[collection] == nil {
		h.subs[collection] = make(map[*subscription]struct{})
	}
	h.subs[collection][s] = struct{}{}
	h.mu.Unlock()

	s.signal()
	go s.loop(ctx)
	return s
}

// Notify wakes every listener on collection.
func (h *Hub) Notify(collection string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs[collection] {
		s.signal()
	}
}

// NotifyAll wakes every listener, used after a change feed reconnects and may
// have missed events.
func (h *Hub) NotifyAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, subs := range h.subs {
		for s := range subs {
			s.signal()
		}
	}
}

// Collections lists the collections that currently have listeners.
func (h *Hub) Collections() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.subs))
	for name, subs := range h.subs {
		if len(subs) > 0 {
			out = append(out, name)
		}
	}
	return out
}

// Close cancels every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	var all []*subscription
	for _, subs := range h.subs {
		for s := range subs {
			all = append(all, s)
		}
	}
	h.mu.Unlock()
	for _, s := range all {
		s.Close()
	}
}

func (h *Hub) remove(s *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.subs[s.collection]; ok {
		delete(subs, s)
		if len(subs) == 0 {
			delete(h.subs, s.collection)
		}
	}
}

func (s *subscription) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscription) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		}
		docs, err := s.run(ctx, s.query)
		if s.closed.Load() || ctx.Err() != nil {
			return
		}
		if err != nil {
			logger.Debug("listener query failed", "collection", s.collection, "error", err)
		}
		s.fn(docs, err)
	}
}

// Close stops deliveries. A snapshot already being delivered may still finish.
func (s *subscription) Close() {
	s.once.Do(func() {
		s.closed.Store(true)
		s.cancel()
		s.hub.remove(s)
	})
}
