// Package dashboard keeps the process-wide dashboard figures and
// resynchronises them after every committed mutation.
package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"example.com/oilchain/internal/backend"
)

// Fetcher loads the dashboard figures from the backend
type Fetcher interface {
	Dashboard(ctx context.Context) (backend.Dashboard, error)
}

// Listener is called with every successfully refreshed snapshot
type Listener func(backend.Dashboard)

// Hub is an observable store for the dashboard figures.
type Hub struct {
	fetcher Fetcher
	timeout time.Duration

	mu        sync.RWMutex
	current   backend.Dashboard
	loaded    bool
	lastErr   error
	listeners map[int]Listener
	nextID    int

	pending chan struct{}
}

// NewHub creates a hub. timeout bounds each background refresh.
func NewHub(fetcher Fetcher, timeout time.Duration) *Hub {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Hub{
		fetcher:   fetcher,
		timeout:   timeout,
		listeners: make(map[int]Listener),
		pending:   make(chan struct{}, 1),
	}
}

// Snapshot returns the last known figures and whether any load succeeded.
func (h *Hub) Snapshot() (backend.Dashboard, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current, h.loaded
}

// LastError returns the error of the last refresh, nil when it succeeded.
func (h *Hub) LastError() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.lastErr
}

// Subscribe registers fn and returns the function that removes it.
func (h *Hub) Subscribe(fn Listener) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.listeners, id)
			h.mu.Unlock()
		})
	}
}

// Refresh fetches the figures now. On failure the previous figures are kept.
func (h *Hub) Refresh(ctx context.Context) error {
	d, err := h.fetcher.Dashboard(ctx)

	h.mu.Lock()
	h.lastErr = err
	if err != nil {
		h.mu.Unlock()
		return err
	}
	h.current = d
	h.loaded = true
	listeners := make([]Listener, 0, len(h.listeners))
	for _, l := range h.listeners {
		listeners = append(listeners, l)
	}
	h.mu.Unlock()

	for _, l := range listeners {
		l(d)
	}
	return nil
}

// Invalidate schedules a background refresh. Calls made while one is
// already pending are merged into it.
func (h *Hub) Invalidate() {
	select {
	case h.pending <- struct{}{}:
	default:
	}
}

// Run serves invalidations until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	log.Info().Msg("Dashboard resync loop started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Dashboard resync loop stopped")
			return
		case <-h.pending:
			refreshCtx, cancel := context.WithTimeout(ctx, h.timeout)
			if err := h.Refresh(refreshCtx); err != nil {
				log.Warn().Err(err).Msg("Dashboard resync failed")
			}
			cancel()
		}
	}
}
