package services

import (
	"sync"
	"time"

	"example.com/oilchain/internal/backend"
)

// Workspace holds the list views of one client session
type Workspace struct {
	ID string

	client *backend.Client

	mu       sync.Mutex
	views    map[string]EntityView
	lastSeen time.Time
}

func newWorkspace(id string, client *backend.Client) *Workspace {
	return &Workspace{
		ID:       id,
		client:   client,
		views:    make(map[string]EntityView),
		lastSeen: time.Now(),
	}
}

// View returns the view of entity, creating it empty on first use.
func (w *Workspace) View(entity string) (EntityView, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if v, ok := w.views[entity]; ok {
		return v, nil
	}
	v, err := NewEntityView(w.client, entity)
	if err != nil {
		return nil, err
	}
	w.views[entity] = v
	return v, nil
}

func (w *Workspace) existing(entity string) (EntityView, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	v, ok := w.views[entity]
	return v, ok
}

func (w *Workspace) touch() {
	w.mu.Lock()
	w.lastSeen = time.Now()
	w.mu.Unlock()
}

// LastSeen returns the time of the last call made in this workspace
func (w *Workspace) LastSeen() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSeen
}
