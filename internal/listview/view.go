package listview

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// TransitionCall performs a status transition on the backend and returns the
// record as confirmed by it.
type TransitionCall[T Record] func(ctx context.Context, current T, t Transition) (T, error)

// Row is one rendered line of a view.
type Row[T Record] struct {
	Record           T            `json:"record"`
	Selected         bool         `json:"selected"`
	Selectable       bool         `json:"selectable"`
	Actions          []Transition `json:"actions,omitempty"`
	RemainingPercent *int         `json:"remaining_percent,omitempty"`
}

// Snapshot is the rendering payload of a view at one instant.
type Snapshot[T Record] struct {
	Entity         string    `json:"entity"`
	Title          string    `json:"title"`
	Query          Query     `json:"query"`
	Modes          []Status  `json:"modes,omitempty"`
	Rows           []Row[T]  `json:"rows"`
	Totals         Totals    `json:"totals"`
	SelectedTotals Totals    `json:"selected_totals"`
	SelectedIDs    []int64   `json:"selected_ids"`
	AllSelected    bool      `json:"all_selected"`
	Loaded         bool      `json:"loaded"`
	LoadedAt       time.Time `json:"loaded_at,omitempty"`
}

// View composes the record store, filter state and selection of one list.
// Every query change and every store mutation re-intersects the selection
// with the records that are currently visible and selectable.
type View[T Record] struct {
	mu        sync.Mutex
	spec      *Spec[T]
	store     *Store[T]
	query     Query
	selection *Selection
	inflight  map[int64]bool
}

// NewView creates an empty view using the entity's default view-mode
func NewView[T Record](spec *Spec[T]) *View[T] {
	return &View[T]{
		spec:      spec,
		store:     NewStore[T](spec.Entity),
		query:     Query{Partition: spec.DefaultPartition},
		selection: NewSelection(),
		inflight:  make(map[int64]bool),
	}
}

// Spec returns the entity definition of the view.
func (v *View[T]) Spec() *Spec[T] {
	return v.spec
}

// Load replaces the store with a fresh collection. The network call runs
// without holding the view lock.
func (v *View[T]) Load(ctx context.Context, fetch FetchFunc[T]) error {
	records, fetchErr := fetch(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()

	err := v.store.Load(ctx, func(context.Context) ([]T, error) {
		return records, fetchErr
	})
	if err != nil {
		return err
	}
	v.reconcile()
	return nil
}

// Loaded reports whether the view holds a successfully loaded collection.
func (v *View[T]) Loaded() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.store.Loaded()
}

// Query returns the current filter state.
func (v *View[T]) Query() Query {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.query
}

// SetSearch changes the search term.
func (v *View[T]) SetSearch(term string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.query.Search = term
	v.reconcile()
}

// ResetSearch clears the search term.
func (v *View[T]) ResetSearch() {
	v.SetSearch("")
}

// SetPartition changes the view-mode.
func (v *View[T]) SetPartition(p Status) error {
	if !v.spec.ValidPartition(p) {
		return errors.Wrapf(ErrInvalidPartition, "%s: %q", v.spec.Entity, p)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.query.Partition = p
	v.reconcile()
	return nil
}

// Apply sets search term and view-mode in one step.
func (v *View[T]) Apply(q Query) error {
	if !v.spec.ValidPartition(q.Partition) {
		return errors.Wrapf(ErrInvalidPartition, "%s: %q", v.spec.Entity, q.Partition)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.query = q
	v.reconcile()
	return nil
}

// Get returns the stored record with id.
func (v *View[T]) Get(id int64) (T, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.store.Get(id)
}

// Records returns the full store contents.
func (v *View[T]) Records() []T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.store.Records()
}

// Visible returns the filtered records in store order.
func (v *View[T]) Visible() []T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.visible()
}

// EligibleIDs returns the ids that are visible and selectable.
func (v *View[T]) EligibleIDs() []int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.eligibleIDs()
}

// Toggle flips the selection of id. Selecting an ineligible record fails
// with ErrNotSelectable; deselecting is always allowed.
func (v *View[T]) Toggle(id int64) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.selection.Has(id) {
		return v.selection.Toggle(id), nil
	}
	if _, ok := v.store.Get(id); !ok {
		return false, errors.Wrapf(ErrNotFound, "%s %d", v.spec.Entity, id)
	}
	if !containsID(v.eligibleIDs(), id) {
		return false, errors.Wrapf(ErrNotSelectable, "%s %d", v.spec.Entity, id)
	}
	return v.selection.Toggle(id), nil
}

// SelectAll selects exactly the visible and selectable records.
func (v *View[T]) SelectAll() []int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	eligible := v.eligibleIDs()
	v.selection.SelectAll(eligible)
	return v.selection.IDs()
}

// ClearSelection empties the selection.
func (v *View[T]) ClearSelection() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selection.Clear()
}

// AllSelected reports whether every eligible record is selected.
func (v *View[T]) AllSelected() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selection.IsAllSelected(v.eligibleIDs())
}

// SelectedIDs returns the selected ids in ascending order.
func (v *View[T]) SelectedIDs() []int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selection.IDs()
}

// Selected returns the selected records in store order.
func (v *View[T]) Selected() []T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selected()
}

// Totals computes the summary over the visible or the selected records.
func (v *View[T]) Totals(scope Scope) Totals {
	v.mu.Lock()
	defer v.mu.Unlock()
	if scope == ScopeSelected {
		return Summarize(v.spec, ScopeSelected, v.selected())
	}
	return Summarize(v.spec, ScopeVisible, v.visible())
}

// ApplyCreate appends a record confirmed by the backend.
func (v *View[T]) ApplyCreate(r T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.store.ApplyCreate(r)
	v.reconcile()
}

// ApplyUpdate replaces a record confirmed by the backend.
func (v *View[T]) ApplyUpdate(r T) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	ok := v.store.ApplyUpdate(r)
	v.reconcile()
	return ok
}

// ApplyDelete removes a record deleted on the backend.
func (v *View[T]) ApplyDelete(id int64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	ok := v.store.ApplyDelete(id)
	v.reconcile()
	return ok
}

// Transition runs action on record id. The store is only patched after the
// backend confirmed the new state; on error the record keeps its status.
// One transition at a time runs per record.
func (v *View[T]) Transition(ctx context.Context, id int64, action string, call TransitionCall[T]) (T, error) {
	var zero T

	v.mu.Lock()
	current, ok := v.store.Get(id)
	if !ok {
		v.mu.Unlock()
		return zero, errors.Wrapf(ErrNotFound, "%s %d", v.spec.Entity, id)
	}
	if v.inflight[id] {
		v.mu.Unlock()
		return zero, errors.Wrapf(ErrTransitionInFlight, "%s %d", v.spec.Entity, id)
	}
	t, offered := v.spec.Allowed(current, action)
	if !offered {
		v.mu.Unlock()
		return zero, errors.Wrapf(ErrTransitionNotOffered, "%s %d: %s from %q", v.spec.Entity, id, action, v.spec.StatusOf(current))
	}
	v.inflight[id] = true
	v.mu.Unlock()

	updated, err := call(ctx, current, t)

	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.inflight, id)
	if err != nil {
		return zero, err
	}
	if updated.RecordID() != id {
		return zero, errors.Errorf("%s %d: confirmed record has id %d", v.spec.Entity, id, updated.RecordID())
	}
	v.store.ApplyUpdate(updated)
	v.reconcile()

	return updated, nil
}

// Bulk runs action over the current selection, one record at a time.
func (v *View[T]) Bulk(ctx context.Context, action string, opts BulkOptions, call TransitionCall[T]) BulkReport {
	ids := v.SelectedIDs()
	report := RunBulk(ctx, action, ids, opts, func(ctx context.Context, id int64) error {
		_, err := v.Transition(ctx, id, action, call)
		return err
	})
	report.Entity = v.spec.Entity
	return report
}

// Snapshot renders the view.
func (v *View[T]) Snapshot() Snapshot[T] {
	v.mu.Lock()
	defer v.mu.Unlock()

	visible := v.visible()
	eligible := v.eligibleIDs()
	rows := make([]Row[T], 0, len(visible))
	for _, r := range visible {
		row := Row[T]{
			Record:     r,
			Selected:   v.selection.Has(r.RecordID()),
			Selectable: v.spec.selectable(r),
			Actions:    v.spec.TransitionsFor(r),
		}
		if v.spec.Remaining != nil {
			pct := v.spec.RemainingPercent(r)
			row.RemainingPercent = &pct
		}
		rows = append(rows, row)
	}

	return Snapshot[T]{
		Entity:         v.spec.Entity,
		Title:          v.spec.Title,
		Query:          v.query,
		Modes:          v.spec.Statuses,
		Rows:           rows,
		Totals:         Summarize(v.spec, ScopeVisible, visible),
		SelectedTotals: Summarize(v.spec, ScopeSelected, v.selected()),
		SelectedIDs:    v.selection.IDs(),
		AllSelected:    v.selection.IsAllSelected(eligible),
		Loaded:         v.store.Loaded(),
		LoadedAt:       v.store.LoadedAt(),
	}
}

func (v *View[T]) visible() []T {
	return Filter(v.spec, v.store.records, v.query)
}

func (v *View[T]) eligibleIDs() []int64 {
	visible := v.visible()
	ids := make([]int64, 0, len(visible))
	for _, r := range visible {
		if v.spec.selectable(r) {
			ids = append(ids, r.RecordID())
		}
	}
	return ids
}

func (v *View[T]) selected() []T {
	out := make([]T, 0, v.selection.Len())
	for _, r := range v.store.records {
		if v.selection.Has(r.RecordID()) {
			out = append(out, r)
		}
	}
	return out
}

func (v *View[T]) reconcile() {
	v.selection.Retain(v.eligibleIDs())
}

func containsID(ids []int64, id int64) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
