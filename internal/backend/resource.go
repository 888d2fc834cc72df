package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pkg/errors"

	"example.com/oilchain/internal/listview"
)

// Resource is the REST collection of one entity on the backend
type Resource[T listview.Record] struct {
	client *Client
	path   string
}

// NewResource binds an entity collection path, e.g. "expeditions".
func NewResource[T listview.Record](client *Client, path string) *Resource[T] {
	return &Resource[T]{client: client, path: path}
}

// Path returns the collection path
func (r *Resource[T]) Path() string {
	return r.path
}

func (r *Resource[T]) collection() string {
	return fmt.Sprintf("/%s/", r.path)
}

func (r *Resource[T]) item(id int64) string {
	return fmt.Sprintf("/%s/%d/", r.path, id)
}

// List fetches the full collection in backend order
func (r *Resource[T]) List(ctx context.Context) ([]T, error) {
	var records []T
	if err := r.client.Do(ctx, http.MethodGet, r.collection(), nil, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

// Get fetches one record
func (r *Resource[T]) Get(ctx context.Context, id int64) (T, error) {
	var record T
	if err := r.client.Do(ctx, http.MethodGet, r.item(id), nil, &record); err != nil {
		return record, err
	}
	if record.RecordID() != id {
		return record, &NetworkError{Method: http.MethodGet, Path: r.item(id), Err: errors.Errorf("backend returned record %d", record.RecordID())}
	}
	return record, nil
}

// Create posts a new record and returns it as stored by the backend. A
// success answer without a record yields ErrNoRecord; the creation itself
// went through.
func (r *Resource[T]) Create(ctx context.Context, payload interface{}) (T, error) {
	var record T
	if err := r.client.Do(ctx, http.MethodPost, r.collection(), payload, &record); err != nil {
		return record, err
	}
	if record.RecordID() == 0 {
		return record, ErrNoRecord
	}
	return record, nil
}

// Update replaces a record and returns it as stored by the backend
func (r *Resource[T]) Update(ctx context.Context, id int64, payload interface{}) (T, error) {
	var record T
	if err := r.client.Do(ctx, http.MethodPut, r.item(id), payload, &record); err != nil {
		return record, err
	}
	return r.confirmed(ctx, id, record)
}

// confirmed fetches the stored state of id when a mutation answered with a
// bare success flag.
func (r *Resource[T]) confirmed(ctx context.Context, id int64, record T) (T, error) {
	if record.RecordID() != 0 {
		return record, nil
	}
	return r.Get(ctx, id)
}

// Delete removes a record
func (r *Resource[T]) Delete(ctx context.Context, id int64) error {
	return r.client.Do(ctx, http.MethodDelete, r.item(id), nil, nil)
}

// Transition calls the status action endpoint of a record and returns the
// record in its new state.
func (r *Resource[T]) Transition(ctx context.Context, id int64, action string, payload interface{}) (T, error) {
	var record T
	path := fmt.Sprintf("/%s/%d/%s/", r.path, id, action)
	if err := r.client.Do(ctx, http.MethodPost, path, payload, &record); err != nil {
		return record, err
	}
	return r.confirmed(ctx, id, record)
}
