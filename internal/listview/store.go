package listview

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// FetchFunc loads the full collection of an entity from the backend.
type FetchFunc[T Record] func(ctx context.Context) ([]T, error)

// Store is the in-memory mirror of the backend collection for one entity.
// It is not safe for concurrent use; View serialises access to it.
type Store[T Record] struct {
	entity   string
	records  []T
	index    map[int64]int
	loaded   bool
	loadedAt time.Time
}

// NewStore creates an empty store
func NewStore[T Record](entity string) *Store[T] {
	return &Store[T]{
		entity: entity,
		index:  make(map[int64]int),
	}
}

// Load fetches the full collection and replaces the store wholesale.
// On failure the previous contents are retained.
func (s *Store[T]) Load(ctx context.Context, fetch FetchFunc[T]) error {
	records, err := fetch(ctx)
	if err != nil {
		return &FetchError{Entity: s.entity, Err: err}
	}
	if err := s.Replace(records); err != nil {
		return &FetchError{Entity: s.entity, Err: err}
	}
	return nil
}

// Replace swaps the contents for records. Identifiers must be unique.
func (s *Store[T]) Replace(records []T) error {
	index := make(map[int64]int, len(records))
	for i, r := range records {
		if _, dup := index[r.RecordID()]; dup {
			return errors.Wrapf(ErrDuplicateID, "id %d", r.RecordID())
		}
		index[r.RecordID()] = i
	}

	s.records = append(make([]T, 0, len(records)), records...)
	s.index = index
	s.loaded = true
	s.loadedAt = time.Now()
	return nil
}

// ApplyCreate appends a record created on the backend.
func (s *Store[T]) ApplyCreate(r T) {
	if i, ok := s.index[r.RecordID()]; ok {
		// the backend already handed this id out; keep the position
		s.records[i] = r
		return
	}
	s.index[r.RecordID()] = len(s.records)
	s.records = append(s.records, r)
}

// ApplyUpdate replaces the entry with the same identifier. Unknown ids are ignored.
func (s *Store[T]) ApplyUpdate(r T) bool {
	i, ok := s.index[r.RecordID()]
	if !ok {
		return false
	}
	s.records[i] = r
	return true
}

// ApplyDelete removes the entry with id. Unknown ids are ignored.
func (s *Store[T]) ApplyDelete(id int64) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.records = append(s.records[:i], s.records[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.records); j++ {
		s.index[s.records[j].RecordID()] = j
	}
	return true
}

// Get returns the record with id.
func (s *Store[T]) Get(id int64) (T, bool) {
	i, ok := s.index[id]
	if !ok {
		var zero T
		return zero, false
	}
	return s.records[i], true
}

// Records returns a copy of the contents in store order.
func (s *Store[T]) Records() []T {
	return append(make([]T, 0, len(s.records)), s.records...)
}

// Len returns the number of records held.
func (s *Store[T]) Len() int {
	return len(s.records)
}

// Loaded reports whether at least one load succeeded.
func (s *Store[T]) Loaded() bool {
	return s.loaded
}

// LoadedAt returns the time of the last successful load.
func (s *Store[T]) LoadedAt() time.Time {
	return s.loadedAt
}
