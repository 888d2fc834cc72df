package listview

import (
	"sort"
)

// Selection tracks the identifiers picked for a batch action.
type Selection struct {
	ids map[int64]struct{}
}

// NewSelection creates an empty selection
func NewSelection() *Selection {
	return &Selection{ids: make(map[int64]struct{})}
}

// Toggle adds id when absent and removes it when present.
// It reports whether id is selected afterwards.
func (s *Selection) Toggle(id int64) bool {
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// SelectAll replaces the selection with exactly eligible.
func (s *Selection) SelectAll(eligible []int64) {
	s.ids = make(map[int64]struct{}, len(eligible))
	for _, id := range eligible {
		s.ids[id] = struct{}{}
	}
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.ids = make(map[int64]struct{})
}

// IsAllSelected reports whether the selection is a non-empty exact match of eligible.
func (s *Selection) IsAllSelected(eligible []int64) bool {
	if len(s.ids) == 0 {
		return false
	}
	want := make(map[int64]struct{}, len(eligible))
	for _, id := range eligible {
		want[id] = struct{}{}
	}
	if len(want) != len(s.ids) {
		return false
	}
	for id := range want {
		if _, ok := s.ids[id]; !ok {
			return false
		}
	}
	return true
}

// Retain drops every selected id that is not in eligible and returns the dropped ids.
func (s *Selection) Retain(eligible []int64) []int64 {
	keep := make(map[int64]struct{}, len(eligible))
	for _, id := range eligible {
		keep[id] = struct{}{}
	}
	var dropped []int64
	for id := range s.ids {
		if _, ok := keep[id]; !ok {
			delete(s.ids, id)
			dropped = append(dropped, id)
		}
	}
	sort.Slice(dropped, func(i, j int) bool { return dropped[i] < dropped[j] })
	return dropped
}

// Has reports whether id is selected.
func (s *Selection) Has(id int64) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of selected ids.
func (s *Selection) Len() int {
	return len(s.ids)
}

// IDs returns the selected ids in ascending order.
func (s *Selection) IDs() []int64 {
	ids := make([]int64, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
