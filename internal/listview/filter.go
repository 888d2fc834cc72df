package listview

import (
	"strings"
)

// Query is the filter state of a view: a free-text term and a status partition.
type Query struct {
	Search    string `json:"search"`
	Partition Status `json:"mode,omitempty"`
}

// Term returns the normalised search term. Whitespace-only terms are empty.
func (q Query) Term() string {
	return strings.ToLower(strings.TrimSpace(q.Search))
}

// Filter derives the visible subsequence of records for q, preserving order.
// It has no side effects.
func Filter[T Record](spec *Spec[T], records []T, q Query) []T {
	term := q.Term()
	out := make([]T, 0, len(records))
	for _, r := range records {
		if !inPartition(spec, r, q.Partition) {
			continue
		}
		if term != "" && !matchesTerm(spec, r, term) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Matches reports whether a single record passes q.
func Matches[T Record](spec *Spec[T], r T, q Query) bool {
	if !inPartition(spec, r, q.Partition) {
		return false
	}
	term := q.Term()
	return term == "" || matchesTerm(spec, r, term)
}

func inPartition[T Record](spec *Spec[T], r T, p Status) bool {
	return p == NoPartition || spec.StatusOf(r) == p
}

func matchesTerm[T Record](spec *Spec[T], r T, term string) bool {
	for _, f := range spec.SearchFields {
		v := f.Value(r)
		if v == "" {
			continue
		}
		if strings.Contains(strings.ToLower(v), term) {
			return true
		}
	}
	return false
}
