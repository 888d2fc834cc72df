package listview

import (
	"github.com/shopspring/decimal"
)

// Status is a value drawn from an entity's closed status enumeration.
type Status string

// NoPartition disables status partitioning of a view.
const NoPartition Status = ""

// Record is an identified business entity held by a Store.
type Record interface {
	RecordID() int64
}

// SearchField is a display field the free-text search looks into.
// Value returns "" when the field is missing on a record.
type SearchField[T Record] struct {
	Name  string
	Value func(T) string
}

// Quantity is a numeric field summed by the aggregator. A nil result counts as zero.
type Quantity[T Record] struct {
	Name  string
	Value func(T) *float64
}

// Amount is a money field summed by the aggregator. A nil result counts as zero.
type Amount[T Record] struct {
	Name  string
	Value func(T) *decimal.Decimal
}

// Remaining declares the available/remaining pair used for progress displays.
type Remaining[T Record] struct {
	Available func(T) *float64
	Remaining func(T) *float64
}

// Transition is an action offered by a status and the status it leads to.
type Transition struct {
	Action string `json:"action"`
	To     Status `json:"to"`
}

// Column describes one column of a tabular export.
type Column[T Record] struct {
	Label string
	Width float64
	Cell  func(T) string
}

// Spec parameterises the generic engine for one entity type.
type Spec[T Record] struct {
	Entity string
	Title  string

	SearchFields []SearchField[T]

	// Status is nil for entities without a lifecycle.
	Status           func(T) Status
	Statuses         []Status
	DefaultPartition Status
	Transitions      map[Status][]Transition

	// Selectable restricts which visible records may join the selection.
	// A nil predicate makes every visible record selectable.
	Selectable func(T) bool

	Quantities []Quantity[T]
	Amounts    []Amount[T]
	Remaining  *Remaining[T]

	Columns []Column[T]
}

// StatusOf returns the status of r, or NoPartition when the entity has none.
func (s *Spec[T]) StatusOf(r T) Status {
	if s.Status == nil {
		return NoPartition
	}
	return s.Status(r)
}

// HasLifecycle reports whether the entity carries a status field.
func (s *Spec[T]) HasLifecycle() bool {
	return s.Status != nil && len(s.Statuses) > 0
}

// ValidPartition reports whether p can be used as a view-mode for this entity.
func (s *Spec[T]) ValidPartition(p Status) bool {
	if p == NoPartition {
		return true
	}
	for _, st := range s.Statuses {
		if st == p {
			return true
		}
	}
	return false
}

// TransitionsFor lists the actions offered by the current status of r.
func (s *Spec[T]) TransitionsFor(r T) []Transition {
	if s.Transitions == nil {
		return nil
	}
	return s.Transitions[s.StatusOf(r)]
}

// Allowed returns the transition for action when the current status of r offers it.
func (s *Spec[T]) Allowed(r T, action string) (Transition, bool) {
	for _, t := range s.TransitionsFor(r) {
		if t.Action == action {
			return t, true
		}
	}
	return Transition{}, false
}

// Actions lists every action name declared by the transition table.
func (s *Spec[T]) Actions() []string {
	seen := make(map[string]struct{})
	var actions []string
	for _, st := range s.Statuses {
		for _, t := range s.Transitions[st] {
			if _, ok := seen[t.Action]; ok {
				continue
			}
			seen[t.Action] = struct{}{}
			actions = append(actions, t.Action)
		}
	}
	return actions
}

func (s *Spec[T]) selectable(r T) bool {
	if s.Selectable == nil {
		return true
	}
	return s.Selectable(r)
}

// RemainingPercent returns the remaining share of r as a rounded percentage.
func (s *Spec[T]) RemainingPercent(r T) int {
	if s.Remaining == nil {
		return 0
	}
	return Percentage(value(s.Remaining.Available(r)), value(s.Remaining.Remaining(r)))
}
