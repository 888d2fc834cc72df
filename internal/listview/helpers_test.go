package listview

import (
	"github.com/shopspring/decimal"
)

type lot struct {
	ID        int64
	Name      string
	Code      string
	Notes     *string
	Phone     string
	State     Status
	Weight    *float64
	Available *float64
	Remaining *float64
	Price     *decimal.Decimal
}

func (l lot) RecordID() int64 { return l.ID }

const (
	statusPending    Status = "pending"
	statusInProgress Status = "in_progress"
	statusCompleted  Status = "completed"
)

func strPtr(s string) *string { return &s }

func numPtr(f float64) *float64 { return &f }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func lotSpec() *Spec[lot] {
	return &Spec[lot]{
		Entity: "lots",
		Title:  "Lots",
		SearchFields: []SearchField[lot]{
			{Name: "name", Value: func(l lot) string { return l.Name }},
			{Name: "code", Value: func(l lot) string { return l.Code }},
			{Name: "notes", Value: func(l lot) string {
				if l.Notes == nil {
					return ""
				}
				return *l.Notes
			}},
			{Name: "phone", Value: func(l lot) string { return l.Phone }},
		},
		Status:   func(l lot) Status { return l.State },
		Statuses: []Status{statusPending, statusInProgress, statusCompleted},
		Transitions: map[Status][]Transition{
			statusPending:    {{Action: "start", To: statusInProgress}},
			statusInProgress: {{Action: "complete", To: statusCompleted}},
		},
		Selectable: func(l lot) bool { return l.State == statusPending },
		Quantities: []Quantity[lot]{
			{Name: "weight", Value: func(l lot) *float64 { return l.Weight }},
		},
		Amounts: []Amount[lot]{
			{Name: "price", Value: func(l lot) *decimal.Decimal { return l.Price }},
		},
		Remaining: &Remaining[lot]{
			Available: func(l lot) *float64 { return l.Available },
			Remaining: func(l lot) *float64 { return l.Remaining },
		},
	}
}

func ids(records []lot) []int64 {
	out := make([]int64, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}
