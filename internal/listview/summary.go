package listview

import (
	"math"

	"github.com/shopspring/decimal"
)

// Sum adds up a numeric field over records. Missing and non-finite values count as zero.
func Sum[T Record](records []T, field func(T) *float64) float64 {
	var total float64
	for _, r := range records {
		total += value(field(r))
	}
	return total
}

// SumDecimal adds up a money field over records. Missing values count as zero.
func SumDecimal[T Record](records []T, field func(T) *decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		if v := field(r); v != nil {
			total = total.Add(*v)
		}
	}
	return total
}

// Percentage returns round(remaining / available * 100), or 0 when available
// is 0 or the ratio does not fit an int.
func Percentage(available, remaining float64) int {
	if available == 0 {
		return 0
	}
	p := math.Round(remaining / available * 100)
	if math.IsNaN(p) || p >= math.MaxInt || p <= math.MinInt {
		return 0
	}
	return int(p)
}

// CountByStatus counts records per status. Entities without a lifecycle yield nil.
func CountByStatus[T Record](spec *Spec[T], records []T) map[Status]int {
	if !spec.HasLifecycle() {
		return nil
	}
	counts := make(map[Status]int, len(spec.Statuses))
	for _, st := range spec.Statuses {
		counts[st] = 0
	}
	for _, r := range records {
		counts[spec.StatusOf(r)]++
	}
	return counts
}

// Scope selects which records a summary is computed over.
type Scope string

const (
	ScopeVisible  Scope = "visible"
	ScopeSelected Scope = "selected"
)

// Totals is the derived summary of a record sequence. It is never persisted.
type Totals struct {
	Scope            Scope                      `json:"scope"`
	Count            int                        `json:"count"`
	Quantities       map[string]float64         `json:"quantities,omitempty"`
	Amounts          map[string]decimal.Decimal `json:"amounts,omitempty"`
	ByStatus         map[Status]int             `json:"by_status,omitempty"`
	RemainingPercent *int                       `json:"remaining_percent,omitempty"`
}

// Summarize computes the totals of records for spec.
func Summarize[T Record](spec *Spec[T], scope Scope, records []T) Totals {
	totals := Totals{
		Scope:    scope,
		Count:    len(records),
		ByStatus: CountByStatus(spec, records),
	}
	if len(spec.Quantities) > 0 {
		totals.Quantities = make(map[string]float64, len(spec.Quantities))
		for _, q := range spec.Quantities {
			totals.Quantities[q.Name] = Sum(records, q.Value)
		}
	}
	if len(spec.Amounts) > 0 {
		totals.Amounts = make(map[string]decimal.Decimal, len(spec.Amounts))
		for _, a := range spec.Amounts {
			totals.Amounts[a.Name] = SumDecimal(records, a.Value)
		}
	}
	if spec.Remaining != nil {
		pct := Percentage(Sum(records, spec.Remaining.Available), Sum(records, spec.Remaining.Remaining))
		totals.RemainingPercent = &pct
	}
	return totals
}

func value(v *float64) float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0
	}
	return *v
}
