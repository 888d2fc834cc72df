package listview

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSum(t *testing.T) {
	weight := func(l lot) *float64 { return l.Weight }

	assert.Equal(t, 0.0, Sum([]lot{}, weight))
	assert.Equal(t, 5.0, Sum([]lot{{ID: 1, Weight: numPtr(5)}, {ID: 2, Weight: nil}}, weight))
	assert.Equal(t, 2.5, Sum([]lot{{ID: 1, Weight: numPtr(math.NaN())}, {ID: 2, Weight: numPtr(2.5)}}, weight))
}

func TestSumDecimal(t *testing.T) {
	price := func(l lot) *decimal.Decimal { return l.Price }
	records := []lot{
		{ID: 1, Price: decPtr("1500000.50")},
		{ID: 2},
		{ID: 3, Price: decPtr("0.25")},
	}

	assert.True(t, decimal.RequireFromString("1500000.75").Equal(SumDecimal(records, price)))
	assert.True(t, decimal.Zero.Equal(SumDecimal([]lot{}, price)))
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 25, Percentage(100, 25))
	assert.Equal(t, 0, Percentage(0, 25))
	assert.Equal(t, 0, Percentage(0, 0))
	assert.Equal(t, 33, Percentage(3, 1))
	assert.Equal(t, 67, Percentage(3, 2))
	assert.Equal(t, 0, Percentage(math.Inf(1), 1))
	assert.Equal(t, 0, Percentage(1e-300, 1))
	assert.Equal(t, 0, Percentage(-1e-300, 1))
	assert.Equal(t, 200, Percentage(1, 2))
}

func TestRemainingPercentPerRecord(t *testing.T) {
	spec := lotSpec()

	assert.Equal(t, 25, spec.RemainingPercent(lot{Available: numPtr(100), Remaining: numPtr(25)}))
	assert.Equal(t, 0, spec.RemainingPercent(lot{Available: numPtr(0), Remaining: numPtr(25)}))
	assert.Equal(t, 0, spec.RemainingPercent(lot{}))
}

func TestSummarize(t *testing.T) {
	spec := lotSpec()
	records := []lot{
		{ID: 1, State: statusPending, Weight: numPtr(10), Available: numPtr(100), Remaining: numPtr(40), Price: decPtr("10")},
		{ID: 2, State: statusCompleted, Weight: nil, Available: numPtr(100), Remaining: numPtr(10), Price: decPtr("2.5")},
	}

	totals := Summarize(spec, ScopeVisible, records)

	assert.Equal(t, ScopeVisible, totals.Scope)
	assert.Equal(t, 2, totals.Count)
	assert.Equal(t, 10.0, totals.Quantities["weight"])
	assert.True(t, decimal.RequireFromString("12.5").Equal(totals.Amounts["price"]))
	assert.Equal(t, map[Status]int{statusPending: 1, statusInProgress: 0, statusCompleted: 1}, totals.ByStatus)
	require.NotNil(t, totals.RemainingPercent)
	assert.Equal(t, 25, *totals.RemainingPercent)
}

func TestSummarizeWithoutLifecycle(t *testing.T) {
	spec := &Spec[lot]{Entity: "plain"}

	totals := Summarize(spec, ScopeSelected, []lot{{ID: 1}})

	assert.Equal(t, 1, totals.Count)
	assert.Nil(t, totals.ByStatus)
	assert.Nil(t, totals.Quantities)
	assert.Nil(t, totals.RemainingPercent)
}
