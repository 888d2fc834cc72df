package listview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleLots() []lot {
	return []lot{
		{ID: 1, Name: "Dupont", Code: "LOT-001", State: statusPending, Phone: "034 11 222 33"},
		{ID: 2, Name: "Martin", Code: "LOT-002", State: statusCompleted, Notes: strPtr("ylang extra")},
		{ID: 3, Name: "Rakoto", Code: "LOT-003", State: statusPending, Notes: strPtr("girofle")},
		{ID: 4, Name: "Dupuis", Code: "LOT-004", State: statusInProgress},
	}
}

func TestFilterPartitionOnly(t *testing.T) {
	spec := lotSpec()
	store := []lot{{ID: 1, State: statusPending}, {ID: 2, State: statusCompleted}}

	visible := Filter(spec, store, Query{Partition: statusPending})

	require.Len(t, visible, 1)
	assert.Equal(t, int64(1), visible[0].ID)
}

func TestFilterSearchIsCaseInsensitiveSubstring(t *testing.T) {
	spec := lotSpec()
	records := []lot{{ID: 1, Name: "Dupont"}, {ID: 2, Name: "Martin"}}

	for _, term := range []string{"dup", "DUP", "uPo"} {
		visible := Filter(spec, records, Query{Search: term})
		require.Len(t, visible, 1, term)
		assert.Equal(t, "Dupont", visible[0].Name)
	}
}

func TestFilterEmptyAndWhitespaceTerm(t *testing.T) {
	spec := lotSpec()
	records := sampleLots()

	assert.Equal(t, records, Filter(spec, records, Query{}))
	assert.Equal(t, records, Filter(spec, records, Query{Search: "   \t"}))
	assert.Equal(t, []int64{1, 3}, ids(Filter(spec, records, Query{Search: "  ", Partition: statusPending})))
}

func TestFilterMatchesAnyDeclaredField(t *testing.T) {
	spec := lotSpec()
	records := sampleLots()

	assert.Equal(t, []int64{2}, ids(Filter(spec, records, Query{Search: "ylang"})))
	assert.Equal(t, []int64{3}, ids(Filter(spec, records, Query{Search: "lot-003"})))
	assert.Equal(t, []int64{1}, ids(Filter(spec, records, Query{Search: "222"})))
	assert.Equal(t, []int64{1, 4}, ids(Filter(spec, records, Query{Search: "dup"})))
}

func TestFilterMissingFieldDoesNotExcludeRecord(t *testing.T) {
	spec := lotSpec()
	records := []lot{{ID: 7, Name: "Ravelo", Notes: nil}}

	assert.Equal(t, []int64{7}, ids(Filter(spec, records, Query{Search: "rav"})))
	assert.Empty(t, Filter(spec, records, Query{Search: "notes"}))
}

func TestFilterIsOrderedSubsequenceAndIdempotent(t *testing.T) {
	spec := lotSpec()
	records := sampleLots()
	queries := []Query{
		{},
		{Search: "o"},
		{Search: "LOT"},
		{Search: "zzz"},
		{Partition: statusPending},
		{Search: "r", Partition: statusPending},
	}

	for _, q := range queries {
		once := Filter(spec, records, q)
		twice := Filter(spec, once, q)
		assert.Equal(t, once, twice, "idempotence for %+v", q)

		// subsequence preserving order
		pos := 0
		for _, r := range once {
			for pos < len(records) && records[pos].ID != r.ID {
				pos++
			}
			require.Less(t, pos, len(records), "record %d out of order for %+v", r.ID, q)
			pos++
		}
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	spec := lotSpec()
	records := sampleLots()
	before := append([]lot(nil), records...)

	_ = Filter(spec, records, Query{Search: "dup", Partition: statusPending})

	assert.Equal(t, before, records)
}

func TestMatches(t *testing.T) {
	spec := lotSpec()
	r := lot{ID: 1, Name: "Dupont", State: statusPending}

	assert.True(t, Matches(spec, r, Query{Search: "DUP"}))
	assert.False(t, Matches(spec, r, Query{Search: "DUP", Partition: statusCompleted}))
	assert.True(t, Matches(spec, r, Query{}))
}
