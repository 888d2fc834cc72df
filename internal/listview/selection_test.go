package listview

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectionToggle(t *testing.T) {
	s := NewSelection()

	assert.True(t, s.Toggle(3))
	assert.True(t, s.Has(3))
	assert.False(t, s.Toggle(3))
	assert.False(t, s.Has(3))
	assert.Equal(t, 0, s.Len())
}

func TestSelectAllThenIsAllSelected(t *testing.T) {
	eligible := []int64{4, 1, 9}
	s := NewSelection()

	s.SelectAll(eligible)

	assert.True(t, s.IsAllSelected(eligible))
	assert.Equal(t, []int64{1, 4, 9}, s.IDs())

	for _, id := range eligible {
		s.SelectAll(eligible)
		s.Toggle(id)
		assert.False(t, s.IsAllSelected(eligible), "deselecting %d clears select-all", id)
	}
}

func TestSelectAllReplacesPreviousSelection(t *testing.T) {
	s := NewSelection()
	s.Toggle(42)

	s.SelectAll([]int64{1, 2})

	assert.False(t, s.Has(42))
	assert.Equal(t, []int64{1, 2}, s.IDs())
}

func TestIsAllSelectedRequiresNonEmptyExactMatch(t *testing.T) {
	s := NewSelection()

	assert.False(t, s.IsAllSelected(nil))
	assert.False(t, s.IsAllSelected([]int64{}))

	s.SelectAll([]int64{1, 2})
	assert.False(t, s.IsAllSelected([]int64{1, 2, 3}))
	assert.False(t, s.IsAllSelected([]int64{1}))
	assert.True(t, s.IsAllSelected([]int64{2, 1}))
}

func TestSelectionRetainAndClear(t *testing.T) {
	s := NewSelection()
	s.SelectAll([]int64{1, 2, 3, 4})

	dropped := s.Retain([]int64{2, 4, 8})

	assert.Equal(t, []int64{1, 3}, dropped)
	assert.Equal(t, []int64{2, 4}, s.IDs())

	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.IDs())
}
