package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/oilchain/internal/backend/backendtest"
	"example.com/oilchain/internal/catalog"
	"example.com/oilchain/internal/listview"
)

func TestEveryEntityHasAView(t *testing.T) {
	srv := backendtest.New(t)
	for _, name := range catalog.Names() {
		v, err := NewEntityView(srv.Client(), name)
		require.NoError(t, err, name)
		assert.Equal(t, name, v.Entity())
		assert.NotEmpty(t, v.Title())
	}
}

func TestSelectReplacesSelection(t *testing.T) {
	srv := backendtest.New(t)
	seedExpeditions(srv)
	v, err := NewEntityView(srv.Client(), catalog.Expeditions)
	require.NoError(t, err)
	require.NoError(t, v.Load(context.Background()))

	require.NoError(t, v.Select([]int64{3, 1, 3}))
	assert.Equal(t, []int64{1, 3}, v.SelectedIDs())

	err = v.Select([]int64{1, 4})
	assert.ErrorIs(t, err, listview.ErrNotSelectable)
	assert.Empty(t, v.SelectedIDs())
}

func TestTableFollowsScope(t *testing.T) {
	srv := backendtest.New(t)
	seedExpeditions(srv)
	v, err := NewEntityView(srv.Client(), catalog.Expeditions)
	require.NoError(t, err)
	require.NoError(t, v.Load(context.Background()))
	_, err = v.Toggle(2)
	require.NoError(t, err)

	visible := v.Table(listview.ScopeVisible)
	selected := v.Table(listview.ScopeSelected)

	assert.Len(t, visible.Rows, 3)
	require.Len(t, selected.Rows, 1)
	assert.Equal(t, "BL-002", selected.Rows[0][0])
	assert.Equal(t, "Liste des expéditions", selected.Title)
}
