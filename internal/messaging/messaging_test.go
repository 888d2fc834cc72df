package messaging

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/oilchain/config"
)

func TestNewChange(t *testing.T) {
	c, err := NewChange("expeditions", 4, KindTransitioned, map[string]interface{}{"id": 4, "statut": "received"})

	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "expeditions", c.Entity)
	assert.JSONEq(t, `{"id":4,"statut":"received"}`, string(c.Record))

	deleted, err := NewChange("expeditions", 4, KindDeleted, nil)
	require.NoError(t, err)
	assert.Nil(t, deleted.Record)
	assert.NotEqual(t, c.ID, deleted.ID)

	data, err := json.Marshal(deleted)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"record"`)
}

func TestMemoryBusFansOut(t *testing.T) {
	bus := NewMemoryBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := make(chan Change, 1)
	second := make(chan Change, 1)
	go bus.Consume(ctx, func(_ context.Context, c Change) error { first <- c; return nil })
	go bus.Consume(ctx, func(_ context.Context, c Change) error { second <- c; return nil })
	require.Eventually(t, func() bool { return bus.Consumers() == 2 }, time.Second, 5*time.Millisecond)

	change, err := NewChange("receptions", 9, KindCreated, nil)
	require.NoError(t, err)
	require.NoError(t, bus.Publish(ctx, change))

	for _, ch := range []chan Change{first, second} {
		select {
		case got := <-ch:
			assert.Equal(t, change.ID, got.ID)
		case <-time.After(time.Second):
			t.Fatal("change not delivered")
		}
	}
}

func TestMemoryBusConsumeStopsWithContext(t *testing.T) {
	bus := NewMemoryBus()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bus.Consume(ctx, func(context.Context, Change) error { return nil }) }()
	require.Eventually(t, func() bool { return bus.Consumers() == 1 }, time.Second, 5*time.Millisecond)

	cancel()

	assert.NoError(t, <-done)
	assert.Equal(t, 0, bus.Consumers())
}

func TestNewServiceBusRequiresConnectionString(t *testing.T) {
	_, err := NewServiceBus(config.AzureConfig{QueueName: "oilchain-changes"}, "indexer", "worker")

	assert.Error(t, err)
}
