package dashboard

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/oilchain/internal/backend"
	"example.com/oilchain/internal/models"
)

type fakeFetcher struct {
	calls int32
	fail  atomic.Bool
	gate  chan struct{}
}

func (f *fakeFetcher) Dashboard(ctx context.Context) (backend.Dashboard, error) {
	n := atomic.AddInt32(&f.calls, 1)
	if f.gate != nil {
		<-f.gate
	}
	if f.fail.Load() {
		return backend.Dashboard{}, errors.New("backend down")
	}
	return backend.Dashboard{
		Solde: models.Solde{Solde: decimal.NewFromInt(int64(n))},
		Stats: models.Stats{Expeditions: int(n)},
	}, nil
}

func TestRefreshNotifiesSubscribers(t *testing.T) {
	hub := NewHub(&fakeFetcher{}, time.Second)
	var got []int
	unsubscribe := hub.Subscribe(func(d backend.Dashboard) { got = append(got, d.Stats.Expeditions) })

	require.NoError(t, hub.Refresh(context.Background()))
	unsubscribe()
	unsubscribe()
	require.NoError(t, hub.Refresh(context.Background()))

	assert.Equal(t, []int{1}, got)
	d, loaded := hub.Snapshot()
	assert.True(t, loaded)
	assert.Equal(t, 2, d.Stats.Expeditions)
}

func TestRefreshFailureKeepsFigures(t *testing.T) {
	f := &fakeFetcher{}
	hub := NewHub(f, time.Second)
	require.NoError(t, hub.Refresh(context.Background()))

	f.fail.Store(true)
	err := hub.Refresh(context.Background())

	require.Error(t, err)
	assert.Equal(t, err, hub.LastError())
	d, loaded := hub.Snapshot()
	assert.True(t, loaded)
	assert.Equal(t, 1, d.Stats.Expeditions)
}

func TestInvalidateCoalesces(t *testing.T) {
	f := &fakeFetcher{}
	hub := NewHub(f, time.Second)
	for i := 0; i < 10; i++ {
		hub.Invalidate()
	}

	var mu sync.Mutex
	refreshed := 0
	hub.Subscribe(func(backend.Dashboard) {
		mu.Lock()
		refreshed++
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return refreshed == 1
	}, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, int32(1), atomic.LoadInt32(&f.calls))
}

func TestInvalidateDuringRefreshSchedulesOneMore(t *testing.T) {
	f := &fakeFetcher{gate: make(chan struct{})}
	hub := NewHub(f, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	hub.Invalidate()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&f.calls) == 1 }, time.Second, 5*time.Millisecond)
	hub.Invalidate()
	hub.Invalidate()
	f.gate <- struct{}{}
	f.gate <- struct{}{}

	require.Eventually(t, func() bool {
		d, _ := hub.Snapshot()
		return d.Stats.Expeditions == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(2), atomic.LoadInt32(&f.calls))
}
