package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCountersAreConcurrencySafe(t *testing.T) {
	m := NewMetrics()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncrementCounter("views.opened")
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), m.Snapshot().Counters["views.opened"])
}

func TestTimers(t *testing.T) {
	m := NewMetrics()
	m.RecordTimer("backend.list", 10*time.Millisecond)
	m.RecordTimer("backend.list", 30*time.Millisecond)

	timer := m.Snapshot().Timers["backend.list"]

	assert.Equal(t, int64(2), timer.Count)
	assert.Equal(t, int64(10), timer.MinTimeMs)
	assert.Equal(t, int64(30), timer.MaxTimeMs)
	assert.Equal(t, 20.0, timer.AverageTimeMs)
}

func TestObserveTracksErrorRate(t *testing.T) {
	m := NewMetrics()
	start := time.Now()
	m.Observe("bulk.receive", start, nil)
	m.Observe("bulk.receive", start, errors.New("failed"))
	m.Observe("bulk.receive", start, nil)
	m.Observe("bulk.receive", start, nil)

	rate := m.Snapshot().ErrorRates["bulk.receive"]

	assert.Equal(t, int64(4), rate.Total)
	assert.Equal(t, int64(1), rate.Errors)
	assert.Equal(t, 25.0, rate.ErrorRate)
}

func TestHealth(t *testing.T) {
	m := NewMetrics()
	assert.True(t, m.Healthy())

	m.SetHealth("backend", true)
	m.SetHealth("redis", false)
	assert.False(t, m.Healthy())

	m.SetHealth("redis", true)
	assert.True(t, m.Healthy())
	m.SetGauge("sessions", 3)
	assert.Equal(t, int64(3), m.Snapshot().Gauges["sessions"])
}
