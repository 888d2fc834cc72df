package metrics

import (
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// TimerMetric captures timing information
type TimerMetric struct {
	Count         int64   `json:"count"`
	TotalTimeMs   int64   `json:"total_time_ms"`
	AverageTimeMs float64 `json:"average_time_ms"`
	MinTimeMs     int64   `json:"min_time_ms"`
	MaxTimeMs     int64   `json:"max_time_ms"`
}

// ErrorRateMetric captures error rates
type ErrorRateMetric struct {
	Total     int64   `json:"total"`
	Errors    int64   `json:"errors"`
	ErrorRate float64 `json:"error_rate"`
}

// Snapshot is the JSON view of every metric
type Snapshot struct {
	UptimeSeconds int64                      `json:"uptime_seconds"`
	Counters      map[string]int64           `json:"counters"`
	Gauges        map[string]int64           `json:"gauges"`
	Timers        map[string]TimerMetric     `json:"timers"`
	ErrorRates    map[string]ErrorRateMetric `json:"error_rates"`
	HealthChecks  map[string]bool            `json:"health_checks"`
}

type timer struct {
	count   int64
	totalMs int64
	minMs   int64
	maxMs   int64
}

type errorRate struct {
	total  int64
	errors int64
}

// Metrics is the in-process metrics collector served on /metrics
type Metrics struct {
	mu         sync.RWMutex
	counters   map[string]*int64
	gauges     map[string]*int64
	timers     map[string]*timer
	errorRates map[string]*errorRate
	health     map[string]*int64
	startTime  time.Time
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	return &Metrics{
		counters:   make(map[string]*int64),
		gauges:     make(map[string]*int64),
		timers:     make(map[string]*timer),
		errorRates: make(map[string]*errorRate),
		health:     make(map[string]*int64),
		startTime:  time.Now(),
	}
}

// slot returns the entry for name, creating it on first use.
func slot[V any](m *Metrics, table map[string]*V, name string, create func() *V) *V {
	m.mu.RLock()
	v, ok := table[name]
	m.mu.RUnlock()
	if ok {
		return v
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok = table[name]; !ok {
		v = create()
		table[name] = v
	}
	return v
}

func newInt() *int64 { return new(int64) }

// IncrementCounter increments a counter by 1
func (m *Metrics) IncrementCounter(name string) {
	m.IncrementCounterBy(name, 1)
}

// IncrementCounterBy increments a counter by the specified value
func (m *Metrics) IncrementCounterBy(name string, value int64) {
	atomic.AddInt64(slot(m, m.counters, name, newInt), value)
}

// SetGauge sets a gauge to a specific value
func (m *Metrics) SetGauge(name string, value int64) {
	atomic.StoreInt64(slot(m, m.gauges, name, newInt), value)
}

// RecordTimer records a timing measurement
func (m *Metrics) RecordTimer(name string, d time.Duration) {
	ms := d.Milliseconds()
	t := slot(m, m.timers, name, func() *timer { return &timer{minMs: math.MaxInt64} })

	atomic.AddInt64(&t.count, 1)
	atomic.AddInt64(&t.totalMs, ms)
	for {
		cur := atomic.LoadInt64(&t.minMs)
		if ms >= cur || atomic.CompareAndSwapInt64(&t.minMs, cur, ms) {
			break
		}
	}
	for {
		cur := atomic.LoadInt64(&t.maxMs)
		if ms <= cur || atomic.CompareAndSwapInt64(&t.maxMs, cur, ms) {
			break
		}
	}
}

// RecordSuccess records a successful operation for error rate tracking
func (m *Metrics) RecordSuccess(name string) {
	m.recordErrorRate(name, false)
}

// RecordError records an error for error rate tracking
func (m *Metrics) RecordError(name string) {
	m.recordErrorRate(name, true)
}

func (m *Metrics) recordErrorRate(name string, isError bool) {
	er := slot(m, m.errorRates, name, func() *errorRate { return &errorRate{} })
	atomic.AddInt64(&er.total, 1)
	if isError {
		atomic.AddInt64(&er.errors, 1)
	}
}

// Observe records the duration and outcome of one operation started at start.
func (m *Metrics) Observe(name string, start time.Time, err error) {
	m.RecordTimer(name, time.Since(start))
	if err != nil {
		m.RecordError(name)
		return
	}
	m.RecordSuccess(name)
}

// SetHealth sets the health status of a component
func (m *Metrics) SetHealth(component string, healthy bool) {
	var v int64
	if healthy {
		v = 1
	}
	atomic.StoreInt64(slot(m, m.health, component, newInt), v)
}

// Healthy reports whether every registered component is healthy
func (m *Metrics) Healthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, h := range m.health {
		if atomic.LoadInt64(h) == 0 {
			return false
		}
	}
	return true
}

// Snapshot returns all metrics in a structured format
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Snapshot{
		UptimeSeconds: int64(time.Since(m.startTime).Seconds()),
		Counters:      make(map[string]int64, len(m.counters)),
		Gauges:        make(map[string]int64, len(m.gauges)),
		Timers:        make(map[string]TimerMetric, len(m.timers)),
		ErrorRates:    make(map[string]ErrorRateMetric, len(m.errorRates)),
		HealthChecks:  make(map[string]bool, len(m.health)),
	}
	for name, c := range m.counters {
		s.Counters[name] = atomic.LoadInt64(c)
	}
	for name, g := range m.gauges {
		s.Gauges[name] = atomic.LoadInt64(g)
	}
	for name, t := range m.timers {
		count := atomic.LoadInt64(&t.count)
		total := atomic.LoadInt64(&t.totalMs)
		tm := TimerMetric{
			Count:       count,
			TotalTimeMs: total,
			MinTimeMs:   atomic.LoadInt64(&t.minMs),
			MaxTimeMs:   atomic.LoadInt64(&t.maxMs),
		}
		if count > 0 {
			tm.AverageTimeMs = float64(total) / float64(count)
		}
		s.Timers[name] = tm
	}
	for name, er := range m.errorRates {
		total := atomic.LoadInt64(&er.total)
		errs := atomic.LoadInt64(&er.errors)
		em := ErrorRateMetric{Total: total, Errors: errs}
		if total > 0 {
			em.ErrorRate = float64(errs) / float64(total) * 100
		}
		s.ErrorRates[name] = em
	}
	for name, h := range m.health {
		s.HealthChecks[name] = atomic.LoadInt64(h) > 0
	}
	return s
}
