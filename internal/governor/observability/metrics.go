// Package observability provides in-memory metrics.
package observability

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics records governor measurements.
type Metrics interface {
	IncSend(outcome string, channel string)
	IncAdmissionDenied(reason string)
	IncDrain(result string)
	IncWarning(kind string)
	ObserveLatency(op string, d time.Duration)
	SetGauge(name string, value int64)
}

// InMemoryMetrics stores counters, gauges, and latency summaries.
type InMemoryMetrics struct {
	counters  sync.Map
	gauges    sync.Map
	latencies sync.Map
}

type latencySummary struct {
	count      atomic.Int64
	totalNanos atomic.Int64
	maxNanos   atomic.Int64
}

// NewInMemoryMetrics constructs an in-memory metrics recorder.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{}
}

// IncSend increments a send outcome counter.
func (m *InMemoryMetrics) IncSend(outcome string, channel string) {
	if m == nil {
		return
	}
	m.incCounter(fmt.Sprintf("send|%s|%s", outcome, channel))
}

// IncAdmissionDenied increments an admission denial counter.
func (m *InMemoryMetrics) IncAdmissionDenied(reason string) {
	if m == nil {
		return
	}
	m.incCounter(fmt.Sprintf("admission_denied|%s", reason))
}

// IncDrain increments a drain result counter.
func (m *InMemoryMetrics) IncDrain(result string) {
	if m == nil {
		return
	}
	m.incCounter(fmt.Sprintf("drain|%s", result))
}

// IncWarning increments a warning counter by type.
func (m *InMemoryMetrics) IncWarning(kind string) {
	if m == nil {
		return
	}
	m.incCounter(fmt.Sprintf("warning|%s", kind))
}

// ObserveLatency tracks latency measurements.
func (m *InMemoryMetrics) ObserveLatency(op string, d time.Duration) {
	if m == nil {
		return
	}
	entry := m.getLatency("latency|" + op)
	if entry == nil {
		return
	}
	nanos := d.Nanoseconds()
	entry.count.Add(1)
	entry.totalNanos.Add(nanos)
	for {
		current := entry.maxNanos.Load()
		if nanos <= current {
			break
		}
		if entry.maxNanos.CompareAndSwap(current, nanos) {
			break
		}
	}
}

// SetGauge records a point-in-time value such as queue depth or risk score.
func (m *InMemoryMetrics) SetGauge(name string, value int64) {
	if m == nil {
		return
	}
	entry, _ := m.gauges.LoadOrStore(name, &atomic.Int64{})
	if gauge, ok := entry.(*atomic.Int64); ok {
		gauge.Store(value)
	}
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *InMemoryMetrics) Snapshot() map[string]any {
	out := map[string]any{}
	if m == nil {
		return out
	}
	m.counters.Range(func(key, value any) bool {
		if counter, ok := value.(*atomic.Int64); ok {
			out[key.(string)] = counter.Load()
		}
		return true
	})
	m.gauges.Range(func(key, value any) bool {
		if gauge, ok := value.(*atomic.Int64); ok {
			out["gauge|"+key.(string)] = gauge.Load()
		}
		return true
	})
	m.latencies.Range(func(key, value any) bool {
		if entry, ok := value.(*latencySummary); ok {
			count := entry.count.Load()
			avg := int64(0)
			if count > 0 {
				avg = entry.totalNanos.Load() / count
			}
			out[key.(string)] = map[string]int64{
				"count":    count,
				"avgNanos": avg,
				"maxNanos": entry.maxNanos.Load(),
			}
		}
		return true
	})
	return out
}

func (m *InMemoryMetrics) incCounter(key string) {
	entry, _ := m.counters.LoadOrStore(key, &atomic.Int64{})
	if counter, ok := entry.(*atomic.Int64); ok {
		counter.Add(1)
	}
}

func (m *InMemoryMetrics) getLatency(key string) *latencySummary {
	entry, _ := m.latencies.LoadOrStore(key, &latencySummary{})
	summary, ok := entry.(*latencySummary)
	if !ok {
		return nil
	}
	return summary
}
