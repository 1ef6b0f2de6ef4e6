// Package metrics maintains a running view over dispatch outcomes and
// renders the final report.
package metrics

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/avrhamo/releases-sub000/internal/core"
)

// Snapshot is a pure function of the outcome sequence plus elapsed
// wall time. Every division is guarded: a consumer always gets a
// number, never NaN.
type Snapshot struct {
	Elapsed    time.Duration
	Total      int
	Success    int
	Failures   int
	ErrorRate  float64 // percent
	Throughput float64 // items per second
	LatencyMin time.Duration
	LatencyAvg time.Duration
	LatencyMax time.Duration
	LatencyP50 time.Duration
	LatencyP95 time.Duration
	LatencyP99 time.Duration
	LastError  string
}

// Aggregator accumulates outcome counters in O(1) per update. Each run
// owns its own aggregator; Record is called only from the run's
// outcome-feeding loop.
type Aggregator struct {
	mu         sync.Mutex
	clock      core.Clock
	startTime  time.Time
	total      int
	success    int
	failures   int
	latencySum time.Duration
	latencyMin time.Duration
	latencyMax time.Duration
	hist       *hdrhistogram.Histogram
	lastError  string
}

func NewAggregator() *Aggregator {
	return NewAggregatorWithClock(core.RealClock{})
}

func NewAggregatorWithClock(clock core.Clock) *Aggregator {
	return &Aggregator{
		clock:     clock,
		startTime: clock.Now(),
		// 1us to 10min, 3 significant figures.
		hist: hdrhistogram.New(1, int64(10*time.Minute/time.Microsecond), 3),
	}
}

// Record folds one outcome into the counters.
func (a *Aggregator) Record(o core.OutcomeRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.total++
	if o.Success {
		a.success++
	} else {
		a.failures++
		if o.Error != "" {
			a.lastError = o.Error
		}
	}
	a.latencySum += o.Latency
	if a.total == 1 || o.Latency < a.latencyMin {
		a.latencyMin = o.Latency
	}
	if o.Latency > a.latencyMax {
		a.latencyMax = o.Latency
	}
	_ = a.hist.RecordValue(int64(o.Latency / time.Microsecond))
}

// Snapshot derives the current view at the given instant.
func (a *Aggregator) Snapshot(now time.Time) Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := Snapshot{
		Elapsed:    now.Sub(a.startTime),
		Total:      a.total,
		Success:    a.success,
		Failures:   a.failures,
		LatencyMin: a.latencyMin,
		LatencyMax: a.latencyMax,
		LastError:  a.lastError,
	}
	if a.total > 0 {
		s.ErrorRate = float64(a.failures) / float64(a.total) * 100
		s.LatencyAvg = a.latencySum / time.Duration(a.total)
		s.LatencyP50 = time.Duration(a.hist.ValueAtQuantile(50)) * time.Microsecond
		s.LatencyP95 = time.Duration(a.hist.ValueAtQuantile(95)) * time.Microsecond
		s.LatencyP99 = time.Duration(a.hist.ValueAtQuantile(99)) * time.Microsecond
	}
	if s.Elapsed > 0 {
		s.Throughput = float64(a.total) / s.Elapsed.Seconds()
	}
	return s
}

// Now reports the aggregator's clock time, for callers that snapshot
// without their own clock.
func (a *Aggregator) Now() time.Time {
	return a.clock.Now()
}
