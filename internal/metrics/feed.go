package metrics

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Feed decouples snapshot cadence from Record: a periodic ticker pulls
// one snapshot, pushes it on a channel for programmatic consumers, and
// prints a progress line. High-throughput runs never pay recomputation
// cost per outcome.
type Feed struct {
	agg      *Aggregator
	interval time.Duration
	ch       chan Snapshot
	ticker   *time.Ticker
	stopCh   chan struct{}
	stopped  atomic.Bool
	quiet    bool
	output   io.Writer
	mu       sync.Mutex
}

// NewFeed creates a feed emitting at the given interval (≈1s for UI
// consumption). quiet suppresses the printed progress line; the
// snapshot channel still receives updates.
func NewFeed(agg *Aggregator, interval time.Duration, quiet bool) *Feed {
	if interval <= 0 {
		interval = time.Second
	}
	return &Feed{
		agg:      agg,
		interval: interval,
		ch:       make(chan Snapshot, 16),
		quiet:    quiet,
		output:   os.Stderr,
	}
}

func (f *Feed) SetOutput(w io.Writer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.output = w
}

// Snapshots returns the channel carrying periodic snapshots. The
// channel is closed when the feed stops.
func (f *Feed) Snapshots() <-chan Snapshot {
	return f.ch
}

func (f *Feed) Start() {
	f.stopCh = make(chan struct{})
	f.ticker = time.NewTicker(f.interval)
	go f.run()
}

func (f *Feed) run() {
	// The emitting goroutine owns the channel close so a tick in
	// flight can never send on a closed channel.
	defer close(f.ch)
	for {
		select {
		case <-f.stopCh:
			return
		case <-f.ticker.C:
			f.emit()
		}
	}
}

func (f *Feed) emit() {
	s := f.agg.Snapshot(f.agg.Now())
	select {
	case f.ch <- s:
	default:
	}
	if f.quiet {
		return
	}
	elapsed := s.Elapsed.Round(time.Second)
	mins := int(elapsed.Minutes())
	secs := int(elapsed.Seconds()) % 60
	f.mu.Lock()
	fmt.Fprintf(f.output, "\033[K[%02d:%02d] Dispatched: %d | Rate: %.1f/s | Errors: %d (%.1f%%)",
		mins, secs, s.Total, s.Throughput, s.Failures, s.ErrorRate)
	f.mu.Unlock()
}

func (f *Feed) Stop() {
	if f.stopped.Swap(true) {
		return
	}
	if f.ticker != nil {
		f.ticker.Stop()
	}
	if f.stopCh != nil {
		close(f.stopCh)
	}
	if !f.quiet {
		f.mu.Lock()
		fmt.Fprintf(f.output, "\033[K")
		f.mu.Unlock()
	}
}

// Printf prints a message above the progress line.
func (f *Feed) Printf(format string, args ...interface{}) {
	if f.quiet {
		return
	}
	f.mu.Lock()
	fmt.Fprintf(f.output, "\033[K"+format+"\n", args...)
	f.mu.Unlock()
}
