// Package dispatch delivers built payloads to the sink under the
// configured concurrency and rate policy, capturing timed outcomes.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/avrhamo/releases-sub000/internal/core"
	"github.com/avrhamo/releases-sub000/internal/ratelimit"
)

// State is the dispatcher's per-run lifecycle.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
	StateFailed    State = "failed"
)

// Dispatcher sends payloads in windows (concurrent mode) or one at a
// time (sequential mode). Individual send failures are data, never
// control flow: they become failed OutcomeRecords and the run goes on.
type Dispatcher struct {
	sink    core.SinkTransport
	cfg     core.RunConfig
	limiter *ratelimit.Limiter
	clock   core.Clock

	mu    sync.Mutex
	state State
	seq   int
}

func New(sink core.SinkTransport, cfg core.RunConfig) *Dispatcher {
	return NewWithClock(sink, cfg, core.RealClock{})
}

func NewWithClock(sink core.SinkTransport, cfg core.RunConfig, clock core.Clock) *Dispatcher {
	d := &Dispatcher{
		sink:  sink,
		cfg:   cfg,
		clock: clock,
		state: StateIdle,
	}
	if cfg.Mode == core.ModeSequential && cfg.TargetRPS > 0 {
		d.limiter = ratelimit.New(cfg.TargetRPS)
	}
	return d
}

func (d *Dispatcher) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Dispatcher) setState(s State) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}

// Finish records the run's terminal state.
func (d *Dispatcher) Finish(status core.RunStatus) {
	switch status {
	case core.StatusCancelled:
		d.setState(StateCancelled)
	case core.StatusFailed:
		d.setState(StateFailed)
	default:
		d.setState(StateCompleted)
	}
}

// windowSize bounds in-flight concurrency: min(rps, batchSize). The
// window is the rate control, not a token bucket, so the sink sees the
// full window fan-in at once.
func (d *Dispatcher) windowSize() int {
	w := d.cfg.BatchSize
	if d.cfg.TargetRPS > 0 && d.cfg.TargetRPS < w {
		w = d.cfg.TargetRPS
	}
	if w < 1 {
		w = 1
	}
	return w
}

// DispatchChunk sends one chunk of payloads and returns their outcomes
// in send-initiation order. It returns core.ErrCancelled when
// cancellation was observed at a window or item boundary; outcomes for
// everything already in flight at that point are still returned.
func (d *Dispatcher) DispatchChunk(ctx context.Context, payloads []core.Payload) ([]core.OutcomeRecord, error) {
	d.setState(StateRunning)
	if d.cfg.Mode == core.ModeSequential {
		return d.dispatchSequential(ctx, payloads)
	}
	return d.dispatchConcurrent(ctx, payloads)
}

func (d *Dispatcher) dispatchConcurrent(ctx context.Context, payloads []core.Payload) ([]core.OutcomeRecord, error) {
	window := d.windowSize()
	outcomes := make([]core.OutcomeRecord, 0, len(payloads))

	for start := 0; start < len(payloads); start += window {
		// Cancellation is checked once per window; the launched
		// window always runs to completion.
		if ctx.Err() != nil {
			return outcomes, core.ErrCancelled
		}
		// The delay separates consecutive windows across the whole
		// run, not per chunk: a chunk boundary is not a free window.
		if d.sentAny() && d.cfg.Delay > 0 {
			if err := sleep(ctx, d.cfg.Delay); err != nil {
				return outcomes, err
			}
		}

		end := start + window
		if end > len(payloads) {
			end = len(payloads)
		}
		batch := payloads[start:end]
		results := make([]core.OutcomeRecord, len(batch))
		baseSeq := d.nextSeq(len(batch))

		var wg sync.WaitGroup
		for i, p := range batch {
			wg.Add(1)
			go func(i int, p core.Payload) {
				defer wg.Done()
				results[i] = d.sendOne(ctx, p, baseSeq+i)
			}(i, p)
		}
		wg.Wait()

		outcomes = append(outcomes, results...)
	}
	return outcomes, nil
}

func (d *Dispatcher) dispatchSequential(ctx context.Context, payloads []core.Payload) ([]core.OutcomeRecord, error) {
	outcomes := make([]core.OutcomeRecord, 0, len(payloads))

	for _, p := range payloads {
		if ctx.Err() != nil {
			return outcomes, core.ErrCancelled
		}
		if d.sentAny() && d.cfg.Delay > 0 {
			if err := sleep(ctx, d.cfg.Delay); err != nil {
				return outcomes, err
			}
		}
		if d.limiter != nil {
			if err := d.limiter.Wait(ctx); err != nil {
				return outcomes, core.ErrCancelled
			}
		}
		outcomes = append(outcomes, d.sendOne(ctx, p, d.nextSeq(1)))
	}
	return outcomes, nil
}

// sendOne invokes the sink with the per-request timeout. A send that
// panics or errors is a failed outcome, never an aborted run.
func (d *Dispatcher) sendOne(ctx context.Context, p core.Payload, seq int) (out core.OutcomeRecord) {
	start := d.clock.Now()
	out = core.OutcomeRecord{
		Sequence:  seq,
		Timestamp: start,
	}
	defer func() {
		if r := recover(); r != nil {
			out.Success = false
			out.Latency = d.clock.Since(start)
			out.Error = fmt.Sprintf("panic: %v", r)
		}
	}()

	res := d.sink.Send(ctx, p, d.cfg.RequestTimeout)
	out.Success = res.Success
	out.Latency = res.Latency
	out.Status = res.Status
	out.BytesSent = res.BytesSent
	out.Error = res.Error
	if out.Latency == 0 {
		out.Latency = d.clock.Since(start)
	}
	return out
}

// sentAny reports whether any payload has been dispatched this run.
// The first window of the first chunk starts immediately; every later
// window waits the configured delay, including across chunks.
func (d *Dispatcher) sentAny() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seq > 0
}

func (d *Dispatcher) nextSeq(n int) int {
	d.mu.Lock()
	base := d.seq
	d.seq += n
	d.mu.Unlock()
	return base
}

// sleep waits for the delay floor, returning early with ErrCancelled
// when the run is stopped mid-wait.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return core.ErrCancelled
	case <-timer.C:
		return nil
	}
}
