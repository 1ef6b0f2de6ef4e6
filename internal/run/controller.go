// Package run orchestrates a complete load run: cursor paging, payload
// building, dispatch, and metrics aggregation, with guaranteed cursor
// cleanup on every exit path.
package run

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/avrhamo/releases-sub000/internal/core"
	"github.com/avrhamo/releases-sub000/internal/cursor"
	"github.com/avrhamo/releases-sub000/internal/dispatch"
	"github.com/avrhamo/releases-sub000/internal/metrics"
	"github.com/avrhamo/releases-sub000/internal/template"
)

// Controller sequences one run end to end. Create one Controller per
// run; it owns its cursor, dispatcher, and aggregator.
type Controller struct {
	source     core.DocumentSource
	filter     map[string]any
	builder    *template.Builder
	dispatcher *dispatch.Dispatcher
	agg        *metrics.Aggregator
	cfg        core.RunConfig
	clock      core.Clock
	runID      string
}

// New validates the template against the mapping table before anything
// else: an unmapped placeholder surfaces here, with no I/O spent.
func New(source core.DocumentSource, sink core.SinkTransport, filter map[string]any,
	tpl template.Template, table template.Table, reg template.Registry,
	cfg core.RunConfig) (*Controller, error) {

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	builder, err := template.NewBuilder(tpl, table, reg)
	if err != nil {
		return nil, err
	}
	clock := core.RealClock{}
	return &Controller{
		source:     source,
		filter:     filter,
		builder:    builder,
		dispatcher: dispatch.New(sink, cfg),
		agg:        metrics.NewAggregatorWithClock(clock),
		cfg:        cfg,
		clock:      clock,
		runID:      uuid.New().String(),
	}, nil
}

func validateConfig(cfg core.RunConfig) error {
	if cfg.Count < 0 {
		return core.ConfigErrorf("count must be >= 0, got %d", cfg.Count)
	}
	if cfg.BatchSize < 1 {
		return core.ConfigErrorf("batch size must be >= 1, got %d", cfg.BatchSize)
	}
	switch cfg.Mode {
	case core.ModeConcurrent, core.ModeSequential:
	default:
		return core.ConfigErrorf("unknown dispatch mode %q", cfg.Mode)
	}
	return nil
}

// RunID identifies this run; it is also available to generators.
func (c *Controller) RunID() string { return c.runID }

// Aggregator exposes the run's metrics for a Feed or other consumer.
func (c *Controller) Aggregator() *metrics.Aggregator { return c.agg }

// Execute drives the run to a terminal state. The cursor is closed on
// every exit path, including failures and cancellation. Individual
// send failures only inflate the failure counter; cursor failures end
// the run.
func (c *Controller) Execute(ctx context.Context) core.RunResult {
	cur, err := cursor.Open(ctx, c.source, c.filter, c.cfg.BatchSize)
	if err != nil {
		return c.finish(core.RunResult{Status: core.StatusFailed, Cause: err})
	}
	// Close with a detached context: a cancelled run must still
	// release the server-side cursor.
	defer cur.Close(context.Background())

	dispatched := 0
	for {
		if ctx.Err() != nil {
			return c.finish(c.terminal(core.StatusCancelled, dispatched, nil))
		}

		chunkSize := c.cfg.BatchSize
		if c.cfg.Count > 0 && c.cfg.Count-dispatched < chunkSize {
			chunkSize = c.cfg.Count - dispatched
		}

		records, err := cur.NextChunk(ctx, chunkSize)
		if err != nil {
			return c.finish(c.terminal(core.StatusFailed, dispatched, err))
		}
		if len(records) == 0 {
			break // source exhausted
		}

		payloads := make([]core.Payload, len(records))
		for i, rec := range records {
			rctx := core.RunContext{
				RunID:    c.runID,
				Sequence: dispatched + i,
				Now:      c.clock.Now(),
				Record:   rec,
			}
			p, err := c.builder.Build(rctx)
			if err != nil {
				return c.finish(c.terminal(core.StatusFailed, dispatched, err))
			}
			payloads[i] = p
		}

		outcomes, derr := c.dispatcher.DispatchChunk(ctx, payloads)
		for _, o := range outcomes {
			c.agg.Record(o)
		}
		dispatched += len(outcomes)

		if derr != nil {
			if errors.Is(derr, core.ErrCancelled) {
				return c.finish(c.terminal(core.StatusCancelled, dispatched, nil))
			}
			return c.finish(c.terminal(core.StatusFailed, dispatched, derr))
		}
		if c.cfg.Count > 0 && dispatched >= c.cfg.Count {
			break
		}
	}

	return c.finish(c.terminal(core.StatusCompleted, dispatched, nil))
}

func (c *Controller) terminal(status core.RunStatus, dispatched int, cause error) core.RunResult {
	s := c.agg.Snapshot(c.clock.Now())
	return core.RunResult{
		Status:          status,
		TotalDispatched: dispatched,
		TotalFailed:     s.Failures,
		Cause:           cause,
	}
}

func (c *Controller) finish(r core.RunResult) core.RunResult {
	c.dispatcher.Finish(r.Status)
	return r
}
