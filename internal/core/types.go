// Package core defines the fundamental types and interfaces for the
// data-driven load engine.
package core

import (
	"time"
)

// SourceRecord is one document pulled from the external store: an
// arbitrary tree of scalars, nested objects, and arrays. Records are
// read-only once handed out by the cursor.
type SourceRecord map[string]any

// Payload is one fully built outbound item. Body is a loosely typed
// tree ready for the sink's own serialization; Key and Headers are
// used by message-oriented sinks and ignored by plain HTTP targets
// unless the transport maps them.
type Payload struct {
	Body    any
	Key     string
	Headers map[string]string
}

// OutcomeRecord is the immutable result of one dispatch attempt.
// Sequence increases monotonically in send-initiation order.
type OutcomeRecord struct {
	Sequence  int
	Timestamp time.Time
	Success   bool
	Latency   time.Duration
	Status    int   // Sink-specific status (HTTP code, broker ack code)
	BytesSent int64
	Error     string
}

// RunStatus is the terminal state of a run.
type RunStatus string

const (
	StatusCompleted RunStatus = "completed"
	StatusCancelled RunStatus = "cancelled"
	StatusFailed    RunStatus = "failed"
)

// RunResult is emitted exactly once when a run reaches a terminal state.
type RunResult struct {
	Status          RunStatus
	TotalDispatched int
	TotalFailed     int
	Cause           error // set only when Status == StatusFailed
}

// DispatchMode selects the dispatcher's concurrency policy.
type DispatchMode string

const (
	// ModeConcurrent sends windows of min(rps, batchSize) items with
	// unbounded in-window fan-in, waiting for the whole window before
	// the next one starts.
	ModeConcurrent DispatchMode = "concurrent"
	// ModeSequential sends one item at a time in strict order.
	ModeSequential DispatchMode = "sequential"
)

// RunConfig is immutable for the duration of a run.
type RunConfig struct {
	Count          int           // total records to dispatch (0 = until source exhausted)
	Mode           DispatchMode
	BatchSize      int           // window ceiling in concurrent mode, also the cursor chunk size
	TargetRPS      int           // target items per second (0 = unpaced)
	Delay          time.Duration // floor between windows (concurrent) or items (sequential)
	RequestTimeout time.Duration // per-item send timeout
}

// RunContext is the per-item resolution context handed to generators
// and the payload builder. It is a value: builders copy it per record.
type RunContext struct {
	RunID    string
	Sequence int
	Now      time.Time
	Record   SourceRecord
}
