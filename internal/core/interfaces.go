package core

import (
	"context"
	"time"
)

// CursorHandle identifies one server-side cursor at the document source.
type CursorHandle string

// DocumentSource is the injected capability for the external document
// store. Filter is an opaque structured query the engine never
// interprets; it is passed through verbatim.
type DocumentSource interface {
	// OpenCursor asks the store for a server-side cursor over the
	// documents matching filter, delivering pages of at most pageSize.
	OpenCursor(ctx context.Context, filter map[string]any, pageSize int) (CursorHandle, error)
	// FetchPage returns the next page for the handle. An empty page
	// (and nil error) signals end of stream.
	FetchPage(ctx context.Context, h CursorHandle) ([]SourceRecord, error)
	// CloseCursor releases the server-side cursor.
	CloseCursor(ctx context.Context, h CursorHandle) error
}

// SendResult is what a sink reports for one delivery attempt.
type SendResult struct {
	Success   bool
	Latency   time.Duration
	Status    int
	BytesSent int64
	Error     string
}

// SinkTransport is the injected single-item, at-most-once delivery
// primitive. Protocol framing (verbs, partitions, headers) is the
// payload's own content; the transport only moves it.
type SinkTransport interface {
	Send(ctx context.Context, p Payload, timeout time.Duration) SendResult
}
