// Package cursor presents the external document store as a pull-based,
// bounded-memory stream. Pages are fetched lazily so a run starts
// producing outcomes before the whole result set is retrieved.
package cursor

import (
	"context"
	"errors"

	"github.com/avrhamo/releases-sub000/internal/core"
)

// ErrEndOfStream is returned by Next when the source is exhausted.
var ErrEndOfStream = errors.New("end of stream")

// BatchCursor pulls records one at a time, refilling an in-memory page
// from the document source when the current one is drained.
// Single-consumer: Next must not be called concurrently.
type BatchCursor struct {
	source   core.DocumentSource
	handle   core.CursorHandle
	pageSize int
	page     []core.SourceRecord
	pos      int
	drained  bool
	closed   bool
}

// Open asks the source for a server-side cursor with the given filter
// and page size. The filter is opaque to the engine.
func Open(ctx context.Context, source core.DocumentSource, filter map[string]any, pageSize int) (*BatchCursor, error) {
	h, err := source.OpenCursor(ctx, filter, pageSize)
	if err != nil {
		return nil, core.SourceUnavailable(err)
	}
	return &BatchCursor{
		source:   source,
		handle:   h,
		pageSize: pageSize,
	}, nil
}

// Next returns exactly one record per call, or ErrEndOfStream when the
// source is exhausted. A failed page fetch surfaces as a SourceError.
func (c *BatchCursor) Next(ctx context.Context) (core.SourceRecord, error) {
	if c.closed {
		return nil, ErrEndOfStream
	}
	if c.pos >= len(c.page) {
		if c.drained {
			return nil, ErrEndOfStream
		}
		page, err := c.source.FetchPage(ctx, c.handle)
		if err != nil {
			return nil, core.SourceReadError(err)
		}
		if len(page) == 0 {
			c.drained = true
			return nil, ErrEndOfStream
		}
		if len(page) < c.pageSize {
			// Short page: the source has nothing further.
			c.drained = true
		}
		c.page = page
		c.pos = 0
	}
	rec := c.page[c.pos]
	c.pos++
	return rec, nil
}

// NextChunk pulls up to n records, stopping early at end of stream.
func (c *BatchCursor) NextChunk(ctx context.Context, n int) ([]core.SourceRecord, error) {
	records := make([]core.SourceRecord, 0, n)
	for len(records) < n {
		rec, err := c.Next(ctx)
		if errors.Is(err, ErrEndOfStream) {
			break
		}
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Close releases the server-side cursor. Idempotent: a second call is
// a no-op.
func (c *BatchCursor) Close(ctx context.Context) error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.source.CloseCursor(ctx, c.handle)
}
