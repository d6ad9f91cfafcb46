package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultAsyncBufferSize   = 1024
	defaultAsyncFlushTimeout = 5 * time.Second
)

// AsyncOptions configures the remote shipping queue.
type AsyncOptions struct {
	BufferSize   int
	FlushTimeout time.Duration
}

type queuedRecord struct {
	ctx     context.Context
	record  slog.Record
	handler slog.Handler
}

// asyncQueue is shared by every handler derived from one AsyncHandler so a
// single goroutine drains all records in order.
type asyncQueue struct {
	records      chan queuedRecord
	flushTimeout time.Duration
	closed       atomic.Bool
	dropped      atomic.Uint64
	done         sync.WaitGroup
}

func newAsyncQueue(opts AsyncOptions) *asyncQueue {
	size := opts.BufferSize
	if size <= 0 {
		size = defaultAsyncBufferSize
	}
	timeout := opts.FlushTimeout
	if timeout <= 0 {
		timeout = defaultAsyncFlushTimeout
	}

	q := &asyncQueue{
		records:      make(chan queuedRecord, size),
		flushTimeout: timeout,
	}
	q.done.Go(func() {
		for rec := range q.records {
			_ = rec.handler.Handle(rec.ctx, rec.record)
		}
	})
	return q
}

// push never blocks; records are dropped when the buffer is full.
func (q *asyncQueue) push(rec queuedRecord) {
	if q.closed.Load() {
		return
	}
	select {
	case q.records <- rec:
	default:
		q.dropped.Add(1)
	}
}

func (q *asyncQueue) close(ctx context.Context) error {
	if q.closed.Swap(true) {
		return nil
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.flushTimeout)
		defer cancel()
	}
	close(q.records)

	drained := make(chan struct{})
	go func() {
		q.done.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AsyncHandler keeps remote log shipping off the request path.
type AsyncHandler struct {
	queue   *asyncQueue
	handler slog.Handler
}

// NewAsyncHandler wraps handler with a bounded queue drained by one goroutine.
func NewAsyncHandler(handler slog.Handler, opts AsyncOptions) *AsyncHandler {
	return &AsyncHandler{
		queue:   newAsyncQueue(opts),
		handler: handler,
	}
}

// Enabled delegates to the wrapped handler.
func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle enqueues a clone of the record.
func (h *AsyncHandler) Handle(ctx context.Context, r slog.Record) error {
	if !h.handler.Enabled(ctx, r.Level) {
		return nil
	}
	h.queue.push(queuedRecord{ctx: ctx, record: r.Clone(), handler: h.handler})
	return nil
}

// WithAttrs returns a handler sharing the same queue.
func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{queue: h.queue, handler: h.handler.WithAttrs(attrs)}
}

// WithGroup returns a handler sharing the same queue.
func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{queue: h.queue, handler: h.handler.WithGroup(name)}
}

// Dropped returns how many records were discarded because the queue was full.
func (h *AsyncHandler) Dropped() uint64 {
	if h == nil || h.queue == nil {
		return 0
	}
	return h.queue.dropped.Load()
}

// Shutdown drains queued records, bounded by ctx or the flush timeout.
func (h *AsyncHandler) Shutdown(ctx context.Context) error {
	if h == nil || h.queue == nil {
		return nil
	}
	return h.queue.close(ctx)
}
