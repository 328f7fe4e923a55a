package audit

import (
	"context"
	"log/slog"
)

// Worker consumes audit events from the inbox and persists them, optionally
// forwarding to a Kafka sink. Store errors are logged, not fatal: the audit
// trail must never take the verification path down with it.
type Worker struct {
	store  Store
	sink   Sink
	inbox  <-chan Event
	logger *slog.Logger
}

// Sink is an optional secondary destination (Kafka) for audit events.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// NewWorker creates a worker draining inbox into store and sink. sink may be
// nil.
func NewWorker(store Store, sink Sink, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, sink: sink, inbox: inbox, logger: logger}
}

// Run drains the inbox until ctx is cancelled, then flushes what remains.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return ctx.Err()
		case event := <-w.inbox:
			w.handle(ctx, event)
		}
	}
}

func (w *Worker) handle(ctx context.Context, event Event) {
	if err := w.store.Append(ctx, event); err != nil {
		w.logger.ErrorContext(ctx, "append audit event failed",
			"error", err,
			"action", event.Action,
		)
	}
	if w.sink == nil {
		return
	}
	if err := w.sink.Publish(ctx, event); err != nil {
		w.logger.ErrorContext(ctx, "publish audit event failed",
			"error", err,
			"action", event.Action,
		)
	}
}

// drain flushes buffered events with a background context after cancellation.
func (w *Worker) drain() {
	ctx := context.Background()
	for {
		select {
		case event := <-w.inbox:
			w.handle(ctx, event)
		default:
			return
		}
	}
}
