package audit

import (
	"context"
	"log/slog"
	"time"
)

// Publisher hands audit events to the background worker without blocking the
// request path. A full inbox drops the event with a log line rather than
// stalling a verification call; the per-record trail still captures the
// transition.
type Publisher struct {
	inbox  chan<- Event
	logger *slog.Logger
}

// NewPublisher creates a publisher feeding the given inbox.
func NewPublisher(inbox chan<- Event, logger *slog.Logger) *Publisher {
	return &Publisher{inbox: inbox, logger: logger}
}

// Emit queues one event for persistence.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.WarnContext(ctx, "audit inbox full, dropping event",
			"action", event.Action,
			"user_id", event.UserID,
		)
	}
}
