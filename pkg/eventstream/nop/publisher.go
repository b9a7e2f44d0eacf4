// Package nop provides the disabled eventstream backend.
package nop

import (
	"context"
	"log/slog"

	"github.com/papercomputeco/advisor/pkg/eventstream"
	"github.com/papercomputeco/advisor/pkg/logger"
)

// Publisher drops events, tracing them at debug level.
type Publisher struct {
	logger *slog.Logger
}

// NewPublisher creates a no-op publisher. A nil logger discards the trace.
func NewPublisher(log *slog.Logger) *Publisher {
	if log == nil {
		log = logger.Nop()
	}
	return &Publisher{logger: log}
}

// PublishTurn validates input and otherwise does nothing.
func (p *Publisher) PublishTurn(ctx context.Context, event *eventstream.TurnCompletedEvent) error {
	if event == nil {
		return eventstream.ErrNilTurnEvent
	}

	p.logger.DebugContext(ctx, "turn event dropped",
		"event_id", event.EventID,
		"session_id", event.SessionID,
		"class", event.Outcome.Class,
		"kind", event.Outcome.Kind,
	)
	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
