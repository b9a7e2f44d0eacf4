package testutils

import (
	"context"
	"sync"

	"github.com/papercomputeco/advisor/pkg/eventstream"
)

// RecordingPublisher keeps every published event in memory.
type RecordingPublisher struct {
	// Err, when set, is returned from every PublishTurn.
	Err error

	mu     sync.Mutex
	events []*eventstream.TurnCompletedEvent
	closed bool
}

// PublishTurn implements eventstream.Publisher.
func (r *RecordingPublisher) PublishTurn(_ context.Context, event *eventstream.TurnCompletedEvent) error {
	if event == nil {
		return eventstream.ErrNilTurnEvent
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.Err
}

// Close implements eventstream.Publisher.
func (r *RecordingPublisher) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Events returns the published events in order.
func (r *RecordingPublisher) Events() []*eventstream.TurnCompletedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*eventstream.TurnCompletedEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Closed reports whether Close was called.
func (r *RecordingPublisher) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
