package eventstream

import "context"

// Publisher delivers turn-completed events to a backend. Sessions call
// PublishTurn once per resolved submit and treat a returned error as a
// warning. Close releases the backend; later publishes return
// ErrPublisherClosed.
type Publisher interface {
	PublishTurn(ctx context.Context, event *TurnCompletedEvent) error
	Close() error
}
