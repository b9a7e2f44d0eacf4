package eventstream

import "errors"

var (
	// ErrNilTurnEvent is returned when a publisher is handed a nil event.
	ErrNilTurnEvent = errors.New("nil turn event")

	// ErrPublisherClosed is returned when publishing after Close.
	ErrPublisherClosed = errors.New("turn event publisher closed")
)
