package session

import "errors"

var (
	// ErrBusy is returned when a submit arrives while a reply is pending.
	ErrBusy = errors.New("session is awaiting a reply")

	// ErrEmptyMessage is returned for blank user input.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrReset is returned when the session was reset while its call was in
	// flight; the reply is discarded.
	ErrReset = errors.New("session was reset while awaiting a reply")

	// ErrNotFound is returned by Manager for unknown session ids.
	ErrNotFound = errors.New("session not found")
)
