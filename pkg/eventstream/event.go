package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeTurnCompleted is emitted after every submit resolves,
	// successfully or not.
	EventTypeTurnCompleted = "advisor.turn.completed"
)

// TurnCompletedEvent describes one resolved provider call. It carries no
// message content.
type TurnCompletedEvent struct {
	SchemaVersion int         `json:"schema_version"`
	EventType     string      `json:"event_type"`
	EventID       string      `json:"event_id"`
	EmittedAt     time.Time   `json:"emitted_at"`
	SessionID     string      `json:"session_id"`
	Source        EventSource `json:"source"`
	Call          CallMeta    `json:"call"`
	Outcome       OutcomeMeta `json:"outcome"`

	// TurnCount is the conversation length after the submit resolved.
	TurnCount int `json:"turn_count"`
}

// EventSource identifies the backend the turn was sent to.
type EventSource struct {
	Profile  string `json:"profile"`
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`
}

// CallMeta captures request lifecycle metadata.
type CallMeta struct {
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMs  int64     `json:"duration_ms"`
	HTTPStatus  int       `json:"http_status,omitempty"`
}

// OutcomeMeta is the classified result of the call.
type OutcomeMeta struct {
	Class string `json:"class"`
	Kind  string `json:"kind,omitempty"`
}

// NewTurnCompletedEvent fills in the envelope fields.
func NewTurnCompletedEvent(sessionID string, source EventSource, call CallMeta, outcome OutcomeMeta, turnCount int) *TurnCompletedEvent {
	return &TurnCompletedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeTurnCompleted,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		SessionID:     sessionID,
		Source:        source,
		Call:          call,
		Outcome:       outcome,
		TurnCount:     turnCount,
	}
}
