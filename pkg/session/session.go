// Package session drives one chat conversation through the prompt formatter,
// provider client and response normalizer.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/advisor/pkg/conversation"
	"github.com/papercomputeco/advisor/pkg/eventstream"
	"github.com/papercomputeco/advisor/pkg/eventstream/nop"
	"github.com/papercomputeco/advisor/pkg/llm"
	"github.com/papercomputeco/advisor/pkg/llm/normalize"
	"github.com/papercomputeco/advisor/pkg/llm/prompt"
	"github.com/papercomputeco/advisor/pkg/llm/provider"
	"github.com/papercomputeco/advisor/pkg/logger"
)

// State is the controller's position in the submit cycle.
type State int

const (
	Idle State = iota
	AwaitingReply
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingReply:
		return "awaiting-reply"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config configures a Controller.
type Config struct {
	// ID identifies the session. Generated when empty.
	ID string

	Profile      provider.Profile
	Params       llm.GenerationParams
	SystemPrompt string
	Credential   string

	// Timeout bounds each provider call. Defaults to provider.DefaultTimeout.
	Timeout time.Duration

	// Window is the number of history turns sent with each request.
	// Zero sends the whole conversation.
	Window int

	Sender    provider.Sender
	Publisher eventstream.Publisher
	Logger    *slog.Logger
}

// Info is a point-in-time summary of a session.
type Info struct {
	ID        string    `json:"id"`
	Profile   string    `json:"profile"`
	Model     string    `json:"model,omitempty"`
	State     string    `json:"state"`
	Turns     int       `json:"turns"`
	CreatedAt time.Time `json:"created_at"`
}

// Controller owns one Conversation and allows at most one provider call in
// flight. It is safe for concurrent use; overlapping submits get ErrBusy.
type Controller struct {
	cfg       Config
	conv      *conversation.Conversation
	logger    *slog.Logger
	createdAt time.Time

	mu         sync.Mutex
	state      State
	epoch      uint64
	pending    string
	lastActive time.Time
}

// New creates a Controller with an empty conversation.
func New(cfg Config) (*Controller, error) {
	if cfg.Sender == nil {
		return nil, errors.New("session needs a sender")
	}
	if err := cfg.Profile.Validate(); err != nil {
		return nil, err
	}
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = provider.DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	if cfg.Publisher == nil {
		cfg.Publisher = nop.NewPublisher(cfg.Logger)
	}

	now := time.Now().UTC()
	return &Controller{
		cfg:        cfg,
		conv:       conversation.New(),
		logger:     cfg.Logger.With("session_id", cfg.ID, "profile", cfg.Profile.Name),
		createdAt:  now,
		lastActive: now,
	}, nil
}

// ID returns the session id.
func (c *Controller) ID() string { return c.cfg.ID }

// Profile returns the profile the session talks to.
func (c *Controller) Profile() provider.Profile { return c.cfg.Profile }

// Reply is the result of one resolved submit.
type Reply struct {
	// Text is the assistant reply. Empty when the submit failed.
	Text string

	// Transcript is the conversation as it stood when the reply was
	// recorded, oldest first.
	Transcript []llm.Turn
}

// Submit sends message to the provider and returns the transcript after
// the call resolves. Provider failures come back as a *llm.CallError; the
// user turn is kept so a resubmit carries it as context.
func (c *Controller) Submit(ctx context.Context, message string) ([]llm.Turn, error) {
	reply, err := c.Send(ctx, message)
	return reply.Transcript, err
}

// Send is Submit with the reply text returned explicitly. The transcript is
// captured in the same critical section that records the turns, so a
// concurrent Reset cannot empty it.
func (c *Controller) Send(ctx context.Context, message string) (Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Reply{Transcript: c.Transcript()}, ErrEmptyMessage
	}

	c.mu.Lock()
	if c.state == AwaitingReply {
		c.mu.Unlock()
		return Reply{Transcript: c.Transcript()}, ErrBusy
	}
	c.state = AwaitingReply
	c.pending = message
	c.lastActive = time.Now().UTC()
	epoch := c.epoch
	history := c.conv.Turns()
	c.mu.Unlock()

	payload, err := prompt.Format(prompt.Input{
		SystemPrompt: c.cfg.SystemPrompt,
		History:      history,
		Message:      message,
		Params:       c.cfg.Params,
		Window:       c.cfg.Window,
	}, c.cfg.Profile)
	if err != nil {
		c.finish(epoch)
		return Reply{Transcript: c.Transcript()}, fmt.Errorf("formatting request: %w", err)
	}

	started := time.Now()
	outcome := c.call(ctx, payload)
	completed := time.Now()

	c.mu.Lock()
	if epoch != c.epoch {
		transcript := c.conv.Turns()
		c.mu.Unlock()
		c.logger.Info("discarding reply for reset session")
		return Reply{Transcript: transcript}, ErrReset
	}

	turns := make([]llm.Turn, 0, 3)
	if c.conv.Len() == 0 && c.cfg.SystemPrompt != "" {
		turns = append(turns, llm.SystemTurn(c.cfg.SystemPrompt))
	}
	turns = append(turns, llm.UserTurn(message))
	if outcome.OK() {
		turns = append(turns, llm.AssistantTurn(outcome.Reply))
	}
	appendErr := c.conv.Append(turns...)
	transcript := c.conv.Turns()
	c.state = Idle
	c.pending = ""
	c.lastActive = time.Now().UTC()
	c.mu.Unlock()

	if appendErr != nil {
		return Reply{Transcript: transcript}, fmt.Errorf("recording turns: %w", appendErr)
	}

	c.publish(ctx, outcome, started, completed, len(transcript))

	if !outcome.OK() {
		c.logger.Warn("provider call failed",
			"class", outcome.Class().String(),
			"kind", string(outcome.Kind()),
			"status", outcome.Err.StatusCode,
			"detail", outcome.Err.Detail,
		)
		return Reply{Transcript: transcript}, outcome.Err
	}

	c.logger.Debug("provider call succeeded", "duration", completed.Sub(started), "turns", len(transcript))
	return Reply{Text: outcome.Reply, Transcript: transcript}, nil
}

func (c *Controller) call(ctx context.Context, payload *llm.RequestPayload) llm.Outcome {
	raw, err := c.cfg.Sender.Send(ctx, payload, c.cfg.Profile, c.cfg.Credential, c.cfg.Timeout)
	if err != nil {
		return llm.FailureFrom(err)
	}
	return normalize.Normalize(raw, c.cfg.Profile, payload.Prompt)
}

// finish returns to Idle unless a reset already did.
func (c *Controller) finish(epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch == c.epoch {
		c.state = Idle
		c.pending = ""
	}
}

func (c *Controller) publish(ctx context.Context, outcome llm.Outcome, started, completed time.Time, turns int) {
	status := http.StatusOK
	meta := eventstream.OutcomeMeta{Class: outcome.Class().String()}
	if !outcome.OK() {
		status = outcome.Err.StatusCode
		meta.Kind = string(outcome.Kind())
	}

	event := eventstream.NewTurnCompletedEvent(
		c.cfg.ID,
		eventstream.EventSource{
			Profile:  c.cfg.Profile.Name,
			Provider: c.cfg.Profile.Provider,
			Model:    c.cfg.Profile.Model,
		},
		eventstream.CallMeta{
			StartedAt:   started.UTC(),
			CompletedAt: completed.UTC(),
			DurationMs:  completed.Sub(started).Milliseconds(),
			HTTPStatus:  status,
		},
		meta,
		turns,
	)

	if err := c.cfg.Publisher.PublishTurn(ctx, event); err != nil {
		c.logger.Warn("publishing turn event", "error", err)
	}
}

// Reset clears the conversation and returns to Idle. A reply still in
// flight is discarded when it arrives.
func (c *Controller) Reset() []llm.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conv.Reset()
	c.state = Idle
	c.pending = ""
	c.lastActive = time.Now().UTC()
	c.epoch++
	return []llm.Turn{}
}

// Transcript returns a copy of the conversation, oldest first.
func (c *Controller) Transcript() []llm.Turn {
	return c.conv.Turns()
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IdleSince returns when the session last started or finished a call or
// was reset. ok is false while a call is in flight.
func (c *Controller) IdleSince() (since time.Time, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive, c.state == Idle
}

// Pending returns the message whose reply is awaited, if any.
func (c *Controller) Pending() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending, c.state == AwaitingReply
}

// Info summarizes the session.
func (c *Controller) Info() Info {
	return Info{
		ID:        c.cfg.ID,
		Profile:   c.cfg.Profile.Name,
		Model:     c.cfg.Profile.Model,
		State:     c.State().String(),
		Turns:     c.conv.Len(),
		CreatedAt: c.createdAt,
	}
}
