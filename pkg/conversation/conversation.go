// Package conversation holds the ordered turn log of a single chat session.
package conversation

import (
	"errors"
	"fmt"
	"sync"

	"github.com/papercomputeco/advisor/pkg/llm"
)

// ErrMisplacedSystem is returned when a system turn is appended anywhere
// other than the start of an empty conversation.
var ErrMisplacedSystem = errors.New("system turn must be the first turn")

// Conversation is an append-only log of turns. It is owned by one session;
// the mutex only makes concurrent reads from renderers safe.
type Conversation struct {
	mu    sync.RWMutex
	turns []llm.Turn
}

// New creates an empty conversation.
func New() *Conversation {
	return &Conversation{}
}

// Append adds turns in order. A system turn is accepted only as the very
// first turn; the whole call is rejected otherwise and nothing is appended.
func (c *Conversation) Append(turns ...llm.Turn) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, t := range turns {
		if !t.Role.Valid() {
			return fmt.Errorf("turn %d: invalid role %q", i, t.Role)
		}
		if t.Role == llm.RoleSystem && len(c.turns)+i != 0 {
			return ErrMisplacedSystem
		}
	}

	c.turns = append(c.turns, turns...)
	return nil
}

// Turns returns a copy of the log, oldest first.
func (c *Conversation) Turns() []llm.Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]llm.Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Len returns the number of turns including any system turn.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.turns)
}

// HasSystemPrompt reports whether the log starts with a system turn.
func (c *Conversation) HasSystemPrompt() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.turns) > 0 && c.turns[0].Role == llm.RoleSystem
}

// Exchanges returns the number of completed user/assistant pairs.
func (c *Conversation) Exchanges() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, t := range c.turns {
		if t.Role == llm.RoleAssistant {
			n++
		}
	}
	return n
}

// Reset clears the log.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = nil
}
