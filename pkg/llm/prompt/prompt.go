// Package prompt turns a system prompt, conversation history and a new user
// message into a provider-shaped request payload.
package prompt

import (
	"fmt"
	"strings"

	"github.com/papercomputeco/advisor/pkg/llm"
	"github.com/papercomputeco/advisor/pkg/llm/provider"
)

// Input collects everything Format needs.
type Input struct {
	// SystemPrompt is injected when History does not already start with a
	// system turn.
	SystemPrompt string

	// History is the conversation so far, oldest first.
	History []llm.Turn

	// Message is the new user message.
	Message string

	// Params are the generation parameters. A zero MaxTokens takes the
	// profile default.
	Params llm.GenerationParams

	// Window limits the number of non-system history turns sent. Zero
	// sends everything.
	Window int
}

// Format builds a RequestPayload for profile. It is a pure function.
func Format(in Input, profile provider.Profile) (*llm.RequestPayload, error) {
	params := in.Params.WithDefaults(profile.MaxTokens)
	messages := Messages(in.SystemPrompt, Window(in.History, in.Window), in.Message)

	switch profile.Request {
	case provider.CompletionSingleString:
		text := Render(messages, profile.Template)
		return &llm.RequestPayload{
			Model:  profile.Model,
			Body:   newCompletionRequest(text, params),
			Prompt: text,
			Params: params,
		}, nil

	case provider.ChatMessagesArray:
		return &llm.RequestPayload{
			Model:    profile.Model,
			Body:     newChatRequest(profile, messages, params),
			Messages: messages,
			Params:   params,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported request shape %q for profile %q", profile.Request, profile.Name)
	}
}

// Messages returns the ordered turns to send: one system turn only if the
// history does not already begin with one, then the history verbatim, then
// the new user turn.
func Messages(systemPrompt string, history []llm.Turn, message string) []llm.Turn {
	out := make([]llm.Turn, 0, len(history)+2)

	startsWithSystem := len(history) > 0 && history[0].Role == llm.RoleSystem
	if !startsWithSystem && systemPrompt != "" {
		out = append(out, llm.SystemTurn(systemPrompt))
	}

	out = append(out, history...)
	out = append(out, llm.UserTurn(message))
	return out
}

// Window keeps the most recent n non-system turns of history, always
// retaining a leading system turn. n <= 0 returns history unchanged.
func Window(history []llm.Turn, n int) []llm.Turn {
	if n <= 0 {
		return history
	}

	var head []llm.Turn
	rest := history
	if len(history) > 0 && history[0].Role == llm.RoleSystem {
		head = history[:1]
		rest = history[1:]
	}

	if len(rest) <= n {
		return history
	}

	out := make([]llm.Turn, 0, len(head)+n)
	out = append(out, head...)
	return append(out, rest[len(rest)-n:]...)
}

// Render concatenates turns into one prompt string using the template and
// ends it with the template's assistant cue.
func Render(turns []llm.Turn, tmpl provider.Template) string {
	var b strings.Builder
	b.WriteString(tmpl.BOS)

	for i, t := range turns {
		if i > 0 {
			b.WriteString(tmpl.Separator)
		}
		b.WriteString(affixFor(tmpl, t.Role).Wrap(t.Content))
	}

	if tmpl.Cue != "" {
		if len(turns) > 0 {
			b.WriteString(tmpl.Separator)
		}
		b.WriteString(tmpl.Cue)
	}

	return b.String()
}

func affixFor(tmpl provider.Template, role llm.Role) provider.Affix {
	switch role {
	case llm.RoleSystem:
		return tmpl.System
	case llm.RoleAssistant:
		return tmpl.Assistant
	default:
		return tmpl.User
	}
}
