// Package testutils holds fakes shared by package tests.
package testutils

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/papercomputeco/advisor/pkg/llm"
	"github.com/papercomputeco/advisor/pkg/llm/provider"
)

// Reply is one scripted provider response.
type Reply struct {
	Body []byte
	Err  error
}

// ChatReply returns an OpenAI-style chat completion body with text.
func ChatReply(text string) Reply {
	body, _ := json.Marshal(map[string]any{
		"choices": []any{
			map[string]any{"message": map[string]any{"role": "assistant", "content": text}},
		},
	})
	return Reply{Body: body}
}

// RawReply returns body verbatim.
func RawReply(body string) Reply {
	return Reply{Body: []byte(body)}
}

// ErrorReply returns a classified failure.
func ErrorReply(kind llm.Kind, status int) Reply {
	return Reply{Err: &llm.CallError{Kind: kind, StatusCode: status, Detail: "scripted failure"}}
}

// Call records one Send invocation.
type Call struct {
	Payload    *llm.RequestPayload
	Profile    provider.Profile
	Credential string
	Timeout    time.Duration
}

// FakeSender is a scripted provider.Sender. Replies are consumed in order
// and the last one repeats. When Gate is set, Send signals Started and
// then blocks until Gate is closed or ctx is done.
type FakeSender struct {
	Replies []Reply
	Gate    chan struct{}
	Started chan struct{}

	mu    sync.Mutex
	calls []Call
}

// NewFakeSender creates a FakeSender with the given replies.
func NewFakeSender(replies ...Reply) *FakeSender {
	return &FakeSender{Replies: replies}
}

// Send implements provider.Sender.
func (f *FakeSender) Send(ctx context.Context, payload *llm.RequestPayload, profile provider.Profile, credential string, timeout time.Duration) ([]byte, error) {
	f.mu.Lock()
	n := len(f.calls)
	f.calls = append(f.calls, Call{Payload: payload, Profile: profile, Credential: credential, Timeout: timeout})
	f.mu.Unlock()

	if f.Gate != nil {
		if f.Started != nil {
			f.Started <- struct{}{}
		}
		select {
		case <-f.Gate:
		case <-ctx.Done():
			return nil, &llm.CallError{Kind: llm.KindTimeout, Cause: ctx.Err()}
		}
	}

	if len(f.Replies) == 0 {
		return nil, llm.NewCallError(llm.KindConnection, "no scripted reply")
	}
	r := f.Replies[min(n, len(f.Replies)-1)]
	return r.Body, r.Err
}

// Calls returns the recorded invocations.
func (f *FakeSender) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}
