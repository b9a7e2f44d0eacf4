package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/advisor/pkg/llm"
	"github.com/papercomputeco/advisor/pkg/session"
)

var (
	chatToolName    = "advisor_chat"
	chatDescription = "Ask the gadget advisor a question. Pass session_id to continue an earlier conversation; omit it to start a new one. Returns the reply and the session id."

	resetToolName    = "advisor_reset"
	resetDescription = "Clear the conversation history of an advisor session."

	endToolName    = "advisor_end"
	endDescription = "End an advisor session and discard its conversation. Call this when the conversation is finished."
)

// ChatInput represents the input arguments for the chat tool.
type ChatInput struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"id of an existing session; a new session is created when empty"`
	Message   string `json:"message" jsonschema:"the question for the advisor"`
}

// ChatOutput represents the output of the chat tool.
type ChatOutput struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
	Turns     int    `json:"turns"`
}

// ResetInput represents the input arguments for the reset tool.
type ResetInput struct {
	SessionID string `json:"session_id" jsonschema:"id of the session to clear"`
}

// ResetOutput represents the output of the reset tool.
type ResetOutput struct {
	SessionID string `json:"session_id"`
	Turns     int    `json:"turns"`
}

// EndInput represents the input arguments for the end tool.
type EndInput struct {
	SessionID string `json:"session_id" jsonschema:"id of the session to end"`
}

// EndOutput represents the output of the end tool.
type EndOutput struct {
	SessionID string `json:"session_id"`
	Ended     bool   `json:"ended"`
}

func (s *Server) handleChat(ctx context.Context, _ *mcp.CallToolRequest, input ChatInput) (*mcp.CallToolResult, ChatOutput, error) {
	logger := s.config.Logger

	var (
		ctrl    *session.Controller
		err     error
		created = input.SessionID == ""
	)
	if created {
		ctrl, err = s.config.Sessions.Create()
	} else {
		ctrl, err = s.config.Sessions.Get(input.SessionID)
	}
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to open session: %v", err)), ChatOutput{}, nil
	}

	logger.Debug("MCP chat request", "session_id", ctrl.ID())

	reply, err := ctrl.Send(ctx, input.Message)
	if err != nil {
		// A session opened for a message that was never accepted has no
		// caller holding its id.
		if created && errors.Is(err, session.ErrEmptyMessage) {
			_ = s.config.Sessions.Delete(ctrl.ID())
		}
		return errorResult(describe(ctrl.ID(), err)), ChatOutput{}, nil
	}

	output := ChatOutput{
		SessionID: ctrl.ID(),
		Reply:     reply.Text,
		Turns:     len(reply.Transcript),
	}
	return textResult(output), output, nil
}

func (s *Server) handleReset(_ context.Context, _ *mcp.CallToolRequest, input ResetInput) (*mcp.CallToolResult, ResetOutput, error) {
	ctrl, err := s.config.Sessions.Get(input.SessionID)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to open session: %v", err)), ResetOutput{}, nil
	}

	output := ResetOutput{
		SessionID: ctrl.ID(),
		Turns:     len(ctrl.Reset()),
	}
	return textResult(output), output, nil
}

func (s *Server) handleEnd(_ context.Context, _ *mcp.CallToolRequest, input EndInput) (*mcp.CallToolResult, EndOutput, error) {
	if err := s.config.Sessions.Delete(input.SessionID); err != nil {
		return errorResult(fmt.Sprintf("Failed to end session: %v", err)), EndOutput{}, nil
	}

	s.config.Logger.Debug("MCP session ended", "session_id", input.SessionID)
	output := EndOutput{SessionID: input.SessionID, Ended: true}
	return textResult(output), output, nil
}

func describe(id string, err error) string {
	if ce, ok := llm.AsCallError(err); ok {
		retry := "not retryable"
		if ce.Kind.Retryable() {
			retry = "retryable"
		}
		return fmt.Sprintf("Session %s: provider call failed (%s, %s): %s", id, ce.Kind, retry, ce.Detail)
	}
	if errors.Is(err, session.ErrBusy) {
		return fmt.Sprintf("Session %s is still waiting for a reply", id)
	}
	return fmt.Sprintf("Session %s: %v", id, err)
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
	}
}

// textResult mirrors structured output as JSON text for clients that only
// read content blocks.
func textResult(v any) *mcp.CallToolResult {
	b, err := json.Marshal(v)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to serialize result: %v", err))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}
}
