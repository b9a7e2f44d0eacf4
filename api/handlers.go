package api

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/advisor/pkg/llm"
	"github.com/papercomputeco/advisor/pkg/llm/provider"
	"github.com/papercomputeco/advisor/pkg/session"
)

// CreateSessionRequest is the optional body of POST /v1/sessions.
type CreateSessionRequest struct {
	// SystemPrompt overrides the configured system prompt when set.
	SystemPrompt *string `json:"system_prompt,omitempty"`
}

// MessageRequest is the body of POST /v1/sessions/:id/messages.
type MessageRequest struct {
	Message string `json:"message"`
}

// SessionResponse describes one session and its transcript.
type SessionResponse struct {
	session.Info
	Pending    string     `json:"pending,omitempty"`
	Transcript []llm.Turn `json:"transcript"`
}

// MessageResponse is returned for a successful submit.
type MessageResponse struct {
	SessionID  string     `json:"session_id"`
	Reply      string     `json:"reply"`
	Transcript []llm.Turn `json:"transcript"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleListProfiles returns the built-in provider profiles.
func (s *Server) handleListProfiles(c *fiber.Ctx) error {
	profiles := provider.Profiles()
	return c.JSON(map[string]any{
		"count":    len(profiles),
		"current":  s.sessions.Base().Profile.Name,
		"profiles": profiles,
	})
}

func (s *Server) handleCreateSession(c *fiber.Ctx) error {
	var req CreateSessionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
		}
	}

	var opts []session.Option
	if req.SystemPrompt != nil {
		opts = append(opts, session.WithSystemPrompt(*req.SystemPrompt))
	}

	ctrl, err := s.sessions.Create(opts...)
	if err != nil {
		s.logger.Error("failed to create session", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to create session", Detail: err.Error()})
	}

	s.logger.Debug("session created", "session_id", ctrl.ID())
	return c.Status(fiber.StatusCreated).JSON(ctrl.Info())
}

func (s *Server) handleListSessions(c *fiber.Ctx) error {
	infos := s.sessions.List()
	return c.JSON(map[string]any{
		"count":    len(infos),
		"sessions": infos,
	})
}

func (s *Server) handleGetSession(c *fiber.Ctx) error {
	ctrl, err := s.sessions.Get(c.Params("id"))
	if err != nil {
		return s.writeError(c, err)
	}

	pending, _ := ctrl.Pending()
	return c.JSON(SessionResponse{
		Info:       ctrl.Info(),
		Pending:    pending,
		Transcript: ctrl.Transcript(),
	})
}

func (s *Server) handleDeleteSession(c *fiber.Ctx) error {
	if err := s.sessions.Delete(c.Params("id")); err != nil {
		return s.writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleSubmit(c *fiber.Ctx) error {
	ctrl, err := s.sessions.Get(c.Params("id"))
	if err != nil {
		return s.writeError(c, err)
	}

	var req MessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}

	reply, err := ctrl.Send(c.UserContext(), req.Message)
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(MessageResponse{
		SessionID:  ctrl.ID(),
		Reply:      reply.Text,
		Transcript: reply.Transcript,
	})
}

func (s *Server) handleReset(c *fiber.Ctx) error {
	ctrl, err := s.sessions.Get(c.Params("id"))
	if err != nil {
		return s.writeError(c, err)
	}

	transcript := ctrl.Reset()
	return c.JSON(SessionResponse{
		Info:       ctrl.Info(),
		Transcript: transcript,
	})
}

// writeError maps session and provider errors onto HTTP responses.
func (s *Server) writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "session not found"})
	case errors.Is(err, session.ErrEmptyMessage):
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "message is required"})
	case errors.Is(err, session.ErrBusy):
		return c.Status(fiber.StatusConflict).JSON(llm.ErrorResponse{Error: err.Error(), Retryable: true})
	case errors.Is(err, session.ErrReset):
		return c.Status(fiber.StatusConflict).JSON(llm.ErrorResponse{Error: err.Error()})
	}

	if ce, ok := llm.AsCallError(err); ok {
		return c.Status(statusForKind(ce.Kind)).JSON(llm.ErrorResponse{
			Error:     "provider call failed",
			Kind:      string(ce.Kind),
			Retryable: ce.Kind.Retryable(),
			Detail:    ce.Detail,
		})
	}

	s.logger.Error("request failed", "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "internal error", Detail: err.Error()})
}

func statusForKind(kind llm.Kind) int {
	switch kind {
	case llm.KindTimeout:
		return http.StatusGatewayTimeout
	case llm.KindRateLimited:
		return http.StatusTooManyRequests
	case llm.KindLoading, llm.KindServerError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
