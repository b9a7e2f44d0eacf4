package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/advisor/api/mcp"
	"github.com/papercomputeco/advisor/pkg/session"
)

// Server is the API server for creating and driving chat sessions.
type Server struct {
	config   Config
	sessions *session.Manager
	logger   *slog.Logger
	app      *fiber.App
}

// NewServer creates a new API server.
// The session manager is injected so serve can swap its base config on reload.
func NewServer(config Config, sessions *session.Manager, logger *slog.Logger) (*Server, error) {
	if sessions == nil {
		return nil, errors.New("session manager is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:   config,
		sessions: sessions,
		logger:   logger,
		app:      app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/v1/profiles", s.handleListProfiles)

	v1 := app.Group("/v1/sessions")
	v1.Post("/", s.handleCreateSession)
	v1.Get("/", s.handleListSessions)
	v1.Get("/:id", s.handleGetSession)
	v1.Delete("/:id", s.handleDeleteSession)
	v1.Post("/:id/messages", s.handleSubmit)
	v1.Post("/:id/reset", s.handleReset)

	if !config.DisableMCP {
		mcpServer, err := mcp.NewServer(mcp.Config{
			Sessions: sessions,
			Logger:   logger,
		})
		if err != nil {
			return nil, err
		}
		app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))
	}

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
