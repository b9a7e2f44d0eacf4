// Package mcp provides an MCP (Model Context Protocol) server that exposes
// advisor chat sessions as tools.
package mcp

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/advisor/pkg/session"
	"github.com/papercomputeco/advisor/pkg/utils"
)

type Config struct {
	// Sessions holds the chat sessions the tools operate on
	Sessions *session.Manager

	// Noop for empty MCP server
	Noop bool

	// Logger is the configured structured logger
	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the chat and reset tools.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "advisor",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if !c.Noop {
		if c.Sessions == nil {
			return nil, errors.New("session manager is required")
		}
		if c.Logger == nil {
			return nil, errors.New("logger is required")
		}

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        chatToolName,
			Description: chatDescription,
		}, s.handleChat)

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        resetToolName,
			Description: resetDescription,
		}, s.handleReset)

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        endToolName,
			Description: endDescription,
		}, s.handleEnd)
	}

	s.mcpServer = mcpServer

	// Stateless: session continuity lives in the session manager, keyed by
	// the session_id tool argument.
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// MCPServer returns the underlying server, for in-memory transports.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcpServer
}
