// Package servecmder provides the serve command that runs the session API
// and MCP server.
package servecmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/advisor/api"
	"github.com/papercomputeco/advisor/pkg/config"
	"github.com/papercomputeco/advisor/pkg/credentials"
	"github.com/papercomputeco/advisor/pkg/eventstream"
	"github.com/papercomputeco/advisor/pkg/eventstream/kafka"
	"github.com/papercomputeco/advisor/pkg/eventstream/nop"
	"github.com/papercomputeco/advisor/pkg/eventstream/worker"
	"github.com/papercomputeco/advisor/pkg/llm/provider"
	"github.com/papercomputeco/advisor/pkg/logger"
	"github.com/papercomputeco/advisor/pkg/session"
)

type serveCommander struct {
	flags       config.SessionFlagValues
	listen      string
	eventstream string
	brokers     string
	topic       string
	logFile     string
	noMCP       bool
	noWatch     bool
	idleTimeout time.Duration

	configDir string
	debug     bool
	cmd       *cobra.Command
	cfg       *config.Config
	logger    *slog.Logger
}

const serveLongDesc string = `Run the advisor session API server.

The server keeps independent chat sessions in memory and exposes them over
HTTP. An MCP endpoint at /mcp offers the same sessions as tools.

Endpoints:
  GET    /ping                       Health check
  GET    /v1/profiles                Built-in provider profiles
  POST   /v1/sessions                Create a session
  GET    /v1/sessions                List sessions
  GET    /v1/sessions/:id            Session state and transcript
  POST   /v1/sessions/:id/messages   Send a message
  POST   /v1/sessions/:id/reset      Clear a session
  DELETE /v1/sessions/:id            End a session
  POST   /mcp                        MCP streamable HTTP (advisor_chat, advisor_reset, advisor_end)

Changes to config.toml are applied to sessions created after the change.
Sessions left idle for longer than --idle-timeout are ended; 0 keeps them.
Turn-completed events can be published to Kafka with --eventstream kafka.

Examples:
  advisor serve
  advisor serve --listen :9000 --profile ollama
  advisor serve --eventstream kafka --brokers localhost:9092 --log-file advisor.log`

const serveShortDesc string = "Run the advisor session API server"

func NewServeCmd() *cobra.Command {
	cmd, _ := newServeCmd()
	return cmd
}

func newServeCmd() (*cobra.Command, *serveCommander) {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.cmd = cmd
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			var err error
			cmder.cfg, err = cmder.loadConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(cmd)
		},
	}

	cmder.flags.Register(cmd)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagEventStream, &cmder.eventstream)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagBrokers, &cmder.brokers)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagTopic, &cmder.topic)
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also write JSON logs to this file")
	cmd.Flags().BoolVar(&cmder.noMCP, "no-mcp", false, "Do not mount the MCP endpoint")
	cmd.Flags().BoolVar(&cmder.noWatch, "no-watch", false, "Do not reload config.toml on change")
	cmd.Flags().DurationVar(&cmder.idleTimeout, "idle-timeout", time.Hour, "End sessions idle for longer than this (0 disables)")

	return cmd, cmder
}

// loadConfig resolves flag > env > file > default for every session and
// serve key.
func (c *serveCommander) loadConfig() (*config.Config, error) {
	v, err := config.InitViper(c.configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	config.BindRegisteredFlags(v, c.cmd, config.SessionFlags, config.SessionFlags.Keys())
	config.BindRegisteredFlags(v, c.cmd, config.ServeFlags, config.ServeFlags.Keys())

	return config.FromViper(v)
}

func (c *serveCommander) run(cmd *cobra.Command) error {
	log, closeLog, err := c.newLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog()
	c.logger = log

	publisher, err := c.newPublisher()
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			c.logger.Warn("closing event publisher", "error", err)
		}
	}()

	creds, err := credentials.NewManager(c.configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}
	sender := provider.NewClient(nil, c.logger)

	base, err := session.FromSettings(c.cfg, creds, sender, publisher, c.logger)
	if err != nil {
		return err
	}
	sessions := session.NewManager(base)

	server, err := api.NewServer(api.Config{
		ListenAddr: c.cfg.API.Listen,
		DisableMCP: c.noMCP,
	}, sessions, c.logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c.logger.Info("serving advisor sessions",
		"listen", c.cfg.API.Listen,
		"profile", base.Profile.Name,
		"model", base.Profile.Model,
		"eventstream", c.cfg.EventStream.Provider,
		"mcp", !c.noMCP,
	)

	if !c.noWatch {
		c.watch(ctx, func() {
			c.reload(sessions, creds, sender, publisher)
		})
	}

	if c.idleTimeout > 0 {
		go c.pruneIdle(ctx, sessions, pruneInterval(c.idleTimeout))
	}

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		c.logger.Info("shutting down")
		return server.Shutdown()
	}
}

// pruneIdle ends idle sessions every interval until ctx is done.
func (c *serveCommander) pruneIdle(ctx context.Context, sessions *session.Manager, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, id := range sessions.PruneIdle(c.idleTimeout, now) {
				c.logger.Info("ended idle session", "session_id", id, "idle_timeout", c.idleTimeout)
			}
		}
	}
}

func pruneInterval(idle time.Duration) time.Duration {
	return min(max(idle/4, time.Second), time.Minute)
}

// newLogger writes pretty logs to w and, with --log-file, JSON logs to the file.
func (c *serveCommander) newLogger(w io.Writer) (*slog.Logger, func(), error) {
	pretty := logger.New(
		logger.WithDebug(c.debug),
		logger.WithPretty(true),
		logger.WithWriter(w),
	)
	if c.logFile == "" {
		return pretty, func() {}, nil
	}

	f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	jsonLog := logger.New(
		logger.WithDebug(c.debug),
		logger.WithJSON(true),
		logger.WithWriter(f),
	)
	return logger.Multi(pretty, jsonLog), func() { _ = f.Close() }, nil
}

func (c *serveCommander) newPublisher() (eventstream.Publisher, error) {
	es := c.cfg.EventStream
	switch es.Provider {
	case config.EventStreamKafka:
		p, err := kafka.NewPublisher(kafka.Config{
			Brokers: es.Brokers,
			Topic:   es.Topic,
			Logger:  c.logger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}

		// Kafka writes happen on the pool so a slow broker never holds a session.
		pool, err := worker.NewPool(worker.Config{Publisher: p, Logger: c.logger})
		if err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("creating event worker pool: %w", err)
		}
		c.logger.Info("publishing turn events to kafka", "brokers", es.Brokers, "topic", es.Topic)
		return pool, nil
	case config.EventStreamNop, "":
		return nop.NewPublisher(c.logger), nil
	default:
		return nil, fmt.Errorf("unknown eventstream provider %q", es.Provider)
	}
}

func (c *serveCommander) watch(ctx context.Context, onChange func()) {
	cfger, err := config.NewConfiger(c.configDir)
	if err != nil {
		c.logger.Warn("config reload disabled", "error", err)
		return
	}

	path := cfger.GetTarget()
	go func() {
		if err := config.Watch(ctx, path, onChange); err != nil {
			c.logger.Warn("config reload stopped", "error", err)
		}
	}()
	c.logger.Debug("watching config", "path", path)
}

// reload swaps the base config for new sessions. Listen address and event
// stream changes need a restart.
func (c *serveCommander) reload(sessions *session.Manager, creds session.CredentialResolver, sender provider.Sender, publisher eventstream.Publisher) {
	cfg, err := c.loadConfig()
	if err != nil {
		c.logger.Warn("ignoring config change", "error", err)
		return
	}

	base, err := session.FromSettings(cfg, creds, sender, publisher, c.logger)
	if err != nil {
		c.logger.Warn("ignoring config change", "error", err)
		return
	}
	sessions.SetBase(base)

	if cfg.API.Listen != c.cfg.API.Listen || !sameEventStream(cfg.EventStream, c.cfg.EventStream) {
		c.logger.Warn("listen and eventstream changes apply after a restart")
	}

	c.cfg = cfg
	c.logger.Info("config reloaded", "profile", base.Profile.Name, "model", base.Profile.Model)
}

func sameEventStream(a, b config.EventStreamConfig) bool {
	return a.Provider == b.Provider && a.Topic == b.Topic && slices.Equal(a.Brokers, b.Brokers)
}
