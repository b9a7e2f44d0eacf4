// Package chatcmder provides the chat command for interactive gadget advice
// in the terminal.
package chatcmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/advisor/pkg/config"
	"github.com/papercomputeco/advisor/pkg/credentials"
	"github.com/papercomputeco/advisor/pkg/llm/provider"
	"github.com/papercomputeco/advisor/pkg/logger"
	"github.com/papercomputeco/advisor/pkg/session"
)

type chatCommander struct {
	flags     config.SessionFlagValues
	configDir string
	debug     bool
	tui       bool
	plain     bool

	cfg    *config.Config
	logger *slog.Logger
}

const chatLongDesc string = `Start an interactive chat with the gadget advisor.

Each message is sent to the selected provider profile together with the
recent conversation history. Replies are rendered as markdown when the
output is a terminal.

Commands inside the chat:
  /reset     Clear the conversation
  /history   Show the conversation so far
  /help      Show these commands
  /exit      Quit (Ctrl+D also quits)

Examples:
  advisor chat
  advisor chat --profile ollama --model llama3.2
  advisor chat --profile openai --temperature 0.3
  advisor chat --tui`

const chatShortDesc string = "Interactive gadget advisor chat"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.SessionFlags, config.SessionFlags.Keys())

			cmder.cfg, err = config.FromViper(v)
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
	cmd.Flags().BoolVar(&cmder.tui, "tui", false, "Use the full-screen chat interface")
	cmd.Flags().BoolVar(&cmder.plain, "plain", false, "Print replies without markdown rendering")

	return cmd
}

func (c *chatCommander) run(cmd *cobra.Command) error {
	c.logger = logger.New(
		logger.WithDebug(c.debug),
		logger.WithPretty(true),
		logger.WithWriter(cmd.ErrOrStderr()),
	)

	ctrl, err := c.newController()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if c.tui {
		return runTUI(ctx, ctrl)
	}

	r := &repl{
		ctrl: ctrl,
		in:   cmd.InOrStdin(),
		out:  cmd.OutOrStdout(),
	}
	if f, ok := r.out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		r.spinner = true
		r.markdown = !c.plain
		if w, _, err := term.GetSize(int(f.Fd())); err == nil {
			r.width = w
		}
	}

	return r.run(ctx)
}

func (c *chatCommander) newController() (*session.Controller, error) {
	creds, err := credentials.NewManager(c.configDir)
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}

	sender := provider.NewClient(nil, c.logger)
	sc, err := session.FromSettings(c.cfg, creds, sender, nil, c.logger)
	if err != nil {
		return nil, err
	}

	return session.New(sc)
}
