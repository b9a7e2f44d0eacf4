package chatcmder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/papercomputeco/advisor/pkg/cliui"
	"github.com/papercomputeco/advisor/pkg/session"
)

// repl is the line-oriented chat loop.
type repl struct {
	ctrl *session.Controller
	in   io.Reader
	out  io.Writer

	// spinner and markdown are only enabled for terminals.
	spinner  bool
	markdown bool
	width    int
}

func (r *repl) run(ctx context.Context) error {
	r.header()

	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for {
		fmt.Fprint(r.out, cliui.UserPrompt)
		if !scanner.Scan() {
			// EOF or error
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if quit := r.command(input); quit {
				break
			}
			continue
		}

		r.send(ctx, input)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Fprintln(r.out)
	return nil
}

func (r *repl) header() {
	p := r.ctrl.Profile()

	fmt.Fprintln(r.out)
	fmt.Fprintf(r.out, "  %s %s\n", cliui.KeyStyle.Render("Profile:"), cliui.NameStyle.Render(p.Name))
	if p.Model != "" {
		fmt.Fprintf(r.out, "  %s %s\n", cliui.KeyStyle.Render("Model:"), cliui.NameStyle.Render(p.Model))
	}
	fmt.Fprintf(r.out, "  %s %s\n\n", cliui.KeyStyle.Render("Endpoint:"), cliui.DimStyle.Render(p.URL(p.Model)))
	fmt.Fprintf(r.out, "  %s\n\n", cliui.DimStyle.Render("Ask about phones, laptops, headphones and more. /help for commands, /exit or Ctrl+D to quit."))
}

// command runs a slash command and reports whether the loop should stop.
func (r *repl) command(input string) bool {
	switch strings.Fields(input)[0] {
	case "/exit", "/quit":
		return true
	case "/reset":
		r.ctrl.Reset()
		fmt.Fprintf(r.out, "  %s Conversation cleared\n\n", cliui.SuccessMark)
	case "/history":
		fmt.Fprintln(r.out)
		cliui.WriteTranscript(r.out, r.ctrl.Transcript())
		fmt.Fprintln(r.out)
	case "/help":
		fmt.Fprintf(r.out, "\n  %s  clear the conversation\n  %s  show the conversation\n  %s  quit\n\n",
			cliui.KeyStyle.Render("/reset  "),
			cliui.KeyStyle.Render("/history"),
			cliui.KeyStyle.Render("/exit   "),
		)
	default:
		fmt.Fprintf(r.out, "  %s unknown command %s (try /help)\n\n", cliui.WarnMark, input)
	}
	return false
}

func (r *repl) send(ctx context.Context, input string) {
	var (
		reply session.Reply
		err   error
	)
	submit := func() error {
		reply, err = r.ctrl.Send(ctx, input)
		return err
	}

	if r.spinner {
		_ = cliui.Step(r.out, "thinking", submit)
	} else {
		_ = submit()
	}

	if err != nil {
		fmt.Fprintf(r.out, "  %s\n\n", cliui.ErrorLine(err))
		return
	}

	r.reply(reply.Text)
}

func (r *repl) reply(text string) {
	if r.markdown {
		if rendered, err := cliui.RenderMarkdown(text, r.width); err == nil {
			fmt.Fprintf(r.out, "%s\n%s", cliui.AssistantPrompt, rendered)
			return
		}
	}
	fmt.Fprintf(r.out, "%s%s\n\n", cliui.AssistantPrompt, text)
}
