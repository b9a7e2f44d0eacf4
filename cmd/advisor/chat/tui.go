package chatcmder

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/papercomputeco/advisor/pkg/cliui"
	"github.com/papercomputeco/advisor/pkg/llm"
	"github.com/papercomputeco/advisor/pkg/session"
)

// chrome is the number of rows used by everything except the viewport.
const chrome = 5

var (
	tuiTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	tuiMutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	tuiNoticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
)

type chatKeyMap struct {
	Send  key.Binding
	Reset key.Binding
	Up    key.Binding
	Down  key.Binding
	Quit  key.Binding
}

func (k chatKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.Reset, k.Up, k.Down, k.Quit}
}

func (k chatKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Send, k.Reset}, {k.Up, k.Down, k.Quit}}
}

func defaultKeyMap() chatKeyMap {
	return chatKeyMap{
		Send:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		Reset: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reset")),
		Up:    key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		Down:  key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),
		Quit:  key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "quit")),
	}
}

// replyMsg carries the result of a Submit back into the update loop.
type replyMsg struct {
	seq        int
	transcript []llm.Turn
	err        error
}

type chatModel struct {
	ctx      context.Context
	ctrl     *session.Controller
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	keys     chatKeyMap
	help     help.Model

	// seq tags submits so replies that lost a race with a reset are dropped.
	seq     int
	waiting bool
	pending string
	notice  string
	width   int
	height  int
}

func runTUI(ctx context.Context, ctrl *session.Controller) error {
	// Force TrueColor profile to fix lipgloss color detection issue
	// See: https://github.com/charmbracelet/lipgloss/issues/439
	renderer := lipgloss.NewRenderer(os.Stdout, termenv.WithProfile(termenv.TrueColor))
	renderer.SetColorProfile(termenv.TrueColor)
	lipgloss.SetDefaultRenderer(renderer)

	program := bubbletea.NewProgram(newChatModel(ctx, ctrl),
		bubbletea.WithContext(ctx),
		bubbletea.WithAltScreen(),
	)
	_, err := program.Run()
	return err
}

func newChatModel(ctx context.Context, ctrl *session.Controller) chatModel {
	input := textinput.New()
	input.Placeholder = "Ask about a gadget..."
	input.Prompt = cliui.UserPrompt
	input.CharLimit = 4000
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	m := chatModel{
		ctx:      ctx,
		ctrl:     ctrl,
		input:    input,
		viewport: viewport.New(80, 20),
		spinner:  spin,
		keys:     defaultKeyMap(),
		help:     help.New(),
		width:    80,
		height:   20 + chrome,
	}
	m.refresh()
	return m
}

func (m chatModel) Init() bubbletea.Cmd {
	return textinput.Blink
}

func (m chatModel) Update(msg bubbletea.Msg) (bubbletea.Model, bubbletea.Cmd) {
	switch msg := msg.(type) {
	case bubbletea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(1, msg.Height-chrome)
		m.input.Width = max(10, msg.Width-len("you> ")-2)
		m.help.Width = msg.Width
		m.refresh()
		return m, nil

	case replyMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.waiting = false
		m.pending = ""
		switch {
		case errors.Is(msg.err, session.ErrReset):
			// The conversation was cleared while waiting; nothing to show.
		case msg.err != nil:
			m.notice = cliui.ErrorLine(msg.err)
		default:
			m.notice = ""
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd bubbletea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case bubbletea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m chatModel) handleKey(msg bubbletea.KeyMsg) (bubbletea.Model, bubbletea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, bubbletea.Quit
	case key.Matches(msg, m.keys.Reset):
		return m.reset(), nil
	case key.Matches(msg, m.keys.Send):
		return m.send()
	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
		var cmd bubbletea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd bubbletea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m chatModel) send() (bubbletea.Model, bubbletea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	switch text {
	case "":
		return m, nil
	case "/exit", "/quit":
		return m, bubbletea.Quit
	case "/reset":
		m.input.SetValue("")
		return m.reset(), nil
	}

	if m.waiting {
		m.notice = cliui.WarnMark + " still waiting for the previous reply"
		return m, nil
	}

	m.input.SetValue("")
	m.waiting = true
	m.pending = text
	m.notice = ""
	m.seq++
	cmd := submitCmd(m.ctx, m.ctrl, m.seq, text)
	m.refresh()
	return m, bubbletea.Batch(cmd, m.spinner.Tick)
}

func (m chatModel) reset() chatModel {
	m.ctrl.Reset()
	m.seq++
	m.waiting = false
	m.pending = ""
	m.notice = cliui.SuccessMark + " conversation cleared"
	m.refresh()
	return m
}

// submitCmd runs Submit off the update loop.
func submitCmd(ctx context.Context, ctrl *session.Controller, seq int, text string) bubbletea.Cmd {
	return func() bubbletea.Msg {
		transcript, err := ctrl.Submit(ctx, text)
		return replyMsg{seq: seq, transcript: transcript, err: err}
	}
}

// refresh re-renders the transcript into the viewport and scrolls to the end.
func (m *chatModel) refresh() {
	var b strings.Builder
	for _, t := range m.ctrl.Transcript() {
		if t.Role == llm.RoleSystem {
			continue
		}
		b.WriteString(cliui.RoleLabel(t.Role))
		b.WriteString(t.Content)
		b.WriteString("\n\n")
	}
	if m.waiting {
		b.WriteString(cliui.UserPrompt)
		b.WriteString(m.pending)
		b.WriteString("\n")
	}

	content := lipgloss.NewStyle().Width(max(1, m.width)).Render(strings.TrimRight(b.String(), "\n"))
	m.viewport.SetContent(content)
	m.viewport.GotoBottom()
}

func (m chatModel) View() string {
	p := m.ctrl.Profile()

	var b strings.Builder
	b.WriteString(tuiTitleStyle.Render("advisor"))
	b.WriteString(" ")
	b.WriteString(tuiMutedStyle.Render(p.Name + " " + p.Model))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	switch {
	case m.waiting:
		b.WriteString(m.spinner.View() + " " + tuiMutedStyle.Render("thinking"))
	case m.notice != "":
		b.WriteString(tuiNoticeStyle.Render(m.notice))
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return b.String()
}
