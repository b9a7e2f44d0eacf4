package cliui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/papercomputeco/advisor/pkg/llm"
)

var (
	UserPrompt      = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you> ")
	AssistantPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("advisor> ")
	SystemPrompt    = lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Render("system> ")
)

// RoleLabel returns the styled prefix for role.
func RoleLabel(role llm.Role) string {
	switch role {
	case llm.RoleUser:
		return UserPrompt
	case llm.RoleSystem:
		return SystemPrompt
	default:
		return AssistantPrompt
	}
}

// WriteTranscript prints turns oldest first. System turns are shortened to
// their first line.
func WriteTranscript(w io.Writer, turns []llm.Turn) {
	if len(turns) == 0 {
		fmt.Fprintf(w, "  %s\n", DimStyle.Render("(empty conversation)"))
		return
	}

	for _, t := range turns {
		content := t.Content
		if t.Role == llm.RoleSystem {
			first, _, cut := strings.Cut(content, "\n")
			if cut {
				first += " …"
			}
			content = DimStyle.Render(first)
		}
		fmt.Fprintf(w, "%s%s\n", RoleLabel(t.Role), content)
	}
}
