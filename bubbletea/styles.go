package bubbletea

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/chatter"
)

// Styles maps a Theme to lipgloss styles for TUI rendering.
type Styles struct {
	UserBubble      lipgloss.Style
	ResponderBubble lipgloss.Style
	FallbackBubble  lipgloss.Style
	Error           lipgloss.Style
	Muted           lipgloss.Style
	Accent          lipgloss.Style
	Sidebar         lipgloss.Style
	SidebarActive   lipgloss.Style
}

// NewStyles creates Styles from a Theme.
func NewStyles(t chatter.Theme) Styles {
	bubble := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	return Styles{
		UserBubble:      bubble.BorderForeground(ansiColor(t.UserMsg)),
		ResponderBubble: bubble.BorderForeground(ansiColor(t.Responder)),
		FallbackBubble:  bubble.BorderForeground(ansiColor(t.Fallback)).Foreground(ansiColor(t.Fallback)),
		Error:           lipgloss.NewStyle().Foreground(ansiColor(t.Fallback)),
		Muted:           lipgloss.NewStyle().Foreground(ansiColor(t.Muted)).Faint(true),
		Accent:          lipgloss.NewStyle().Foreground(ansiColor(t.Accent)).Bold(true),
		Sidebar: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderRight(true).
			BorderForeground(ansiColor(t.Border)),
		SidebarActive: lipgloss.NewStyle().Foreground(ansiColor(t.Accent)).Bold(true),
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}
