// Package bubbletea provides a Bubble Tea TUI for chatter sessions.
package bubbletea

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/chatter"
)

// Sessions is the part of the session store the TUI reads and drives.
type Sessions interface {
	Sessions() []chatter.Session
	Active() (chatter.Session, error)
	ActiveID() string
	SetActive(id string) error
	CreateSession(title string) string
	ClearMessages(id string) error
	DeleteSession(id string) error
	Subscribe(fn func(chatter.Event)) (unsubscribe func())
}

// Conversation accepts user input and reports outstanding turns.
type Conversation interface {
	Submit(text string) (*chatter.Turn, error)
	Pending(sessionID string) int
	Typing() bool
}

var (
	_ Sessions     = (*chatter.Store)(nil)
	_ Conversation = (*chatter.Controller)(nil)
)

// Run creates and runs the Bubble Tea TUI program. It blocks until the program
// exits. The context is used for graceful shutdown: when cancelled, the
// program quits.
func Run(ctx context.Context, m Model) error {
	defer m.Close()
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err := p.Run()
	return err
}

// StoreEventMsg wraps a store event for delivery to the Bubble Tea model.
type StoreEventMsg struct {
	Event chatter.Event
}

// Bell is a SoundPlayer that rings the terminal bell.
type Bell struct {
	W io.Writer
}

var _ chatter.SoundPlayer = Bell{}

// Play writes the BEL control character.
func (b Bell) Play() {
	if b.W != nil {
		fmt.Fprint(b.W, "\a")
	}
}
