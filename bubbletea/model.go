package bubbletea

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/chatter"
	"github.com/mattn/go-runewidth"
)

const (
	sidebarWidth    = 24
	minSidebarWidth = 60 // narrower terminals hide the sidebar
	eventBuffer     = 64
)

var _ tea.Model = Model{}

// Model is the Bubble Tea model for the chatter TUI.
type Model struct {
	// Input is the text input component. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable conversation area. Exported for test access.
	Viewport viewport.Model
	// Spinner animates the typing indicator.
	Spinner spinner.Model

	store    Sessions
	conv     Conversation
	renderer chatter.Renderer
	fallback string
	styles   Styles

	events      chan chatter.Event
	unsubscribe func()

	sessions []chatter.Session
	activeID string
	blocks   map[string]MessageBlock // keyed by message id
	order    []MessageBlock

	sidebar int
	height  int
	err     error
	ready   bool
}

// Option configures a Model.
type Option func(*Model)

// WithRenderer sets the renderer for responder messages.
func WithRenderer(r chatter.Renderer) Option {
	return func(m *Model) {
		if r != nil {
			m.renderer = r
		}
	}
}

// WithTheme sets the color theme.
func WithTheme(t chatter.Theme) Option {
	return func(m *Model) { m.styles = NewStyles(t) }
}

// WithFallbackText sets the text that marks a responder message as a
// fallback, so it can be styled apart from real replies.
func WithFallbackText(text string) Option {
	return func(m *Model) { m.fallback = text }
}

// New creates a TUI Model over a session store and a conversation. The
// model subscribes to store events until Close is called.
func New(store Sessions, conv Conversation, opts ...Option) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message..."
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 0

	m := Model{
		Input:    ti,
		Spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		store:    store,
		conv:     conv,
		renderer: chatter.PlainText{},
		fallback: chatter.DefaultFallback,
		styles:   NewStyles(chatter.DefaultTheme()),
		events:   make(chan chatter.Event, eventBuffer),
		blocks:   make(map[string]MessageBlock),
	}
	for _, o := range opts {
		o(&m)
	}

	// The model redraws from a fresh snapshot on every event, so when the
	// buffer is full a dropped event only coalesces redraws.
	ch := m.events
	m.unsubscribe = store.Subscribe(func(e chatter.Event) {
		select {
		case ch <- e:
		default:
		}
	})
	return m.refresh()
}

// Err returns the last error, if any.
func (m Model) Err() error { return m.err }

// Close stops the store subscription.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.Spinner.Tick, listenForEvent(m.events))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StoreEventMsg:
		return m.refresh(), listenForEvent(m.events)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)
	m.Input, cmd = m.Input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.Input.View())

	if m.sidebar == 0 {
		return b.String()
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.sidebarView(), b.String())
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	m.sidebar = 0
	if msg.Width >= minSidebarWidth {
		m.sidebar = sidebarWidth
	}
	mainWidth := msg.Width - m.sidebar
	// Status line, input line and the two newlines between sections.
	vpHeight := max(msg.Height-4, 1)
	m.height = msg.Height

	if !m.ready {
		m.Viewport = viewport.New(mainWidth, vpHeight)
		m.ready = true
	} else {
		m.Viewport.Width = mainWidth
		m.Viewport.Height = vpHeight
	}
	m.Input.Width = max(mainWidth-lipgloss.Width(m.Input.Prompt)-1, 1)
	return m.redraw()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit

	case tea.KeyEnter:
		return m.submitInput()

	case tea.KeyCtrlN:
		m.store.CreateSession("")
		m.err = nil
		return m.refresh(), nil

	case tea.KeyCtrlL:
		m.err = m.store.ClearMessages(m.activeID)
		return m.refresh(), nil

	case tea.KeyCtrlD:
		m.err = m.store.DeleteSession(m.activeID)
		return m.refresh(), nil

	case tea.KeyTab:
		return m.cycleSession(1), nil

	case tea.KeyShiftTab:
		return m.cycleSession(-1), nil
	}

	// Forward non-character keys to the viewport too, so arrows and paging
	// scroll the conversation while the input keeps focus.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	if msg.Type != tea.KeyRunes {
		m.Viewport, cmd = m.Viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.Input, cmd = m.Input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// submitInput hands the input to the conversation. The input stays enabled
// while replies are outstanding; blank input is left as typed.
func (m Model) submitInput() (tea.Model, tea.Cmd) {
	_, err := m.conv.Submit(m.Input.Value())
	switch {
	case errors.Is(err, chatter.ErrValidation):
		return m, nil
	case err != nil:
		m.err = err
		return m, nil
	}
	m.Input.SetValue("")
	m.err = nil
	return m.refresh(), nil
}

func (m Model) cycleSession(step int) Model {
	n := len(m.sessions)
	if n < 2 {
		return m
	}
	i := slices.IndexFunc(m.sessions, func(s chatter.Session) bool { return s.ID == m.activeID })
	next := m.sessions[((i+step)%n+n)%n]
	m.err = m.store.SetActive(next.ID)
	return m.refresh()
}

// refresh re-reads the store and rebuilds the blocks of the active session.
// Blocks for messages already on screen are reused with their render cache.
func (m Model) refresh() Model {
	m.sessions = m.store.Sessions()
	m.activeID = m.store.ActiveID()

	var msgs []chatter.Message
	if i := slices.IndexFunc(m.sessions, func(s chatter.Session) bool { return s.ID == m.activeID }); i >= 0 {
		msgs = m.sessions[i].Messages
	}

	blocks := make(map[string]MessageBlock, len(msgs))
	order := make([]MessageBlock, 0, len(msgs))
	for _, msg := range msgs {
		b, ok := m.blocks[msg.ID]
		if !ok {
			b = m.newBlock(msg)
		}
		blocks[msg.ID] = b
		order = append(order, b)
	}
	m.blocks = blocks
	m.order = order
	return m.redraw()
}

func (m Model) newBlock(msg chatter.Message) MessageBlock {
	content := Sanitize(msg.Content)
	if msg.Role == chatter.RoleUser {
		return NewUserBubble(content, m.styles)
	}
	return NewResponderBubble(content, msg.Content == m.fallback, m.renderer, m.styles)
}

func (m Model) redraw() Model {
	if !m.ready {
		return m
	}
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()
	return m
}

func (m Model) renderContent() string {
	if len(m.order) == 0 {
		return m.styles.Muted.Render("No messages yet. Say hello!")
	}
	views := make([]string, len(m.order))
	for i, b := range m.order {
		views[i] = b.View(m.Viewport.Width)
	}
	return strings.Join(views, "\n")
}

func (m Model) sidebarView() string {
	inner := m.sidebar - 1
	var b strings.Builder
	b.WriteString(m.styles.Accent.Render("Chats"))
	for _, s := range m.sessions {
		marker, style := "  ", lipgloss.NewStyle()
		if s.ID == m.activeID {
			marker, style = "› ", m.styles.SidebarActive
		}
		line := marker + runewidth.Truncate(Sanitize(s.Title), inner-4, "…")
		if m.conv.Pending(s.ID) > 0 {
			line += " •"
		}
		b.WriteString("\n")
		b.WriteString(style.Render(line))
	}
	return m.styles.Sidebar.Width(inner).Height(m.height - 2).Render(b.String())
}

func (m Model) statusLine() string {
	var s string
	switch {
	case m.err != nil:
		s = m.styles.Error.Render(fmt.Sprintf("Error: %v", m.err))
	case m.conv.Typing():
		s = m.Spinner.View() + m.styles.Muted.Render(" Responder is typing...")
	default:
		s = m.styles.Muted.Render("Enter send · ^N new · Tab switch · ^L clear · ^D delete · ^C quit")
	}
	return lipgloss.NewStyle().MaxWidth(m.Viewport.Width).Render(s)
}

// listenForEvent waits for the next store event.
func listenForEvent(ch <-chan chatter.Event) tea.Cmd {
	return func() tea.Msg {
		return StoreEventMsg{Event: <-ch}
	}
}
