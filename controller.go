package chatter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rivo/uniseg"
)

// DefaultFallback is the responder message appended when a turn fails.
const DefaultFallback = "Sorry, I couldn't reach the service right now. Please try again later."

// TurnState is the lifecycle state of a Turn.
type TurnState int

const (
	TurnSending   TurnState = iota // Request outstanding.
	TurnDelivered                  // Reply appended.
	TurnFailed                     // Fallback appended.
	TurnDiscarded                  // Session or trigger gone; nothing appended.
)

func (s TurnState) String() string {
	switch s {
	case TurnSending:
		return "sending"
	case TurnDelivered:
		return "delivered"
	case TurnFailed:
		return "failed"
	case TurnDiscarded:
		return "discarded"
	default:
		return fmt.Sprintf("TurnState(%d)", int(s))
	}
}

// Turn is one user submission and its eventual single result.
type Turn struct {
	sessionID string
	trigger   Message
	done      chan struct{}

	mu    sync.Mutex
	state TurnState
	reply Message
	err   error
}

// SessionID returns the session the turn was issued against.
func (t *Turn) SessionID() string { return t.sessionID }

// Trigger returns the user message that started the turn.
func (t *Turn) Trigger() Message { return t.trigger }

// Done is closed once the turn has resolved.
func (t *Turn) Done() <-chan struct{} { return t.done }

// State returns the current state.
func (t *Turn) State() TurnState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Reply returns the appended responder message. It is the zero Message
// while sending and after a discard.
func (t *Turn) Reply() Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reply
}

// Err returns why the turn failed or was discarded.
func (t *Turn) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func (t *Turn) resolve(state TurnState, reply Message, err error) {
	t.mu.Lock()
	t.state = state
	t.reply = reply
	t.err = err
	t.mu.Unlock()
	close(t.done)
}

// Controller accepts user input, drives the Gateway and records results in
// the Store. Each submission becomes an independent Turn; any number may be
// outstanding at once, across one or several sessions.
type Controller struct {
	store    *Store
	gateway  Gateway
	fallback string
	timeout  time.Duration
	user     string
	titleLen int
	sound    SoundPlayer
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	closed  bool
	pending map[string]int
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithFallback sets the text appended when a turn fails.
func WithFallback(text string) ControllerOption {
	return func(c *Controller) {
		if text != "" {
			c.fallback = text
		}
	}
}

// WithTimeout bounds each Gateway call. Zero means no deadline.
func WithTimeout(d time.Duration) ControllerOption {
	return func(c *Controller) { c.timeout = d }
}

// WithUser sets the identity passed to the Gateway with every request.
func WithUser(user string) ControllerOption {
	return func(c *Controller) { c.user = user }
}

// WithAutoTitle renames a session still carrying the default title after
// its first user message, using at most n grapheme clusters of the text.
func WithAutoTitle(n int) ControllerOption {
	return func(c *Controller) { c.titleLen = n }
}

// WithSoundPlayer sets the cue played when a reply arrives.
func WithSoundPlayer(p SoundPlayer) ControllerOption {
	return func(c *Controller) { c.sound = p }
}

// WithControllerLogger sets the logger for failed and discarded turns.
func WithControllerLogger(l *slog.Logger) ControllerOption {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewController creates a Controller over store and gw.
func NewController(store *Store, gw Gateway, opts ...ControllerOption) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		store:    store,
		gateway:  gw,
		fallback: DefaultFallback,
		logger:   slog.New(slog.DiscardHandler),
		ctx:      ctx,
		cancel:   cancel,
		pending:  make(map[string]int),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Submit appends text as a user message to the active session and sends it
// to the responder in the background. Blank text returns ErrValidation and
// changes nothing.
func (c *Controller) Submit(text string) (*Turn, error) {
	return c.submit("", text)
}

// SubmitTo is like Submit but targets the session with the given id.
func (c *Controller) SubmitTo(sessionID, text string) (*Turn, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("empty session id: %w", ErrNotFound)
	}
	return c.submit(sessionID, text)
}

func (c *Controller) submit(sessionID, text string) (*Turn, error) {
	if err := ValidateText(text); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, fmt.Errorf("controller closed: %w", ErrIllegalState)
	}
	c.wg.Add(1)
	c.mu.Unlock()

	sessionID, trigger, history, err := c.store.appendTrigger(sessionID, Message{Role: RoleUser, Content: text})
	if err != nil {
		c.wg.Done()
		return nil, err
	}

	c.mu.Lock()
	c.pending[sessionID]++
	c.mu.Unlock()

	c.autoTitle(sessionID, text, history)

	t := &Turn{sessionID: sessionID, trigger: trigger, done: make(chan struct{})}
	c.store.publish(EventTurnStarted{SessionID: sessionID, TriggerID: trigger.ID})
	go c.run(t, history)
	return t, nil
}

func (c *Controller) run(t *Turn, history []Message) {
	defer c.wg.Done()

	ctx := c.ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	text, err := c.gateway.Send(ctx, Request{
		SessionID: t.sessionID,
		User:      c.user,
		Text:      t.trigger.Content,
		History:   history,
	})
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%w after %s: %w", ErrTimeout, c.timeout, err)
	}

	state := TurnDelivered
	content := text
	if err != nil {
		state = TurnFailed
		content = c.fallback
		c.logger.Warn("responder request failed", "session", t.sessionID, "message", t.trigger.ID, "error", err)
	}

	reply, insErr := c.store.insertReply(t.sessionID, t.trigger.ID, Message{Role: RoleResponder, Content: content})
	if insErr != nil {
		state = TurnDiscarded
		reply = Message{}
		err = errors.Join(err, insErr)
		c.logger.Info("discarding result for removed turn", "session", t.sessionID, "message", t.trigger.ID)
	}

	c.mu.Lock()
	if c.pending[t.sessionID]--; c.pending[t.sessionID] <= 0 {
		delete(c.pending, t.sessionID)
	}
	c.mu.Unlock()

	t.resolve(state, reply, err)
	c.store.publish(EventTurnResolved{SessionID: t.sessionID, TriggerID: t.trigger.ID, State: state})

	if state == TurnDelivered && c.sound != nil {
		c.sound.Play()
	}
}

func (c *Controller) autoTitle(sessionID, text string, history []Message) {
	if c.titleLen <= 0 {
		return
	}
	for _, m := range history {
		if m.Role == RoleUser {
			return
		}
	}
	sess, err := c.store.Session(sessionID)
	if err != nil || sess.Title != c.store.title {
		return
	}
	if err := c.store.RenameSession(sessionID, truncateGraphemes(text, c.titleLen)); err != nil {
		c.logger.Debug("auto title", "session", sessionID, "error", err)
	}
}

// truncateGraphemes shortens s to at most n user-perceived characters,
// marking the cut with an ellipsis.
func truncateGraphemes(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if uniseg.GraphemeClusterCount(s) <= n {
		return s
	}
	var b strings.Builder
	g := uniseg.NewGraphemes(s)
	for i := 0; i < n-1 && g.Next(); i++ {
		b.WriteString(g.Str())
	}
	return strings.TrimSpace(b.String()) + "…"
}

// Pending returns the number of outstanding turns for a session.
func (c *Controller) Pending(sessionID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending[sessionID]
}

// Typing reports whether the active session is waiting on the responder.
func (c *Controller) Typing() bool {
	return c.Pending(c.store.ActiveID()) > 0
}

// Wait blocks until every outstanding turn has resolved.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close rejects further submissions, cancels outstanding Gateway calls and
// waits for their turns to resolve. Cancelled turns still receive the
// fallback message.
func (c *Controller) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cancel()
	c.wg.Wait()
	return nil
}
