package chatter

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store owns every Session and the active-session pointer.
//
// All reads and mutations go through a single lock, so no reader observes a
// partially applied change. After each mutation the full snapshot is handed
// to the Persister (if any) while the lock is still held, which keeps saves
// in mutation order. Subscribers are notified after the lock is released and
// may call back into the Store.
//
// The store always holds at least one session once constructed with
// NewStore: deleting the last session replaces it with a fresh default.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	order    []string
	activeID string

	subMu   sync.Mutex
	subs    []subscriber
	nextSub int

	persister Persister
	logger    *slog.Logger
	title     string
	greeting  string
	now       func() time.Time
	newID     func() string
}

type subscriber struct {
	id int
	fn func(Event)
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithPersister sets the blob store used to restore state on construction
// and save it after every mutation.
func WithPersister(p Persister) StoreOption {
	return func(s *Store) { s.persister = p }
}

// WithLogger sets the logger for persistence problems. Nil is ignored.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDefaultTitle sets the title for sessions created without one.
func WithDefaultTitle(title string) StoreOption {
	return func(s *Store) {
		if strings.TrimSpace(title) != "" {
			s.title = title
		}
	}
}

// WithGreeting seeds every new session with a responder message.
// Empty means new sessions start empty.
func WithGreeting(text string) StoreOption {
	return func(s *Store) { s.greeting = text }
}

// WithClock sets the time source for message and session timestamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator sets the generator for session and message ids.
func WithIDGenerator(newID func() string) StoreOption {
	return func(s *Store) { s.newID = newID }
}

// NewStore creates a Store. When a Persister is configured its snapshot
// seeds the store; a missing or unreadable snapshot falls back to one empty
// default session. NewStore never fails.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		sessions: make(map[string]*Session),
		logger:   slog.New(slog.DiscardHandler),
		title:    DefaultTitle,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	s.restore()
	return s
}

func (s *Store) restore() {
	if s.persister != nil {
		snap, err := s.persister.Load()
		switch {
		case errors.Is(err, ErrNoSnapshot):
			s.logger.Debug("no saved sessions")
		case err != nil:
			s.logger.Warn("discarding unreadable saved sessions", "error", err)
		default:
			s.adopt(snap)
		}
	}
	if len(s.order) == 0 {
		s.createLocked("")
	}
}

func (s *Store) adopt(snap Snapshot) {
	for _, sess := range snap.Sessions {
		if sess.ID == "" {
			s.logger.Warn("skipping saved session without id", "title", sess.Title)
			continue
		}
		if _, dup := s.sessions[sess.ID]; dup {
			s.logger.Warn("skipping duplicate saved session", "session", sess.ID)
			continue
		}
		c := sess.clone()
		s.sessions[c.ID] = &c
		s.order = append(s.order, c.ID)
	}
	if len(s.order) == 0 {
		return
	}
	if _, ok := s.sessions[snap.ActiveID]; ok {
		s.activeID = snap.ActiveID
	} else {
		s.activeID = s.order[0]
	}
}

// CreateSession allocates a new session, makes it active and returns its id.
// A blank title means the default title.
func (s *Store) CreateSession(title string) string {
	s.mu.Lock()
	sess := s.createLocked(title)
	s.saveLocked()
	s.mu.Unlock()

	s.publish(EventSessionCreated{Session: sess}, EventActiveChanged{SessionID: sess.ID})
	return sess.ID
}

func (s *Store) createLocked(title string) Session {
	if strings.TrimSpace(title) == "" {
		title = s.title
	}
	now := s.now()
	sess := &Session{
		ID:        s.newID(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if s.greeting != "" {
		sess.Messages = append(sess.Messages, Message{
			ID:        s.newID(),
			Role:      RoleResponder,
			Content:   s.greeting,
			CreatedAt: now,
		})
	}
	s.sessions[sess.ID] = sess
	s.order = append(s.order, sess.ID)
	s.activeID = sess.ID
	return sess.clone()
}

// Active returns a copy of the active session.
func (s *Store) Active() (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[s.activeID]
	if !ok {
		return Session{}, fmt.Errorf("no active session: %w", ErrIllegalState)
	}
	return sess.clone(), nil
}

// ActiveID returns the id of the active session.
func (s *Store) ActiveID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// SetActive points the active session at id.
func (s *Store) SetActive(id string) error {
	s.mu.Lock()
	if _, ok := s.sessions[id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("session %q: %w", id, ErrNotFound)
	}
	changed := s.activeID != id
	s.activeID = id
	if changed {
		s.saveLocked()
	}
	s.mu.Unlock()

	if changed {
		s.publish(EventActiveChanged{SessionID: id})
	}
	return nil
}

// Session returns a copy of the session with the given id.
func (s *Store) Session(id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("session %q: %w", id, ErrNotFound)
	}
	return sess.clone(), nil
}

// Sessions returns copies of all sessions in creation order.
func (s *Store) Sessions() []Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Session, len(s.order))
	for i, id := range s.order {
		out[i] = s.sessions[id].clone()
	}
	return out
}

// AppendMessage appends m to the end of a session's log. A missing ID or
// CreatedAt is filled in.
func (s *Store) AppendMessage(id string, m Message) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("session %q: %w", id, ErrNotFound)
	}
	m, err := s.stamp(m)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	evt := s.insertLocked(sess, len(sess.Messages), m)
	s.mu.Unlock()

	s.publish(evt)
	return nil
}

// InsertReply places m directly after the message triggerID in the session.
// It fails with ErrNotFound when the session or the trigger no longer exist,
// e.g. after the session was deleted or cleared.
func (s *Store) InsertReply(id, triggerID string, m Message) error {
	_, err := s.insertReply(id, triggerID, m)
	return err
}

func (s *Store) insertReply(id, triggerID string, m Message) (Message, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return Message{}, fmt.Errorf("session %q: %w", id, ErrNotFound)
	}
	idx := sess.indexOf(triggerID)
	if idx < 0 {
		s.mu.Unlock()
		return Message{}, fmt.Errorf("message %q in session %q: %w", triggerID, id, ErrNotFound)
	}
	m, err := s.stamp(m)
	if err != nil {
		s.mu.Unlock()
		return Message{}, err
	}
	evt := s.insertLocked(sess, idx+1, m)
	s.mu.Unlock()

	s.publish(evt)
	return m, nil
}

// appendTrigger appends a user message to the session id, or to the active
// session when id is empty, resolving the target in the same critical
// section. It returns the target id, the stored message and the messages
// that preceded it.
func (s *Store) appendTrigger(id string, m Message) (string, Message, []Message, error) {
	s.mu.Lock()
	if id == "" {
		id = s.activeID
	}
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		if id == "" {
			return "", Message{}, nil, fmt.Errorf("no active session: %w", ErrIllegalState)
		}
		return "", Message{}, nil, fmt.Errorf("session %q: %w", id, ErrNotFound)
	}
	m, err := s.stamp(m)
	if err != nil {
		s.mu.Unlock()
		return "", Message{}, nil, err
	}
	history := make([]Message, len(sess.Messages))
	copy(history, sess.Messages)
	evt := s.insertLocked(sess, len(sess.Messages), m)
	s.mu.Unlock()

	s.publish(evt)
	return id, m, history, nil
}

func (s *Store) stamp(m Message) (Message, error) {
	if !m.Role.Valid() {
		return Message{}, fmt.Errorf("unknown role %q: %w", m.Role, ErrValidation)
	}
	if m.ID == "" {
		m.ID = s.newID()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.now()
	}
	return m, nil
}

func (s *Store) insertLocked(sess *Session, at int, m Message) EventMessageAppended {
	sess.Messages = slices.Insert(sess.Messages, at, m)
	sess.UpdatedAt = s.now()
	s.saveLocked()
	return EventMessageAppended{SessionID: sess.ID, Index: at, Message: m}
}

// ClearMessages truncates a session's log to empty.
func (s *Store) ClearMessages(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("session %q: %w", id, ErrNotFound)
	}
	sess.Messages = nil
	sess.UpdatedAt = s.now()
	s.saveLocked()
	s.mu.Unlock()

	s.publish(EventSessionCleared{SessionID: id})
	return nil
}

// RenameSession changes a session's title.
func (s *Store) RenameSession(id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("title must not be blank: %w", ErrValidation)
	}
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("session %q: %w", id, ErrNotFound)
	}
	sess.Title = title
	sess.UpdatedAt = s.now()
	s.saveLocked()
	s.mu.Unlock()

	s.publish(EventSessionRenamed{SessionID: id, Title: title})
	return nil
}

// DeleteSession removes a session. If it was active, the previous session
// in display order (or the next, for the first) becomes active. Deleting the
// only session replaces it with a new default one.
func (s *Store) DeleteSession(id string) error {
	s.mu.Lock()
	idx := slices.Index(s.order, id)
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("session %q: %w", id, ErrNotFound)
	}
	delete(s.sessions, id)
	s.order = slices.Delete(s.order, idx, idx+1)

	events := []Event{EventSessionDeleted{SessionID: id}}
	switch {
	case len(s.order) == 0:
		sess := s.createLocked("")
		events = append(events, EventSessionCreated{Session: sess}, EventActiveChanged{SessionID: sess.ID})
	case s.activeID == id:
		s.activeID = s.order[max(idx-1, 0)]
		events = append(events, EventActiveChanged{SessionID: s.activeID})
	}
	s.saveLocked()
	s.mu.Unlock()

	s.publish(events...)
	return nil
}

// Snapshot returns a deep copy of the store's state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Sessions: make([]Session, len(s.order)),
		ActiveID: s.activeID,
	}
	for i, id := range s.order {
		snap.Sessions[i] = s.sessions[id].clone()
	}
	return snap
}

func (s *Store) saveLocked() {
	if s.persister == nil {
		return
	}
	if err := s.persister.Save(s.snapshotLocked()); err != nil {
		s.logger.Error("save sessions", "error", err)
	}
}

// Flush saves the current state and reports any Persister error.
// Call it on shutdown.
func (s *Store) Flush() error {
	if s.persister == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persister.Save(s.snapshotLocked())
}

// Subscribe registers fn to receive every Event. Events may be delivered
// from any goroutine. The returned function removes the subscription.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		s.subs = slices.DeleteFunc(s.subs, func(sub subscriber) bool { return sub.id == id })
	}
}

func (s *Store) publish(events ...Event) {
	s.subMu.Lock()
	subs := slices.Clone(s.subs)
	s.subMu.Unlock()

	for _, e := range events {
		for _, sub := range subs {
			sub.fn(e)
		}
	}
}
