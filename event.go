package chatter

// Event is a sealed interface representing a state change published by a
// Store. Subscribers receive events after the change is committed.
// The unexported marker method prevents external implementations.
type Event interface {
	event()
}

// EventSessionCreated signals a new session. It is always followed by an
// EventActiveChanged for the same session.
type EventSessionCreated struct {
	Session Session
}

func (EventSessionCreated) event() {}

// EventSessionDeleted signals a removed session.
type EventSessionDeleted struct {
	SessionID string
}

func (EventSessionDeleted) event() {}

// EventSessionRenamed signals a title change.
type EventSessionRenamed struct {
	SessionID string
	Title     string
}

func (EventSessionRenamed) event() {}

// EventActiveChanged signals that the active session pointer moved.
type EventActiveChanged struct {
	SessionID string
}

func (EventActiveChanged) event() {}

// EventMessageAppended signals a message landed in a session at Index.
type EventMessageAppended struct {
	SessionID string
	Index     int
	Message   Message
}

func (EventMessageAppended) event() {}

// EventSessionCleared signals a session's messages were truncated.
type EventSessionCleared struct {
	SessionID string
}

func (EventSessionCleared) event() {}

// EventTurnStarted signals a request to the responder is outstanding.
type EventTurnStarted struct {
	SessionID string
	TriggerID string
}

func (EventTurnStarted) event() {}

// EventTurnResolved signals an outstanding request finished.
type EventTurnResolved struct {
	SessionID string
	TriggerID string
	State     TurnState
}

func (EventTurnResolved) event() {}

// Interface compliance checks.
var (
	_ Event = EventSessionCreated{}
	_ Event = EventSessionDeleted{}
	_ Event = EventSessionRenamed{}
	_ Event = EventActiveChanged{}
	_ Event = EventMessageAppended{}
	_ Event = EventSessionCleared{}
	_ Event = EventTurnStarted{}
	_ Event = EventTurnResolved{}
)
