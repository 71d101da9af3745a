package chi

import (
	"time"

	"github.com/fwojciec/chatter"
)

type messageDTO struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	HTML      string    `json:"html,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type sessionDTO struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	MessageCount int          `json:"message_count"`
	Pending      int          `json:"pending"`
	Messages     []messageDTO `json:"messages,omitempty"`
}

type sessionListDTO struct {
	ActiveID string       `json:"active_id"`
	Sessions []sessionDTO `json:"sessions"`
}

// eventDTO is the wire form of a store event. Fields not carried by the
// event's type are omitted.
type eventDTO struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	Session   *sessionDTO `json:"session,omitempty"`
	Title     string      `json:"title,omitempty"`
	Index     *int        `json:"index,omitempty"`
	Message   *messageDTO `json:"message,omitempty"`
	TriggerID string      `json:"trigger_id,omitempty"`
	State     string      `json:"state,omitempty"`
}

func (s *Server) message(m chatter.Message) messageDTO {
	dto := messageDTO{
		ID:        m.ID,
		Role:      string(m.Role),
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
	if s.renderer != nil && m.Role == chatter.RoleResponder {
		dto.HTML = s.renderer.Render(m.Content)
	}
	return dto
}

// summary describes a session without its messages.
func (s *Server) summary(sess chatter.Session) sessionDTO {
	return sessionDTO{
		ID:           sess.ID,
		Title:        sess.Title,
		CreatedAt:    sess.CreatedAt,
		UpdatedAt:    sess.UpdatedAt,
		MessageCount: len(sess.Messages),
		Pending:      s.conv.Pending(sess.ID),
	}
}

func (s *Server) session(sess chatter.Session) sessionDTO {
	dto := s.summary(sess)
	dto.Messages = make([]messageDTO, len(sess.Messages))
	for i, m := range sess.Messages {
		dto.Messages[i] = s.message(m)
	}
	return dto
}

func (s *Server) event(e chatter.Event) eventDTO {
	switch e := e.(type) {
	case chatter.EventSessionCreated:
		sess := s.summary(e.Session)
		return eventDTO{Type: "session_created", SessionID: e.Session.ID, Session: &sess}
	case chatter.EventSessionDeleted:
		return eventDTO{Type: "session_deleted", SessionID: e.SessionID}
	case chatter.EventSessionRenamed:
		return eventDTO{Type: "session_renamed", SessionID: e.SessionID, Title: e.Title}
	case chatter.EventActiveChanged:
		return eventDTO{Type: "active_changed", SessionID: e.SessionID}
	case chatter.EventMessageAppended:
		msg := s.message(e.Message)
		index := e.Index
		return eventDTO{Type: "message_appended", SessionID: e.SessionID, Index: &index, Message: &msg}
	case chatter.EventSessionCleared:
		return eventDTO{Type: "session_cleared", SessionID: e.SessionID}
	case chatter.EventTurnStarted:
		return eventDTO{Type: "turn_started", SessionID: e.SessionID, TriggerID: e.TriggerID}
	case chatter.EventTurnResolved:
		return eventDTO{Type: "turn_resolved", SessionID: e.SessionID, TriggerID: e.TriggerID, State: e.State.String()}
	default:
		return eventDTO{Type: "unknown"}
	}
}
