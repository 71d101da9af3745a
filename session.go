package chatter

import (
	"slices"
	"time"
)

// DefaultTitle is the title given to sessions created without one.
const DefaultTitle = "New Chat"

// Session is one conversation thread.
type Session struct {
	ID        string
	Title     string
	Messages  []Message
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s Session) clone() Session {
	s.Messages = slices.Clone(s.Messages)
	return s
}

// indexOf returns the position of the message with the given id, or -1.
func (s Session) indexOf(messageID string) int {
	for i, m := range s.Messages {
		if m.ID == messageID {
			return i
		}
	}
	return -1
}

// Snapshot is the persisted state of a Store.
type Snapshot struct {
	Sessions []Session
	ActiveID string
}
