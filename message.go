package chatter

import "time"

// Message is one side of a turn. Messages are values: the Store hands out
// copies, so a Message never changes after it is created.
type Message struct {
	ID        string
	Role      Role
	Content   string
	CreatedAt time.Time
}
