package chatter

import "context"

// Gateway sends a user message to the remote responder. Implementations
// return an error wrapping ErrGateway for any transport or protocol failure
// and never retry.
type Gateway interface {
	Send(ctx context.Context, req Request) (string, error)
}

// Request carries one user message and the context it was issued in.
type Request struct {
	SessionID string
	User      string    // caller identity; empty = none
	Text      string
	History   []Message // messages preceding Text in the session
}
