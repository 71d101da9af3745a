package chatter

import "errors"

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates input failed validation, e.g. blank text.
	ErrValidation = errors.New("validation error")

	// ErrNotFound indicates the referenced session or message does not exist.
	ErrNotFound = errors.New("not found")

	// ErrIllegalState indicates the store has no sessions.
	ErrIllegalState = errors.New("illegal state")

	// ErrGateway indicates the responder could not be reached or answered
	// with something other than a reply.
	ErrGateway = errors.New("gateway error")

	// ErrTimeout indicates a turn exceeded its deadline.
	ErrTimeout = errors.New("timeout")

	// ErrNoSnapshot indicates a Persister has nothing stored yet.
	ErrNoSnapshot = errors.New("no snapshot")
)
