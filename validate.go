package chatter

import (
	"fmt"
	"strings"
)

// Validate rejects a request whose text is blank after trimming whitespace.
// Gateways call it before touching the network.
func (r Request) Validate() error {
	return ValidateText(r.Text)
}

// ValidateText rejects text that is blank after trimming whitespace.
func ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("text must not be blank: %w", ErrValidation)
	}
	return nil
}
