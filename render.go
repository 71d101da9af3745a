package chatter

// Renderer turns raw message content into displayable markup.
type Renderer interface {
	Render(content string) string
}

// PlainText is a Renderer that returns content unchanged.
type PlainText struct{}

// Render returns content unchanged.
func (PlainText) Render(content string) string { return content }

// SoundPlayer plays the audio cue for an arrived reply.
type SoundPlayer interface {
	Play()
}

var _ Renderer = PlainText{}
