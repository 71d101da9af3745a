package bubbletea

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/chatter"
)

// MessageBlock is a renderable element in the conversation. View takes a
// width so the root model controls layout and blocks are testable in
// isolation.
type MessageBlock interface {
	View(width int) string
}

var (
	_ MessageBlock = (*UserBubble)(nil)
	_ MessageBlock = (*ResponderBubble)(nil)
)

// UserBubble renders a user message right-aligned, as typed.
type UserBubble struct {
	text   string
	styles Styles
}

// NewUserBubble creates a UserBubble.
func NewUserBubble(text string, styles Styles) *UserBubble {
	return &UserBubble{text: text, styles: styles}
}

func (b *UserBubble) View(width int) string {
	inner := bubbleInner(width)
	body := lipgloss.NewStyle().Width(min(inner, widest(b.text))).Render(b.text)
	return lipgloss.PlaceHorizontal(width, lipgloss.Right, b.styles.UserBubble.Render(body))
}

// ResponderBubble renders a responder message left-aligned through a
// Renderer. Rendered output is cached per width since messages never change
// once recorded.
type ResponderBubble struct {
	content  string
	fallback bool
	renderer chatter.Renderer
	styles   Styles
	byWidth  map[int]string
}

// NewResponderBubble creates a ResponderBubble. Fallback bubbles are shown
// in the fallback style and bypass the renderer.
func NewResponderBubble(content string, fallback bool, r chatter.Renderer, styles Styles) *ResponderBubble {
	if r == nil {
		r = chatter.PlainText{}
	}
	return &ResponderBubble{
		content:  content,
		fallback: fallback,
		renderer: r,
		styles:   styles,
		byWidth:  make(map[int]string),
	}
}

func (b *ResponderBubble) View(width int) string {
	if cached, ok := b.byWidth[width]; ok {
		return cached
	}
	inner := bubbleInner(width)
	style := b.styles.ResponderBubble
	text := b.content
	if b.fallback {
		style = b.styles.FallbackBubble
	} else {
		text = strings.Trim(b.renderer.Render(text), "\n")
	}
	body := lipgloss.NewStyle().Width(min(inner, widest(text))).Render(text)
	out := lipgloss.PlaceHorizontal(width, lipgloss.Left, style.Render(body))
	b.byWidth[width] = out
	return out
}

// bubbleInner is the text width available inside a bubble: three quarters
// of the viewport minus border and padding.
func bubbleInner(width int) int {
	return max(width*3/4-4, 10)
}

func widest(s string) int {
	w := 0
	for _, line := range strings.Split(s, "\n") {
		w = max(w, lipgloss.Width(line))
	}
	return max(w, 1)
}
