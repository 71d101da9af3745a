// Package glamour renders markdown message content with charmbracelet's
// glamour stylesheets.
package glamour

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/fwojciec/chatter"
)

// Interface compliance check.
var _ chatter.Renderer = (*Renderer)(nil)

// Renderer wraps a glamour TermRenderer.
type Renderer struct {
	mu sync.Mutex
	tr *glamour.TermRenderer
}

// New creates a Renderer that wraps at width. Style "auto" or "" detects
// the terminal background; any other value names a standard glamour style
// such as "dark", "light" or "notty".
func New(width int, style string) (*Renderer, error) {
	styleOpt := glamour.WithAutoStyle()
	if style != "" && style != "auto" {
		styleOpt = glamour.WithStandardStyle(style)
	}
	tr, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		return nil, fmt.Errorf("glamour: %w", err)
	}
	return &Renderer{tr: tr}, nil
}

// Render implements chatter.Renderer. On a rendering error the raw content
// is returned.
func (r *Renderer) Render(content string) string {
	if content == "" {
		return ""
	}
	r.mu.Lock()
	out, err := r.tr.Render(content)
	r.mu.Unlock()
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}
