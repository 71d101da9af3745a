// Package goldmark renders markdown message content using goldmark. ANSI
// produces lipgloss-styled terminal output; HTML produces sanitized markup
// for web shells.
package goldmark

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

const defaultWidth = 80

// md parses GitHub-flavored markdown. Raw HTML is passed through so the
// sanitizer, not the converter, decides what survives.
var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)
