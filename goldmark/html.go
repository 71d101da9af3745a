package goldmark

import (
	"bytes"

	"github.com/fwojciec/chatter"
	"github.com/microcosm-cc/bluemonday"
)

// Interface compliance check.
var _ chatter.Renderer = HTML{}

var policy = bluemonday.UGCPolicy()

// HTML renders markdown to HTML and sanitizes the result, so responder
// content can be embedded in a page as-is.
type HTML struct{}

// Render implements chatter.Renderer. Content that fails to convert is
// sanitized as-is.
func (HTML) Render(content string) string {
	if content == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(content), &buf); err != nil {
		return policy.Sanitize(content)
	}
	return string(policy.SanitizeBytes(buf.Bytes()))
}
