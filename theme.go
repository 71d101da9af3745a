package chatter

// Theme defines semantic color mappings using ANSI color indices (0-15).
// The user's terminal theme determines the actual RGB values, so the app
// automatically matches any color scheme. -1 means no color.
type Theme struct {
	UserMsg   int // User bubble accent
	Responder int // Responder bubble accent
	Fallback  int // Fallback and error text
	Muted     int // Status bar, placeholders, timestamps
	Accent    int // Headings, links, active session
	Border    int // Sidebar and bubble borders
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{
		UserMsg:   4,
		Responder: 2,
		Fallback:  1,
		Muted:     8,
		Accent:    5,
		Border:    8,
	}
}
