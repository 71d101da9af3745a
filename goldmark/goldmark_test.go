package goldmark_test

import (
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/chatter"
	"github.com/fwojciec/chatter/goldmark"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ansiRe = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func stripANSI(s string) string {
	return ansiRe.ReplaceAllString(s, "")
}

func TestMain(m *testing.M) {
	// Force ANSI output so styled spans produce escape codes.
	lipgloss.SetColorProfile(termenv.ANSI)
	os.Exit(m.Run())
}

func render(src string, width int) string {
	return goldmark.ANSI{Width: width, Theme: chatter.DefaultTheme()}.Render(src)
}

func TestANSI_Render(t *testing.T) {
	t.Parallel()

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "", render("", 80))
	})

	t.Run("plain paragraph", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "hello world", stripANSI(render("hello world", 80)))
	})

	t.Run("heading is styled", func(t *testing.T) {
		t.Parallel()
		heading := render("## Jollof", 80)
		assert.Equal(t, "Jollof", stripANSI(heading))
		assert.NotEqual(t, render("Jollof", 80), heading)
	})

	t.Run("emphasis strike and code", func(t *testing.T) {
		t.Parallel()
		out := render("**bold** *it* ~~gone~~ `x := 1`", 80)
		assert.Equal(t, "bold it gone x := 1", stripANSI(out))
		assert.Contains(t, out, "\x1b[")
	})

	t.Run("fenced code keeps lines and label", func(t *testing.T) {
		t.Parallel()
		src := "```go\nfmt.Println(\"hello world, this line is long\")\n```"
		lines := strings.Split(stripANSI(render(src, 20)), "\n")
		require.Len(t, lines, 2)
		assert.Equal(t, "go", lines[0])
		assert.Equal(t, `│ fmt.Println("hello world, this line is long")`, lines[1])
	})

	t.Run("indented code block", func(t *testing.T) {
		t.Parallel()
		out := stripANSI(render("para\n\n    one\n    two", 80))
		assert.Equal(t, "para\n\n│ one\n│ two", out)
	})

	t.Run("bullet list", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "- one\n- two", stripANSI(render("- one\n- two", 80)))
	})

	t.Run("ordered list honours start", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "3. c\n4. d", stripANSI(render("3. c\n4. d", 80)))
	})

	t.Run("nested list", func(t *testing.T) {
		t.Parallel()
		out := stripANSI(render("- outer\n  - inner one\n  - inner two", 80))
		assert.Equal(t, "- outer\n  - inner one\n  - inner two", out)
	})

	t.Run("task list", func(t *testing.T) {
		t.Parallel()
		out := stripANSI(render("- [x] done\n- [ ] todo", 80))
		assert.Equal(t, "- [x] done\n- [ ] todo", out)
	})

	t.Run("list continuation lines are indented", func(t *testing.T) {
		t.Parallel()
		src := "- this is a very long list item that should wrap onto continuation lines"
		lines := strings.Split(stripANSI(render(src, 30)), "\n")
		require.Greater(t, len(lines), 1)
		assert.True(t, strings.HasPrefix(lines[0], "- "))
		for _, l := range lines[1:] {
			assert.True(t, strings.HasPrefix(l, "  "), "continuation line: %q", l)
		}
	})

	t.Run("paragraph wraps to width", func(t *testing.T) {
		t.Parallel()
		src := "word1 word2 word3 word4 word5 word6 word7 word8 word9 word10 word11 word12"
		lines := strings.Split(stripANSI(render(src, 30)), "\n")
		assert.Greater(t, len(lines), 1)
		for _, l := range lines {
			assert.LessOrEqual(t, lipgloss.Width(l), 30)
		}
	})

	t.Run("blockquote is prefixed", func(t *testing.T) {
		t.Parallel()
		out := stripANSI(render("> No wahala\n>\n> Omo", 80))
		assert.Equal(t, "┃ No wahala\n┃\n┃ Omo", out)
	})

	t.Run("link shows destination", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "click (https://example.com)", stripANSI(render("[click](https://example.com)", 80)))
	})

	t.Run("autolink shown once", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "https://example.com", stripANSI(render("<https://example.com>", 80)))
	})

	t.Run("image", func(t *testing.T) {
		t.Parallel()
		out := stripANSI(render("![a cat](https://example.com/cat.png)", 80))
		assert.Equal(t, "[image: a cat] (https://example.com/cat.png)", out)
	})

	t.Run("thematic break", func(t *testing.T) {
		t.Parallel()
		out := stripANSI(render("above\n\n---\n\nbelow", 80))
		assert.Contains(t, out, "above\n\n─")
		assert.Contains(t, out, "\n\nbelow")
	})

	t.Run("table rows", func(t *testing.T) {
		t.Parallel()
		out := stripANSI(render("| a | b |\n|---|---|\n| 1 | 2 |", 80))
		assert.Equal(t, "a │ b\n1 │ 2", out)
	})

	t.Run("paragraphs separated by a blank line", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "first\n\nsecond", stripANSI(render("first\n\nsecond", 80)))
	})

	t.Run("zero width defaults", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "hello world", stripANSI(render("hello world", 0)))
	})
}

func TestHTML_Render(t *testing.T) {
	t.Parallel()

	r := goldmark.HTML{}

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "", r.Render(""))
	})

	t.Run("markdown converted", func(t *testing.T) {
		t.Parallel()
		out := r.Render("**hi** there\n\n- one")
		assert.Contains(t, out, "<strong>hi</strong>")
		assert.Contains(t, out, "<li>one</li>")
	})

	t.Run("script removed", func(t *testing.T) {
		t.Parallel()
		out := r.Render("<script>alert(1)</script>\n\nhello")
		assert.NotContains(t, out, "<script")
		assert.Contains(t, out, "hello")
	})

	t.Run("event handlers stripped", func(t *testing.T) {
		t.Parallel()
		out := r.Render(`<b onclick="steal()">hi</b>`)
		assert.Contains(t, out, "<b>hi</b>")
		assert.NotContains(t, out, "onclick")
	})

	t.Run("links get nofollow", func(t *testing.T) {
		t.Parallel()
		out := r.Render("[site](https://example.com)")
		assert.Contains(t, out, `href="https://example.com"`)
		assert.Contains(t, out, `rel="nofollow"`)
	})
}
