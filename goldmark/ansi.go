package goldmark

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/chatter"
	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// Interface compliance check.
var _ chatter.Renderer = ANSI{}

// ANSI renders markdown to styled terminal text. Paragraphs and list items
// are word-wrapped to Width (80 when unset); code blocks keep their lines.
type ANSI struct {
	Width int
	Theme chatter.Theme
}

// Render implements chatter.Renderer.
func (a ANSI) Render(content string) string {
	if content == "" {
		return ""
	}
	width := a.Width
	if width <= 0 {
		width = defaultWidth
	}
	src := []byte(content)
	doc := md.Parser().Parse(text.NewReader(src))

	w := &ansiWriter{src: src, width: width, st: newStyles(a.Theme)}
	w.blocks(doc, "")
	return strings.TrimRight(w.out.String(), "\n")
}

type styles struct {
	bold      lipgloss.Style
	italic    lipgloss.Style
	strike    lipgloss.Style
	code      lipgloss.Style
	heading   lipgloss.Style
	link      lipgloss.Style
	muted     lipgloss.Style
	quoteRule string
	codeRule  string
}

func newStyles(theme chatter.Theme) styles {
	muted := lipgloss.NewStyle().Foreground(ansiColor(theme.Muted)).Faint(true)
	return styles{
		bold:      lipgloss.NewStyle().Bold(true),
		italic:    lipgloss.NewStyle().Italic(true),
		strike:    lipgloss.NewStyle().Strikethrough(true),
		code:      lipgloss.NewStyle().Foreground(ansiColor(theme.Accent)),
		heading:   lipgloss.NewStyle().Foreground(ansiColor(theme.Accent)).Bold(true),
		link:      lipgloss.NewStyle().Underline(true),
		muted:     muted,
		quoteRule: muted.Render("┃") + " ",
		codeRule:  muted.Render("│") + " ",
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}

// ansiWriter walks the AST. Every block is written with a line prefix so
// quotes and list items nest by prefix concatenation.
type ansiWriter struct {
	src   []byte
	width int
	st    styles
	out   strings.Builder
}

func (w *ansiWriter) blocks(parent ast.Node, prefix string) {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		w.block(n, prefix)
		if n.NextSibling() != nil {
			w.line(prefix, "")
		}
	}
}

func (w *ansiWriter) block(n ast.Node, prefix string) {
	switch n := n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		w.wrap(prefix, prefix, w.inline(n))
	case *ast.Heading:
		w.wrap(prefix, prefix, w.st.heading.Render(w.inline(n)))
	case *ast.FencedCodeBlock:
		if lang := string(n.Language(w.src)); lang != "" {
			w.line(prefix, w.st.muted.Render(lang))
		}
		w.code(n, prefix)
	case *ast.CodeBlock:
		w.code(n, prefix)
	case *ast.Blockquote:
		w.blocks(n, prefix+w.st.quoteRule)
	case *ast.List:
		w.list(n, prefix)
	case *ast.ThematicBreak:
		w.line(prefix, w.st.muted.Render(strings.Repeat("─", min(w.avail(prefix), 40))))
	case *ast.HTMLBlock:
		lines := n.Lines()
		for i := range lines.Len() {
			seg := lines.At(i)
			w.line(prefix, strings.TrimRight(string(seg.Value(w.src)), "\n"))
		}
	case *east.Table:
		w.table(n, prefix)
	default:
		w.blocks(n, prefix)
	}
}

func (w *ansiWriter) code(n ast.Node, prefix string) {
	lines := n.Lines()
	for i := range lines.Len() {
		seg := lines.At(i)
		w.line(prefix, w.st.codeRule+strings.TrimRight(string(seg.Value(w.src)), "\n"))
	}
}

func (w *ansiWriter) list(n *ast.List, prefix string) {
	num := n.Start
	for item := n.FirstChild(); item != nil; item = item.NextSibling() {
		marker := "- "
		if n.IsOrdered() {
			marker = fmt.Sprintf("%d. ", num)
			num++
		}
		first := prefix + marker
		rest := prefix + strings.Repeat(" ", len(marker))
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			switch c := c.(type) {
			case *ast.Paragraph, *ast.TextBlock:
				w.wrap(first, rest, w.inline(c))
			case *ast.List:
				w.list(c, rest)
			default:
				w.block(c, rest)
			}
			first = rest
		}
		if !n.IsTight && item.NextSibling() != nil {
			w.line(prefix, "")
		}
	}
}

func (w *ansiWriter) table(n *east.Table, prefix string) {
	for row := n.FirstChild(); row != nil; row = row.NextSibling() {
		_, header := row.(*east.TableHeader)
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			content := w.inline(cell)
			if header {
				content = w.st.bold.Render(content)
			}
			cells = append(cells, content)
		}
		w.line(prefix, strings.Join(cells, w.st.muted.Render(" │ ")))
	}
}

func (w *ansiWriter) avail(prefix string) int {
	return max(w.width-lipgloss.Width(prefix), 10)
}

// wrap word-wraps s to the space left after the prefix. The first output
// line gets first, continuation lines get rest.
func (w *ansiWriter) wrap(first, rest, s string) {
	wrapped := lipgloss.NewStyle().Width(w.avail(first)).Render(s)
	for i, l := range strings.Split(wrapped, "\n") {
		p := rest
		if i == 0 {
			p = first
		}
		w.line(p, strings.TrimRight(l, " "))
	}
}

func (w *ansiWriter) line(prefix, s string) {
	if s == "" {
		prefix = strings.TrimRight(prefix, " ")
	}
	w.out.WriteString(prefix)
	w.out.WriteString(s)
	w.out.WriteByte('\n')
}

func (w *ansiWriter) inline(n ast.Node) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		w.span(c, &b)
	}
	return b.String()
}

func (w *ansiWriter) span(n ast.Node, b *strings.Builder) {
	switch n := n.(type) {
	case *ast.Text:
		b.Write(n.Segment.Value(w.src))
		switch {
		case n.HardLineBreak():
			b.WriteByte('\n')
		case n.SoftLineBreak():
			b.WriteByte(' ')
		}
	case *ast.String:
		b.Write(n.Value)
	case *ast.Emphasis:
		if n.Level == 1 {
			b.WriteString(w.st.italic.Render(w.inline(n)))
		} else {
			b.WriteString(w.st.bold.Render(w.inline(n)))
		}
	case *east.Strikethrough:
		b.WriteString(w.st.strike.Render(w.inline(n)))
	case *ast.CodeSpan:
		b.WriteString(w.st.code.Render(w.inline(n)))
	case *ast.Link:
		label, dest := w.inline(n), string(n.Destination)
		b.WriteString(w.st.link.Render(label))
		if label != dest {
			b.WriteString(" " + w.st.muted.Render("("+dest+")"))
		}
	case *ast.AutoLink:
		b.WriteString(w.st.link.Render(string(n.URL(w.src))))
	case *ast.Image:
		b.WriteString(w.st.muted.Render("[image: "+w.inline(n)+"]"))
		b.WriteString(" " + w.st.muted.Render("("+string(n.Destination)+")"))
	case *east.TaskCheckBox:
		if n.IsChecked {
			b.WriteString("[x] ")
		} else {
			b.WriteString("[ ] ")
		}
	case *ast.RawHTML:
		for i := range n.Segments.Len() {
			seg := n.Segments.At(i)
			b.Write(seg.Value(w.src))
		}
	default:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			w.span(c, b)
		}
	}
}
