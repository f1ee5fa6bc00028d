package htmltext

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
)

const (
	osc8Start = "\x1b]8;;"
	osc8End   = "\x1b]8;;\x1b\\"
	sgrReset  = "\x1b[0m"
)

// TerminalOptions configure RenderTerminal.
type TerminalOptions struct {
	// Width wraps lines at this many cells. Zero disables wrapping.
	Width int
	// Color emits SGR attributes and 24-bit foreground colors.
	Color bool
	// Hyperlinks emits OSC 8 links. They are only written when Width is
	// zero because the wrapper counts their payload as printable text.
	Hyperlinks bool
	Highlights []Range
}

type cellStyle struct {
	color     Color
	flags     Flags
	highlight bool
	link      string
}

func (s cellStyle) sgr() string {
	codes := []string{"0"}
	if s.flags.Has(Bold) {
		codes = append(codes, "1")
	}
	if s.flags.Has(Italic) {
		codes = append(codes, "3")
	}
	if s.flags.Has(Underline) {
		codes = append(codes, "4")
	}
	if s.highlight {
		codes = append(codes, "7")
	}
	codes = append(codes, fmt.Sprintf("38;2;%d;%d;%d", s.color.R(), s.color.G(), s.color.B()))
	return "\x1b[" + strings.Join(codes, ";") + "m"
}

type terminalWriter struct {
	opts  TerminalOptions
	doc   *Document
	b     strings.Builder
	cur   cellStyle
	open  bool
	inURL string
}

func (t *terminalWriter) inRanges(rs []Range, i int) bool {
	for _, r := range rs {
		if r.Contains(i) {
			return true
		}
	}
	return false
}

func (t *terminalWriter) setStyle(s cellStyle) {
	if t.opts.Hyperlinks && s.link != t.inURL {
		if t.inURL != "" {
			t.b.WriteString(osc8End)
		}
		if s.link != "" {
			t.b.WriteString(osc8Start + s.link + "\x1b\\")
		}
		t.inURL = s.link
	}
	if !t.opts.Color || (t.open && s == t.cur) {
		t.cur = s
		return
	}
	t.b.WriteString(s.sgr())
	t.cur = s
	t.open = true
}

func (t *terminalWriter) marker(p ImagePlacement) {
	if p.Inline {
		t.b.WriteString("•")
		return
	}
	t.b.WriteString("[image: " + p.Source + "]")
}

func (t *terminalWriter) write() string {
	images := t.doc.Images()
	next := 0
	placeUpTo := func(char int) {
		for next < len(images) && images[next].Char <= char {
			t.marker(images[next])
			next++
		}
	}
	for _, r := range t.doc.Runs {
		i := 0
		for _, ch := range r.Text {
			c := charAt(r, i)
			placeUpTo(c)
			s := cellStyle{color: r.Color, flags: r.Flags, highlight: t.inRanges(t.opts.Highlights, c)}
			if l, ok := t.doc.FindLinkAt(c); ok {
				s.link = l.URL
			}
			t.setStyle(s)
			t.b.WriteRune(ch)
			i++
		}
	}
	placeUpTo(t.doc.Chars)
	if t.inURL != "" {
		t.b.WriteString(osc8End)
	}
	if t.open {
		t.b.WriteString(sgrReset)
	}
	return t.b.String()
}

func renderTerminal(doc *Document, opts TerminalOptions) string {
	if opts.Width > 0 {
		opts.Hyperlinks = false
	}
	tw := &terminalWriter{opts: opts, doc: doc}
	out := tw.write()
	if opts.Width > 0 {
		out = wrap.String(wordwrap.String(out, opts.Width), opts.Width)
	}
	return out
}

// RenderTerminal writes doc to w as ANSI text.
func RenderTerminal(w io.Writer, doc *Document, opts TerminalOptions) error {
	if doc == nil {
		return fmt.Errorf("render terminal: nil document")
	}
	if _, err := io.WriteString(w, renderTerminal(doc, opts)); err != nil {
		return fmt.Errorf("render terminal: %w", err)
	}
	return nil
}

// RenderText returns doc as plain text with image markers, wrapped at width
// cells when width is positive.
func RenderText(doc *Document, width int) string {
	if doc == nil {
		return ""
	}
	return renderTerminal(doc, TerminalOptions{Width: width})
}

// DetectOSC8Support returns true if the current environment likely supports
// OSC 8 hyperlinks.
func DetectOSC8Support() bool {
	if os.Getenv("OSC8") == "0" {
		return false
	}
	if os.Getenv("DOMTERM") != "" || os.Getenv("WT_SESSION") != "" {
		return true
	}
	switch os.Getenv("TERM_PROGRAM") {
	case "iTerm.app", "WezTerm", "vscode":
		return true
	}
	if strings.Contains(strings.ToLower(os.Getenv("TERM")), "kitty") {
		return true
	}
	if vte := os.Getenv("VTE_VERSION"); vte != "" {
		if n, err := strconv.Atoi(vte); err == nil && n >= 5000 {
			return true
		}
	}
	return false
}

func truncateWithEllipsis(text string, limit int) string {
	if ansi.PrintableRuneWidth(text) <= limit {
		return text
	}
	if limit <= 0 {
		return ""
	}
	if limit == 1 {
		return "…"
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-1]) + "…"
}

// FitURL shortens url to at most limit cells, dropping the scheme first and
// then truncating with an ellipsis.
func FitURL(url string, limit int) string {
	if ansi.PrintableRuneWidth(url) <= limit {
		return url
	}
	if _, rest, ok := strings.Cut(url, "://"); ok && ansi.PrintableRuneWidth(rest) <= limit {
		return rest
	}
	return truncateWithEllipsis(url, limit)
}
