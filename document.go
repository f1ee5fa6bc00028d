package htmltext

import (
	"strings"
	"unicode/utf8"
)

// Range is a half-open character range [Start, End).
type Range struct {
	Start int
	End   int
}

// Contains reports whether i lies in the range.
func (r Range) Contains(i int) bool { return i >= r.Start && i < r.End }

// Len returns the number of characters covered.
func (r Range) Len() int { return r.End - r.Start }

// TextRun is text sharing one style snapshot.
type TextRun struct {
	Text string
	// Start is the character position of the first rune.
	Start int
	// Len is how far the run advanced the character counter. It equals the
	// rune count of Text except for expanded tabs in preformatted text.
	Len   int
	Face  string
	Size  float64
	Color Color
	Flags Flags
}

// End returns the character position following the run.
func (r TextRun) End() int { return r.Start + r.Len }

func (r TextRun) sameStyle(o TextRun) bool {
	return r.Face == o.Face && r.Size == o.Size && r.Color == o.Color && r.Flags == o.Flags
}

// Sink receives interpreter output in document order.
type Sink interface {
	WriteRun(TextRun) error
	WriteLink(LinkSpan) error
	WriteImage(ImagePlacement) error
	WriteIndent(Range) error
}

// Document is the default Sink. It accumulates everything a host needs to
// lay out, paint and hit-test one parsed document.
type Document struct {
	Runs    []TextRun
	Indents []Range
	// Chars is the running character counter.
	Chars int
	// State is the style state left after the parse.
	State StyleState

	reg Registry
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{}
}

// Reset clears the document for reuse.
func (d *Document) Reset() {
	d.Runs = d.Runs[:0]
	d.Indents = d.Indents[:0]
	d.Chars = 0
	d.State = StyleState{}
	d.reg.Reset()
}

// WriteRun appends a run, merging it into the previous one when the style
// matches and the runs touch.
func (d *Document) WriteRun(r TextRun) error {
	if r.Len == 0 && r.Text == "" {
		return nil
	}
	if n := len(d.Runs); n > 0 {
		last := &d.Runs[n-1]
		if last.sameStyle(r) && last.End() == r.Start {
			last.Text += r.Text
			last.Len += r.Len
			d.Chars = last.End()
			return nil
		}
	}
	d.Runs = append(d.Runs, r)
	d.Chars = r.End()
	return nil
}

// WriteLink records a finished link span.
func (d *Document) WriteLink(l LinkSpan) error {
	d.reg.AddLink(l)
	return nil
}

// WriteImage records an image placement.
func (d *Document) WriteImage(p ImagePlacement) error {
	d.reg.PlaceImage(p)
	return nil
}

// WriteIndent records the character range covered by a list.
func (d *Document) WriteIndent(r Range) error {
	d.Indents = append(d.Indents, r)
	return nil
}

// Registry returns the document's link and image registry.
func (d *Document) Registry() *Registry { return &d.reg }

// Links returns the finished link spans in document order.
func (d *Document) Links() []LinkSpan { return d.reg.Links() }

// Images returns the image placements in document order.
func (d *Document) Images() []ImagePlacement { return d.reg.Images() }

// PlacedImages returns the names of the images placed in the document.
func (d *Document) PlacedImages() []string { return d.reg.PlacedImages() }

// FindLinkAt returns the link covering character i.
func (d *Document) FindLinkAt(i int) (LinkSpan, bool) { return d.reg.FindLinkAt(i) }

// Text returns the rendered text of all runs.
func (d *Document) Text() string {
	var b strings.Builder
	for _, r := range d.Runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

// TextRange returns the rendered text inside a character range.
func (d *Document) TextRange(rg Range) string {
	var b strings.Builder
	for _, r := range d.Runs {
		if r.End() <= rg.Start || r.Start >= rg.End {
			continue
		}
		i := 0
		for _, ch := range r.Text {
			if rg.Contains(charAt(r, i)) {
				b.WriteRune(ch)
			}
			i++
		}
	}
	return b.String()
}

// RunAt returns the run covering character i.
func (d *Document) RunAt(i int) (TextRun, bool) {
	for _, r := range d.Runs {
		if i >= r.Start && i < r.End() {
			return r, true
		}
	}
	return TextRun{}, false
}

// charAt maps a rune offset inside run r to a character position.
func charAt(r TextRun, offset int) int {
	if offset > r.Len {
		offset = r.Len
	}
	return r.Start + offset
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
