package htmltext

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"math"
	"strings"
	"unicode"

	"github.com/golang/freetype"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
)

// RenderOptions configure how a Document is painted to an image.
type RenderOptions struct {
	Width  int
	Margin int
	Theme  Theme
	Fonts  *FontSet
	// Metrics must agree with the metrics the document was interpreted with
	// for images to clear correctly. Nil measures Fonts.
	Metrics    Metrics
	Resources  ResourceResolver
	Highlights []Range
	// ListIndent is the extra left offset in pixels of lines inside lists.
	ListIndent int
}

// ---- Canvas ----

type canvas struct {
	img     *image.RGBA
	dc      *freetype.Context
	w       int
	margin  int
	cursorY int
	// clearY is the lowest row an image reaches.
	clearY  int
	th      Theme
	fonts   *FontSet
	metrics Metrics
}

func newCanvas(width, margin int, th Theme, fonts *FontSet, m Metrics) *canvas {
	dc := freetype.NewContext()
	dc.SetDPI(DPI)
	dc.SetHinting(font.HintingFull)
	c := &canvas{
		dc:      dc,
		w:       width,
		margin:  margin,
		cursorY: margin,
		clearY:  margin,
		th:      th,
		fonts:   fonts,
		metrics: m,
	}
	c.resize(1024)
	return c
}

// ensureHeight grows the canvas so rows up to y exist.
func (c *canvas) ensureHeight(y int) {
	h := c.img.Bounds().Dy()
	if y <= h {
		return
	}
	for h < y {
		h *= 2
	}
	c.resize(h)
}

func (c *canvas) resize(h int) {
	img := image.NewRGBA(image.Rect(0, 0, c.w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c.th.Background), image.Point{}, draw.Src)
	if c.img != nil {
		draw.Draw(img, c.img.Bounds(), c.img, image.Point{}, draw.Src)
	}
	c.img = img
	c.dc.SetDst(img)
	c.dc.SetClip(img.Bounds())
}

func (c *canvas) fill(r image.Rectangle, col Color) {
	c.ensureHeight(r.Max.Y)
	draw.Draw(c.img, r, image.NewUniform(col), image.Point{}, draw.Over)
}

func (c *canvas) drawString(w layoutWord, x, baseline int) {
	c.dc.SetFont(c.fonts.Pick(w.face, w.flags))
	c.dc.SetFontSize(w.size)
	c.dc.SetSrc(image.NewUniform(w.color))
	_, _ = c.dc.DrawString(w.text, freetype.Pt(x, baseline))
}

func scaleImage(img image.Image, width, height int) image.Image {
	if img == nil {
		return nil
	}
	bounds := img.Bounds()
	if width <= 0 || height <= 0 || (bounds.Dx() == width && bounds.Dy() == height) {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)
	return dst
}

// ---- Layout ----

type layoutWord struct {
	text  string
	char  int
	face  string
	size  float64
	color Color
	flags Flags
	width int
}

type token struct {
	word    layoutWord
	newline bool
	image   *ImagePlacement
}

func (t token) isSpace() bool {
	r := []rune(t.word.text)
	return len(r) > 0 && unicode.IsSpace(r[0])
}

func runWord(r TextRun, text string, char int) layoutWord {
	return layoutWord{text: text, char: char, face: r.Face, size: r.Size, color: r.Color, flags: r.Flags}
}

// layoutTokens flattens the runs into words, hard line breaks and images in
// character order.
func layoutTokens(doc *Document) []token {
	images := doc.Images()
	var toks []token
	next := 0
	placeUpTo := func(char int) {
		for next < len(images) && images[next].Char <= char {
			p := images[next]
			toks = append(toks, token{image: &p})
			next++
		}
	}
	for _, r := range doc.Runs {
		offset := 0
		for i, ln := range strings.Split(r.Text, "\n") {
			if i > 0 {
				c := charAt(r, offset)
				placeUpTo(c)
				toks = append(toks, token{newline: true, word: runWord(r, "", c)})
				offset++
			}
			for _, seg := range splitTextPreserveSpaces(ln) {
				c := charAt(r, offset)
				placeUpTo(c)
				toks = append(toks, token{word: runWord(r, seg, c)})
				offset += runeLen(seg)
			}
		}
	}
	placeUpTo(math.MaxInt)
	return toks
}

func splitTextPreserveSpaces(s string) []string {
	if s == "" {
		return nil
	}
	var parts []string
	var current strings.Builder
	lastType := 0 // 0 unknown, 1 space, 2 non-space
	for _, r := range s {
		typ := 2
		if unicode.IsSpace(r) {
			typ = 1
		}
		if lastType != 0 && typ != lastType {
			parts = append(parts, current.String())
			current.Reset()
		}
		current.WriteRune(r)
		lastType = typ
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

func (c *canvas) measure(w layoutWord) int {
	return c.fonts.MeasureString(w.face, w.size, w.flags, w.text)
}

func (c *canvas) breakLongToken(w layoutWord, maxWidth int) []layoutWord {
	var parts []layoutWord
	var current strings.Builder
	width, start, n := 0, w.char, 0
	for _, r := range w.text {
		ch := w
		ch.text = string(r)
		cw := c.measure(ch)
		if width+cw > maxWidth && current.Len() > 0 {
			part := w
			part.text, part.char, part.width = current.String(), start, width
			parts = append(parts, part)
			current.Reset()
			start, width = w.char+n, 0
		}
		current.WriteRune(r)
		width += cw
		n++
	}
	if current.Len() > 0 {
		part := w
		part.text, part.char, part.width = current.String(), start, width
		parts = append(parts, part)
	}
	return parts
}

type painter struct {
	c          *canvas
	left       int
	right      int
	listIndent int
	indents    []Range
	highlights []Range
	image      func(ImagePlacement) image.Image

	line      []token
	lineWidth int
	// soft is set while the current line continues a wrapped one.
	soft bool
}

func (p *painter) lineLeft() int {
	for _, t := range p.line {
		if t.image != nil {
			continue
		}
		for _, r := range p.indents {
			if r.Contains(t.word.char) {
				return p.left + p.listIndent
			}
		}
		break
	}
	return p.left
}

func (p *painter) maxWidth() int { return p.right - p.left - p.listIndent }

func (p *painter) add(t token) {
	switch {
	case t.newline:
		p.flush(t.word)
		p.soft = false
	case t.image != nil:
		p.line = append(p.line, t)
	default:
		p.addWord(t)
	}
}

func (p *painter) addWord(t token) {
	t.word.width = p.c.measure(t.word)
	if t.isSpace() {
		if p.soft && p.lineWidth == 0 {
			return
		}
		p.line = append(p.line, t)
		p.lineWidth += t.word.width
		return
	}
	maxW := p.maxWidth()
	if p.lineWidth+t.word.width > maxW && p.lineWidth > 0 {
		p.flush(t.word)
		p.soft = true
	}
	if t.word.width <= maxW {
		p.line = append(p.line, t)
		p.lineWidth += t.word.width
		return
	}
	parts := p.c.breakLongToken(t.word, maxW)
	for i, part := range parts {
		if i > 0 {
			p.flush(part)
			p.soft = true
		}
		p.line = append(p.line, token{word: part})
		p.lineWidth += part.width
	}
}

// flush paints the current line. style supplies the height of an empty line.
func (p *painter) flush(style layoutWord) {
	c := p.c
	height, ascent := 0.0, 0
	for _, t := range p.line {
		if t.image != nil {
			continue
		}
		height = math.Max(height, c.metrics.LineHeight(t.word.face, t.word.size))
		ascent = max(ascent, c.ascent(t.word))
	}
	if height == 0 {
		if style.size <= 0 {
			style.face, style.size = DefaultFace, DefaultSize
		}
		height = c.metrics.LineHeight(style.face, style.size)
		ascent = c.ascent(style)
	}
	lineH := int(math.Ceil(height))
	top := c.cursorY
	c.ensureHeight(top + lineH + c.margin)
	baseline := top + ascent

	x := p.lineLeft()
	for _, t := range p.line {
		if t.image != nil {
			p.drawImage(*t.image, x, top, lineH)
			continue
		}
		w := t.word
		p.drawHighlights(w, x, top, lineH)
		c.drawString(w, x, baseline)
		if w.flags.Has(Underline) && w.width > 0 {
			y := baseline + max(1, int(w.size*0.12))
			c.fill(image.Rect(x, y, x+w.width, y+1), w.color)
		}
		x += w.width
	}
	c.cursorY += lineH
	p.line = p.line[:0]
	p.lineWidth = 0
}

func (c *canvas) ascent(w layoutWord) int {
	f := c.fonts.Face(w.face, w.size, w.flags)
	c.fonts.mu.Lock()
	defer c.fonts.mu.Unlock()
	return f.Metrics().Ascent.Ceil()
}

func (p *painter) drawHighlights(w layoutWord, x, top, lineH int) {
	runes := []rune(w.text)
	end := w.char + len(runes)
	for _, h := range p.highlights {
		if h.End <= w.char || h.Start >= end {
			continue
		}
		a := max(h.Start, w.char) - w.char
		b := min(h.End, end) - w.char
		prefix := w
		prefix.text = string(runes[:a])
		x0 := x + p.c.measure(prefix)
		prefix.text = string(runes[:b])
		x1 := x + p.c.measure(prefix)
		p.c.fill(image.Rect(x0, top, x1, top+lineH), p.c.th.Highlight)
	}
}

func (p *painter) drawImage(pl ImagePlacement, x, top, lineH int) {
	img := p.image(pl)
	if img == nil {
		return
	}
	b := img.Bounds()
	if pl.Inline {
		top += max(0, (lineH-b.Dy())/2)
	}
	c := p.c
	c.ensureHeight(top + b.Dy() + c.margin)
	draw.Draw(c.img, image.Rect(x, top, x+b.Dx(), top+b.Dy()), img, b.Min, draw.Over)
	if !pl.Inline {
		c.clearY = max(c.clearY, top+b.Dy())
	}
}

// imageLoader returns a cached, scaled image source for placements.
func imageLoader(rr ResourceResolver, maxWidth int) func(ImagePlacement) image.Image {
	cache := make(map[ImagePlacement]image.Image)
	return func(p ImagePlacement) image.Image {
		key := p
		key.Char = 0
		if img, ok := cache[key]; ok {
			return img
		}
		var img image.Image
		if data, err := Resolve(rr, p.Source); err == nil {
			if decoded, err := DecodeImage(data); err == nil {
				w, h := p.DisplayWidth, p.DisplayHeight
				if maxWidth > 0 && w > maxWidth {
					w, h = displaySize(w, h, maxWidth)
				}
				img = scaleImage(decoded, w, h)
			}
		}
		cache[key] = img
		return img
	}
}

// ---- Entry point ----

// Render paints doc to an image. Zero options select 1024px width, 48px
// margin, DarkTheme and the bundled Go fonts.
func Render(doc *Document, opts RenderOptions) (*image.RGBA, error) {
	if doc == nil {
		return nil, errors.New("render: nil document")
	}
	if opts.Width <= 0 {
		opts.Width = 1024
	}
	if opts.Margin <= 0 {
		opts.Margin = 48
	}
	if opts.Width <= 2*opts.Margin {
		return nil, fmt.Errorf("render: width %d leaves no room inside %dpx margins", opts.Width, opts.Margin)
	}
	if (opts.Theme == Theme{}) {
		opts.Theme = DarkTheme
	}
	if opts.Fonts == nil {
		fonts, err := DefaultFonts()
		if err != nil {
			return nil, fmt.Errorf("render: %w", err)
		}
		opts.Fonts = fonts
	}
	if opts.Metrics == nil {
		opts.Metrics = NewFontMetrics(opts.Fonts)
	}
	if opts.Resources == nil {
		opts.Resources = Resources{}
	}

	c := newCanvas(opts.Width, opts.Margin, opts.Theme, opts.Fonts, opts.Metrics)
	p := &painter{
		c:          c,
		left:       opts.Margin,
		right:      opts.Width - opts.Margin,
		listIndent: max(0, opts.ListIndent),
		indents:    doc.Indents,
		highlights: opts.Highlights,
		image:      imageLoader(opts.Resources, opts.Width-2*opts.Margin),
	}
	if p.maxWidth() <= 0 {
		p.listIndent = 0
	}
	for _, t := range layoutTokens(doc) {
		p.add(t)
	}
	if len(p.line) > 0 {
		p.flush(layoutWord{face: doc.State.Face, size: doc.State.Size})
	}

	used := max(c.cursorY, c.clearY) + opts.Margin
	if used < opts.Margin+50 {
		used = opts.Margin + 50
	}
	c.ensureHeight(used)
	img := image.NewRGBA(image.Rect(0, 0, opts.Width, used))
	draw.Draw(img, img.Bounds(), c.img, image.Point{}, draw.Src)
	return img, nil
}
