package htmltext

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// Interpreter converts markup to styled runs. It is immutable after New and
// safe for concurrent use; each call gets its own scanner.
type Interpreter struct {
	cfg config
}

// New returns an Interpreter configured by opts.
func New(opts ...Option) *Interpreter {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Interpreter{cfg: cfg}
}

// Interpret parses markup starting from state with a default Interpreter.
func Interpret(markup string, state StyleState, opts ...Option) *Document {
	return New(opts...).Interpret(markup, state)
}

// Interpret parses markup into a new Document. The style state left when the
// input ends is stored in Document.State.
func (in *Interpreter) Interpret(markup string, state StyleState) *Document {
	doc := NewDocument()
	// Document never fails a write.
	st, _ := in.InterpretTo(markup, state, doc)
	doc.State = st
	return doc
}

// InterpretTo parses markup and streams the output to sink. The only errors
// are those returned by the sink, which stop the parse.
func (in *Interpreter) InterpretTo(markup string, state StyleState, sink Sink) (StyleState, error) {
	if state.Face == "" && state.Size == 0 {
		state = DefaultStyleState()
	}
	sc := &scanner{
		cfg:  &in.cfg,
		env:  in.cfg.env(),
		st:   state,
		sink: sink,
		last: '\n',
	}
	if state.Preformatted {
		sc.mode = modePre
	}
	sc.scan(strings.ReplaceAll(markup, "\r\n", "\n"))
	if sc.err != nil {
		return sc.st, fmt.Errorf("interpret: %w", sc.err)
	}
	return sc.st, nil
}

type scanMode uint8

const (
	modeText scanMode = iota
	modeTag
	modeEntity
	modePre
)

const preClose = "</pre>"

// nbsp marks a decoded space as the last character so the collapse rules
// treat it as text.
const nbsp = '\u00a0'

type scanner struct {
	cfg  *config
	env  tagEnv
	st   StyleState
	sink Sink
	// link is the anchor still waiting for its </a>.
	link *HyperLink
	mode scanMode

	// out holds text not yet written; it started at runStart. pos counts
	// every character emitted so far, including out.
	out      strings.Builder
	runStart int
	pos      int

	tag    strings.Builder
	entity strings.Builder

	// last is the most recent character that collapse rules look at.
	last rune

	preMatch  int
	preBefore rune

	err error
}

func (sc *scanner) log() *slog.Logger { return sc.cfg.logger }

func (sc *scanner) scan(input string) {
	for _, r := range input {
		if sc.err != nil {
			return
		}
		switch sc.mode {
		case modeTag:
			sc.tagChar(r)
		case modeEntity:
			sc.entityChar(r)
		case modePre:
			sc.preChar(r)
		default:
			sc.textChar(r)
		}
	}
	switch sc.mode {
	case modeText, modePre:
		sc.flush()
	case modeTag:
		sc.log().Debug("unterminated tag dropped", "tag", sc.tag.String())
	case modeEntity:
		sc.log().Debug("unterminated entity dropped", "entity", sc.entity.String())
	}
	if sc.link != nil {
		sc.log().Debug("unclosed anchor dropped", "url", sc.link.URL, "start", sc.link.Start)
	}
}

func (sc *scanner) textChar(r rune) {
	switch r {
	case '<':
		sc.flush()
		sc.beginTag()
		return
	case '&':
		sc.flush()
		sc.entity.Reset()
		sc.mode = modeEntity
		return
	}
	switch {
	case r == '\n' && sc.last == '\n',
		r == ' ' && sc.last == '\n',
		r == ' ' && sc.last == ' ',
		r == '\n' && sc.last == ' ':
		return
	}
	if r == '\n' {
		r = ' '
	}
	sc.last = r
	sc.out.WriteRune(r)
	sc.pos++
}

func (sc *scanner) preChar(r rune) {
	switch {
	case r == rune(preClose[sc.preMatch]):
		if sc.preMatch == 0 {
			sc.preBefore = sc.last
		}
		sc.preMatch++
	case r == '<':
		sc.preBefore = sc.last
		sc.preMatch = 1
	default:
		sc.preMatch = 0
	}
	if r == '\t' {
		sc.out.WriteString("   ")
		sc.pos += 4
	} else {
		sc.out.WriteRune(r)
		sc.pos++
	}
	sc.last = r
	if sc.preMatch < len(preClose) {
		return
	}

	sc.preMatch = 0
	text := sc.out.String()
	text = text[:len(text)-len(preClose)]
	sc.out.Reset()
	sc.out.WriteString(text)
	sc.pos -= len(preClose)
	sc.last = sc.preBefore
	if text != "" {
		sc.last, _ = utf8.DecodeLastRuneInString(text)
	}
	sc.flush()
	sc.mode = modeText
	sc.applyTag(tag{name: "/pre"})
}

func (sc *scanner) beginTag() {
	sc.tag.Reset()
	sc.mode = modeTag
}

func (sc *scanner) tagChar(r rune) {
	if sc.st.InsideComment {
		if r == '>' && strings.HasSuffix(sc.tag.String(), "--") {
			sc.st.InsideComment = false
			sc.tag.Reset()
			sc.mode = modeText
			return
		}
		sc.tag.WriteRune(r)
		return
	}
	switch r {
	case '<':
		sc.log().Debug("partial tag dropped", "tag", sc.tag.String())
		sc.beginTag()
		return
	case '>':
		raw := sc.tag.String()
		sc.tag.Reset()
		sc.mode = modeText
		sc.applyTag(parseTag(raw))
		if sc.st.Preformatted {
			sc.mode = modePre
			sc.preMatch = 0
		}
		return
	}
	sc.tag.WriteRune(r)
	if sc.tag.Len() == 3 && sc.tag.String() == "!--" {
		sc.st.InsideComment = true
	}
}

func (sc *scanner) entityChar(r rune) {
	switch r {
	case ';':
		code := sc.entity.String()
		sc.entity.Reset()
		sc.mode = modeText
		ch, ok := decodeEntity(code)
		if !ok {
			sc.log().Debug("unknown entity", "entity", code)
			return
		}
		sc.out.WriteRune(ch)
		sc.pos++
		sc.last = ch
		if ch == ' ' {
			sc.last = nbsp
		}
	case '<':
		sc.log().Debug("partial entity dropped", "entity", sc.entity.String())
		sc.entity.Reset()
		sc.beginTag()
	default:
		sc.entity.WriteRune(r)
	}
}

func (sc *scanner) applyTag(t tag) {
	if t.name == "" {
		return
	}
	st, acts, known := sc.st.apply(t, sc.pos, sc.env)
	if !known {
		sc.log().Debug("ignored tag", "tag", t.name)
	}
	sc.st = st
	for _, a := range acts {
		sc.exec(a)
		if sc.err != nil {
			return
		}
	}
}

func (sc *scanner) exec(a action) {
	switch a.kind {
	case actText:
		sc.emit(a.text)
	case actOpenLink:
		if sc.link != nil {
			sc.log().Debug("anchor replaced before </a>", "url", sc.link.URL)
		}
		sc.link = &HyperLink{URL: a.url, Start: sc.pos}
	case actCloseLink:
		if sc.link == nil {
			return
		}
		span := LinkSpan{URL: sc.link.URL, Start: sc.link.Start, End: sc.pos}
		sc.link = nil
		sc.err = sc.sink.WriteLink(span)
	case actIndent:
		sc.err = sc.sink.WriteIndent(Range{Start: a.start, End: sc.pos})
	case actImage:
		sc.placeImage(a)
	}
}

// emit writes structural text with the current style and moves the counter.
func (sc *scanner) emit(text string) {
	if text == "" {
		return
	}
	n := utf8.RuneCountInString(text)
	sc.err = sc.sink.WriteRun(sc.st.run(text, sc.pos, n))
	sc.pos += n
	sc.runStart = sc.pos
	sc.last, _ = utf8.DecodeLastRuneInString(text)
}

func (sc *scanner) flush() {
	if sc.out.Len() == 0 {
		sc.runStart = sc.pos
		return
	}
	text := sc.out.String()
	sc.out.Reset()
	if err := sc.sink.WriteRun(sc.st.run(text, sc.runStart, sc.pos-sc.runStart)); err != nil {
		sc.err = err
	}
	sc.runStart = sc.pos
}

func (sc *scanner) placeImage(a action) {
	p, err := sc.resolveImage(a.url, a.width)
	if err != nil {
		sc.log().Debug("image not found", "src", a.url, "err", err)
		sc.emit("[NOT FOUND: " + a.url + "]")
		return
	}
	p.Char = sc.pos
	p.Inline = a.inline
	if sc.err = sc.sink.WriteImage(p); sc.err != nil || p.Inline {
		return
	}
	metrics := sc.cfg.metrics
	if metrics == nil {
		metrics = DefaultMetrics()
	}
	n := lineBreaksFor(p.DisplayHeight, metrics.LineHeight(sc.st.Face, sc.st.Size))
	sc.emit(strings.Repeat("\n", n))
}

func (sc *scanner) resolveImage(src string, width int) (ImagePlacement, error) {
	if strings.TrimSpace(src) == "" {
		return ImagePlacement{}, fmt.Errorf("image: %w", ErrNotFound)
	}
	data, err := Resolve(sc.cfg.resources, src)
	if err != nil {
		return ImagePlacement{}, err
	}
	w, h, err := ImageSize(data)
	if err != nil {
		return ImagePlacement{}, err
	}
	dw, dh := displaySize(w, h, width)
	return ImagePlacement{
		Source:         src,
		NaturalWidth:   w,
		NaturalHeight:  h,
		RequestedWidth: width,
		DisplayWidth:   dw,
		DisplayHeight:  dh,
	}, nil
}
