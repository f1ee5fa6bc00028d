package htmltext

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func runAt(t *testing.T, doc *Document, i int) TextRun {
	t.Helper()
	r, ok := doc.RunAt(i)
	if !ok {
		t.Fatalf("no run at %d in %q", i, doc.Text())
	}
	return r
}

func TestInterpretCollapsesWhitespace(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"leading and repeated spaces", "  a  b", "a b"},
		{"newlines become one space", "a\n\nb", "a b"},
		{"space after newline", "a\n b", "a b"},
		{"crlf", "a\r\n\r\nb", "a b"},
		{"break swallows following spaces", "a<br>  b", "a\nb"},
		{"entities keep spacing", "a&nbsp;&nbsp; b", "a   b"},
		{"entity followed by space", "Tom &amp; Jerry", "Tom & Jerry"},
		{"lt between spaces", "1 &lt; 2", "1 < 2"},
		{"space after entity collapses", "a &gt;  b", "a > b"},
		{"tabs are literal", "a\tb", "a\tb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Interpret(tt.in, DefaultStyleState())
			if diff := cmp.Diff(tt.want, doc.Text()); diff != "" {
				t.Fatalf("text mismatch (-want +got):\n%s", diff)
			}
			if doc.Chars != runeLen(doc.Text()) {
				t.Fatalf("counter %d, want %d", doc.Chars, runeLen(doc.Text()))
			}
		})
	}
}

func TestInterpretEntities(t *testing.T) {
	doc := Interpret("&lt;&amp;&rt;&quot;&laquo;&raquo;&#65;&gt;&bogus;!", DefaultStyleState())
	if diff := cmp.Diff(`<&>"«»A!`, doc.Text()); diff != "" {
		t.Fatalf("text mismatch (-want +got):\n%s", diff)
	}
}

func TestInterpretStyleFlags(t *testing.T) {
	doc := Interpret("<b>x</b><i>y</i><u>z</u><strong><em>w</em></strong>v", DefaultStyleState())
	want := []Flags{Bold, Italic, Underline, Bold | Italic, Plain}
	for i, f := range want {
		if got := runAt(t, doc, i).Flags; got != f {
			t.Errorf("char %d flags = %v, want %v", i, got, f)
		}
	}
}

func TestInterpretUnbalancedCloseToggles(t *testing.T) {
	doc := Interpret("<b>A<b>B</b>C</b>D", DefaultStyleState())
	want := []Flags{Bold, Bold, Plain, Bold}
	for i, f := range want {
		if got := runAt(t, doc, i).Flags; got != f {
			t.Errorf("char %d flags = %v, want %v", i, got, f)
		}
	}
}

func TestInterpretFontRestoresOneLevel(t *testing.T) {
	in := `<font color="red">r<font color="blue">b</font>s</font>n`
	doc := Interpret(in, DefaultStyleState())
	red, _ := ParseColor("red")
	blue, _ := ParseColor("blue")
	want := []Color{red, blue, red, red}
	for i, c := range want {
		if got := runAt(t, doc, i).Color; got != c {
			t.Errorf("char %d color = %v, want %v", i, got, c)
		}
	}
}

func TestInterpretStrictNesting(t *testing.T) {
	in := `<font color="red">r<font color="blue">b</font>s</font>n<b>A<b>B</b>C</b>D`
	doc := Interpret(in, DefaultStyleState(), WithStrictNesting(true))
	red, _ := ParseColor("red")
	blue, _ := ParseColor("blue")
	colors := []Color{red, blue, red, White}
	for i, c := range colors {
		if got := runAt(t, doc, i).Color; got != c {
			t.Errorf("char %d color = %v, want %v", i, got, c)
		}
	}
	flags := []Flags{Bold, Bold, Bold, Plain}
	for i, f := range flags {
		if got := runAt(t, doc, 4+i).Flags; got != f {
			t.Errorf("char %d flags = %v, want %v", 4+i, got, f)
		}
	}
	if doc.State.Depth() != 0 {
		t.Fatalf("expected no open frames, got %d", doc.State.Depth())
	}
}

func TestInterpretFontAttributes(t *testing.T) {
	doc := Interpret(`<font size="30" face="Courier" color="#00FF00">x</font>y<small>s</small><big>b</big>`, DefaultStyleState())
	x := runAt(t, doc, 0)
	if x.Size != 30 || x.Face != "Courier" || x.Color != 0xFF00FF00 {
		t.Fatalf("unexpected font run %+v", x)
	}
	y := runAt(t, doc, 1)
	if y.Size != DefaultSize || y.Face != DefaultFace || y.Color != White {
		t.Fatalf("font not restored: %+v", y)
	}
	if got := runAt(t, doc, 2).Size; got != DefaultSize*0.75 {
		t.Errorf("small size = %v", got)
	}
	if got := runAt(t, doc, 3).Size; got != DefaultSize*1.25 {
		t.Errorf("big size = %v", got)
	}
}

func TestInterpretSpanStyle(t *testing.T) {
	doc := Interpret(`<span style="color: #FF0000; font-weight: bold; font-size: 25px; font-family: 'Go Mono'">x</span>y`, DefaultStyleState())
	x := runAt(t, doc, 0)
	want := TextRun{Text: "x", Start: 0, Len: 1, Face: "Go Mono", Size: 25, Color: 0xFFFF0000, Flags: Bold}
	if diff := cmp.Diff(want, x); diff != "" {
		t.Fatalf("span run mismatch (-want +got):\n%s", diff)
	}
	y := runAt(t, doc, 1)
	if y.Color != White || y.Flags != Plain || y.Size != DefaultSize || y.Face != DefaultFace {
		t.Fatalf("span not restored: %+v", y)
	}
}

func TestInterpretHeadings(t *testing.T) {
	doc := Interpret("<h1>T</h1>x<h4>F</h4>", DefaultStyleState())
	if diff := cmp.Diff("T\n\nxF\n\n", doc.Text()); diff != "" {
		t.Fatalf("text mismatch (-want +got):\n%s", diff)
	}
	if got := runAt(t, doc, 0).Size; got != 36 {
		t.Errorf("h1 size = %v, want 36", got)
	}
	if got := runAt(t, doc, 1).Size; got != DefaultSize {
		t.Errorf("heading break size = %v, want %v", got, DefaultSize)
	}
	if got := runAt(t, doc, 4).Size; got != 24 {
		t.Errorf("h4 size = %v, want 24", got)
	}
}

func TestInterpretComments(t *testing.T) {
	doc := Interpret("a<!-- <b>hidden</b>\n -->b", DefaultStyleState())
	if doc.Text() != "ab" {
		t.Fatalf("got %q", doc.Text())
	}
	if len(doc.Runs) != 1 || doc.Runs[0].Flags != Plain {
		t.Fatalf("comment changed the style: %+v", doc.Runs)
	}
	if doc.State.InsideComment {
		t.Fatalf("comment still open")
	}
}

func TestInterpretPartialTagRestarts(t *testing.T) {
	doc := Interpret("a<b<i>c", DefaultStyleState())
	if doc.Text() != "ac" {
		t.Fatalf("got %q", doc.Text())
	}
	if got := runAt(t, doc, 1).Flags; got != Italic {
		t.Fatalf("flags = %v, want italic", got)
	}
}

func TestInterpretPreformatted(t *testing.T) {
	doc := Interpret("<pre>a  b\n\tc <b>x</b></pre>d  e", DefaultStyleState())
	if diff := cmp.Diff("a  b\n   c <b>x</b>d e", doc.Text()); diff != "" {
		t.Fatalf("text mismatch (-want +got):\n%s", diff)
	}
	pre := runAt(t, doc, 0)
	if pre.Face != DefaultMonospaceFace || pre.Size != DefaultPreformattedSize || pre.Len != 19 {
		t.Fatalf("unexpected pre run %+v", pre)
	}
	d := runAt(t, doc, 19)
	if d.Text != "d e" || d.Face != DefaultFace || d.Size != DefaultSize {
		t.Fatalf("unexpected run after pre %+v", d)
	}
	if doc.Chars != 22 {
		t.Fatalf("counter = %d, want 22", doc.Chars)
	}
}

func TestInterpretContinuesPreformattedState(t *testing.T) {
	st := DefaultStyleState()
	st.Preformatted = true
	doc := Interpret("a  b</pre>c  d", st)
	if doc.Text() != "a  bc d" {
		t.Fatalf("got %q", doc.Text())
	}
	if doc.State.Preformatted {
		t.Fatalf("pre still open")
	}
}

func TestInterpretLinks(t *testing.T) {
	doc := Interpret(`go <a href="page2.htm">here</a>.`, DefaultStyleState())
	want := []LinkSpan{{URL: "page2.htm", Start: 3, End: 7}}
	if diff := cmp.Diff(want, doc.Links()); diff != "" {
		t.Fatalf("links mismatch (-want +got):\n%s", diff)
	}
	here := runAt(t, doc, 3)
	if here.Color != DefaultLinkColor || !here.Flags.Has(Underline) {
		t.Fatalf("unexpected link style %+v", here)
	}
	dot := runAt(t, doc, 7)
	if dot.Color != White || dot.Flags.Has(Underline) {
		t.Fatalf("link style not restored %+v", dot)
	}
	if l, ok := doc.FindLinkAt(6); !ok || l.URL != "page2.htm" {
		t.Fatalf("FindLinkAt(6) = %+v, %v", l, ok)
	}
	if _, ok := doc.FindLinkAt(7); ok {
		t.Fatalf("link end should be exclusive")
	}
}

type linkCounter struct {
	Document
	writes int
}

func (s *linkCounter) WriteLink(l LinkSpan) error {
	s.writes++
	return s.Document.WriteLink(l)
}

func TestInterpretWritesEachLinkOnce(t *testing.T) {
	sink := &linkCounter{}
	_, err := New().InterpretTo(`<a href="1">one</a> <a href="2">x<a href="3">y</a>`, DefaultStyleState(), sink)
	if err != nil {
		t.Fatal(err)
	}
	want := []LinkSpan{{URL: "1", Start: 0, End: 3}, {URL: "3", Start: 5, End: 6}}
	if diff := cmp.Diff(want, sink.Links()); diff != "" {
		t.Fatalf("links mismatch (-want +got):\n%s", diff)
	}
	if sink.writes != len(want) {
		t.Fatalf("WriteLink called %d times, want %d", sink.writes, len(want))
	}
}

func TestInterpretLinkOptions(t *testing.T) {
	doc := Interpret(`<a href="x">y</a>`, DefaultStyleState(), WithLinkColor(0xFF112233))
	if got := runAt(t, doc, 0).Color; got != 0xFF112233 {
		t.Fatalf("link color = %v", got)
	}
}

func TestInterpretUnclosedAnchorDropped(t *testing.T) {
	doc := Interpret(`<a href="x">open`, DefaultStyleState())
	if len(doc.Links()) != 0 {
		t.Fatalf("expected no links, got %+v", doc.Links())
	}
}

func TestInterpretLists(t *testing.T) {
	doc := Interpret("<ul><li>a<li>b</ul><ol><li>x<li>y</ol>", DefaultStyleState())
	if diff := cmp.Diff("\n  - a\n  - b\n\n  1. x\n  2. y\n", doc.Text()); diff != "" {
		t.Fatalf("text mismatch (-want +got):\n%s", diff)
	}
	wantIndents := []Range{{Start: 0, End: 12}, {Start: 13, End: 27}}
	if diff := cmp.Diff(wantIndents, doc.Indents); diff != "" {
		t.Fatalf("indents mismatch (-want +got):\n%s", diff)
	}
	if doc.State.List.Open || doc.State.List.Ordered {
		t.Fatalf("list context not cleared: %+v", doc.State.List)
	}
}

func TestInterpretStrayListCloseOnLiteralState(t *testing.T) {
	doc := Interpret("a</ul>b", StyleState{Face: "X", Size: 12})
	if len(doc.Indents) != 0 {
		t.Fatalf("unexpected indents %+v", doc.Indents)
	}
	if got := doc.Text(); got != "a\nb" {
		t.Fatalf("text = %q", got)
	}
}

func TestInterpretMissingImage(t *testing.T) {
	doc := Interpret(`<img src="missing.png">x`, DefaultStyleState())
	if doc.Text() != "[NOT FOUND: missing.png]x" {
		t.Fatalf("got %q", doc.Text())
	}
	if len(doc.Images()) != 0 {
		t.Fatalf("expected no placements, got %+v", doc.Images())
	}
}

func TestInterpretImages(t *testing.T) {
	res := Resources{Named: map[string][]byte{"i.png": pngBytes(t, 40, 20)}}
	in := New(WithResources(res), WithMetrics(FixedMetrics(1)))

	doc := in.Interpret(`a<img src="i.png">x<img src="i.png" width="80px">`, DefaultStyleState())
	if diff := cmp.Diff("a\n\nx\n\n\n", doc.Text()); diff != "" {
		t.Fatalf("text mismatch (-want +got):\n%s", diff)
	}
	want := []ImagePlacement{
		{Source: "i.png", Char: 1, NaturalWidth: 40, NaturalHeight: 20, DisplayWidth: 40, DisplayHeight: 20},
		{Source: "i.png", Char: 4, NaturalWidth: 40, NaturalHeight: 20, RequestedWidth: 80, DisplayWidth: 80, DisplayHeight: 40},
	}
	if diff := cmp.Diff(want, doc.Images()); diff != "" {
		t.Fatalf("images mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"i.png"}, doc.PlacedImages()); diff != "" {
		t.Fatalf("placed images mismatch (-want +got):\n%s", diff)
	}
}

func TestInterpretUndecodableImage(t *testing.T) {
	res := Resources{Named: map[string][]byte{"bad.png": []byte("not an image")}}
	doc := Interpret(`<img src="bad.png">`, DefaultStyleState(), WithResources(res))
	if doc.Text() != "[NOT FOUND: bad.png]" {
		t.Fatalf("got %q", doc.Text())
	}
}

func TestInterpretListBullet(t *testing.T) {
	res := Resources{Named: map[string][]byte{"dot.png": pngBytes(t, 8, 8)}}
	doc := Interpret("<ul><li>a</ul><ol><li>b</ol>", DefaultStyleState(),
		WithResources(res), WithListBullet("dot.png"), WithMetrics(FixedMetrics(1)))
	if diff := cmp.Diff("\n    a\n\n  1. b\n", doc.Text()); diff != "" {
		t.Fatalf("text mismatch (-want +got):\n%s", diff)
	}
	imgs := doc.Images()
	if len(imgs) != 1 || !imgs[0].Inline || imgs[0].Char != 1 {
		t.Fatalf("unexpected bullet placements %+v", imgs)
	}
}

func TestInterpretIgnoresUnknownTags(t *testing.T) {
	doc := Interpret("<table><tr>a</tr></table><p>b</p>", DefaultStyleState())
	if doc.Text() != "a\nb\n" {
		t.Fatalf("got %q", doc.Text())
	}
}

func TestInterpretZeroStateUsesDefaults(t *testing.T) {
	doc := Interpret("x", StyleState{})
	r := runAt(t, doc, 0)
	if r.Face != DefaultFace || r.Size != DefaultSize || r.Color != DefaultColor {
		t.Fatalf("unexpected run %+v", r)
	}
}

type failingSink struct {
	Document
	after int
}

var errSinkFull = errors.New("sink full")

func (s *failingSink) WriteRun(r TextRun) error {
	if s.after == 0 {
		return errSinkFull
	}
	s.after--
	return s.Document.WriteRun(r)
}

func TestInterpretToStopsOnSinkError(t *testing.T) {
	sink := &failingSink{after: 1}
	_, err := New().InterpretTo("a<b>b</b>c<i>d</i>", DefaultStyleState(), sink)
	if !errors.Is(err, errSinkFull) {
		t.Fatalf("expected sink error, got %v", err)
	}
	if got := sink.Text(); got != "a" {
		t.Fatalf("expected output to stop after first run, got %q", got)
	}
}

func TestInterpretReturnsFinalState(t *testing.T) {
	st, err := New().InterpretTo("<b>open", DefaultStyleState(), NewDocument())
	if err != nil {
		t.Fatal(err)
	}
	if !st.Flags.Has(Bold) {
		t.Fatalf("expected bold to carry over, got %v", st.Flags)
	}
	doc := Interpret(" more", st)
	if !strings.HasPrefix(doc.Text(), "more") || !runAt(t, doc, 0).Flags.Has(Bold) {
		t.Fatalf("continuation lost style: %+v", doc.Runs)
	}
}
