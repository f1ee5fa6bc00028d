package htmltext

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDocumentMergesRuns(t *testing.T) {
	doc := NewDocument()
	bold := TextRun{Face: DefaultFace, Size: DefaultSize, Flags: Bold}
	plain := TextRun{Face: DefaultFace, Size: DefaultSize}

	write := func(base TextRun, text string, start int) {
		base.Text, base.Start, base.Len = text, start, runeLen(text)
		if err := doc.WriteRun(base); err != nil {
			t.Fatal(err)
		}
	}
	write(plain, "ab", 0)
	write(plain, "c", 2)
	write(bold, "d", 3)
	write(bold, "e", 5) // gap: not merged
	if len(doc.Runs) != 3 {
		t.Fatalf("expected 3 runs, got %+v", doc.Runs)
	}
	if doc.Runs[0].Text != "abc" || doc.Runs[0].Len != 3 {
		t.Fatalf("unexpected merged run %+v", doc.Runs[0])
	}
	if doc.Chars != 6 {
		t.Fatalf("chars = %d, want 6", doc.Chars)
	}

	doc.Reset()
	if len(doc.Runs) != 0 || doc.Chars != 0 || len(doc.Links()) != 0 {
		t.Fatalf("reset left state behind: %+v", doc)
	}
}

func TestDocumentTextRange(t *testing.T) {
	doc := Interpret(`one <b>two</b> three`, DefaultStyleState())
	if got := doc.TextRange(Range{Start: 2, End: 9}); got != "e two t" {
		t.Fatalf("got %q", got)
	}
	if got := doc.TextRange(Range{Start: 40, End: 50}); got != "" {
		t.Fatalf("got %q", got)
	}
}

func TestRegistry(t *testing.T) {
	var r Registry
	if _, ok := r.EndLink(3); ok {
		t.Fatalf("EndLink without an open link should fail")
	}
	r.BeginLink("a", 0)
	r.BeginLink("b", 2)
	if l, ok := r.Pending(); !ok || l.URL != "b" {
		t.Fatalf("pending = %+v, %v", l, ok)
	}
	span, ok := r.EndLink(5)
	if !ok || span != (LinkSpan{URL: "b", Start: 2, End: 5}) {
		t.Fatalf("EndLink = %+v, %v", span, ok)
	}
	if _, ok := r.Pending(); ok {
		t.Fatalf("link still pending")
	}
	r.AddLink(LinkSpan{URL: "c", Start: 4, End: 8})
	if l, ok := r.FindLinkAt(4); !ok || l.URL != "b" {
		t.Fatalf("FindLinkAt(4) = %+v, %v", l, ok)
	}
	if l, ok := r.FindLinkAt(6); !ok || l.URL != "c" {
		t.Fatalf("FindLinkAt(6) = %+v, %v", l, ok)
	}
	if _, ok := r.FindLinkAt(1); ok {
		t.Fatalf("FindLinkAt(1) should miss")
	}

	r.PlaceImage(ImagePlacement{Source: "a.png"})
	r.PlaceImage(ImagePlacement{Source: "b.png", Char: 3})
	r.PlaceImage(ImagePlacement{Source: "a.png", Char: 9})
	if diff := cmp.Diff([]string{"a.png", "b.png"}, r.PlacedImages()); diff != "" {
		t.Fatalf("placed images mismatch (-want +got):\n%s", diff)
	}
	if len(r.Images()) != 3 {
		t.Fatalf("expected every placement, got %+v", r.Images())
	}
	r.Reset()
	if len(r.Links()) != 0 || r.PlacedImages() != nil {
		t.Fatalf("reset left state behind")
	}
}

func TestSearch(t *testing.T) {
	doc := Interpret(`Go <b>go</b> GOGO<pre> go</pre>`, DefaultStyleState())
	tests := []struct {
		query    string
		foldCase bool
		want     []Range
	}{
		{"go", true, []Range{{0, 2}, {3, 5}, {6, 8}, {8, 10}, {11, 13}}},
		{"go", false, []Range{{3, 5}, {11, 13}}},
		{"GOG", false, []Range{{6, 9}}},
		{"o g", true, []Range{{1, 4}, {9, 12}}},
		{"", true, nil},
		{"missing", true, nil},
	}
	for _, tt := range tests {
		got := doc.Search(tt.query, tt.foldCase)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("Search(%q, %v) mismatch (-want +got):\n%s", tt.query, tt.foldCase, diff)
		}
	}
}
