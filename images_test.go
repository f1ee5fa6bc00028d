package htmltext

import (
	"testing"
)

func TestImageSize(t *testing.T) {
	w, h, err := ImageSize(pngBytes(t, 64, 32))
	if err != nil || w != 64 || h != 32 {
		t.Fatalf("ImageSize = %d, %d, %v", w, h, err)
	}
	if _, _, err := ImageSize([]byte("not an image")); err == nil {
		t.Fatalf("expected error for broken image")
	}
	if _, _, err := ImageSize(pngBytes(t, MaxImageWidth+1, 1)); err == nil {
		t.Fatalf("expected error for oversized image")
	}
}

func TestDisplaySize(t *testing.T) {
	tests := []struct {
		nw, nh, req, w, h int
	}{
		{64, 32, 0, 64, 32},
		{64, 32, 128, 128, 64},
		{64, 32, 10, 10, 5},
		{300, 1, 3, 3, 1},
	}
	for _, tt := range tests {
		w, h := displaySize(tt.nw, tt.nh, tt.req)
		if w != tt.w || h != tt.h {
			t.Errorf("displaySize(%d, %d, %d) = %d, %d; want %d, %d", tt.nw, tt.nh, tt.req, w, h, tt.w, tt.h)
		}
	}
}

func TestLineBreaksFor(t *testing.T) {
	tests := []struct {
		h    int
		line float64
		want int
	}{
		{20, 18, 2},
		{18, 18, 1},
		{1, 18, 1},
		{0, 18, 1},
		{40, 0, 1},
	}
	for _, tt := range tests {
		if got := lineBreaksFor(tt.h, tt.line); got != tt.want {
			t.Errorf("lineBreaksFor(%d, %v) = %d, want %d", tt.h, tt.line, got, tt.want)
		}
	}
}

func TestMetrics(t *testing.T) {
	if got := FixedMetrics(1.5).LineHeight("any", 20); got != 30 {
		t.Fatalf("fixed line height = %v", got)
	}
	fonts, err := DefaultFonts()
	if err != nil {
		t.Fatal(err)
	}
	m := NewFontMetrics(fonts)
	small := m.LineHeight(DefaultFace, 12)
	big := m.LineHeight(DefaultFace, 36)
	if small <= 12 || big <= small {
		t.Fatalf("unexpected line heights small=%v big=%v", small, big)
	}
	if again := m.LineHeight(DefaultFace, 12); again != small {
		t.Fatalf("cached height changed: %v != %v", again, small)
	}
}

func TestFontPick(t *testing.T) {
	fonts, err := DefaultFonts()
	if err != nil {
		t.Fatal(err)
	}
	if fonts.Pick("Courier New", Bold) != fonts.Mono {
		t.Errorf("courier should map to the monospace font")
	}
	if fonts.Pick(DefaultFace, Bold|Italic) != fonts.BoldItalic {
		t.Errorf("bold italic not picked")
	}
	if fonts.Pick("Verdana", Plain) != fonts.Regular {
		t.Errorf("regular not picked")
	}
	if fonts.MeasureString(DefaultFace, 18, Plain, "") != 0 || fonts.MeasureString(DefaultFace, 18, Plain, "wide") <= 0 {
		t.Errorf("unexpected measurements")
	}
}
