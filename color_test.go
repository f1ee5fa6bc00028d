package htmltext

import (
	"image/color"
	"testing"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want Color
		ok   bool
	}{
		{"#FF2020", 0xFFFF2020, true},
		{"20ff20", 0xFF20FF20, true},
		{"#f00", 0xFFFF0000, true},
		{"#80112233", 0x80112233, true},
		{" Red ", 0xFFFF0000, true},
		{"grey", 0xFF808080, true},
		{"#12345", 0, false},
		{"#GGGGGG", 0, false},
		{"", 0, false},
		{"chartreuse", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseColor(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseColor(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestColorString(t *testing.T) {
	if got := RGB(0x06, 0x4F, 0xBD).String(); got != "#064FBD" {
		t.Errorf("got %q", got)
	}
	if got := Color(0x80112233).String(); got != "#80112233" {
		t.Errorf("got %q", got)
	}
}

func TestColorRGBAPremultiplies(t *testing.T) {
	got := color.RGBAModel.Convert(Color(0x80FF0000)).(color.RGBA)
	want := color.RGBA{R: 0x80, A: 0x80}
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got := color.RGBAModel.Convert(Yellow).(color.RGBA); got != (color.RGBA{R: 0xFF, G: 0xFF, A: 0xFF}) {
		t.Fatalf("yellow = %v", got)
	}
}

func TestThemes(t *testing.T) {
	th, err := ThemeByName("")
	if err != nil || th != DarkTheme {
		t.Fatalf("empty name = %v, %v", th.Name, err)
	}
	if th, err := ThemeByName(" Light "); err != nil || th != LightTheme {
		t.Fatalf("light = %v, %v", th.Name, err)
	}
	if _, err := ThemeByName("sepia"); err == nil {
		t.Fatalf("expected error for unknown theme")
	}
	st := LightTheme.StyleState("", 0)
	if st.Face != DefaultFace || st.Size != DefaultSize || st.Color != LightTheme.Foreground || st.PrevColor != LightTheme.Foreground {
		t.Fatalf("unexpected state %+v", st)
	}
}
