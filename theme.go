package htmltext

import (
	"fmt"
	"sort"
	"strings"
)

// Theme holds the colors a host paints with.
type Theme struct {
	Name       string
	Background Color
	Foreground Color
	Link       Color
	Highlight  Color
	IndentBar  Color
}

var (
	// DarkTheme matches the text box the markup was written for: light text
	// and yellow links on slate.
	DarkTheme = Theme{
		Name:       "dark",
		Background: 0xFF404050,
		Foreground: White,
		Link:       Yellow,
		Highlight:  0xFF3A6EA5,
		IndentBar:  0xFF5A5A70,
	}
	LightTheme = Theme{
		Name:       "light",
		Background: White,
		Foreground: 0xFF111111,
		Link:       0xFF064FBD,
		Highlight:  0xFFFFE066,
		IndentBar:  0xFFCCCCCC,
	}
	MidnightTheme = Theme{
		Name:       "midnight",
		Background: 0xFF121214,
		Foreground: 0xFFEEEEF0,
		Link:       0xFF6CB6FF,
		Highlight:  0xFF44444A,
		IndentBar:  0xFF444448,
	}
)

var themes = map[string]Theme{
	DarkTheme.Name:     DarkTheme,
	LightTheme.Name:    LightTheme,
	MidnightTheme.Name: MidnightTheme,
}

// ThemeByName returns a built-in theme. The empty name selects DarkTheme.
func ThemeByName(name string) (Theme, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return DarkTheme, nil
	}
	th, ok := themes[name]
	if !ok {
		return Theme{}, fmt.Errorf("unknown theme: %s", name)
	}
	return th, nil
}

// AvailableThemes lists the built-in theme names in order.
func AvailableThemes() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StyleState returns the initial style state for text drawn on the theme.
func (t Theme) StyleState(face string, size float64) StyleState {
	if face == "" {
		face = DefaultFace
	}
	if size <= 0 {
		size = DefaultSize
	}
	return NewStyleState(face, size, t.Foreground)
}
