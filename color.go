package htmltext

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is a 32-bit ARGB color. It implements color.Color so hosts can hand
// it straight to image/draw.
type Color uint32

// Basic colors.
const (
	Black  Color = 0xFF000000
	White  Color = 0xFFFFFFFF
	Yellow Color = 0xFFFFFF00
)

// RGB returns an opaque color.
func RGB(r, g, b uint8) Color {
	return 0xFF000000 | Color(r)<<16 | Color(g)<<8 | Color(b)
}

// A returns the alpha component.
func (c Color) A() uint8 { return uint8(c >> 24) }

// R returns the red component.
func (c Color) R() uint8 { return uint8(c >> 16) }

// G returns the green component.
func (c Color) G() uint8 { return uint8(c >> 8) }

// B returns the blue component.
func (c Color) B() uint8 { return uint8(c) }

// RGBA implements color.Color with alpha-premultiplied components.
func (c Color) RGBA() (r, g, b, a uint32) {
	a = uint32(c.A())
	a |= a << 8
	r = uint32(c.R())
	r |= r << 8
	r = r * a / 0xffff
	g = uint32(c.G())
	g |= g << 8
	g = g * a / 0xffff
	b = uint32(c.B())
	b |= b << 8
	b = b * a / 0xffff
	return r, g, b, a
}

// String formats the color as #RRGGBB, or #AARRGGBB when not opaque.
func (c Color) String() string {
	if c.A() == 0xFF {
		return fmt.Sprintf("#%02X%02X%02X", c.R(), c.G(), c.B())
	}
	return fmt.Sprintf("#%08X", uint32(c))
}

var namedColors = map[string]Color{
	"black":   0xFF000000,
	"silver":  0xFFC0C0C0,
	"gray":    0xFF808080,
	"grey":    0xFF808080,
	"white":   0xFFFFFFFF,
	"maroon":  0xFF800000,
	"red":     0xFFFF0000,
	"purple":  0xFF800080,
	"fuchsia": 0xFFFF00FF,
	"green":   0xFF008000,
	"lime":    0xFF00FF00,
	"olive":   0xFF808000,
	"yellow":  0xFFFFFF00,
	"navy":    0xFF000080,
	"blue":    0xFF0000FF,
	"teal":    0xFF008080,
	"aqua":    0xFF00FFFF,
	"orange":  0xFFFFA500,
}

// ParseColor parses #RRGGBB, #RGB, #AARRGGBB, bare RRGGBB hex or one of the
// HTML4 color names. Six-digit values are made opaque.
func ParseColor(s string) (Color, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if c, ok := namedColors[strings.ToLower(s)]; ok {
		return c, true
	}
	hex := strings.TrimPrefix(s, "#")
	switch len(hex) {
	case 3:
		var b strings.Builder
		for _, r := range hex {
			b.WriteRune(r)
			b.WriteRune(r)
		}
		hex = b.String()
	case 6, 8:
	default:
		return 0, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, false
	}
	if len(hex) == 6 {
		v |= 0xFF000000
	}
	return Color(v), true
}
