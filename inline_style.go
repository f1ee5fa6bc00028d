package htmltext

import (
	"strconv"
	"strings"
)

// applyInlineStyle applies the declarations of a style attribute. When save
// is set, each property that changes face, size or color saves the old value
// first. Flags have no saved slot.
func (s *StyleState) applyInlineStyle(css string, save bool) {
	for decl := range strings.SplitSeq(css, ";") {
		prop, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		switch prop {
		case "color":
			if c, ok := ParseColor(value); ok {
				if save {
					s.saveColor()
				}
				s.Color = c
			}
		case "font-size":
			if size, ok := parseFontSize(value); ok {
				if save {
					s.saveSize()
				}
				s.Size = size
			}
		case "font-family":
			if face := firstFamily(value); face != "" {
				if save {
					s.saveFace()
				}
				s.Face = face
			}
		case "font-weight":
			switch v := strings.ToLower(value); v {
			case "bold", "bolder":
				s.Flags |= Bold
			case "normal", "lighter":
				s.Flags &^= Bold
			default:
				if n, err := strconv.Atoi(v); err == nil {
					if n >= 600 {
						s.Flags |= Bold
					} else {
						s.Flags &^= Bold
					}
				}
			}
		case "font-style":
			switch strings.ToLower(value) {
			case "italic", "oblique":
				s.Flags |= Italic
			case "normal":
				s.Flags &^= Italic
			}
		case "text-decoration", "text-decoration-line":
			v := strings.ToLower(value)
			switch {
			case strings.Contains(v, "underline"):
				s.Flags |= Underline
			case v == "none":
				s.Flags &^= Underline
			}
		}
	}
}

// parseFontSize accepts "25px", "12pt" or a bare number. Units are not
// converted: sizes are used as the host's point size directly.
func parseFontSize(v string) (float64, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, unit := range []string{"px", "pt"} {
		if n, ok := strings.CutSuffix(v, unit); ok {
			v = strings.TrimSpace(n)
			break
		}
	}
	size, err := strconv.ParseFloat(v, 64)
	if err != nil || size <= 0 {
		return 0, false
	}
	return size, true
}

func firstFamily(v string) string {
	first, _, _ := strings.Cut(v, ",")
	return strings.Trim(strings.TrimSpace(first), `"'`)
}
