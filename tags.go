package htmltext

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// tag is one parsed markup directive. Closing tags keep their leading '/'.
type tag struct {
	name  string
	attrs map[string]string
}

func (t tag) attr(key string) (string, bool) {
	v, ok := t.attrs[key]
	return v, ok
}

func (t tag) closing() bool { return strings.HasPrefix(t.name, "/") }

// parseTag splits the text between '<' and '>' into a lower-cased name and
// its attributes. Values may be double quoted, single quoted or bare.
func parseTag(raw string) tag {
	raw = strings.TrimSpace(raw)
	i := strings.IndexFunc(raw, unicode.IsSpace)
	name, rest := raw, ""
	if i >= 0 {
		name, rest = raw[:i], raw[i:]
	}
	name = strings.ToLower(name)
	if len(name) > 1 {
		name = strings.TrimSuffix(name, "/")
	}
	return tag{name: name, attrs: parseAttrs(rest)}
}

func parseAttrs(s string) map[string]string {
	var attrs map[string]string
	for {
		s = strings.TrimLeftFunc(s, unicode.IsSpace)
		if s == "" || s == "/" {
			return attrs
		}
		end := strings.IndexFunc(s, func(r rune) bool { return r == '=' || unicode.IsSpace(r) })
		key := s
		if end < 0 {
			s = ""
		} else {
			key, s = s[:end], s[end:]
		}
		key = strings.ToLower(strings.TrimSuffix(key, "/"))
		s = strings.TrimLeftFunc(s, unicode.IsSpace)
		value := ""
		if strings.HasPrefix(s, "=") {
			value, s = attrValue(strings.TrimLeftFunc(s[1:], unicode.IsSpace))
		}
		if key == "" {
			continue
		}
		if attrs == nil {
			attrs = make(map[string]string)
		}
		if _, dup := attrs[key]; !dup {
			attrs[key] = value
		}
	}
}

func attrValue(s string) (value, rest string) {
	if s == "" {
		return "", ""
	}
	if q := s[0]; q == '"' || q == '\'' {
		if end := strings.IndexByte(s[1:], q); end >= 0 {
			return s[1 : end+1], s[end+2:]
		}
		return s[1:], ""
	}
	end := strings.IndexFunc(s, unicode.IsSpace)
	if end < 0 {
		return s, ""
	}
	return s[:end], s[end:]
}

type actionKind uint8

const (
	actText actionKind = iota
	actOpenLink
	actCloseLink
	actImage
	actIndent
)

// action is structural output requested by a tag. Positions are filled in by
// the scanner from its character counter when the action executes.
type action struct {
	kind   actionKind
	text   string
	url    string
	width  int
	inline bool
	start  int
}

func textAction(s string) action { return action{kind: actText, text: s} }

// tagEnv is the configuration tag handlers read.
type tagEnv struct {
	linkColor  Color
	monoFace   string
	preSize    float64
	strict     bool
	listBullet string
}

// frameKey folds tag aliases so strict nesting pairs <em> with </i>.
func frameKey(name string) string {
	switch name {
	case "em":
		return "i"
	case "strong":
		return "b"
	case "big":
		return "small"
	}
	if len(name) == 2 && name[0] == 'h' {
		return "h"
	}
	return name
}

func headingLevel(name string) (int, bool) {
	if len(name) != 2 || name[0] != 'h' || name[1] < '1' || name[1] > '4' {
		return 0, false
	}
	return int(name[1] - '0'), true
}

// apply returns the style state after tag t at character pos together with
// the output the tag produces. The receiver is not modified. The bool result
// is false for tags outside the supported vocabulary.
func (st StyleState) apply(t tag, pos int, env tagEnv) (StyleState, []action, bool) {
	name := t.name
	closing := t.closing()
	if closing {
		name = name[1:]
	}
	if closing && env.strict {
		if acts, ok := st.closeStrict(name); ok {
			return st, acts, true
		}
	}
	if !closing && env.strict && opensFrame(name, t) {
		st.push(frameKey(name))
	}

	if level, ok := headingLevel(name); ok {
		if closing {
			st.restoreSize()
			return st, []action{textAction("\n\n")}, true
		}
		st.saveSize()
		st.Size = float64(40 - 4*level)
		return st, nil, true
	}

	if closing {
		return st.applyClose(name)
	}
	return st.applyOpen(name, t, pos, env)
}

func opensFrame(name string, t tag) bool {
	switch name {
	case "i", "em", "b", "strong", "u", "a", "font", "small", "big", "span", "pre",
		"h1", "h2", "h3", "h4":
		return true
	case "p":
		_, ok := t.attr("style")
		return ok
	}
	return false
}

func (st StyleState) applyOpen(name string, t tag, pos int, env tagEnv) (StyleState, []action, bool) {
	switch name {
	case "br":
		return st, []action{textAction("\n")}, true
	case "i", "em":
		st.Flags |= Italic
	case "b", "strong":
		st.Flags |= Bold
	case "u":
		st.Flags |= Underline
	case "a":
		st.saveColor()
		st.Color = env.linkColor
		st.Flags |= Underline
		if href, ok := t.attr("href"); ok {
			return st, []action{{kind: actOpenLink, url: href}}, true
		}
	case "font":
		if v, ok := t.attr("size"); ok {
			if size, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && size > 0 {
				st.saveSize()
				st.Size = size
			}
		}
		if v, ok := t.attr("color"); ok {
			if c, ok := ParseColor(v); ok {
				st.saveColor()
				st.Color = c
			}
		}
		if v, ok := t.attr("face"); ok && strings.TrimSpace(v) != "" {
			st.saveFace()
			st.Face = strings.TrimSpace(v)
		}
	case "small":
		st.saveSize()
		st.Size *= 0.75
	case "big":
		st.saveSize()
		st.Size *= 1.25
	case "ul", "ol":
		st.List = ListContext{Ordered: name == "ol", Counter: 1, Open: true, IndentStart: pos}
	case "li":
		if !st.List.Ordered && env.listBullet != "" {
			return st, []action{
				textAction("\n"),
				{kind: actImage, url: env.listBullet, inline: true},
				textAction("    "),
			}, true
		}
		marker := "\n  - "
		if st.List.Ordered {
			marker = fmt.Sprintf("\n  %d. ", st.List.Counter)
			st.List.Counter++
		}
		return st, []action{textAction(marker)}, true
	case "p":
		if css, ok := t.attr("style"); ok {
			st.applyInlineStyle(css, true)
		}
		return st, []action{textAction("\n")}, true
	case "span":
		if css, ok := t.attr("style"); ok {
			st.applyInlineStyle(css, true)
		}
	case "pre":
		st.Preformatted = true
		st.saveFace()
		st.saveSize()
		st.saveColor()
		st.Face = env.monoFace
		st.Size = env.preSize
		st.Flags = Plain
		if css, ok := t.attr("style"); ok {
			st.applyInlineStyle(css, false)
		}
	case "img":
		src, _ := t.attr("src")
		width := 0
		if v, ok := t.attr("width"); ok {
			if n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(v), "px")); err == nil && n > 0 {
				width = n
			}
		}
		return st, []action{{kind: actImage, url: src, width: width}}, true
	default:
		return st, nil, false
	}
	return st, nil, true
}

func (st StyleState) applyClose(name string) (StyleState, []action, bool) {
	switch name {
	case "i", "em":
		st.Flags ^= Italic
	case "b", "strong":
		st.Flags ^= Bold
	case "u":
		st.Flags ^= Underline
	case "a":
		st.Flags &^= Underline
		st.restoreColor()
		return st, []action{{kind: actCloseLink}}, true
	case "font":
		st.restoreAll()
	case "small", "big":
		st.restoreSize()
	case "ul", "ol":
		return st.closeList(), st.listCloseActions(), true
	case "p":
		return st, []action{textAction("\n")}, true
	case "span":
		st.restoreAll()
		st.Flags = Plain
	case "pre":
		st.Preformatted = false
		st.restoreAll()
	default:
		return st, nil, false
	}
	return st, nil, true
}

// closeStrict handles a closing tag when frames are in use. It reports false
// for tags whose closing behavior does not depend on frames.
func (st *StyleState) closeStrict(name string) ([]action, bool) {
	var acts []action
	switch name {
	case "a":
		acts = []action{{kind: actCloseLink}}
	case "p":
		acts = []action{textAction("\n")}
	case "pre":
		st.Preformatted = false
	case "i", "em", "b", "strong", "u", "font", "small", "big", "span":
	default:
		if _, ok := headingLevel(name); ok {
			acts = []action{textAction("\n\n")}
			break
		}
		return nil, false
	}
	st.pop(frameKey(name))
	return acts, true
}

func (st StyleState) closeList() StyleState {
	st.List.Ordered = false
	st.List.Open = false
	st.List.IndentStart = 0
	return st
}

func (st StyleState) listCloseActions() []action {
	var acts []action
	if st.List.Open {
		acts = append(acts, action{kind: actIndent, start: st.List.IndentStart})
	}
	return append(acts, textAction("\n"))
}
