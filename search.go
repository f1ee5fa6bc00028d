package htmltext

import "unicode"

// Search returns the character ranges where query occurs in the rendered
// text, left to right and without overlaps. With foldCase, letters match
// regardless of case.
func (d *Document) Search(query string, foldCase bool) []Range {
	needle := []rune(query)
	if len(needle) == 0 {
		return nil
	}
	var text []rune
	var chars []int
	for _, r := range d.Runs {
		i := 0
		for _, ch := range r.Text {
			text = append(text, ch)
			chars = append(chars, charAt(r, i))
			i++
		}
	}
	if foldCase {
		for i, r := range needle {
			needle[i] = unicode.ToLower(r)
		}
		for i, r := range text {
			text[i] = unicode.ToLower(r)
		}
	}

	var out []Range
	for i := 0; i+len(needle) <= len(text); {
		if !hasRunesAt(text, needle, i) {
			i++
			continue
		}
		end := i + len(needle)
		endChar := chars[end-1] + 1
		out = append(out, Range{Start: chars[i], End: endChar})
		i = end
	}
	return out
}

func hasRunesAt(text, needle []rune, at int) bool {
	for j, r := range needle {
		if text[at+j] != r {
			return false
		}
	}
	return true
}
