package htmltext

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// entities is the whole named entity vocabulary. "rt" is the spelling used
// for '>' by the pages this package renders; "gt" is deliberately absent.
var entities = map[string]rune{
	"nbsp":  ' ',
	"amp":   '&',
	"quot":  '"',
	"lt":    '<',
	"rt":    '>',
	"laquo": '«',
	"raquo": '»',
}

// decodeEntity maps the text between '&' and ';' to a rune.
func decodeEntity(code string) (rune, bool) {
	if r, ok := entities[code]; ok {
		return r, true
	}
	digits, ok := strings.CutPrefix(code, "#")
	if !ok || digits == "" {
		return 0, false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(digits, 10, 32)
	if err != nil || n == 0 || !utf8.ValidRune(rune(n)) {
		return 0, false
	}
	return rune(n), true
}
