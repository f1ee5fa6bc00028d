package htmltext

import (
	"errors"
	"unicode/utf8"
)

// Errors returned by ValidateInput. Hosts usually Sanitize on ErrInvalidUTF8
// and refuse ErrBinaryInput.
var (
	ErrInvalidUTF8 = errors.New("markup is not valid utf-8")
	ErrBinaryInput = errors.New("markup looks like binary data")
)

// Inputs shorter than sniffLen are only rejected for a NUL byte. Longer ones
// are binary once control bytes make up controlPercent of them.
const (
	sniffLen       = 64
	controlPercent = 2
)

// inputScan is the result of one walk over raw markup.
type inputScan struct {
	invalid  bool
	nul      bool
	controls int
}

// scanInput walks src once. keep, when non-nil, receives every valid
// non-control rune as its original bytes.
func scanInput(src []byte, keep func([]byte)) inputScan {
	var s inputScan
	for i := 0; i < len(src); {
		r, size := utf8.DecodeRune(src[i:])
		switch {
		case r == utf8.RuneError && size == 1:
			s.invalid = true
		case isControl(r):
			s.controls++
			s.nul = s.nul || r == 0
		case keep != nil:
			keep(src[i : i+size])
		}
		i += size
	}
	return s
}

// isControl reports C0 controls and DEL, except the whitespace markup uses.
func isControl(r rune) bool {
	switch r {
	case '\t', '\n', '\r':
		return false
	}
	return r < 0x20 || r == 0x7F
}

// ValidateInput returns an error if markup is not valid UTF-8 or looks like
// binary data. Invalid UTF-8 is reported first.
func ValidateInput(src []byte) error {
	s := scanInput(src, nil)
	switch {
	case s.invalid:
		return ErrInvalidUTF8
	case s.nul:
		return ErrBinaryInput
	case len(src) >= sniffLen && s.controls*100 >= len(src)*controlPercent:
		return ErrBinaryInput
	}
	return nil
}

// Sanitize drops invalid UTF-8 sequences and control characters other than
// tab, CR and LF.
func Sanitize(src []byte) []byte {
	dst := make([]byte, 0, len(src))
	scanInput(src, func(b []byte) { dst = append(dst, b...) })
	return dst
}
