package htmltext

// Flags is the bold/italic/underline style bitset.
type Flags uint8

// Style flags. The values match the usual font style bit layout.
const (
	Plain Flags = 0
	Bold  Flags = 1 << (iota - 1)
	Italic
	Underline
)

// Has reports whether all bits in x are set.
func (f Flags) Has(x Flags) bool { return f&x == x }

// Defaults used by DefaultStyleState: light text on a dark text box.
const (
	DefaultFace          = "Verdana"
	DefaultSize          = 18.0
	DefaultMonospaceFace = "Go Mono"
	DefaultColor         = White
	DefaultLinkColor     = Yellow
)

// ListContext tracks the list the interpreter is currently inside.
type ListContext struct {
	Ordered     bool
	Counter     int
	// Open is set by <ul> and <ol>; IndentStart is only meaningful while it
	// holds. The zero value means no list.
	Open        bool
	IndentStart int
}

// StyleState is the formatting context during a parse.
//
// The Prev* fields are one-slot saves restored when a tag closes. They are
// not a stack: nested tags touching the same attribute restore the most recent
// save only. WithStrictNesting switches to a real stack of frames.
type StyleState struct {
	Face  string
	Size  float64
	Color Color
	Flags Flags

	PrevFace  string
	PrevSize  float64
	PrevColor Color

	List          ListContext
	Preformatted  bool
	InsideComment bool

	frames []styleFrame
}

type styleFrame struct {
	tag   string
	face  string
	size  float64
	color Color
	flags Flags
}

// NewStyleState returns a state with the given normal face, size and color.
func NewStyleState(face string, size float64, color Color) StyleState {
	return StyleState{
		Face:      face,
		Size:      size,
		Color:     color,
		PrevFace:  face,
		PrevSize:  size,
		PrevColor: color,
	}
}

// DefaultStyleState returns the state a freshly reset text box starts with.
func DefaultStyleState() StyleState {
	return NewStyleState(DefaultFace, DefaultSize, DefaultColor)
}

// SetNormalFace sets the face and its saved value.
func (s *StyleState) SetNormalFace(face string) {
	s.Face, s.PrevFace = face, face
}

// SetNormalSize sets the size and its saved value.
func (s *StyleState) SetNormalSize(size float64) {
	s.Size, s.PrevSize = size, size
}

// SetNormalColor sets the color and its saved value.
func (s *StyleState) SetNormalColor(c Color) {
	s.Color, s.PrevColor = c, c
}

// Depth returns the number of open strict-nesting frames.
func (s StyleState) Depth() int { return len(s.frames) }

func (s *StyleState) saveFace()  { s.PrevFace = s.Face }
func (s *StyleState) saveSize()  { s.PrevSize = s.Size }
func (s *StyleState) saveColor() { s.PrevColor = s.Color }

func (s *StyleState) restoreFace()  { s.Face = s.PrevFace }
func (s *StyleState) restoreSize()  { s.Size = s.PrevSize }
func (s *StyleState) restoreColor() { s.Color = s.PrevColor }

func (s *StyleState) restoreAll() {
	s.restoreFace()
	s.restoreSize()
	s.restoreColor()
}

// push records the current style for tag. The frames slice is copied first
// so states returned from earlier tag applications stay untouched.
func (s *StyleState) push(tag string) {
	frames := make([]styleFrame, len(s.frames), len(s.frames)+1)
	copy(frames, s.frames)
	s.frames = append(frames, styleFrame{
		tag:   tag,
		face:  s.Face,
		size:  s.Size,
		color: s.Color,
		flags: s.Flags,
	})
}

// pop restores the style saved by the most recent frame opened by tag and
// drops every frame above it. Unmatched closes leave the state alone.
func (s *StyleState) pop(tag string) bool {
	for i := len(s.frames) - 1; i >= 0; i-- {
		f := s.frames[i]
		if f.tag != tag {
			continue
		}
		s.Face, s.Size, s.Color, s.Flags = f.face, f.size, f.color, f.flags
		s.frames = s.frames[:i:i]
		return true
	}
	return false
}

func (s StyleState) run(text string, start, n int) TextRun {
	return TextRun{
		Text:  text,
		Start: start,
		Len:   n,
		Face:  s.Face,
		Size:  s.Size,
		Color: s.Color,
		Flags: s.Flags,
	}
}
