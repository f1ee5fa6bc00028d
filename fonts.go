package htmltext

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// DPI is the resolution faces are built at. At 72 DPI one point is one pixel.
const DPI = 72

// FontConfig selects TrueType files. Empty paths fall back to the bundled Go
// fonts.
type FontConfig struct {
	RegularPath    string
	BoldPath       string
	ItalicPath     string
	BoldItalicPath string
	MonoPath       string
	// Faces maps a face name used in markup to a TTF path used for every
	// style of that face.
	Faces map[string]string
}

// FontSet holds parsed fonts and caches sized faces.
type FontSet struct {
	Regular    *truetype.Font
	Bold       *truetype.Font
	Italic     *truetype.Font
	BoldItalic *truetype.Font
	Mono       *truetype.Font

	named map[string]*truetype.Font

	mu    sync.Mutex
	faces map[faceKey]font.Face
}

type faceKey struct {
	font *truetype.Font
	size float64
}

func loadFont(path string, fallback []byte) (*truetype.Font, error) {
	data := fallback
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		data = b
	}
	ft, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}
	return ft, nil
}

// LoadFonts returns a FontSet for cfg.
func LoadFonts(cfg FontConfig) (*FontSet, error) {
	fs := &FontSet{named: make(map[string]*truetype.Font), faces: make(map[faceKey]font.Face)}
	var err error
	if fs.Regular, err = loadFont(cfg.RegularPath, goregular.TTF); err != nil {
		return nil, err
	}
	if fs.Bold, err = loadFont(cfg.BoldPath, gobold.TTF); err != nil {
		return nil, err
	}
	if fs.Italic, err = loadFont(cfg.ItalicPath, goitalic.TTF); err != nil {
		return nil, err
	}
	if fs.BoldItalic, err = loadFont(cfg.BoldItalicPath, gobolditalic.TTF); err != nil {
		return nil, err
	}
	if fs.Mono, err = loadFont(cfg.MonoPath, gomono.TTF); err != nil {
		return nil, err
	}
	for name, path := range cfg.Faces {
		ft, err := loadFont(path, nil)
		if err != nil {
			return nil, fmt.Errorf("face %q: %w", name, err)
		}
		fs.named[strings.ToLower(name)] = ft
	}
	return fs, nil
}

var defaultFonts = sync.OnceValues(func() (*FontSet, error) {
	return LoadFonts(FontConfig{})
})

// DefaultFonts returns the shared FontSet built from the bundled Go fonts.
func DefaultFonts() (*FontSet, error) { return defaultFonts() }

func isMonospace(face string) bool {
	f := strings.ToLower(face)
	return f == strings.ToLower(DefaultMonospaceFace) ||
		strings.Contains(f, "mono") || strings.Contains(f, "courier") || strings.Contains(f, "consol")
}

// Pick returns the font for a face name and style. Faces registered in
// FontConfig.Faces win; monospace names map to Mono; everything else is
// served by the regular family.
func (fs *FontSet) Pick(face string, flags Flags) *truetype.Font {
	if ft, ok := fs.named[strings.ToLower(face)]; ok {
		return ft
	}
	if isMonospace(face) {
		return fs.Mono
	}
	switch {
	case flags.Has(Bold | Italic):
		return fs.BoldItalic
	case flags.Has(Bold):
		return fs.Bold
	case flags.Has(Italic):
		return fs.Italic
	}
	return fs.Regular
}

// Face returns a sized face for a face name and style.
func (fs *FontSet) Face(face string, size float64, flags Flags) font.Face {
	ft := fs.Pick(face, flags)
	key := faceKey{font: ft, size: size}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if f, ok := fs.faces[key]; ok {
		return f
	}
	if fs.faces == nil {
		fs.faces = make(map[faceKey]font.Face)
	}
	f := truetype.NewFace(ft, &truetype.Options{Size: size, DPI: DPI, Hinting: font.HintingFull})
	fs.faces[key] = f
	return f
}

// MeasureString returns the advance width of s in pixels.
func (fs *FontSet) MeasureString(face string, size float64, flags Flags, s string) int {
	if s == "" {
		return 0
	}
	f := fs.Face(face, size, flags)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return font.MeasureString(f, s).Ceil()
}
