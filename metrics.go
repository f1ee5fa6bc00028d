package htmltext

import (
	"sync"
)

// LineSpacing is the multiple of a face's ascent plus descent used as the
// distance between baselines.
const LineSpacing = 1.1

// Metrics reports the line height of a face at a size, in pixels.
type Metrics interface {
	LineHeight(face string, size float64) float64
}

// FixedMetrics is a Metrics that returns size times its value.
type FixedMetrics float64

// LineHeight implements Metrics.
func (m FixedMetrics) LineHeight(_ string, size float64) float64 {
	return float64(m) * size
}

// FontMetrics measures line heights from a FontSet.
type FontMetrics struct {
	fonts *FontSet

	mu    sync.Mutex
	cache map[metricsKey]float64
}

type metricsKey struct {
	face string
	size float64
}

// NewFontMetrics returns metrics backed by fonts.
func NewFontMetrics(fonts *FontSet) *FontMetrics {
	return &FontMetrics{fonts: fonts, cache: make(map[metricsKey]float64)}
}

// LineHeight implements Metrics.
func (m *FontMetrics) LineHeight(face string, size float64) float64 {
	key := metricsKey{face: face, size: size}
	m.mu.Lock()
	if h, ok := m.cache[key]; ok {
		m.mu.Unlock()
		return h
	}
	m.mu.Unlock()

	f := m.fonts.Face(face, size, Plain)
	m.fonts.mu.Lock()
	met := f.Metrics()
	m.fonts.mu.Unlock()
	h := float64((met.Ascent + met.Descent).Ceil()) * LineSpacing

	m.mu.Lock()
	m.cache[key] = h
	m.mu.Unlock()
	return h
}

var defaultMetrics = sync.OnceValue(func() Metrics {
	fonts, err := DefaultFonts()
	if err != nil {
		return FixedMetrics(1.2)
	}
	return NewFontMetrics(fonts)
})

// DefaultMetrics returns the shared metrics for the bundled Go fonts.
func DefaultMetrics() Metrics { return defaultMetrics() }
