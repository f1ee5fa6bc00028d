package htmltext

import "log/slog"

// DefaultPreformattedSize is the font size used inside <pre>.
const DefaultPreformattedSize = 16.0

// Option configures an Interpreter.
type Option func(*config)

type config struct {
	linkColor  Color
	resources  ResourceResolver
	metrics    Metrics
	monoFace   string
	preSize    float64
	strict     bool
	listBullet string
	logger     *slog.Logger
}

func defaultConfig() config {
	return config{
		linkColor: DefaultLinkColor,
		resources: Resources{},
		monoFace:  DefaultMonospaceFace,
		preSize:   DefaultPreformattedSize,
		logger:    slog.New(slog.DiscardHandler),
	}
}

func (c config) env() tagEnv {
	return tagEnv{
		linkColor:  c.linkColor,
		monoFace:   c.monoFace,
		preSize:    c.preSize,
		strict:     c.strict,
		listBullet: c.listBullet,
	}
}

// WithLinkColor sets the color used for anchor text.
func WithLinkColor(c Color) Option {
	return func(cfg *config) {
		cfg.linkColor = c
	}
}

// WithResources sets the collaborator images are resolved through. The
// default reads files relative to the working directory only.
func WithResources(r ResourceResolver) Option {
	return func(cfg *config) {
		if r != nil {
			cfg.resources = r
		}
	}
}

// WithMetrics sets the line height source used to clear images.
func WithMetrics(m Metrics) Option {
	return func(cfg *config) {
		cfg.metrics = m
	}
}

// WithMonospaceFace sets the face <pre> switches to.
func WithMonospaceFace(face string) Option {
	return func(cfg *config) {
		if face != "" {
			cfg.monoFace = face
		}
	}
}

// WithPreformattedSize sets the font size <pre> switches to.
func WithPreformattedSize(size float64) Option {
	return func(cfg *config) {
		if size > 0 {
			cfg.preSize = size
		}
	}
}

// WithStrictNesting replaces the one-slot save/restore of face, size, color
// and the XOR flag toggling with a stack of frames, so nested and repeated
// tags restore exactly what they changed.
func WithStrictNesting(enabled bool) Option {
	return func(cfg *config) {
		cfg.strict = enabled
	}
}

// WithListBullet makes unordered list items place the named image as their
// marker instead of "  - ".
func WithListBullet(image string) Option {
	return func(cfg *config) {
		cfg.listBullet = image
	}
}

// WithLogger traces ignored tags, unknown entities and missing images at
// debug level.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) {
		if l != nil {
			cfg.logger = l
		}
	}
}
