package main

import (
	"bufio"
	"context"
	"embed"
	"errors"
	"fmt"
	"image/jpeg"
	"image/png"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/arran4/htmltext"
	"github.com/arran4/htmltext/internal/browser"
	"github.com/arran4/htmltext/internal/config"
	"github.com/spf13/pflag"
	"golang.org/x/term"
	"pkt.systems/version"
)

//go:embed pages
var bundled embed.FS

const defaultColumns = 80

func init() {
	version.SetDefaultModule("github.com/arran4/htmltext")
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fatal(err)
	}
}

func fatal(err error) {
	_, _ = os.Stderr.WriteString("htmltext: " + err.Error() + "\n")
	os.Exit(1)
}

type options struct {
	configPath  string
	writeConfig bool
	output      string
	format      string
	theme       string
	width       int
	margin      int
	columns     int
	osc8        string
	fontFace    string
	fontSize    float64
	fontColor   string
	linkColor   string
	markdown    bool
	search      string
	matchCase   bool
	strict      bool
	resources   string
	listBullet  string
	browse      string
	verbose     bool
	showVersion bool
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var o options
	flags := pflag.NewFlagSet("htmltext", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVar(&o.configPath, "config", "", "Config file (default: user config dir/htmltext/config.yaml)")
	flags.BoolVar(&o.writeConfig, "write-config", false, "Write the effective configuration to the config file and exit")
	flags.StringVarP(&o.output, "output", "o", "", "Output file; .png and .jpg render an image")
	flags.StringVarP(&o.format, "format", "f", "", "Output format: png|jpg|ansi|text|links")
	flags.StringVarP(&o.theme, "theme", "t", "", "Theme: "+strings.Join(htmltext.AvailableThemes(), "|"))
	flags.IntVarP(&o.width, "width", "w", 0, "Image width in pixels")
	flags.IntVar(&o.margin, "margin", 0, "Image margin in pixels")
	flags.IntVar(&o.columns, "columns", 0, "Terminal width for ansi/text output (0 detects)")
	flags.StringVar(&o.osc8, "osc8", "", "OSC8 hyperlinks: auto|on|off")
	flags.StringVar(&o.fontFace, "font-face", "", "Normal font face")
	flags.Float64Var(&o.fontSize, "font-size", 0, "Normal font size in points")
	flags.StringVar(&o.fontColor, "font-color", "", "Normal text color (#RRGGBB or name)")
	flags.StringVar(&o.linkColor, "link-color", "", "Link color (#RRGGBB or name)")
	flags.BoolVar(&o.markdown, "markdown", false, "Treat input as Markdown (implied by .md inputs)")
	flags.StringVarP(&o.search, "search", "s", "", "Highlight occurrences of text")
	flags.BoolVar(&o.matchCase, "match-case", false, "Case-sensitive search")
	flags.BoolVar(&o.strict, "strict-nesting", false, "Restore styles with a stack instead of one saved value")
	flags.StringVar(&o.resources, "resources", "", "Directory images and pages are read from")
	flags.StringVar(&o.listBullet, "list-bullet", "", "Image used as the unordered list marker")
	flags.StringVar(&o.browse, "browse", "", "Browse pages interactively starting at PAGE (bundled: page1.htm)")
	flags.BoolVar(&o.verbose, "verbose", false, "Debug logging on stderr")
	flags.BoolVar(&o.showVersion, "version", false, "Print version and exit")
	flags.SetInterspersed(true)
	flags.Usage = func() {
		fmt.Fprintln(stderr, version.Module(), version.Current())
		fmt.Fprintf(stderr, "Usage: htmltext [flags] [inputs...]\n")
		fmt.Fprintln(stderr, "\nInputs are files, http(s):// or file:// URLs. If none is given, markup is read from stdin.")
		fmt.Fprintln(stderr, "\nFlags:")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return err
	}
	if o.showVersion {
		fmt.Fprintln(stdout, version.Module(), version.Current())
		return nil
	}

	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	cfgPath := o.configPath
	if cfgPath == "" {
		p, err := config.DefaultPath()
		if err != nil && o.writeConfig {
			return err
		}
		cfgPath = p
	}
	cfg := config.Default()
	if cfgPath != "" {
		var err error
		if cfg, err = config.Load(cfgPath); err != nil {
			return err
		}
	}
	mergeFlags(cfg, flags, &o)
	if o.writeConfig {
		if err := config.Save(cfgPath, cfg); err != nil {
			return err
		}
		logger.Info("config written", "path", cfgPath)
		return nil
	}

	sess, err := newSession(cfg, logger)
	if err != nil {
		return err
	}

	if o.browse != "" {
		pages, err := fs.Sub(bundled, "pages")
		if err != nil {
			return err
		}
		sess.resources.FS = pages
		topts := htmltext.TerminalOptions{Width: sess.columns(stdout), Color: isTerminal(stdout)}
		return browse(sess.browser(stdout), o.browse, stdin, stdout, topts)
	}

	data, baseDir, err := readInputs(flags.Args(), stdin)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	if sess.resources.Dir == "" {
		sess.resources.Dir = baseDir
	}
	if err := htmltext.ValidateInput(data); err != nil {
		if !errors.Is(err, htmltext.ErrInvalidUTF8) {
			return err
		}
		logger.Warn("input is not valid UTF-8; dropping invalid bytes")
		data = htmltext.Sanitize(data)
	}
	if o.markdown || allMarkdown(flags.Args()) {
		if data, err = htmltext.MarkdownToHTML(data); err != nil {
			return err
		}
	}

	doc := sess.interpreter().Interpret(string(data), sess.state)
	var highlights []htmltext.Range
	if o.search != "" {
		highlights = doc.Search(o.search, !o.matchCase)
		logger.Debug("search", "query", o.search, "matches", len(highlights))
	}

	format, err := resolveFormat(o.format, o.output, stdout)
	if err != nil {
		return err
	}
	w, closeOut, err := resolveOutput(o.output, stdout)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	if closeOut != nil {
		defer func() { _ = closeOut.Close() }()
	}

	switch format {
	case "png", "jpg":
		img, err := htmltext.Render(doc, htmltext.RenderOptions{
			Width:      cfg.Width,
			Margin:     cfg.Margin,
			Theme:      sess.theme,
			Fonts:      sess.fonts,
			Metrics:    sess.metrics,
			Resources:  sess.resources,
			Highlights: highlights,
			ListIndent: int(cfg.Font.Size),
		})
		if err != nil {
			return err
		}
		if format == "png" {
			return png.Encode(w, img)
		}
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 92})
	case "ansi":
		return htmltext.RenderTerminal(w, doc, htmltext.TerminalOptions{
			Width:      sess.columns(w),
			Color:      true,
			Hyperlinks: resolveOSC8(cfg.OSC8),
			Highlights: highlights,
		})
	case "links":
		return writeLinks(w, doc, sess.columns(w))
	default:
		_, err := io.WriteString(w, htmltext.RenderText(doc, cfg.Columns))
		return err
	}
}

// mergeFlags overrides cfg with the flags given on the command line.
func mergeFlags(cfg *config.Config, flags *pflag.FlagSet, o *options) {
	set := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}
	set("theme", func() { cfg.Theme = o.theme })
	set("width", func() { cfg.Width = o.width })
	set("margin", func() { cfg.Margin = o.margin })
	set("columns", func() { cfg.Columns = o.columns })
	set("osc8", func() { cfg.OSC8 = o.osc8 })
	set("font-face", func() { cfg.Font.Face = o.fontFace })
	set("font-size", func() { cfg.Font.Size = o.fontSize })
	set("font-color", func() { cfg.Font.Color = o.fontColor })
	set("link-color", func() { cfg.Font.LinkColor = o.linkColor })
	set("strict-nesting", func() { cfg.StrictNesting = o.strict })
	set("resources", func() { cfg.Resources = o.resources })
	set("list-bullet", func() { cfg.ListBullet = o.listBullet })
}

// session is everything built from the configuration.
type session struct {
	cfg       *config.Config
	logger    *slog.Logger
	theme     htmltext.Theme
	state     htmltext.StyleState
	linkColor htmltext.Color
	fonts     *htmltext.FontSet
	metrics   htmltext.Metrics
	resources htmltext.Resources
}

func newSession(cfg *config.Config, logger *slog.Logger) (*session, error) {
	th, err := htmltext.ThemeByName(cfg.Theme)
	if err != nil {
		return nil, err
	}
	fonts, err := htmltext.LoadFonts(htmltext.FontConfig{
		RegularPath:    cfg.Font.Regular,
		BoldPath:       cfg.Font.Bold,
		ItalicPath:     cfg.Font.Italic,
		BoldItalicPath: cfg.Font.BoldItalic,
		MonoPath:       cfg.Font.Mono,
		Faces:          cfg.Font.Faces,
	})
	if err != nil {
		return nil, err
	}
	e := &session{
		cfg:       cfg,
		logger:    logger,
		theme:     th,
		state:     th.StyleState(cfg.Font.Face, cfg.Font.Size),
		linkColor: th.Link,
		fonts:     fonts,
		metrics:   htmltext.NewFontMetrics(fonts),
		resources: htmltext.Resources{Dir: cfg.Resources},
	}
	if cfg.Font.Color != "" {
		c, ok := htmltext.ParseColor(cfg.Font.Color)
		if !ok {
			return nil, fmt.Errorf("invalid font color %q", cfg.Font.Color)
		}
		e.state.SetNormalColor(c)
	}
	if cfg.Font.LinkColor != "" {
		c, ok := htmltext.ParseColor(cfg.Font.LinkColor)
		if !ok {
			return nil, fmt.Errorf("invalid link color %q", cfg.Font.LinkColor)
		}
		e.linkColor = c
	}
	return e, nil
}

func (e *session) interpreter() *htmltext.Interpreter {
	return htmltext.New(
		htmltext.WithLinkColor(e.linkColor),
		htmltext.WithResources(e.resources),
		htmltext.WithMetrics(e.metrics),
		htmltext.WithMonospaceFace(e.cfg.Font.Monospace),
		htmltext.WithPreformattedSize(e.cfg.Font.PreformattedSize),
		htmltext.WithStrictNesting(e.cfg.StrictNesting),
		htmltext.WithListBullet(e.cfg.ListBullet),
		htmltext.WithLogger(e.logger),
	)
}

func (e *session) browser(out io.Writer) *browser.Browser {
	return browser.New(browser.Config{
		Interpreter: e.interpreter(),
		Resources:   e.resources,
		State:       e.state,
		External: func(u string) error {
			_, err := fmt.Fprintf(out, "external link, open it in your web browser: %s\n", u)
			return err
		},
		Alert: func(title, msg string) error {
			_, err := fmt.Fprintf(out, "** %s %s\n", title, msg)
			return err
		},
		Logger: e.logger,
	})
}

func (e *session) columns(w io.Writer) int {
	if e.cfg.Columns > 0 {
		return e.cfg.Columns
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if cols, _, err := term.GetSize(int(f.Fd())); err == nil && cols > 0 {
			return cols
		}
	}
	if value := os.Getenv("COLUMNS"); value != "" {
		if cols, err := strconv.Atoi(value); err == nil && cols > 0 {
			return cols
		}
	}
	return defaultColumns
}

func resolveOSC8(mode string) bool {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "on", "true", "1", "yes":
		return true
	case "off", "false", "0", "no":
		return false
	}
	return htmltext.DetectOSC8Support()
}

func resolveFormat(format, output string, stdout io.Writer) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "png", "ansi", "text", "links":
		return f, nil
	case "jpg", "jpeg":
		return "jpg", nil
	case "":
	default:
		return "", fmt.Errorf("unsupported format %q", format)
	}
	switch strings.ToLower(filepath.Ext(output)) {
	case ".png":
		return "png", nil
	case ".jpg", ".jpeg":
		return "jpg", nil
	}
	if output == "" && isTerminal(stdout) {
		return "ansi", nil
	}
	return "text", nil
}

func writeLinks(w io.Writer, doc *htmltext.Document, cols int) error {
	for i, l := range doc.Links() {
		text := strings.TrimSpace(doc.TextRange(l.Range()))
		prefix := fmt.Sprintf("%d. %s -> ", i+1, text)
		limit := max(cols-len([]rune(prefix)), 16)
		if _, err := fmt.Fprintf(w, "%s%s\n", prefix, htmltext.FitURL(l.URL, limit)); err != nil {
			return err
		}
	}
	return nil
}

func browse(b *browser.Browser, page string, in io.Reader, out io.Writer, topts htmltext.TerminalOptions) error {
	if err := b.Load(page); err != nil {
		return err
	}
	sc := bufio.NewScanner(in)
	show := true
	for {
		if show {
			if err := showPage(b, out, topts); err != nil {
				return err
			}
		}
		show = false
		fmt.Fprint(out, "\n[number] follow link, b back, r reload, q quit> ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		cmd := strings.TrimSpace(sc.Text())
		switch cmd {
		case "":
		case "q", "quit":
			return nil
		case "r", "reload":
			show = true
		case "b", "back":
			if err := b.Back(); err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			show = true
		default:
			links := b.Document().Links()
			n, err := strconv.Atoi(cmd)
			if err != nil || n < 1 || n > len(links) {
				fmt.Fprintf(out, "unknown command %q\n", cmd)
				continue
			}
			if err := b.Follow(links[n-1].URL); err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			show = browser.Classify(links[n-1].URL) == browser.Internal
		}
	}
}

func showPage(b *browser.Browser, out io.Writer, topts htmltext.TerminalOptions) error {
	doc := b.Document()
	fmt.Fprintf(out, "== %s ==\n", b.Current())
	if err := htmltext.RenderTerminal(out, doc, topts); err != nil {
		return err
	}
	fmt.Fprintln(out)
	if len(doc.Links()) > 0 {
		fmt.Fprintln(out)
		return writeLinks(out, doc, max(topts.Width, defaultColumns))
	}
	return nil
}

func allMarkdown(args []string) bool {
	if len(args) == 0 {
		return false
	}
	for _, a := range args {
		switch strings.ToLower(filepath.Ext(a)) {
		case ".md", ".markdown":
		default:
			return false
		}
	}
	return true
}

// ---- Inputs and outputs ----

type inputSource struct {
	dir  string
	open func() (io.ReadCloser, error)
}

// readInputs concatenates the inputs, or stdin when there are none. The
// directory of the first local file is returned for resolving images.
func readInputs(args []string, stdin io.Reader) ([]byte, string, error) {
	if len(args) == 0 {
		data, err := io.ReadAll(stdin)
		return data, "", err
	}
	var out []byte
	dir := ""
	for i, raw := range args {
		src, err := makeInputSource(raw)
		if err != nil {
			return nil, "", err
		}
		if i == 0 {
			dir = src.dir
		}
		rc, err := src.open()
		if err != nil {
			return nil, "", err
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, "", err
		}
		out = append(out, data...)
	}
	return out, dir, nil
}

func makeInputSource(raw string) (inputSource, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return inputSource{}, fmt.Errorf("empty input argument")
	}
	u, err := url.Parse(raw)
	if err == nil && u.Scheme != "" {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return inputSource{open: func() (io.ReadCloser, error) {
				return openURL(raw)
			}}, nil
		case "file":
			path := u.Path
			if path == "" {
				path = u.Host
			}
			if unescaped, err := url.PathUnescape(path); err == nil {
				path = unescaped
			}
			return fileSource(path), nil
		}
	}
	return fileSource(raw), nil
}

func fileSource(path string) inputSource {
	clean := normalizePath(path)
	return inputSource{dir: filepath.Dir(clean), open: func() (io.ReadCloser, error) {
		return os.Open(clean)
	}}
}

func openURL(raw string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, raw, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("http %s: %s", raw, resp.Status)
	}
	return resp.Body, nil
}

func resolveOutput(path string, stdout io.Writer) (io.Writer, io.Closer, error) {
	if strings.TrimSpace(path) == "" {
		return stdout, nil, nil
	}
	clean := normalizePath(path)
	if dir := filepath.Dir(clean); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, err
		}
	}
	f, err := os.Create(clean)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

func normalizePath(path string) string {
	if strings.HasPrefix(path, "~/") || path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			if path == "~" {
				path = home
			} else {
				path = filepath.Join(home, path[2:])
			}
		}
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
