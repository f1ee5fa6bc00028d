// Package browser navigates between markup pages: it loads pages through a
// resource resolver, keeps a back history and routes link clicks.
package browser

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/arran4/htmltext"
)

var (
	// ErrEmptyPage reports a page that resolved to no content.
	ErrEmptyPage = errors.New("empty page")
	// ErrNoHistory reports Back on the first page.
	ErrNoHistory = errors.New("no previous page")
)

// AlertTitle is the title alert links are shown with.
const AlertTitle = "You got a message!"

const alertPrefix = "#alert="

// Kind is how a link target is dispatched.
type Kind int

const (
	// Internal targets are page names loaded into the browser.
	Internal Kind = iota
	// External targets start with "http" and are handed to the host.
	External
	// Alert targets start with "#alert=" and carry a message.
	Alert
)

func (k Kind) String() string {
	switch k {
	case External:
		return "external"
	case Alert:
		return "alert"
	}
	return "internal"
}

// Classify returns how url is dispatched.
func Classify(url string) Kind {
	switch {
	case hasPrefixFold(url, "http"):
		return External
	case hasPrefixFold(url, alertPrefix):
		return Alert
	}
	return Internal
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// Config wires a Browser to its collaborators.
type Config struct {
	Interpreter *htmltext.Interpreter
	Resources   htmltext.ResourceResolver
	// State is the style every page starts from.
	State htmltext.StyleState
	// External opens a link outside the browser.
	External func(url string) error
	// Alert shows a message from an "#alert=" link.
	Alert  func(title, message string) error
	Logger *slog.Logger
}

// Browser shows one page at a time.
type Browser struct {
	cfg     Config
	history []string
	doc     *htmltext.Document
}

// New returns a Browser with no page loaded.
func New(cfg Config) *Browser {
	if cfg.Interpreter == nil {
		cfg.Interpreter = htmltext.New(htmltext.WithResources(cfg.Resources))
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Browser{cfg: cfg}
}

// Load shows page and records it in the history.
func (b *Browser) Load(page string) error {
	if err := b.show(page); err != nil {
		return err
	}
	b.history = append(b.history, page)
	return nil
}

func (b *Browser) show(page string) error {
	data, err := htmltext.Resolve(b.cfg.Resources, page)
	if err != nil {
		return fmt.Errorf("load %s: %w", page, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("load %s: %w", page, ErrEmptyPage)
	}
	if err := htmltext.ValidateInput(data); err != nil {
		return fmt.Errorf("load %s: %w", page, err)
	}
	b.doc = b.cfg.Interpreter.Interpret(string(data), b.cfg.State)
	b.cfg.Logger.Debug("page loaded", "page", page, "chars", b.doc.Chars, "links", len(b.doc.Links()))
	return nil
}

// Back returns to the previous page.
func (b *Browser) Back() error {
	if !b.CanGoBack() {
		return ErrNoHistory
	}
	prev := b.history[len(b.history)-2]
	if err := b.show(prev); err != nil {
		return err
	}
	b.history = b.history[:len(b.history)-1]
	return nil
}

// CanGoBack reports whether there is a page to go back to.
func (b *Browser) CanGoBack() bool { return len(b.history) > 1 }

// History returns the visited pages, oldest first.
func (b *Browser) History() []string { return append([]string(nil), b.history...) }

// Current returns the page being shown, or "".
func (b *Browser) Current() string {
	if len(b.history) == 0 {
		return ""
	}
	return b.history[len(b.history)-1]
}

// Document returns the current page's document, or nil.
func (b *Browser) Document() *htmltext.Document { return b.doc }

// Click follows the link at character i. It reports false when no link
// covers i.
func (b *Browser) Click(i int) (bool, error) {
	if b.doc == nil {
		return false, nil
	}
	link, ok := b.doc.FindLinkAt(i)
	if !ok {
		return false, nil
	}
	return true, b.Follow(link.URL)
}

// Follow dispatches url by its Kind.
func (b *Browser) Follow(url string) error {
	kind := Classify(url)
	b.cfg.Logger.Debug("follow link", "url", url, "kind", kind)
	switch kind {
	case External:
		if b.cfg.External == nil {
			return fmt.Errorf("follow %s: no external handler", url)
		}
		return b.cfg.External(url)
	case Alert:
		if b.cfg.Alert == nil {
			return fmt.Errorf("follow %s: no alert handler", url)
		}
		return b.cfg.Alert(AlertTitle, url[len(alertPrefix):])
	}
	return b.Load(url)
}
