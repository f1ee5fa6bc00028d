package htmltext

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrNotFound reports a resource that neither lookup could resolve.
var ErrNotFound = errors.New("resource not found")

// ResourceResolver looks up binary resources such as images and pages.
// ResolveResource is tried first; ResolveFile is the filesystem fallback.
type ResourceResolver interface {
	ResolveResource(name string) ([]byte, error)
	ResolveFile(path string) ([]byte, error)
}

// Resources resolves names against an in-memory table, then an fs.FS, and
// files against a working directory.
type Resources struct {
	Named map[string][]byte
	FS    fs.FS
	// Dir is the directory relative file paths are read from. Empty means
	// the process working directory.
	Dir string
}

// ResolveResource returns the bytes registered under name.
func (r Resources) ResolveResource(name string) ([]byte, error) {
	if data, ok := r.Named[name]; ok {
		return data, nil
	}
	if r.FS != nil {
		clean := path.Clean(strings.TrimPrefix(name, "/"))
		if fs.ValidPath(clean) {
			data, err := fs.ReadFile(r.FS, clean)
			if err == nil {
				return data, nil
			}
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("resource %s: %w", name, err)
			}
		}
	}
	return nil, fmt.Errorf("resource %s: %w", name, ErrNotFound)
}

// ResolveFile reads p from the working directory.
func (r Resources) ResolveFile(p string) ([]byte, error) {
	if strings.TrimSpace(p) == "" {
		return nil, fmt.Errorf("file %q: %w", p, ErrNotFound)
	}
	full := filepath.FromSlash(p)
	if !filepath.IsAbs(full) && r.Dir != "" {
		full = filepath.Join(r.Dir, full)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("file %s: %w", p, ErrNotFound)
		}
		return nil, fmt.Errorf("file %s: %w", p, err)
	}
	return data, nil
}

// Resolve tries rr.ResolveResource and then rr.ResolveFile.
func Resolve(rr ResourceResolver, name string) ([]byte, error) {
	if rr == nil {
		return nil, fmt.Errorf("resource %s: %w", name, ErrNotFound)
	}
	data, err := rr.ResolveResource(name)
	if err == nil {
		return data, nil
	}
	data, ferr := rr.ResolveFile(name)
	if ferr == nil {
		return data, nil
	}
	return nil, errors.Join(err, ferr)
}
