// Package source fetches raw documents by name from a directory, an HTTP
// static root, or an object store, with optional Redis caching.
package source

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrNotFound is returned when a named document does not exist.
var ErrNotFound = errors.New("document not found")

// Source returns the bytes of a named document. Names are flat file names
// such as "scenarios.json"; implementations map them onto their own
// namespace.
type Source interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// Func adapts a function to the Source interface.
type Func func(ctx context.Context, name string) ([]byte, error)

func (f Func) Fetch(ctx context.Context, name string) ([]byte, error) {
	return f(ctx, name)
}

// cleanName rejects names that would escape the source root.
func cleanName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrNotFound)
	}
	clean := path.Clean("/" + strings.ReplaceAll(name, "\\", "/"))[1:]
	if clean == "" || clean != strings.TrimPrefix(name, "/") {
		return "", fmt.Errorf("%w: %q is not a plain document name", ErrNotFound, name)
	}
	return clean, nil
}
