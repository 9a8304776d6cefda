// Package browser opens rendered pages and exposes the small element API the
// scrapers need: CSS lookups, text/attribute/markup reads, a scripted click
// and a bounded wait for an element to be torn down.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by Find when no element matches the selector.
var ErrNotFound = errors.New("element not found")

// TimeoutError is returned when WaitStale gives up.
type TimeoutError struct {
	Op      string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: timed out after %v", e.Op, e.Timeout)
}

// Finder looks up elements by CSS selector. Lookups never block waiting for
// an element to appear.
type Finder interface {
	Find(ctx context.Context, selector string) (Element, error)
	FindAll(ctx context.Context, selector string) ([]Element, error)
}

type Element interface {
	Finder
	// Text returns the element's text with whitespace collapsed.
	Text(ctx context.Context) (string, error)
	// Attr returns the named attribute and whether it was present.
	Attr(ctx context.Context, name string) (string, bool, error)
	// InnerHTML returns the element's raw markup content.
	InnerHTML(ctx context.Context) (string, error)
}

// Page is one open browsing session. Close must be called on every path.
type Page interface {
	Finder
	URL() string
	Click(ctx context.Context, el Element) error
	// WaitStale blocks until el is detached from the page, returning a
	// *TimeoutError once timeout elapses.
	WaitStale(ctx context.Context, el Element, timeout time.Duration) error
	Close() error
}

type Opener interface {
	Open(ctx context.Context, url string) (Page, error)
}

// FindIn returns the first element matching selector below f, or ErrNotFound.
// Backends use it to build Find on top of FindAll.
func FindIn(ctx context.Context, f Finder, selector string) (Element, error) {
	els, err := f.FindAll(ctx, selector)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, fmt.Errorf("%q: %w", selector, ErrNotFound)
	}
	return els[0], nil
}

// Exists reports whether at least one element matches selector below f.
func Exists(ctx context.Context, f Finder, selector string) (bool, error) {
	els, err := f.FindAll(ctx, selector)
	if err != nil {
		return false, err
	}
	return len(els) > 0, nil
}
