// CLAUDE:SUMMARY Contracts between the citation core and the rendering collaborator: Fragment handle and page Provider.
// Package fragment defines the boundary between the citation-navigation core
// and the rendering collaborator that paints pages.
//
// A Fragment is an opaque, non-owning handle to one renderable unit of text.
// The provider owns the fragment's lifetime; the core only reads its text and
// toggles presentation attributes (highlight, ring). The core never mutates a
// fragment's content or structure.
package fragment

import (
	"context"
	"errors"
)

// ErrPageNotRendered reports that a page's render tree does not exist yet.
// Callers treat it as a no-op condition, never as a failure.
var ErrPageNotRendered = errors.New("fragment: page not rendered")

// Fragment is one renderable unit of text on a page.
type Fragment interface {
	// Text returns the fragment's raw text as rendered. May be empty while
	// the rendering collaborator is still populating text content.
	Text() string

	// SetHighlight toggles the persistent highlight presentation attribute.
	SetHighlight(on bool)

	// SetRing toggles the transient ring presentation attribute used to draw
	// the eye right after navigation.
	SetRing(on bool)
}

// Provider is the rendering collaborator seen from the core. Implementations
// live in docsource (static PDF/HTML sources) and rodview (headless Chrome).
type Provider interface {
	// PageCount returns the number of pages in the hosted document.
	PageCount() int

	// PageRendered reports whether the page's render tree exists, i.e.
	// whether Fragments can be read at all.
	PageRendered(page int) bool

	// Fragments returns the ordered fragment sequence of a page. Returns
	// ErrPageNotRendered when the page has no render tree yet. Fragments may
	// carry empty text when extraction runs before the collaborator has
	// populated text content; that is not an error.
	Fragments(ctx context.Context, page int) ([]Fragment, error)

	// ScrollTo brings the page into view, centered.
	ScrollTo(ctx context.Context, page int) error
}
