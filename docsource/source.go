// CLAUDE:SUMMARY Static in-memory rendering collaborator backed by pre-extracted document pages.
// Package docsource provides rendering collaborators that need no browser:
// documents are parsed once (PDF via pdfcpu, HTML via x/net/html) into static
// pages whose fragments carry observable presentation state. The host reads
// that state back to draw its own view; for chat hosts each page also has a
// markdown rendition.
package docsource

import (
	"context"
	"strings"
	"sync"

	"github.com/hazyhaar/citenav/fragment"
)

// Fragment is one text block of a static page. Presentation state is
// observable so a non-browser host can draw highlights itself.
type Fragment struct {
	mu          sync.Mutex
	text        string
	highlighted bool
	ringed      bool
}

func (f *Fragment) Text() string {
	return f.text
}

func (f *Fragment) SetHighlight(on bool) {
	f.mu.Lock()
	f.highlighted = on
	f.mu.Unlock()
}

func (f *Fragment) SetRing(on bool) {
	f.mu.Lock()
	f.ringed = on
	f.mu.Unlock()
}

func (f *Fragment) Highlighted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.highlighted
}

func (f *Fragment) Ringed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ringed
}

// Source is a static provider: every page is rendered from the moment the
// document is loaded, and scrolling only moves the current-page marker.
type Source struct {
	title    string
	pages    [][]*Fragment
	markdown []string

	mu      sync.Mutex
	current int
}

func newSource(title string, pageBlocks [][]string, markdown []string) *Source {
	pages := make([][]*Fragment, len(pageBlocks))
	for i, blocks := range pageBlocks {
		frags := make([]*Fragment, len(blocks))
		for j, b := range blocks {
			frags[j] = &Fragment{text: b}
		}
		pages[i] = frags
	}
	return &Source{title: title, pages: pages, markdown: markdown, current: 1}
}

// Title is the document title: <title> for HTML, first text line for PDF.
func (s *Source) Title() string { return s.title }

func (s *Source) PageCount() int { return len(s.pages) }

func (s *Source) PageRendered(page int) bool {
	return page >= 1 && page <= len(s.pages)
}

func (s *Source) Fragments(ctx context.Context, page int) ([]fragment.Fragment, error) {
	if !s.PageRendered(page) {
		return nil, fragment.ErrPageNotRendered
	}
	frags := s.pages[page-1]
	out := make([]fragment.Fragment, len(frags))
	for i, f := range frags {
		out[i] = f
	}
	return out, nil
}

func (s *Source) ScrollTo(ctx context.Context, page int) error {
	if !s.PageRendered(page) {
		return fragment.ErrPageNotRendered
	}
	s.mu.Lock()
	s.current = page
	s.mu.Unlock()
	return nil
}

// CurrentPage is the page the last ScrollTo landed on.
func (s *Source) CurrentPage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Markdown returns the page's markdown rendition, empty if the page is out of
// range or the loader produced none (PDF pages fall back to plain text).
func (s *Source) Markdown(page int) string {
	if page < 1 || page > len(s.markdown) {
		return ""
	}
	return s.markdown[page-1]
}

// Page returns the page's concrete fragments so hosts can read presentation
// state back.
func (s *Source) Page(page int) []*Fragment {
	if !s.PageRendered(page) {
		return nil
	}
	return s.pages[page-1]
}

// collapseSpace folds all whitespace runs to single spaces and trims.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
