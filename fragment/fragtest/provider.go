// CLAUDE:SUMMARY Scripted in-memory Provider for tests: late text population, render gating, scroll recording.
// Package fragtest provides an in-memory fragment.Provider whose behaviour is
// scripted by tests: pages can be marked unrendered, text population can be
// delayed to exercise extraction retries, and scrolls are recorded.
package fragtest

import (
	"context"
	"sync"

	"github.com/hazyhaar/citenav/fragment"
)

// Fragment is a test fragment with observable presentation state.
type Fragment struct {
	mu          sync.Mutex
	text        string
	Highlighted bool
	Ringed      bool
}

func (f *Fragment) Text() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.text
}

func (f *Fragment) SetText(s string) {
	f.mu.Lock()
	f.text = s
	f.mu.Unlock()
}

func (f *Fragment) SetHighlight(on bool) {
	f.mu.Lock()
	f.Highlighted = on
	f.mu.Unlock()
}

func (f *Fragment) SetRing(on bool) {
	f.mu.Lock()
	f.Ringed = on
	f.mu.Unlock()
}

// IsHighlighted reports the highlight attribute under lock.
func (f *Fragment) IsHighlighted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Highlighted
}

// IsRinged reports the ring attribute under lock.
func (f *Fragment) IsRinged() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Ringed
}

// Provider is a scripted rendering collaborator.
type Provider struct {
	mu         sync.Mutex
	pages      map[int][]*Fragment
	unrendered map[int]bool
	emptyReads map[int]int // Fragments() returns blank handles this many times
	scrolls    []int
}

func New() *Provider {
	return &Provider{
		pages:      make(map[int][]*Fragment),
		unrendered: make(map[int]bool),
		emptyReads: make(map[int]int),
	}
}

// SetPage installs a page with one fragment per text.
func (p *Provider) SetPage(page int, texts ...string) {
	frags := make([]*Fragment, len(texts))
	for i, t := range texts {
		frags[i] = &Fragment{text: t}
	}
	p.mu.Lock()
	p.pages[page] = frags
	p.mu.Unlock()
}

// SetUnrendered marks a page as having no render tree.
func (p *Provider) SetUnrendered(page int, v bool) {
	p.mu.Lock()
	p.unrendered[page] = v
	p.mu.Unlock()
}

// DelayText makes the next n Fragments() calls on the page return handles
// with empty text, simulating a collaborator that renders before populating
// text content.
func (p *Provider) DelayText(page, n int) {
	p.mu.Lock()
	p.emptyReads[page] = n
	p.mu.Unlock()
}

func (p *Provider) PageCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	max := 0
	for page := range p.pages {
		if page > max {
			max = page
		}
	}
	return max
}

func (p *Provider) PageRendered(page int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.pages[page]
	return ok && !p.unrendered[page]
}

func (p *Provider) Fragments(ctx context.Context, page int) ([]fragment.Fragment, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	frags, ok := p.pages[page]
	if !ok || p.unrendered[page] {
		return nil, fragment.ErrPageNotRendered
	}

	if p.emptyReads[page] > 0 {
		p.emptyReads[page]--
		blank := make([]fragment.Fragment, len(frags))
		for i := range frags {
			blank[i] = &Fragment{}
		}
		return blank, nil
	}

	out := make([]fragment.Fragment, len(frags))
	for i, f := range frags {
		out[i] = f
	}
	return out, nil
}

func (p *Provider) ScrollTo(ctx context.Context, page int) error {
	p.mu.Lock()
	p.scrolls = append(p.scrolls, page)
	p.mu.Unlock()
	return nil
}

// Scrolls returns the recorded scroll targets in order.
func (p *Provider) Scrolls() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.scrolls...)
}

// Page returns the concrete fragments of a page for assertions.
func (p *Provider) Page(page int) []*Fragment {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Fragment(nil), p.pages[page]...)
}

// HighlightedIndexes returns the indexes of highlighted fragments on a page.
func (p *Provider) HighlightedIndexes(page int) []int {
	var out []int
	for i, f := range p.Page(page) {
		if f.IsHighlighted() {
			out = append(out, i)
		}
	}
	return out
}

// AnyHighlight reports whether any fragment on any page is highlighted.
func (p *Provider) AnyHighlight() bool {
	p.mu.Lock()
	pages := make([][]*Fragment, 0, len(p.pages))
	for _, frags := range p.pages {
		pages = append(pages, frags)
	}
	p.mu.Unlock()

	for _, frags := range pages {
		for _, f := range frags {
			if f.IsHighlighted() {
				return true
			}
		}
	}
	return false
}
