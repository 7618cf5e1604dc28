// CLAUDE:SUMMARY Single-owner highlight state: clear-then-apply discipline, idempotent clearing, transient ring.
// Package highlight owns the process-wide highlight state. At most one
// highlighted passage exists at any moment: Apply always clears every prior
// mark first, and the marked set lives in exactly one cell owned by the
// Renderer, so the invariant is mechanical rather than conventional.
package highlight

import (
	"log/slog"
	"sync"

	"github.com/hazyhaar/citenav/fragment"
)

// Renderer applies and removes the highlight presentation attribute on
// fragments. It never touches fragment content or lifetime.
type Renderer struct {
	mu     sync.Mutex
	marked []fragment.Fragment
	ringed []fragment.Fragment
	logger *slog.Logger
}

func New(logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{logger: logger}
}

// Apply highlights frags[start:end) plus one neighbor on each side for
// visual continuity, and rings the matched run itself. All prior marks are
// cleared first; overlapping highlights are never additive.
func (r *Renderer) Apply(frags []fragment.Fragment, start, end int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clearLocked()

	lo, hi := start-1, end+1
	if lo < 0 {
		lo = 0
	}
	if hi > len(frags) {
		hi = len(frags)
	}
	for _, f := range frags[lo:hi] {
		f.SetHighlight(true)
		r.marked = append(r.marked, f)
	}
	for _, f := range frags[start:end] {
		f.SetRing(true)
		r.ringed = append(r.ringed, f)
	}
	r.logger.Debug("highlight: applied", "fragments", hi-lo)
}

// ClearAll removes highlight and ring from every marked fragment. Calling it
// with nothing highlighted is a no-op; calling it twice is harmless.
func (r *Renderer) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearLocked()
}

func (r *Renderer) clearLocked() {
	for _, f := range r.marked {
		f.SetHighlight(false)
	}
	r.marked = nil
	for _, f := range r.ringed {
		f.SetRing(false)
	}
	r.ringed = nil
}

// ClearRing removes only the transient ring, leaving the highlight in place.
// Used by the auto-clear timer after navigation.
func (r *Renderer) ClearRing() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.ringed {
		f.SetRing(false)
	}
	r.ringed = nil
}

// Active reports whether any fragment currently carries a highlight.
func (r *Renderer) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.marked) > 0
}
