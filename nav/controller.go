// CLAUDE:SUMMARY Citation click orchestrator: ascending page traversal, first-found match, scroll + highlight + ring, cancellation generations.
// Package nav orchestrates a citation click end to end: traverse candidate
// pages in ascending order, extract and match each, and on the first hit
// scroll, highlight and flash a transient ring. Page hints are advisory —
// upstream hints are known to be wrong often enough that traversal never
// trusts them for ordering.
//
// A JumpTo issued while a previous one is mid-traversal cancels the prior
// call: every timer and in-flight retry carries the originating call's
// generation, so a superseded search can never mutate highlight state after
// a newer one has started.
package nav

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hazyhaar/citenav/fragment"
	"github.com/hazyhaar/citenav/highlight"
	"github.com/hazyhaar/citenav/match"
	"github.com/hazyhaar/citenav/pagetext"
)

// Citation is one citation-chip click from the host. Immutable once issued.
// Page is an advisory hint (0 = none); SearchPages, when present, restricts
// the candidate set but never reorders traversal.
type Citation struct {
	Quote       string `json:"quote,omitempty"`
	Page        int    `json:"page,omitempty"`
	SearchPages []int  `json:"search_pages,omitempty"`
}

// Status is the terminal state of one JumpTo call.
type Status string

const (
	// StatusFound: a page matched; highlight applied, page scrolled into view.
	StatusFound Status = "found"
	// StatusNotFound: full traversal exhausted; scrolled to page 1, no
	// highlight. Non-fatal by design.
	StatusNotFound Status = "not_found"
	// StatusNavigationOnly: no quote supplied; scrolled without searching.
	StatusNavigationOnly Status = "navigation_only"
	// StatusCanceled: a newer JumpTo superseded this one mid-traversal.
	StatusCanceled Status = "canceled"
)

// Outcome reports how a JumpTo call resolved.
type Outcome struct {
	Status   Status         `json:"status"`
	Page     int            `json:"page,omitempty"`
	Strategy match.Strategy `json:"strategy,omitempty"`
}

// Config holds the controller's timing knobs.
type Config struct {
	// SettleDelay is the pause between scrolling a page into view and
	// applying the highlight, letting scroll-driven layout settle.
	// Default: 150ms.
	SettleDelay time.Duration
	// RingDuration is how long the transient ring stays visible.
	// Default: 2500ms.
	RingDuration time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.SettleDelay <= 0 {
		c.SettleDelay = 150 * time.Millisecond
	}
	if c.RingDuration <= 0 {
		c.RingDuration = 2500 * time.Millisecond
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Controller drives citation navigation over one hosted document.
type Controller struct {
	provider  fragment.Provider
	extractor *pagetext.Extractor
	hl        *highlight.Renderer
	cfg       Config

	mu         sync.Mutex
	gen        uint64
	cancelPrev context.CancelFunc
}

func New(p fragment.Provider, e *pagetext.Extractor, hl *highlight.Renderer, cfg Config) *Controller {
	cfg.defaults()
	return &Controller{provider: p, extractor: e, hl: hl, cfg: cfg}
}

// JumpTo resolves one citation click. It is safe to call concurrently; a new
// call supersedes any call still traversing.
func (c *Controller) JumpTo(ctx context.Context, cit Citation) Outcome {
	ctx, gen := c.begin(ctx)

	if strings.TrimSpace(cit.Quote) == "" {
		page := cit.Page
		if page < 1 {
			page = 1
		}
		if err := c.provider.ScrollTo(ctx, page); err != nil {
			c.cfg.Logger.Warn("nav: scroll", "page", page, "error", err)
		}
		return Outcome{Status: StatusNavigationOnly, Page: page}
	}

	for _, page := range c.traversal(cit) {
		if ctx.Err() != nil {
			return Outcome{Status: StatusCanceled}
		}
		pt := c.extractor.Extract(ctx, page)
		if pt.RawText == "" {
			continue
		}
		res := match.MatchPage(cit.Quote, pt)
		if res == nil {
			continue
		}
		return c.land(ctx, gen, pt, res)
	}

	if c.current(gen) {
		c.hl.ClearAll()
		if err := c.provider.ScrollTo(ctx, 1); err != nil {
			c.cfg.Logger.Warn("nav: scroll", "page", 1, "error", err)
		}
	}
	c.cfg.Logger.Info("nav: citation not found", "quote_len", len(cit.Quote))
	return Outcome{Status: StatusNotFound, Page: 1}
}

// traversal builds the ascending candidate page order. The page hint never
// participates; SearchPages only restricts the set.
func (c *Controller) traversal(cit Citation) []int {
	total := c.provider.PageCount()

	if len(cit.SearchPages) > 0 {
		seen := make(map[int]bool, len(cit.SearchPages))
		var pages []int
		for _, p := range cit.SearchPages {
			if p >= 1 && p <= total && !seen[p] {
				seen[p] = true
				pages = append(pages, p)
			}
		}
		// Ascending regardless of the order the host sent them in.
		for i := 1; i < len(pages); i++ {
			for j := i; j > 0 && pages[j] < pages[j-1]; j-- {
				pages[j], pages[j-1] = pages[j-1], pages[j]
			}
		}
		return pages
	}

	pages := make([]int, 0, total)
	for p := 1; p <= total; p++ {
		pages = append(pages, p)
	}
	return pages
}

// land finishes a successful match: scroll, settle, highlight, ring. Each
// step re-checks that this call is still the current generation.
func (c *Controller) land(ctx context.Context, gen uint64, pt *pagetext.PageText, res *match.Result) Outcome {
	if !c.current(gen) {
		return Outcome{Status: StatusCanceled}
	}
	if err := c.provider.ScrollTo(ctx, res.Page); err != nil {
		c.cfg.Logger.Warn("nav: scroll", "page", res.Page, "error", err)
	}

	// Let scroll-driven layout settle before marking fragments.
	select {
	case <-ctx.Done():
		return Outcome{Status: StatusCanceled}
	case <-time.After(c.cfg.SettleDelay):
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return Outcome{Status: StatusCanceled}
	}
	c.hl.Apply(pt.Fragments, res.Start, res.End)
	c.mu.Unlock()

	time.AfterFunc(c.cfg.RingDuration, func() {
		if c.current(gen) {
			c.hl.ClearRing()
		}
	})

	c.cfg.Logger.Info("nav: citation located",
		"page", res.Page, "strategy", string(res.Strategy))
	return Outcome{Status: StatusFound, Page: res.Page, Strategy: res.Strategy}
}

// begin cancels any in-flight JumpTo and registers this call as current.
func (c *Controller) begin(ctx context.Context) (context.Context, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelPrev != nil {
		c.cancelPrev()
	}
	c.gen++
	ctx, cancel := context.WithCancel(ctx)
	c.cancelPrev = cancel
	return ctx, c.gen
}

func (c *Controller) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == c.gen
}
