// CLAUDE:SUMMARY Bounded-retry fragment extractor: reads fragments once rendered, retries empty text, records exhaustion.
package pagetext

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hazyhaar/citenav/fragment"
)

// ExtractorConfig controls retry behaviour for late text population.
type ExtractorConfig struct {
	// RetryBudget is the number of re-reads after an empty first read.
	// Default: 1. Never unbounded.
	RetryBudget int
	// RetryDelay is the pause before each re-read. Default: 300ms.
	RetryDelay time.Duration

	Logger *slog.Logger
}

func (c *ExtractorConfig) defaults() {
	if c.RetryBudget <= 0 {
		c.RetryBudget = 1
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 300 * time.Millisecond
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Extractor produces PageText entries and writes them into the Cache. It is
// the only writer of the cache. Absence of text is a representable state,
// never an error: exhausted retries record an empty entry, which excludes the
// page from matching until ForceAll re-reads it.
type Extractor struct {
	provider fragment.Provider
	cache    *Cache
	cfg      ExtractorConfig
}

func NewExtractor(p fragment.Provider, cache *Cache, cfg ExtractorConfig) *Extractor {
	cfg.defaults()
	return &Extractor{provider: p, cache: cache, cfg: cfg}
}

// Extract returns the cached PageText for the page, reading fragments from
// the provider if no entry exists yet. An empty read is retried RetryBudget
// times after RetryDelay; after that the page is recorded with empty RawText.
// A page with no render tree is a no-op: nothing is cached, so a later
// render-complete signal gets a fresh attempt.
func (e *Extractor) Extract(ctx context.Context, page int) *PageText {
	if pt, ok := e.cache.Get(page); ok {
		return pt
	}

	attempts := e.cfg.RetryBudget + 1
	var frags []fragment.Fragment
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return &PageText{Page: page}
			case <-time.After(e.cfg.RetryDelay):
			}
		}

		fs, err := e.provider.Fragments(ctx, page)
		if err != nil {
			if errors.Is(err, fragment.ErrPageNotRendered) {
				e.cfg.Logger.Debug("pagetext: page not rendered", "page", page)
			} else {
				e.cfg.Logger.Warn("pagetext: read fragments", "page", page, "error", err)
			}
			return &PageText{Page: page}
		}

		frags = fs
		if raw := JoinText(fs); raw != "" {
			pt := &PageText{Page: page, Fragments: fs, RawText: raw}
			e.cache.Put(pt)
			return pt
		}

		e.cfg.Logger.Debug("pagetext: empty text, will retry",
			"page", page, "attempt", i+1, "budget", attempts)
	}

	// Retry budget exhausted. Record the page as empty so matching skips it
	// until ForceAll overwrites the entry.
	pt := &PageText{Page: page, Fragments: frags}
	e.cache.Put(pt)
	e.cfg.Logger.Info("pagetext: extraction empty after retries", "page", page)
	return pt
}

// ForceAll synchronously re-reads every currently rendered page and
// overwrites the cache, including entries previously recorded empty.
func (e *Extractor) ForceAll(ctx context.Context) {
	total := e.provider.PageCount()
	for page := 1; page <= total; page++ {
		if !e.provider.PageRendered(page) {
			continue
		}
		fs, err := e.provider.Fragments(ctx, page)
		if err != nil {
			e.cfg.Logger.Warn("pagetext: force extraction", "page", page, "error", err)
			continue
		}
		e.cache.Put(&PageText{Page: page, Fragments: fs, RawText: JoinText(fs)})
	}
}
