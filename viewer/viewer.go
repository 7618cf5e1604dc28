// CLAUDE:SUMMARY Facade wiring extractor, matcher, highlighter and controller over one Provider; host-facing operations.
// Package viewer assembles the citation-navigation core over a single
// rendering collaborator and exposes the host-facing surface: jump-to,
// page-text snapshots, forced re-extraction, and document reset, plus chi
// HTTP and MCP transports.
package viewer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/citenav/fragment"
	"github.com/hazyhaar/citenav/highlight"
	"github.com/hazyhaar/citenav/idgen"
	"github.com/hazyhaar/citenav/journal"
	"github.com/hazyhaar/citenav/kit"
	"github.com/hazyhaar/citenav/nav"
	"github.com/hazyhaar/citenav/pagetext"
)

// Viewer hosts one document's citation navigation state.
type Viewer struct {
	provider  fragment.Provider
	cache     *pagetext.Cache
	extractor *pagetext.Extractor
	hl        *highlight.Renderer
	ctrl      *nav.Controller

	jrnl   *journal.Journal
	newID  idgen.Generator
	logger *slog.Logger

	mu         sync.Mutex
	cancelJump context.CancelFunc
}

// Option customises a Viewer.
type Option func(*Viewer)

// WithJournal records every JumpTo outcome to the given journal.
func WithJournal(j *journal.Journal) Option {
	return func(v *Viewer) { v.jrnl = j }
}

// WithIDGenerator overrides the lookup ID strategy.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(v *Viewer) { v.newID = gen }
}

// New creates a Viewer over the given rendering collaborator.
func New(p fragment.Provider, cfg Config, logger *slog.Logger, opts ...Option) *Viewer {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	cache := pagetext.NewCache()
	extCfg := pagetext.ExtractorConfig{
		RetryBudget: cfg.Extract.RetryBudget,
		RetryDelay:  cfg.Extract.RetryDelay,
		Logger:      logger,
	}
	extractor := pagetext.NewExtractor(p, cache, extCfg)
	hl := highlight.New(logger)
	ctrl := nav.New(p, extractor, hl, nav.Config{
		SettleDelay:  cfg.Nav.SettleDelay,
		RingDuration: cfg.Nav.RingDuration,
		Logger:       logger,
	})

	v := &Viewer{
		provider:  p,
		cache:     cache,
		extractor: extractor,
		hl:        hl,
		ctrl:      ctrl,
		newID:     idgen.Prefixed("lkp_", idgen.Default),
		logger:    logger,
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

// OnPageRendered is the render-complete notification from the collaborator.
// Extraction is attempted immediately, off the caller's path.
func (v *Viewer) OnPageRendered(page int) {
	go v.extractor.Extract(context.Background(), page)
}

// JumpTo resolves a citation click, fire-and-forget. A new call supersedes
// any still running.
func (v *Viewer) JumpTo(cit nav.Citation) {
	v.mu.Lock()
	if v.cancelJump != nil {
		v.cancelJump()
	}
	ctx, cancel := context.WithCancel(context.Background())
	v.cancelJump = cancel
	v.mu.Unlock()

	go func() {
		defer cancel()
		v.JumpToWait(ctx, cit)
	}()
}

// JumpToWait resolves a citation click synchronously and reports the outcome.
func (v *Viewer) JumpToWait(ctx context.Context, cit nav.Citation) nav.Outcome {
	start := time.Now()
	out := v.ctrl.JumpTo(ctx, cit)

	if v.jrnl != nil && out.Status != nav.StatusCanceled {
		v.jrnl.RecordAsync(&journal.Entry{
			LookupID:   v.newID(),
			Transport:  kit.GetTransport(ctx),
			Quote:      cit.Quote,
			Status:     string(out.Status),
			Page:       out.Page,
			Strategy:   string(out.Strategy),
			DurationUs: time.Since(start).Microseconds(),
			Timestamp:  time.Now().UnixMicro(),
		})
	}
	return out
}

// PageTexts snapshots the page text cache for every page of the document,
// text empty for pages not yet (or never) extracted.
func (v *Viewer) PageTexts() []pagetext.PageInfo {
	known := make(map[int]string)
	for _, pi := range v.cache.Snapshot() {
		known[pi.Page] = pi.Text
	}

	total := v.provider.PageCount()
	out := make([]pagetext.PageInfo, 0, total)
	for page := 1; page <= total; page++ {
		out = append(out, pagetext.PageInfo{Page: page, Text: known[page]})
	}
	return out
}

// ForceTextExtraction synchronously re-extracts every currently rendered
// page, overwriting prior entries, including those recorded empty.
func (v *Viewer) ForceTextExtraction(ctx context.Context) {
	v.extractor.ForceAll(ctx)
}

// Reset clears all state for a replaced document: cache entries, any active
// highlight, and any in-flight jump.
func (v *Viewer) Reset() {
	v.mu.Lock()
	if v.cancelJump != nil {
		v.cancelJump()
		v.cancelJump = nil
	}
	v.mu.Unlock()

	v.hl.ClearAll()
	v.cache.Reset()
	v.logger.Info("viewer: document state reset")
}
