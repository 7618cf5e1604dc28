package nav

import (
	"context"
	"testing"
	"time"

	"github.com/hazyhaar/citenav/fragment/fragtest"
	"github.com/hazyhaar/citenav/highlight"
	"github.com/hazyhaar/citenav/pagetext"
)

func testController(p *fragtest.Provider, cfg Config) *Controller {
	cache := pagetext.NewCache()
	ext := pagetext.NewExtractor(p, cache, pagetext.ExtractorConfig{
		RetryBudget: 1, RetryDelay: 2 * time.Millisecond,
	})
	if cfg.SettleDelay == 0 {
		cfg.SettleDelay = time.Millisecond
	}
	if cfg.RingDuration == 0 {
		cfg.RingDuration = 10 * time.Millisecond
	}
	return New(p, ext, highlight.New(nil), cfg)
}

func TestJumpTo_AscendingFirstFound(t *testing.T) {
	// WHAT: Pages 2 and 5 both contain the quote; page 2 wins.
	// WHY: Traversal is strictly ascending; a later match never overrides.
	p := fragtest.New()
	p.SetPage(1, "intro page")
	p.SetPage(2, "the deposit is refundable in full")
	p.SetPage(5, "the deposit is refundable in full")

	c := testController(p, Config{})
	out := c.JumpTo(context.Background(), Citation{Quote: "deposit is refundable"})

	if out.Status != StatusFound || out.Page != 2 {
		t.Fatalf("outcome = %+v, want found on page 2", out)
	}
	if got := p.HighlightedIndexes(2); len(got) == 0 {
		t.Error("expected highlight on page 2")
	}
	if got := p.HighlightedIndexes(5); len(got) != 0 {
		t.Error("page 5 must not be highlighted")
	}
	scrolls := p.Scrolls()
	if len(scrolls) == 0 || scrolls[len(scrolls)-1] != 2 {
		t.Errorf("scrolls = %v, want last scroll to page 2", scrolls)
	}
}

func TestJumpTo_HintIgnoredForOrdering(t *testing.T) {
	p := fragtest.New()
	p.SetPage(2, "the governing law is French law")
	p.SetPage(5, "the governing law is French law")

	c := testController(p, Config{})
	out := c.JumpTo(context.Background(), Citation{Quote: "governing law", Page: 5})

	if out.Page != 2 {
		t.Errorf("page = %d, want 2 (hint must not reorder traversal)", out.Page)
	}
}

func TestJumpTo_SearchPagesRestrictSet(t *testing.T) {
	p := fragtest.New()
	p.SetPage(2, "identical clause text here")
	p.SetPage(4, "identical clause text here")

	c := testController(p, Config{})
	out := c.JumpTo(context.Background(), Citation{
		Quote:       "identical clause",
		SearchPages: []int{4},
	})

	if out.Status != StatusFound || out.Page != 4 {
		t.Fatalf("outcome = %+v, want found on page 4", out)
	}
}

func TestJumpTo_EmptyQuoteNavigatesOnly(t *testing.T) {
	p := fragtest.New()
	p.SetPage(1, "body")
	p.SetPage(4, "body")

	c := testController(p, Config{})
	out := c.JumpTo(context.Background(), Citation{Page: 4})

	if out.Status != StatusNavigationOnly || out.Page != 4 {
		t.Fatalf("outcome = %+v, want navigation_only to page 4", out)
	}
	if p.AnyHighlight() {
		t.Error("navigation-only must not highlight anything")
	}
	if scrolls := p.Scrolls(); len(scrolls) != 1 || scrolls[0] != 4 {
		t.Errorf("scrolls = %v, want [4]", p.Scrolls())
	}
}

func TestJumpTo_NotFoundFallsBackToPageOne(t *testing.T) {
	// WHAT: A quote absent from every page degrades to page 1, no highlight.
	// WHY: Failure is navigate-without-highlight, never an error.
	p := fragtest.New()
	p.SetPage(1, "first page body")
	p.SetPage(2, "second page body")

	c := testController(p, Config{})

	// Seed a prior highlight, then miss: the prior mark must be cleared.
	if out := c.JumpTo(context.Background(), Citation{Quote: "second page"}); out.Status != StatusFound {
		t.Fatalf("seed jump failed: %+v", out)
	}

	out := c.JumpTo(context.Background(), Citation{Quote: "nonexistent clause xyz123"})
	if out.Status != StatusNotFound {
		t.Fatalf("outcome = %+v, want not_found", out)
	}
	if p.AnyHighlight() {
		t.Error("no fragment may carry a highlight after a miss")
	}
	scrolls := p.Scrolls()
	if scrolls[len(scrolls)-1] != 1 {
		t.Errorf("scrolls = %v, want final scroll to page 1", scrolls)
	}
}

func TestJumpTo_SkipsEmptyPages(t *testing.T) {
	p := fragtest.New()
	p.SetPage(1, "blank")
	p.SetPage(2, "the answer lives here on page two")
	p.DelayText(1, 10) // page 1 never yields text within the budget

	c := testController(p, Config{})
	out := c.JumpTo(context.Background(), Citation{Quote: "answer lives here"})

	if out.Status != StatusFound || out.Page != 2 {
		t.Fatalf("outcome = %+v, want found on page 2", out)
	}
}

func TestJumpTo_SupersededCallCannotHighlight(t *testing.T) {
	// WHAT: A newer JumpTo cancels the prior one before it applies marks.
	// WHY: Stale highlights from an abandoned search must never land after a
	// newer search has started.
	p := fragtest.New()
	p.SetPage(1, "first quote target text")
	p.SetPage(2, "second quote target text")

	c := testController(p, Config{SettleDelay: 150 * time.Millisecond})

	first := make(chan Outcome, 1)
	go func() {
		first <- c.JumpTo(context.Background(), Citation{Quote: "first quote target"})
	}()
	time.Sleep(30 * time.Millisecond) // let the first call reach its settle delay

	out2 := c.JumpTo(context.Background(), Citation{Quote: "second quote target"})
	out1 := <-first

	if out1.Status != StatusCanceled {
		t.Errorf("first outcome = %+v, want canceled", out1)
	}
	if out2.Status != StatusFound || out2.Page != 2 {
		t.Fatalf("second outcome = %+v, want found on page 2", out2)
	}
	if len(p.HighlightedIndexes(1)) != 0 {
		t.Error("superseded call marked page 1")
	}
	if len(p.HighlightedIndexes(2)) == 0 {
		t.Error("current call's highlight missing on page 2")
	}
}

func TestJumpTo_RingAutoClears(t *testing.T) {
	p := fragtest.New()
	p.SetPage(1, "ring me briefly please")

	c := testController(p, Config{RingDuration: 15 * time.Millisecond})
	out := c.JumpTo(context.Background(), Citation{Quote: "ring me briefly"})
	if out.Status != StatusFound {
		t.Fatalf("outcome = %+v", out)
	}

	frags := p.Page(1)
	if !frags[0].IsRinged() {
		t.Fatal("expected ring right after landing")
	}

	time.Sleep(60 * time.Millisecond)
	if frags[0].IsRinged() {
		t.Error("ring must auto-clear after RingDuration")
	}
	if !frags[0].IsHighlighted() {
		t.Error("highlight must survive the ring timer")
	}
}
