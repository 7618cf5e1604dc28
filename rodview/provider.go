// CLAUDE:SUMMARY Rod-backed fragment.Provider: DOM elements as fragments, class toggles for highlight state.
package rodview

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/stealth"

	"github.com/hazyhaar/citenav/fragment"
)

// ProviderConfig describes how the hosted viewer page is structured.
type ProviderConfig struct {
	// PageSelector matches the container of each document page, in page
	// order. Default: "[data-page]".
	PageSelector string

	// FragmentSelector matches the text blocks inside a page container.
	// Default: "p, h1, h2, h3, h4, h5, h6, li, blockquote, pre".
	FragmentSelector string

	// NavigateTimeout bounds the initial navigation. Default: 30s.
	NavigateTimeout time.Duration

	Logger *slog.Logger
}

func (c *ProviderConfig) defaults() {
	if c.PageSelector == "" {
		c.PageSelector = "[data-page]"
	}
	if c.FragmentSelector == "" {
		c.FragmentSelector = "p, h1, h2, h3, h4, h5, h6, li, blockquote, pre"
	}
	if c.NavigateTimeout <= 0 {
		c.NavigateTimeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// highlightCSS is injected once per document so class toggles are all the
// fragment mutations ever need.
const highlightCSS = `() => {
	if (document.getElementById('citenav-style')) return;
	const s = document.createElement('style');
	s.id = 'citenav-style';
	s.textContent = '.citenav-highlight{background-color:rgba(255,213,0,0.4);}' +
		'.citenav-ring{outline:3px solid #ff8f00;outline-offset:2px;}';
	document.head.appendChild(s);
}`

// Provider exposes a browser-rendered document as pages of DOM fragments.
type Provider struct {
	page *rod.Page
	cfg  ProviderConfig
}

// Open creates a stealth tab on the managed browser, navigates to the viewer
// URL, waits for load, and injects the highlight stylesheet.
func Open(ctx context.Context, b *Browser, viewerURL string, cfg ProviderConfig) (*Provider, error) {
	cfg.defaults()

	br := b.Rod()
	if br == nil {
		return nil, fmt.Errorf("rodview: browser not started")
	}

	page, err := stealth.Page(br)
	if err != nil {
		return nil, fmt.Errorf("rodview: create tab: %w", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, cfg.NavigateTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(viewerURL); err != nil {
		page.Close()
		return nil, fmt.Errorf("rodview: navigate %s: %w", viewerURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		cfg.Logger.Warn("rodview: wait load timeout", "url", viewerURL, "error", err)
	}
	if _, err := page.Eval(highlightCSS); err != nil {
		cfg.Logger.Warn("rodview: inject stylesheet", "error", err)
	}

	return &Provider{page: page, cfg: cfg}, nil
}

func (p *Provider) PageCount() int {
	res, err := p.page.Eval(`sel => document.querySelectorAll(sel).length`, p.cfg.PageSelector)
	if err != nil {
		p.cfg.Logger.Warn("rodview: page count", "error", err)
		return 0
	}
	return res.Value.Int()
}

// PageRendered reports whether the page container exists and carries text.
// Virtualized viewers mount containers lazily and fill text in even later.
func (p *Provider) PageRendered(page int) bool {
	res, err := p.page.Eval(`(sel, idx) => {
		const el = document.querySelectorAll(sel)[idx];
		return !!el && el.innerText.trim().length > 0;
	}`, p.cfg.PageSelector, page-1)
	if err != nil {
		return false
	}
	return res.Value.Bool()
}

func (p *Provider) Fragments(ctx context.Context, page int) ([]fragment.Fragment, error) {
	pageEl, err := p.pageElement(ctx, page)
	if err != nil {
		return nil, err
	}

	els, err := pageEl.Elements(p.cfg.FragmentSelector)
	if err != nil {
		return nil, fmt.Errorf("rodview: query fragments: %w", err)
	}

	out := make([]fragment.Fragment, 0, len(els))
	for _, el := range els {
		text, err := el.Text()
		if err != nil {
			// A detached element reads as empty, never fails the page.
			text = ""
		}
		out = append(out, &domFragment{el: el, text: text, logger: p.cfg.Logger})
	}
	return out, nil
}

func (p *Provider) ScrollTo(ctx context.Context, page int) error {
	pageEl, err := p.pageElement(ctx, page)
	if err != nil {
		return err
	}
	if _, err := pageEl.Eval(`() => this.scrollIntoView({block: 'center', behavior: 'auto'})`); err != nil {
		return fmt.Errorf("rodview: scroll to page %d: %w", page, err)
	}
	return nil
}

// Close closes the tab; the shared browser stays up.
func (p *Provider) Close() error {
	return p.page.Close()
}

func (p *Provider) pageElement(ctx context.Context, page int) (*rod.Element, error) {
	els, err := p.page.Context(ctx).Elements(p.cfg.PageSelector)
	if err != nil {
		return nil, fmt.Errorf("rodview: query pages: %w", err)
	}
	if page < 1 || page > len(els) {
		return nil, fragment.ErrPageNotRendered
	}
	return els[page-1], nil
}

// domFragment holds the element handle for presentation mutation and the text
// snapshot taken at extraction time.
type domFragment struct {
	el     *rod.Element
	text   string
	logger *slog.Logger
}

func (f *domFragment) Text() string { return f.text }

func (f *domFragment) SetHighlight(on bool) { f.toggleClass("citenav-highlight", on) }

func (f *domFragment) SetRing(on bool) { f.toggleClass("citenav-ring", on) }

func (f *domFragment) toggleClass(class string, on bool) {
	_, err := f.el.Eval(`(class_, on) => {
		on ? this.classList.add(class_) : this.classList.remove(class_);
	}`, class, on)
	if err != nil {
		f.logger.Debug("rodview: toggle class", "class", class, "error", err)
	}
}
