// CLAUDE:SUMMARY Manages headless Chrome lifecycle for the rod-backed provider: launch or remote connect, close.
// Package rodview renders documents in headless Chrome via Rod and exposes
// real DOM elements as fragments, so highlights land in the page the user is
// actually looking at.
package rodview

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// BrowserConfig configures the browser manager.
type BrowserConfig struct {
	// RemoteURL is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local Chrome via launcher.
	RemoteURL string

	// Headful runs Chrome with a visible window, for a desktop viewer host.
	Headful bool

	Logger *slog.Logger
}

func (c *BrowserConfig) defaults() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Browser manages one Chrome instance shared by the viewers it hosts.
type Browser struct {
	cfg BrowserConfig

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	closed  bool
}

func NewBrowser(cfg BrowserConfig) *Browser {
	cfg.defaults()
	return &Browser{cfg: cfg}
}

// Start launches Chrome (or connects to a remote instance).
func (b *Browser) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("rodview: browser is closed")
	}

	var wsURL string
	if b.cfg.RemoteURL != "" {
		wsURL = b.cfg.RemoteURL
		b.cfg.Logger.Info("rodview: connecting to remote chrome", "url", wsURL)
	} else {
		l := launcher.New().
			Headless(!b.cfg.Headful).
			Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return fmt.Errorf("rodview: launch: %w", err)
		}
		wsURL = u
		b.lnch = l
		b.cfg.Logger.Info("rodview: launched local chrome", "headful", b.cfg.Headful)
	}

	br := rod.New().Context(ctx).ControlURL(wsURL)
	if err := br.Connect(); err != nil {
		return fmt.Errorf("rodview: connect: %w", err)
	}
	b.browser = br
	return nil
}

// Rod returns the underlying browser handle, nil before Start.
func (b *Browser) Rod() *rod.Browser {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.browser
}

// Close shuts Chrome down and releases the launcher's resources.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	if b.browser != nil {
		b.browser.Close()
		b.browser = nil
	}
	if b.lnch != nil {
		b.lnch.Cleanup()
		b.lnch = nil
	}
	return nil
}
