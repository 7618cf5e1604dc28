package rodview

import (
	"testing"
	"time"
)

func TestProviderConfig_Defaults(t *testing.T) {
	var cfg ProviderConfig
	cfg.defaults()

	if cfg.PageSelector != "[data-page]" {
		t.Errorf("PageSelector = %q", cfg.PageSelector)
	}
	if cfg.FragmentSelector == "" {
		t.Error("FragmentSelector must have a default")
	}
	if cfg.NavigateTimeout != 30*time.Second {
		t.Errorf("NavigateTimeout = %v", cfg.NavigateTimeout)
	}
	if cfg.Logger == nil {
		t.Error("Logger must default to slog.Default")
	}
}
