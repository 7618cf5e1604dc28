// CLAUDE:SUMMARY Viewer configuration structs and YAML file loading with defaults.
package viewer

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level viewer configuration.
type Config struct {
	Extract ExtractConfig `yaml:"extract"`
	Nav     NavConfig     `yaml:"nav"`
}

// ExtractConfig controls late-text retry behaviour.
type ExtractConfig struct {
	RetryBudget int           `yaml:"retry_budget"`
	RetryDelay  time.Duration `yaml:"retry_delay"`
}

// NavConfig controls navigation timing.
type NavConfig struct {
	SettleDelay  time.Duration `yaml:"settle_delay"`
	RingDuration time.Duration `yaml:"ring_duration"`
}

// LoadConfigFile reads a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Extract.RetryBudget <= 0 {
		c.Extract.RetryBudget = 1
	}
	if c.Extract.RetryDelay <= 0 {
		c.Extract.RetryDelay = 300 * time.Millisecond
	}
	if c.Nav.SettleDelay <= 0 {
		c.Nav.SettleDelay = 150 * time.Millisecond
	}
	if c.Nav.RingDuration <= 0 {
		c.Nav.RingDuration = 2500 * time.Millisecond
	}
}
