package file

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/perseus-data/solsync/internal/core/domain"
)

const (
	// DefaultLookbackSols is how many sols behind the latest one each
	// sync re-examines when the config does not say otherwise.
	DefaultLookbackSols = 7

	// DefaultStaleRunThreshold is the age past which an in-progress
	// run is considered abandoned.
	DefaultStaleRunThreshold = time.Hour

	// DefaultBaseURL is the upstream feed API root.
	DefaultBaseURL = "https://api.nasa.gov/mars-photos/api/v1"
)

// Config is the fully resolved solsync configuration.
type Config struct {
	// Sources are the source identifiers to sync. Required; an empty
	// list is a configuration error, never silently defaulted.
	Sources []string `toml:"sources"`

	// LookbackSols is the re-examined window depth behind the latest sol.
	LookbackSols int `toml:"lookback_sols"`

	// StaleRunThreshold is a duration string such as "1h" or "90m".
	StaleRunThreshold string `toml:"stale_run_threshold"`

	// DataDir overrides the default database location.
	DataDir string `toml:"data_dir"`

	Feed FeedConfig `toml:"feed"`
}

// FeedConfig configures the upstream feed client.
type FeedConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`

	// RequestTimeout is a duration string such as "30s".
	RequestTimeout string `toml:"request_timeout"`

	// RatePerSecond throttles outbound requests. Zero uses the
	// client's default.
	RatePerSecond float64 `toml:"rate_per_second"`
}

// DefaultPath returns the default config file location,
// ~/.solsync/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".solsync", "config.toml"), nil
}

// Load reads and validates the config file at path. An empty path uses
// DefaultPath. A missing file or an empty source list is an error;
// optional fields fall back to defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		defaultPath, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = defaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.applyDefaults()

	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("%w: sources must list at least one source", domain.ErrInvalidInput)
	}
	for _, id := range c.Sources {
		if id == "" {
			return fmt.Errorf("%w: sources contains an empty identifier", domain.ErrInvalidInput)
		}
	}
	if c.LookbackSols < 0 {
		return fmt.Errorf("%w: lookback_sols must not be negative", domain.ErrInvalidInput)
	}
	if _, err := c.staleRunThreshold(); err != nil {
		return err
	}
	if _, err := c.requestTimeout(); err != nil {
		return err
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.LookbackSols == 0 {
		c.LookbackSols = DefaultLookbackSols
	}
	if c.Feed.BaseURL == "" {
		c.Feed.BaseURL = DefaultBaseURL
	}
}

// StaleThreshold returns the parsed stale-run threshold.
func (c *Config) StaleThreshold() time.Duration {
	threshold, err := c.staleRunThreshold()
	if err != nil || threshold <= 0 {
		return DefaultStaleRunThreshold
	}
	return threshold
}

// RequestTimeout returns the parsed feed request timeout, zero when unset.
func (c *Config) RequestTimeout() time.Duration {
	timeout, err := c.requestTimeout()
	if err != nil {
		return 0
	}
	return timeout
}

func (c *Config) staleRunThreshold() (time.Duration, error) {
	if c.StaleRunThreshold == "" {
		return DefaultStaleRunThreshold, nil
	}
	threshold, err := time.ParseDuration(c.StaleRunThreshold)
	if err != nil {
		return 0, fmt.Errorf("%w: stale_run_threshold: %v", domain.ErrInvalidInput, err)
	}
	return threshold, nil
}

func (c *Config) requestTimeout() (time.Duration, error) {
	if c.Feed.RequestTimeout == "" {
		return 0, nil
	}
	timeout, err := time.ParseDuration(c.Feed.RequestTimeout)
	if err != nil {
		return 0, fmt.Errorf("%w: feed.request_timeout: %v", domain.ErrInvalidInput, err)
	}
	return timeout, nil
}
