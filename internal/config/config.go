// Package config holds the environment driven configuration for the
// control engine.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the single source of truth consulted by every engine call.
// Values are treated as immutable after Load/Normalize; runtime
// reconfiguration swaps the whole instance.
type Config struct {
	// Service Configuration
	ServiceName string `env:"SERVICE_NAME" envDefault:"control-engine"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"ENGINE_LOG_LEVEL" envDefault:"info"`

	// Capture Configuration
	CaptureMode    string `env:"ENGINE_CAPTURE_MODE" envDefault:"all"`     // none | search-only | all
	CaptureFormat  string `env:"ENGINE_CAPTURE_FORMAT" envDefault:"jpeg"`  // jpeg | png
	CaptureQuality int    `env:"ENGINE_CAPTURE_QUALITY" envDefault:"85"`   // 1..100, clamped
	MaxFiles       int    `env:"ENGINE_CAPTURE_MAX_FILES" envDefault:"100"`
	DedupEnabled   bool   `env:"ENGINE_CAPTURE_DEDUP" envDefault:"true"`
	StorageDir     string `env:"ENGINE_STORAGE_DIR" envDefault:"screenshots"`

	// Timeout Estimation
	AdaptiveTimeouts bool          `env:"ENGINE_ADAPTIVE_TIMEOUTS" envDefault:"true"`
	DefaultTimeout   time.Duration `env:"ENGINE_DEFAULT_TIMEOUT" envDefault:"30s"`
	MinTimeout       time.Duration `env:"ENGINE_MIN_TIMEOUT" envDefault:"5s"`
	MaxTimeout       time.Duration `env:"ENGINE_MAX_TIMEOUT" envDefault:"60s"`

	// Provider Registry
	ProvidersFile string `env:"ENGINE_PROVIDERS_FILE"`
}

// Load parses environment variables into Config and normalizes it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Normalize clamps out-of-range numeric values and validates enumerations.
// Clamping rather than rejecting keeps the engine permissive toward
// operator typos in quality or retention knobs.
func (c *Config) Normalize() error {
	c.CaptureMode = strings.ToLower(strings.TrimSpace(c.CaptureMode))
	c.CaptureFormat = strings.ToLower(strings.TrimSpace(c.CaptureFormat))

	switch c.CaptureMode {
	case "none", "search-only", "all":
	case "":
		c.CaptureMode = "all"
	default:
		return fmt.Errorf("invalid ENGINE_CAPTURE_MODE %q (want none, search-only or all)", c.CaptureMode)
	}

	switch c.CaptureFormat {
	case "jpeg", "png":
	case "jpg":
		c.CaptureFormat = "jpeg"
	case "":
		c.CaptureFormat = "jpeg"
	default:
		return fmt.Errorf("invalid ENGINE_CAPTURE_FORMAT %q (want jpeg or png)", c.CaptureFormat)
	}

	c.CaptureQuality = ClampQuality(c.CaptureQuality)
	if c.MaxFiles < 1 {
		c.MaxFiles = 1
	}
	if c.StorageDir == "" {
		c.StorageDir = "screenshots"
	}

	if c.DefaultTimeout <= 0 {
		c.DefaultTimeout = 30 * time.Second
	}
	if c.MinTimeout <= 0 {
		c.MinTimeout = 5 * time.Second
	}
	if c.MaxTimeout < c.MinTimeout {
		c.MaxTimeout = c.MinTimeout
	}
	return nil
}

// ClampQuality bounds an encode quality to [1, 100].
func ClampQuality(q int) int {
	if q < 1 {
		return 1
	}
	if q > 100 {
		return 100
	}
	return q
}
