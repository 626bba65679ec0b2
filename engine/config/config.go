// Package config reads the stage's runtime settings from OXY_STAGE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// ErrInvalidQuality is returned when OXY_STAGE_QUALITY is neither "high" nor "low".
var ErrInvalidQuality = errors.New("quality must be \"high\" or \"low\"")

// Quality names the rendering quality tier.
type Quality string

const (
	QualityHigh Quality = "high"
	QualityLow  Quality = "low"
)

// Shadows reports whether the tier renders shadow maps.
func (q Quality) Shadows() bool {
	return q == QualityHigh
}

// Toggle returns the other tier.
func (q Quality) Toggle() Quality {
	if q == QualityHigh {
		return QualityLow
	}
	return QualityHigh
}

// Config holds every setting the CLI and layouts consume.
type Config struct {
	// Catalog is a YAML descriptor file; empty uses the embedded dataset.
	Catalog string `env:"OXY_STAGE_CATALOG"`
	// AssetBase resolves relative model paths. Either a directory or an http(s) URL.
	AssetBase string `env:"OXY_STAGE_ASSET_BASE" envDefault:"."`
	// DB is the unlocked-avatar sqlite file.
	DB string `env:"OXY_STAGE_DB" envDefault:"oxy-stage.db"`

	Quality    Quality `env:"OXY_STAGE_QUALITY" envDefault:"high"`
	AutoRotate bool    `env:"OXY_STAGE_AUTO_ROTATE" envDefault:"true"`

	ReadyTimeout  time.Duration `env:"OXY_STAGE_READY_TIMEOUT" envDefault:"10s"`
	ReadyInterval time.Duration `env:"OXY_STAGE_READY_INTERVAL" envDefault:"100ms"`
	LoadWorkers   int           `env:"OXY_STAGE_LOAD_WORKERS" envDefault:"2"`

	Profile   bool `env:"OXY_STAGE_PROFILE"`
	FrameRate int  `env:"OXY_STAGE_FRAME_RATE" envDefault:"60"`
	Width     int  `env:"OXY_STAGE_WIDTH" envDefault:"1280"`
	Height    int  `env:"OXY_STAGE_HEIGHT" envDefault:"720"`
}

// ParseEnv populates target from environment variables using its struct tags.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads the environment and validates the result.
//
// Returns:
//   - Config: the settings
//   - error: error if a variable is malformed or out of range
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate normalizes the quality tier and checks numeric ranges.
func (c *Config) Validate() error {
	c.Quality = Quality(strings.ToLower(strings.TrimSpace(string(c.Quality))))
	if c.Quality != QualityHigh && c.Quality != QualityLow {
		return fmt.Errorf("%w: got %q", ErrInvalidQuality, c.Quality)
	}
	if c.ReadyInterval <= 0 {
		return fmt.Errorf("ready interval must be positive, got %s", c.ReadyInterval)
	}
	if c.ReadyTimeout < c.ReadyInterval {
		return fmt.Errorf("ready timeout %s is shorter than the poll interval %s", c.ReadyTimeout, c.ReadyInterval)
	}
	if c.LoadWorkers < 1 {
		return fmt.Errorf("load workers must be at least 1, got %d", c.LoadWorkers)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Width, c.Height)
	}
	return nil
}
