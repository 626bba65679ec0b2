package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Quality != QualityHigh {
		t.Fatalf("quality = %q, want high", cfg.Quality)
	}
	if !cfg.AutoRotate {
		t.Fatal("expected auto-rotate on by default")
	}
	if cfg.ReadyInterval != 100*time.Millisecond || cfg.ReadyTimeout != 10*time.Second {
		t.Fatalf("readiness = %s/%s, want 100ms/10s", cfg.ReadyInterval, cfg.ReadyTimeout)
	}
	if cfg.LoadWorkers != 2 {
		t.Fatalf("load workers = %d, want 2", cfg.LoadWorkers)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("OXY_STAGE_QUALITY", " LOW ")
	t.Setenv("OXY_STAGE_AUTO_ROTATE", "false")
	t.Setenv("OXY_STAGE_ASSET_BASE", "https://cdn.example.com/models/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Quality != QualityLow || cfg.Quality.Shadows() {
		t.Fatalf("quality = %q, want low without shadows", cfg.Quality)
	}
	if cfg.AutoRotate {
		t.Fatal("expected auto-rotate off")
	}
	if cfg.AssetBase != "https://cdn.example.com/models/" {
		t.Fatalf("asset base = %q", cfg.AssetBase)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		check func(error) bool
	}{
		{
			name: "bad quality", key: "OXY_STAGE_QUALITY", value: "ultra",
			check: func(err error) bool { return errors.Is(err, ErrInvalidQuality) },
		},
		{
			name: "bad duration", key: "OXY_STAGE_READY_TIMEOUT", value: "soon",
			check: func(err error) bool { return strings.Contains(err.Error(), "parse env:") },
		},
		{
			name: "no workers", key: "OXY_STAGE_LOAD_WORKERS", value: "0",
			check: func(err error) bool { return strings.Contains(err.Error(), "load workers") },
		},
		{
			name: "timeout below interval", key: "OXY_STAGE_READY_TIMEOUT", value: "10ms",
			check: func(err error) bool { return strings.Contains(err.Error(), "shorter than") },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			if err == nil || !tt.check(err) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestQualityToggle(t *testing.T) {
	if QualityHigh.Toggle() != QualityLow || QualityLow.Toggle() != QualityHigh {
		t.Fatal("toggle should swap tiers")
	}
}
