package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidate_ClampsOutOfRangeValues(t *testing.T) {
	c := &Config{MaxScale: 0.1, MinScale: 0.5, Threshold: 2, Stride: 0, CaptureFPS: -1}
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.MaxScale <= c.MinScale {
		t.Fatalf("expected MaxScale to be clamped above MinScale, got min=%v max=%v", c.MinScale, c.MaxScale)
	}
	if c.Threshold != 0.80 {
		t.Fatalf("expected Threshold to be clamped to default, got %v", c.Threshold)
	}
	if c.Stride != 4 {
		t.Fatalf("expected Stride to be clamped to default, got %v", c.Stride)
	}
	if c.CaptureFPS != 30 {
		t.Fatalf("expected CaptureFPS to be clamped to default, got %v", c.CaptureFPS)
	}
}

func TestLoad_FallsBackToDefaultsOnMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Fatalf("expected an error reporting the missing file")
	}
	if cfg == nil || cfg.ROIWidth != DefaultConfig().ROIWidth {
		t.Fatalf("expected default config on load failure, got %+v", cfg)
	}
}

func TestSaveThenLoad_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	want := DefaultConfig()
	want.Debug = true
	want.ROIWidth = 300
	if err := want.Save(path); err != nil {
		t.Fatalf("unexpected error saving: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config file to exist: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error loading: %v", err)
	}
	if !got.Debug || got.ROIWidth != 300 {
		t.Fatalf("expected round-tripped config, got %+v", got)
	}
}
