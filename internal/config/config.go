// Package config holds runtime configuration for the skillbarcap CLI and
// its run/live/calibrate subcommands. It follows the teacher's
// config.Config shape: a JSON-tagged struct, a DefaultConfig constructor,
// and a Validate method that clamps rather than errors.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config holds runtime configuration for a skillbarcap run. Fields are
// loaded from a JSON file (see Load); command-line flags do not override them.
type Config struct {
	Debug bool `json:"debug"`

	// ROI geometry, used by the live subcommand.
	ROIWidth  int `json:"roi_width"`
	ROIHeight int `json:"roi_height"`

	// Template matching (internal/template), used only by calibrate.
	MinScale    float64 `json:"min_scale"`
	MaxScale    float64 `json:"max_scale"`
	ScaleStep   float64 `json:"scale_step"`
	Threshold   float64 `json:"threshold"`
	Stride      int     `json:"stride"`
	StopOnScore float64 `json:"stop_on_score"`

	// Capture cadence for the live subcommand.
	CaptureFPS int `json:"capture_fps"`

	// Report (internal/report).
	ReportEnabled       bool   `json:"report_enabled"`
	ReportDir           string `json:"report_dir"`
	ReportFilenameLayout string `json:"report_filename_layout"`
}

// DefaultConfig returns a Config populated with standard defaults, the same
// values the teacher's DefaultConfig hard-codes for its own parameters.
func DefaultConfig() *Config {
	return &Config{
		Debug:                false,
		ROIWidth:             220,
		ROIHeight:            36,
		MinScale:             0.60,
		MaxScale:             1.40,
		ScaleStep:            0.05,
		Threshold:            0.80,
		Stride:               4,
		StopOnScore:          0.95,
		CaptureFPS:           30,
		ReportEnabled:        false,
		ReportDir:            ".",
		ReportFilenameLayout: "skillbarcap-%Y%m%d-%H%M%S",
	}
}

// Validate clamps out-of-range values to defaults rather than erroring, the
// way the teacher's Config.Validate does.
func (c *Config) Validate() error {
	if c.ROIWidth <= 0 {
		c.ROIWidth = 220
	}
	if c.ROIHeight <= 0 {
		c.ROIHeight = 36
	}
	if c.MinScale <= 0 {
		c.MinScale = 0.60
	}
	if c.MaxScale <= 0 || c.MaxScale < c.MinScale {
		c.MaxScale = c.MinScale + 0.80
	}
	if c.ScaleStep <= 0 {
		c.ScaleStep = 0.05
	}
	if span := c.MaxScale - c.MinScale; span > 0 && c.ScaleStep > span {
		c.ScaleStep = span / 4
	}
	if c.Threshold <= 0 || c.Threshold > 1 {
		c.Threshold = 0.80
	}
	if c.Stride <= 0 {
		c.Stride = 4
	}
	if c.StopOnScore < 0 || c.StopOnScore > 1 {
		c.StopOnScore = 0.95
	}
	if c.CaptureFPS <= 0 {
		c.CaptureFPS = 30
	}
	if c.ReportFilenameLayout == "" {
		c.ReportFilenameLayout = "skillbarcap-%Y%m%d-%H%M%S"
	}
	return nil
}

// Load reads a Config from path, defaulting and validating on any read or
// decode error rather than failing the caller outright.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %q: %w", path, err)
	}
	if err := json.Unmarshal(b, cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parsing config %q: %w", path, err)
	}
	cfg.Validate()
	return cfg, nil
}

// Save writes c to path as indented JSON.
func (c *Config) Save(path string) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("writing config %q: %w", path, err)
	}
	return nil
}
