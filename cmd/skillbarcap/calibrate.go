package main

import (
	"flag"
	"fmt"
	"image/png"
	"log/slog"
	"os"

	"github.com/vova616/screenshot"

	"github.com/chr-visesky/skillbarcap/internal/config"
	"github.com/chr-visesky/skillbarcap/internal/template"
)

// calibrateCmd locates the cast-bar ROI inside a fresh screenshot by
// multi-scale NCC against a saved landmark template, the offline sibling
// of the live capture path's region-of-interest geometry (spec §1, "fitting
// the cast-bar rectangle within a window from red-orb landmarks").
func calibrateCmd(args []string, cfg *config.Config, logger *slog.Logger) error {
	fs := flag.NewFlagSet("calibrate", flag.ExitOnError)
	templatePath := fs.String("template", "", "path to a PNG landmark template")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *templatePath == "" {
		return fmt.Errorf("calibrate: -template is required")
	}

	tf, err := os.Open(*templatePath)
	if err != nil {
		return fmt.Errorf("calibrate: opening template %q: %w", *templatePath, err)
	}
	defer tf.Close()
	tmpl, err := png.Decode(tf)
	if err != nil {
		return fmt.Errorf("calibrate: decoding template %q: %w", *templatePath, err)
	}

	bounds := screenshot.GetDisplayBounds(0)
	frame, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return fmt.Errorf("calibrate: capturing screen: %w", err)
	}

	cache := template.NewCache(64)
	x, y, scale, found, err := template.Locate(frame, tmpl, cfg, cache)
	if err != nil {
		return fmt.Errorf("calibrate: locating template: %w", err)
	}
	if !found {
		logger.Warn("no match above threshold", "threshold", cfg.Threshold)
		return nil
	}
	logger.Info("located cast-bar landmark", "x", x, "y", y, "scale", scale)
	return nil
}
