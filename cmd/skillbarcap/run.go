package main

import (
	"flag"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/disintegration/imaging"

	"github.com/chr-visesky/skillbarcap/internal/config"
	"github.com/chr-visesky/skillbarcap/internal/report"
	"github.com/chr-visesky/skillbarcap/internal/roi"
	"github.com/chr-visesky/skillbarcap/internal/spark"
)

// runCmd classifies a directory of saved ROI PNG frames in filename order,
// the offline counterpart to the live subcommand.
func runCmd(args []string, cfg *config.Config, logger *slog.Logger) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	dir := fs.String("dir", ".", "directory of ROI PNG frames, processed in filename order")
	if err := fs.Parse(args); err != nil {
		return err
	}

	entries, err := os.ReadDir(*dir)
	if err != nil {
		return fmt.Errorf("run: reading %q: %w", *dir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".png" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	if len(names) == 0 {
		return fmt.Errorf("run: no .png frames found in %q", *dir)
	}

	det := spark.NewDetector(logger)
	var rec *report.Recorder
	if cfg.ReportEnabled {
		rec = report.NewRecorder()
	}

	for _, name := range names {
		f, err := os.Open(filepath.Join(*dir, name))
		if err != nil {
			return fmt.Errorf("run: opening %q: %w", name, err)
		}
		img, err := png.Decode(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("run: decoding %q: %w", name, err)
		}

		frame := roi.ToFrame(imaging.Clone(img))
		res, err := det.ProcessFrame(frame)
		if err != nil {
			return fmt.Errorf("run: processing %q: %w", name, err)
		}
		if rec != nil {
			rec.Record(res)
		}
		if res != nil {
			logger.Info("frame classified", "frame", name, "state", res.State.String(), "progress", res.Progress, "cycle_id", res.CycleID)
		}
	}

	if rec != nil {
		now := time.Now()
		if path, err := rec.SaveHTML(cfg.ReportDir, cfg.ReportFilenameLayout, now); err != nil {
			logger.Warn("failed to write HTML report", "error", err)
		} else {
			logger.Info("wrote HTML report", "path", path)
		}
		if path, err := rec.SaveCSV(cfg.ReportDir, cfg.ReportFilenameLayout, now); err != nil {
			logger.Warn("failed to write CSV report", "error", err)
		} else {
			logger.Info("wrote CSV report", "path", path)
		}
	}

	stats := det.Stats()
	logger.Info("run complete", "frames", stats.Frames, "cycles", stats.Cycles)
	return nil
}
