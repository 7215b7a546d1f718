package main

import (
	"flag"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/disintegration/imaging"
	"github.com/vova616/screenshot"

	"github.com/chr-visesky/skillbarcap/internal/config"
	"github.com/chr-visesky/skillbarcap/internal/report"
	"github.com/chr-visesky/skillbarcap/internal/roi"
	"github.com/chr-visesky/skillbarcap/internal/spark"
)

// liveCmd repeatedly captures a screen rectangle and feeds it into the
// detector, the live counterpart to run. Driven by a plain time.Ticker in
// the shape of the teacher's presenter.Loop.Tick, generalized from a UI
// frame-pump to a headless capture loop.
func liveCmd(args []string, cfg *config.Config, logger *slog.Logger) error {
	fs := flag.NewFlagSet("live", flag.ExitOnError)
	x := fs.Int("x", 0, "capture rectangle left")
	y := fs.Int("y", 0, "capture rectangle top")
	ticks := fs.Int("ticks", 0, "number of captures to run; 0 means unbounded")
	if err := fs.Parse(args); err != nil {
		return err
	}

	w, h := cfg.ROIWidth, cfg.ROIHeight
	rect := image.Rect(*x, *y, *x+w, *y+h)

	det := spark.NewDetector(logger)
	det.AddListener(func(prev, next spark.SparkState) {
		logger.Info("state transition", "from", prev.String(), "to", next.String())
	})
	var rec *report.Recorder
	if cfg.ReportEnabled {
		rec = report.NewRecorder()
	}

	interval := time.Second / time.Duration(cfg.CaptureFPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	count := 0
	for range ticker.C {
		shot, err := screenshot.CaptureRect(rect)
		if err != nil {
			return fmt.Errorf("live: capturing screen: %w", err)
		}
		frame := roi.ToFrame(imaging.Clone(shot))
		res, err := det.ProcessFrame(frame)
		if err != nil {
			return fmt.Errorf("live: processing frame: %w", err)
		}
		if rec != nil {
			rec.Record(res)
		}
		count++
		if *ticks > 0 && count >= *ticks {
			break
		}
	}

	if rec != nil {
		now := time.Now()
		if path, err := rec.SaveCSV(cfg.ReportDir, cfg.ReportFilenameLayout, now); err != nil {
			logger.Warn("failed to write CSV report", "error", err)
		} else {
			logger.Info("wrote CSV report", "path", path)
		}
	}
	return nil
}
