// Command skillbarcap classifies cast-bar lifecycle frames. It has three
// subcommands: run (classify a directory of saved ROI PNGs), live
// (classify a live screen region) and calibrate (locate the cast-bar ROI
// in a window screenshot from a saved landmark template).
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/chr-visesky/skillbarcap/internal/config"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfgPath := "skillbarcap_config.json"
	cfg, err := config.Load(cfgPath)
	var loadWarn error
	if err != nil {
		loadWarn = err
	}

	loglevel := slog.LevelInfo
	if cfg.Debug {
		loglevel = slog.LevelDebug
	}
	logger := NewLogger(loglevel)
	if loadWarn != nil {
		logger.Warn("failed to load config; using defaults", "path", cfgPath, "error", loadWarn)
	}

	var runErr error
	switch os.Args[1] {
	case "run":
		runErr = runCmd(os.Args[2:], cfg, logger)
	case "live":
		runErr = liveCmd(os.Args[2:], cfg, logger)
	case "calibrate":
		runErr = calibrateCmd(os.Args[2:], cfg, logger)
	default:
		usage()
		os.Exit(2)
	}
	if runErr != nil {
		logger.Error("command failed", "error", runErr)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: skillbarcap <run|live|calibrate> [flags]")
}
