package template

import (
	"errors"
	"image"

	"github.com/chr-visesky/skillbarcap/internal/config"
)

// Locate performs a multi-scale NCC template match driven by cfg, returning
// the top-left corner of the best match in frame coordinates, the scale
// factor it matched at, and whether it met cfg.Threshold. Mirrors the
// teacher's DetectTemplate, generalized from a single cast onto the
// arbitrary landmark template used to calibrate the ROI.
func Locate(frame *image.RGBA, tmpl image.Image, cfg *config.Config, cache *Cache) (x, y int, scale float64, ok bool, err error) {
	if frame == nil || tmpl == nil {
		return 0, 0, 0, false, errors.New("template: nil frame or template")
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	} else if err := cfg.Validate(); err != nil {
		return 0, 0, 0, false, err
	}
	ms := MatchMultiScale(frame, tmpl, MultiScaleOptions{
		MinScale:  cfg.MinScale,
		MaxScale:  cfg.MaxScale,
		ScaleStep: cfg.ScaleStep,
		NCC: Options{
			Threshold: cfg.Threshold,
			Stride:    cfg.Stride,
			Refine:    true,
		},
		StopOnScore: cfg.StopOnScore,
	}, cache)
	return ms.X, ms.Y, ms.Scale, ms.Found, nil
}
