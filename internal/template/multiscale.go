package template

import (
	"image"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// MultiScaleOptions configures multi-scale template matching. If Scales is
// empty, factors are generated from MinScale..MaxScale stepping by
// ScaleStep, the way the teacher's MultiScaleOptions does.
type MultiScaleOptions struct {
	Scales      []float64
	NCC         Options
	StopOnScore float64
	MinScale    float64
	MaxScale    float64
	ScaleStep   float64
}

// MultiScaleResult is the best match found across scales.
type MultiScaleResult struct {
	X, Y            int
	Score           float64
	Scale           float64
	Found           bool
	Duration        time.Duration
	ScalesEvaluated int
}

// MatchMultiScale evaluates the template at multiple scales in parallel,
// caching each scaled template in cache, and returns the best match.
func MatchMultiScale(frame *image.RGBA, tmpl image.Image, opts MultiScaleOptions, cache *Cache) MultiScaleResult {
	if frame == nil || tmpl == nil {
		return MultiScaleResult{}
	}
	base := cache.base(tmpl)
	if base == nil {
		return MultiScaleResult{}
	}
	preGray := buildGrayPrecomp(frame)

	scales := opts.Scales
	if len(scales) == 0 && opts.MinScale > 0 && opts.MaxScale > 0 && opts.ScaleStep > 0 && opts.MaxScale >= opts.MinScale {
		maxSteps := 1 + int((opts.MaxScale-opts.MinScale)/opts.ScaleStep+0.5)
		if maxSteps > 200 {
			maxSteps = 200
		}
		for s := opts.MinScale; s <= opts.MaxScale+1e-9 && len(scales) < maxSteps; s += opts.ScaleStep {
			scales = append(scales, s)
		}
	}

	var earlyStop int32
	results := make(chan MultiScaleResult, len(scales))
	var wg sync.WaitGroup
	sem := make(chan struct{}, runtime.NumCPU())
	var scalesCount uint64

	for _, factor := range scales {
		if factor <= 0 {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(factor float64) {
			defer wg.Done()
			defer func() { <-sem }()
			if atomic.LoadInt32(&earlyStop) == 1 {
				return
			}
			pc := cache.scaled(base, factor)
			if pc == nil {
				return
			}
			res := matchOneScale(frame, pc, opts.NCC, preGray)
			msr := MultiScaleResult{X: res.X, Y: res.Y, Score: res.Score, Scale: factor, Found: res.Found}
			atomic.AddUint64(&scalesCount, 1)
			if opts.StopOnScore > 0 && res.Score >= opts.StopOnScore {
				if atomic.CompareAndSwapInt32(&earlyStop, 0, 1) {
					results <- msr
				}
				return
			}
			results <- msr
		}(factor)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	best := MultiScaleResult{Score: -1}
	start := time.Now()
	for r := range results {
		if r.Score > best.Score {
			best = r
		}
	}
	best.Duration = time.Since(start)
	best.ScalesEvaluated = int(atomic.LoadUint64(&scalesCount))
	return best
}
