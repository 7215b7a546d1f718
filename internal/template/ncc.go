// Package template locates a cast-bar ROI inside a captured window image by
// multi-scale normalized cross-correlation against a saved landmark
// template. It is offline tooling for the calibrate subcommand; the core
// detector (internal/spark) never imports it and never performs template
// matching.
package template

import (
	"image"
	"math"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// grayPrecomp stores per-frame grayscale values and their summed-area
// tables (integral images), giving O(1) window sum/variance queries.
type grayPrecomp struct {
	gray       []float64
	integral   []float64
	integralSq []float64
	w, h       int
}

// templatePrecomp caches grayscale pixels and summary statistics for a
// template, or a scaled version of it.
type templatePrecomp struct {
	gray  []float32
	w, h  int
	meanT float64
	stdT  float64
}

// cacheKey identifies a templatePrecomp by the dimensions it was built at,
// the same keying the teacher uses for its map-based cache.
type cacheKey struct{ w, h int }

// Cache replaces the teacher's tmplCacheByDim (a mutex-guarded map with no
// eviction) with a bounded LRU, so long calibration sessions sweeping many
// scale factors cannot grow the cache without limit.
type Cache struct {
	lru *lru.Cache[cacheKey, *templatePrecomp]
}

// NewCache returns a Cache holding up to size precomputed template scales.
func NewCache(size int) *Cache {
	if size < 1 {
		size = 1
	}
	c, _ := lru.New[cacheKey, *templatePrecomp](size)
	return &Cache{lru: c}
}

func (c *Cache) base(tmpl image.Image) *templatePrecomp {
	b := tmpl.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil
	}
	key := cacheKey{w, h}
	if pc, ok := c.lru.Get(key); ok {
		return pc
	}
	pc := buildTemplatePrecomp(tmpl)
	c.lru.Add(key, pc)
	return pc
}

func (c *Cache) scaled(base *templatePrecomp, factor float64) *templatePrecomp {
	if base == nil || factor <= 0 {
		return nil
	}
	if factor == 1.0 {
		return base
	}
	w := int(float64(base.w) * factor)
	h := int(float64(base.h) * factor)
	if w < 2 || h < 2 {
		return nil
	}
	key := cacheKey{w, h}
	if pc, ok := c.lru.Get(key); ok {
		return pc
	}
	pc := resizeTemplatePrecomp(base, w, h)
	c.lru.Add(key, pc)
	return pc
}

func buildTemplatePrecomp(tmpl image.Image) *templatePrecomp {
	b := tmpl.Bounds()
	w, h := b.Dx(), b.Dy()
	gray := make([]float32, w*h)
	var sumT, sumT2 float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, a := tmpl.At(b.Min.X+x, b.Min.Y+y).RGBA()
			if a == 0 {
				continue
			}
			gval := 0.2126*float64(r) + 0.7152*float64(g) + 0.0722*float64(bl)
			gray[y*w+x] = float32(gval)
			sumT += gval
			sumT2 += gval * gval
		}
	}
	return finishPrecomp(gray, w, h, sumT, sumT2)
}

func resizeTemplatePrecomp(base *templatePrecomp, w, h int) *templatePrecomp {
	gray := make([]float32, w*h)
	var sumT, sumT2 float64
	fx := float64(base.w) / float64(w)
	fy := float64(base.h) / float64(h)
	for y := 0; y < h; y++ {
		ys := clampf((float64(y)+0.5)*fy-0.5, 0, float64(base.h-1))
		y0 := int(math.Floor(ys))
		y1 := y0 + 1
		if y1 >= base.h {
			y1 = base.h - 1
		}
		dy := ys - float64(y0)
		for x := 0; x < w; x++ {
			xs := clampf((float64(x)+0.5)*fx-0.5, 0, float64(base.w-1))
			x0 := int(math.Floor(xs))
			x1 := x0 + 1
			if x1 >= base.w {
				x1 = base.w - 1
			}
			dx := xs - float64(x0)
			wx0, wx1 := 1-dx, dx
			g00 := base.gray[y0*base.w+x0]
			g10 := base.gray[y0*base.w+x1]
			g01 := base.gray[y1*base.w+x0]
			g11 := base.gray[y1*base.w+x1]
			top := float64(g00)*wx0 + float64(g10)*wx1
			bottom := float64(g01)*wx0 + float64(g11)*wx1
			gval := float32(top*(1-dy) + bottom*dy)
			gray[y*w+x] = gval
			sumT += float64(gval)
			sumT2 += float64(gval) * float64(gval)
		}
	}
	return finishPrecomp(gray, w, h, sumT, sumT2)
}

func finishPrecomp(gray []float32, w, h int, sumT, sumT2 float64) *templatePrecomp {
	n := float64(w * h)
	meanT := sumT / n
	varT := (sumT2 - sumT*sumT/n) / n
	stdT := 0.0
	if varT > 0 {
		stdT = math.Sqrt(varT)
	}
	return &templatePrecomp{gray: gray, w: w, h: h, meanT: meanT, stdT: stdT}
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func buildGrayPrecomp(frame *image.RGBA) *grayPrecomp {
	b := frame.Bounds()
	w, h := b.Dx(), b.Dy()
	p := &grayPrecomp{gray: make([]float64, w*h), integral: make([]float64, w*h), integralSq: make([]float64, w*h), w: w, h: h}
	for y := 0; y < h; y++ {
		var rowSum, rowSum2 float64
		for x := 0; x < w; x++ {
			r, g, bl, a := frame.At(b.Min.X+x, b.Min.Y+y).RGBA()
			var gray float64
			if a != 0 {
				gray = 0.2126*float64(r) + 0.7152*float64(g) + 0.0722*float64(bl)
			}
			off := y*w + x
			p.gray[off] = gray
			rowSum += gray
			rowSum2 += gray * gray
			if y == 0 {
				p.integral[off] = rowSum
				p.integralSq[off] = rowSum2
			} else {
				p.integral[off] = p.integral[(y-1)*w+x] + rowSum
				p.integralSq[off] = p.integralSq[(y-1)*w+x] + rowSum2
			}
		}
	}
	return p
}

func integralSum(I []float64, w, x0, y0, x1, y1 int) float64 {
	if x0 > x1 || y0 > y1 {
		return 0
	}
	at := func(x, y int) float64 {
		if x < 0 || y < 0 {
			return 0
		}
		return I[y*w+x]
	}
	return at(x1, y1) - at(x0-1, y1) - at(x1, y0-1) + at(x0-1, y0-1)
}

// Options configures a single-scale NCC search.
type Options struct {
	Threshold      float64
	Stride         int
	Refine         bool
	ReturnBestEven bool
	DebugTiming    bool
}

// Result holds the outcome of a template match.
type Result struct {
	X, Y  int
	Score float64
	Found bool
	Dur   time.Duration
}

func matchOneScale(frame *image.RGBA, pc *templatePrecomp, opts Options, pre *grayPrecomp) Result {
	start := time.Now()
	res := Result{Score: -1}
	fb := frame.Bounds()
	W, H := fb.Dx(), fb.Dy()
	w, h := pc.w, pc.h
	if w == 0 || h == 0 || W < w || H < h {
		return res
	}
	n := float64(w * h)
	meanT, stdT := pc.meanT, pc.stdT
	if stdT <= 1e-9 {
		return res
	}
	stride := opts.Stride
	if stride <= 0 {
		stride = 1
	}
	bestX, bestY, bestScore := 0, 0, -1.0
	search := func(minX, minY, maxX, maxY, step int) {
		for y := minY; y <= maxY; y += step {
			for x := minX; x <= maxX; x += step {
				sumF := integralSum(pre.integral, pre.w, x, y, x+w-1, y+h-1)
				sumF2 := integralSum(pre.integralSq, pre.w, x, y, x+w-1, y+h-1)
				meanF := sumF / n
				varF := (sumF2 - sumF*sumF/n) / n
				if varF <= 1e-9 {
					continue
				}
				stdF := math.Sqrt(varF)
				var sumFT float64
				for i := 0; i < len(pc.gray); i++ {
					py, px := i/w, i%w
					sumFT += pre.gray[(y+py)*W+(x+px)] * float64(pc.gray[i])
				}
				numer := sumFT - n*meanF*meanT
				denom := n * stdF * stdT
				if denom <= 0 {
					continue
				}
				if score := numer / denom; score > bestScore {
					bestScore, bestX, bestY = score, x, y
				}
			}
		}
	}
	search(0, 0, W-w, H-h, stride)
	if opts.Refine && stride > 1 {
		search(max0(bestX-stride), max0(bestY-stride), min(W-w, bestX+stride), min(H-h, bestY+stride), 1)
	}
	res.X, res.Y, res.Score = bestX+fb.Min.X, bestY+fb.Min.Y, bestScore
	res.Found = bestScore >= opts.Threshold
	if opts.DebugTiming {
		res.Dur = time.Since(start)
	}
	return res
}

func max0(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
