package spark

import "sort"

// analyzer turns one ROI Frame into a frameInfo plus the grayscale buffer it
// computed along the way. All scratch buffers are owned here and resized
// lazily to the current ROI dimensions (spec §5, resource discipline); they
// are never retained beyond the call that filled them.
type analyzer struct {
	gray, satV, valV []byte
	rowMean          []float64
	colMean          []float64
	votes            []int
	strong           []bool
	percScratch      []float64
}

func (a *analyzer) ensure(w, h int) {
	n := w * h
	if cap(a.gray) < n {
		a.gray = make([]byte, n)
		a.satV = make([]byte, n)
		a.valV = make([]byte, n)
	}
	a.gray = a.gray[:n]
	a.satV = a.satV[:n]
	a.valV = a.valV[:n]
	if cap(a.rowMean) < h {
		a.rowMean = make([]float64, h)
	}
	a.rowMean = a.rowMean[:h]
	if cap(a.colMean) < w {
		a.colMean = make([]float64, w)
		a.votes = make([]int, w)
		a.strong = make([]bool, w)
		a.percScratch = make([]float64, w)
	}
	a.colMean = a.colMean[:w]
	a.votes = a.votes[:w]
	a.strong = a.strong[:w]
	a.percScratch = a.percScratch[:w]
}

// analyze computes the frameInfo for f. The returned grayscale samples live
// in a.gray and are only valid until the next call to analyze; callers that
// need to retain them (the three-frame window) must copy.
func (a *analyzer) analyze(f *Frame) frameInfo {
	w, h := f.Width, f.Height
	a.ensure(w, h)
	a.convert(f)

	bandStart, bandEnd := a.findBandRows(h)
	energy := a.bandEnergy(w, bandStart, bandEnd)
	sparkRaw, idx, bandL, bandR := a.detectSpark(w, bandStart, bandEnd)
	nonSpark := energy
	if sparkRaw {
		nonSpark = a.nonSparkEnergy(w, bandStart, bandEnd, bandL, bandR, energy)
	}

	info := emptyFrameInfo(w)
	info.bandRowStart, info.bandRowEnd = bandStart, bandEnd
	info.energy, info.nonSparkEnergy = energy, nonSpark
	if sparkRaw {
		info.sparkRaw = true
		info.sparkIdxRaw = idx
		info.bandL, info.bandR = bandL, bandR
	}
	return info
}

// convert fills gray, satV (HSV S) and valV (HSV V) for every pixel of f. A
// single-channel frame is treated as having zero saturation and V equal to
// the luma sample, which is equivalent to replicating it across B/G/R before
// conversion.
func (a *analyzer) convert(f *Frame) {
	w, h := f.Width, f.Height
	for y := 0; y < h; y++ {
		row := f.Pix[y*f.Stride:]
		off := y * w
		switch f.Format {
		case FormatGray:
			for x := 0; x < w; x++ {
				v := row[x]
				a.gray[off+x] = v
				a.valV[off+x] = v
				a.satV[off+x] = 0
			}
		case FormatBGR, FormatBGRA:
			step := 3
			if f.Format == FormatBGRA {
				step = 4
			}
			for x := 0; x < w; x++ {
				i := x * step
				bl, gr, rd := int(row[i]), int(row[i+1]), int(row[i+2])
				a.gray[off+x] = byte((299*rd + 587*gr + 114*bl) / 1000)
				mx, mn := rd, rd
				if gr > mx {
					mx = gr
				}
				if bl > mx {
					mx = bl
				}
				if gr < mn {
					mn = gr
				}
				if bl < mn {
					mn = bl
				}
				a.valV[off+x] = byte(mx)
				if mx > 0 {
					a.satV[off+x] = byte((mx - mn) * 255 / mx)
				} else {
					a.satV[off+x] = 0
				}
			}
		}
	}
}

// findBandRows locates the longest contiguous run of rows whose mean
// saturation is at least the midpoint between the frame's dimmest and
// brightest rows. Falls back to the whole image when no run of length >= 3
// exists (spec §4.1, §7 "degenerate band").
func (a *analyzer) findBandRows(h int) (int, int) {
	w := len(a.satV) / h
	minR, maxR := 256.0, -1.0
	for y := 0; y < h; y++ {
		sum := 0
		off := y * w
		for x := 0; x < w; x++ {
			sum += int(a.satV[off+x])
		}
		mean := float64(sum) / float64(w)
		a.rowMean[y] = mean
		if mean < minR {
			minR = mean
		}
		if mean > maxR {
			maxR = mean
		}
	}
	mid := (minR + maxR) / 2

	bestStart, bestLen := 0, 0
	runStart, runLen := -1, 0
	for y := 0; y < h; y++ {
		if a.rowMean[y] >= mid {
			if runStart < 0 {
				runStart = y
			}
			runLen++
			if runLen > bestLen {
				bestLen = runLen
				bestStart = runStart
			}
		} else {
			runStart, runLen = -1, 0
		}
	}
	if bestLen < 3 {
		return 0, h - 1
	}
	return bestStart, bestStart + bestLen - 1
}

func (a *analyzer) bandEnergy(w, start, end int) float64 {
	sum, cnt := 0.0, 0
	for y := start; y <= end; y++ {
		off := y * w
		for x := 0; x < w; x++ {
			sum += float64(a.valV[off+x])
			cnt++
		}
	}
	if cnt == 0 {
		return 0
	}
	return sum / float64(cnt)
}

type colRange struct{ start, end int }

// detectSpark locates the single bright moving edge on the band, if any.
// Returns ok=false whenever the evidence is ambiguous (spec §7: zero or
// multiple clusters, or an expansion narrower than two columns, are treated
// as "no spark", never as an error).
func (a *analyzer) detectSpark(w, bandStart, bandEnd int) (ok bool, idx, bandL, bandR int) {
	bandHeight := bandEnd - bandStart + 1
	ls := leftSkip(w)
	diffCols := w - 1
	if diffCols < 0 {
		diffCols = 0
	}
	for x := 0; x < diffCols; x++ {
		a.votes[x] = 0
	}
	for y := bandStart; y <= bandEnd; y++ {
		off := y * w
		for x := 0; x < diffCols; x++ {
			j := int(a.gray[off+x+1]) - int(a.gray[off+x])
			if j >= jumpThreshold {
				a.votes[x]++
			}
		}
	}
	for x := 0; x < diffCols && x < ls; x++ {
		a.votes[x] = 0
	}
	strongThresh := bandHeight/2 + 1
	for x := 0; x < diffCols; x++ {
		a.strong[x] = a.votes[x] >= strongThresh
	}

	clusters := mergeClusters(a.strong[:diffCols], mergeGap(w))
	if len(clusters) != 1 {
		return false, -1, -1, -1
	}
	seedCol := clusters[0].end + 1
	if seedCol < ls {
		return false, -1, -1, -1
	}
	if seedCol > w-1 {
		seedCol = w - 1
	}

	for x := 0; x < w; x++ {
		sum := 0
		for y := bandStart; y <= bandEnd; y++ {
			sum += int(a.valV[y*w+x])
		}
		a.colMean[x] = float64(sum) / float64(bandHeight)
	}
	q97 := percentile(a.colMean, a.percScratch, sparkExpandPercentile)
	L, R := seedCol, seedCol
	for L-1 >= ls && a.colMean[L-1] >= q97 {
		L--
	}
	for R+1 < w && a.colMean[R+1] >= q97 {
		R++
	}
	if R-L+1 < 2 {
		return false, -1, -1, -1
	}
	return true, R, L, R
}

// mergeClusters groups contiguous true runs in strong, merging two runs
// separated by at most gap false columns into one.
func mergeClusters(strong []bool, gap int) []colRange {
	var runs []colRange
	x := 0
	for x < len(strong) {
		if !strong[x] {
			x++
			continue
		}
		start := x
		for x < len(strong) && strong[x] {
			x++
		}
		runs = append(runs, colRange{start, x - 1})
	}
	if len(runs) == 0 {
		return nil
	}
	merged := []colRange{runs[0]}
	for i := 1; i < len(runs); i++ {
		last := &merged[len(merged)-1]
		between := runs[i].start - last.end - 1
		if between <= gap {
			last.end = runs[i].end
		} else {
			merged = append(merged, runs[i])
		}
	}
	return merged
}

func (a *analyzer) nonSparkEnergy(w, bandStart, bandEnd, bandL, bandR int, fallback float64) float64 {
	sum, cnt := 0.0, 0
	for y := bandStart; y <= bandEnd; y++ {
		off := y * w
		for x := 0; x < bandL; x++ {
			sum += float64(a.valV[off+x])
			cnt++
		}
		for x := bandR + 1; x < w; x++ {
			sum += float64(a.valV[off+x])
			cnt++
		}
	}
	if cnt == 0 {
		return fallback
	}
	return sum / float64(cnt)
}

// percentile returns the p-quantile (0..1) of data as the sorted element at
// index p*(n-1) rounded to the nearest integer, using an in-place sort of a
// scratch copy. Acceptable for the small
// per-frame widths this detector sees; a selection algorithm would be
// needed if ROI width grows into the thousands.
func percentile(data, scratch []float64, p float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}
	copy(scratch[:n], data)
	sort.Float64s(scratch[:n])
	idx := int(p*float64(n-1) + 0.5)
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return scratch[idx]
}
