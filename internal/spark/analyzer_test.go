package spark

import "testing"

func TestMergeClusters(t *testing.T) {
	// Two runs separated by 2 non-strong columns merge (gap == mergeGap).
	strong := []bool{false, true, true, false, false, true, false}
	got := mergeClusters(strong, 2)
	if len(got) != 1 || got[0].start != 1 || got[0].end != 5 {
		t.Fatalf("expected a single merged cluster [1,5], got %+v", got)
	}

	// Separated by more than the gap: stays two clusters.
	strong2 := []bool{false, true, true, false, false, false, true, false}
	got2 := mergeClusters(strong2, 2)
	if len(got2) != 2 {
		t.Fatalf("expected two distinct clusters, got %+v", got2)
	}

	if got3 := mergeClusters([]bool{false, false, false}, 2); got3 != nil {
		t.Fatalf("expected no clusters, got %+v", got3)
	}
}

func TestPercentile(t *testing.T) {
	data := []float64{10, 20, 30, 40, 50}
	scratch := make([]float64, len(data))
	if p := percentile(data, scratch, 0); p != 10 {
		t.Fatalf("expected min at p=0, got %v", p)
	}
	if p := percentile(data, scratch, 1); p != 50 {
		t.Fatalf("expected max at p=1, got %v", p)
	}
	// Original data must be unmodified by the sort of the scratch copy.
	if data[0] != 10 || data[4] != 50 {
		t.Fatalf("percentile must not mutate its input, got %v", data)
	}
}

func TestAnalyzer_FindBandRows_FallsBackWhenNoRunOfThree(t *testing.T) {
	a := &analyzer{}
	h := 6
	a.ensure(1, h)
	pattern := []byte{0, 255, 0, 255, 0, 255}
	copy(a.satV, pattern)
	start, end := a.findBandRows(h)
	if start != 0 || end != h-1 {
		t.Fatalf("expected fallback to the whole image, got [%d,%d]", start, end)
	}
}

func TestAnalyzer_FindBandRows_LocatesLongestRun(t *testing.T) {
	a := &analyzer{}
	h := 8
	w := 1
	a.ensure(w, h)
	pattern := []byte{0, 0, 200, 200, 200, 200, 0, 0}
	copy(a.satV, pattern)
	start, end := a.findBandRows(h)
	if start != 2 || end != 5 {
		t.Fatalf("expected band rows [2,5], got [%d,%d]", start, end)
	}
}

// buildBandFrame constructs a W=20,H=10 BGR frame with a uniform gray
// background (rows 0-2, 7-9) and a saturated red band (rows 3-6) whose
// luma steps up sharply at column 10 for three columns before stepping
// back down: a single clean spark cluster at columns [10,12].
func buildBandFrame() *Frame {
	w, h := 20, 10
	stride := w * 3
	pix := make([]byte, h*stride)
	for y := 0; y < h; y++ {
		inBand := y >= 3 && y <= 6
		for x := 0; x < w; x++ {
			i := y*stride + x*3
			if !inBand {
				pix[i], pix[i+1], pix[i+2] = 50, 50, 50 // B,G,R gray background
				continue
			}
			r := byte(150)
			if x >= 10 && x <= 12 {
				r = 230
			}
			pix[i], pix[i+1], pix[i+2] = 0, 0, r
		}
	}
	return &Frame{Width: w, Height: h, Stride: stride, Pix: pix, Format: FormatBGR}
}

func TestAnalyzer_AnalyzeLocatesBandAndSpark(t *testing.T) {
	a := &analyzer{}
	info := a.analyze(buildBandFrame())

	if info.bandRowStart != 3 || info.bandRowEnd != 6 {
		t.Fatalf("expected band rows [3,6], got [%d,%d]", info.bandRowStart, info.bandRowEnd)
	}
	if !info.sparkRaw {
		t.Fatalf("expected a spark to be detected")
	}
	if info.bandL != 10 || info.bandR != 12 {
		t.Fatalf("expected spark band [10,12], got [%d,%d]", info.bandL, info.bandR)
	}
	if info.sparkIdxRaw != 12 {
		t.Fatalf("expected SparkIdxRaw 12, got %d", info.sparkIdxRaw)
	}
	if info.energy != 162.0 {
		t.Fatalf("expected Energy 162.0, got %v", info.energy)
	}
	if info.nonSparkEnergy != 150.0 {
		t.Fatalf("expected NonSparkEnergy 150.0, got %v", info.nonSparkEnergy)
	}
}

func TestAnalyzer_NoSparkWhenFlat(t *testing.T) {
	w, h := 20, 10
	stride := w * 3
	pix := make([]byte, h*stride)
	for y := 0; y < h; y++ {
		inBand := y >= 3 && y <= 6
		for x := 0; x < w; x++ {
			i := y*stride + x*3
			if inBand {
				pix[i], pix[i+1], pix[i+2] = 0, 0, 150
			} else {
				pix[i], pix[i+1], pix[i+2] = 50, 50, 50
			}
		}
	}
	f := &Frame{Width: w, Height: h, Stride: stride, Pix: pix, Format: FormatBGR}

	a := &analyzer{}
	info := a.analyze(f)
	if info.sparkRaw {
		t.Fatalf("expected no spark on a flat band, got one at [%d,%d]", info.bandL, info.bandR)
	}
	if info.nonSparkEnergy != info.energy {
		t.Fatalf("expected NonSparkEnergy to fall back to Energy with no spark")
	}
}

func TestAnalyzer_GrayFormatHasZeroSaturation(t *testing.T) {
	w, h := 10, 4
	pix := make([]byte, h*w)
	for i := range pix {
		pix[i] = 120
	}
	f := &Frame{Width: w, Height: h, Stride: w, Pix: pix, Format: FormatGray}
	a := &analyzer{}
	info := a.analyze(f)
	for i, s := range a.satV {
		if s != 0 {
			t.Fatalf("expected zero saturation for gray input, got %d at sample %d", s, i)
		}
	}
	// Uniform gray: every row has the same (zero) saturation, so the band is
	// the whole image; uniform V, no jumps.
	if info.sparkRaw {
		t.Fatalf("uniform gray input must never report a spark")
	}
	if info.energy != 120 {
		t.Fatalf("expected Energy 120 for uniform gray input, got %v", info.energy)
	}
}
