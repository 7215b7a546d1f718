package spark

import "testing"

func makeGrayFrame(w, h int, level byte) *Frame {
	pix := make([]byte, w*h)
	for i := range pix {
		pix[i] = level
	}
	return &Frame{Width: w, Height: h, Stride: w, Pix: pix, Format: FormatGray}
}

// makeSparkFrame builds the same band-plus-spark BGR layout as
// buildBandFrame, with the three bright spike columns starting at spikeAt
// and a uniform background level elsewhere.
func makeSparkFrame(w, h, spikeAt int, background byte) *Frame {
	stride := w * 3
	pix := make([]byte, h*stride)
	for y := 0; y < h; y++ {
		inBand := y >= 3 && y <= 6
		for x := 0; x < w; x++ {
			i := y*stride + x*3
			if !inBand {
				pix[i], pix[i+1], pix[i+2] = 50, 50, 50
				continue
			}
			r := background
			if x >= spikeAt && x < spikeAt+3 {
				r = 230
			}
			pix[i], pix[i+1], pix[i+2] = 0, 0, r
		}
	}
	return &Frame{Width: w, Height: h, Stride: stride, Pix: pix, Format: FormatBGR}
}

func TestDetector_RejectsInvalidFrame(t *testing.T) {
	d := NewDetector(nil)
	res, err := d.ProcessFrame(&Frame{})
	if err != nil || res != nil {
		t.Fatalf("expected (nil, nil) for an invalid frame, got (%v, %v)", res, err)
	}
	if d.Stats().Frames != 0 {
		t.Fatalf("an invalid frame must not advance the frame counter")
	}
}

func TestDetector_WarmupLatency(t *testing.T) {
	d := NewDetector(nil)
	f := makeGrayFrame(20, 10, 150)

	res1, err1 := d.ProcessFrame(f)
	res2, err2 := d.ProcessFrame(f)
	if err1 != nil || err2 != nil || res1 != nil || res2 != nil {
		t.Fatalf("expected nil results while the 3-frame window warms up, got %v, %v", res1, res2)
	}
	res3, err3 := d.ProcessFrame(f)
	if err3 != nil || res3 == nil {
		t.Fatalf("expected a result on the third frame, got (%v, %v)", res3, err3)
	}
	if d.Stats().Frames != 3 {
		t.Fatalf("expected 3 frames counted, got %d", d.Stats().Frames)
	}
}

func TestDetector_FullCycleTransitionsAndResets(t *testing.T) {
	var transitions [][2]SparkState
	d := NewDetector(nil)
	d.AddListener(func(prev, next SparkState) {
		transitions = append(transitions, [2]SparkState{prev, next})
	})

	w, h := 20, 10
	var frames []*Frame
	for i := 0; i < 2; i++ {
		frames = append(frames, makeGrayFrame(w, h, 150))
	}
	for x := 9; x <= 16; x++ {
		frames = append(frames, makeSparkFrame(w, h, x, 150))
	}
	for i := 0; i < 2; i++ {
		frames = append(frames, makeGrayFrame(w, h, 150)) // Fill -> TurnLight
	}
	frames = append(frames, makeGrayFrame(w, h, 150)) // plateau
	frames = append(frames, makeGrayFrame(w, h, 200)) // peak
	frames = append(frames, makeGrayFrame(w, h, 180))
	frames = append(frames, makeGrayFrame(w, h, 160))
	frames = append(frames, makeGrayFrame(w, h, 140)) // <= baseline 150: Fade terminates
	for i := 0; i < 3; i++ {
		frames = append(frames, makeGrayFrame(w, h, 150))
	}

	var results []*SparkResult
	for _, f := range frames {
		res, err := d.ProcessFrame(f)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res != nil {
			results = append(results, res)
		}
	}

	var sawFill, sawTurnLight, sawFade, sawFade50 bool
	var fillCycleID string
	fadeIdx := -1
	for i, r := range results {
		switch r.State {
		case Fill:
			sawFill = true
			if r.CycleID == "" {
				t.Fatalf("result %d: Fill must carry a non-empty CycleID", i)
			}
			fillCycleID = r.CycleID
		case TurnLight:
			sawTurnLight = true
			if r.CycleID != fillCycleID {
				t.Fatalf("result %d: TurnLight CycleID %q should match Fill's %q", i, r.CycleID, fillCycleID)
			}
		case Fade:
			sawFade = true
			fadeIdx = i
			if r.CycleID != fillCycleID {
				t.Fatalf("result %d: Fade CycleID %q should match Fill's %q", i, r.CycleID, fillCycleID)
			}
			if r.IsFade50 {
				sawFade50 = true
			}
		}
	}
	if !sawFill || !sawTurnLight || !sawFade {
		t.Fatalf("expected to observe Fill, TurnLight and Fade, got sequence %+v", statesOf(results))
	}
	if !sawFade50 {
		t.Fatalf("expected one Fade result with IsFade50 set, got sequence %+v", statesOf(results))
	}

	last := results[len(results)-1]
	if last.State != Idle || last.CycleID != "" {
		t.Fatalf("expected the stream to settle back in Idle with no CycleID, got state=%v cycleID=%q", last.State, last.CycleID)
	}
	if fadeIdx < 0 || fadeIdx >= len(results)-1 {
		t.Fatalf("expected at least one result after Fade before the stream settles")
	}

	if d.Stats().Cycles != 1 {
		t.Fatalf("expected exactly one cycle counted, got %d", d.Stats().Cycles)
	}
	if d.Stats().Frames != len(frames) {
		t.Fatalf("expected %d frames counted, got %d", len(frames), d.Stats().Frames)
	}

	changes := 0
	for i := 1; i < len(results); i++ {
		if results[i].State != results[i-1].State {
			changes++
		}
	}
	if len(transitions) != changes {
		t.Fatalf("expected listener to fire once per observed state change (%d), fired %d times", changes, len(transitions))
	}
}

func statesOf(results []*SparkResult) []SparkState {
	out := make([]SparkState, len(results))
	for i, r := range results {
		out[i] = r.State
	}
	return out
}

func TestDetector_ResetClearsState(t *testing.T) {
	d := NewDetector(nil)
	f := makeGrayFrame(10, 6, 150)
	for i := 0; i < 5; i++ {
		d.ProcessFrame(f)
	}
	d.Reset()
	if d.Stats() != (Stats{}) {
		t.Fatalf("expected Stats to be zeroed after Reset, got %+v", d.Stats())
	}
	res, _ := d.ProcessFrame(f)
	if res != nil {
		t.Fatalf("expected the window to need to refill after Reset, got %v", res)
	}
}
