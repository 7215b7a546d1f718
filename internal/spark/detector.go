package spark

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Stats summarizes detector activity for instrumentation, in the shape of
// the teacher's capture-side CaptureStats.
type Stats struct {
	Frames            int
	Cycles            int
	LastCycleDuration time.Duration
}

// Detector is the public per-stream API: create_detector/process_frame/
// reset/destroy from spec §6, mapped onto Go idiom. Not safe for concurrent
// use; ProcessFrame must be called from a single goroutine, in capture
// order (spec §5).
type Detector struct {
	logger *slog.Logger

	analyzer analyzer
	win      window
	cs       coreState

	listeners []func(prev, next SparkState)
	newID     func() string

	stats          Stats
	cycleStartedAt time.Time
}

// NewDetector returns a detector ready to process a fresh stream. logger may
// be nil.
func NewDetector(logger *slog.Logger) *Detector {
	return &Detector{logger: logger, newID: uuid.NewString}
}

// AddListener registers a callback invoked after every committed state
// transition (i.e. whenever the carried-forward state differs from the
// prior tick's), mirroring FishingFSM.AddListener in the teacher repo.
func (d *Detector) AddListener(l func(prev, next SparkState)) {
	if l != nil {
		d.listeners = append(d.listeners, l)
	}
}

// Reset clears all per-stream state and scratch buffers, as if a new
// Detector had been constructed. Use between independent streams sharing
// one Detector instance instead of allocating a new one.
func (d *Detector) Reset() {
	d.analyzer = analyzer{}
	d.win = window{}
	d.cs = coreState{}
	d.stats = Stats{}
	d.cycleStartedAt = time.Time{}
}

// Close releases the detector's resources. The core retains no background
// work, so this only does what Reset does; it exists for symmetry with
// the conceptual create/process/reset/destroy API in spec §6.
func (d *Detector) Close() { d.Reset() }

// Stats reports frame/cycle counters accumulated since the last Reset.
func (d *Detector) Stats() Stats { return d.stats }

// ProcessFrame ingests one ROI frame and returns the classification for the
// frame ingested on the previous call (one-frame latency after the window fills),
// or (nil, nil) while the window is warming up or the input is invalid.
// Invalid/empty frames are rejected without advancing any state (spec §6,
// §7: "Empty/invalid input").
func (d *Detector) ProcessFrame(f *Frame) (*SparkResult, error) {
	if !f.valid() {
		return nil, nil
	}

	info := d.analyzer.analyze(f)
	ready := d.win.push(info, d.analyzer.gray, f.Width, f.Height)
	d.stats.Frames++
	if !ready {
		return nil, nil
	}

	prev, curr, next, prevGray, currGray, _ := d.win.triple()
	out := stepFSM(&d.cs, prev, curr, next, prevGray, currGray)

	if out.cycleStart {
		d.cs.cycleID = d.newID()
		d.cycleStartedAt = time.Now()
		d.stats.Cycles++
	}
	cycleID := d.cs.cycleID
	if out.nextState == Idle {
		if !d.cycleStartedAt.IsZero() {
			d.stats.LastCycleDuration = time.Since(d.cycleStartedAt)
			d.cycleStartedAt = time.Time{}
		}
		d.cs.cycleID = ""
	}

	if out.prevState != out.nextState {
		for _, l := range d.listeners {
			l(out.prevState, out.nextState)
		}
		if d.logger != nil {
			d.logger.Debug("spark state transition", "from", out.prevState.String(), "to", out.nextState.String())
		}
	}

	return &SparkResult{
		State:          out.state,
		Progress:       out.progress,
		IsFade50:       out.isFade50,
		SparkDetected:  out.sparkDetected,
		SparkIndex:     out.sparkIndex,
		BandLeft:       out.bandLeft,
		BandRight:      out.bandRight,
		Energy:         curr.energy,
		NonSparkEnergy: curr.nonSparkEnergy,
		CycleID:        cycleID,
	}, nil
}
