// Package spark implements the spark-driven cast-bar state machine: given a
// stream of small cast-bar ROI frames it detects the bar's horizontal band,
// localizes the moving bright spark on it, and emits one lifecycle
// classification per frame with one-frame latency.
//
// The detector is single-threaded and not reentrant: ProcessFrame must be
// called from one goroutine at a time, in capture order. Each stream gets
// its own *Detector.
package spark

import "fmt"

// PixelFormat names the channel layout of an input Frame.
type PixelFormat int

const (
	// FormatGray is single-channel luma.
	FormatGray PixelFormat = iota
	// FormatBGR is three-channel, blue-green-red byte order.
	FormatBGR
	// FormatBGRA is four-channel, blue-green-red-alpha byte order.
	FormatBGRA
)

func (f PixelFormat) channels() int {
	switch f {
	case FormatGray:
		return 1
	case FormatBGR:
		return 3
	case FormatBGRA:
		return 4
	default:
		return 0
	}
}

func (f PixelFormat) String() string {
	switch f {
	case FormatGray:
		return "gray"
	case FormatBGR:
		return "bgr"
	case FormatBGRA:
		return "bgra"
	default:
		return "unknown"
	}
}

// Frame is one ROI image: a 2-D pixel buffer of byte samples in Format's
// channel layout. Stride is bytes per row and may exceed Width times the
// channel count; Pix must hold at least Height*Stride bytes.
type Frame struct {
	Width, Height int
	Stride        int
	Pix           []byte
	Format        PixelFormat
}

func (f *Frame) valid() bool {
	if f == nil || f.Width <= 0 || f.Height <= 0 {
		return false
	}
	ch := f.Format.channels()
	if ch == 0 {
		return false
	}
	need := f.Width * ch
	if f.Stride < need {
		return false
	}
	return len(f.Pix) >= f.Height*f.Stride
}

// SparkState enumerates the cast-bar lifecycle phases.
type SparkState int

const (
	Idle SparkState = iota
	Fill
	TurnLight
	Fade
)

func (s SparkState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Fill:
		return "fill"
	case TurnLight:
		return "turnlight"
	case Fade:
		return "fade"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// frameInfo is the per-frame measurement computed by the analyzer. It is
// immutable once returned from analyze.
type frameInfo struct {
	bandRowStart, bandRowEnd int
	sparkRaw                 bool
	sparkIdxRaw              int
	bandL, bandR             int
	energy                   float64
	nonSparkEnergy           float64
	width                    int
}

func emptyFrameInfo(width int) frameInfo {
	return frameInfo{sparkIdxRaw: -1, bandL: -1, bandR: -1, width: width}
}

// SparkResult is the per-frame output of the detector, emitted one tick
// behind the frame it describes (see Detector.ProcessFrame).
type SparkResult struct {
	State         SparkState
	Progress      float64
	IsFade50      bool
	SparkDetected bool
	SparkIndex    int
	BandLeft      int
	BandRight     int
	// Energy and NonSparkEnergy are the raw band energies behind State and
	// Progress, exposed read-only for diagnostics and reporting tools; the
	// state machine itself never recomputes from these once emitted.
	Energy         float64
	NonSparkEnergy float64
	// CycleID identifies the Idle->Fill run this result belongs to, so a
	// caller correlating logs or reports across a long stream does not have
	// to re-derive cycle boundaries from Idle transitions itself.
	CycleID string
}
