package spark

// coreState is the process-wide, single-instance-per-stream mutable state
// driving the four-state machine (spec §3). It is owned exclusively by one
// Detector; there are no globals.
type coreState struct {
	state SparkState

	maxSparkX int

	hasLastSpark            bool
	lastSparkNonSparkEnergy float64

	hasNoSparkBaseline     bool
	baselineNonSparkEnergy float64
	baselineRowStart       int
	baselineRowEnd         int
	baselineGray           grayFrame

	cycleID string
}

func (cs *coreState) clearCycleCaches() {
	cs.maxSparkX = 0
	cs.hasLastSpark = false
	cs.lastSparkNonSparkEnergy = 0
	cs.hasNoSparkBaseline = false
	cs.baselineNonSparkEnergy = 0
	cs.baselineRowStart, cs.baselineRowEnd = 0, 0
}

// fsmOutput is everything stepFSM computes for one tick, before the cycle ID
// and listener bookkeeping that Detector layers on top.
type fsmOutput struct {
	state         SparkState
	progress      float64
	isFade50      bool
	sparkDetected bool
	sparkIndex    int
	bandLeft      int
	bandRight     int
	prevState     SparkState
	nextState     SparkState
	cycleStart    bool
}

// stepFSM runs one transition of the state machine over the (prev, curr,
// next) window and mutates cs in place. The returned output describes the
// label for curr (fsmOutput.state) and the state the machine carries
// forward (fsmOutput.nextState); see spec §4.3 for why these may differ.
func stepFSM(cs *coreState, prev, curr, next frameInfo, prevGray, currGray *grayFrame) fsmOutput {
	prevState := cs.state

	// Confirmed-absence rule (spec §4.3): curr has no spark only if neither
	// curr nor next saw one. A single missed frame bracketed by real spark
	// frames on both sides never ends Fill.
	confirmedAbsent := !curr.sparkRaw && !next.sparkRaw
	effectiveSpark := false
	effIdx, effL, effR := -1, -1, -1
	switch {
	case curr.sparkRaw:
		effectiveSpark = true
		effIdx, effL, effR = curr.sparkIdxRaw, curr.bandL, curr.bandR
	case !confirmedAbsent && prev.sparkRaw:
		effectiveSpark = true
		effIdx, effL, effR = prev.sparkIdxRaw, prev.bandL, prev.bandR
	}

	var out fsmOutput
	out.sparkDetected = effectiveSpark
	out.sparkIndex, out.bandLeft, out.bandRight = effIdx, effL, effR

	switch {
	case effectiveSpark:
		if effIdx > cs.maxSparkX {
			cs.maxSparkX = effIdx
		}
		cs.hasLastSpark = true
		cs.lastSparkNonSparkEnergy = curr.nonSparkEnergy
		cs.hasNoSparkBaseline = false
		out.state = Fill
		out.nextState = Fill
		out.cycleStart = prevState == Idle

	case cs.state == Idle:
		out.state = Idle
		out.nextState = Idle
		cs.clearCycleCaches()

	case cs.state == Fill:
		if !cs.hasLastSpark {
			// Defensive: invariant says this can't happen. Self-heal to Idle.
			out.state = Idle
			out.nextState = Idle
			cs.clearCycleCaches()
			break
		}
		last := cs.lastSparkNonSparkEnergy
		cN, nN := curr.nonSparkEnergy, next.nonSparkEnergy
		nonDecreasing := cN >= last-energyEps && nN >= cN-energyEps
		strictlyDecreasing := cN < last-energyEps && nN < cN-energyEps
		switch {
		case nonDecreasing:
			cacheBaseline(cs, curr, currGray)
			out.state = TurnLight
			out.nextState = TurnLight
		case strictlyDecreasing:
			cacheBaseline(cs, curr, currGray)
			out.state = Fade
			out.nextState = Fade
		default:
			// Ambiguous: stay in Fill, resolve on the next tick.
			out.state = Fill
			out.nextState = Fill
		}

	case cs.state == TurnLight:
		// Peak detection is intentionally asymmetric: the left side allows a
		// small non-decrease (prevents jitter from masking the true peak),
		// the right side demands a strict drop (prevents jitter from firing
		// a false peak one tick early).
		isPeak := curr.energy >= prev.energy-energyEps && curr.energy > next.energy+energyEps
		out.state = TurnLight
		if isPeak {
			out.nextState = Fade
		} else {
			out.nextState = TurnLight
		}

	case cs.state == Fade:
		out.state = Fade
		if !cs.hasNoSparkBaseline {
			// Defensive-only path: Fade entered without ever caching a
			// baseline at Fill-end. prev is trusted as a confirmed
			// no-spark frame; no new fallback is invented here.
			cacheBaseline(cs, prev, prevGray)
		}
		if curr.nonSparkEnergy <= cs.baselineNonSparkEnergy {
			out.isFade50 = true
			out.nextState = Idle
			cs.clearCycleCaches()
		} else {
			out.nextState = Fade
		}
	}

	switch out.state {
	case Fill:
		w := curr.width
		if w < 2 {
			w = 2
		}
		p := float64(cs.maxSparkX) / float64(w-1)
		out.progress = clamp01(p)
	case TurnLight, Fade:
		out.progress = 1.0
	default:
		out.progress = 0.0
	}

	out.prevState = prevState
	cs.state = out.nextState
	return out
}

func cacheBaseline(cs *coreState, src frameInfo, gray *grayFrame) {
	cs.baselineNonSparkEnergy = src.nonSparkEnergy
	cs.baselineRowStart, cs.baselineRowEnd = src.bandRowStart, src.bandRowEnd
	if gray != nil {
		cs.baselineGray.set(gray.w, gray.h, gray.pix)
	}
	cs.hasNoSparkBaseline = true
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
