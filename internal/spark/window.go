package spark

// grayFrame is a retained grayscale snapshot, owned by the window's ring
// buffer. It is always written by copy, never aliases the caller's input or
// the analyzer's scratch buffer (spec §9: "never by reference into the
// input, whose lifetime is the caller's").
type grayFrame struct {
	w, h int
	pix  []byte
}

func (g *grayFrame) set(w, h int, src []byte) {
	n := w * h
	if cap(g.pix) < n {
		g.pix = make([]byte, n)
	}
	g.pix = g.pix[:n]
	copy(g.pix, src[:n])
	g.w, g.h = w, h
}

// window is the length-3 sliding FIFO of (prev, curr, next) frameInfo and
// gray snapshots described in spec §4.2. It is implemented as a ring of 3
// slots indexed by tick count, rather than by field renaming, so that
// advancing the window never copies a gray buffer that doesn't need to
// change.
type window struct {
	ticks int
	infos [3]frameInfo
	bufs  [3]grayFrame
}

// push ingests one new frameInfo/gray pair as the tick's "next" frame and
// reports whether the window is now full enough to classify (tick >= 3).
func (w *window) push(info frameInfo, gray []byte, width, height int) bool {
	w.ticks++
	slot := (w.ticks - 1) % 3
	w.infos[slot] = info
	w.bufs[slot].set(width, height, gray)
	return w.ticks >= 3
}

// triple returns the current (prev, curr, next) view. Only valid once push
// has returned true.
func (w *window) triple() (prevInfo, currInfo, nextInfo frameInfo, prevGray, currGray, nextGray *grayFrame) {
	slot := (w.ticks - 1) % 3
	prevSlot := (slot + 1) % 3
	currSlot := (slot + 2) % 3
	return w.infos[prevSlot], w.infos[currSlot], w.infos[slot],
		&w.bufs[prevSlot], &w.bufs[currSlot], &w.bufs[slot]
}

func (w *window) reset() {
	w.ticks = 0
	w.infos = [3]frameInfo{}
}
