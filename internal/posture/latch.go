package posture

// DefaultGraceMs is how long the last real view survives unclassifiable frames.
const DefaultGraceMs = 800

// Latch smooths out single noisy frames: it keeps reporting the last view
// other than none until the grace window has passed.
type Latch struct {
	GraceMs int64

	view       View
	lastSeenMs int64
}

func NewLatch(graceMs int64) *Latch {
	return &Latch{
		GraceMs: graceMs,
		view:    ViewNone,
	}
}

// Update feeds the raw classification of a frame and returns the effective
// view and whether the latch has just expired on this frame.
func (l *Latch) Update(raw View, timestampMs int64) (View, bool) {
	if raw != ViewNone {
		l.view = raw
		l.lastSeenMs = timestampMs
		return l.view, false
	}

	if l.view == ViewNone {
		return ViewNone, false
	}

	if timestampMs-l.lastSeenMs <= l.GraceMs {
		return l.view, false
	}

	l.view = ViewNone
	return ViewNone, true
}

func (l *Latch) View() View {
	return l.view
}

func (l *Latch) Reset() {
	l.view = ViewNone
	l.lastSeenMs = 0
}
