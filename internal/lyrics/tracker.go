package lyrics

import "time"

// DefaultHysteresis is the margin a position must clear before the
// active line changes.
const DefaultHysteresis = 700 * time.Millisecond

// Tracker maintains the single active line of a timeline as the
// extrapolated position moves. Hysteresis keeps jitter near a line
// boundary from flipping the index back and forth. Movement is a linear
// sweep in both directions: between two render ticks the position only
// advances by one frame's worth of time, so a search is unnecessary.
type Tracker struct {
	lines      []Line
	hysteresis time.Duration
	current    int
}

// NewTracker creates a tracker with no timeline. A non-positive
// hysteresis selects the default.
func NewTracker(hysteresis time.Duration) *Tracker {
	if hysteresis <= 0 {
		hysteresis = DefaultHysteresis
	}
	return &Tracker{hysteresis: hysteresis, current: -1}
}

// SetTimeline replaces the tracked timeline and resets the cursor to
// unanchored. Must be called whenever new lyric text is delivered.
func (t *Tracker) SetTimeline(tl Timeline) {
	t.lines = tl.Lines
	t.current = -1
}

// Current returns the active line index, -1 while unanchored.
func (t *Tracker) Current() int {
	return t.current
}

// Update moves the cursor for the given position and reports the active
// index and whether it changed.
func (t *Tracker) Update(pos time.Duration) (int, bool) {
	if len(t.lines) == 0 {
		return -1, false
	}

	if t.current < 0 {
		for i, line := range t.lines {
			if pos+t.hysteresis >= line.Time {
				t.current = i
				return i, true
			}
		}
		return -1, false
	}

	target := t.current
	for target < len(t.lines)-1 && pos+t.hysteresis >= t.lines[target+1].Time {
		target++
	}
	for target > 0 && pos < t.lines[target].Time-t.hysteresis {
		target--
	}
	if target == t.current {
		return target, false
	}
	t.current = target
	return target, true
}
