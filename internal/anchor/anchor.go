// Package anchor extrapolates a continuous playback position between
// discrete poll samples.
package anchor

import (
	"time"

	"github.com/benbjohnson/clock"

	"btnow/internal/playback"
)

// jitterThreshold suppresses re-anchoring on near-identical successive
// samples; consecutive polls rarely agree to the millisecond and every
// re-anchor is a visible stutter.
const jitterThreshold = 20 * time.Millisecond

// Anchor holds the last trusted (position, instant) sample and derives
// the position "now" from it. It is driven from a single goroutine (the
// render loop) and is not safe for concurrent use.
type Anchor struct {
	clk    clock.Clock
	offset time.Duration

	position time.Duration
	at       time.Time
	status   playback.Status
	trackKey string
	duration time.Duration
	anchored bool
}

// New creates an anchor. offset is a fixed lead or lag added to every
// extrapolated position to compensate known display latency.
func New(clk clock.Clock, offset time.Duration) *Anchor {
	if clk == nil {
		clk = clock.New()
	}
	return &Anchor{clk: clk, offset: offset}
}

// Refresh re-anchors from a fresh sample. Without force the anchor only
// moves when the track or status changed, or the position drifted from
// the anchored one by at least 20ms.
func (a *Anchor) Refresh(s playback.Snapshot, force bool) {
	a.duration = s.Duration

	key := s.TrackKey()
	drift := s.Position - a.position
	if drift < 0 {
		drift = -drift
	}
	if !force && a.anchored &&
		a.trackKey == key && a.status == s.Status && drift < jitterThreshold {
		return
	}

	a.position = s.Position
	a.at = a.clk.Now()
	a.status = s.Status
	a.trackKey = key
	a.anchored = true
}

// Position returns the extrapolated position for "now": the anchored
// position plus wall-clock elapsed while playing, plus the configured
// offset, clamped to [0, duration].
func (a *Anchor) Position() time.Duration {
	pos := a.position
	if a.anchored && a.status == playback.StatusPlaying {
		if elapsed := a.clk.Since(a.at); elapsed > 0 {
			pos += elapsed
		}
	}
	pos += a.offset
	if a.duration > 0 && pos > a.duration {
		pos = a.duration
	}
	if pos < 0 {
		pos = 0
	}
	return pos
}

// Status returns the anchored status.
func (a *Anchor) Status() playback.Status {
	return a.status
}
