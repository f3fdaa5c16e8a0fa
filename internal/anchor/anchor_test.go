package anchor

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"btnow/internal/playback"
)

func snap(artist, title string, status playback.Status, pos time.Duration) playback.Snapshot {
	return playback.Snapshot{
		Artist:   artist,
		Title:    title,
		Status:   status,
		Position: pos,
		Duration: 200 * time.Second,
	}
}

func TestRefresh_JitterSuppressed(t *testing.T) {
	mock := clock.NewMock()
	a := New(mock, 0)

	a.Refresh(snap("A", "T", playback.StatusPaused, 10*time.Second), true)
	anchoredAt := a.at

	mock.Add(time.Second)
	// 5ms apart: below the threshold, must not re-anchor.
	a.Refresh(snap("A", "T", playback.StatusPaused, 10*time.Second+5*time.Millisecond), false)
	if !a.at.Equal(anchoredAt) || a.position != 10*time.Second {
		t.Errorf("anchor moved on 5ms jitter: pos=%v at=%v", a.position, a.at)
	}

	// 25ms apart: above the threshold, must re-anchor.
	a.Refresh(snap("A", "T", playback.StatusPaused, 10*time.Second+25*time.Millisecond), false)
	if a.at.Equal(anchoredAt) || a.position != 10*time.Second+25*time.Millisecond {
		t.Errorf("anchor did not move on 25ms drift: pos=%v", a.position)
	}
}

func TestRefresh_StatusChangeReanchors(t *testing.T) {
	mock := clock.NewMock()
	a := New(mock, 0)

	a.Refresh(snap("A", "T", playback.StatusPlaying, 10*time.Second), true)
	mock.Add(time.Second)
	a.Refresh(snap("A", "T", playback.StatusPaused, 10*time.Second), false)

	if a.status != playback.StatusPaused {
		t.Errorf("status = %v, want paused", a.status)
	}
	if !a.at.Equal(mock.Now()) {
		t.Error("status change did not re-anchor")
	}
}

func TestRefresh_TrackChangeReanchors(t *testing.T) {
	mock := clock.NewMock()
	a := New(mock, 0)

	a.Refresh(snap("A", "T", playback.StatusPlaying, 100*time.Second), true)
	mock.Add(time.Second)
	a.Refresh(snap("B", "U", playback.StatusPlaying, 100*time.Second), false)

	if a.trackKey != "b::u" || !a.at.Equal(mock.Now()) {
		t.Errorf("track change did not re-anchor: key=%q", a.trackKey)
	}
}

func TestPosition_ExtrapolatesWhilePlaying(t *testing.T) {
	mock := clock.NewMock()
	a := New(mock, 0)

	a.Refresh(snap("A", "T", playback.StatusPlaying, 10*time.Second), true)
	mock.Add(1500 * time.Millisecond)

	if got := a.Position(); got != 11500*time.Millisecond {
		t.Errorf("Position() = %v, want 11.5s", got)
	}
}

func TestPosition_FrozenWhilePaused(t *testing.T) {
	mock := clock.NewMock()
	a := New(mock, 0)

	a.Refresh(snap("A", "T", playback.StatusPaused, 10*time.Second), true)
	mock.Add(5 * time.Second)

	if got := a.Position(); got != 10*time.Second {
		t.Errorf("Position() = %v, want 10s while paused", got)
	}
}

func TestPosition_ClampedToDuration(t *testing.T) {
	mock := clock.NewMock()
	a := New(mock, 0)

	a.Refresh(snap("A", "T", playback.StatusPlaying, 199*time.Second), true)
	mock.Add(10 * time.Second)

	if got := a.Position(); got != 200*time.Second {
		t.Errorf("Position() = %v, want clamped 200s", got)
	}
}

func TestPosition_OffsetApplied(t *testing.T) {
	mock := clock.NewMock()

	lead := New(mock, 300*time.Millisecond)
	lead.Refresh(snap("A", "T", playback.StatusPaused, 10*time.Second), true)
	if got := lead.Position(); got != 10*time.Second+300*time.Millisecond {
		t.Errorf("Position() with lead = %v", got)
	}

	// A lag larger than the position clamps at zero.
	lag := New(mock, -time.Minute)
	lag.Refresh(snap("A", "T", playback.StatusPaused, 10*time.Second), true)
	if got := lag.Position(); got != 0 {
		t.Errorf("Position() with large lag = %v, want 0", got)
	}
}

func TestPosition_Unanchored(t *testing.T) {
	a := New(clock.NewMock(), 0)
	if got := a.Position(); got != 0 {
		t.Errorf("Position() before any sample = %v, want 0", got)
	}
}
