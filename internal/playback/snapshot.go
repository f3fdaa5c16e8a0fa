// Package playback mirrors the state of an external player: a store
// polls a state source, caches per-track side data and fans out typed
// change events to subscribers.
package playback

import (
	"context"
	"strings"
	"time"
)

// Status represents the reported player state.
type Status int

const (
	StatusStopped Status = iota
	StatusPlaying
	StatusPaused
)

// ParseStatus maps a wire status string to a Status. Unknown values
// (BlueZ also reports transient states like "forward-seek") map to
// StatusStopped.
func ParseStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "playing":
		return StatusPlaying
	case "paused":
		return StatusPaused
	default:
		return StatusStopped
	}
}

// String returns the wire form of the status.
func (s Status) String() string {
	switch s {
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	default:
		return "stopped"
	}
}

// Snapshot is the merged view of the player published to subscribers.
// Snapshots are replaced wholesale on each publish, never mutated.
type Snapshot struct {
	Artist   string
	Title    string
	Album    string
	Status   Status
	Position time.Duration
	Duration time.Duration

	// Side data resolved per track. Lyrics stays empty until the lyric
	// fetch resolves; HasLyrics distinguishes "not fetched yet" from
	// "provider has none".
	Cover     string
	Lyrics    string
	HasLyrics bool
}

// Key derives the normalized track identity used for caching and change
// detection. Both fields empty means "no track" and yields "".
func Key(artist, title string) string {
	artist = strings.ToLower(strings.TrimSpace(artist))
	title = strings.ToLower(strings.TrimSpace(title))
	if artist == "" && title == "" {
		return ""
	}
	return artist + "::" + title
}

// TrackKey returns the snapshot's track identity.
func (s Snapshot) TrackKey() string {
	return Key(s.Artist, s.Title)
}

// Remote is one sample read from the upstream state endpoint. Pointer
// fields distinguish "absent from the payload" from zero values; an
// absent field keeps its previous value when merged.
type Remote struct {
	Artist     *string `json:"artist"`
	Title      *string `json:"title"`
	Album      *string `json:"album"`
	Status     *string `json:"status"`
	PositionMs *int64  `json:"position_ms"`
	DurationMs *int64  `json:"duration_ms"`
}

// merge applies the sample's present fields over the previous snapshot.
func (s Snapshot) merge(r *Remote) Snapshot {
	next := s
	if r.Artist != nil {
		next.Artist = *r.Artist
	}
	if r.Title != nil {
		next.Title = *r.Title
	}
	if r.Album != nil {
		next.Album = *r.Album
	}
	if r.Status != nil {
		next.Status = ParseStatus(*r.Status)
	}
	if r.PositionMs != nil {
		next.Position = time.Duration(*r.PositionMs) * time.Millisecond
	}
	if r.DurationMs != nil {
		next.Duration = time.Duration(*r.DurationMs) * time.Millisecond
	}
	return next
}

// Source produces player samples and per-track side data. Implemented
// by source.Client against the daemon; tests supply fakes.
type Source interface {
	// Snapshot returns the current sample, or nil when the upstream has
	// no state yet.
	Snapshot(ctx context.Context) (*Remote, error)
	// Cover returns the cover art URL for the current track, "" when
	// the provider has none.
	Cover(ctx context.Context) (string, error)
	// Lyrics returns lyric text for the current track, "" when none
	// exist.
	Lyrics(ctx context.Context) (string, error)
}
