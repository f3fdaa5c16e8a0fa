// Package statefile reads and writes the shared playback state file
// that the collector publishes and the server reads.
package statefile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrNoState is returned when no state file exists yet, meaning nothing
// has been collected rather than something having failed.
var ErrNoState = errors.New("no playback state")

// State is the on-disk playback snapshot.
type State struct {
	Artist     string `json:"artist"`
	Title      string `json:"title"`
	Album      string `json:"album,omitempty"`
	Status     string `json:"status"`
	PositionMs int64  `json:"position_ms"`
	DurationMs int64  `json:"duration_ms"`
	Updated    int64  `json:"updated"`
}

// Position returns the reported position as a duration.
func (s *State) Position() time.Duration {
	return time.Duration(s.PositionMs) * time.Millisecond
}

// Duration returns the reported track length as a duration.
func (s *State) Duration() time.Duration {
	return time.Duration(s.DurationMs) * time.Millisecond
}

// Read loads the state file at path. A missing file maps to ErrNoState;
// unreadable or malformed content is a real error.
func Read(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoState
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse state file: %w", err)
	}
	return &st, nil
}

// Write atomically replaces the state file at path. The state is
// written to a temp file in the same directory and renamed into place,
// so readers never observe a partial write.
func Write(path string, st *State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp state file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
