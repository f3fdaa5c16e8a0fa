// Package mirror renders the playback mirror: current track, a smooth
// progress bar and synced lyrics following the extrapolated position.
package mirror

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"btnow/internal/anchor"
	"btnow/internal/lyrics"
	"btnow/internal/palette"
	"btnow/internal/playback"
)

// renderInterval paces the render ticks that move the progress bar and
// lyric cursor between polls.
const renderInterval = 50 * time.Millisecond

type tickMsg time.Time

// EventMsg carries a store event into the bubbletea loop. The
// composition root forwards store subscriptions through program.Send.
type EventMsg struct {
	Event   playback.Event
	Payload any
}

type paletteMsg struct {
	cover string
	pal   palette.Palette
}

// Model is the mirror's bubbletea model.
type Model struct {
	store   *playback.Store
	anchor  *anchor.Anchor
	tracker *lyrics.Tracker

	snapshot *playback.Snapshot
	timeline lyrics.Timeline
	plain    []string
	lyricFP  uint64
	hasLyric bool

	pal     palette.Palette
	spinner spinner.Model
	lastErr string

	width  int
	height int
}

// New creates the mirror model. offset shifts lyric timing, hysteresis
// sets the lyric cursor's forward tolerance.
func New(store *playback.Store, anc *anchor.Anchor, hysteresis time.Duration) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		store:   store,
		anchor:  anc,
		tracker: lyrics.NewTracker(hysteresis),
		pal:     palette.Fallback(),
		spinner: sp,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(renderInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
		return m, nil

	case EventMsg:
		return m.handleEvent(msg)

	case paletteMsg:
		// Drop palettes computed for a cover we have moved past.
		if m.snapshot != nil && m.snapshot.Cover == msg.cover {
			m.pal = msg.pal
		}
		return m, nil

	case tickMsg:
		if m.snapshot != nil {
			m.tracker.Update(m.anchor.Position())
		}
		return m, tickCmd()

	case spinner.TickMsg:
		if m.snapshot == nil {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleEvent(msg EventMsg) (tea.Model, tea.Cmd) {
	switch msg.Event {
	case playback.EventState, playback.EventTrack:
		snap, ok := msg.Payload.(playback.Snapshot)
		if !ok {
			return m, nil
		}
		trackChanged := m.snapshot == nil || m.snapshot.TrackKey() != snap.TrackKey()
		m.snapshot = &snap
		m.anchor.Refresh(snap, msg.Event == playback.EventTrack)
		if trackChanged {
			m.timeline = lyrics.Timeline{}
			m.plain = nil
			m.lyricFP = 0
			m.hasLyric = false
			m.tracker.SetTimeline(m.timeline)
			m.pal = palette.Fallback()
		}
		return m, nil

	case playback.EventCover:
		url, _ := msg.Payload.(string)
		if url == "" {
			m.pal = palette.Fallback()
			return m, nil
		}
		return m, fetchPaletteCmd(url)

	case playback.EventLyrics:
		raw, _ := msg.Payload.(string)
		m.hasLyric = true
		fp := lyrics.Fingerprint(raw)
		if fp == m.lyricFP && (len(m.timeline.Lines) > 0 || len(m.plain) > 0) {
			return m, nil
		}
		m.lyricFP = fp
		m.timeline = lyrics.Parse(raw)
		m.plain = nil
		if m.timeline.Empty() && strings.TrimSpace(raw) != "" {
			m.plain = strings.Split(strings.TrimRight(raw, "\n"), "\n")
		}
		m.tracker.SetTimeline(m.timeline)
		m.tracker.Update(m.anchor.Position())
		return m, nil

	case playback.EventError:
		if ev, ok := msg.Payload.(playback.ErrorEvent); ok {
			m.lastErr = ev.Err.Error()
		}
		return m, nil
	}

	return m, nil
}

func fetchPaletteCmd(url string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		pal, err := palette.Fetch(ctx, url)
		if err != nil {
			pal = palette.Fallback()
		}
		return paletteMsg{cover: url, pal: pal}
	}
}
