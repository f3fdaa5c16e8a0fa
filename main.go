package main

import (
	"fmt"
	"io"
	"os"

	"github.com/benbjohnson/clock"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"btnow/internal/anchor"
	"btnow/internal/config"
	"btnow/internal/mirror"
	"btnow/internal/playback"
	"btnow/internal/source"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// The TUI owns the terminal, so logs either go to a file or nowhere.
	if os.Getenv("BTNOW_DEBUG") != "" {
		f, err := tea.LogToFile("btnow-debug.log", "btnow")
		if err != nil {
			fmt.Printf("Error opening log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logrus.SetOutput(f)
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetOutput(io.Discard)
	}

	clk := clock.New()
	store := playback.New(source.New(cfg.ServerURL()), cfg.PollInterval(), clk)
	anc := anchor.New(clk, cfg.LyricOffset())

	p := tea.NewProgram(
		mirror.New(store, anc, cfg.LyricHysteresis()),
		tea.WithAltScreen(),
	)

	events := []playback.Event{
		playback.EventState,
		playback.EventTrack,
		playback.EventCover,
		playback.EventLyrics,
		playback.EventError,
	}
	for _, ev := range events {
		store.Subscribe(ev, func(payload any) {
			p.Send(mirror.EventMsg{Event: ev, Payload: payload})
		})
	}

	stop := store.Start()
	defer stop()

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}
}
