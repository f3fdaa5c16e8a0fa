// Package config loads btnow configuration from TOML files with
// environment overrides for service credentials.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	// Mirror settings drive the terminal client.
	Mirror MirrorConfig `koanf:"mirror"`

	// Server settings drive the btnowd daemon.
	Server ServerConfig `koanf:"server"`

	// Collector settings drive the Bluetooth poller inside btnowd.
	Collector CollectorConfig `koanf:"collector"`

	// Spotify credentials for cover art lookups.
	Spotify SpotifyConfig `koanf:"spotify"`

	// Last.fm credentials for the fallback cover art provider.
	Lastfm LastfmConfig `koanf:"lastfm"`
}

// MirrorConfig holds the terminal mirror settings.
type MirrorConfig struct {
	ServerURL         string `koanf:"server_url"`
	PollIntervalMs    int    `koanf:"poll_interval_ms"`
	LyricOffsetMs     int    `koanf:"lyric_offset_ms"`     // positive shows lyrics early
	LyricHysteresisMs int    `koanf:"lyric_hysteresis_ms"` // forward tolerance for the active line
}

// ServerConfig holds the daemon HTTP settings.
type ServerConfig struct {
	Listen    string `koanf:"listen"`
	StateFile string `koanf:"state_file"`
}

// CollectorConfig holds the Bluetooth poller settings.
type CollectorConfig struct {
	Enabled    bool `koanf:"enabled"`
	IntervalMs int  `koanf:"interval_ms"`
}

// SpotifyConfig holds Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
}

// LastfmConfig holds Last.fm API credentials.
type LastfmConfig struct {
	APIKey    string `koanf:"api_key"`
	APISecret string `koanf:"api_secret"`
}

func Load() (*Config, error) {
	return loadFrom(getConfigPaths()...)
}

func loadFrom(paths ...string) (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	// Normalize server URL (remove trailing slash)
	cfg.Mirror.ServerURL = strings.TrimSuffix(cfg.Mirror.ServerURL, "/")

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides lets credentials come from the environment (or an
// .env file loaded by the daemon) instead of sitting in the TOML file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		cfg.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		cfg.Spotify.ClientSecret = v
	}
	if v := os.Getenv("LASTFM_API_KEY"); v != "" {
		cfg.Lastfm.APIKey = v
	}
	if v := os.Getenv("LASTFM_API_SECRET"); v != "" {
		cfg.Lastfm.APISecret = v
	}
}

func getConfigPaths() []string {
	paths := []string{
		// 1. XDG config dir, e.g. ~/.config/btnow/config.toml
		filepath.Join(xdg.ConfigHome, "btnow", "config.toml"),
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

// HasSpotify returns true if Spotify credentials are configured.
func (c *Config) HasSpotify() bool {
	return c.Spotify.ClientID != "" && c.Spotify.ClientSecret != ""
}

// HasLastfm returns true if Last.fm credentials are configured.
func (c *Config) HasLastfm() bool {
	return c.Lastfm.APIKey != "" && c.Lastfm.APISecret != ""
}

// ServerURL returns the mirror's server URL with a local default.
func (c *Config) ServerURL() string {
	if c.Mirror.ServerURL == "" {
		return "http://127.0.0.1:8080"
	}
	return c.Mirror.ServerURL
}

// PollInterval returns the mirror poll interval with defaults applied.
func (c *Config) PollInterval() time.Duration {
	if c.Mirror.PollIntervalMs <= 0 {
		return time.Second
	}
	return time.Duration(c.Mirror.PollIntervalMs) * time.Millisecond
}

// LyricOffset returns the lyric display offset. Zero is a valid value.
func (c *Config) LyricOffset() time.Duration {
	return time.Duration(c.Mirror.LyricOffsetMs) * time.Millisecond
}

// LyricHysteresis returns the lyric cursor tolerance with defaults
// applied.
func (c *Config) LyricHysteresis() time.Duration {
	if c.Mirror.LyricHysteresisMs <= 0 {
		return 700 * time.Millisecond
	}
	return time.Duration(c.Mirror.LyricHysteresisMs) * time.Millisecond
}

// ListenAddr returns the daemon listen address with a default.
func (c *Config) ListenAddr() string {
	if c.Server.Listen == "" {
		return ":8080"
	}
	return c.Server.Listen
}

// StateFilePath returns the shared state file path with a default.
func (c *Config) StateFilePath() string {
	if c.Server.StateFile == "" {
		return "/tmp/btplayer_state.json"
	}
	return c.Server.StateFile
}

// CollectorInterval returns the Bluetooth poll interval with defaults
// applied.
func (c *Config) CollectorInterval() time.Duration {
	if c.Collector.IntervalMs <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.Collector.IntervalMs) * time.Millisecond
}
