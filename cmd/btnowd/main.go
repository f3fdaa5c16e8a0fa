// btnowd serves the playback state, cover art and lyrics over HTTP and
// optionally runs the Bluetooth collector that feeds the state file.
package main

import (
	"context"
	"errors"
	"time"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"btnow/internal/artwork"
	"btnow/internal/btplayer"
	"btnow/internal/config"
	"btnow/internal/lrclib"
	"btnow/internal/server"
	"btnow/internal/statefile"
)

func main() {
	logrus.SetFormatter(&nested.Formatter{
		HideKeys:        true,
		TimestampFormat: time.RFC3339,
	})

	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file loaded")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("config load failed")
	}

	watcher, err := statefile.Watch(cfg.StateFilePath())
	if err != nil {
		logrus.WithError(err).Fatal("state file watch failed")
	}
	defer watcher.Close()

	var chain artwork.Chain
	if cfg.HasSpotify() {
		chain = append(chain, artwork.NewSpotify(cfg.Spotify.ClientID, cfg.Spotify.ClientSecret))
	}
	if cfg.HasLastfm() {
		chain = append(chain, artwork.NewLastfm(cfg.Lastfm.APIKey, cfg.Lastfm.APISecret))
	}
	var art artwork.Provider
	if len(chain) > 0 {
		art = chain
	} else {
		logrus.Warn("no artwork provider configured, covers disabled")
	}

	if cfg.Collector.Enabled {
		collector := btplayer.New(cfg.StateFilePath(), cfg.CollectorInterval())
		go func() {
			if err := collector.Run(context.Background()); err != nil && !errors.Is(err, context.Canceled) {
				logrus.WithError(err).Error("collector stopped")
			}
		}()
	}

	srv := server.New(watcher, art, lrclib.New())
	logrus.WithField("addr", cfg.ListenAddr()).Info("btnowd listening")
	if err := srv.Router().Run(cfg.ListenAddr()); err != nil {
		logrus.WithError(err).Fatal("server failed")
	}
}
