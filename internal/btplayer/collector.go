// Package btplayer polls the active Bluetooth media player over D-Bus
// and publishes its state to the shared state file.
package btplayer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/sirupsen/logrus"

	"btnow/internal/playback"
	"btnow/internal/statefile"
)

const (
	bluezDest       = "org.bluez"
	bluezRoot       = dbus.ObjectPath("/org/bluez")
	playerInterface = "org.bluez.MediaPlayer1"
)

// Collector discovers the BlueZ MediaPlayer1 object of a connected
// device and mirrors its properties into the state file at a fixed
// interval.
type Collector struct {
	stateFile string
	interval  time.Duration
}

// New creates a collector writing to stateFile every interval.
func New(stateFile string, interval time.Duration) *Collector {
	return &Collector{
		stateFile: stateFile,
		interval:  interval,
	}
}

// Run polls until ctx is cancelled. The player object is rediscovered
// after any read failure, which covers devices disconnecting mid-poll.
func (c *Collector) Run(ctx context.Context) error {
	conn, err := dbus.SystemBus()
	if err != nil {
		return fmt.Errorf("connect system bus: %w", err)
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	var playerPath dbus.ObjectPath
	var previousKey string

	for {
		if playerPath == "" {
			playerPath = findPlayer(conn)
			if playerPath == "" {
				logrus.Debug("no active bluetooth player")
			} else {
				logrus.WithField("path", playerPath).Info("bluetooth player found")
			}
		}

		if playerPath != "" {
			st, err := readPlayer(conn, playerPath)
			if err != nil {
				logrus.WithError(err).Warn("bluetooth player read failed")
				playerPath = ""
			} else {
				key := playback.Key(st.Artist, st.Title)
				if key != previousKey {
					logrus.WithFields(logrus.Fields{
						"artist": st.Artist,
						"title":  st.Title,
						"status": st.Status,
					}).Info("track changed")
					previousKey = key
				}
				if err := statefile.Write(c.stateFile, st); err != nil {
					logrus.WithError(err).Warn("state file write failed")
				}
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// findPlayer walks the BlueZ object tree looking for a device exposing
// a MediaPlayer1 child: /org/bluez/hciX/dev_YY/playerN.
func findPlayer(conn *dbus.Conn) dbus.ObjectPath {
	root, err := introspect.Call(conn.Object(bluezDest, bluezRoot))
	if err != nil {
		return ""
	}

	for _, adapter := range root.Children {
		if !strings.HasPrefix(adapter.Name, "hci") {
			continue
		}
		adapterPath := bluezRoot + dbus.ObjectPath("/"+adapter.Name)
		adapterNode, err := introspect.Call(conn.Object(bluezDest, adapterPath))
		if err != nil {
			continue
		}

		for _, dev := range adapterNode.Children {
			if !strings.HasPrefix(dev.Name, "dev_") {
				continue
			}
			devPath := adapterPath + dbus.ObjectPath("/"+dev.Name)
			devNode, err := introspect.Call(conn.Object(bluezDest, devPath))
			if err != nil {
				continue
			}

			for _, child := range devNode.Children {
				if strings.HasPrefix(child.Name, "player") {
					return devPath + dbus.ObjectPath("/"+child.Name)
				}
			}
		}
	}
	return ""
}

// readPlayer reads the player properties into a state snapshot.
func readPlayer(conn *dbus.Conn, path dbus.ObjectPath) (*statefile.State, error) {
	obj := conn.Object(bluezDest, path)

	status, err := obj.GetProperty(playerInterface + ".Status")
	if err != nil {
		return nil, fmt.Errorf("get Status: %w", err)
	}
	position, err := obj.GetProperty(playerInterface + ".Position")
	if err != nil {
		return nil, fmt.Errorf("get Position: %w", err)
	}
	track, err := obj.GetProperty(playerInterface + ".Track")
	if err != nil {
		return nil, fmt.Errorf("get Track: %w", err)
	}

	fields, _ := track.Value().(map[string]dbus.Variant)

	return &statefile.State{
		Artist:     trackString(fields, "Artist", "Unknown"),
		Title:      trackString(fields, "Title", "Unknown"),
		Album:      trackString(fields, "Album", ""),
		Status:     variantString(status),
		PositionMs: variantInt64(position),
		DurationMs: trackInt64(fields, "Duration"),
		Updated:    time.Now().Unix(),
	}, nil
}

func trackString(fields map[string]dbus.Variant, key, def string) string {
	v, ok := fields[key]
	if !ok {
		return def
	}
	s, ok := v.Value().(string)
	if !ok || s == "" {
		return def
	}
	return s
}

func trackInt64(fields map[string]dbus.Variant, key string) int64 {
	v, ok := fields[key]
	if !ok {
		return 0
	}
	return variantInt64(v)
}

// variantInt64 widens the integer types BlueZ uses for millisecond
// counters. Position and Duration are uint32 on the wire.
func variantInt64(v dbus.Variant) int64 {
	switch n := v.Value().(type) {
	case uint32:
		return int64(n)
	case int32:
		return int64(n)
	case uint64:
		return int64(n)
	case int64:
		return n
	default:
		return 0
	}
}

func variantString(v dbus.Variant) string {
	s, _ := v.Value().(string)
	return s
}
