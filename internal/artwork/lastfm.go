package artwork

import (
	"context"
	"fmt"

	"github.com/shkh/lastfm-go/lastfm"
)

// Lastfm resolves cover art from the Last.fm track.getInfo endpoint.
// It needs only an API key, which makes it a useful fallback when no
// Spotify credentials are configured.
type Lastfm struct {
	api *lastfm.Api
}

var _ Provider = (*Lastfm)(nil)

// NewLastfm creates a Last.fm artwork provider with the given API
// credentials.
func NewLastfm(apiKey, apiSecret string) *Lastfm {
	return &Lastfm{
		api: lastfm.New(apiKey, apiSecret),
	}
}

// CoverURL implements Provider. The underlying library has no context
// support, so ctx is only honoured between calls.
func (l *Lastfm) CoverURL(ctx context.Context, artist, title string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	params := lastfm.P{
		"artist": artist,
		"track":  title,
	}

	info, err := l.api.Track.GetInfo(params)
	if err != nil {
		return "", fmt.Errorf("lastfm track.getInfo: %w", err)
	}

	images := info.Album.Images
	if len(images) == 0 {
		return "", ErrNotFound
	}

	// Prefer the largest size; the feed lists sizes smallest first.
	best := ""
	for _, img := range images {
		if img.Url == "" {
			continue
		}
		best = img.Url
		if img.Size == "extralarge" {
			break
		}
	}
	if best == "" {
		return "", ErrNotFound
	}
	return best, nil
}
