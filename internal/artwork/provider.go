// Package artwork resolves cover art URLs for tracks from external
// services.
package artwork

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned when a provider has no artwork for the track.
var ErrNotFound = errors.New("artwork not found")

// Provider resolves a cover art URL for a track.
type Provider interface {
	// CoverURL returns the URL of the largest available cover image,
	// or ErrNotFound when the provider knows nothing about the track.
	CoverURL(ctx context.Context, artist, title string) (string, error)
}

// Chain tries each provider in order and returns the first hit.
// Providers that fail with a real error are logged and skipped, so a
// broken service never shadows the providers behind it.
type Chain []Provider

var _ Provider = Chain(nil)

// CoverURL implements Provider.
func (c Chain) CoverURL(ctx context.Context, artist, title string) (string, error) {
	var lastErr error
	for _, p := range c {
		link, err := p.CoverURL(ctx, artist, title)
		if err == nil {
			return link, nil
		}
		if !errors.Is(err, ErrNotFound) {
			logrus.WithError(err).Warn("artwork provider failed")
			lastErr = err
		}
	}
	if lastErr != nil {
		return "", lastErr
	}
	return "", ErrNotFound
}
