package artwork

import (
	"context"
	"fmt"
	"sync"

	spotifyclient "github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
)

// Spotify resolves cover art through the Spotify Web API using the
// client-credentials flow. The client is created lazily on first use so
// that construction never blocks on the network.
type Spotify struct {
	clientID     string
	clientSecret string

	mu     sync.Mutex
	client *spotifyclient.Client
}

var _ Provider = (*Spotify)(nil)

// NewSpotify creates a Spotify artwork provider with the given API
// credentials.
func NewSpotify(clientID, clientSecret string) *Spotify {
	return &Spotify{
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

// authenticated returns a ready API client, requesting an access token
// on the first call. A token request that fails outright (bad
// credentials, network down) is returned as an error rather than
// letting a nil client panic later.
func (s *Spotify) authenticated(ctx context.Context) (*spotifyclient.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}

	config := &clientcredentials.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	token, err := config.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("spotify token: %w", err)
	}

	httpClient := spotifyauth.New().Client(ctx, token)
	s.client = spotifyclient.New(httpClient)
	return s.client, nil
}

// CoverURL implements Provider.
func (s *Spotify) CoverURL(ctx context.Context, artist, title string) (string, error) {
	client, err := s.authenticated(ctx)
	if err != nil {
		return "", err
	}

	query := fmt.Sprintf("track:%s artist:%s", title, artist)
	results, err := client.Search(ctx, query, spotifyclient.SearchTypeTrack, spotifyclient.Limit(1))
	if err != nil {
		return "", fmt.Errorf("spotify search: %w", err)
	}

	if results.Tracks == nil || len(results.Tracks.Tracks) == 0 {
		return "", ErrNotFound
	}

	images := results.Tracks.Tracks[0].Album.Images
	if len(images) == 0 {
		return "", ErrNotFound
	}

	// Spotify orders images largest first.
	return images[0].URL, nil
}
