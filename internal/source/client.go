// Package source fetches player samples and side data from the btnowd
// action endpoint.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"btnow/internal/playback"
)

const defaultTimeout = 10 * time.Second

// Client talks to the daemon's POST /action endpoint. It implements
// playback.Source.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ playback.Source = (*Client)(nil)

// New creates a client for the daemon at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

type actionRequest struct {
	Action string `json:"action"`
}

// actionResponse is the union of the endpoint's reply shapes; only the
// fields for the requested action are populated.
type actionResponse struct {
	Status string           `json:"status"`
	Data   *playback.Remote `json:"data"`
	Link   string           `json:"link"`
	Lyrics string           `json:"lyrics"`
}

func (c *Client) post(ctx context.Context, action string) (*actionResponse, error) {
	body, err := json.Marshal(actionRequest{Action: action})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/action", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("action %s: unexpected status %s", action, resp.Status)
	}

	var out actionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

// Snapshot returns the current player sample, or nil when the endpoint
// has no state yet.
func (c *Client) Snapshot(ctx context.Context) (*playback.Remote, error) {
	out, err := c.post(ctx, "playStats")
	if err != nil {
		return nil, err
	}
	return out.Data, nil
}

// Cover returns the cover art URL for the current track, "" when the
// provider has none.
func (c *Client) Cover(ctx context.Context) (string, error) {
	out, err := c.post(ctx, "GetArt")
	if err != nil {
		return "", err
	}
	return out.Link, nil
}

// Lyrics returns lyric text for the current track. A "status":"error"
// reply means the provider has none; that is absence, not a failure.
func (c *Client) Lyrics(ctx context.Context) (string, error) {
	out, err := c.post(ctx, "GetLyric")
	if err != nil {
		return "", err
	}
	if out.Status != "ok" {
		return "", nil
	}
	return out.Lyrics, nil
}
