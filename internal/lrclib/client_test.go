package lrclib

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/get" {
			t.Errorf("path = %q, want /get", r.URL.Path)
		}
		q := r.URL.Query()
		if got := q.Get("artist_name"); got != "Queen" {
			t.Errorf("artist_name = %q, want %q", got, "Queen")
		}
		if got := q.Get("track_name"); got != "Bohemian Rhapsody" {
			t.Errorf("track_name = %q, want %q", got, "Bohemian Rhapsody")
		}
		if got := q.Get("duration"); got != "355" {
			t.Errorf("duration = %q, want %q", got, "355")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": 1,
			"trackName": "Bohemian Rhapsody",
			"artistName": "Queen",
			"albumName": "A Night at the Opera",
			"duration": 355.0,
			"instrumental": false,
			"plainLyrics": "Is this the real life",
			"syncedLyrics": "[00:01.00]Is this the real life"
		}`))
	}))
	defer srv.Close()

	c := New()
	c.baseURL = srv.URL

	result, err := c.Get(context.Background(), "Queen", "Bohemian Rhapsody", 355*time.Second)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if result.TrackName != "Bohemian Rhapsody" {
		t.Errorf("TrackName = %q, want %q", result.TrackName, "Bohemian Rhapsody")
	}
	if !result.HasSyncedLyrics() {
		t.Error("HasSyncedLyrics() = false, want true")
	}
	if !result.HasPlainLyrics() {
		t.Error("HasPlainLyrics() = false, want true")
	}
	if got := result.Text(); got != "[00:01.00]Is this the real life" {
		t.Errorf("Text() = %q, want synced lyrics", got)
	}
}

func TestGetSkipsZeroDuration(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("duration") {
			t.Error("duration param present, want absent")
		}
		w.Write([]byte(`{"id": 2, "plainLyrics": "text"}`))
	}))
	defer srv.Close()

	c := New()
	c.baseURL = srv.URL

	if _, err := c.Get(context.Background(), "a", "b", 0); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
}

func TestGetNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New()
	c.baseURL = srv.URL

	_, err := c.Get(context.Background(), "Nobody", "Nothing", 0)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestGetServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New()
	c.baseURL = srv.URL

	_, err := c.Get(context.Background(), "a", "b", 0)
	if err == nil {
		t.Fatal("Get() error = nil, want error")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("Get() error is ErrNotFound, want generic error")
	}
}

func TestTextPrefersPlainWhenNoSynced(t *testing.T) {
	r := &LyricsResult{PlainLyrics: "only plain"}
	if got := r.Text(); got != "only plain" {
		t.Errorf("Text() = %q, want %q", got, "only plain")
	}
}
