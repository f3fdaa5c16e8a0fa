package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"btnow/internal/artwork"
	"btnow/internal/lrclib"
	"btnow/internal/statefile"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeStates struct {
	state *statefile.State
	err   error
}

func (f *fakeStates) Latest() (*statefile.State, error) {
	return f.state, f.err
}

type fakeArt struct {
	link  string
	err   error
	calls int
}

func (f *fakeArt) CoverURL(_ context.Context, _, _ string) (string, error) {
	f.calls++
	return f.link, f.err
}

type fakeLyrics struct {
	result *lrclib.LyricsResult
	err    error
	calls  int
}

func (f *fakeLyrics) Get(_ context.Context, _, _ string, _ time.Duration) (*lrclib.LyricsResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func playingState() *statefile.State {
	return &statefile.State{
		Artist:     "Queen",
		Title:      "Innuendo",
		Album:      "Innuendo",
		Status:     "playing",
		PositionMs: 12500,
		DurationMs: 390000,
	}
}

func doAction(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/action", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestPlayStats(t *testing.T) {
	srv := New(&fakeStates{state: playingState()}, nil, &fakeLyrics{})
	w := doAction(t, srv.Router(), `{"action":"playStats"}`)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "ok", resp["status"])

	data, ok := resp["data"].(map[string]any)
	require.True(t, ok, "data missing")
	assert.Equal(t, "Queen", data["artist"])
	assert.Equal(t, "Innuendo", data["title"])
	assert.Equal(t, "playing", data["status"])
	assert.Equal(t, float64(12500), data["position_ms"])
	assert.Equal(t, float64(390000), data["duration_ms"])
}

func TestPlayStatsOmitsEmptyAlbum(t *testing.T) {
	st := playingState()
	st.Album = ""
	srv := New(&fakeStates{state: st}, nil, &fakeLyrics{})
	w := doAction(t, srv.Router(), `{"action":"playStats"}`)

	data := decode(t, w)["data"].(map[string]any)
	_, present := data["album"]
	assert.False(t, present, "album should be omitted when empty")
}

func TestPlayStatsNoState(t *testing.T) {
	srv := New(&fakeStates{err: statefile.ErrNoState}, nil, &fakeLyrics{})
	w := doAction(t, srv.Router(), `{"action":"playStats"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPlayStatsSourceFailure(t *testing.T) {
	srv := New(&fakeStates{err: errors.New("disk on fire")}, nil, &fakeLyrics{})
	w := doAction(t, srv.Router(), `{"action":"playStats"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetArt(t *testing.T) {
	art := &fakeArt{link: "http://img/cover.jpg"}
	srv := New(&fakeStates{state: playingState()}, art, &fakeLyrics{})
	w := doAction(t, srv.Router(), `{"action":"GetArt"}`)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "Queen", resp["artist"])
	assert.Equal(t, "Innuendo", resp["title"])
	assert.Equal(t, "http://img/cover.jpg", resp["link"])
}

func TestGetArtCachedPerTrack(t *testing.T) {
	art := &fakeArt{link: "http://img/cover.jpg"}
	srv := New(&fakeStates{state: playingState()}, art, &fakeLyrics{})
	router := srv.Router()

	doAction(t, router, `{"action":"GetArt"}`)
	doAction(t, router, `{"action":"GetArt"}`)

	assert.Equal(t, 1, art.calls, "second request for same track should hit the cache")
}

func TestGetArtNotFound(t *testing.T) {
	art := &fakeArt{err: artwork.ErrNotFound}
	srv := New(&fakeStates{state: playingState()}, art, &fakeLyrics{})
	w := doAction(t, srv.Router(), `{"action":"GetArt"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", decode(t, w)["link"])
}

func TestGetArtNoProvider(t *testing.T) {
	srv := New(&fakeStates{state: playingState()}, nil, &fakeLyrics{})
	w := doAction(t, srv.Router(), `{"action":"GetArt"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", decode(t, w)["link"])
}

func TestGetLyricSynced(t *testing.T) {
	lyr := &fakeLyrics{result: &lrclib.LyricsResult{
		SyncedLyrics: "[00:01.00]line",
		PlainLyrics:  "line",
	}}
	srv := New(&fakeStates{state: playingState()}, nil, lyr)
	w := doAction(t, srv.Router(), `{"action":"GetLyric"}`)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "[00:01.00]line", resp["lyrics"])
}

func TestGetLyricNotFound(t *testing.T) {
	lyr := &fakeLyrics{err: lrclib.ErrNotFound}
	srv := New(&fakeStates{state: playingState()}, nil, lyr)
	w := doAction(t, srv.Router(), `{"action":"GetLyric"}`)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "error", resp["status"])
	assert.NotEmpty(t, resp["message"])
}

func TestGetLyricCachedPerTrack(t *testing.T) {
	lyr := &fakeLyrics{result: &lrclib.LyricsResult{PlainLyrics: "line"}}
	srv := New(&fakeStates{state: playingState()}, nil, lyr)
	router := srv.Router()

	doAction(t, router, `{"action":"GetLyric"}`)
	doAction(t, router, `{"action":"GetLyric"}`)

	assert.Equal(t, 1, lyr.calls)
}

func TestUnknownAction(t *testing.T) {
	srv := New(&fakeStates{state: playingState()}, nil, &fakeLyrics{})
	w := doAction(t, srv.Router(), `{"action":"selfDestruct"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvalidJSON(t *testing.T) {
	srv := New(&fakeStates{state: playingState()}, nil, &fakeLyrics{})
	w := doAction(t, srv.Router(), `{not json`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	srv := New(&fakeStates{state: playingState()}, nil, &fakeLyrics{})
	req := httptest.NewRequest(http.MethodGet, "/action", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	srv := New(&fakeStates{state: playingState()}, nil, &fakeLyrics{})
	req := httptest.NewRequest(http.MethodOptions, "/action", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
