// Package server exposes the playback state, cover art and lyrics over
// a single JSON action endpoint.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"btnow/internal/artwork"
	"btnow/internal/lrclib"
	"btnow/internal/playback"
	"btnow/internal/sidecache"
	"btnow/internal/statefile"
)

// StateSource provides the latest playback state.
type StateSource interface {
	Latest() (*statefile.State, error)
}

// LyricsSource fetches lyrics for a track.
type LyricsSource interface {
	Get(ctx context.Context, artist, title string, duration time.Duration) (*lrclib.LyricsResult, error)
}

// Server handles the /action endpoint. Cover art and lyric lookups are
// memoized per track so repeated polls never hit the upstream services
// twice for the same song.
type Server struct {
	states StateSource
	art    artwork.Provider
	lyrics LyricsSource

	covers *sidecache.Cache[string]
	texts  *sidecache.Cache[string]
}

// New creates a server. art may be nil when no artwork provider is
// configured; GetArt then always returns an empty link.
func New(states StateSource, art artwork.Provider, lyrics LyricsSource) *Server {
	return &Server{
		states: states,
		art:    art,
		lyrics: lyrics,
		covers: sidecache.New[string](),
		texts:  sidecache.New[string](),
	}
}

// Router builds the gin engine with the action route mounted.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), cors())
	router.HandleMethodNotAllowed = true

	router.POST("/action", s.handleAction)
	router.OPTIONS("/action", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	return router
}

// cors mirrors the permissive policy the web frontend expects.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Next()
	}
}

type actionRequest struct {
	Action string `json:"action"`
}

func (s *Server) handleAction(c *gin.Context) {
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON"})
		return
	}

	switch req.Action {
	case "playStats":
		s.playStats(c)
	case "GetArt":
		s.getArt(c)
	case "GetLyric":
		s.getLyric(c)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown action"})
	}
}

// latestState resolves the current state or writes the error response.
func (s *Server) latestState(c *gin.Context) (*statefile.State, bool) {
	st, err := s.states.Latest()
	if err != nil {
		if errors.Is(err, statefile.ErrNoState) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no playback state"})
		} else {
			logrus.WithError(err).Error("state lookup failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "state unavailable"})
		}
		return nil, false
	}
	return st, true
}

func (s *Server) playStats(c *gin.Context) {
	st, ok := s.latestState(c)
	if !ok {
		return
	}

	data := gin.H{
		"artist":      st.Artist,
		"title":       st.Title,
		"status":      st.Status,
		"position_ms": st.PositionMs,
		"duration_ms": st.DurationMs,
		"updated":     st.Updated,
	}
	if st.Album != "" {
		data["album"] = st.Album
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"data":   data,
	})
}

func (s *Server) getArt(c *gin.Context) {
	st, ok := s.latestState(c)
	if !ok {
		return
	}

	link := ""
	key := playback.Key(st.Artist, st.Title)
	if s.art != nil && key != "" {
		link = s.covers.GetOrFetch(c.Request.Context(), key, func(ctx context.Context) string {
			url, err := s.art.CoverURL(ctx, st.Artist, st.Title)
			if err != nil {
				if !errors.Is(err, artwork.ErrNotFound) {
					logrus.WithError(err).Warn("cover art lookup failed")
				}
				return ""
			}
			return url
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"artist": st.Artist,
		"title":  st.Title,
		"link":   link,
	})
}

func (s *Server) getLyric(c *gin.Context) {
	st, ok := s.latestState(c)
	if !ok {
		return
	}

	text := ""
	key := playback.Key(st.Artist, st.Title)
	if key != "" {
		text = s.texts.GetOrFetch(c.Request.Context(), key, func(ctx context.Context) string {
			result, err := s.lyrics.Get(ctx, st.Artist, st.Title, st.Duration())
			if err != nil {
				if !errors.Is(err, lrclib.ErrNotFound) {
					logrus.WithError(err).Warn("lyrics lookup failed")
				}
				return ""
			}
			return result.Text()
		})
	}

	if text == "" {
		c.JSON(http.StatusOK, gin.H{
			"status":  "error",
			"message": "lyrics not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"artist": st.Artist,
		"title":  st.Title,
		"lyrics": text,
	})
}
