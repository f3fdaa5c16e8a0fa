package playback

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	log "github.com/sirupsen/logrus"

	"btnow/internal/sidecache"
)

// DefaultPollInterval is used when no interval is configured.
const DefaultPollInterval = time.Second

// Store is the single authority for what the player is doing right now.
// It polls the source on a fixed interval, detects track changes,
// resolves cover art and lyrics through per-track caches and publishes
// change events.
type Store struct {
	source   Source
	clk      clock.Clock
	interval time.Duration

	covers *sidecache.Cache[string]
	lyrics *sidecache.Cache[string]

	mu         sync.RWMutex
	state      *Snapshot
	lastUpdate time.Time

	// Reentrancy guard: at most one snapshot fetch runs at a time. Ticks
	// arriving meanwhile are skipped. Side-data resolution runs detached
	// and is made harmless by the stale-result guard instead.
	polling atomic.Bool

	subsMu sync.RWMutex
	subs   map[Event]map[int]Handler
	nextID int

	startMu sync.Mutex
	stop    context.CancelFunc
}

// New creates a store polling source every interval.
func New(source Source, interval time.Duration, clk clock.Clock) *Store {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if clk == nil {
		clk = clock.New()
	}
	subs := make(map[Event]map[int]Handler)
	for _, e := range []Event{EventState, EventTrack, EventCover, EventLyrics, EventError} {
		subs[e] = make(map[int]Handler)
	}
	return &Store{
		source:   source,
		clk:      clk,
		interval: interval,
		covers:   sidecache.New[string](),
		lyrics:   sidecache.New[string](),
		subs:     subs,
	}
}

// Subscribe registers a handler for the named event and returns a
// function that removes the registration. Subscribing to an unknown
// event is a programming error and panics.
func (s *Store) Subscribe(event Event, h Handler) func() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	m, ok := s.subs[event]
	if !ok {
		panic(fmt.Sprintf("playback: unknown event %q", event))
	}
	id := s.nextID
	s.nextID++
	m[id] = h
	return func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		delete(m, id)
	}
}

// State returns a copy of the current merged state, or nil before the
// first successful poll.
func (s *Store) State() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return nil
	}
	cp := *s.state
	return &cp
}

// LastUpdate returns when the last successful poll was applied, zero
// before the first one.
func (s *Store) LastUpdate() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdate
}

// Start issues one immediate forced poll, then polls on the configured
// interval until the returned stop function is called or the process
// exits. Calling Start again cancels the previous schedule first.
func (s *Store) Start() (stop func()) {
	s.startMu.Lock()
	defer s.startMu.Unlock()
	if s.stop != nil {
		s.stop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.stop = cancel
	go s.run(ctx)
	return cancel
}

func (s *Store) run(ctx context.Context) {
	s.Refresh(ctx, true)
	t := s.clk.Ticker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Refresh(ctx, false)
		}
	}
}

// Refresh runs one poll cycle. force treats the result as a track
// change even when the key is unchanged; Start uses it for the initial
// poll. The cycle is skipped when another one is still in flight, and
// aborted without publishing when the fetch fails (the previous state
// stays authoritative).
func (s *Store) Refresh(ctx context.Context, force bool) {
	if !s.polling.CompareAndSwap(false, true) {
		return
	}
	defer s.polling.Store(false)

	remote, err := s.source.Snapshot(ctx)
	if err != nil {
		s.publish(EventError, ErrorEvent{Action: "playStats", Err: err})
		return
	}
	if remote == nil {
		return
	}

	s.mu.Lock()
	var prev Snapshot
	if s.state != nil {
		prev = *s.state
	}
	prevKey := prev.TrackKey()
	next := prev.merge(remote)
	nextKey := next.TrackKey()
	s.state = &next
	s.lastUpdate = s.clk.Now()
	s.mu.Unlock()

	s.publish(EventState, next)

	if (force || nextKey != prevKey) && nextKey != "" {
		s.publish(EventTrack, next)
		go s.resolveSideData(ctx, nextKey)
	}
}

// resolveSideData fetches cover art and lyrics for key concurrently,
// then merges them into the current state. Results arriving after the
// player moved to a different track are discarded.
func (s *Store) resolveSideData(ctx context.Context, key string) {
	var (
		wg     sync.WaitGroup
		cover  string
		lyrics string
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		cover = s.covers.GetOrFetch(ctx, key, s.fetchCover)
	}()
	go func() {
		defer wg.Done()
		lyrics = s.lyrics.GetOrFetch(ctx, key, s.fetchLyrics)
	}()
	wg.Wait()

	s.mu.Lock()
	if s.state == nil || s.state.TrackKey() != key {
		// The player moved on while the fetches ran.
		s.mu.Unlock()
		return
	}
	next := *s.state
	next.Cover = cover
	next.Lyrics = lyrics
	next.HasLyrics = true
	s.state = &next
	s.mu.Unlock()

	s.publish(EventCover, cover)
	s.publish(EventLyrics, lyrics)
	s.publish(EventState, next)
}

func (s *Store) fetchCover(ctx context.Context) string {
	link, err := s.source.Cover(ctx)
	if err != nil {
		s.publish(EventError, ErrorEvent{Action: "GetArt", Err: err})
		return ""
	}
	return link
}

func (s *Store) fetchLyrics(ctx context.Context) string {
	text, err := s.source.Lyrics(ctx)
	if err != nil {
		s.publish(EventError, ErrorEvent{Action: "GetLyric", Err: err})
		return ""
	}
	return text
}

func (s *Store) publish(event Event, payload any) {
	s.subsMu.RLock()
	handlers := make([]Handler, 0, len(s.subs[event]))
	for _, h := range s.subs[event] {
		handlers = append(handlers, h)
	}
	s.subsMu.RUnlock()
	for _, h := range handlers {
		invoke(event, h, payload)
	}
}

// invoke isolates a handler: a panic in one subscriber must not break
// delivery to the others or abort the poll loop.
func invoke(event Event, h Handler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("event", string(event)).Errorf("subscriber panic: %v", r)
		}
	}()
	h(payload)
}
