package playback

// Event names recognized by Store.Subscribe.
type Event string

const (
	// EventState fires after every successful poll with the merged
	// Snapshot, and again after side data resolves.
	EventState Event = "state"
	// EventTrack fires once per track change with the merged Snapshot.
	EventTrack Event = "track"
	// EventCover fires with the cover URL once per track, "" when the
	// provider has none.
	EventCover Event = "cover"
	// EventLyrics fires with the raw lyric text once per track, "" when
	// the provider has none.
	EventLyrics Event = "lyrics"
	// EventError fires with an ErrorEvent for every failed fetch. The
	// store keeps polling on its schedule.
	EventError Event = "error"
)

// ErrorEvent is the payload delivered on EventError.
type ErrorEvent struct {
	// Action names the failing fetch: "playStats", "GetArt" or
	// "GetLyric".
	Action string
	Err    error
}

// Handler receives the payload for a subscribed event: Snapshot for
// EventState and EventTrack, string for EventCover and EventLyrics,
// ErrorEvent for EventError.
type Handler func(payload any)
