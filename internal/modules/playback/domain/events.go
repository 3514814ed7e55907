package domain

import "github.com/disgoorg/snowflake/v2"

// TrackEndReason mirrors the audio engine's track-end reason codes.
type TrackEndReason int

const (
	EndFinished TrackEndReason = iota
	EndReplaced
	EndStopped
	EndLoadFailed
	EndCleanup
)

// String returns a human-readable representation of the end reason.
func (r TrackEndReason) String() string {
	switch r {
	case EndFinished:
		return "finished"
	case EndReplaced:
		return "replaced"
	case EndStopped:
		return "stopped"
	case EndLoadFailed:
		return "loadFailed"
	default:
		return "cleanup"
	}
}

// MayAutoAdvance reports whether an end reason should trigger an automatic
// advance to the next queue item. Replaced and stopped tracks ended because
// some operation already decided what plays next.
func (r TrackEndReason) MayAutoAdvance() bool {
	return r == EndFinished || r == EndLoadFailed
}

// TrackStartedEvent is raised when a session enters Playing with a new
// current item.
type TrackStartedEvent struct {
	GuildID snowflake.ID
	Item    *QueueItem
}

// PlayerStateChangedEvent is raised on secondary changes that do not start a
// new track (pause, resume, repeat-mode change). The live card edits its
// control row in place on this event.
type PlayerStateChangedEvent struct {
	GuildID snowflake.ID
	State   SessionState
	Repeat  RepeatMode
}

// TrackEndedEvent is raised by the audio engine when a track stops playing
// for any reason. EndedURI identifies the track the event refers to, so a
// stale event cannot advance past a different track.
type TrackEndedEvent struct {
	GuildID  snowflake.ID
	EndedURI string
	Reason   TrackEndReason
}

// SessionExpiredEvent is raised when a session reaches Terminated via the
// inactivity deadline.
type SessionExpiredEvent struct {
	GuildID snowflake.ID
}
