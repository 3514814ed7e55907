package domain

// RepeatMode controls what happens when a track finishes.
type RepeatMode int

const (
	RepeatNone  RepeatMode = iota // Default: stop when the queue is exhausted
	RepeatTrack                   // Replay the current item indefinitely
	RepeatQueue                   // Cycle the whole queue
)

// String returns a human-readable representation of the repeat mode.
func (m RepeatMode) String() string {
	switch m {
	case RepeatTrack:
		return "track"
	case RepeatQueue:
		return "queue"
	default:
		return "none"
	}
}

// ParseRepeatMode converts a string to a RepeatMode.
func ParseRepeatMode(s string) RepeatMode {
	switch s {
	case "track":
		return RepeatTrack
	case "queue":
		return RepeatQueue
	default:
		return RepeatNone
	}
}
