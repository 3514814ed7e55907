package domain

// SessionState is the lifecycle state of a guild playback session.
type SessionState int

const (
	StateIdle SessionState = iota
	StatePlaying
	StatePaused
	StateTerminated
)

// String returns a human-readable representation of the session state.
func (s SessionState) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateTerminated:
		return "terminated"
	default:
		return "idle"
	}
}
