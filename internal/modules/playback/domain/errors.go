package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies expected failures so callers can decide how to report
// them: user mistakes get an ephemeral message, stale state gets a retry hint,
// external failures get logged with a generic message, and invariant
// violations abort the operation.
type ErrorKind int

const (
	KindUserInput ErrorKind = iota
	KindSessionState
	KindExternal
	KindInternal
)

// Error is a classified playback error. All expected failures returned by the
// playback module are of this type; anything else is treated as internal.
type Error struct {
	Kind  ErrorKind
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.cause }

// Sentinel errors for the playback module.
var (
	// ErrNotInVoiceChannel is returned when the requesting user is not
	// connected to a voice channel in the guild.
	ErrNotInVoiceChannel = &Error{Kind: KindUserInput, msg: "you must be in a voice channel"}

	// ErrBotBusyElsewhere is returned when the bot is already bound to a
	// different voice channel in the guild.
	ErrBotBusyElsewhere = &Error{Kind: KindUserInput, msg: "already playing in another voice channel"}

	// ErrGuildOnly is returned when a playback command is used outside a guild.
	ErrGuildOnly = &Error{Kind: KindUserInput, msg: "playback commands only work in a server"}

	// ErrEmptySelection is returned when a select-menu interaction carries no values.
	ErrEmptySelection = &Error{Kind: KindUserInput, msg: "nothing selected"}

	// ErrCooldown is returned when a user repeats an action within the
	// cooldown window.
	ErrCooldown = &Error{Kind: KindUserInput, msg: "slow down"}

	// ErrNoActiveSession is returned when an action targets a guild with no
	// playback session.
	ErrNoActiveSession = &Error{Kind: KindSessionState, msg: "no active session"}

	// ErrNoActiveTrack is returned when a playback control requires a current
	// track and there is none.
	ErrNoActiveTrack = &Error{Kind: KindSessionState, msg: "nothing is currently playing"}

	// ErrIndexOutOfRange is returned when a queue index does not exist. A
	// selector from a previously rendered page falls here when the queue
	// changed in between.
	ErrIndexOutOfRange = &Error{Kind: KindSessionState, msg: "queue position no longer exists"}

	// ErrMalformedControlID is returned when a component custom id cannot be
	// decoded.
	ErrMalformedControlID = &Error{Kind: KindSessionState, msg: "malformed control id"}

	// ErrSessionTerminated is returned when an operation races session teardown.
	ErrSessionTerminated = &Error{Kind: KindSessionState, msg: "session has ended"}
)

// ExternalError wraps a failure from the audio engine or media catalog.
func ExternalError(op string, cause error) error {
	return &Error{Kind: KindExternal, msg: op + " failed", cause: cause}
}

// InternalError reports an invariant violation.
func InternalError(format string, args ...any) error {
	return &Error{Kind: KindInternal, msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the classification of err. Errors that are not playback
// errors are treated as internal: they indicate a genuinely unexpected fault.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindInternal
}
