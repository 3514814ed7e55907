package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/plexbeat/plexbeat/internal/modules/playback/domain"
	"github.com/plexbeat/plexbeat/internal/modules/playback/ports"
)

// engineOpTimeout bounds every call into the audio engine. A timed-out call
// reports a failure and leaves session state unchanged.
const engineOpTimeout = 10 * time.Second

// CardRef identifies the live "now playing" message. Both IDs are needed for
// deletion since the card may live in a different channel than the one the
// latest command came from.
type CardRef struct {
	ChannelID snowflake.ID
	MessageID snowflake.ID
}

// EnqueueResult describes what Enqueue did with the submitted items.
type EnqueueResult struct {
	Started *domain.QueueItem // item that began playing, nil if all were queued
	Queued  int               // items appended to the pending queue
}

// Session is the single playback context bound to one guild and voice
// channel. It owns the pending queue, the current item, the repeat mode, the
// inactivity deadline, and the live card reference.
//
// All mutating operations acquire the session mutex, forming the per-session
// single-writer scope: concurrent control events and engine callbacks
// targeting the same guild are linearized in arrival order. Queue page reads
// bypass the mutex and tolerate staleness.
type Session struct {
	guildID        snowflake.ID
	voiceChannelID snowflake.ID

	engine    ports.AudioPlayer
	publisher ports.EventPublisher

	mu            sync.Mutex
	state         domain.SessionState
	repeat        domain.RepeatMode
	current       *domain.QueueItem
	queue         *domain.Queue
	textChannelID snowflake.ID
	liveCard      *CardRef

	// pendingEnds counts, per playback URI, end callbacks owed for tracks an
	// explicit advance already replaced. The engine raises exactly one end
	// event per started track and delivers them in order, so each recorded
	// replacement consumes exactly one incoming event. Without this a
	// finished event that lost the lock race to a Skip would match a
	// freshly started duplicate of the same URI and advance a second time.
	pendingEnds map[string]int

	idleAfter    time.Duration
	idleDeadline time.Time
	idleTimer    *time.Timer
	onExpire     func(guildID snowflake.ID)
}

func newSession(
	guildID, voiceChannelID, textChannelID snowflake.ID,
	engine ports.AudioPlayer,
	publisher ports.EventPublisher,
	idleAfter time.Duration,
	onExpire func(guildID snowflake.ID),
) *Session {
	s := &Session{
		guildID:        guildID,
		voiceChannelID: voiceChannelID,
		textChannelID:  textChannelID,
		engine:         engine,
		publisher:      publisher,
		state:          domain.StateIdle,
		queue:          domain.NewQueue(),
		pendingEnds:    make(map[string]int),
		idleAfter:      idleAfter,
		onExpire:       onExpire,
	}
	s.mu.Lock()
	s.touchLocked()
	s.mu.Unlock()
	return s
}

// GuildID returns the guild this session is bound to.
func (s *Session) GuildID() snowflake.ID { return s.guildID }

// VoiceChannelID returns the voice channel this session is bound to.
// Fixed at creation; a session never migrates between channels.
func (s *Session) VoiceChannelID() snowflake.ID { return s.voiceChannelID }

// Queue returns the pending queue for paged, read-only rendering. Mutations
// go through session operations so they stay inside the writer scope.
func (s *Session) Queue() *domain.Queue { return s.queue }

// TextChannelID returns the channel hosting the live card.
func (s *Session) TextChannelID() snowflake.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.textChannelID
}

// SetTextChannelID updates the channel that future cards are sent to.
func (s *Session) SetTextChannelID(channelID snowflake.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.textChannelID = channelID
}

// Snapshot returns the current state, repeat mode and current item for
// rendering.
func (s *Session) Snapshot() (domain.SessionState, domain.RepeatMode, *domain.QueueItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.repeat, s.current
}

// LiveCard returns the live card reference, or nil if no card is tracked.
func (s *Session) LiveCard() *CardRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.liveCard == nil {
		return nil
	}
	ref := *s.liveCard
	return &ref
}

// SetLiveCard replaces the live card reference.
func (s *Session) SetLiveCard(ref CardRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.liveCard = &ref
}

// Enqueue submits items for playback. When nothing is playing the first item
// starts immediately and the rest are queued; otherwise everything is queued.
func (s *Session) Enqueue(ctx context.Context, items ...*domain.QueueItem) (*EnqueueResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == domain.StateTerminated {
		return nil, domain.ErrSessionTerminated
	}
	if len(items) == 0 {
		return nil, domain.ErrEmptySelection
	}

	result := &EnqueueResult{}

	if s.current == nil {
		if err := s.startTrackLocked(ctx, items[0]); err != nil {
			return nil, err
		}
		result.Started = items[0]
		items = items[1:]
	}

	if len(items) > 0 {
		s.queue.Append(items...)
		result.Queued = len(items)
	}

	s.touchLocked()
	return result, nil
}

// Skip forces an advance to the next queue item, overriding RepeatTrack.
// Under RepeatQueue the skipped item cycles to the queue tail.
func (s *Session) Skip(ctx context.Context) (*domain.QueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == domain.StateTerminated {
		return nil, domain.ErrSessionTerminated
	}
	if s.current == nil && s.queue.IsEmpty() {
		return nil, domain.ErrNoActiveTrack
	}

	if s.repeat == domain.RepeatQueue && s.current != nil {
		s.queue.Append(s.current)
	}

	next := s.queue.PopFront()
	if next == nil {
		// Queue exhausted: stop and go idle. The engine reports the ended
		// track as "stopped", which never auto-advances.
		if err := s.engineStop(ctx); err != nil {
			return nil, err
		}
		s.current = nil
		s.state = domain.StateIdle
		s.touchLocked()
		s.publishStateChangedLocked()
		return nil, nil
	}

	// Starting the next track replaces the current one in the engine. The
	// replaced track still owes one end callback, either "replaced" or, if
	// it finished right as the skip ran, "finished". Record it as consumed
	// so it can never advance past the track started here.
	prev := s.current
	if err := s.startTrackLocked(ctx, next); err != nil {
		return nil, err
	}
	if prev != nil {
		s.pendingEnds[prev.PlaybackURI]++
	}
	s.touchLocked()
	return next, nil
}

// TogglePause flips between Playing and Paused. Returns the new paused state.
func (s *Session) TogglePause(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == domain.StateTerminated {
		return false, domain.ErrSessionTerminated
	}
	if s.current == nil {
		return false, domain.ErrNoActiveTrack
	}

	pause := s.state == domain.StatePlaying

	callCtx, cancel := context.WithTimeout(ctx, engineOpTimeout)
	defer cancel()
	if err := s.engine.SetPaused(callCtx, s.guildID, pause); err != nil {
		return false, domain.ExternalError("pause toggle", err)
	}

	if pause {
		s.state = domain.StatePaused
	} else {
		s.state = domain.StatePlaying
	}
	s.touchLocked()
	s.publishStateChangedLocked()
	return pause, nil
}

// SetPaused moves to the requested paused state. Already being there is not
// an error, so racing pause commands settle without complaint.
func (s *Session) SetPaused(ctx context.Context, pause bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == domain.StateTerminated {
		return domain.ErrSessionTerminated
	}
	if s.current == nil {
		return domain.ErrNoActiveTrack
	}
	if (s.state == domain.StatePaused) == pause {
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, engineOpTimeout)
	defer cancel()
	if err := s.engine.SetPaused(callCtx, s.guildID, pause); err != nil {
		return domain.ExternalError("pause toggle", err)
	}

	if pause {
		s.state = domain.StatePaused
	} else {
		s.state = domain.StatePlaying
	}
	s.touchLocked()
	s.publishStateChangedLocked()
	return nil
}

// SetRepeatMode sets the repeat mode.
func (s *Session) SetRepeatMode(mode domain.RepeatMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == domain.StateTerminated {
		return domain.ErrSessionTerminated
	}

	s.repeat = mode
	s.touchLocked()
	s.publishStateChangedLocked()
	return nil
}

// CycleRepeatMode advances None -> Track -> Queue -> None and returns the
// new mode.
func (s *Session) CycleRepeatMode() (domain.RepeatMode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == domain.StateTerminated {
		return domain.RepeatNone, domain.ErrSessionTerminated
	}

	switch s.repeat {
	case domain.RepeatNone:
		s.repeat = domain.RepeatTrack
	case domain.RepeatTrack:
		s.repeat = domain.RepeatQueue
	default:
		s.repeat = domain.RepeatNone
	}
	s.touchLocked()
	s.publishStateChangedLocked()
	return s.repeat, nil
}

// Stop stops playback and clears the queue, returning the session to Idle.
func (s *Session) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == domain.StateTerminated {
		return domain.ErrSessionTerminated
	}

	if err := s.engineStop(ctx); err != nil {
		return err
	}

	s.queue.Clear()
	s.current = nil
	s.state = domain.StateIdle
	s.touchLocked()
	s.publishStateChangedLocked()
	return nil
}

// RemoveAt removes the pending item at index inside the writer scope, so the
// index is validated against the queue as it is now, not as it was rendered.
func (s *Session) RemoveAt(index int) (*domain.QueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == domain.StateTerminated {
		return nil, domain.ErrSessionTerminated
	}

	item, err := s.queue.RemoveAt(index)
	if err != nil {
		return nil, err
	}
	s.touchLocked()
	return item, nil
}

// MoveToFront makes the pending item at index the next one to play.
func (s *Session) MoveToFront(index int) (*domain.QueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == domain.StateTerminated {
		return nil, domain.ErrSessionTerminated
	}

	items, _ := s.queue.Page(index, 1)
	if err := s.queue.MoveToFront(index); err != nil {
		return nil, err
	}
	s.touchLocked()
	return items[0], nil
}

// ClearQueue removes all pending items, leaving the current track playing.
func (s *Session) ClearQueue() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == domain.StateTerminated {
		return 0, domain.ErrSessionTerminated
	}

	count := s.queue.Clear()
	s.touchLocked()
	return count, nil
}

// ShuffleQueue randomizes the pending items.
func (s *Session) ShuffleQueue() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == domain.StateTerminated {
		return domain.ErrSessionTerminated
	}
	if s.queue.IsEmpty() {
		return domain.ErrNoActiveTrack
	}

	s.queue.Shuffle()
	s.touchLocked()
	return nil
}

// HandleTrackEnd processes a track-end callback from the audio engine.
// The engine and a user Skip racing on the same session are serialized by the
// session mutex. Callbacks owed by tracks that an explicit advance already
// replaced are consumed from pendingEnds whatever their reason, so even a
// finished event for an older instance of the currently playing URI cannot
// advance twice; anything left is matched against the current track's URI.
func (s *Session) HandleTrackEnd(ctx context.Context, endedURI string, reason domain.TrackEndReason) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == domain.StateTerminated {
		return nil
	}
	if n := s.pendingEnds[endedURI]; n > 0 {
		if n == 1 {
			delete(s.pendingEnds, endedURI)
		} else {
			s.pendingEnds[endedURI] = n - 1
		}
		slog.Debug("consuming end event for a replaced track",
			"guild", s.guildID, "reason", reason.String())
		return nil
	}
	if s.current == nil {
		return nil
	}
	if endedURI != "" && endedURI != s.current.PlaybackURI {
		slog.Debug("ignoring stale track end",
			"guild", s.guildID, "reason", reason.String())
		return nil
	}
	if !reason.MayAutoAdvance() {
		return nil
	}

	// RepeatTrack replays the same item, except after a load failure where
	// replaying would just fail again.
	if s.repeat == domain.RepeatTrack && reason == domain.EndFinished {
		if err := s.startTrackLocked(ctx, s.current); err != nil {
			return s.goIdleLocked(err)
		}
		s.touchLocked()
		return nil
	}

	if s.repeat == domain.RepeatQueue {
		s.queue.Append(s.current)
	}

	next := s.queue.PopFront()
	if next == nil {
		return s.goIdleLocked(nil)
	}

	if err := s.startTrackLocked(ctx, next); err != nil {
		return s.goIdleLocked(err)
	}
	s.touchLocked()
	return nil
}

// goIdleLocked transitions to Idle with no current item and arms the
// inactivity deadline. Must be called with the session mutex held.
func (s *Session) goIdleLocked(cause error) error {
	s.current = nil
	s.state = domain.StateIdle
	s.touchLocked()
	s.publishStateChangedLocked()
	return cause
}

// startTrackLocked starts playback of item via the engine and publishes
// trackStarted. On failure the session keeps its prior current item and
// state. Must be called with the session mutex held.
func (s *Session) startTrackLocked(ctx context.Context, item *domain.QueueItem) error {
	callCtx, cancel := context.WithTimeout(ctx, engineOpTimeout)
	defer cancel()

	if err := s.engine.Play(callCtx, s.guildID, item.PlaybackURI); err != nil {
		return domain.ExternalError("track load", err)
	}

	s.current = item
	s.state = domain.StatePlaying
	s.touchLocked()

	if s.publisher != nil {
		s.publisher.PublishTrackStarted(domain.TrackStartedEvent{
			GuildID: s.guildID,
			Item:    item,
		})
	}
	return nil
}

// engineStop issues a bounded stop call. Must be called with the mutex held.
func (s *Session) engineStop(ctx context.Context) error {
	callCtx, cancel := context.WithTimeout(ctx, engineOpTimeout)
	defer cancel()

	if err := s.engine.Stop(callCtx, s.guildID); err != nil {
		return domain.ExternalError("stop", err)
	}
	return nil
}

func (s *Session) publishStateChangedLocked() {
	if s.publisher == nil {
		return
	}
	s.publisher.PublishPlayerStateChanged(domain.PlayerStateChangedEvent{
		GuildID: s.guildID,
		State:   s.state,
		Repeat:  s.repeat,
	})
}

// touchLocked resets the inactivity deadline. The countdown only runs while
// the session is Idle; playing and paused sessions never expire. Must be
// called with the session mutex held.
func (s *Session) touchLocked() {
	s.idleDeadline = time.Now().Add(s.idleAfter)

	if s.idleTimer != nil {
		s.idleTimer.Stop()
		s.idleTimer = nil
	}
	if s.state != domain.StateIdle {
		return
	}
	s.idleTimer = time.AfterFunc(s.idleAfter, s.expireIfIdle)
}

// expireIfIdle terminates the session if it is still Idle and the deadline
// has truly elapsed. In-flight operations drain first because termination
// takes the same writer lock they hold.
func (s *Session) expireIfIdle() {
	s.mu.Lock()

	if s.state != domain.StateIdle {
		s.mu.Unlock()
		return
	}
	if remaining := time.Until(s.idleDeadline); remaining > 0 {
		// Deadline was pushed out after this timer was armed.
		s.idleTimer = time.AfterFunc(remaining, s.expireIfIdle)
		s.mu.Unlock()
		return
	}

	s.state = domain.StateTerminated
	s.queue.Clear()
	s.current = nil
	onExpire := s.onExpire
	guildID := s.guildID

	if s.publisher != nil {
		s.publisher.PublishSessionExpired(domain.SessionExpiredEvent{
			GuildID: guildID,
		})
	}
	s.mu.Unlock()

	slog.Info("session expired due to inactivity", "guild", guildID)
	if onExpire != nil {
		onExpire(guildID)
	}
}

// shutdown tears the session down. Idempotent: only the first call stops the
// engine. Called by the registry under Remove.
func (s *Session) shutdown(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.idleTimer != nil {
		s.idleTimer.Stop()
		s.idleTimer = nil
	}
	if s.state == domain.StateTerminated {
		return
	}

	if err := s.engineStop(ctx); err != nil {
		slog.Warn("failed to stop engine during shutdown", "guild", s.guildID, "error", err)
	}
	s.queue.Clear()
	s.current = nil
	s.state = domain.StateTerminated
}
