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

// Registry holds the single playback session per guild and guards its
// creation and teardown.
type Registry struct {
	engine     ports.AudioPlayer
	voice      ports.VoiceConnection
	voiceState ports.VoiceStateProvider
	publisher  ports.EventPublisher
	idleAfter  time.Duration

	mu       sync.Mutex
	sessions map[snowflake.ID]*Session
}

// NewRegistry creates a new session registry.
func NewRegistry(
	engine ports.AudioPlayer,
	voice ports.VoiceConnection,
	voiceState ports.VoiceStateProvider,
	publisher ports.EventPublisher,
	idleAfter time.Duration,
) *Registry {
	return &Registry{
		engine:     engine,
		voice:      voice,
		voiceState: voiceState,
		publisher:  publisher,
		idleAfter:  idleAfter,
		sessions:   make(map[snowflake.ID]*Session),
	}
}

// GetOrCreate atomically returns the guild's session, creating one bound to
// the requesting user's voice channel when none exists. Concurrent first-time
// requests for the same guild observe each other through the registry lock,
// so at most one session is ever created per guild.
//
// Fails with ErrNotInVoiceChannel when the user is not connected, and with
// ErrBotBusyElsewhere when the bot is already bound to a different channel.
func (r *Registry) GetOrCreate(
	ctx context.Context,
	guildID, userID, textChannelID snowflake.ID,
) (*Session, error) {
	voiceChannelID, err := r.voiceState.UserVoiceChannel(guildID, userID)
	if err != nil {
		return nil, domain.ExternalError("voice state lookup", err)
	}
	if voiceChannelID == nil {
		return nil, domain.ErrNotInVoiceChannel
	}

	r.mu.Lock()
	if existing, ok := r.sessions[guildID]; ok {
		r.mu.Unlock()
		if existing.VoiceChannelID() != *voiceChannelID {
			return nil, domain.ErrBotBusyElsewhere
		}
		existing.SetTextChannelID(textChannelID)
		return existing, nil
	}

	sess := newSession(
		guildID, *voiceChannelID, textChannelID,
		r.engine, r.publisher, r.idleAfter,
		r.expireSession,
	)
	r.sessions[guildID] = sess
	r.mu.Unlock()

	// Join the voice channel outside the registry lock: the join suspends on
	// gateway events and must not block unrelated guilds.
	if err := r.voice.Join(ctx, guildID, *voiceChannelID); err != nil {
		r.discard(guildID, sess)
		return nil, domain.ExternalError("voice join", err)
	}

	slog.Info("created playback session",
		"guild", guildID, "voice_channel", *voiceChannelID)
	return sess, nil
}

// Get returns the guild's session, or ErrNoActiveSession if none exists.
// Actions other than play never create a session implicitly.
func (r *Registry) Get(guildID snowflake.ID) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[guildID]
	if !ok {
		return nil, domain.ErrNoActiveSession
	}
	return sess, nil
}

// Remove tears down and removes the guild's session. The disconnect is issued
// exactly once: only the caller that wins the map delete performs teardown.
func (r *Registry) Remove(ctx context.Context, guildID snowflake.ID) error {
	r.mu.Lock()
	sess, ok := r.sessions[guildID]
	if ok {
		delete(r.sessions, guildID)
	}
	r.mu.Unlock()

	if !ok {
		return nil
	}

	sess.shutdown(ctx)
	if err := r.voice.Leave(ctx, guildID); err != nil {
		return domain.ExternalError("voice leave", err)
	}

	slog.Info("removed playback session", "guild", guildID)
	return nil
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Shutdown tears down every session, for process shutdown.
func (r *Registry) Shutdown(ctx context.Context) {
	r.mu.Lock()
	guildIDs := make([]snowflake.ID, 0, len(r.sessions))
	for guildID := range r.sessions {
		guildIDs = append(guildIDs, guildID)
	}
	r.mu.Unlock()

	for _, guildID := range guildIDs {
		if err := r.Remove(ctx, guildID); err != nil {
			slog.Warn("failed to remove session during shutdown", "guild", guildID, "error", err)
		}
	}
}

// expireSession is installed as the session inactivity callback.
func (r *Registry) expireSession(guildID snowflake.ID) {
	ctx, cancel := context.WithTimeout(context.Background(), engineOpTimeout)
	defer cancel()

	if err := r.Remove(ctx, guildID); err != nil {
		slog.Warn("failed to remove expired session", "guild", guildID, "error", err)
	}
}

// discard removes a half-created session after a failed voice join. Finding a
// different session under the guild key means two creations raced past the
// registry lock, which should be impossible.
func (r *Registry) discard(guildID snowflake.ID, sess *Session) {
	r.mu.Lock()
	current, ok := r.sessions[guildID]
	if ok && current == sess {
		delete(r.sessions, guildID)
		r.mu.Unlock()
		sess.shutdown(context.Background())
		return
	}
	r.mu.Unlock()

	if ok {
		slog.Error("registry double-create detected, keeping existing session",
			"guild", guildID)
	}
}
