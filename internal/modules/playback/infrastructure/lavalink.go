package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/disgolink/v3/disgolink"
	"github.com/disgoorg/disgolink/v3/lavalink"
	"github.com/disgoorg/snowflake/v2"
	"github.com/plexbeat/plexbeat/internal/modules/playback/domain"
	"github.com/plexbeat/plexbeat/internal/modules/playback/ports"
)

// voiceConnectionTimeout is the maximum time to wait for a voice connection
// to be established.
const voiceConnectionTimeout = 10 * time.Second

// pendingVoiceConnection tracks a join waiting for both gateway voice events.
type pendingVoiceConnection struct {
	mu             sync.Mutex
	hasVoiceState  bool
	hasVoiceServer bool
	ready          chan struct{}
}

// onEvent marks an event as received and signals ready once both are present.
func (p *pendingVoiceConnection) onEvent(isVoiceState bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if isVoiceState {
		p.hasVoiceState = true
	} else {
		p.hasVoiceServer = true
	}

	if p.hasVoiceState && p.hasVoiceServer {
		select {
		case <-p.ready:
			// Already closed
		default:
			close(p.ready)
		}
	}
}

// voiceEventBuffer holds voice events until both VoiceStateUpdate and
// VoiceServerUpdate are received, since forwarding a partial pair makes
// Lavalink reject the voice state.
type voiceEventBuffer struct {
	mu sync.Mutex

	// From VoiceStateUpdate
	hasVoiceState bool
	channelID     *snowflake.ID
	sessionID     string

	// From VoiceServerUpdate
	hasVoiceServer bool
	token          string
	endpoint       string
}

func (b *voiceEventBuffer) setVoiceState(channelID *snowflake.ID, sessionID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.hasVoiceState = true
	b.channelID = channelID
	b.sessionID = sessionID

	return b.hasVoiceState && b.hasVoiceServer
}

func (b *voiceEventBuffer) setVoiceServer(token, endpoint string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.hasVoiceServer = true
	b.token = token
	b.endpoint = endpoint

	return b.hasVoiceState && b.hasVoiceServer
}

// getData returns the buffered data and resets the buffer.
func (b *voiceEventBuffer) getData() (channelID *snowflake.ID, sessionID, token, endpoint string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	channelID = b.channelID
	sessionID = b.sessionID
	token = b.token
	endpoint = b.endpoint

	b.hasVoiceState = false
	b.hasVoiceServer = false
	b.channelID = nil
	b.sessionID = ""
	b.token = ""
	b.endpoint = ""

	return
}

// LavalinkEngine drives playback through a Lavalink node via DisGoLink. It
// implements the audio player and voice connection ports, and publishes
// track-end events onto the bus.
type LavalinkEngine struct {
	link    disgolink.Client
	session *discordgo.Session
	botID   snowflake.ID

	pendingMu sync.Mutex
	pending   map[snowflake.ID]*pendingVoiceConnection

	voiceBufferMu sync.Mutex
	voiceBuffers  map[snowflake.ID]*voiceEventBuffer

	publisher ports.EventPublisher
}

// LavalinkConfig contains the Lavalink node connection configuration.
type LavalinkConfig struct {
	Address  string
	Password string
}

// NewLavalinkEngine creates a LavalinkEngine connected to the configured node.
func NewLavalinkEngine(
	session *discordgo.Session,
	publisher ports.EventPublisher,
	config LavalinkConfig,
) (*LavalinkEngine, error) {
	botID, err := snowflake.Parse(session.State.User.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bot ID: %w", err)
	}

	engine := &LavalinkEngine{
		session:      session,
		botID:        botID,
		pending:      make(map[snowflake.ID]*pendingVoiceConnection),
		voiceBuffers: make(map[snowflake.ID]*voiceEventBuffer),
		publisher:    publisher,
	}

	link := disgolink.New(botID,
		disgolink.WithListenerFunc(engine.onTrackStart),
		disgolink.WithListenerFunc(engine.onTrackEnd),
		disgolink.WithListenerFunc(engine.onTrackException),
		disgolink.WithListenerFunc(engine.onTrackStuck),
	)
	engine.link = link

	node, err := link.AddNode(context.Background(), disgolink.NodeConfig{
		Name:     "main",
		Address:  config.Address,
		Password: config.Password,
		Secure:   false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add Lavalink node: %w", err)
	}

	slog.Info("connected to Lavalink", "node", node.Config().Name, "address", config.Address)

	return engine, nil
}

// Close shuts down the Lavalink connection.
func (e *LavalinkEngine) Close() {
	e.link.Close()
}

// Play resolves the playback URI on the node and starts it, replacing any
// track currently playing in the guild.
func (e *LavalinkEngine) Play(ctx context.Context, guildID snowflake.ID, uri string) error {
	node := e.link.BestNode()
	if node == nil {
		return fmt.Errorf("no available Lavalink node")
	}

	result, err := node.LoadTracks(ctx, uri)
	if err != nil {
		return fmt.Errorf("failed to load track: %w", err)
	}

	track, ok := result.Data.(lavalink.Track)
	if !ok {
		return fmt.Errorf("uri did not resolve to a single track: %s", uri)
	}

	player := e.link.Player(guildID)
	if err := player.Update(ctx, lavalink.WithEncodedTrack(track.Encoded)); err != nil {
		return fmt.Errorf("failed to play track: %w", err)
	}

	return nil
}

// Stop stops the current playback without disconnecting.
func (e *LavalinkEngine) Stop(ctx context.Context, guildID snowflake.ID) error {
	player := e.link.Player(guildID)

	if err := player.Update(ctx, lavalink.WithNullTrack()); err != nil {
		return fmt.Errorf("failed to stop playback: %w", err)
	}

	return nil
}

// SetPaused pauses or resumes the current playback.
func (e *LavalinkEngine) SetPaused(ctx context.Context, guildID snowflake.ID, paused bool) error {
	player := e.link.Player(guildID)

	if err := player.Update(ctx, lavalink.WithPaused(paused)); err != nil {
		return fmt.Errorf("failed to update pause state: %w", err)
	}

	return nil
}

// Join connects to a voice channel. It waits for both VoiceStateUpdate and
// VoiceServerUpdate events before returning.
func (e *LavalinkEngine) Join(ctx context.Context, guildID, channelID snowflake.ID) error {
	pending := &pendingVoiceConnection{
		ready: make(chan struct{}),
	}

	e.pendingMu.Lock()
	e.pending[guildID] = pending
	e.pendingMu.Unlock()

	defer func() {
		e.pendingMu.Lock()
		delete(e.pending, guildID)
		e.pendingMu.Unlock()
	}()

	err := e.session.ChannelVoiceJoinManual(guildID.String(), channelID.String(), false, false)
	if err != nil {
		return fmt.Errorf("failed to join voice channel: %w", err)
	}

	select {
	case <-pending.ready:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("context cancelled while waiting for voice connection: %w", ctx.Err())
	case <-time.After(voiceConnectionTimeout):
		return fmt.Errorf("timeout waiting for voice connection")
	}
}

// Leave disconnects from the voice channel and destroys the player.
func (e *LavalinkEngine) Leave(ctx context.Context, guildID snowflake.ID) error {
	player := e.link.ExistingPlayer(guildID)
	if player != nil {
		if err := player.Destroy(ctx); err != nil {
			slog.Warn("failed to destroy player", "guild", guildID, "error", err)
		}
	}

	err := e.session.ChannelVoiceJoinManual(guildID.String(), "", false, false)
	if err != nil {
		return fmt.Errorf("failed to leave voice channel: %w", err)
	}
	return nil
}

// OnVoiceServerUpdate handles Discord voice server updates.
// This must be called from the Discord event handler.
func (e *LavalinkEngine) OnVoiceServerUpdate(event *discordgo.VoiceServerUpdate) {
	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice server update", "error", err)
		return
	}

	buffer := e.getOrCreateVoiceBuffer(guildID)
	if buffer.setVoiceServer(event.Token, event.Endpoint) {
		e.forwardBufferedVoiceEvents(guildID, buffer)
	}

	e.pendingMu.Lock()
	pending := e.pending[guildID]
	e.pendingMu.Unlock()

	if pending != nil {
		pending.onEvent(false)
	}
}

// OnVoiceStateUpdate handles Discord voice state updates for the bot itself.
// This must be called from the Discord event handler.
func (e *LavalinkEngine) OnVoiceStateUpdate(event *discordgo.VoiceStateUpdate) {
	if event.UserID != e.botID.String() {
		return
	}

	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice state update", "error", err)
		return
	}

	sessionID := event.SessionID

	// An empty channel ID means the bot is disconnecting.
	var channelID *snowflake.ID
	if event.ChannelID != "" {
		id, err := snowflake.Parse(event.ChannelID)
		if err != nil {
			slog.Error("failed to parse channel ID in voice state update", "error", err)
			return
		}
		channelID = &id
	}

	// Disconnects forward immediately; there is no VoiceServerUpdate to wait for.
	if channelID == nil {
		e.link.OnVoiceStateUpdate(context.Background(), guildID, nil, sessionID)
		e.clearVoiceBuffer(guildID)
		return
	}

	buffer := e.getOrCreateVoiceBuffer(guildID)
	if buffer.setVoiceState(channelID, sessionID) {
		e.forwardBufferedVoiceEvents(guildID, buffer)
	}

	e.pendingMu.Lock()
	pending := e.pending[guildID]
	e.pendingMu.Unlock()

	if pending != nil {
		pending.onEvent(true)
	}
}

func (e *LavalinkEngine) getOrCreateVoiceBuffer(guildID snowflake.ID) *voiceEventBuffer {
	e.voiceBufferMu.Lock()
	defer e.voiceBufferMu.Unlock()

	buffer, exists := e.voiceBuffers[guildID]
	if !exists {
		buffer = &voiceEventBuffer{}
		e.voiceBuffers[guildID] = buffer
	}
	return buffer
}

func (e *LavalinkEngine) clearVoiceBuffer(guildID snowflake.ID) {
	e.voiceBufferMu.Lock()
	defer e.voiceBufferMu.Unlock()
	delete(e.voiceBuffers, guildID)
}

// forwardBufferedVoiceEvents sends the buffered voice events to Lavalink in
// the order it requires.
func (e *LavalinkEngine) forwardBufferedVoiceEvents(
	guildID snowflake.ID,
	buffer *voiceEventBuffer,
) {
	channelID, sessionID, token, endpoint := buffer.getData()

	slog.Debug("forwarding buffered voice events to Lavalink",
		"guild", guildID,
		"channel", channelID,
	)

	e.link.OnVoiceStateUpdate(context.Background(), guildID, channelID, sessionID)
	e.link.OnVoiceServerUpdate(context.Background(), guildID, token, endpoint)
}

func (e *LavalinkEngine) onTrackStart(player disgolink.Player, event lavalink.TrackStartEvent) {
	slog.Debug("track started", "guild", player.GuildID(), "track", event.Track.Info.Title)
}

func (e *LavalinkEngine) onTrackEnd(player disgolink.Player, event lavalink.TrackEndEvent) {
	slog.Debug("track ended", "guild", player.GuildID(), "reason", event.Reason)

	var endedURI string
	if event.Track.Info.URI != nil {
		endedURI = *event.Track.Info.URI
	}

	e.publisher.PublishTrackEnded(domain.TrackEndedEvent{
		GuildID:  player.GuildID(),
		EndedURI: endedURI,
		Reason:   convertEndReason(event.Reason),
	})
}

func (e *LavalinkEngine) onTrackException(
	player disgolink.Player,
	event lavalink.TrackExceptionEvent,
) {
	slog.Warn("track exception", "guild", player.GuildID(), "error", event.Exception.Message)
}

func (e *LavalinkEngine) onTrackStuck(player disgolink.Player, event lavalink.TrackStuckEvent) {
	slog.Warn("track stuck", "guild", player.GuildID(), "threshold", event.Threshold)
}

func convertEndReason(reason lavalink.TrackEndReason) domain.TrackEndReason {
	switch reason {
	case lavalink.TrackEndReasonFinished:
		return domain.EndFinished
	case lavalink.TrackEndReasonLoadFailed:
		return domain.EndLoadFailed
	case lavalink.TrackEndReasonStopped:
		return domain.EndStopped
	case lavalink.TrackEndReasonReplaced:
		return domain.EndReplaced
	case lavalink.TrackEndReasonCleanup:
		return domain.EndCleanup
	default:
		return domain.EndStopped
	}
}

// Ensure LavalinkEngine implements the port interfaces.
var (
	_ ports.AudioPlayer     = (*LavalinkEngine)(nil)
	_ ports.VoiceConnection = (*LavalinkEngine)(nil)
)
