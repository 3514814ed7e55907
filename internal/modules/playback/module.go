// Package playback provides the guild playback module: one session per guild
// bridging the Plex music library, a Lavalink audio node and Discord.
package playback

import (
	"context"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/plexbeat/plexbeat/internal/bot"
	"github.com/plexbeat/plexbeat/internal/modules/playback/controlid"
	"github.com/plexbeat/plexbeat/internal/modules/playback/domain"
	"github.com/plexbeat/plexbeat/internal/modules/playback/infrastructure"
	"github.com/plexbeat/plexbeat/internal/modules/playback/presentation"
	"github.com/plexbeat/plexbeat/internal/modules/playback/session"
)

// shutdownTimeout bounds session teardown during process shutdown.
const shutdownTimeout = 15 * time.Second

// Module wires the playback components together and plugs them into the bot
// framework.
type Module struct {
	config  *Config
	discord *discordgo.Session

	bus       *infrastructure.ChannelEventBus
	engine    *infrastructure.LavalinkEngine
	catalog   *infrastructure.PlexCatalog
	registry  *session.Registry
	projector *presentation.CardProjector
	router    *presentation.Router
	handlers  *presentation.Handlers
}

// NewModule creates the playback module.
func NewModule() *Module {
	return &Module{}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "playback"
}

// LoadConfig loads the module configuration from environment variables.
func (m *Module) LoadConfig() error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	m.config = cfg
	return nil
}

// Init builds the component graph. The event bus sits in the middle: the
// engine publishes track ends onto it, sessions publish lifecycle events, and
// the card projector consumes everything that affects what users see.
func (m *Module) Init(deps bot.ModuleDependencies) error {
	m.discord = deps.Session

	m.bus = infrastructure.NewChannelEventBus(infrastructure.DefaultEventBufferSize)

	engine, err := infrastructure.NewLavalinkEngine(deps.Session, m.bus, infrastructure.LavalinkConfig{
		Address:  m.config.LavalinkAddress,
		Password: m.config.LavalinkPassword,
	})
	if err != nil {
		return err
	}
	m.engine = engine

	m.catalog = infrastructure.NewPlexCatalog(infrastructure.PlexConfig{
		BaseURL: m.config.PlexURL,
		Token:   m.config.PlexToken,
	})

	voiceState := infrastructure.NewVoiceStateProvider(deps.Session)
	m.registry = session.NewRegistry(engine, engine, voiceState, m.bus, m.config.IdleTimeout)

	messenger := infrastructure.NewDiscordMessenger(deps.Session)
	m.projector = presentation.NewCardProjector(m.registry, messenger)

	gate := presentation.NewCooldownGate(m.config.CooldownWindow, presentation.DefaultCooldownTTL)
	m.router = presentation.NewRouter(m.registry, gate, m.projector, m.catalog)
	m.handlers = presentation.NewHandlers(m.registry, m.catalog)

	m.bus.OnTrackEnded(m.handleTrackEnded)
	m.bus.OnTrackStarted(m.projector.HandleTrackStarted)
	m.bus.OnPlayerStateChanged(m.projector.HandlePlayerStateChanged)
	m.bus.OnSessionExpired(m.projector.HandleSessionExpired)

	return nil
}

// Commands returns the module's slash commands.
func (m *Module) Commands() []*discordgo.ApplicationCommand {
	return presentation.Commands()
}

// CommandHandlers returns the slash command handlers.
func (m *Module) CommandHandlers() map[string]bot.InteractionHandler {
	return m.handlers.CommandHandlers()
}

// ComponentHandlers routes every control id in the module's namespace to the
// interaction router.
func (m *Module) ComponentHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		controlid.Prefix: m.router.HandleComponent,
	}
}

// EventHandlers returns the gateway event handlers the module needs: voice
// events feed Lavalink, and user voice movements drive the alone-in-channel
// teardown.
func (m *Module) EventHandlers() []bot.EventHandler {
	return []bot.EventHandler{
		func(_ *discordgo.Session, event *discordgo.VoiceServerUpdate) {
			m.engine.OnVoiceServerUpdate(event)
		},
		func(s *discordgo.Session, event *discordgo.VoiceStateUpdate) {
			m.engine.OnVoiceStateUpdate(event)
			m.checkAloneInChannel(s, event)
		},
	}
}

// Shutdown tears down all sessions and closes the engine and bus.
func (m *Module) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if m.registry != nil {
		m.registry.Shutdown(ctx)
	}
	if m.engine != nil {
		m.engine.Close()
	}
	if m.bus != nil {
		m.bus.Close()
	}
	return nil
}

// handleTrackEnded forwards an engine track-end callback to the guild's
// session. A missing session means the callback raced teardown; nothing to do.
func (m *Module) handleTrackEnded(ctx context.Context, event domain.TrackEndedEvent) {
	sess, err := m.registry.Get(event.GuildID)
	if err != nil {
		return
	}
	if err := sess.HandleTrackEnd(ctx, event.EndedURI, event.Reason); err != nil {
		slog.Warn("failed to advance after track end", "guild", event.GuildID, "error", err)
	}
}

// checkAloneInChannel tears the session down when the bot is the only one left
// in its voice channel. Fired on every voice movement in the guild; cheap
// enough that no filtering is worth the bookkeeping.
func (m *Module) checkAloneInChannel(s *discordgo.Session, event *discordgo.VoiceStateUpdate) {
	if event.UserID == s.State.User.ID {
		return
	}

	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		return
	}
	sess, err := m.registry.Get(guildID)
	if err != nil {
		return
	}

	guild, err := s.State.Guild(event.GuildID)
	if err != nil {
		return
	}

	channelID := sess.VoiceChannelID().String()
	listeners := 0
	for _, vs := range guild.VoiceStates {
		if vs.ChannelID == channelID && vs.UserID != s.State.User.ID {
			listeners++
		}
	}
	if listeners > 0 {
		return
	}

	slog.Info("no listeners left in voice channel, ending session", "guild", guildID)
	m.projector.DropCard(guildID)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := m.registry.Remove(ctx, guildID); err != nil {
		slog.Warn("failed to remove abandoned session", "guild", guildID, "error", err)
	}
}

// Ensure Module implements the framework interfaces.
var (
	_ bot.Module             = (*Module)(nil)
	_ bot.ConfigurableModule = (*Module)(nil)
)
