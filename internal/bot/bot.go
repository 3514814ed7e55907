package bot

import (
	"fmt"
	"log/slog"
	"maps"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Bot manages the Discord bot lifecycle and module coordination.
// Modules are passed explicitly to New; there is no global registry.
type Bot struct {
	config            *Config
	session           *discordgo.Session
	modules           []Module
	commandHandlers   map[string]InteractionHandler
	componentHandlers map[string]InteractionHandler
}

// New creates a new Bot instance with the given configuration and modules.
func New(cfg *Config, modules ...Module) *Bot {
	return &Bot{
		config:            cfg,
		modules:           modules,
		commandHandlers:   make(map[string]InteractionHandler),
		componentHandlers: make(map[string]InteractionHandler),
	}
}

// Start initializes the bot, connects to Discord, and registers commands.
func (b *Bot) Start() error {
	session, err := discordgo.New("Bot " + b.config.DiscordToken)
	if err != nil {
		return fmt.Errorf("failed to create Discord session: %w", err)
	}
	session.Identify.Intents |= discordgo.IntentGuildVoiceStates
	b.session = session

	// Open the gateway connection first: modules need the resolved bot user
	// during initialization.
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	if err := b.initModules(); err != nil {
		return fmt.Errorf("failed to initialize modules: %w", err)
	}

	b.buildHandlerMaps()
	b.session.AddHandler(b.handleInteraction)
	b.registerEventHandlers()

	if err := b.registerCommands(); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	slog.Info("started bot",
		"user_id", b.session.State.User.ID,
		"username", b.session.State.User.Username,
	)

	return nil
}

// Stop gracefully shuts down the bot.
func (b *Bot) Stop() error {
	for _, mod := range b.modules {
		if err := mod.Shutdown(); err != nil {
			slog.Warn("failed to shutdown module", "module", mod.Name(), "error", err)
		}
	}

	if b.session != nil {
		return b.session.Close()
	}

	return nil
}

// initModules loads configuration for and initializes all modules.
func (b *Bot) initModules() error {
	deps := ModuleDependencies{
		Session: b.session,
	}

	for _, mod := range b.modules {
		if cm, ok := mod.(ConfigurableModule); ok {
			if err := cm.LoadConfig(); err != nil {
				return fmt.Errorf("failed to load config for %s module: %w", mod.Name(), err)
			}
		}
		if err := mod.Init(deps); err != nil {
			return fmt.Errorf("failed to initialize %s module: %w", mod.Name(), err)
		}
		slog.Debug("initialized module", "module", mod.Name())
	}

	return nil
}

// buildHandlerMaps builds the command and component handler mappings.
func (b *Bot) buildHandlerMaps() {
	for _, mod := range b.modules {
		maps.Copy(b.commandHandlers, mod.CommandHandlers())
		maps.Copy(b.componentHandlers, mod.ComponentHandlers())
	}
}

// registerEventHandlers registers all module event handlers with the session.
func (b *Bot) registerEventHandlers() {
	for _, mod := range b.modules {
		for _, handler := range mod.EventHandlers() {
			b.session.AddHandler(handler)
		}
	}
}

// registerCommands registers all module commands with Discord.
// Commands are registered per guild when GuildID is configured, globally otherwise.
func (b *Bot) registerCommands() error {
	for _, mod := range b.modules {
		for _, cmd := range mod.Commands() {
			_, err := b.session.ApplicationCommandCreate(
				b.session.State.User.ID,
				b.config.GuildID,
				cmd,
			)
			if err != nil {
				return fmt.Errorf("failed to register command %s: %w", cmd.Name, err)
			}
			slog.Debug("registered command", "command", cmd.Name)
		}
	}

	return nil
}

// Embed colors for fallback responses.
const (
	colorYellow = 0xFFFF00
	colorRed    = 0xFF0000
)

// handleInteraction routes incoming interactions to the appropriate handler.
// Slash commands are routed by command name, message components by the
// custom-id prefix (the segment before the first ':').
func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		name := i.ApplicationCommandData().Name
		handler, ok := b.commandHandlers[name]
		if !ok {
			slog.Warn("found no handler for command", "command", name)
			b.respondWithEmbed(s, i, "Unknown Command", "This command is not recognized.", colorYellow)
			return
		}
		b.dispatch(s, i, handler, name)

	case discordgo.InteractionMessageComponent:
		customID := i.MessageComponentData().CustomID
		prefix, _, _ := strings.Cut(customID, ":")
		handler, ok := b.componentHandlers[prefix]
		if !ok {
			// Components from other bots or stale messages; nothing to do.
			slog.Debug("ignoring component with unknown prefix", "custom_id", customID)
			return
		}
		b.dispatch(s, i, handler, customID)
	}
}

// dispatch invokes a handler and reports failures back to the user.
func (b *Bot) dispatch(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	handler InteractionHandler,
	name string,
) {
	responder := NewDiscordResponder(s, i.Interaction)
	if err := handler(s, i, responder); err != nil {
		slog.Error("failed to handle interaction", "interaction", name, "error", err)
		b.respondWithEmbed(s, i, "Error", "An error occurred while processing your request.",
			colorRed)
	}
}

// respondWithEmbed sends an embed response to an interaction.
func (b *Bot) respondWithEmbed(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	title, description string,
	color int,
) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       title,
					Description: description,
					Color:       color,
				},
			},
		},
	})
	if err != nil {
		slog.Error("failed to send embed response", "error", err)
	}
}
