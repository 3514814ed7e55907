package presentation

import (
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/plexbeat/plexbeat/internal/bot"
	"github.com/plexbeat/plexbeat/internal/modules/playback/domain"
)

// respondEphemeral sends a short ephemeral notice to the invoking user.
func respondEphemeral(r bot.Responder, description string) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
			Embeds: []*discordgo.MessageEmbed{
				{Description: description, Color: colorBlue},
			},
		},
	})
}

// respondEphemeralView sends an ephemeral embed with components.
func respondEphemeralView(
	r bot.Responder,
	embed *discordgo.MessageEmbed,
	components []discordgo.MessageComponent,
) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags:      discordgo.MessageFlagsEphemeral,
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
		},
	})
}

// updateMessage replaces the message the interaction came from.
func updateMessage(
	r bot.Responder,
	embed *discordgo.MessageEmbed,
	components []discordgo.MessageComponent,
) error {
	if components == nil {
		components = []discordgo.MessageComponent{}
	}
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
		},
	})
}

// deferredUpdate acknowledges a component interaction without changing the
// message. Used when the visible effect arrives through the card projector.
func deferredUpdate(r bot.Responder) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
}

// respondPlaybackError reports an expected failure to the user without leaking
// internals. User mistakes and stale state carry safe messages of their own;
// external faults get a generic notice and a log line. Internal errors are
// returned to the framework, which answers with its generic error embed.
func respondPlaybackError(r bot.Responder, err error) error {
	switch domain.KindOf(err) {
	case domain.KindUserInput, domain.KindSessionState:
		return respondEphemeral(r, err.Error())
	case domain.KindExternal:
		slog.Warn("playback dependency failure", "error", err)
		return respondEphemeral(r, "The media server or audio player is not responding. Try again shortly.")
	default:
		return err
	}
}
