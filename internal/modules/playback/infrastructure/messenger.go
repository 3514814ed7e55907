package infrastructure

import (
	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/plexbeat/plexbeat/internal/modules/playback/presentation"
)

// DiscordMessenger sends channel messages via discordgo.
type DiscordMessenger struct {
	session *discordgo.Session
}

// NewDiscordMessenger creates a DiscordMessenger.
func NewDiscordMessenger(session *discordgo.Session) *DiscordMessenger {
	return &DiscordMessenger{session: session}
}

// SendMessage posts a new message and returns its ID.
func (m *DiscordMessenger) SendMessage(
	channelID snowflake.ID,
	embed *discordgo.MessageEmbed,
	components []discordgo.MessageComponent,
) (snowflake.ID, error) {
	msg, err := m.session.ChannelMessageSendComplex(channelID.String(), &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
	})
	if err != nil {
		return 0, err
	}
	return snowflake.Parse(msg.ID)
}

// EditMessage replaces the embed and components of an existing message.
func (m *DiscordMessenger) EditMessage(
	channelID, messageID snowflake.ID,
	embed *discordgo.MessageEmbed,
	components []discordgo.MessageComponent,
) error {
	embeds := []*discordgo.MessageEmbed{embed}
	_, err := m.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    channelID.String(),
		ID:         messageID.String(),
		Embeds:     &embeds,
		Components: &components,
	})
	return err
}

// DeleteMessage removes a message.
func (m *DiscordMessenger) DeleteMessage(channelID, messageID snowflake.ID) error {
	return m.session.ChannelMessageDelete(channelID.String(), messageID.String())
}

// Ensure DiscordMessenger implements presentation.Messenger.
var _ presentation.Messenger = (*DiscordMessenger)(nil)
