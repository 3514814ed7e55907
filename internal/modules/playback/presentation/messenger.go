package presentation

import (
	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
)

// Messenger sends and maintains channel messages outside the interaction
// response flow. The live card is delivered through this interface so the
// projector can be tested without a Discord connection.
type Messenger interface {
	// SendMessage posts a new message and returns its ID.
	SendMessage(
		channelID snowflake.ID,
		embed *discordgo.MessageEmbed,
		components []discordgo.MessageComponent,
	) (snowflake.ID, error)

	// EditMessage replaces the embed and components of an existing message.
	EditMessage(
		channelID, messageID snowflake.ID,
		embed *discordgo.MessageEmbed,
		components []discordgo.MessageComponent,
	) error

	// DeleteMessage removes a message.
	DeleteMessage(channelID, messageID snowflake.ID) error
}
