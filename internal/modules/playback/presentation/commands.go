package presentation

import "github.com/bwmarrin/discordgo"

// Commands returns the slash command definitions for the playback module.
func Commands() []*discordgo.ApplicationCommand {
	minPosition := float64(1)

	return []*discordgo.ApplicationCommand{
		{
			Name:        "play",
			Description: "Search the music library and play or queue the best match",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "query",
					Description: "Track, artist or album to search for",
					Required:    true,
				},
			},
		},
		{
			Name:        "artist",
			Description: "Queue all songs by the specified artist",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "name",
					Description: "Artist to queue",
					Required:    true,
				},
			},
		},
		{
			Name:        "album",
			Description: "Queue an album, or list an artist's albums",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "query",
					Description: "Album to queue, or artist whose albums to list",
					Required:    true,
				},
			},
		},
		{
			Name:        "playlist",
			Description: "List library playlists, or queue one by name",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "name",
					Description: "Playlist to queue; omit to list available playlists",
					Required:    false,
				},
			},
		},
		{
			Name:        "queue",
			Description: "Show the pending queue",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "page",
					Description: "Page to show",
					Required:    false,
					MinValue:    &minPosition,
				},
			},
		},
		{
			Name:        "skip",
			Description: "Skip to the next track",
		},
		{
			Name:        "pause",
			Description: "Pause playback",
		},
		{
			Name:        "resume",
			Description: "Resume playback",
		},
		{
			Name:        "stop",
			Description: "Stop playback and clear the queue",
		},
		{
			Name:        "clear",
			Description: "Remove all pending tracks from the queue",
		},
		{
			Name:        "remove",
			Description: "Remove a pending track by its queue position",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "position",
					Description: "Queue position as shown by /queue",
					Required:    true,
					MinValue:    &minPosition,
				},
			},
		},
		{
			Name:        "shuffle",
			Description: "Shuffle the pending queue",
		},
		{
			Name:        "repeat",
			Description: "Set the repeat mode",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "mode",
					Description: "Repeat mode",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "off", Value: "none"},
						{Name: "track", Value: "track"},
						{Name: "queue", Value: "queue"},
					},
				},
			},
		},
	}
}
