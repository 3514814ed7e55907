package presentation

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/plexbeat/plexbeat/internal/modules/playback/controlid"
	"github.com/plexbeat/plexbeat/internal/modules/playback/ports"
)

// maxPickOptions is Discord's cap on select-menu options.
const maxPickOptions = 25

// trackPickView offers a choice when a search matches more than one track.
// Option values carry the track source keys; the selection is resolved
// against the catalog when activated, so a stale pick fails loudly instead
// of playing the wrong thing.
func trackPickView(
	guildID snowflake.ID,
	query string,
	tracks []ports.CatalogTrack,
) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	if len(tracks) > maxPickOptions {
		tracks = tracks[:maxPickOptions]
	}

	options := make([]discordgo.SelectMenuOption, 0, len(tracks))
	for _, track := range tracks {
		options = append(options, discordgo.SelectMenuOption{
			Label: truncateLabel(track.Artist + " - " + track.Title),
			Value: track.SourceKey,
		})
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Multiple Matches",
		Description: fmt.Sprintf("Found %d tracks for **%s**. Pick one.", len(tracks), query),
		Color:       colorBlue,
	}
	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					CustomID:    controlID(controlid.ActionTrackPick, guildID),
					Placeholder: "Pick a track",
					Options:     options,
				},
			},
		},
	}
	return embed, components
}

// albumPickView lists an artist's albums with a select to queue one, the
// option values carrying the album container keys.
func albumPickView(
	guildID snowflake.ID,
	artist string,
	albums []ports.CatalogAlbum,
) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	if len(albums) > maxPickOptions {
		albums = albums[:maxPickOptions]
	}

	listing := ""
	options := make([]discordgo.SelectMenuOption, 0, len(albums))
	for i, album := range albums {
		listing += fmt.Sprintf("%d. %s (%d tracks)\n", i+1, album.Title, album.TrackCount)
		options = append(options, discordgo.SelectMenuOption{
			Label: truncateLabel(album.Title),
			Value: album.Key,
		})
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Albums by " + artist,
		Description: listing,
		Color:       colorBlue,
	}
	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					CustomID:    controlID(controlid.ActionAlbumPick, guildID),
					Placeholder: "Queue an album",
					Options:     options,
				},
			},
		},
	}
	return embed, components
}

func truncateLabel(label string) string {
	if len(label) > selectLabelLimit {
		return label[:selectLabelLimit-3] + "..."
	}
	return label
}
