package presentation

import (
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/plexbeat/plexbeat/internal/modules/playback/controlid"
	"github.com/plexbeat/plexbeat/internal/modules/playback/domain"
	"github.com/plexbeat/plexbeat/internal/modules/playback/session"
)

// DefaultPageSize is the number of queue items shown per page.
const DefaultPageSize = 10

// selectLabelLimit is Discord's cap on select-menu option labels.
const selectLabelLimit = 100

// queueView renders one page of the pending queue as an embed plus its
// controls: paging buttons, a remove menu and a play-next menu. The page is a
// snapshot; every selector the controls carry is re-validated against the live
// queue when activated.
func queueView(
	sess *session.Session,
	page int,
) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	guildID := sess.GuildID()
	queue := sess.Queue()

	total := queue.Len()
	lastPage := 0
	if total > 0 {
		lastPage = (total - 1) / DefaultPageSize
	}
	// Clamp rather than fail: the queue may have shrunk since the paging
	// button was rendered.
	if page > lastPage {
		page = lastPage
	}
	if page < 0 {
		page = 0
	}

	items, total := queue.Page(page*DefaultPageSize, DefaultPageSize)

	embed := &discordgo.MessageEmbed{
		Title: "Queue",
		Color: colorBlue,
	}

	_, _, current := sess.Snapshot()
	if current != nil {
		embed.Description = "Now playing: **" + current.DisplayTitle() + "**"
	}

	if total == 0 {
		embed.Fields = []*discordgo.MessageEmbedField{
			{Name: "Up next", Value: "The queue is empty."},
		}
		return embed, nil
	}

	listing := ""
	for i, item := range items {
		position := page*DefaultPageSize + i + 1
		listing += fmt.Sprintf("%d. %s `[%s]`\n",
			position, item.DisplayTitle(), item.FormattedDuration())
	}
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Up next", Value: listing},
	}
	embed.Footer = &discordgo.MessageEmbedFooter{
		Text: fmt.Sprintf("Page %d/%d - %d track(s)", page+1, lastPage+1, total),
	}

	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Prev",
					Style:    discordgo.SecondaryButton,
					Disabled: page == 0,
					CustomID: pageControlID(controlid.ActionQueuePage, guildID, page-1),
				},
				discordgo.Button{
					Label:    "Next",
					Style:    discordgo.SecondaryButton,
					Disabled: page >= lastPage,
					CustomID: pageControlID(controlid.ActionQueuePage, guildID, page+1),
				},
				discordgo.Button{
					Label:    "Shuffle",
					Style:    discordgo.SecondaryButton,
					CustomID: pageControlID(controlid.ActionShuffle, guildID, page),
				},
			},
		},
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					CustomID:    pageControlID(controlid.ActionQueueRemove, guildID, page),
					Placeholder: "Remove a track",
					Options:     itemOptions(items, page),
				},
			},
		},
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					CustomID:    pageControlID(controlid.ActionQueueMove, guildID, page),
					Placeholder: "Play a track next",
					Options:     itemOptions(items, page),
				},
			},
		},
	}

	return embed, components
}

// itemOptions builds select options for the visible items. Option values carry
// the absolute queue index at render time.
func itemOptions(items []*domain.QueueItem, page int) []discordgo.SelectMenuOption {
	options := make([]discordgo.SelectMenuOption, 0, len(items))
	for i, item := range items {
		index := page*DefaultPageSize + i
		label := truncateLabel(fmt.Sprintf("%d. %s", index+1, item.DisplayTitle()))
		options = append(options, discordgo.SelectMenuOption{
			Label: label,
			Value: strconv.Itoa(index),
		})
	}
	return options
}

// pageControlID encodes a control id carrying a page context.
func pageControlID(action controlid.Action, guildID snowflake.ID, page int) string {
	return controlid.ControlID{Action: action, GuildID: guildID, Page: page}.Encode()
}
