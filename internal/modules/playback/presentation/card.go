package presentation

import (
	"context"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/plexbeat/plexbeat/internal/modules/playback/controlid"
	"github.com/plexbeat/plexbeat/internal/modules/playback/domain"
	"github.com/plexbeat/plexbeat/internal/modules/playback/session"
)

// Embed colors.
const (
	colorGreen  = 0x00FF00
	colorBlue   = 0x0000FF
	colorYellow = 0xFFFF00
)

// CardProjector keeps one "now playing" card per guild in sync with the
// playback session. Each track start replaces the previous card with a fresh
// message; state changes edit the existing card in place.
//
// The projector keeps its own card index rather than reading it back from the
// session, because session expiry events arrive after the session is gone.
type CardProjector struct {
	registry  *session.Registry
	messenger Messenger

	mu    sync.Mutex
	cards map[snowflake.ID]session.CardRef
}

// NewCardProjector creates a CardProjector.
func NewCardProjector(registry *session.Registry, messenger Messenger) *CardProjector {
	return &CardProjector{
		registry:  registry,
		messenger: messenger,
		cards:     make(map[snowflake.ID]session.CardRef),
	}
}

// HandleTrackStarted posts a new card for the started track and deletes the
// previous one. The new card is sent first: a failed send keeps the previous
// card visible and tracked. A failed delete is logged and ignored, the old
// card may have been removed by a moderator already.
func (p *CardProjector) HandleTrackStarted(_ context.Context, event domain.TrackStartedEvent) {
	sess, err := p.registry.Get(event.GuildID)
	if err != nil {
		return
	}

	state, repeat, _ := sess.Snapshot()
	embed := nowPlayingEmbed(event.Item, repeat)
	components := cardControls(event.GuildID, state, repeat)

	// Single read: the tracked ref must name the channel the card actually
	// went to, even if a command retargets the session concurrently.
	channelID := sess.TextChannelID()
	messageID, err := p.messenger.SendMessage(channelID, embed, components)
	if err != nil {
		slog.Warn("failed to send now playing card", "guild", event.GuildID, "error", err)
		return
	}

	ref := session.CardRef{ChannelID: channelID, MessageID: messageID}
	old, hadOld := p.peekCard(event.GuildID)
	p.putCard(event.GuildID, ref)
	sess.SetLiveCard(ref)

	if hadOld {
		if err := p.messenger.DeleteMessage(old.ChannelID, old.MessageID); err != nil {
			slog.Debug("failed to delete previous card", "guild", event.GuildID, "error", err)
		}
	}
}

// HandlePlayerStateChanged edits the existing card to reflect the new state.
// With no current track the card collapses to a playback-finished notice.
func (p *CardProjector) HandlePlayerStateChanged(
	_ context.Context,
	event domain.PlayerStateChangedEvent,
) {
	ref, ok := p.peekCard(event.GuildID)
	if !ok {
		return
	}
	sess, err := p.registry.Get(event.GuildID)
	if err != nil {
		return
	}

	state, repeat, current := sess.Snapshot()

	var embed *discordgo.MessageEmbed
	var components []discordgo.MessageComponent
	if current == nil {
		embed = &discordgo.MessageEmbed{
			Title:       "Playback Finished",
			Description: "The queue is empty.",
			Color:       colorBlue,
		}
		components = []discordgo.MessageComponent{}
	} else {
		embed = nowPlayingEmbed(current, repeat)
		if state == domain.StatePaused {
			embed.Color = colorYellow
		}
		components = cardControls(event.GuildID, state, repeat)
	}

	if err := p.messenger.EditMessage(ref.ChannelID, ref.MessageID, embed, components); err != nil {
		slog.Debug("failed to edit card", "guild", event.GuildID, "error", err)
	}
}

// HandleSessionExpired removes the card of an expired session.
func (p *CardProjector) HandleSessionExpired(_ context.Context, event domain.SessionExpiredEvent) {
	ref, ok := p.takeCard(event.GuildID)
	if !ok {
		return
	}
	if err := p.messenger.DeleteMessage(ref.ChannelID, ref.MessageID); err != nil {
		slog.Debug("failed to delete card of expired session",
			"guild", event.GuildID, "error", err)
	}
}

// ForgetCard drops the guild's card from the index without touching the
// message, for when the card was already replaced through an interaction.
func (p *CardProjector) ForgetCard(guildID snowflake.ID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.cards, guildID)
}

// DropCard forgets and deletes the guild's card, for manual session teardown.
func (p *CardProjector) DropCard(guildID snowflake.ID) {
	ref, ok := p.takeCard(guildID)
	if !ok {
		return
	}
	if err := p.messenger.DeleteMessage(ref.ChannelID, ref.MessageID); err != nil {
		slog.Debug("failed to delete card", "guild", guildID, "error", err)
	}
}

func (p *CardProjector) peekCard(guildID snowflake.ID) (session.CardRef, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ref, ok := p.cards[guildID]
	return ref, ok
}

func (p *CardProjector) putCard(guildID snowflake.ID, ref session.CardRef) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cards[guildID] = ref
}

func (p *CardProjector) takeCard(guildID snowflake.ID) (session.CardRef, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ref, ok := p.cards[guildID]
	if ok {
		delete(p.cards, guildID)
	}
	return ref, ok
}

// nowPlayingEmbed renders the card embed for the current track.
func nowPlayingEmbed(item *domain.QueueItem, repeat domain.RepeatMode) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "Now Playing",
		Description: "**" + item.DisplayTitle() + "**",
		Color:       colorGreen,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Album", Value: orDash(item.Album), Inline: true},
			{Name: "Duration", Value: item.FormattedDuration(), Inline: true},
			{Name: "Requested by", Value: "<@" + item.RequestedBy.String() + ">", Inline: true},
		},
	}
	if item.ArtworkURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: item.ArtworkURL}
	}
	if repeat != domain.RepeatNone {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: "Repeat: " + repeat.String()}
	}
	return embed
}

// cardControls renders the card's button row. Every custom id carries the
// guild so the router never has to trust the message context.
func cardControls(
	guildID snowflake.ID,
	state domain.SessionState,
	repeat domain.RepeatMode,
) []discordgo.MessageComponent {
	pauseLabel := "Pause"
	pauseStyle := discordgo.SecondaryButton
	if state == domain.StatePaused {
		pauseLabel = "Resume"
		pauseStyle = discordgo.SuccessButton
	}
	repeatStyle := discordgo.SecondaryButton
	if repeat != domain.RepeatNone {
		repeatStyle = discordgo.PrimaryButton
	}

	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    pauseLabel,
					Style:    pauseStyle,
					CustomID: controlID(controlid.ActionPauseToggle, guildID),
				},
				discordgo.Button{
					Label:    "Skip",
					Style:    discordgo.SecondaryButton,
					CustomID: controlID(controlid.ActionSkip, guildID),
				},
				discordgo.Button{
					Label:    "Queue",
					Style:    discordgo.SecondaryButton,
					CustomID: controlID(controlid.ActionQueueView, guildID),
				},
				discordgo.Button{
					Label:    "Repeat",
					Style:    repeatStyle,
					CustomID: controlID(controlid.ActionRepeat, guildID),
				},
				discordgo.Button{
					Label:    "Stop",
					Style:    discordgo.DangerButton,
					CustomID: controlID(controlid.ActionStop, guildID),
				},
			},
		},
	}
}

// controlID encodes a pageless control id.
func controlID(action controlid.Action, guildID snowflake.ID) string {
	return controlid.ControlID{Action: action, GuildID: guildID}.Encode()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
