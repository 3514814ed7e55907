package presentation

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/plexbeat/plexbeat/internal/bot"
	"github.com/plexbeat/plexbeat/internal/modules/playback/domain"
	"github.com/plexbeat/plexbeat/internal/modules/playback/ports"
	"github.com/plexbeat/plexbeat/internal/modules/playback/session"
)

// Handlers implements the module's slash commands.
type Handlers struct {
	registry *session.Registry
	catalog  ports.Catalog
}

// NewHandlers creates the slash command handlers.
func NewHandlers(registry *session.Registry, catalog ports.Catalog) *Handlers {
	return &Handlers{
		registry: registry,
		catalog:  catalog,
	}
}

// CommandHandlers returns the command-name-to-handler map.
func (h *Handlers) CommandHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		"play":     h.HandlePlay,
		"artist":   h.HandleArtist,
		"album":    h.HandleAlbum,
		"playlist": h.HandlePlaylist,
		"queue":    h.HandleQueue,
		"skip":     h.HandleSkip,
		"pause":    h.HandlePause,
		"resume":   h.HandleResume,
		"stop":     h.HandleStop,
		"clear":    h.HandleClear,
		"remove":   h.HandleRemove,
		"shuffle":  h.HandleShuffle,
		"repeat":   h.HandleRepeat,
	}
}

// HandlePlay searches the catalog and plays the match, or offers a picker
// when the search is ambiguous.
func (h *Handlers) HandlePlay(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, userID, channelID, err := interactionIDs(i)
	if err != nil {
		return respondPlaybackError(r, err)
	}

	query := i.ApplicationCommandData().Options[0].StringValue()
	ctx := context.Background()

	tracks, err := h.catalog.Search(ctx, query)
	if err != nil {
		return respondPlaybackError(r, domain.ExternalError("library search", err))
	}
	if len(tracks) == 0 {
		return respondEphemeral(r, fmt.Sprintf("No tracks found for **%s**.", query))
	}
	if len(tracks) > 1 {
		embed, components := trackPickView(guildID, query, tracks)
		return respondEphemeralView(r, embed, components)
	}

	sess, err := h.registry.GetOrCreate(ctx, guildID, userID, channelID)
	if err != nil {
		return respondPlaybackError(r, err)
	}

	item := catalogItem(tracks[0], userID)
	result, err := sess.Enqueue(ctx, item)
	if err != nil {
		return respondPlaybackError(r, err)
	}

	if result.Started != nil {
		return respondEphemeral(r, "Now playing: **"+result.Started.DisplayTitle()+"**")
	}
	return respondEphemeral(r, fmt.Sprintf(
		"Queued **%s** at position %d.", item.DisplayTitle(), sess.Queue().Len()))
}

// HandleArtist queues every track by the best-matching artist.
func (h *Handlers) HandleArtist(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	name := i.ApplicationCommandData().Options[0].StringValue()
	ctx := context.Background()

	artists, err := h.catalog.Artists(ctx, name)
	if err != nil {
		return respondPlaybackError(r, domain.ExternalError("artist search", err))
	}
	if len(artists) == 0 {
		return respondEphemeral(r, fmt.Sprintf("Couldn't find an artist matching **%s**.", name))
	}
	artist := artists[0]

	tracks, err := h.catalog.List(ctx, artist.TracksKey)
	if err != nil {
		return respondPlaybackError(r, domain.ExternalError("artist fetch", err))
	}
	return h.queueAll(ctx, i, r, tracks, "by **"+artist.Title+"**")
}

// HandleAlbum queues the best-matching album, or, when the query names an
// artist instead, lists that artist's albums with a picker.
func (h *Handlers) HandleAlbum(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, _, _, err := interactionIDs(i)
	if err != nil {
		return respondPlaybackError(r, err)
	}

	query := i.ApplicationCommandData().Options[0].StringValue()
	ctx := context.Background()

	albums, err := h.catalog.Albums(ctx, query)
	if err != nil {
		return respondPlaybackError(r, domain.ExternalError("album search", err))
	}
	if len(albums) > 0 {
		album := albums[0]
		tracks, err := h.catalog.List(ctx, album.Key)
		if err != nil {
			return respondPlaybackError(r, domain.ExternalError("album fetch", err))
		}
		return h.queueAll(ctx, i, r, tracks, "from **"+album.Title+"**")
	}

	artists, err := h.catalog.Artists(ctx, query)
	if err != nil {
		return respondPlaybackError(r, domain.ExternalError("artist search", err))
	}
	if len(artists) == 0 {
		return respondEphemeral(r, fmt.Sprintf(
			"Couldn't find an album or artist matching **%s**.", query))
	}
	artist := artists[0]

	artistAlbums, err := h.catalog.AlbumsOf(ctx, artist.AlbumsKey)
	if err != nil {
		return respondPlaybackError(r, domain.ExternalError("album listing", err))
	}
	if len(artistAlbums) == 0 {
		return respondEphemeral(r, fmt.Sprintf("**%s** has no albums.", artist.Title))
	}

	embed, components := albumPickView(guildID, artist.Title, artistAlbums)
	return respondEphemeralView(r, embed, components)
}

// queueAll creates or reuses the session and queues every given track. The
// source phrase finishes the confirmation, e.g. "by **Artist**".
func (h *Handlers) queueAll(
	ctx context.Context,
	i *discordgo.InteractionCreate,
	r bot.Responder,
	tracks []ports.CatalogTrack,
	source string,
) error {
	guildID, userID, channelID, err := interactionIDs(i)
	if err != nil {
		return respondPlaybackError(r, err)
	}
	if len(tracks) == 0 {
		return respondEphemeral(r, "No playable tracks "+source+".")
	}

	sess, err := h.registry.GetOrCreate(ctx, guildID, userID, channelID)
	if err != nil {
		return respondPlaybackError(r, err)
	}

	items := make([]*domain.QueueItem, 0, len(tracks))
	for _, track := range tracks {
		items = append(items, catalogItem(track, userID))
	}
	result, err := sess.Enqueue(ctx, items...)
	if err != nil {
		return respondPlaybackError(r, err)
	}

	msg := fmt.Sprintf("Queued %d track(s) %s.", result.Queued, source)
	if result.Started != nil {
		msg += " Now playing: **" + result.Started.DisplayTitle() + "**"
	}
	return respondEphemeral(r, msg)
}

// HandlePlaylist lists the library playlists, or queues one by name.
func (h *Handlers) HandlePlaylist(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, userID, channelID, err := interactionIDs(i)
	if err != nil {
		return respondPlaybackError(r, err)
	}

	ctx := context.Background()

	playlists, err := h.catalog.Playlists(ctx)
	if err != nil {
		return respondPlaybackError(r, domain.ExternalError("playlist listing", err))
	}

	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		return respondPlaylistIndex(r, playlists)
	}
	name := options[0].StringValue()

	var match *ports.CatalogPlaylist
	for idx := range playlists {
		if strings.EqualFold(playlists[idx].Title, name) {
			match = &playlists[idx]
			break
		}
	}
	if match == nil {
		return respondEphemeral(r, fmt.Sprintf("No playlist named **%s** found.", name))
	}

	tracks, err := h.catalog.List(ctx, match.Key)
	if err != nil {
		return respondPlaybackError(r, domain.ExternalError("playlist fetch", err))
	}
	if len(tracks) == 0 {
		return respondEphemeral(r, fmt.Sprintf("Playlist **%s** has no playable tracks.", match.Title))
	}

	sess, err := h.registry.GetOrCreate(ctx, guildID, userID, channelID)
	if err != nil {
		return respondPlaybackError(r, err)
	}

	items := make([]*domain.QueueItem, 0, len(tracks))
	for _, track := range tracks {
		items = append(items, catalogItem(track, userID))
	}

	result, err := sess.Enqueue(ctx, items...)
	if err != nil {
		return respondPlaybackError(r, err)
	}

	msg := fmt.Sprintf("Queued %d track(s) from **%s**.", result.Queued, match.Title)
	if result.Started != nil {
		msg += " Now playing: **" + result.Started.DisplayTitle() + "**"
	}
	return respondEphemeral(r, msg)
}

// HandleQueue shows the pending queue with its edit controls.
func (h *Handlers) HandleQueue(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	sess, err := h.sessionFor(i)
	if err != nil {
		return respondPlaybackError(r, err)
	}

	page := 0
	if options := i.ApplicationCommandData().Options; len(options) > 0 {
		page = int(options[0].IntValue()) - 1
	}

	embed, components := queueView(sess, page)
	return respondEphemeralView(r, embed, components)
}

// HandleSkip advances to the next track.
func (h *Handlers) HandleSkip(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	sess, err := h.sessionFor(i)
	if err != nil {
		return respondPlaybackError(r, err)
	}

	next, err := sess.Skip(context.Background())
	if err != nil {
		return respondPlaybackError(r, err)
	}
	if next == nil {
		return respondEphemeral(r, "Skipped. The queue is empty.")
	}
	return respondEphemeral(r, "Skipped to: **"+next.DisplayTitle()+"**")
}

// HandlePause pauses playback.
func (h *Handlers) HandlePause(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	return h.setPaused(i, r, true, "Paused.")
}

// HandleResume resumes playback.
func (h *Handlers) HandleResume(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	return h.setPaused(i, r, false, "Resumed.")
}

func (h *Handlers) setPaused(
	i *discordgo.InteractionCreate,
	r bot.Responder,
	pause bool,
	confirmation string,
) error {
	sess, err := h.sessionFor(i)
	if err != nil {
		return respondPlaybackError(r, err)
	}

	if err := sess.SetPaused(context.Background(), pause); err != nil {
		return respondPlaybackError(r, err)
	}
	return respondEphemeral(r, confirmation)
}

// HandleStop stops playback and clears the queue. The session stays connected
// and is reaped by the inactivity timeout.
func (h *Handlers) HandleStop(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	sess, err := h.sessionFor(i)
	if err != nil {
		return respondPlaybackError(r, err)
	}

	if err := sess.Stop(context.Background()); err != nil {
		return respondPlaybackError(r, err)
	}
	return respondEphemeral(r, "Stopped playback and cleared the queue.")
}

// HandleClear removes all pending tracks.
func (h *Handlers) HandleClear(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	sess, err := h.sessionFor(i)
	if err != nil {
		return respondPlaybackError(r, err)
	}

	count, err := sess.ClearQueue()
	if err != nil {
		return respondPlaybackError(r, err)
	}
	return respondEphemeral(r, fmt.Sprintf("Removed %d track(s) from the queue.", count))
}

// HandleRemove removes a pending track by its 1-based queue position.
func (h *Handlers) HandleRemove(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	sess, err := h.sessionFor(i)
	if err != nil {
		return respondPlaybackError(r, err)
	}

	position := int(i.ApplicationCommandData().Options[0].IntValue())
	item, err := sess.RemoveAt(position - 1)
	if err != nil {
		return respondPlaybackError(r, err)
	}
	return respondEphemeral(r, "Removed **"+item.DisplayTitle()+"** from the queue.")
}

// HandleShuffle shuffles the pending queue.
func (h *Handlers) HandleShuffle(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	sess, err := h.sessionFor(i)
	if err != nil {
		return respondPlaybackError(r, err)
	}

	if err := sess.ShuffleQueue(); err != nil {
		return respondPlaybackError(r, err)
	}
	return respondEphemeral(r, "Shuffled the queue.")
}

// HandleRepeat sets the repeat mode.
func (h *Handlers) HandleRepeat(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	sess, err := h.sessionFor(i)
	if err != nil {
		return respondPlaybackError(r, err)
	}

	mode := domain.ParseRepeatMode(i.ApplicationCommandData().Options[0].StringValue())
	if err := sess.SetRepeatMode(mode); err != nil {
		return respondPlaybackError(r, err)
	}
	return respondEphemeral(r, "Repeat mode set to **"+mode.String()+"**.")
}

// sessionFor resolves the active session for the interaction's guild.
// Commands other than play never create a session.
func (h *Handlers) sessionFor(i *discordgo.InteractionCreate) (*session.Session, error) {
	guildID, _, _, err := interactionIDs(i)
	if err != nil {
		return nil, err
	}
	return h.registry.Get(guildID)
}

// respondPlaylistIndex renders the playlist listing.
func respondPlaylistIndex(r bot.Responder, playlists []ports.CatalogPlaylist) error {
	if len(playlists) == 0 {
		return respondEphemeral(r, "The library has no playlists.")
	}

	listing := ""
	for _, pl := range playlists {
		listing += fmt.Sprintf("**%s** (%d tracks)\n", pl.Title, pl.ItemCount)
	}
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
			Embeds: []*discordgo.MessageEmbed{
				{Title: "Playlists", Description: listing, Color: colorBlue},
			},
		},
	})
}

// catalogItem converts a catalog track into a queue item credited to the
// requesting user.
func catalogItem(track ports.CatalogTrack, requestedBy snowflake.ID) *domain.QueueItem {
	return domain.NewQueueItem(
		track.Title, track.Artist, track.Album,
		track.Duration,
		track.ArtworkURL, track.PlaybackURI,
		requestedBy,
	)
}

// interactionIDs extracts the guild, user and channel IDs from a guild
// interaction.
func interactionIDs(
	i *discordgo.InteractionCreate,
) (guildID, userID, channelID snowflake.ID, err error) {
	if i.GuildID == "" {
		return 0, 0, 0, domain.ErrGuildOnly
	}
	guildID, err = snowflake.Parse(i.GuildID)
	if err != nil {
		return 0, 0, 0, err
	}
	channelID, err = snowflake.Parse(i.ChannelID)
	if err != nil {
		return 0, 0, 0, err
	}
	userID, err = interactionUserID(i)
	if err != nil {
		return 0, 0, 0, err
	}
	return guildID, userID, channelID, nil
}
