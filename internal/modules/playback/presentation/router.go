package presentation

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/plexbeat/plexbeat/internal/bot"
	"github.com/plexbeat/plexbeat/internal/modules/playback/controlid"
	"github.com/plexbeat/plexbeat/internal/modules/playback/domain"
	"github.com/plexbeat/plexbeat/internal/modules/playback/ports"
	"github.com/plexbeat/plexbeat/internal/modules/playback/session"
)

// Router dispatches component interactions to session operations. Every
// activation goes through the same pipeline: decode the control id, apply the
// per-user cooldown, resolve the session, then run the action. Controls may
// outlive the state they were rendered from, so failures here are normal and
// answered with a notice, not treated as faults.
type Router struct {
	registry  *session.Registry
	cooldown  *CooldownGate
	projector *CardProjector
	catalog   ports.Catalog
}

// NewRouter creates a Router.
func NewRouter(
	registry *session.Registry,
	cooldown *CooldownGate,
	projector *CardProjector,
	catalog ports.Catalog,
) *Router {
	return &Router{
		registry:  registry,
		cooldown:  cooldown,
		projector: projector,
		catalog:   catalog,
	}
}

// HandleComponent handles a message component interaction.
func (rt *Router) HandleComponent(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	data := i.MessageComponentData()

	id, err := controlid.Decode(data.CustomID)
	if err != nil {
		// Stale message from an old bot revision.
		return respondEphemeral(r, "These controls are no longer valid.")
	}

	userID, err := interactionUserID(i)
	if err != nil {
		return err
	}

	if !rt.cooldown.Allow(userID, id.Action) {
		return respondPlaybackError(r, domain.ErrCooldown)
	}

	ctx := context.Background()

	// The pick menus start playback and so may create the session; every
	// other control requires one to exist already.
	switch id.Action {
	case controlid.ActionTrackPick:
		return rt.handleTrackPick(ctx, i, r, userID, id.GuildID, data.Values)
	case controlid.ActionAlbumPick:
		return rt.handleAlbumPick(ctx, i, r, userID, id.GuildID, data.Values)
	}

	sess, err := rt.registry.Get(id.GuildID)
	if err != nil {
		return respondPlaybackError(r, err)
	}

	switch id.Action {
	case controlid.ActionPauseToggle:
		if _, err := sess.TogglePause(ctx); err != nil {
			return respondPlaybackError(r, err)
		}
		return deferredUpdate(r)

	case controlid.ActionSkip:
		if _, err := sess.Skip(ctx); err != nil {
			return respondPlaybackError(r, err)
		}
		return deferredUpdate(r)

	case controlid.ActionRepeat:
		if _, err := sess.CycleRepeatMode(); err != nil {
			return respondPlaybackError(r, err)
		}
		return deferredUpdate(r)

	case controlid.ActionStop:
		return rt.handleStop(ctx, r, id.GuildID)

	case controlid.ActionQueueView:
		embed, components := queueView(sess, 0)
		return respondEphemeralView(r, embed, components)

	case controlid.ActionQueuePage:
		embed, components := queueView(sess, id.Page)
		return updateMessage(r, embed, components)

	case controlid.ActionShuffle:
		if err := sess.ShuffleQueue(); err != nil && !isStaleQueueError(err) {
			return respondPlaybackError(r, err)
		}
		embed, components := queueView(sess, id.Page)
		return updateMessage(r, embed, components)

	case controlid.ActionQueueRemove:
		return rt.handleQueueEdit(r, sess, id, data.Values, func(index int) error {
			_, err := sess.RemoveAt(index)
			return err
		})

	case controlid.ActionQueueMove:
		return rt.handleQueueEdit(r, sess, id, data.Values, func(index int) error {
			_, err := sess.MoveToFront(index)
			return err
		})
	}

	return domain.InternalError("unhandled control action %q", id.Action)
}

// handleTrackPick plays the track chosen from a search picker. The source key
// is resolved against the catalog at activation time, so a pick from a stale
// picker either still plays the right track or fails with a notice.
func (rt *Router) handleTrackPick(
	ctx context.Context,
	i *discordgo.InteractionCreate,
	r bot.Responder,
	userID, guildID snowflake.ID,
	values []string,
) error {
	if len(values) == 0 {
		return respondPlaybackError(r, domain.ErrEmptySelection)
	}

	track, err := rt.catalog.Resolve(ctx, values[0])
	if err != nil {
		return respondPlaybackError(r, domain.ExternalError("track lookup", err))
	}

	sess, err := rt.sessionForPick(ctx, i, userID, guildID)
	if err != nil {
		return respondPlaybackError(r, err)
	}

	item := catalogItem(*track, userID)
	result, err := sess.Enqueue(ctx, item)
	if err != nil {
		return respondPlaybackError(r, err)
	}

	text := fmt.Sprintf("Queued **%s** at position %d.", item.DisplayTitle(), sess.Queue().Len())
	if result.Started != nil {
		text = "Now playing: **" + result.Started.DisplayTitle() + "**"
	}
	return updateMessage(r, &discordgo.MessageEmbed{
		Description: text,
		Color:       colorGreen,
	}, nil)
}

// handleAlbumPick queues the album chosen from an artist's album picker.
func (rt *Router) handleAlbumPick(
	ctx context.Context,
	i *discordgo.InteractionCreate,
	r bot.Responder,
	userID, guildID snowflake.ID,
	values []string,
) error {
	if len(values) == 0 {
		return respondPlaybackError(r, domain.ErrEmptySelection)
	}

	tracks, err := rt.catalog.List(ctx, values[0])
	if err != nil {
		return respondPlaybackError(r, domain.ExternalError("album fetch", err))
	}
	if len(tracks) == 0 {
		return updateMessage(r, &discordgo.MessageEmbed{
			Description: "That album has no playable tracks.",
			Color:       colorBlue,
		}, nil)
	}

	sess, err := rt.sessionForPick(ctx, i, userID, guildID)
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

	text := fmt.Sprintf("Queued %d track(s) from the album.", result.Queued)
	if result.Started != nil {
		text += " Now playing: **" + result.Started.DisplayTitle() + "**"
	}
	return updateMessage(r, &discordgo.MessageEmbed{
		Description: text,
		Color:       colorGreen,
	}, nil)
}

// sessionForPick resolves or creates the session a pick menu plays into.
func (rt *Router) sessionForPick(
	ctx context.Context,
	i *discordgo.InteractionCreate,
	userID, guildID snowflake.ID,
) (*session.Session, error) {
	channelID, err := snowflake.Parse(i.ChannelID)
	if err != nil {
		return nil, err
	}
	return rt.registry.GetOrCreate(ctx, guildID, userID, channelID)
}

// handleStop ends the session entirely. The card this interaction came from is
// repurposed as the farewell message, so the projector must not delete it.
func (rt *Router) handleStop(ctx context.Context, r bot.Responder, guildID snowflake.ID) error {
	rt.projector.ForgetCard(guildID)

	if err := rt.registry.Remove(ctx, guildID); err != nil {
		return respondPlaybackError(r, err)
	}

	return updateMessage(r, &discordgo.MessageEmbed{
		Title: "Playback Ended",
		Color: colorBlue,
	}, nil)
}

// handleQueueEdit applies a select-menu edit and refreshes the view. An index
// that no longer exists means the queue changed since the page was rendered;
// the refreshed page is the answer either way.
func (rt *Router) handleQueueEdit(
	r bot.Responder,
	sess *session.Session,
	id controlid.ControlID,
	values []string,
	apply func(index int) error,
) error {
	if len(values) == 0 {
		return respondPlaybackError(r, domain.ErrEmptySelection)
	}

	index, err := strconv.Atoi(values[0])
	if err != nil {
		return respondPlaybackError(r, domain.ErrMalformedControlID)
	}

	if err := apply(index); err != nil && !isStaleQueueError(err) {
		return respondPlaybackError(r, err)
	}

	embed, components := queueView(sess, id.Page)
	return updateMessage(r, embed, components)
}

// isStaleQueueError reports whether the failure is just the queue having moved
// on underneath a rendered view.
func isStaleQueueError(err error) bool {
	switch domain.KindOf(err) {
	case domain.KindSessionState:
		return true
	default:
		return false
	}
}

// interactionUserID extracts the invoking user's ID from an interaction.
func interactionUserID(i *discordgo.InteractionCreate) (snowflake.ID, error) {
	var raw string
	switch {
	case i.Member != nil && i.Member.User != nil:
		raw = i.Member.User.ID
	case i.User != nil:
		raw = i.User.ID
	default:
		return 0, domain.InternalError("interaction carries no user")
	}
	return snowflake.Parse(raw)
}
