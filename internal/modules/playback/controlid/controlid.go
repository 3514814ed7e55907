// Package controlid encodes the compact opaque identifiers carried by message
// components. Every control the bot renders round-trips through this codec;
// nothing else in the module assembles or parses custom-id strings.
package controlid

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/disgoorg/snowflake/v2"
	"github.com/plexbeat/plexbeat/internal/modules/playback/domain"
)

// Prefix is the custom-id namespace for playback controls. The bot framework
// routes component interactions to the playback module by this prefix.
const Prefix = "pb"

// maxLength is Discord's hard cap on component custom ids.
const maxLength = 100

// Action identifies what a control does when activated.
type Action string

const (
	ActionPauseToggle Action = "pause"
	ActionSkip        Action = "skip"
	ActionRepeat      Action = "repeat"
	ActionShuffle     Action = "shuffle"
	ActionStop        Action = "kill"
	ActionQueueView   Action = "queue"
	ActionQueuePage   Action = "qpage"
	ActionQueueRemove Action = "qremove"
	ActionQueueMove   Action = "qmove"
	ActionTrackPick   Action = "tpick"
	ActionAlbumPick   Action = "apick"
)

// knownActions is the decode allowlist. An id carrying anything else is
// malformed, most likely from an old bot revision.
var knownActions = map[Action]bool{
	ActionPauseToggle: true,
	ActionSkip:        true,
	ActionRepeat:      true,
	ActionShuffle:     true,
	ActionStop:        true,
	ActionQueueView:   true,
	ActionQueuePage:   true,
	ActionQueueRemove: true,
	ActionQueueMove:   true,
	ActionTrackPick:   true,
	ActionAlbumPick:   true,
}

// ControlID carries the action and paging context needed to interpret a later
// selection. Ids are generated per render and may be activated long after the
// session state they were rendered from has changed, so any index they carry
// is a hint to re-validate, never a fact.
type ControlID struct {
	Action   Action
	GuildID  snowflake.ID
	Page     int
	Selector int
}

// Encode serializes the control id into its wire form.
func (c ControlID) Encode() string {
	id := strings.Join([]string{
		Prefix,
		string(c.Action),
		c.GuildID.String(),
		strconv.Itoa(c.Page),
		strconv.Itoa(c.Selector),
	}, ":")
	if len(id) > maxLength {
		// Unreachable with the fixed field set; guards future additions.
		panic(fmt.Sprintf("control id exceeds %d bytes: %q", maxLength, id))
	}
	return id
}

// Decode parses a wire-form control id. Returns ErrMalformedControlID for
// unknown action tags, non-numeric fields, or a wrong field count.
func Decode(raw string) (ControlID, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 5 || parts[0] != Prefix {
		return ControlID{}, domain.ErrMalformedControlID
	}

	action := Action(parts[1])
	if !knownActions[action] {
		return ControlID{}, domain.ErrMalformedControlID
	}

	guildID, err := snowflake.Parse(parts[2])
	if err != nil {
		return ControlID{}, domain.ErrMalformedControlID
	}

	page, err := strconv.Atoi(parts[3])
	if err != nil {
		return ControlID{}, domain.ErrMalformedControlID
	}

	selector, err := strconv.Atoi(parts[4])
	if err != nil {
		return ControlID{}, domain.ErrMalformedControlID
	}

	return ControlID{
		Action:   action,
		GuildID:  guildID,
		Page:     page,
		Selector: selector,
	}, nil
}
