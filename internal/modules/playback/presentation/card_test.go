package presentation

import (
	"context"
	"errors"
	"testing"

	"github.com/plexbeat/plexbeat/internal/modules/playback/domain"
)

func TestProjectorSendsCardOnTrackStart(t *testing.T) {
	registry := newTestRegistry()
	sess := newTestSession(t, registry)
	messenger := &fakeMessenger{}
	projector := NewCardProjector(registry, messenger)

	item := testItem("a")
	projector.HandleTrackStarted(context.Background(), domain.TrackStartedEvent{
		GuildID: testGuildID,
		Item:    item,
	})

	sends, _, deletes := messenger.counts()
	if sends != 1 {
		t.Errorf("expected one card sent, got %d", sends)
	}
	if deletes != 0 {
		t.Errorf("no previous card to delete, got %d deletes", deletes)
	}
	ref := sess.LiveCard()
	if ref == nil {
		t.Fatal("expected the session to track the live card")
	}
	if ref.ChannelID != messenger.lastSendChannel() {
		t.Errorf("tracked ref channel %s differs from send channel %s",
			ref.ChannelID, messenger.lastSendChannel())
	}
}

func TestProjectorReplacesPreviousCard(t *testing.T) {
	registry := newTestRegistry()
	newTestSession(t, registry)
	messenger := &fakeMessenger{}
	projector := NewCardProjector(registry, messenger)

	projector.HandleTrackStarted(context.Background(), domain.TrackStartedEvent{
		GuildID: testGuildID, Item: testItem("a"),
	})
	projector.HandleTrackStarted(context.Background(), domain.TrackStartedEvent{
		GuildID: testGuildID, Item: testItem("b"),
	})

	sends, _, deletes := messenger.counts()
	if sends != 2 {
		t.Errorf("expected two cards sent, got %d", sends)
	}
	if deletes != 1 {
		t.Errorf("expected the first card deleted, got %d deletes", deletes)
	}
}

func TestProjectorKeepsPreviousCardWhenSendFails(t *testing.T) {
	registry := newTestRegistry()
	newTestSession(t, registry)
	messenger := &fakeMessenger{}
	projector := NewCardProjector(registry, messenger)

	projector.HandleTrackStarted(context.Background(), domain.TrackStartedEvent{
		GuildID: testGuildID, Item: testItem("a"),
	})

	messenger.sendErr = errors.New("channel gone")
	projector.HandleTrackStarted(context.Background(), domain.TrackStartedEvent{
		GuildID: testGuildID, Item: testItem("b"),
	})

	_, _, deletes := messenger.counts()
	if deletes != 0 {
		t.Errorf("previous card must survive a failed send, got %d deletes", deletes)
	}

	// The old card is still tracked and gets cleaned up on expiry.
	messenger.sendErr = nil
	projector.HandleSessionExpired(context.Background(), domain.SessionExpiredEvent{
		GuildID: testGuildID,
	})
	_, _, deletes = messenger.counts()
	if deletes != 1 {
		t.Errorf("expected the surviving card deleted on expiry, got %d deletes", deletes)
	}
}

func TestProjectorEditsCardOnStateChange(t *testing.T) {
	registry := newTestRegistry()
	sess := newTestSession(t, registry)
	if _, err := sess.Enqueue(context.Background(), testItem("a")); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	messenger := &fakeMessenger{}
	projector := NewCardProjector(registry, messenger)

	projector.HandleTrackStarted(context.Background(), domain.TrackStartedEvent{
		GuildID: testGuildID, Item: testItem("a"),
	})
	projector.HandlePlayerStateChanged(context.Background(), domain.PlayerStateChangedEvent{
		GuildID: testGuildID, State: domain.StatePaused,
	})

	_, edits, _ := messenger.counts()
	if edits != 1 {
		t.Errorf("expected one card edit, got %d", edits)
	}
}

func TestProjectorStateChangeWithoutCardIsNoop(t *testing.T) {
	registry := newTestRegistry()
	newTestSession(t, registry)
	messenger := &fakeMessenger{}
	projector := NewCardProjector(registry, messenger)

	projector.HandlePlayerStateChanged(context.Background(), domain.PlayerStateChangedEvent{
		GuildID: testGuildID, State: domain.StatePaused,
	})

	sends, edits, deletes := messenger.counts()
	if sends+edits+deletes != 0 {
		t.Errorf("expected no messenger calls, got %d/%d/%d", sends, edits, deletes)
	}
}

func TestProjectorDeletesCardOnExpiry(t *testing.T) {
	registry := newTestRegistry()
	newTestSession(t, registry)
	messenger := &fakeMessenger{}
	projector := NewCardProjector(registry, messenger)

	projector.HandleTrackStarted(context.Background(), domain.TrackStartedEvent{
		GuildID: testGuildID, Item: testItem("a"),
	})
	projector.HandleSessionExpired(context.Background(), domain.SessionExpiredEvent{
		GuildID: testGuildID,
	})

	_, _, deletes := messenger.counts()
	if deletes != 1 {
		t.Errorf("expected the card deleted, got %d deletes", deletes)
	}

	// A second expiry for the same guild has nothing left to delete.
	projector.HandleSessionExpired(context.Background(), domain.SessionExpiredEvent{
		GuildID: testGuildID,
	})
	_, _, deletes = messenger.counts()
	if deletes != 1 {
		t.Errorf("expected no further deletes, got %d", deletes)
	}
}

func TestProjectorForgetCardSkipsDelete(t *testing.T) {
	registry := newTestRegistry()
	newTestSession(t, registry)
	messenger := &fakeMessenger{}
	projector := NewCardProjector(registry, messenger)

	projector.HandleTrackStarted(context.Background(), domain.TrackStartedEvent{
		GuildID: testGuildID, Item: testItem("a"),
	})
	projector.ForgetCard(testGuildID)
	projector.DropCard(testGuildID)

	_, _, deletes := messenger.counts()
	if deletes != 0 {
		t.Errorf("forgotten card must not be deleted, got %d deletes", deletes)
	}
}
