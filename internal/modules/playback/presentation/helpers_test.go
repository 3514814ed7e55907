package presentation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/plexbeat/plexbeat/internal/modules/playback/domain"
	"github.com/plexbeat/plexbeat/internal/modules/playback/session"
)

// Shared test doubles for the presentation package.

type stubEngine struct{}

func (stubEngine) Play(context.Context, snowflake.ID, string) error    { return nil }
func (stubEngine) Stop(context.Context, snowflake.ID) error            { return nil }
func (stubEngine) SetPaused(context.Context, snowflake.ID, bool) error { return nil }

type stubVoice struct{}

func (stubVoice) Join(context.Context, snowflake.ID, snowflake.ID) error { return nil }
func (stubVoice) Leave(context.Context, snowflake.ID) error              { return nil }

type stubVoiceState struct {
	channels map[snowflake.ID]snowflake.ID
}

func (s stubVoiceState) UserVoiceChannel(_, userID snowflake.ID) (*snowflake.ID, error) {
	channelID, ok := s.channels[userID]
	if !ok {
		return nil, nil
	}
	return &channelID, nil
}

type stubPublisher struct{}

func (stubPublisher) PublishTrackStarted(domain.TrackStartedEvent)             {}
func (stubPublisher) PublishPlayerStateChanged(domain.PlayerStateChangedEvent) {}
func (stubPublisher) PublishTrackEnded(domain.TrackEndedEvent)                 {}
func (stubPublisher) PublishSessionExpired(domain.SessionExpiredEvent)         {}

// fakeMessenger records card operations.
type fakeMessenger struct {
	mu           sync.Mutex
	nextID       snowflake.ID
	sends        []snowflake.ID
	sendChannels []snowflake.ID
	edits        []snowflake.ID
	deletes      []snowflake.ID
	sendErr      error
}

func (m *fakeMessenger) SendMessage(
	channelID snowflake.ID,
	_ *discordgo.MessageEmbed,
	_ []discordgo.MessageComponent,
) (snowflake.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return 0, m.sendErr
	}
	m.nextID++
	m.sends = append(m.sends, m.nextID)
	m.sendChannels = append(m.sendChannels, channelID)
	return m.nextID, nil
}

func (m *fakeMessenger) lastSendChannel() snowflake.ID {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sendChannels) == 0 {
		return 0
	}
	return m.sendChannels[len(m.sendChannels)-1]
}

func (m *fakeMessenger) EditMessage(
	_, messageID snowflake.ID,
	_ *discordgo.MessageEmbed,
	_ []discordgo.MessageComponent,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edits = append(m.edits, messageID)
	return nil
}

func (m *fakeMessenger) DeleteMessage(_, messageID snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, messageID)
	return nil
}

func (m *fakeMessenger) counts() (sends, edits, deletes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sends), len(m.edits), len(m.deletes)
}

const (
	testGuildID   snowflake.ID = 1
	testUserID    snowflake.ID = 100
	testChannelID snowflake.ID = 3
)

// newTestRegistry builds a registry with one joinable voice channel for
// testUserID.
func newTestRegistry() *session.Registry {
	return session.NewRegistry(
		stubEngine{}, stubVoice{},
		stubVoiceState{channels: map[snowflake.ID]snowflake.ID{testUserID: 50}},
		stubPublisher{}, time.Hour,
	)
}

// newTestSession creates a live session for testGuildID.
func newTestSession(t *testing.T, registry *session.Registry) *session.Session {
	t.Helper()
	sess, err := registry.GetOrCreate(context.Background(), testGuildID, testUserID, testChannelID)
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return sess
}

func testItem(title string) *domain.QueueItem {
	return domain.NewQueueItem(title, "Artist", "Album", 3*time.Minute, "", "plex://"+title, testUserID)
}

// componentInteraction builds a component interaction for the router.
func componentInteraction(customID string, values ...string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type:      discordgo.InteractionMessageComponent,
			GuildID:   testGuildID.String(),
			ChannelID: testChannelID.String(),
			Member: &discordgo.Member{
				User: &discordgo.User{ID: testUserID.String()},
			},
			Data: discordgo.MessageComponentInteractionData{
				CustomID: customID,
				Values:   values,
			},
		},
	}
}
