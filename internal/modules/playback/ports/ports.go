package ports

import (
	"context"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/plexbeat/plexbeat/internal/modules/playback/domain"
)

// AudioPlayer defines the interface to the external audio streaming engine.
// Implementations must honor the context deadline: a timed-out call reports
// an error and leaves the engine in its prior state.
type AudioPlayer interface {
	// Play loads and starts playback of the given URI, replacing any track
	// that is currently playing.
	Play(ctx context.Context, guildID snowflake.ID, uri string) error

	// Stop stops the current playback without disconnecting.
	Stop(ctx context.Context, guildID snowflake.ID) error

	// SetPaused pauses or resumes the current playback.
	SetPaused(ctx context.Context, guildID snowflake.ID, paused bool) error
}

// VoiceConnection defines the interface for voice channel membership.
type VoiceConnection interface {
	// Join connects the bot to the specified voice channel.
	Join(ctx context.Context, guildID, channelID snowflake.ID) error

	// Leave disconnects the bot from the voice channel.
	Leave(ctx context.Context, guildID snowflake.ID) error
}

// VoiceStateProvider defines the interface for reading Discord voice state.
type VoiceStateProvider interface {
	// UserVoiceChannel returns the voice channel the user is currently in,
	// or nil if the user is not in a voice channel.
	UserVoiceChannel(guildID, userID snowflake.ID) (*snowflake.ID, error)
}

// CatalogTrack is a track record returned by the media catalog. Loosely-typed
// metadata from the catalog boundary is normalized into this record at the
// adapter; missing optional fields are empty, required fields are validated.
type CatalogTrack struct {
	SourceKey   string
	Title       string
	Artist      string
	Album       string
	Duration    time.Duration
	ArtworkURL  string
	PlaybackURI string
}

// CatalogPlaylist is a playlist summary returned by the media catalog.
type CatalogPlaylist struct {
	Key       string
	Title     string
	ItemCount int
}

// CatalogArtist is an artist record. Both keys are container keys for List
// and AlbumsOf respectively; their layout is an adapter concern.
type CatalogArtist struct {
	TracksKey string
	AlbumsKey string
	Title     string
}

// CatalogAlbum is an album summary; Key lists the album's tracks.
type CatalogAlbum struct {
	Key        string
	Title      string
	TrackCount int
}

// Catalog defines the interface to the media catalog service.
type Catalog interface {
	// Search returns tracks matching a free-text query.
	Search(ctx context.Context, query string) ([]CatalogTrack, error)

	// Resolve returns the track for an opaque source key.
	Resolve(ctx context.Context, sourceKey string) (*CatalogTrack, error)

	// List returns all tracks in a container (artist, album or playlist).
	List(ctx context.Context, containerKey string) ([]CatalogTrack, error)

	// Playlists returns the available playlists.
	Playlists(ctx context.Context) ([]CatalogPlaylist, error)

	// Artists returns artists matching a free-text query.
	Artists(ctx context.Context, query string) ([]CatalogArtist, error)

	// Albums returns albums matching a free-text query.
	Albums(ctx context.Context, query string) ([]CatalogAlbum, error)

	// AlbumsOf returns the albums under an artist's albums key.
	AlbumsOf(ctx context.Context, albumsKey string) ([]CatalogAlbum, error)
}

// EventPublisher publishes playback lifecycle events asynchronously.
type EventPublisher interface {
	PublishTrackStarted(event domain.TrackStartedEvent)
	PublishPlayerStateChanged(event domain.PlayerStateChangedEvent)
	PublishTrackEnded(event domain.TrackEndedEvent)
	PublishSessionExpired(event domain.SessionExpiredEvent)
}

// EventSubscriber registers handlers for playback lifecycle events.
type EventSubscriber interface {
	OnTrackStarted(handler func(context.Context, domain.TrackStartedEvent))
	OnPlayerStateChanged(handler func(context.Context, domain.PlayerStateChangedEvent))
	OnTrackEnded(handler func(context.Context, domain.TrackEndedEvent))
	OnSessionExpired(handler func(context.Context, domain.SessionExpiredEvent))
}
