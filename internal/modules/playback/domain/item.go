package domain

import (
	"strconv"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// QueueItem is a single playable entry resolved from the media catalog.
// Items are immutable once enqueued; every field is fixed at resolution time.
type QueueItem struct {
	Title       string
	Artist      string
	Album       string
	Duration    time.Duration
	ArtworkURL  string
	PlaybackURI string
	RequestedBy snowflake.ID
	EnqueuedAt  time.Time
}

// NewQueueItem creates a QueueItem with the enqueue timestamp set to now.
func NewQueueItem(
	title, artist, album string,
	duration time.Duration,
	artworkURL, playbackURI string,
	requestedBy snowflake.ID,
) *QueueItem {
	return &QueueItem{
		Title:       title,
		Artist:      artist,
		Album:       album,
		Duration:    duration,
		ArtworkURL:  artworkURL,
		PlaybackURI: playbackURI,
		RequestedBy: requestedBy,
		EnqueuedAt:  time.Now().UTC(),
	}
}

// IsValid returns true if the item has the minimum required fields.
func (q *QueueItem) IsValid() bool {
	return q.PlaybackURI != "" && q.Title != ""
}

// DisplayTitle returns "Artist - Title", or just the title when the artist
// is unknown.
func (q *QueueItem) DisplayTitle() string {
	if q.Artist == "" {
		return q.Title
	}
	return q.Artist + " - " + q.Title
}

// FormattedDuration returns the duration as a human-readable string
// (mm:ss or hh:mm:ss).
func (q *QueueItem) FormattedDuration() string {
	totalSeconds := int(q.Duration.Seconds())
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours > 0 {
		return pad(hours) + ":" + pad(minutes) + ":" + pad(seconds)
	}
	return pad(minutes) + ":" + pad(seconds)
}

func pad(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
