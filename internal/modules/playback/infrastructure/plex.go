package infrastructure

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/plexbeat/plexbeat/internal/modules/playback/ports"
)

// PlexCatalog talks to a Plex Media Server over its HTTP API. The server
// answers in XML; responses are normalized into explicit CatalogTrack records
// at this boundary so nothing downstream touches string-keyed metadata.
type PlexCatalog struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// PlexConfig contains the Plex server connection configuration.
type PlexConfig struct {
	BaseURL string
	Token   string
}

// NewPlexCatalog creates a PlexCatalog for the configured server.
func NewPlexCatalog(config PlexConfig) *PlexCatalog {
	return &PlexCatalog{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		token:   config.Token,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Plex XML response shapes. Only the attributes the bot uses are mapped.
type plexContainer struct {
	XMLName     xml.Name        `xml:"MediaContainer"`
	Tracks      []plexTrack     `xml:"Track"`
	Playlists   []plexPlaylist  `xml:"Playlist"`
	Directories []plexDirectory `xml:"Directory"`
}

type plexTrack struct {
	Key              string      `xml:"key,attr"`
	Title            string      `xml:"title,attr"`
	GrandparentTitle string      `xml:"grandparentTitle,attr"`
	ParentTitle      string      `xml:"parentTitle,attr"`
	Duration         int64       `xml:"duration,attr"`
	Thumb            string      `xml:"thumb,attr"`
	Media            []plexMedia `xml:"Media"`
}

type plexMedia struct {
	Parts []plexPart `xml:"Part"`
}

type plexPart struct {
	Key string `xml:"key,attr"`
}

type plexPlaylist struct {
	Key       string `xml:"key,attr"`
	Title     string `xml:"title,attr"`
	LeafCount int    `xml:"leafCount,attr"`
}

// plexDirectory covers the artist and album results of a library search.
type plexDirectory struct {
	RatingKey string `xml:"ratingKey,attr"`
	Key       string `xml:"key,attr"`
	Title     string `xml:"title,attr"`
	Type      string `xml:"type,attr"`
	LeafCount int    `xml:"leafCount,attr"`
}

// Search returns tracks matching a free-text query.
func (p *PlexCatalog) Search(ctx context.Context, query string) ([]ports.CatalogTrack, error) {
	container, err := p.get(ctx, "/search", url.Values{"query": {query}, "type": {"10"}})
	if err != nil {
		return nil, err
	}
	return p.convertTracks(container.Tracks), nil
}

// Resolve returns the track for an opaque source key (a metadata path such
// as /library/metadata/12345).
func (p *PlexCatalog) Resolve(ctx context.Context, sourceKey string) (*ports.CatalogTrack, error) {
	container, err := p.get(ctx, sourceKey, nil)
	if err != nil {
		return nil, err
	}
	if len(container.Tracks) == 0 {
		return nil, fmt.Errorf("no track found for key %s", sourceKey)
	}
	track := p.convertTrack(container.Tracks[0])
	return &track, nil
}

// List returns all tracks in a container (album children or playlist items).
func (p *PlexCatalog) List(ctx context.Context, containerKey string) ([]ports.CatalogTrack, error) {
	container, err := p.get(ctx, containerKey, nil)
	if err != nil {
		return nil, err
	}
	return p.convertTracks(container.Tracks), nil
}

// Playlists returns the audio playlists available on the server.
func (p *PlexCatalog) Playlists(ctx context.Context) ([]ports.CatalogPlaylist, error) {
	container, err := p.get(ctx, "/playlists", url.Values{"playlistType": {"audio"}})
	if err != nil {
		return nil, err
	}

	playlists := make([]ports.CatalogPlaylist, 0, len(container.Playlists))
	for _, pl := range container.Playlists {
		playlists = append(playlists, ports.CatalogPlaylist{
			Key:       pl.Key,
			Title:     pl.Title,
			ItemCount: pl.LeafCount,
		})
	}
	return playlists, nil
}

// Artists returns artists matching a free-text query. The tracks key fetches
// every track by the artist in one request, the albums key their albums.
func (p *PlexCatalog) Artists(ctx context.Context, query string) ([]ports.CatalogArtist, error) {
	container, err := p.get(ctx, "/search", url.Values{"query": {query}, "type": {"8"}})
	if err != nil {
		return nil, err
	}

	artists := make([]ports.CatalogArtist, 0, len(container.Directories))
	for _, dir := range container.Directories {
		if dir.Type != "artist" || dir.RatingKey == "" {
			continue
		}
		artists = append(artists, ports.CatalogArtist{
			TracksKey: "/library/metadata/" + dir.RatingKey + "/allLeaves",
			AlbumsKey: "/library/metadata/" + dir.RatingKey + "/children",
			Title:     dir.Title,
		})
	}
	return artists, nil
}

// Albums returns albums matching a free-text query.
func (p *PlexCatalog) Albums(ctx context.Context, query string) ([]ports.CatalogAlbum, error) {
	container, err := p.get(ctx, "/search", url.Values{"query": {query}, "type": {"9"}})
	if err != nil {
		return nil, err
	}
	return p.convertAlbums(container.Directories), nil
}

// AlbumsOf returns the albums under an artist's albums key.
func (p *PlexCatalog) AlbumsOf(ctx context.Context, albumsKey string) ([]ports.CatalogAlbum, error) {
	container, err := p.get(ctx, albumsKey, nil)
	if err != nil {
		return nil, err
	}
	return p.convertAlbums(container.Directories), nil
}

func (p *PlexCatalog) convertAlbums(dirs []plexDirectory) []ports.CatalogAlbum {
	albums := make([]ports.CatalogAlbum, 0, len(dirs))
	for _, dir := range dirs {
		if dir.Type != "album" || dir.RatingKey == "" {
			continue
		}
		albums = append(albums, ports.CatalogAlbum{
			Key:        "/library/metadata/" + dir.RatingKey + "/children",
			Title:      dir.Title,
			TrackCount: dir.LeafCount,
		})
	}
	return albums
}

// get performs an authenticated GET against the Plex server and decodes the
// XML media container.
func (p *PlexCatalog) get(
	ctx context.Context,
	path string,
	params url.Values,
) (*plexContainer, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("X-Plex-Token", p.token)

	reqURL := p.baseURL + path
	if strings.Contains(path, "?") {
		reqURL += "&" + params.Encode()
	} else {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build Plex request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("plex request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("plex returned status %d for %s", resp.StatusCode, path)
	}

	var container plexContainer
	if err := xml.NewDecoder(resp.Body).Decode(&container); err != nil {
		return nil, fmt.Errorf("failed to decode Plex response: %w", err)
	}

	return &container, nil
}

// convertTracks normalizes Plex tracks, dropping entries with no playable part.
func (p *PlexCatalog) convertTracks(tracks []plexTrack) []ports.CatalogTrack {
	result := make([]ports.CatalogTrack, 0, len(tracks))
	for _, t := range tracks {
		converted := p.convertTrack(t)
		if converted.PlaybackURI == "" {
			continue
		}
		result = append(result, converted)
	}
	return result
}

func (p *PlexCatalog) convertTrack(t plexTrack) ports.CatalogTrack {
	return ports.CatalogTrack{
		SourceKey:   t.Key,
		Title:       t.Title,
		Artist:      t.GrandparentTitle,
		Album:       t.ParentTitle,
		Duration:    time.Duration(t.Duration) * time.Millisecond,
		ArtworkURL:  p.authenticatedURL(t.Thumb),
		PlaybackURI: p.authenticatedURL(t.partKey()),
	}
}

// partKey returns the first playable media part key, or empty.
func (t plexTrack) partKey() string {
	for _, media := range t.Media {
		for _, part := range media.Parts {
			if part.Key != "" {
				return part.Key
			}
		}
	}
	return ""
}

// authenticatedURL turns a server-relative path into an absolute URL carrying
// the access token, ready for the audio engine or an embed image.
func (p *PlexCatalog) authenticatedURL(path string) string {
	if path == "" {
		return ""
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return p.baseURL + path + sep + "X-Plex-Token=" + url.QueryEscape(p.token)
}

// Ensure PlexCatalog implements ports.Catalog.
var _ ports.Catalog = (*PlexCatalog)(nil)
