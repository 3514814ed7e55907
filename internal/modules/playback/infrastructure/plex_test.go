package infrastructure

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const searchResponse = `<?xml version="1.0" encoding="UTF-8"?>
<MediaContainer size="2">
  <Track key="/library/metadata/1" title="Song One" grandparentTitle="Band" parentTitle="First Album" duration="185000" thumb="/thumb/1">
    <Media><Part key="/parts/1/file.mp3"/></Media>
  </Track>
  <Track key="/library/metadata/2" title="No Media" grandparentTitle="Band" parentTitle="First Album" duration="1000"/>
</MediaContainer>`

const playlistsResponse = `<?xml version="1.0" encoding="UTF-8"?>
<MediaContainer size="1">
  <Playlist key="/playlists/10/items" title="Road Trip" leafCount="42"/>
</MediaContainer>`

const artistSearchResponse = `<?xml version="1.0" encoding="UTF-8"?>
<MediaContainer size="2">
  <Directory ratingKey="7" key="/library/metadata/7/children" title="Band" type="artist" leafCount="20"/>
  <Directory ratingKey="3" key="/library/metadata/3/children" title="First Album" type="album" leafCount="10"/>
</MediaContainer>`

const albumSearchResponse = `<?xml version="1.0" encoding="UTF-8"?>
<MediaContainer size="2">
  <Directory ratingKey="3" key="/library/metadata/3/children" title="First Album" type="album" leafCount="10"/>
  <Directory ratingKey="4" key="/library/metadata/4/children" title="Second Album" type="album" leafCount="12"/>
</MediaContainer>`

func newTestServer(t *testing.T) (*httptest.Server, *PlexCatalog) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("X-Plex-Token") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		switch r.URL.Path {
		case "/search":
			switch r.URL.Query().Get("type") {
			case "8":
				_, _ = w.Write([]byte(artistSearchResponse))
			case "9":
				_, _ = w.Write([]byte(albumSearchResponse))
			default:
				_, _ = w.Write([]byte(searchResponse))
			}
		case "/playlists":
			_, _ = w.Write([]byte(playlistsResponse))
		case "/library/metadata/1":
			_, _ = w.Write([]byte(searchResponse))
		case "/library/metadata/7/children":
			_, _ = w.Write([]byte(albumSearchResponse))
		case "/empty":
			_, _ = w.Write([]byte(`<MediaContainer size="0"></MediaContainer>`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	catalog := NewPlexCatalog(PlexConfig{BaseURL: server.URL, Token: "secret"})
	return server, catalog
}

func TestSearchNormalizesTracks(t *testing.T) {
	server, catalog := newTestServer(t)

	tracks, err := catalog.Search(context.Background(), "song")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The track without a media part is dropped.
	if len(tracks) != 1 {
		t.Fatalf("expected 1 playable track, got %d", len(tracks))
	}

	track := tracks[0]
	if track.Title != "Song One" || track.Artist != "Band" || track.Album != "First Album" {
		t.Errorf("unexpected metadata: %+v", track)
	}
	if track.SourceKey != "/library/metadata/1" {
		t.Errorf("expected source key preserved, got %q", track.SourceKey)
	}
	if track.Duration != 185*time.Second {
		t.Errorf("expected 3m05s, got %v", track.Duration)
	}
	wantURI := server.URL + "/parts/1/file.mp3?X-Plex-Token=secret"
	if track.PlaybackURI != wantURI {
		t.Errorf("expected playback URI %q, got %q", wantURI, track.PlaybackURI)
	}
	if !strings.Contains(track.ArtworkURL, "/thumb/1") ||
		!strings.Contains(track.ArtworkURL, "X-Plex-Token=secret") {
		t.Errorf("artwork URL missing path or token: %q", track.ArtworkURL)
	}
}

func TestResolveReturnsTrack(t *testing.T) {
	_, catalog := newTestServer(t)

	track, err := catalog.Resolve(context.Background(), "/library/metadata/1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if track.Title != "Song One" {
		t.Errorf("expected Song One, got %q", track.Title)
	}
}

func TestResolveNoTrack(t *testing.T) {
	_, catalog := newTestServer(t)

	if _, err := catalog.Resolve(context.Background(), "/empty"); err == nil {
		t.Error("expected error for empty container")
	}
}

func TestPlaylists(t *testing.T) {
	_, catalog := newTestServer(t)

	playlists, err := catalog.Playlists(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(playlists) != 1 {
		t.Fatalf("expected 1 playlist, got %d", len(playlists))
	}
	pl := playlists[0]
	if pl.Title != "Road Trip" || pl.Key != "/playlists/10/items" || pl.ItemCount != 42 {
		t.Errorf("unexpected playlist: %+v", pl)
	}
}

func TestArtistsDeriveContainerKeys(t *testing.T) {
	_, catalog := newTestServer(t)

	artists, err := catalog.Artists(context.Background(), "band")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The album directory in the mixed search result is skipped.
	if len(artists) != 1 {
		t.Fatalf("expected 1 artist, got %d", len(artists))
	}
	artist := artists[0]
	if artist.Title != "Band" {
		t.Errorf("expected Band, got %q", artist.Title)
	}
	if artist.TracksKey != "/library/metadata/7/allLeaves" {
		t.Errorf("unexpected tracks key %q", artist.TracksKey)
	}
	if artist.AlbumsKey != "/library/metadata/7/children" {
		t.Errorf("unexpected albums key %q", artist.AlbumsKey)
	}
}

func TestAlbumsNormalized(t *testing.T) {
	_, catalog := newTestServer(t)

	albums, err := catalog.Albums(context.Background(), "album")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(albums) != 2 {
		t.Fatalf("expected 2 albums, got %d", len(albums))
	}
	album := albums[0]
	if album.Title != "First Album" || album.TrackCount != 10 {
		t.Errorf("unexpected album: %+v", album)
	}
	if album.Key != "/library/metadata/3/children" {
		t.Errorf("unexpected album key %q", album.Key)
	}
}

func TestAlbumsOfArtist(t *testing.T) {
	_, catalog := newTestServer(t)

	albums, err := catalog.AlbumsOf(context.Background(), "/library/metadata/7/children")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(albums) != 2 {
		t.Fatalf("expected 2 albums, got %d", len(albums))
	}
}

func TestErrorStatusReported(t *testing.T) {
	_, catalog := newTestServer(t)

	if _, err := catalog.List(context.Background(), "/does-not-exist"); err == nil {
		t.Error("expected error for 404 response")
	}
}

func TestBadTokenRejected(t *testing.T) {
	server, _ := newTestServer(t)
	catalog := NewPlexCatalog(PlexConfig{BaseURL: server.URL, Token: "wrong"})

	if _, err := catalog.Search(context.Background(), "song"); err == nil {
		t.Error("expected error for rejected token")
	}
}
