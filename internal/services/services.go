package services

import (
	"context"
	"fmt"
	"strings"
)

const trackURIPrefix = "spotify:track:"

// TokenProvider yields a bearer token for each API call. [*auth.Manager] implements it.
type TokenProvider interface {
	CurrentToken(ctx context.Context) (string, error)
}

// TrackCache stores search results by query key.
//
// A found entry with no tracks records a search that matched nothing.
type TrackCache interface {
	Get(ctx context.Context, key string) (tracks []Track, found bool, err error)
	Put(ctx context.Context, key string, tracks []Track) error
}

// Track is a search result or playlist entry.
//
// URI holds the catalog track id; see [Track.SpotifyURI].
type Track struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
	Album  string `json:"album"`
	URI    string `json:"uri"`
}

// SpotifyURI renders the track as spotify:track:<id>.
func (t Track) SpotifyURI() string {
	if strings.HasPrefix(t.URI, "spotify:") {
		return t.URI
	}
	return trackURIPrefix + t.URI
}

// String formats the track as "Artist - Title".
func (t Track) String() string {
	return fmt.Sprintf("%s - %s", t.Artist, t.Title)
}

// ParseTrackRef accepts a bare id, a spotify:track: URI, or an open.spotify.com track link.
func ParseTrackRef(ref string) (Track, error) {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return Track{}, fmt.Errorf("empty track reference")
	case strings.HasPrefix(ref, trackURIPrefix):
		return Track{URI: strings.TrimPrefix(ref, trackURIPrefix)}, nil
	case strings.Contains(ref, "open.spotify.com/track/"):
		id := ref[strings.Index(ref, "/track/")+len("/track/"):]
		if i := strings.IndexAny(id, "?#/"); i >= 0 {
			id = id[:i]
		}
		if id == "" {
			return Track{}, fmt.Errorf("no track id in %q", ref)
		}
		return Track{URI: id}, nil
	case strings.ContainsAny(ref, ":/ "):
		return Track{}, fmt.Errorf("unrecognized track reference %q", ref)
	default:
		return Track{URI: ref}, nil
	}
}

// ParseQuery splits "Artist - Title" into its parts. Without a separator the whole line is the title.
func ParseQuery(line string) (artist, title string) {
	line = strings.TrimSpace(line)
	if i := strings.Index(line, " - "); i >= 0 {
		return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+3:])
	}
	return "", line
}
