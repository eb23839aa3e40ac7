package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/spotx/internal/services"
	"github.com/desertthunder/spotx/internal/shared"
)

// Catalog is the subset of [services.SpotifyService] the engine drives.
type Catalog interface {
	SearchTrack(ctx context.Context, artist, title string) (*services.Track, error)
	ReplacePlaylist(ctx context.Context, playlistID string, tracks []services.Track) error
}

// Query is one track to look up.
type Query struct {
	Artist string
	Title  string
}

func (q Query) String() string {
	if q.Artist == "" {
		return q.Title
	}
	return q.Artist + " - " + q.Title
}

// ParseQueries reads one "Artist - Title" per line, skipping blanks and # comments.
func ParseQueries(text string) []Query {
	var queries []Query
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		artist, title := services.ParseQuery(line)
		queries = append(queries, Query{Artist: artist, Title: title})
	}
	return queries
}

// Resolution is the outcome for a single [Query]. Track is nil on a miss.
type Resolution struct {
	Index int
	Query Query
	Track *services.Track
	Err   error
}

// ResolveResult collects every [Resolution] in input order.
type ResolveResult struct {
	Resolutions []Resolution
	Found       int
	Missed      int
	Failed      int
}

// Tracks returns the matched tracks in input order.
func (r *ResolveResult) Tracks() []services.Track {
	tracks := make([]services.Track, 0, r.Found)
	for _, res := range r.Resolutions {
		if res.Track != nil {
			tracks = append(tracks, *res.Track)
		}
	}
	return tracks
}

// Misses returns the queries that matched nothing or failed.
func (r *ResolveResult) Misses() []Resolution {
	var misses []Resolution
	for _, res := range r.Resolutions {
		if res.Track == nil {
			misses = append(misses, res)
		}
	}
	return misses
}

// ReplaceResult is returned by [PlaylistEngine.Run].
type ReplaceResult struct {
	PlaylistID string
	Resolve    *ResolveResult
	Replaced   int
}

// ResolveOpts configures the worker pool.
type ResolveOpts struct {
	NumWorkers int     // Concurrent workers (default: 4)
	RateLimit  float64 // Searches per second (default: 5)
}

// PlaylistEngine resolves queries and replaces playlists.
type PlaylistEngine struct {
	catalog Catalog
	tokens  services.TokenProvider
}

// NewPlaylistEngine creates an engine over catalog. tokens is warmed once before each batch.
func NewPlaylistEngine(catalog Catalog, tokens services.TokenProvider) *PlaylistEngine {
	return &PlaylistEngine{catalog: catalog, tokens: tokens}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *PlaylistEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run resolves queries and replaces the playlist with every match, in input order.
//
// Misses do not stop the run. Nothing is replaced when no query matched.
func (e *PlaylistEngine) Run(
	ctx context.Context,
	progress chan<- ProgressUpdate,
	playlistID string,
	queries []Query,
	opts ResolveOpts,
) (*ReplaceResult, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	resolved, err := e.Resolve(ctx, progress, queries, opts)
	if err != nil {
		return nil, err
	}

	result := &ReplaceResult{PlaylistID: playlistID, Resolve: resolved}
	tracks := resolved.Tracks()
	if len(tracks) == 0 {
		return result, fmt.Errorf("%w: none of %d queries matched", shared.ErrTrackNotFound, len(queries))
	}

	e.sendProgress(progress, replacePlaylistUpdate(playlistID, tracks))
	if err := e.catalog.ReplacePlaylist(ctx, playlistID, tracks); err != nil {
		return result, err
	}
	result.Replaced = len(tracks)
	return result, nil
}
