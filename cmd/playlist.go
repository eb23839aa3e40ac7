package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/spotx/internal/formatter"
	"github.com/desertthunder/spotx/internal/services"
	"github.com/desertthunder/spotx/internal/shared"
	"github.com/desertthunder/spotx/internal/tasks"
	"github.com/desertthunder/spotx/internal/ui"
	"github.com/urfave/cli/v3"
)

// PlaylistReplace overwrites a playlist with explicit track references or with the
// best matches for a list of "Artist - Title" queries.
func (r *Runner) PlaylistReplace(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.StringArg("playlist-id")
	if playlistID == "" {
		return fmt.Errorf("%w: playlist-id", shared.ErrMissingArgument)
	}

	refs := cmd.StringSlice("uri")
	queries, err := r.collectQueries(cmd)
	if err != nil {
		return err
	}

	switch {
	case len(refs) > 0 && len(queries) > 0:
		return fmt.Errorf("%w: --uri cannot be combined with --track or --file", shared.ErrInvalidArgument)
	case len(refs) > 0:
		return r.replaceWithRefs(ctx, playlistID, refs, cmd.Bool("dry-run"))
	case len(queries) == 0:
		return fmt.Errorf("%w: --uri, --track or --file", shared.ErrMissingArgument)
	}

	opts := tasks.ResolveOpts{
		NumWorkers: r.config.Resolver.Workers,
		RateLimit:  r.config.Resolver.RateLimit,
	}
	if n := cmd.Int("workers"); n > 0 {
		opts.NumWorkers = n
	}

	if cmd.Bool("dry-run") {
		return r.resolveOnly(ctx, queries, opts)
	}

	var result *tasks.ReplaceResult
	if cmd.Bool("ui") {
		result, err = ui.RunReplace(ctx, r.input, r.output, r.engine, playlistID, queries, opts)
	} else {
		result, err = r.runWithProgress(ctx, playlistID, queries, opts)
	}
	if err != nil {
		return err
	}

	r.writeSummary(result)
	return nil
}

func (r *Runner) collectQueries(cmd *cli.Command) ([]tasks.Query, error) {
	var queries []tasks.Query
	for _, line := range cmd.StringSlice("track") {
		queries = append(queries, tasks.ParseQueries(line)...)
	}

	if path := cmd.String("file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		queries = append(queries, tasks.ParseQueries(string(data))...)
	}
	return queries, nil
}

func (r *Runner) replaceWithRefs(ctx context.Context, playlistID string, refs []string, dryRun bool) error {
	tracks := make([]services.Track, 0, len(refs))
	for _, ref := range refs {
		track, err := services.ParseTrackRef(ref)
		if err != nil {
			return err
		}
		tracks = append(tracks, track)
	}

	if dryRun {
		return formatter.Write(r.output, formatter.Text, "", tracks)
	}

	r.logger.Info("replacing playlist", "playlist", playlistID, "tracks", len(tracks))
	if err := r.spotify.ReplacePlaylist(ctx, playlistID, tracks); err != nil {
		return err
	}
	return r.writePlain("✓ Playlist %s now has %d tracks\n", playlistID, len(tracks))
}

// runWithProgress prints progress lines while the engine runs.
func (r *Runner) runWithProgress(ctx context.Context, playlistID string, queries []tasks.Query, opts tasks.ResolveOpts) (*tasks.ReplaceResult, error) {
	progressCh := make(chan tasks.ProgressUpdate, 50)
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for update := range progressCh {
			switch update.Phase {
			case tasks.Authorize:
				r.writePlain("🔑 %s\n", update.Message)
			case tasks.SearchTracks:
				r.writePlain("   %s\n", update.Message)
			case tasks.ReplacePlaylist:
				r.writePlain("\n📝 %s\n", update.Message)
			}
		}
	}()

	result, err := r.engine.Run(ctx, progressCh, playlistID, queries, opts)
	close(progressCh)
	<-printed

	return result, err
}

func (r *Runner) resolveOnly(ctx context.Context, queries []tasks.Query, opts tasks.ResolveOpts) error {
	resolved, err := r.engine.Resolve(ctx, nil, queries, opts)
	if err != nil {
		return err
	}

	if err := formatter.Write(r.output, formatter.Text, "", resolved.Tracks()); err != nil {
		return err
	}
	r.writeMisses(resolved)
	return nil
}

func (r *Runner) writeSummary(result *tasks.ReplaceResult) {
	r.writePlain("\n")
	r.writePlainHeader("Replace Complete!")
	r.writePlain("Playlist: %s\n", result.PlaylistID)
	if result.Resolve != nil {
		total := len(result.Resolve.Resolutions)
		r.writePlain("Matched: %d/%d\n", result.Resolve.Found, total)
		r.writeMisses(result.Resolve)
	}
	r.writePlain("Tracks now in playlist: %d\n", result.Replaced)
}

func (r *Runner) writeMisses(resolved *tasks.ResolveResult) {
	misses := resolved.Misses()
	if len(misses) == 0 {
		return
	}

	r.writePlain("\nNo match for %d queries:\n", len(misses))
	for _, miss := range misses {
		if miss.Err != nil {
			r.writePlain("  - %s (%v)\n", miss.Query, miss.Err)
			continue
		}
		r.writePlain("  - %s\n", miss.Query)
	}
}
