package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/spotx/internal/formatter"
	"github.com/desertthunder/spotx/internal/services"
	"github.com/desertthunder/spotx/internal/shared"
	"github.com/desertthunder/spotx/internal/ui"
	"github.com/urfave/cli/v3"
)

// Search looks up tracks by artist and title and prints them.
//
// The query may be given as flags or as a single "Artist - Title" argument.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	artist, title := cmd.String("artist"), cmd.String("title")
	if query := cmd.StringArg("query"); query != "" && artist == "" && title == "" {
		artist, title = services.ParseQuery(query)
	}
	if strings.TrimSpace(artist) == "" && strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: --artist or --title", shared.ErrMissingArgument)
	}

	format := formatter.Format(cmd.String("format"))
	if cmd.Bool("json") {
		format = formatter.JSON
	}
	format, err := formatter.ParseFormat(string(format))
	if err != nil {
		return err
	}

	limit := cmd.Int("limit")
	r.logger.Debug("searching", "artist", artist, "title", title, "limit", limit)

	tracks, err := r.spotify.Search(ctx, artist, title, limit)
	if err != nil {
		return err
	}

	if cmd.Bool("pick") && len(tracks) > 0 {
		track, ok, err := ui.Pick(r.input, r.output, "Results for "+searchLabel(artist, title), tracks)
		if err != nil {
			return err
		}
		if !ok {
			return r.writePlain("No track selected\n")
		}
		tracks = []services.Track{track}
	}

	heading := "Search: " + searchLabel(artist, title)
	if path := cmd.String("output"); path != "" {
		if !cmd.IsSet("format") && !cmd.Bool("json") {
			format = ""
		}
		written, err := formatter.WriteFile(path, format, heading, tracks)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Wrote %d track(s) to %s\n", len(tracks), written)
	}

	if len(tracks) == 0 && format == formatter.Text {
		return r.writePlain("No tracks found for %s\n", searchLabel(artist, title))
	}
	return formatter.Write(r.output, format, heading, tracks)
}

func searchLabel(artist, title string) string {
	switch {
	case artist == "":
		return title
	case title == "":
		return artist
	default:
		return artist + " - " + title
	}
}
