// submodule cmd contains command definitions
package main

import (
	"fmt"
	"strings"

	"github.com/desertthunder/spotx/internal/credentials"
	"github.com/desertthunder/spotx/internal/formatter"
	"github.com/urfave/cli/v3"
)

// globalFlags are read by [Runner.setup] before any command runs.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to settings file (default: user config dir)",
			Sources: cli.EnvVars("SPOTX_CONFIG"),
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Enable debug logging",
		},
		&cli.StringFlag{
			Name:  "log-file",
			Usage: "Also write logs to a rotated file",
		},
		&cli.BoolFlag{
			Name:  "no-cache",
			Usage: "Bypass the search cache",
		},
	}
}

// configCommand manages settings and stored credentials
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage settings and stored credentials",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Create the settings file and store client credentials",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "client-id",
						Usage:   "Spotify application client ID",
						Sources: cli.EnvVars("SPOTIFY_CLIENT_ID"),
					},
					&cli.StringFlag{
						Name:    "client-secret",
						Usage:   "Spotify application client secret",
						Sources: cli.EnvVars("SPOTIFY_CLIENT_SECRET"),
					},
				},
				Action: r.ConfigInit,
			},
			{
				Name:  "get",
				Usage: fmt.Sprintf("Print a stored credential (%s)", strings.Join(credentials.Keys(), ", ")),
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "key"},
				},
				Action: r.ConfigGet,
			},
			{
				Name:      "set",
				Usage:     "Store one or more credentials given as key=value pairs",
				ArgsUsage: "key=value [key=value...]",
				Action:    r.ConfigSet,
			},
			{
				Name:  "show",
				Usage: "Show stored credentials with secrets masked",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "reveal",
						Usage: "Do not mask secrets",
					},
				},
				Action: r.ConfigShow,
			},
			{
				Name:   "path",
				Usage:  "Print the settings, credentials and cache locations",
				Action: r.ConfigPath,
			},
		},
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the Spotify access token",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authorize in the browser and store a new token",
				Action: r.AuthLogin,
			},
			{
				Name:   "refresh",
				Usage:  "Exchange the stored refresh token for a new access token",
				Action: r.AuthRefresh,
			},
			{
				Name:  "status",
				Usage: "Show whether a usable token is stored",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthStatus,
			},
			{
				Name:   "token",
				Usage:  "Print a valid access token, refreshing or authorizing as needed",
				Action: r.AuthToken,
			},
		},
	}
}

// searchCommand searches the catalog for a track
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search the catalog for a track",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query", UsageText: `"Artist - Title"`},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "artist",
				Aliases: []string{"a"},
				Usage:   "Artist name",
			},
			&cli.StringFlag{
				Name:    "title",
				Aliases: []string{"t"},
				Usage:   "Track title",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Maximum number of results",
				Value:   1,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   fmt.Sprintf("Output format (%s)", strings.Join(formatter.Formats(), ", ")),
				Value:   string(formatter.Text),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write results to a file instead of stdout",
			},
			&cli.BoolFlag{
				Name:    "pick",
				Aliases: []string{"p"},
				Usage:   "Choose one result interactively",
			},
		},
		Action: r.Search,
	}
}

// playlistCommand handles playlist operations
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlist",
		Usage: "Playlist operations",
		Commands: []*cli.Command{
			{
				Name:  "replace",
				Usage: "Replace every track in a playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "playlist-id"},
				},
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "uri",
						Aliases: []string{"u"},
						Usage:   "Track id, spotify:track: URI or open.spotify.com link",
					},
					&cli.StringSliceFlag{
						Name:    "track",
						Aliases: []string{"t"},
						Usage:   `Track to search for, as "Artist - Title"`,
					},
					&cli.StringFlag{
						Name:  "file",
						Usage: `File with one "Artist - Title" per line`,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent searches (default from settings)",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Resolve tracks and print them without touching the playlist",
					},
					&cli.BoolFlag{
						Name:  "ui",
						Usage: "Show an interactive progress view",
					},
				},
				Action: r.PlaylistReplace,
			},
		},
	}
}

// cacheCommand manages the search cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage the search cache",
		Commands: []*cli.Command{
			{
				Name:   "clear",
				Usage:  "Remove every cached search",
				Action: r.CacheClear,
			},
			{
				Name:   "prune",
				Usage:  "Remove cached searches older than the configured TTL",
				Action: r.CachePrune,
			},
			{
				Name:   "stats",
				Usage:  "Show how many searches are cached",
				Action: r.CacheStats,
			},
		},
	}
}
